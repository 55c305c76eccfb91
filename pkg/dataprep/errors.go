package dataprep

import "fmt"

// UnknownCategoryError is returned when a value was never seen while the
// encoder for Column was fitted.
type UnknownCategoryError struct {
	Column string
	Value  string
	Known  []string
}

func (e *UnknownCategoryError) Error() string {
	return fmt.Sprintf("unknown category %q for column %q", e.Value, e.Column)
}

// UnknownCodeError is returned when decoding a code outside the fitted range.
type UnknownCodeError struct {
	Column string
	Code   int
}

func (e *UnknownCodeError) Error() string {
	return fmt.Sprintf("no category with code %d for column %q", e.Code, e.Column)
}

// MissingColumnError is returned when a required raw column is absent.
type MissingColumnError struct {
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("missing required column %q", e.Column)
}

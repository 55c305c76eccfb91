package dataprep

import (
	"fmt"
	"sort"
)

// LabelEncode assigns each distinct value an integer code. Codes follow the
// sorted order of the distinct values so the same data always produces the
// same mapping.
func LabelEncode(data []string) ([]int, []string) {
	seen := map[string]struct{}{}
	for _, v := range data {
		seen[v] = struct{}{}
	}
	classes := make([]string, 0, len(seen))
	for v := range seen {
		classes = append(classes, v)
	}
	sort.Strings(classes)

	index := indexClasses(classes)
	out := make([]int, len(data))
	for i, v := range data {
		out[i] = index[v]
	}
	return out, classes
}

func indexClasses(classes []string) map[string]int {
	index := make(map[string]int, len(classes))
	for i, c := range classes {
		index[c] = i
	}
	return index
}

// LabelEncoder maps the categories of one column to integer codes.
type LabelEncoder struct {
	Column  string
	Classes []string
	Index   map[string]int
}

// NewLabelEncoder returns an unfitted encoder for column.
func NewLabelEncoder(column string) *LabelEncoder {
	return &LabelEncoder{Column: column}
}

// FitTransform learns the classes of values and returns their codes.
func (e *LabelEncoder) FitTransform(values []string) []int {
	codes, classes := LabelEncode(values)
	e.Classes = classes
	e.Index = indexClasses(classes)
	return codes
}

// Transform returns the code of value, or *UnknownCategoryError.
func (e *LabelEncoder) Transform(value string) (int, error) {
	code, ok := e.Index[value]
	if !ok {
		return 0, &UnknownCategoryError{Column: e.Column, Value: value, Known: e.Known()}
	}
	return code, nil
}

// Decode returns the category behind code.
func (e *LabelEncoder) Decode(code int) (string, error) {
	if code < 0 || code >= len(e.Classes) {
		return "", &UnknownCodeError{Column: e.Column, Code: code}
	}
	return e.Classes[code], nil
}

// Known returns a copy of the fitted classes in code order.
func (e *LabelEncoder) Known() []string {
	return append([]string(nil), e.Classes...)
}

// EncoderSet holds one fitted encoder per categorical column.
type EncoderSet struct {
	Encoders map[string]*LabelEncoder
}

// NewEncoderSet returns an empty set.
func NewEncoderSet() *EncoderSet {
	return &EncoderSet{Encoders: map[string]*LabelEncoder{}}
}

// Fit fits one encoder per column from the column's observed values and
// returns the encoded columns.
func (s *EncoderSet) Fit(columns map[string][]string) map[string][]int {
	out := make(map[string][]int, len(columns))
	for col, values := range columns {
		enc := NewLabelEncoder(col)
		out[col] = enc.FitTransform(values)
		s.Encoders[col] = enc
	}
	return out
}

// Encoder returns the encoder for column.
func (s *EncoderSet) Encoder(column string) (*LabelEncoder, bool) {
	if s == nil {
		return nil, false
	}
	enc, ok := s.Encoders[column]
	return enc, ok
}

// Transform encodes value with the encoder of column.
func (s *EncoderSet) Transform(column, value string) (int, error) {
	enc, ok := s.Encoder(column)
	if !ok {
		return 0, fmt.Errorf("no encoder fitted for column %q", column)
	}
	return enc.Transform(value)
}

// Decode maps a code of column back to its category.
func (s *EncoderSet) Decode(column string, code int) (string, error) {
	enc, ok := s.Encoder(column)
	if !ok {
		return "", fmt.Errorf("no encoder fitted for column %q", column)
	}
	return enc.Decode(code)
}

// Classes returns the known categories of column, or nil.
func (s *EncoderSet) Classes(column string) []string {
	enc, ok := s.Encoder(column)
	if !ok {
		return nil
	}
	return enc.Known()
}

// Columns returns the encoded column names, sorted.
func (s *EncoderSet) Columns() []string {
	if s == nil {
		return nil
	}
	out := make([]string, 0, len(s.Encoders))
	for c := range s.Encoders {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

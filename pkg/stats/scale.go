package stats

import (
	"errors"
	"fmt"
)

// ErrScalerNotFitted is returned by Transform before Fit.
var ErrScalerNotFitted = errors.New("scaler: not fitted")

// DegenerateColumnError reports a column with zero variance in the
// training data.
type DegenerateColumnError struct {
	Column string
	Value  float64
}

func (e *DegenerateColumnError) Error() string {
	return fmt.Sprintf("column %q has zero variance (constant %g)", e.Column, e.Value)
}

// StandardScaler standardizes named columns to zero mean and unit variance.
// Constant columns get std 0 and scale to 0 for every input, unless Strict
// is set, in which case Fit fails with *DegenerateColumnError.
type StandardScaler struct {
	Columns    []string
	Mean       []float64
	Std        []float64
	Degenerate []string
	Strict     bool
	Fitted     bool
}

func NewStandardScaler(columns []string) *StandardScaler {
	return &StandardScaler{Columns: append([]string(nil), columns...)}
}

// Fit computes per-column mean and population std. X holds one row per
// sample with columns in s.Columns order.
func (s *StandardScaler) Fit(X [][]float64) error {
	if len(X) == 0 {
		return errors.New("scaler: empty X")
	}
	r, c := len(X), len(s.Columns)
	mean := make([]float64, c)
	std := make([]float64, c)
	var degenerate []string
	col := make([]float64, r)
	for j := 0; j < c; j++ {
		constant := true
		for i := 0; i < r; i++ {
			if len(X[i]) != c {
				return fmt.Errorf("scaler: row %d has %d columns, want %d", i, len(X[i]), c)
			}
			col[i] = X[i][j]
			if col[i] != col[0] {
				constant = false
			}
		}
		mean[j] = Mean(col)
		std[j] = Std(col)
		// The mean of a constant column is not always exact, so the computed
		// std can be a tiny positive number instead of 0.
		if constant {
			mean[j], std[j] = col[0], 0
		}
		if std[j] == 0 {
			if s.Strict {
				return &DegenerateColumnError{Column: s.Columns[j], Value: mean[j]}
			}
			degenerate = append(degenerate, s.Columns[j])
		}
	}
	s.Mean, s.Std, s.Degenerate = mean, std, degenerate
	s.Fitted = true
	return nil
}

// DegenerateErrors returns one *DegenerateColumnError per zero-variance column.
func (s *StandardScaler) DegenerateErrors() []error {
	var out []error
	for j, col := range s.Columns {
		if s.Fitted && s.Std[j] == 0 {
			out = append(out, &DegenerateColumnError{Column: col, Value: s.Mean[j]})
		}
	}
	return out
}

// TransformRow scales one row in s.Columns order.
func (s *StandardScaler) TransformRow(row []float64) ([]float64, error) {
	if !s.Fitted {
		return nil, ErrScalerNotFitted
	}
	if len(row) != len(s.Columns) {
		return nil, fmt.Errorf("scaler: row has %d columns, want %d", len(row), len(s.Columns))
	}
	out := make([]float64, len(row))
	for j, v := range row {
		if s.Std[j] == 0 {
			out[j] = 0
			continue
		}
		out[j] = (v - s.Mean[j]) / s.Std[j]
	}
	return out, nil
}

func (s *StandardScaler) Transform(X [][]float64) ([][]float64, error) {
	Y := make([][]float64, len(X))
	for i, row := range X {
		scaled, err := s.TransformRow(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		Y[i] = scaled
	}
	return Y, nil
}

func (s *StandardScaler) FitTransform(X [][]float64) ([][]float64, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}

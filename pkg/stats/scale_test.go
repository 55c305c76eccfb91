package stats

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStandardScalerFitTransform(t *testing.T) {
	s := NewStandardScaler([]string{"a", "b"})
	X := [][]float64{{1, 10}, {2, 20}, {3, 30}}

	Y, err := s.FitTransform(X)
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 20}, s.Mean)
	assert.InDeltaSlice(t, []float64{0.816496580927726, 8.16496580927726}, s.Std, 1e-12)
	assert.InDelta(t, -1.224744871391589, Y[0][0], 1e-12)
	assert.InDelta(t, 0.0, Y[1][1], 1e-12)
	assert.InDelta(t, 1.224744871391589, Y[2][1], 1e-12)
	assert.Empty(t, s.Degenerate)
}

func TestStandardScalerDegenerateColumnScalesToZero(t *testing.T) {
	s := NewStandardScaler([]string{"wheelbase", "peakrpm"})
	require.NoError(t, s.Fit([][]float64{{88.6, 5000}, {94.5, 5000}}))

	assert.Equal(t, []string{"peakrpm"}, s.Degenerate)
	errs := s.DegenerateErrors()
	require.Len(t, errs, 1)
	var degenerate *DegenerateColumnError
	require.True(t, errors.As(errs[0], &degenerate))
	assert.Equal(t, "peakrpm", degenerate.Column)

	row, err := s.TransformRow([]float64{90, 6600})
	require.NoError(t, err)
	assert.Equal(t, 0.0, row[1])
}

func TestStandardScalerStrictFailsOnDegenerate(t *testing.T) {
	s := NewStandardScaler([]string{"peakrpm"})
	s.Strict = true
	err := s.Fit([][]float64{{5000}, {5000}})

	var degenerate *DegenerateColumnError
	require.True(t, errors.As(err, &degenerate))
	assert.Equal(t, 5000.0, degenerate.Value)
	assert.False(t, s.Fitted)
}

func TestStandardScalerInexactConstantIsDegenerate(t *testing.T) {
	for _, c := range []float64{0.1, 2.68, 3.47} {
		X := make([][]float64, 205)
		for i := range X {
			X[i] = []float64{c}
		}

		s := NewStandardScaler([]string{"stroke"})
		require.NoError(t, s.Fit(X))
		assert.Equal(t, []string{"stroke"}, s.Degenerate, "constant %g", c)
		assert.Equal(t, 0.0, s.Std[0])
		assert.Equal(t, c, s.Mean[0])
		row, err := s.TransformRow([]float64{c + 1})
		require.NoError(t, err)
		assert.Equal(t, 0.0, row[0])

		strict := NewStandardScaler([]string{"stroke"})
		strict.Strict = true
		var degenerate *DegenerateColumnError
		require.True(t, errors.As(strict.Fit(X), &degenerate), "constant %g", c)
		assert.Equal(t, c, degenerate.Value)
	}
}

func TestStandardScalerErrors(t *testing.T) {
	s := NewStandardScaler([]string{"a"})
	_, err := s.TransformRow([]float64{1})
	assert.ErrorIs(t, err, ErrScalerNotFitted)

	assert.Error(t, s.Fit(nil))
	assert.Error(t, s.Fit([][]float64{{1, 2}}))

	require.NoError(t, s.Fit([][]float64{{1}, {3}}))
	_, err = s.Transform([][]float64{{1, 2}})
	assert.Error(t, err)
}

func TestMeanAndVariance(t *testing.T) {
	assert.Equal(t, 0.0, Variance([]float64{2548, 2548, 2548}))
	assert.Equal(t, 2.0, Mean([]float64{1, 2, 3}))
	assert.InDelta(t, 2.0/3.0, Variance([]float64{1, 2, 3}), 1e-12)
}

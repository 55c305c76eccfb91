package loader

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func rows(n int) ([][]float64, []float64) {
	X := make([][]float64, n)
	Y := make([]float64, n)
	for i := range n {
		X[i] = []float64{float64(i)}
		Y[i] = float64(i)
	}
	return X, Y
}

func TestTrainTestSplitIsSeeded(t *testing.T) {
	X, Y := rows(20)
	xTr, xTe, yTr, yTe := TrainTestSplit(X, Y, 0.2, 42)
	assert.Len(t, xTr, 16)
	assert.Len(t, xTe, 4)
	assert.Len(t, yTr, 16)

	xTr2, xTe2, _, yTe2 := TrainTestSplit(X, Y, 0.2, 42)
	assert.Equal(t, xTr, xTr2)
	assert.Equal(t, xTe, xTe2)
	assert.Equal(t, yTe, yTe2)

	for i, row := range xTe {
		assert.Equal(t, row[0], yTe[i], "rows and targets stay paired")
	}

	_, other, _, _ := TrainTestSplit(X, Y, 0.2, 7)
	assert.NotEqual(t, xTe, other)
}

func TestKFoldSplitCoversEveryIndexOnce(t *testing.T) {
	folds := KFoldSplit(23, 5, 42)
	assert.Len(t, folds, 5)
	seen := map[int]int{}
	for _, f := range folds {
		assert.GreaterOrEqual(t, len(f), 4)
		for _, i := range f {
			seen[i]++
		}
	}
	assert.Len(t, seen, 23)
	for i, c := range seen {
		assert.Equal(t, 1, c, "index %d", i)
	}
	assert.Equal(t, folds, KFoldSplit(23, 5, 42))
}

func TestSubsetAndComplement(t *testing.T) {
	X, Y := rows(5)
	xs, ys := Subset(X, Y, []int{3, 1})
	assert.Equal(t, [][]float64{{3}, {1}}, xs)
	assert.Equal(t, []float64{3, 1}, ys)
	assert.Equal(t, []int{0, 2, 4}, Complement(5, []int{3, 1}))
}

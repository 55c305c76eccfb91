package loader

import "math/rand"

// TrainTestSplit shuffles rows with the given seed and holds out
// floor(n*testRatio) of them for testing. The same seed always produces the
// same partition.
func TrainTestSplit(X [][]float64, Y []float64, testRatio float64, seed int64) (XTrain, XTest [][]float64, YTrain, YTest []float64) {
	n := len(X)
	indices := rand.New(rand.NewSource(seed)).Perm(n)
	nTest := int(float64(n) * testRatio)
	for i := range n {
		if i < nTest {
			XTest = append(XTest, X[indices[i]])
			YTest = append(YTest, Y[indices[i]])
		} else {
			XTrain = append(XTrain, X[indices[i]])
			YTrain = append(YTrain, Y[indices[i]])
		}
	}
	return
}

// KFoldSplit deals a seeded permutation of 0..n-1 into k folds of test
// indices.
func KFoldSplit(n, k int, seed int64) [][]int {
	indices := rand.New(rand.NewSource(seed)).Perm(n)
	folds := make([][]int, k)
	for i := range n {
		folds[i%k] = append(folds[i%k], indices[i])
	}
	return folds
}

// Subset gathers the rows of X and Y named by idx.
func Subset(X [][]float64, Y []float64, idx []int) ([][]float64, []float64) {
	xs := make([][]float64, len(idx))
	ys := make([]float64, len(idx))
	for k, i := range idx {
		xs[k] = X[i]
		ys[k] = Y[i]
	}
	return xs, ys
}

// Complement returns the indices of 0..n-1 not present in idx.
func Complement(n int, idx []int) []int {
	skip := make([]bool, n)
	for _, i := range idx {
		skip[i] = true
	}
	out := make([]int, 0, n-len(idx))
	for i := range n {
		if !skip[i] {
			out = append(out, i)
		}
	}
	return out
}

package model

import (
	"errors"
	"math/rand"
	"sort"
	"sync"
)

// DecisionTreeRegressor is a CART regression tree. Splits minimize the
// summed squared error of the two children; leaves predict the mean target
// of their samples.
type DecisionTreeRegressor struct {
	MaxDepth        int // 0 => no limit
	MinSamplesSplit int
	MinSamplesLeaf  int
	MaxFeatures     int // 0 => all features, >0 => features sampled per split
	RandomState     int64

	Root *TreeNode
	// FeatureImportances is the normalized SSE reduction credited to each
	// feature during the last Fit.
	FeatureImportances []float64
}

// TreeNode is a node of a fitted regression tree. Samples with
// x[Feature] <= Threshold go left.
type TreeNode struct {
	Leaf      bool
	Feature   int
	Threshold float64
	Value     float64
	N         int
	Left      *TreeNode
	Right     *TreeNode
}

type Option func(*DecisionTreeRegressor)

func WithMaxDepth(d int) Option { return func(t *DecisionTreeRegressor) { t.MaxDepth = d } }
func WithMinSamplesSplit(n int) Option {
	return func(t *DecisionTreeRegressor) { t.MinSamplesSplit = n }
}
func WithMinSamplesLeaf(n int) Option {
	return func(t *DecisionTreeRegressor) { t.MinSamplesLeaf = n }
}
func WithMaxFeatures(k int) Option { return func(t *DecisionTreeRegressor) { t.MaxFeatures = k } }
func WithRandomState(seed int64) Option {
	return func(t *DecisionTreeRegressor) { t.RandomState = seed }
}

func NewDecisionTreeRegressor(opts ...Option) *DecisionTreeRegressor {
	t := &DecisionTreeRegressor{
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Fit grows the tree on every row of X.
func (t *DecisionTreeRegressor) Fit(X [][]float64, y []float64) error {
	n, _, err := checkXY(X, y)
	if err != nil {
		return err
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return t.fitIndices(X, y, idx)
}

// fitIndices grows the tree on the rows named by idx. Repeated indices count
// as repeated samples.
func (t *DecisionTreeRegressor) fitIndices(X [][]float64, y []float64, idx []int) error {
	if len(idx) == 0 {
		return errors.New("dtree: no samples")
	}
	p := len(X[0])
	gains := make([]float64, p)
	rnd := rand.New(rand.NewSource(t.RandomState))
	t.Root = t.buildNode(X, y, idx, 0, p, gains, rnd)

	total := 0.0
	for _, g := range gains {
		total += g
	}
	if total > 0 {
		for j := range gains {
			gains[j] /= total
		}
	}
	t.FeatureImportances = gains
	return nil
}

func (t *DecisionTreeRegressor) Predict(X [][]float64) []float64 {
	out := make([]float64, len(X))
	for i, x := range X {
		out[i] = t.predictOne(x)
	}
	return out
}

func (t *DecisionTreeRegressor) predictOne(x []float64) float64 {
	node := t.Root
	if node == nil {
		return 0
	}
	for !node.Leaf {
		if x[node.Feature] <= node.Threshold {
			node = node.Left
		} else {
			node = node.Right
		}
	}
	return node.Value
}

func (t *DecisionTreeRegressor) Name() string           { return "tree" }
func (t *DecisionTreeRegressor) Kind() Kind             { return TreeModel }
func (t *DecisionTreeRegressor) Importances() []float64 { return t.FeatureImportances }

// Depth is the number of split levels of the fitted tree.
func (t *DecisionTreeRegressor) Depth() int { return t.Root.depth() }

func (n *TreeNode) depth() int {
	if n == nil || n.Leaf {
		return 0
	}
	return 1 + max(n.Left.depth(), n.Right.depth())
}

type splitResult struct {
	gain      float64
	feature   int
	threshold float64
	leftIdx   []int
	rightIdx  []int
}

type pair struct {
	v float64
	i int
}

func (t *DecisionTreeRegressor) buildNode(X [][]float64, y []float64, idx []int, depth, p int, gains []float64, rnd *rand.Rand) *TreeNode {
	mean, sse := meanSSE(y, idx)
	node := &TreeNode{N: len(idx), Value: mean}

	if sse == 0 || len(idx) < t.MinSamplesSplit || len(idx) < 2*max(t.MinSamplesLeaf, 1) ||
		(t.MaxDepth > 0 && depth >= t.MaxDepth) {
		node.Leaf = true
		return node
	}

	featIndices := make([]int, p)
	for j := range featIndices {
		featIndices[j] = j
	}
	if t.MaxFeatures > 0 && t.MaxFeatures < p {
		for i := 0; i < p; i++ {
			j := i + rnd.Intn(p-i)
			featIndices[i], featIndices[j] = featIndices[j], featIndices[i]
		}
		featIndices = featIndices[:t.MaxFeatures]
		sort.Ints(featIndices)
	}

	// One goroutine per candidate feature; each writes its own slot so the
	// winner does not depend on scheduling.
	results := make([]splitResult, len(featIndices))
	var wg sync.WaitGroup
	for k, f := range featIndices {
		wg.Add(1)
		go func(k, f int) {
			defer wg.Done()
			results[k] = t.bestSplitForFeature(X, y, idx, f, sse)
		}(k, f)
	}
	wg.Wait()

	best := splitResult{feature: -1}
	for _, r := range results {
		if r.feature >= 0 && r.gain > best.gain {
			best = r
		}
	}
	if best.feature == -1 || best.gain <= 1e-12*sse {
		node.Leaf = true
		return node
	}

	gains[best.feature] += best.gain
	node.Feature = best.feature
	node.Threshold = best.threshold
	node.Left = t.buildNode(X, y, best.leftIdx, depth+1, p, gains, rnd)
	node.Right = t.buildNode(X, y, best.rightIdx, depth+1, p, gains, rnd)
	return node
}

// bestSplitForFeature scans the midpoints between distinct sorted values of
// feature f, tracking child SSE with running sums.
func (t *DecisionTreeRegressor) bestSplitForFeature(X [][]float64, y []float64, idx []int, f int, parentSSE float64) splitResult {
	result := splitResult{feature: -1}

	vals := make([]pair, len(idx))
	totalSum, totalSq := 0.0, 0.0
	for k, ii := range idx {
		vals[k] = pair{X[ii][f], ii}
		totalSum += y[ii]
		totalSq += y[ii] * y[ii]
	}
	sort.SliceStable(vals, func(a, b int) bool { return vals[a].v < vals[b].v })

	minLeaf := max(t.MinSamplesLeaf, 1)
	m := len(vals)
	leftSum, leftSq := 0.0, 0.0
	bestS := -1
	for s := 1; s < m; s++ {
		yy := y[vals[s-1].i]
		leftSum += yy
		leftSq += yy * yy
		if vals[s].v == vals[s-1].v || s < minLeaf || m-s < minLeaf {
			continue
		}
		nl, nr := float64(s), float64(m-s)
		rightSum := totalSum - leftSum
		sseL := leftSq - leftSum*leftSum/nl
		sseR := (totalSq - leftSq) - rightSum*rightSum/nr
		gain := parentSSE - sseL - sseR
		if gain > result.gain {
			result.gain = gain
			bestS = s
		}
	}
	if bestS < 0 {
		return result
	}
	result.feature = f
	result.threshold = (vals[bestS-1].v + vals[bestS].v) / 2
	result.leftIdx = indicesFromPairs(vals[:bestS])
	result.rightIdx = indicesFromPairs(vals[bestS:])
	return result
}

func indicesFromPairs(pairs []pair) []int {
	out := make([]int, len(pairs))
	for k, p := range pairs {
		out[k] = p.i
	}
	return out
}

func meanSSE(y []float64, idx []int) (mean, sse float64) {
	for _, i := range idx {
		mean += y[i]
	}
	mean /= float64(len(idx))
	for _, i := range idx {
		d := y[i] - mean
		sse += d * d
	}
	return mean, sse
}

// averageImportances averages per-estimator importances and renormalizes
// them to sum to one.
func averageImportances(all [][]float64) []float64 {
	var out []float64
	for _, imp := range all {
		if imp == nil {
			continue
		}
		if out == nil {
			out = make([]float64, len(imp))
		}
		for j, v := range imp {
			out[j] += v
		}
	}
	total := 0.0
	for _, v := range out {
		total += v
	}
	if total > 0 {
		for j := range out {
			out[j] /= total
		}
	}
	return out
}

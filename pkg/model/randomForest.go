package model

import (
	"errors"
	"math/rand"
	"sync"
)

// RandomForestRegressor averages regression trees grown on bootstrap
// samples.
type RandomForestRegressor struct {
	NEstimators     int
	MaxDepth        int
	MinSamplesSplit int
	MinSamplesLeaf  int
	MaxFeatures     int
	Bootstrap       bool
	RandomState     int64

	Trees              []*DecisionTreeRegressor
	FeatureImportances []float64
}

type RandomForestOption func(*RandomForestRegressor)

func WithNEstimators(n int) RandomForestOption {
	return func(rf *RandomForestRegressor) { rf.NEstimators = n }
}
func WithBootstrap(b bool) RandomForestOption {
	return func(rf *RandomForestRegressor) { rf.Bootstrap = b }
}
func WithForestMaxDepth(d int) RandomForestOption {
	return func(rf *RandomForestRegressor) { rf.MaxDepth = d }
}
func WithForestMinSamplesSplit(n int) RandomForestOption {
	return func(rf *RandomForestRegressor) { rf.MinSamplesSplit = n }
}
func WithForestMaxFeatures(k int) RandomForestOption {
	return func(rf *RandomForestRegressor) { rf.MaxFeatures = k }
}
func WithForestRandomState(seed int64) RandomForestOption {
	return func(rf *RandomForestRegressor) { rf.RandomState = seed }
}

func NewRandomForestRegressor(opts ...RandomForestOption) *RandomForestRegressor {
	rf := &RandomForestRegressor{
		NEstimators:     100,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
		Bootstrap:       true,
	}
	for _, o := range opts {
		o(rf)
	}
	return rf
}

// Fit grows NEstimators trees concurrently. Tree i draws its bootstrap
// sample and feature subsets from seed RandomState+i, so the fitted forest
// is the same on every run.
func (rf *RandomForestRegressor) Fit(X [][]float64, y []float64) error {
	n, _, err := checkXY(X, y)
	if err != nil {
		return err
	}
	if rf.NEstimators < 1 {
		return errors.New("randomforest: NEstimators must be positive")
	}

	trees := make([]*DecisionTreeRegressor, rf.NEstimators)
	errs := make([]error, rf.NEstimators)
	var wg sync.WaitGroup
	for i := 0; i < rf.NEstimators; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			seed := rf.RandomState + int64(i)
			treeRand := rand.New(rand.NewSource(seed))

			sample := make([]int, n)
			for j := range sample {
				if rf.Bootstrap {
					sample[j] = treeRand.Intn(n)
				} else {
					sample[j] = j
				}
			}
			tree := NewDecisionTreeRegressor(
				WithMaxDepth(rf.MaxDepth),
				WithMinSamplesSplit(rf.MinSamplesSplit),
				WithMinSamplesLeaf(rf.MinSamplesLeaf),
				WithMaxFeatures(rf.MaxFeatures),
				WithRandomState(seed),
			)
			if errs[i] = tree.fitIndices(X, y, sample); errs[i] == nil {
				trees[i] = tree
			}
		}(i)
	}
	wg.Wait()
	if err := errors.Join(errs...); err != nil {
		return err
	}

	rf.Trees = trees
	all := make([][]float64, len(trees))
	for i, t := range trees {
		all[i] = t.FeatureImportances
	}
	rf.FeatureImportances = averageImportances(all)
	return nil
}

// Predict returns the mean prediction of all trees.
func (rf *RandomForestRegressor) Predict(X [][]float64) []float64 {
	out := make([]float64, len(X))
	if len(rf.Trees) == 0 {
		return out
	}
	for _, t := range rf.Trees {
		for i, v := range t.Predict(X) {
			out[i] += v
		}
	}
	for i := range out {
		out[i] /= float64(len(rf.Trees))
	}
	return out
}

func (rf *RandomForestRegressor) Name() string           { return "rf" }
func (rf *RandomForestRegressor) Kind() Kind             { return TreeModel }
func (rf *RandomForestRegressor) Importances() []float64 { return rf.FeatureImportances }

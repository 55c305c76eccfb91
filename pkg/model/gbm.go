package model

import (
	"errors"
	"math/rand"
)

// GradientBoostingRegressor fits shallow regression trees to the residuals
// of the running prediction under squared loss.
type GradientBoostingRegressor struct {
	NEstimators  int
	LearningRate float64
	MaxDepth     int
	// Subsample < 1 fits each stage on a random fraction of the rows.
	Subsample   float64
	RandomState int64

	Init               float64
	Stages             []*DecisionTreeRegressor
	FeatureImportances []float64
}

type BoostingOption func(*GradientBoostingRegressor)

func WithStages(n int) BoostingOption {
	return func(g *GradientBoostingRegressor) { g.NEstimators = n }
}
func WithLearningRate(lr float64) BoostingOption {
	return func(g *GradientBoostingRegressor) { g.LearningRate = lr }
}
func WithStageDepth(d int) BoostingOption {
	return func(g *GradientBoostingRegressor) { g.MaxDepth = d }
}
func WithSubsample(f float64) BoostingOption {
	return func(g *GradientBoostingRegressor) { g.Subsample = f }
}

func NewGradientBoostingRegressor(opts ...BoostingOption) *GradientBoostingRegressor {
	g := &GradientBoostingRegressor{
		NEstimators:  100,
		LearningRate: 0.1,
		MaxDepth:     3,
		Subsample:    1.0,
		RandomState:  42,
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

func (g *GradientBoostingRegressor) Fit(X [][]float64, y []float64) error {
	n, _, err := checkXY(X, y)
	if err != nil {
		return err
	}
	if g.NEstimators < 1 || g.LearningRate <= 0 {
		return errors.New("gbm: NEstimators and LearningRate must be positive")
	}
	if g.Subsample <= 0 || g.Subsample > 1 {
		return errors.New("gbm: Subsample must be in (0, 1]")
	}

	g.Init = 0
	for _, v := range y {
		g.Init += v
	}
	g.Init /= float64(n)

	pred := make([]float64, n)
	for i := range pred {
		pred[i] = g.Init
	}
	resid := make([]float64, n)
	rnd := rand.New(rand.NewSource(g.RandomState))
	stages := make([]*DecisionTreeRegressor, 0, g.NEstimators)
	all := make([][]float64, 0, g.NEstimators)

	for s := 0; s < g.NEstimators; s++ {
		for i := range resid {
			resid[i] = y[i] - pred[i]
		}
		tree := NewDecisionTreeRegressor(WithMaxDepth(g.MaxDepth), WithRandomState(g.RandomState+int64(s)))
		if err := tree.fitIndices(X, resid, g.sampleRows(n, rnd)); err != nil {
			return err
		}
		for i, v := range tree.Predict(X) {
			pred[i] += g.LearningRate * v
		}
		stages = append(stages, tree)
		all = append(all, tree.FeatureImportances)
	}
	g.Stages = stages
	g.FeatureImportances = averageImportances(all)
	return nil
}

func (g *GradientBoostingRegressor) sampleRows(n int, rnd *rand.Rand) []int {
	if g.Subsample >= 1 {
		idx := make([]int, n)
		for i := range idx {
			idx[i] = i
		}
		return idx
	}
	k := max(1, int(g.Subsample*float64(n)))
	perm := rnd.Perm(n)
	return perm[:k]
}

func (g *GradientBoostingRegressor) Predict(X [][]float64) []float64 {
	out := make([]float64, len(X))
	for i := range out {
		out[i] = g.Init
	}
	for _, t := range g.Stages {
		for i, v := range t.Predict(X) {
			out[i] += g.LearningRate * v
		}
	}
	return out
}

func (g *GradientBoostingRegressor) Name() string           { return "gbm" }
func (g *GradientBoostingRegressor) Kind() Kind             { return TreeModel }
func (g *GradientBoostingRegressor) Importances() []float64 { return g.FeatureImportances }

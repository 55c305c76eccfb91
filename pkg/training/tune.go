package training

import (
	"context"
	"fmt"

	"github.com/nopgae/usedcararoundme/pkg/loader"
	"github.com/nopgae/usedcararoundme/pkg/model"
)

// candidate is one grid point: a label and a constructor for a fresh
// estimator with those hyperparameters.
type candidate struct {
	params string
	build  func() model.Estimator
}

// grid lists the hyperparameter candidates for a model name. A model with
// no tunable parameters has a single candidate.
func grid(name string) ([]candidate, error) {
	var out []candidate
	switch name {
	case "linear":
		out = append(out, candidate{"default", func() model.Estimator { return model.NewLinearRegression() }})
	case "ridge":
		for _, a := range []float64{0.01, 0.1, 1, 10, 100} {
			out = append(out, candidate{fmt.Sprintf("alpha=%g", a), func() model.Estimator { return model.NewRidge(a) }})
		}
	case "lasso":
		for _, a := range []float64{0.001, 0.01, 0.1, 1, 10} {
			out = append(out, candidate{fmt.Sprintf("alpha=%g", a), func() model.Estimator { return model.NewLasso(a) }})
		}
	case "tree":
		for _, d := range []int{0, 5, 10} {
			for _, s := range []int{2, 5, 10} {
				out = append(out, candidate{
					fmt.Sprintf("max_depth=%d min_samples_split=%d", d, s),
					func() model.Estimator {
						return model.NewDecisionTreeRegressor(model.WithMaxDepth(d), model.WithMinSamplesSplit(s), model.WithRandomState(42))
					},
				})
			}
		}
	case "rf":
		for _, n := range []int{50, 100, 200} {
			for _, d := range []int{0, 10, 20, 30} {
				for _, s := range []int{2, 5, 10} {
					out = append(out, candidate{
						fmt.Sprintf("n_estimators=%d max_depth=%d min_samples_split=%d", n, d, s),
						func() model.Estimator {
							return model.NewRandomForestRegressor(model.WithNEstimators(n), model.WithForestMaxDepth(d),
								model.WithForestMinSamplesSplit(s), model.WithForestRandomState(42))
						},
					})
				}
			}
		}
	case "gbm":
		for _, n := range []int{50, 100, 200} {
			for _, lr := range []float64{0.01, 0.1, 0.2} {
				for _, d := range []int{3, 5, 7} {
					out = append(out, candidate{
						fmt.Sprintf("n_estimators=%d learning_rate=%g max_depth=%d", n, lr, d),
						func() model.Estimator {
							return model.NewGradientBoostingRegressor(model.WithStages(n), model.WithLearningRate(lr), model.WithStageDepth(d))
						},
					})
				}
			}
		}
	default:
		_, err := model.New(name)
		return nil, err
	}
	return out, nil
}

// Tune picks the grid point of model name with the best mean R² over k
// cross-validation folds of the training data, and returns an unfitted
// estimator with those parameters.
func Tune(ctx context.Context, name string, X [][]float64, y []float64, k int, seed int64) (model.Estimator, string, float64, error) {
	cands, err := grid(name)
	if err != nil {
		return nil, "", 0, err
	}
	if k < 2 || k > len(X) {
		return nil, "", 0, fmt.Errorf("training: cannot cross-validate %d rows with %d folds", len(X), k)
	}
	folds := loader.KFoldSplit(len(X), k, seed)

	bestIdx, bestScore := -1, 0.0
	for i, c := range cands {
		if err := ctx.Err(); err != nil {
			return nil, "", 0, err
		}
		score, err := crossValidate(c.build, X, y, folds)
		if err != nil {
			return nil, "", 0, fmt.Errorf("%s: %w", c.params, err)
		}
		if bestIdx < 0 || score > bestScore {
			bestIdx, bestScore = i, score
		}
	}
	return cands[bestIdx].build(), cands[bestIdx].params, bestScore, nil
}

func crossValidate(build func() model.Estimator, X [][]float64, y []float64, folds [][]int) (float64, error) {
	total := 0.0
	for _, test := range folds {
		xTr, yTr := loader.Subset(X, y, loader.Complement(len(X), test))
		xTe, yTe := loader.Subset(X, y, test)
		m := build()
		if err := m.Fit(xTr, yTr); err != nil {
			return 0, err
		}
		total += model.R2(yTe, m.Predict(xTe))
	}
	return total / float64(len(folds)), nil
}

package model

import (
	"encoding/gob"
	"fmt"
	"sort"
)

// Regressor is a supervised regression model.
type Regressor interface {
	Fit(X [][]float64, y []float64) error
	Predict(X [][]float64) []float64
}

// Kind tags the family a fitted model belongs to.
type Kind string

const (
	LinearModel Kind = "linear_model"
	TreeModel   Kind = "tree_model"
)

// Estimator is a Regressor that can describe itself. Importances returns
// one score per input column, or nil when the model has none to offer.
type Estimator interface {
	Regressor
	Name() string
	Kind() Kind
	Importances() []float64
}

// Names lists every model the factory can build.
var Names = []string{"linear", "ridge", "lasso", "tree", "rf", "gbm"}

// New builds an unfitted estimator by name with the default settings of the
// training command.
func New(name string) (Estimator, error) {
	switch name {
	case "linear":
		return NewLinearRegression(), nil
	case "ridge":
		return NewRidge(1.0), nil
	case "lasso":
		return NewLasso(1.0), nil
	case "tree":
		return NewDecisionTreeRegressor(WithRandomState(42)), nil
	case "rf":
		return NewRandomForestRegressor(WithNEstimators(100), WithForestRandomState(42)), nil
	case "gbm":
		return NewGradientBoostingRegressor(), nil
	}
	return nil, fmt.Errorf("unknown model type %q (want one of %v)", name, Names)
}

func init() {
	gob.Register(&LinearRegression{})
	gob.Register(&Ridge{})
	gob.Register(&Lasso{})
	gob.Register(&DecisionTreeRegressor{})
	gob.Register(&RandomForestRegressor{})
	gob.Register(&GradientBoostingRegressor{})
}

// FeatureImportance pairs a feature name with its importance score.
type FeatureImportance struct {
	Name       string
	Importance float64
}

// TopFeatures ranks importances by descending score and returns the first k
// (all when k <= 0). Ties keep feature-name order. Returns nil when the
// estimator has no importances.
func TopFeatures(names []string, importances []float64, k int) []FeatureImportance {
	if importances == nil {
		return nil
	}
	out := make([]FeatureImportance, 0, len(names))
	for i, n := range names {
		if i < len(importances) {
			out = append(out, FeatureImportance{Name: n, Importance: importances[i]})
		}
	}
	sort.SliceStable(out, func(a, b int) bool {
		if out[a].Importance != out[b].Importance {
			return out[a].Importance > out[b].Importance
		}
		return out[a].Name < out[b].Name
	})
	if k > 0 && k < len(out) {
		out = out[:k]
	}
	return out
}

func checkXY(X [][]float64, y []float64) (n, p int, err error) {
	if len(X) == 0 {
		return 0, 0, fmt.Errorf("model: empty X")
	}
	n, p = len(X), len(X[0])
	if len(y) != n {
		return 0, 0, fmt.Errorf("model: X has %d rows but y has %d", n, len(y))
	}
	for i := range X {
		if len(X[i]) != p {
			return 0, 0, fmt.Errorf("model: row %d has %d features, want %d", i, len(X[i]), p)
		}
	}
	return n, p, nil
}

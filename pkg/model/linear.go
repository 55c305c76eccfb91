package model

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// LinearFit holds the fitted parameters shared by the linear models. It is
// exported so gob encodes it inside the embedding model.
type LinearFit struct {
	Coef      []float64
	Intercept float64
}

func (m *LinearFit) predict(X [][]float64) []float64 {
	pred := make([]float64, len(X))
	for i, row := range X {
		sum := m.Intercept
		for j, v := range row {
			if j < len(m.Coef) {
				sum += m.Coef[j] * v
			}
		}
		pred[i] = sum
	}
	return pred
}

// importances reports |coef| per feature.
func (m *LinearFit) importances() []float64 {
	if m.Coef == nil {
		return nil
	}
	out := make([]float64, len(m.Coef))
	for j, c := range m.Coef {
		out[j] = math.Abs(c)
	}
	return out
}

// setFromCentered converts coefficients fitted on centered data back to an
// intercept for the raw data.
func (m *LinearFit) setFromCentered(w []float64, xMean []float64, yMean float64) {
	m.Coef = w
	m.Intercept = yMean
	for j := range w {
		m.Intercept -= w[j] * xMean[j]
	}
}

// center subtracts column means from X and the mean from y.
func center(X [][]float64, y []float64) (*mat.Dense, *mat.VecDense, []float64, float64) {
	n, p := len(X), len(X[0])
	xMean := make([]float64, p)
	yMean := 0.0
	for i := range X {
		for j := range p {
			xMean[j] += X[i][j]
		}
		yMean += y[i]
	}
	for j := range xMean {
		xMean[j] /= float64(n)
	}
	yMean /= float64(n)

	xc := mat.NewDense(n, p, nil)
	yc := mat.NewVecDense(n, nil)
	for i := range X {
		for j := range p {
			xc.Set(i, j, X[i][j]-xMean[j])
		}
		yc.SetVec(i, y[i]-yMean)
	}
	return xc, yc, xMean, yMean
}

// svdRcond is the relative singular value cutoff below which directions
// are treated as null space.
const svdRcond = 1e-12

// LinearRegression is ordinary least squares, solved as the minimum-norm
// least squares solution through an SVD so collinear columns do not fail.
type LinearRegression struct {
	LinearFit
}

func NewLinearRegression() *LinearRegression { return &LinearRegression{} }

func (m *LinearRegression) Fit(X [][]float64, y []float64) error {
	_, p, err := checkXY(X, y)
	if err != nil {
		return err
	}
	xc, yc, xMean, yMean := center(X, y)

	var svd mat.SVD
	if ok := svd.Factorize(xc, mat.SVDThin); !ok {
		return errors.New("linear: SVD factorization failed")
	}
	rank := svd.Rank(svdRcond)
	if rank == 0 {
		m.setFromCentered(make([]float64, p), xMean, yMean)
		return nil
	}
	var w mat.VecDense
	svd.SolveVecTo(&w, yc, rank)
	m.setFromCentered(mat.Col(nil, 0, &w), xMean, yMean)
	return nil
}

func (m *LinearRegression) Predict(X [][]float64) []float64 { return m.predict(X) }
func (m *LinearRegression) Name() string                    { return "linear" }
func (m *LinearRegression) Kind() Kind                      { return LinearModel }
func (m *LinearRegression) Importances() []float64          { return m.importances() }

// Ridge is least squares with an L2 penalty Alpha on the coefficients. The
// intercept is not penalized.
type Ridge struct {
	LinearFit
	Alpha float64
}

func NewRidge(alpha float64) *Ridge { return &Ridge{Alpha: alpha} }

func (m *Ridge) Fit(X [][]float64, y []float64) error {
	_, p, err := checkXY(X, y)
	if err != nil {
		return err
	}
	if m.Alpha < 0 {
		return fmt.Errorf("ridge: negative alpha %g", m.Alpha)
	}
	xc, yc, xMean, yMean := center(X, y)

	var gram mat.Dense
	gram.Mul(xc.T(), xc)
	for j := range p {
		gram.Set(j, j, gram.At(j, j)+m.Alpha)
	}
	var rhs mat.VecDense
	rhs.MulVec(xc.T(), yc)

	var w mat.VecDense
	if err := w.SolveVec(&gram, &rhs); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return fmt.Errorf("ridge: %w", err)
		}
	}
	m.setFromCentered(mat.Col(nil, 0, &w), xMean, yMean)
	return nil
}

func (m *Ridge) Predict(X [][]float64) []float64 { return m.predict(X) }
func (m *Ridge) Name() string                    { return "ridge" }
func (m *Ridge) Kind() Kind                      { return LinearModel }
func (m *Ridge) Importances() []float64          { return m.importances() }

// Lasso minimizes (1/2n)·||y - Xw||² + Alpha·||w||₁ by cyclic coordinate
// descent on centered data.
type Lasso struct {
	LinearFit
	Alpha   float64
	MaxIter int
	Tol     float64
	// Iterations is the number of full passes the last Fit used.
	Iterations int
}

func NewLasso(alpha float64) *Lasso {
	return &Lasso{Alpha: alpha, MaxIter: 1000, Tol: 1e-4}
}

func (m *Lasso) Fit(X [][]float64, y []float64) error {
	n, p, err := checkXY(X, y)
	if err != nil {
		return err
	}
	xc, yc, xMean, yMean := center(X, y)

	cols := make([][]float64, p)
	norms := make([]float64, p)
	for j := range p {
		cols[j] = mat.Col(nil, j, xc)
		for _, v := range cols[j] {
			norms[j] += v * v
		}
		norms[j] /= float64(n)
	}
	resid := mat.Col(nil, 0, yc)
	w := make([]float64, p)

	m.Iterations = 0
	for iter := 0; iter < m.MaxIter; iter++ {
		m.Iterations = iter + 1
		maxDelta, maxW := 0.0, 0.0
		for j := range p {
			if norms[j] == 0 {
				continue
			}
			old := w[j]
			rho := 0.0
			for i, v := range cols[j] {
				rho += v * (resid[i] + v*old)
			}
			rho /= float64(n)
			w[j] = softThreshold(rho, m.Alpha) / norms[j]
			if d := w[j] - old; d != 0 {
				for i, v := range cols[j] {
					resid[i] -= v * d
				}
				maxDelta = math.Max(maxDelta, math.Abs(d))
			}
			maxW = math.Max(maxW, math.Abs(w[j]))
		}
		if maxW == 0 || maxDelta/maxW < m.Tol {
			break
		}
	}
	m.setFromCentered(w, xMean, yMean)
	return nil
}

func softThreshold(x, t float64) float64 {
	switch {
	case x > t:
		return x - t
	case x < -t:
		return x + t
	}
	return 0
}

func (m *Lasso) Predict(X [][]float64) []float64 { return m.predict(X) }
func (m *Lasso) Name() string                    { return "lasso" }
func (m *Lasso) Kind() Kind                      { return LinearModel }
func (m *Lasso) Importances() []float64          { return m.importances() }

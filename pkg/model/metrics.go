package model

import "math"

// Metrics are the regression scores reported for a fitted model.
type Metrics struct {
	R2   float64
	RMSE float64
	MAE  float64
	MSE  float64
}

// Evaluate scores predictions against the true targets.
func Evaluate(yTrue, yPred []float64) Metrics {
	mse := MSE(yTrue, yPred)
	return Metrics{
		R2:   R2(yTrue, yPred),
		RMSE: math.Sqrt(mse),
		MAE:  MAE(yTrue, yPred),
		MSE:  mse,
	}
}

func MSE(yTrue, yPred []float64) float64 {
	if len(yTrue) == 0 {
		return 0
	}
	s := 0.0
	for i := range yTrue {
		d := yPred[i] - yTrue[i]
		s += d * d
	}
	return s / float64(len(yTrue))
}

func MAE(yTrue, yPred []float64) float64 {
	if len(yTrue) == 0 {
		return 0
	}
	s := 0.0
	for i := range yTrue {
		s += math.Abs(yPred[i] - yTrue[i])
	}
	return s / float64(len(yTrue))
}

func RMSE(yTrue, yPred []float64) float64 { return math.Sqrt(MSE(yTrue, yPred)) }

// R2 is the coefficient of determination. A constant target scores 0.
func R2(yTrue, yPred []float64) float64 {
	if len(yTrue) == 0 {
		return 0
	}
	m := 0.0
	for _, v := range yTrue {
		m += v
	}
	m /= float64(len(yTrue))
	ssTot, ssRes := 0.0, 0.0
	for i := range yTrue {
		d := yTrue[i] - m
		ssTot += d * d
		r := yTrue[i] - yPred[i]
		ssRes += r * r
	}
	if ssTot == 0 {
		return 0
	}
	return 1 - ssRes/ssTot
}

// Package report renders evaluation plots for a trained model.
package report

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/nopgae/usedcararoundme/pkg/model"
)

var (
	pointColor = color.RGBA{B: 255, A: 255, R: 50, G: 50}
	refColor   = color.RGBA{R: 255, A: 255}
	dashes     = []vg.Length{vg.Points(5), vg.Points(5)}
)

// MaxBars caps the importance chart.
const MaxBars = 15

// ActualVsPredicted scatters predictions against true prices with the
// identity line for reference.
func ActualVsPredicted(path, title string, actual, predicted []float64) error {
	if err := checkPair(actual, predicted); err != nil {
		return err
	}
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Actual Price ($)"
	p.Y.Label.Text = "Predicted Price ($)"

	pts := make(plotter.XYs, len(actual))
	lo, hi := actual[0], actual[0]
	for i := range actual {
		pts[i].X = actual[i]
		pts[i].Y = predicted[i]
		lo, hi = min(lo, actual[i]), max(hi, actual[i])
	}
	s, err := plotter.NewScatter(pts)
	if err != nil {
		return err
	}
	s.Color = pointColor
	p.Add(s)

	l, err := plotter.NewLine(plotter.XYs{{X: lo, Y: lo}, {X: hi, Y: hi}})
	if err != nil {
		return err
	}
	l.Color = refColor
	l.LineStyle.Dashes = dashes
	p.Add(l)

	return save(p, path)
}

// Residuals scatters actual minus predicted against the prediction.
func Residuals(path, title string, actual, predicted []float64) error {
	if err := checkPair(actual, predicted); err != nil {
		return err
	}
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Predicted Price ($)"
	p.Y.Label.Text = "Residuals ($)"

	pts := make(plotter.XYs, len(actual))
	lo, hi := predicted[0], predicted[0]
	for i := range actual {
		pts[i].X = predicted[i]
		pts[i].Y = actual[i] - predicted[i]
		lo, hi = min(lo, predicted[i]), max(hi, predicted[i])
	}
	s, err := plotter.NewScatter(pts)
	if err != nil {
		return err
	}
	s.Color = pointColor
	s.Shape = draw.CircleGlyph{}
	p.Add(s)

	zero, err := plotter.NewLine(plotter.XYs{{X: lo, Y: 0}, {X: hi, Y: 0}})
	if err != nil {
		return err
	}
	zero.Color = refColor
	zero.LineStyle.Dashes = dashes
	p.Add(zero)

	return save(p, path)
}

// Importances draws a horizontal bar per feature, highest score on top.
func Importances(path, title string, top []model.FeatureImportance) error {
	if len(top) == 0 {
		return errors.New("report: no feature importances")
	}
	if len(top) > MaxBars {
		top = top[:MaxBars]
	}
	n := len(top)
	vals := make(plotter.Values, n)
	names := make([]string, n)
	for i, f := range top {
		vals[n-1-i] = f.Importance
		names[n-1-i] = f.Name
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Importance"
	bars, err := plotter.NewBarChart(vals, vg.Points(12))
	if err != nil {
		return err
	}
	bars.Horizontal = true
	bars.Color = pointColor
	bars.LineStyle.Width = 0
	p.Add(bars)
	p.NominalY(names...)

	return save(p, path)
}

// WriteAll renders every evaluation plot of one model into dir and returns
// the written paths. The importance chart is skipped when top is empty.
func WriteAll(dir, modelType string, actual, predicted []float64, top []model.FeatureImportance) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	avp := filepath.Join(dir, modelType+"_actual_vs_predicted.png")
	if err := ActualVsPredicted(avp, "Actual vs. Predicted Car Prices", actual, predicted); err != nil {
		return nil, err
	}
	res := filepath.Join(dir, modelType+"_residuals.png")
	if err := Residuals(res, "Residual Plot", actual, predicted); err != nil {
		return nil, err
	}
	written := []string{avp, res}
	if len(top) > 0 {
		imp := filepath.Join(dir, modelType+"_feature_importance.png")
		title := fmt.Sprintf("Top %d Feature Importance - %s", min(len(top), MaxBars), modelType)
		if err := Importances(imp, title, top); err != nil {
			return nil, err
		}
		written = append(written, imp)
	}
	return written, nil
}

func checkPair(actual, predicted []float64) error {
	if len(actual) == 0 {
		return errors.New("report: no points to plot")
	}
	if len(actual) != len(predicted) {
		return fmt.Errorf("report: %d actual values but %d predictions", len(actual), len(predicted))
	}
	return nil
}

func save(p *plot.Plot, path string) error {
	return p.Save(6*vg.Inch, 4*vg.Inch, path)
}

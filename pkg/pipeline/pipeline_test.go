package pipeline

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nopgae/usedcararoundme/pkg/data"
	"github.com/nopgae/usedcararoundme/pkg/dataprep"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func loadFixture(t *testing.T) []data.Record {
	t.Helper()
	records, err := data.LoadCSV("../data/testdata/cars.csv", CarSchema.TextColumns())
	require.NoError(t, err)
	return records
}

func trained(t *testing.T) (*Preprocessor, []data.Record) {
	t.Helper()
	p := New(WithLogger(quietLogger()))
	out, err := p.Preprocess(loadFixture(t), Training)
	require.NoError(t, err)
	return p, out
}

// corolla is an inference request in the shape the HTTP layer produces.
func corolla() data.Record {
	r := data.NewRecord()
	for k, v := range map[string]string{
		"CarName": "toyouta corolla", "fueltype": "gas", "aspiration": "std",
		"doornumber": "two", "carbody": "hatchback", "drivewheel": "rwd",
		"enginelocation": "front", "enginetype": "dohc", "cylindernumber": "four",
		"fuelsystem": "mpfi",
	} {
		r.Text[k] = v
	}
	for k, v := range map[string]float64{
		"wheelbase": 94.5, "carlength": 168.7, "carwidth": 64, "carheight": 52.6,
		"curbweight": 2548, "enginesize": 130, "boreratio": 3.24, "stroke": 3.08,
		"compressionratio": 9.4, "horsepower": 111, "peakrpm": 6600,
		"citympg": 21, "highwaympg": 27,
	} {
		r.Values[k] = v
	}
	return r
}

func TestPreprocessScenario(t *testing.T) {
	p, _ := trained(t)
	out, err := p.Preprocess([]data.Record{corolla()}, Inference)
	require.NoError(t, err)
	rec := out[0]

	brand, err := p.State.Encoders.Decode(ColBrand, int(rec.Values[ColBrand]))
	require.NoError(t, err)
	assert.Equal(t, "toyota", brand)
	assert.Equal(t, "corolla", rec.Text[ColModel])

	assert.InDelta(t, 0.04357, rec.Values[dataprep.FeatPowerToWeight], 1e-5)
	assert.Equal(t, 32.5, rec.Values[dataprep.FeatEngineSizePerCylnd])
	assert.InDelta(t, 1.2857, rec.Values[dataprep.FeatHighwayCityRatio], 1e-4)
	assert.NotContains(t, rec.Values, dataprep.FeatPricePerHP)

	// The 13 numeric columns are standardized with the training statistics.
	s := p.State.Scaler
	for j, col := range CarSchema.Numerical {
		raw := corolla().Values[col]
		assert.InDelta(t, (raw-s.Mean[j])/s.Std[j], rec.Values[col], 1e-12, col)
	}
}

func TestPreprocessInferenceIsDeterministic(t *testing.T) {
	p, _ := trained(t)
	in := []data.Record{corolla()}

	first, err := p.Preprocess(in, Inference)
	require.NoError(t, err)
	second, err := p.Preprocess(in, Inference)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, corolla(), in[0], "input must not be mutated")
}

func TestTrainInferenceFeatureSkew(t *testing.T) {
	p, trainOut := trained(t)
	inferOut, err := p.Preprocess([]data.Record{corolla()}, Inference)
	require.NoError(t, err)

	trainCols := map[string]bool{}
	for _, c := range trainOut[0].Columns() {
		trainCols[c] = true
	}
	for _, c := range []string{"price", "price_per_hp", "CarName", "model", "symboling", "car_ID"} {
		delete(trainCols, c)
	}
	inferCols := map[string]bool{}
	for _, c := range inferOut[0].Columns() {
		inferCols[c] = true
	}
	delete(inferCols, "CarName")
	delete(inferCols, "model")
	assert.Equal(t, trainCols, inferCols)

	names := CarSchema.FeatureNames(trainOut[0])
	assert.Equal(t, names, CarSchema.FeatureNames(inferOut[0]))
	assert.Len(t, names, 10+13+8)

	X, err := CarSchema.Matrix(inferOut, names)
	require.NoError(t, err)
	assert.Len(t, X[0], len(names))
}

func TestPreprocessUnknownCategory(t *testing.T) {
	p, _ := trained(t)
	r := corolla()
	r.Text["CarName"] = "tesla model3"

	_, err := p.Preprocess([]data.Record{r}, Inference)
	var unknown *UnknownCategoryError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, ColBrand, unknown.Column)
	assert.Equal(t, "tesla", unknown.Value)
	assert.Contains(t, unknown.Known, "toyota")
}

func TestPreprocessBrandWithoutCarName(t *testing.T) {
	p, _ := trained(t)
	r := corolla()
	delete(r.Text, ColCarName)
	r.Text[ColBrand] = "VW"

	out, err := p.Preprocess([]data.Record{r}, Inference)
	require.NoError(t, err)
	brand, err := p.State.Encoders.Decode(ColBrand, int(out[0].Values[ColBrand]))
	require.NoError(t, err)
	assert.Equal(t, "volkswagen", brand)

	delete(r.Text, ColBrand)
	_, err = p.Preprocess([]data.Record{r}, Inference)
	var missing *MissingColumnError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, ColCarName, missing.Column)
}

func TestPreprocessMissingColumn(t *testing.T) {
	p, _ := trained(t)
	r := corolla()
	delete(r.Values, "horsepower")

	_, err := p.Preprocess([]data.Record{r}, Inference)
	var missing *MissingColumnError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "horsepower", missing.Column)

	_, err = New(WithLogger(quietLogger())).Preprocess([]data.Record{corolla()}, Training)
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, ColPrice, missing.Column)
}

func TestPreprocessCategoricalMustBeText(t *testing.T) {
	records := loadFixture(t)
	delete(records[0].Text, "fueltype")
	records[0].Values["fueltype"] = 1

	p := New(WithLogger(quietLogger()))
	_, err := p.Preprocess(records, Training)
	var missing *MissingColumnError
	require.True(t, errors.As(err, &missing), "got %v", err)
	assert.Equal(t, "fueltype", missing.Column)
	assert.Nil(t, p.State)

	p, _ = trained(t)
	r := corolla()
	delete(r.Text, ColCylinderNumber)
	r.Values[ColCylinderNumber] = 4
	_, err = p.Preprocess([]data.Record{r}, Inference)
	require.True(t, errors.As(err, &missing), "got %v", err)
	assert.Equal(t, ColCylinderNumber, missing.Column)

	r = corolla()
	delete(r.Values, "horsepower")
	r.Text["horsepower"] = "111"
	_, err = p.Preprocess([]data.Record{r}, Inference)
	require.True(t, errors.As(err, &missing), "got %v", err)
	assert.Equal(t, "horsepower", missing.Column)
}

func TestPreprocessInferenceBeforeFit(t *testing.T) {
	_, err := New().Preprocess([]data.Record{corolla()}, Inference)
	assert.ErrorIs(t, err, ErrNotFitted)

	_, err = New().KnownCategories("brand")
	assert.ErrorIs(t, err, ErrNotFitted)
}

func TestPreprocessPriceNeverLeaksAtInference(t *testing.T) {
	p, _ := trained(t)
	r := corolla()
	r.Values[ColPrice] = 9538

	out, err := p.Preprocess([]data.Record{r}, Inference)
	require.NoError(t, err)
	assert.NotContains(t, out[0].Values, dataprep.FeatPricePerHP)
}

func TestPreprocessDegenerateColumns(t *testing.T) {
	// The first two fixture rows share every numeric value.
	records := loadFixture(t)[:2]

	p := New(WithLogger(quietLogger()))
	out, err := p.Preprocess(records, Training)
	require.NoError(t, err)
	assert.Len(t, p.State.Scaler.Degenerate, len(CarSchema.Numerical))
	for _, col := range CarSchema.Numerical {
		assert.Equal(t, 0.0, out[0].Values[col], col)
	}

	strict := New(WithLogger(quietLogger()), WithStrictScaling(true))
	_, err = strict.Preprocess(records, Training)
	var degenerate *DegenerateColumnError
	require.True(t, errors.As(err, &degenerate))
	assert.Nil(t, strict.State, "failed training must not install state")
}

func TestKnownCategories(t *testing.T) {
	p, _ := trained(t)
	classes, err := p.KnownCategories("cylindernumber")
	require.NoError(t, err)
	assert.Equal(t, []string{"five", "four", "six", "three", "twelve", "two"}, classes)

	brands, err := p.KnownCategories("brand")
	require.NoError(t, err)
	assert.NotContains(t, brands, "toyouta")
	assert.NotContains(t, brands, "vw")
	assert.Contains(t, brands, "volkswagen")

	_, err = p.KnownCategories("horsepower")
	assert.Error(t, err)
}

func TestMatrixRejectsSkew(t *testing.T) {
	p, trainOut := trained(t)
	names := CarSchema.FeatureNames(trainOut[0])

	out, err := p.Preprocess([]data.Record{corolla()}, Inference)
	require.NoError(t, err)
	delete(out[0].Values, dataprep.FeatLogHorsepower)
	out[0].Values["surprise"] = 1

	_, err = CarSchema.Matrix(out, names)
	var mismatch *FeatureMismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, []string{dataprep.FeatLogHorsepower}, mismatch.Missing)
	assert.Equal(t, []string{"surprise"}, mismatch.Unexpected)
}

func TestTargets(t *testing.T) {
	_, out := trained(t)
	y, err := Targets(out)
	require.NoError(t, err)
	assert.Equal(t, 13495.0, y[0])

	_, err = Targets([]data.Record{data.NewRecord()})
	assert.Error(t, err)
}

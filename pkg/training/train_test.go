package training

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nopgae/usedcararoundme/pkg/artifact"
	"github.com/nopgae/usedcararoundme/pkg/model"
)

func testConfig(t *testing.T, modelType string) Config {
	t.Helper()
	return Config{
		DataPath:  "../data/testdata/cars.csv",
		ModelsDir: t.TempDir(),
		ModelType: modelType,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestTrainPersistsAndPromotes(t *testing.T) {
	cfg := testConfig(t, "ridge")
	cfg.PlotDir = filepath.Join(t.TempDir(), "plots")

	res, err := Train(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, "ridge", res.Info.ModelType)
	assert.Equal(t, 31, res.Info.NumFeatures)
	assert.Len(t, res.Info.FeatureNames, 31)
	assert.Len(t, res.Info.TopFeatures, 10)
	assert.Equal(t, res.Metrics.MAE, res.Info.MAE)
	assert.Len(t, res.Plots, 3)

	store := artifact.NewStore(cfg.ModelsDir)
	for _, f := range []string{artifact.EncodersFile, artifact.ScalerFile, "car_price_ridge.gob", "model_info_ridge.gob",
		artifact.DefaultModelFile, artifact.DefaultInfoFile} {
		assert.FileExists(t, filepath.Join(cfg.ModelsDir, f))
	}
	m, info, err := store.LoadModel("")
	require.NoError(t, err)
	assert.Equal(t, "ridge", m.Name())
	assert.Equal(t, res.Info.FeatureNames, info.FeatureNames)
}

func TestTrainIsDeterministic(t *testing.T) {
	a, err := Train(context.Background(), testConfig(t, "tree"))
	require.NoError(t, err)
	b, err := Train(context.Background(), testConfig(t, "tree"))
	require.NoError(t, err)
	assert.Equal(t, a.Metrics, b.Metrics)
	assert.Equal(t, a.Info.TopFeatures, b.Info.TopFeatures)
}

func TestTrainAllPromotesBest(t *testing.T) {
	cfg := testConfig(t, "")
	results, best, err := TrainAll(context.Background(), cfg)
	require.NoError(t, err)
	require.Len(t, results, len(model.Names))
	for i, r := range results {
		assert.Equal(t, model.Names[i], r.Info.ModelType)
		assert.LessOrEqual(t, r.Metrics.R2, best.Metrics.R2)
	}

	_, info, err := artifact.NewStore(cfg.ModelsDir).LoadModel("")
	require.NoError(t, err)
	assert.Equal(t, best.Info.ModelType, info.ModelType)
}

func TestTrainWithTuning(t *testing.T) {
	cfg := testConfig(t, "lasso")
	cfg.Tune = true
	cfg.Folds = 4
	res, err := Train(context.Background(), cfg)
	require.NoError(t, err)
	assert.Contains(t, res.Params, "alpha=")
}

func TestTuneErrors(t *testing.T) {
	X := [][]float64{{1}, {2}, {3}}
	y := []float64{1, 2, 3}
	_, _, _, err := Tune(context.Background(), "svm", X, y, 2, 42)
	assert.Error(t, err)
	_, _, _, err = Tune(context.Background(), "ridge", X, y, 5, 42)
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, _, err = Tune(ctx, "ridge", X, y, 3, 42)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTrainErrors(t *testing.T) {
	_, err := Train(context.Background(), testConfig(t, "svm"))
	assert.Error(t, err)

	cfg := testConfig(t, "linear")
	cfg.DataPath = "does-not-exist.csv"
	_, err = Train(context.Background(), cfg)
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Train(ctx, testConfig(t, "linear"))
	assert.ErrorIs(t, err, context.Canceled)
}

// subsetCSV writes the fixture header plus its last n rows to a temp file.
func subsetCSV(t *testing.T, n int) string {
	t.Helper()
	raw, err := os.ReadFile("../data/testdata/cars.csv")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Greater(t, len(lines), n)
	out := append([]string{lines[0]}, lines[len(lines)-n:]...)
	path := filepath.Join(t.TempDir(), "subset.csv")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(out, "\n")+"\n"), 0o644))
	return path
}

func TestFailedTrainKeepsServedState(t *testing.T) {
	cfg := testConfig(t, "ridge")
	_, err := Train(context.Background(), cfg)
	require.NoError(t, err)

	store := artifact.NewStore(cfg.ModelsDir)
	before, err := store.LoadState()
	require.NoError(t, err)

	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))
	failing := []Config{
		{ModelType: "bogus"},
		{ModelType: "linear", PlotDir: filepath.Join(blocker, "plots")},
	}
	for _, f := range failing {
		retrain := cfg
		retrain.DataPath = subsetCSV(t, 8)
		retrain.ModelType = f.ModelType
		retrain.PlotDir = f.PlotDir
		_, err = Train(context.Background(), retrain)
		require.Error(t, err, f.ModelType)

		after, err := store.LoadState()
		require.NoError(t, err)
		assert.Equal(t, before.Encoders.Classes("brand"), after.Encoders.Classes("brand"), f.ModelType)
		assert.Equal(t, before.Scaler.Mean, after.Scaler.Mean, f.ModelType)

		served, err := store.LoadBundle("")
		require.NoError(t, err)
		assert.Equal(t, "ridge", served.Info.ModelType)
		assert.Equal(t, before.Scaler.Mean, served.State.Scaler.Mean)
	}
}

// Package training runs the end-to-end fit of a price model: load the raw
// CSV, preprocess in training mode, split, fit, evaluate and persist.
package training

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/nopgae/usedcararoundme/pkg/artifact"
	"github.com/nopgae/usedcararoundme/pkg/data"
	"github.com/nopgae/usedcararoundme/pkg/loader"
	"github.com/nopgae/usedcararoundme/pkg/model"
	"github.com/nopgae/usedcararoundme/pkg/pipeline"
	"github.com/nopgae/usedcararoundme/pkg/report"
)

// Config controls a training run.
type Config struct {
	DataPath  string
	ModelsDir string
	ModelType string
	// PlotDir receives evaluation plots when non-empty.
	PlotDir string
	// Tune grid-searches hyperparameters with k-fold cross-validation on
	// the training split.
	Tune      bool
	Folds     int
	TestRatio float64
	Seed      int64
	TopK      int
	Logger    *slog.Logger
}

func (c *Config) defaults() {
	if c.ModelType == "" {
		c.ModelType = "linear"
	}
	if c.TestRatio == 0 {
		c.TestRatio = 0.2
	}
	if c.Seed == 0 {
		c.Seed = 42
	}
	if c.TopK == 0 {
		c.TopK = 10
	}
	if c.Folds == 0 {
		c.Folds = 5
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Result is the outcome of training one model.
type Result struct {
	Model   model.Estimator
	Info    artifact.ModelInfo
	Metrics model.Metrics
	// Params names the winning grid point when tuning ran.
	Params string
	Plots  []string
}

// dataset is the preprocessed, split data shared by every model of a run.
// The state is persisted with each model and reaches the served artifacts
// only through Promote.
type dataset struct {
	state         *pipeline.State
	names         []string
	xTrain, xTest [][]float64
	yTrain, yTest []float64
}

// Train fits cfg.ModelType, persists it with its metadata and promotes it to
// the default served model. A run that fails leaves the served model and
// preprocessing state untouched.
func Train(ctx context.Context, cfg Config) (*Result, error) {
	cfg.defaults()
	ds, err := prepare(ctx, cfg)
	if err != nil {
		return nil, err
	}
	res, err := fit(ctx, cfg, ds, cfg.ModelType)
	if err != nil {
		return nil, err
	}
	if err := artifact.NewStore(cfg.ModelsDir).Promote(cfg.ModelType); err != nil {
		return nil, err
	}
	cfg.Logger.Info("promoted default model", "model", cfg.ModelType)
	return res, nil
}

// TrainAll fits every known model on the same split and promotes the one
// with the best test R². Results are returned in model.Names order.
func TrainAll(ctx context.Context, cfg Config) ([]*Result, *Result, error) {
	cfg.defaults()
	ds, err := prepare(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	var (
		results []*Result
		best    *Result
	)
	for _, name := range model.Names {
		cfg.Logger.Info("training model", "model", name)
		res, err := fit(ctx, cfg, ds, name)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", name, err)
		}
		results = append(results, res)
		if best == nil || res.Metrics.R2 > best.Metrics.R2 {
			best = res
		}
	}
	for _, r := range results {
		cfg.Logger.Info("model comparison", "model", r.Info.ModelType, "r2", r.Metrics.R2)
	}
	if err := artifact.NewStore(cfg.ModelsDir).Promote(best.Info.ModelType); err != nil {
		return nil, nil, err
	}
	cfg.Logger.Info("promoted best model", "model", best.Info.ModelType, "r2", best.Metrics.R2)
	return results, best, nil
}

func prepare(ctx context.Context, cfg Config) (*dataset, error) {
	log := cfg.Logger
	records, err := data.LoadCSV(cfg.DataPath, pipeline.CarSchema.TextColumns())
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: no records", cfg.DataPath)
	}
	log.Info("loaded dataset", "path", cfg.DataPath, "records", len(records))

	pre := pipeline.New(pipeline.WithLogger(log))
	processed, err := pre.Preprocess(records, pipeline.Training)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	names := pipeline.CarSchema.FeatureNames(processed[0])
	X, err := pipeline.CarSchema.Matrix(processed, names)
	if err != nil {
		return nil, err
	}
	y, err := pipeline.Targets(processed)
	if err != nil {
		return nil, err
	}
	log.Info("after preprocessing", "records", len(X), "features", len(names))

	ds := &dataset{names: names, state: pre.State}
	ds.xTrain, ds.xTest, ds.yTrain, ds.yTest = loader.TrainTestSplit(X, y, cfg.TestRatio, cfg.Seed)
	if len(ds.xTest) == 0 || len(ds.xTrain) == 0 {
		return nil, errors.New("training: too few records to hold out a test set")
	}
	log.Info("split dataset", "train", len(ds.xTrain), "test", len(ds.xTest), "seed", cfg.Seed)
	return ds, nil
}

func fit(ctx context.Context, cfg Config, ds *dataset, name string) (*Result, error) {
	log := cfg.Logger.With("model", name)
	res := &Result{}

	var est model.Estimator
	var err error
	if cfg.Tune {
		var score float64
		est, res.Params, score, err = Tune(ctx, name, ds.xTrain, ds.yTrain, cfg.Folds, cfg.Seed)
		if err != nil {
			return nil, err
		}
		log.Info("tuned hyperparameters", "params", res.Params, "cv_r2", score)
	} else if est, err = model.New(name); err != nil {
		return nil, err
	}

	start := time.Now()
	if err := est.Fit(ds.xTrain, ds.yTrain); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pred := est.Predict(ds.xTest)
	for _, v := range pred {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, errors.New("training: model produced a non-finite prediction")
		}
	}
	res.Model = est
	res.Metrics = model.Evaluate(ds.yTest, pred)
	log.Info("model performance",
		"r2", res.Metrics.R2, "rmse", res.Metrics.RMSE, "mae", res.Metrics.MAE,
		"elapsed", time.Since(start))

	top := model.TopFeatures(ds.names, est.Importances(), cfg.TopK)
	for _, f := range top {
		log.Debug("top feature", "feature", f.Name, "importance", f.Importance)
	}
	res.Info = artifact.ModelInfo{
		ModelType:    name,
		R2Score:      res.Metrics.R2,
		RMSE:         res.Metrics.RMSE,
		MAE:          res.Metrics.MAE,
		NumFeatures:  len(ds.names),
		FeatureNames: ds.names,
		TopFeatures:  top,
		TrainingDate: time.Now().UTC(),
	}
	if err := artifact.NewStore(cfg.ModelsDir).SaveModel(est, res.Info, ds.state); err != nil {
		return nil, err
	}
	log.Info("saved model", "file", artifact.ModelFile(name))

	if cfg.PlotDir != "" {
		all := model.TopFeatures(ds.names, est.Importances(), report.MaxBars)
		if res.Plots, err = report.WriteAll(cfg.PlotDir, name, ds.yTest, pred, all); err != nil {
			return nil, err
		}
		log.Info("wrote plots", "dir", cfg.PlotDir, "count", len(res.Plots))
	}
	return res, nil
}

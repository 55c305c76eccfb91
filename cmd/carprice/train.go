package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strconv"

	"github.com/gonuts/commander"
	"github.com/gonuts/flag"

	"github.com/nopgae/usedcararoundme/internal/config"
	"github.com/nopgae/usedcararoundme/pkg/training"
)

func trainCmd(cfg *config.Config, log *slog.Logger) *commander.Command {
	cmd := &commander.Command{
		Run: func(cmd *commander.Command, args []string) error {
			return runTrain(cmd, log)
		},
		UsageLine: "train [options]",
		Short:     "train a price model and promote it to the default",
		Long: `
train fits one model type (or every type with -model all) on the raw CSV,
writes encoders.gob, scaler.gob, car_price_<type>.gob and model_info_<type>.gob
to the models directory, and promotes the model to car_price_model.gob.
With -model all the best test R² is promoted.

	$ carprice train -data data/CarPrice_Assignment.csv -model rf -plot plots
`,
		Flag: *flag.NewFlagSet("train", flag.ExitOnError),
	}
	cmd.Flag.String("data", cfg.DataPath, "raw CarPrice CSV")
	cmd.Flag.String("models", cfg.ModelsDir, "artifact directory")
	cmd.Flag.String("model", "linear", "linear|ridge|lasso|tree|rf|gbm|all")
	cmd.Flag.String("plot", "", "write evaluation plots to this directory")
	cmd.Flag.Bool("tune", false, "grid-search hyperparameters with cross-validation")
	cmd.Flag.Int("folds", 5, "cross-validation folds for -tune")
	return cmd
}

func runTrain(cmd *commander.Command, log *slog.Logger) error {
	if err := verifyFlags(cmd, []string{"data", "models", "model"}); err != nil {
		return err
	}
	tune, _ := strconv.ParseBool(flagString(cmd, "tune"))
	folds, err := strconv.Atoi(flagString(cmd, "folds"))
	if err != nil {
		return err
	}
	tc := training.Config{
		DataPath:  flagString(cmd, "data"),
		ModelsDir: flagString(cmd, "models"),
		ModelType: flagString(cmd, "model"),
		PlotDir:   flagString(cmd, "plot"),
		Tune:      tune,
		Folds:     folds,
		Logger:    log,
	}
	log.Info("configuration", "data", tc.DataPath, "models", tc.ModelsDir,
		"model", tc.ModelType, "plot", tc.PlotDir, "tune", tc.Tune)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if tc.ModelType == "all" {
		_, best, err := training.TrainAll(ctx, tc)
		if err != nil {
			return err
		}
		log.Info("best model", "model", best.Info.ModelType, "r2", best.Metrics.R2)
		return nil
	}
	_, err = training.Train(ctx, tc)
	return err
}

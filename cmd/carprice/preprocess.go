package main

import (
	"log/slog"
	"os"

	"github.com/gonuts/commander"
	"github.com/gonuts/flag"

	"github.com/nopgae/usedcararoundme/internal/config"
	"github.com/nopgae/usedcararoundme/pkg/artifact"
	"github.com/nopgae/usedcararoundme/pkg/data"
	"github.com/nopgae/usedcararoundme/pkg/pipeline"
)

func preprocessCmd(cfg *config.Config, log *slog.Logger) *commander.Command {
	cmd := &commander.Command{
		Run: func(cmd *commander.Command, args []string) error {
			return runPreprocess(cmd, log)
		},
		UsageLine: "preprocess [options]",
		Short:     "apply the fitted pipeline to a CSV of raw records",
		Long: `
preprocess runs brand extraction, encoding, feature synthesis and scaling in
inference mode with the state stored in the models directory, and writes the
processed records as CSV.

	$ carprice preprocess -data new_cars.csv -models models -out processed.csv
`,
		Flag: *flag.NewFlagSet("preprocess", flag.ExitOnError),
	}
	cmd.Flag.String("data", cfg.DataPath, "raw CSV")
	cmd.Flag.String("models", cfg.ModelsDir, "artifact directory")
	cmd.Flag.String("out", "", "output CSV (stdout when empty)")
	return cmd
}

func runPreprocess(cmd *commander.Command, log *slog.Logger) error {
	if err := verifyFlags(cmd, []string{"data", "models"}); err != nil {
		return err
	}
	state, err := artifact.NewStore(flagString(cmd, "models")).LoadState()
	if err != nil {
		return err
	}
	records, err := data.LoadCSV(flagString(cmd, "data"), pipeline.CarSchema.TextColumns())
	if err != nil {
		return err
	}
	pre := pipeline.New(pipeline.WithState(state), pipeline.WithLogger(log))
	processed, err := pre.Preprocess(records, pipeline.Inference)
	if err != nil {
		return err
	}
	log.Info("preprocessed records", "records", len(processed))
	if len(processed) == 0 {
		return nil
	}

	return writeProcessed(flagString(cmd, "out"), processed)
}

// writeProcessed writes records as CSV to path, or to stdout when path is
// empty.
func writeProcessed(path string, records []data.Record) error {
	columns := records[0].Columns()
	if path == "" {
		return data.WriteCSV(os.Stdout, columns, records)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := data.WriteCSV(f, columns, records); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

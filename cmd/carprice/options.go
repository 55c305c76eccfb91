package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/gonuts/commander"
	"github.com/gonuts/flag"

	"github.com/nopgae/usedcararoundme/internal/config"
	"github.com/nopgae/usedcararoundme/pkg/artifact"
	"github.com/nopgae/usedcararoundme/pkg/pipeline"
)

func optionsCmd(cfg *config.Config, log *slog.Logger) *commander.Command {
	cmd := &commander.Command{
		Run: func(cmd *commander.Command, args []string) error {
			if err := verifyFlags(cmd, []string{"models"}); err != nil {
				return err
			}
			state, err := artifact.NewStore(flagString(cmd, "models")).LoadState()
			if err != nil {
				return err
			}
			pre := pipeline.New(pipeline.WithState(state), pipeline.WithLogger(log))
			for _, col := range pre.Schema.Categorical {
				classes, err := pre.KnownCategories(col)
				if err != nil {
					return err
				}
				fmt.Printf("%-15s %s\n", col, strings.Join(classes, ", "))
			}
			return nil
		},
		UsageLine: "options [options]",
		Short:     "list the categories each categorical column accepts",
		Flag:      *flag.NewFlagSet("options", flag.ExitOnError),
	}
	cmd.Flag.String("models", cfg.ModelsDir, "artifact directory")
	return cmd
}

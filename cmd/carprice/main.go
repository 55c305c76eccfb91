// Command carprice trains car price models, serves predictions over HTTP
// and runs the preprocessing pipeline on batches of records.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/gonuts/commander"
	"github.com/gonuts/flag"

	"github.com/nopgae/usedcararoundme/internal/config"
)

func newRootCmd(cfg *config.Config, log *slog.Logger) *commander.Command {
	return &commander.Command{
		UsageLine: "carprice <command> [options]",
		Short:     "car price prediction toolkit",
		Subcommands: []*commander.Command{
			trainCmd(cfg, log),
			serveCmd(cfg, log),
			preprocessCmd(cfg, log),
			optionsCmd(cfg, log),
		},
		Flag: *flag.NewFlagSet("carprice", flag.ExitOnError),
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "**err**: %v\n", err)
		os.Exit(1)
	}
	log := cfg.NewLogger(os.Stderr)
	slog.SetDefault(log)

	if err := newRootCmd(cfg, log).Dispatch(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "**err**: %v\n", err)
		os.Exit(1)
	}
}

// verifyFlags fails when any required flag is empty.
func verifyFlags(cmd *commander.Command, required []string) error {
	for _, name := range required {
		f := cmd.Flag.Lookup(name)
		if f == nil || f.Value.String() == "" {
			cmd.Usage()
			return fmt.Errorf("required flag -%s not set", name)
		}
	}
	return nil
}

func flagString(cmd *commander.Command, name string) string {
	return cmd.Flag.Lookup(name).Value.String()
}

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gonuts/commander"
	"github.com/gonuts/flag"

	"github.com/nopgae/usedcararoundme/internal/config"
	"github.com/nopgae/usedcararoundme/pkg/api"
	"github.com/nopgae/usedcararoundme/pkg/artifact"
)

func serveCmd(cfg *config.Config, log *slog.Logger) *commander.Command {
	cmd := &commander.Command{
		Run: func(cmd *commander.Command, args []string) error {
			return runServe(cmd, cfg, log)
		},
		UsageLine: "serve [options]",
		Short:     "serve predictions over HTTP",
		Long: `
serve loads the promoted model and preprocessing state from the models
directory and answers prediction requests. Send SIGHUP to reload the
artifacts after retraining.

	$ carprice serve -models models -addr :8000
`,
		Flag: *flag.NewFlagSet("serve", flag.ExitOnError),
	}
	cmd.Flag.String("models", cfg.ModelsDir, "artifact directory")
	cmd.Flag.String("addr", cfg.Addr, "listen address")
	return cmd
}

func runServe(cmd *commander.Command, cfg *config.Config, log *slog.Logger) error {
	if err := verifyFlags(cmd, []string{"models", "addr"}); err != nil {
		return err
	}
	gin.SetMode(cfg.GinMode)
	dir, addr := flagString(cmd, "models"), flagString(cmd, "addr")
	log.Info("configuration", "models", dir, "addr", addr, "gin_mode", cfg.GinMode)

	server := api.NewServer(artifact.NewStore(dir), log)
	if err := server.Reload(); err != nil {
		return err
	}
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	go reloadOnSignal(ctx, hup, server.Reload, log)
	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// reloadOnSignal calls reload for every signal received on sig until ctx is
// done.
func reloadOnSignal(ctx context.Context, sig <-chan os.Signal, reload func() error, log *slog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-sig:
			if err := reload(); err != nil {
				log.Error("reload failed; keeping previous artifacts", "error", err)
			}
		}
	}
}

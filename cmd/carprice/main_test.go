package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nopgae/usedcararoundme/pkg/data"
)

func TestReloadOnSignalStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	sig := make(chan os.Signal)
	reloads := make(chan struct{})
	done := make(chan struct{})
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	go func() {
		reloadOnSignal(ctx, sig, func() error {
			reloads <- struct{}{}
			return errors.New("corrupt artifact")
		}, log)
		close(done)
	}()

	for i := 0; i < 2; i++ {
		sig <- syscall.SIGHUP
		select {
		case <-reloads:
		case <-time.After(time.Second):
			t.Fatal("reload not called")
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reload loop still running after cancel")
	}
}

func TestWriteProcessed(t *testing.T) {
	rec := data.NewRecord()
	rec.Values["horsepower"] = 1.5
	rec.Values["brand"] = 3

	path := filepath.Join(t.TempDir(), "processed.csv")
	require.NoError(t, writeProcessed(path, []data.Record{rec}))
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	assert.Equal(t, []string{"brand,horsepower", "3.000000,1.500000"}, lines)

	err = writeProcessed(filepath.Join(t.TempDir(), "missing", "out.csv"), []data.Record{rec})
	assert.Error(t, err)
}

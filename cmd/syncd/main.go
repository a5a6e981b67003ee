// Command syncd runs the offline-first sync daemon: it keeps the local
// SQLite store in sync with the remote canonical document store, draining
// queued mutations and warming caches in the background.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/smartcook/syncengine/internal/config"
	"github.com/smartcook/syncengine/internal/engine"
	"github.com/smartcook/syncengine/internal/logging"
	"github.com/smartcook/syncengine/internal/remote"
	"github.com/smartcook/syncengine/internal/services"
	"github.com/smartcook/syncengine/internal/store"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "syncd",
	Short: "Offline-first sync daemon for SmartCook",
	Long: `syncd keeps a local SQLite store in sync with the remote document store.

Writes always land locally first and are queued for sync; the daemon
drains the queue and refreshes local caches whenever the remote store
is reachable.`,
	SilenceUsage: true,
}

func main() {
	cfg = config.LoadConfig()

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&cfg.LocalDBPath, "db", "d", cfg.LocalDBPath, "path to the local SQLite database")
	pf.StringVarP(&cfg.RemoteDSN, "remote", "r", cfg.RemoteDSN, "PostgreSQL DSN of the remote document store")
	pf.StringVarP(&cfg.OwnerID, "owner", "o", cfg.OwnerID, "user whose data to sync")
	pf.StringVarP(&cfg.LogFile, "log-file", "l", cfg.LogFile, "rotating log file (default stderr)")
	pf.StringP("config", "c", "", "path to a JSON config file")

	rootCmd.AddCommand(runCmd, statusCmd, pushCmd, pullCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger() logging.Logger {
	var w io.Writer = os.Stderr
	if cfg.LogFile != "" {
		w = &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     14, // days
		}
	}
	return logging.NewSlogLogger(slog.New(slog.NewJSONHandler(w, nil)))
}

// setup opens the local store, connects the remote driver and wires the
// engine and facades. The returned cleanup closes both stores.
func setup(ctx context.Context) (*services.Services, *engine.Engine, func(), error) {
	logger := newLogger()

	db, err := store.Open(ctx, cfg.LocalDBPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open local store: %w", err)
	}

	rs, err := remote.NewPostgresStore(cfg.RemoteDSN)
	if err != nil {
		db.Close()
		return nil, nil, nil, fmt.Errorf("open remote store: %w", err)
	}

	eng := engine.New(engine.Config{
		DrainInterval:   cfg.DrainInterval,
		ProbeInterval:   cfg.ProbeInterval,
		PullInterval:    cfg.PullInterval,
		CatalogPageSize: cfg.CatalogPageSize,
		MaxAttempts:     cfg.MaxSyncAttempts,
		OwnerID:         cfg.OwnerID,
	}, db, rs, logger)

	svc := services.New(db, rs, eng, logger)

	cleanup := func() {
		rs.Close()
		db.Close()
	}
	return svc, eng, cleanup, nil
}

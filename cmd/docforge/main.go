// CLAUDE:SUMMARY CLI entry point for docforge — document export and modification service.
// Command docforge serves the document export and modification pipeline.
//
// Usage:
//
//	docforge -config docforge.yaml      # run with config file
//	docforge -addr :8487                # run with defaults
//
// The oracle API key is read from the OPENAI_API_KEY environment variable.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "modernc.org/sqlite"

	"github.com/hazyhaar/docforge/httpd"
)

func main() {
	configPath := flag.String("config", "", "path to docforge.yaml config file")
	addr := flag.String("addr", "", "listen address (overrides config)")
	dbPath := flag.String("db", "", "path to SQLite database (overrides config)")
	uploadsDir := flag.String("uploads", "", "artifact directory (overrides config)")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	var level slog.Level
	switch *logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, *configPath, *addr, *dbPath, *uploadsDir); err != nil {
		logger.Error("docforge: fatal", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, configPath, addr, dbPath, uploadsDir string) error {
	cfg := &httpd.Config{}
	if configPath != "" {
		loaded, err := httpd.LoadConfigFile(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if addr != "" {
		cfg.Addr = addr
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	if uploadsDir != "" {
		cfg.UploadsDir = uploadsDir
	}
	cfg.Logger = logger

	srv, err := httpd.New(*cfg)
	if err != nil {
		return err
	}
	defer srv.Close()

	return srv.Run(ctx)
}

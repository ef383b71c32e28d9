package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BerylCAtieno/knowledge-lens-api/internal/config"
	"github.com/BerylCAtieno/knowledge-lens-api/internal/mcpserver"
	"github.com/BerylCAtieno/knowledge-lens-api/internal/router"
	"github.com/BerylCAtieno/knowledge-lens-api/internal/utils"
	"github.com/BerylCAtieno/knowledge-lens-api/internal/watcher"
	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

var version = "dev"

// setup loads the configuration and wires the application. Logs go to w.
func setup(ctx context.Context, cmd *cli.Command, w io.Writer) (*application, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := utils.NewLoggerWithWriter(cfg.LogLevel, w)
	logger.Info("Configuration loaded",
		"port", cfg.Port,
		"database_path", cfg.DatabasePath,
		"inbox_dir", cfg.Inbox.Dir,
		"log_level", cfg.LogLevel)

	return newApplication(ctx, cfg, logger)
}

func serve(ctx context.Context, cmd *cli.Command) error {
	app, err := setup(ctx, cmd, os.Stdout)
	if err != nil {
		return err
	}
	defer app.Close()
	logger := app.logger

	handler := router.NewRouter(router.Services{
		Documents:   app.documents,
		Connections: app.connections,
		Projects:    app.projects,
		MaxFileSize: app.cfg.MaxFileSize,
	}, logger)

	srv := &http.Server{
		Addr:         ":" + app.cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2*app.cfg.AI.Timeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	if app.cfg.Inbox.Dir != "" {
		inbox := watcher.New(app.cfg.Inbox.Dir, app.cfg.Inbox.Debounce, app.cfg.MaxFileSize, app.documents, logger)
		g.Go(func() error {
			return inbox.Run(gCtx)
		})
	}

	g.Go(func() error {
		logger.Info("Starting server", "port", app.cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", "signal", sig.String())
		case <-gCtx.Done():
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server forced to shutdown", "error", err)
		}
		return context.Canceled
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	logger.Info("Server exited")
	return nil
}

// runMCP serves the document tools over stdio. Stdout carries the
// protocol, so logs go to stderr.
func runMCP(ctx context.Context, cmd *cli.Command) error {
	app, err := setup(ctx, cmd, os.Stderr)
	if err != nil {
		return err
	}
	defer app.Close()

	app.logger.Info("Starting MCP server on stdio")
	return mcpserver.New(app.documents, version).ServeStdio()
}

func ingest(ctx context.Context, cmd *cli.Command) error {
	app, err := setup(ctx, cmd, os.Stdout)
	if err != nil {
		return err
	}
	defer app.Close()

	dir := app.cfg.Inbox.Dir
	if cmd.Args().Len() > 0 {
		dir = cmd.Args().First()
	}
	if dir == "" {
		return fmt.Errorf("no inbox directory: pass one or set INBOX_DIR")
	}

	inbox := watcher.New(dir, app.cfg.Inbox.Debounce, app.cfg.MaxFileSize, app.documents, app.logger)
	n, err := inbox.IngestAll(ctx)
	if err != nil {
		return err
	}
	app.logger.Info("Ingestion finished", "dir", dir, "ingested", n)
	return nil
}

func main() {
	cmd := &cli.Command{
		Name:    "knowledge-lens",
		Usage:   "Document intelligence API: upload, analyse, search and question metro rail documents",
		Version: version,
		Action:  serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to an optional YAML config file",
				Sources: cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API and the inbox watcher",
				Action: serve,
			},
			{
				Name:   "mcp",
				Usage:  "Serve document tools over MCP stdio",
				Action: runMCP,
			},
			{
				Name:      "ingest",
				Usage:     "Ingest every file in an inbox directory once and exit",
				ArgsUsage: "[dir]",
				Action:    ingest,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/richard-senior/matchboard/internal/app"
	"github.com/richard-senior/matchboard/internal/config"
	"github.com/richard-senior/matchboard/internal/logger"
	"github.com/richard-senior/matchboard/pkg/dashboard"
	"github.com/richard-senior/matchboard/pkg/server"
	"github.com/richard-senior/matchboard/pkg/snapshot"
	"github.com/richard-senior/matchboard/pkg/transport"
)

const version = "1.0.0"

const usage = `usage: matchboard [serve|mcp|refresh [--full|--force]]

  serve    HTTP dashboard and API, refreshed on a schedule
  mcp      MCP tool server on stdin/stdout (default)
  refresh  download new matches once and exit
`

func main() {
	mode := "mcp"
	if len(os.Args) > 1 {
		mode = os.Args[1]
	}

	// stdout carries the protocol in mcp mode, so log to file only
	logger.SetShowDateTime(true)
	output := 'b'
	if mode == "mcp" {
		output = 'f'
	}
	if err := logger.SetLogOutput(output); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Invalid configuration:", err)
	}
	logger.SetLogFile(cfg.LogPath)
	if err := logger.SetLogOutput(output); err != nil {
		logger.Fatal("Failed to open log file:", err)
	}
	logger.Info("Starting matchboard", mode)
	if cfg.Debug {
		logger.SetLevel(logger.DEBUG)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch mode {
	case "serve":
		err = serve(ctx, cfg)
	case "mcp":
		err = serveMCP(ctx, cfg)
	case "refresh":
		err = refresh(ctx, cfg, os.Args[2:])
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		logger.Error("matchboard failed:", err)
		stop()
		os.Exit(1)
	}
	logger.Info("matchboard shutting down")
}

func serve(ctx context.Context, cfg *config.Config) error {
	a, err := app.Open(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.HasSource {
		sched, err := a.State.StartScheduler(ctx, cfg.SchedulerInterval)
		if err != nil {
			return err
		}
		defer func() {
			if err := sched.Stop(); err != nil {
				logger.Warn("Scheduler did not stop cleanly:", err)
			}
		}()
	}

	h := dashboard.NewHandler(a.State, a.Store, cfg.CompetitionName)
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           dashboard.NewRouter(h, cfg.AllowedOrigins),
		ReadHeaderTimeout: 10 * time.Second,
		// a forced full download can take several minutes
		WriteTimeout: 15 * time.Minute,
		IdleTimeout:  2 * time.Minute,
	}

	errChan := make(chan error, 1)
	go func() {
		logger.Inform(fmt.Sprintf("Dashboard listening on http://localhost:%d", cfg.HTTPPort))
		errChan <- srv.ListenAndServe()
	}()

	select {
	case err := <-errChan:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down dashboard")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func serveMCP(ctx context.Context, cfg *config.Config) error {
	a, err := app.Open(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	s := server.New(transport.NewStdioTransport(os.Stdin, os.Stdout), "matchboard", version)
	for _, e := range a.Tools() {
		s.RegisterTool(e.Tool, server.HandlerFunc(e.Handle))
	}
	return s.Serve(ctx)
}

func refresh(ctx context.Context, cfg *config.Config, args []string) error {
	force := false
	for _, arg := range args {
		switch arg {
		case "--full":
			cfg.Incremental = false
			force = true
		case "--force":
			force = true
		default:
			return fmt.Errorf("unknown refresh option %q", arg)
		}
	}
	if err := cfg.RequireCredentials(); err != nil {
		return err
	}

	a, err := app.Open(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.State.AutoUpdate(ctx, force)
	if err != nil {
		return err
	}
	logger.Highlight(fmt.Sprintf("%s: %d new matches, %d total", res.Reason, res.NewMatches, res.TotalMatches))
	logger.Inform(snapshot.FormatStatus(a.State.LastUpdateInfo()))
	return nil
}

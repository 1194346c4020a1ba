package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/net/netutil"

	"github.com/Novanna/doc-verifier/internal/api"
	"github.com/Novanna/doc-verifier/internal/config"
	"github.com/Novanna/doc-verifier/internal/mcpserver"
	"github.com/Novanna/doc-verifier/internal/pipeline"
	"github.com/Novanna/doc-verifier/internal/templates"
	"github.com/Novanna/doc-verifier/internal/validator"
	"github.com/Novanna/doc-verifier/internal/workpool"
)

var version = "dev"

func main() {
	cfg, err := config.Load(os.Args[1:])
	if errors.Is(err, config.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stderr, nil)).Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// stdout carries the MCP protocol in mcp mode.
	var out io.Writer = os.Stdout
	if cfg.IsMCP() {
		out = os.Stderr
	}
	log := slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}))

	reg, err := templates.Load(cfg.TemplatesFile)
	if err != nil {
		log.Error("load templates", "error", err, "file", cfg.TemplatesFile)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize pipeline.
	pool := workpool.New(cfg.Workers, log)
	pool.Start()

	engine := validator.NewEngine(pool,
		validator.WithLogger(log),
		validator.WithTimeout(cfg.RunTimeout),
	)
	verifier := pipeline.NewVerifier(reg, engine,
		pipeline.NewResultStore(cfg.ResultTTL),
		pipeline.NewRunStats(time.Hour),
		log,
	)
	verifier.SetMaxRuns(cfg.MaxRuns)
	verifier.Start(ctx)

	shutdown := func() {
		verifier.Stop()
		pool.Stop()
	}

	log.Info("starting doc-verifier",
		"version", version,
		"mode", cfg.Mode,
		"workers", pool.Size(),
		"templates", reg.IDs(),
	)

	if cfg.IsMCP() {
		srv, err := mcpserver.NewServer(verifier, cfg.MaxUploadBytes, version)
		if err == nil {
			err = srv.Serve()
		}
		shutdown()
		if err != nil {
			log.Error("mcp server error", "error", err)
			os.Exit(1)
		}
		return
	}

	httpServer := &http.Server{
		Handler:      api.NewServer(verifier, log, cfg),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.RunTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ln, err := net.Listen("tcp", cfg.Address())
	if err != nil {
		log.Error("listen", "error", err, "addr", cfg.Address())
		os.Exit(1)
	}
	if cfg.MaxConnections > 0 {
		ln = netutil.LimitListener(ln, cfg.MaxConnections)
	}

	// Graceful shutdown.
	done := make(chan struct{})
	go func() {
		defer close(done)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Warn("http shutdown", "error", err)
		}
		shutdown()
	}()

	log.Info("listening", "addr", cfg.Address(), "max_connections", cfg.MaxConnections)
	if err := httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	<-done
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"github.com/dmmcquay/goban/internal/cache"
	"github.com/dmmcquay/goban/internal/config"
	"github.com/dmmcquay/goban/internal/logging"
	mcptools "github.com/dmmcquay/goban/internal/mcp"
	"github.com/dmmcquay/goban/internal/metrics"
	"github.com/dmmcquay/goban/internal/ratelimit"
	"github.com/dmmcquay/goban/internal/session"
	"github.com/dmmcquay/goban/internal/shutdown"
)

var (
	// Version information injected at build time.
	GitCommit string = "unknown"
	BuildTime string = "unknown"
)

func main() {
	var showVersion bool
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.Parse()

	cfg, err := config.Load(config.GetConfigPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if showVersion {
		fmt.Printf("goban-mcp version %s\n", cfg.Server.Version)
		fmt.Printf("Git commit: %s\n", GitCommit)
		fmt.Printf("Build time: %s\n", BuildTime)
		os.Exit(0)
	}

	// stdout carries the MCP stream; logs go to stderr.
	logger, logCloser := logging.NewLoggerFromConfig(logging.ConfigFrom(cfg))
	defer logCloser.Close()
	logger.Info("Starting goban MCP server version %s (commit: %s, built: %s)",
		cfg.Server.Version, GitCommit, BuildTime)

	prom := metrics.NewPrometheusCollector()
	analysisCache := cache.NewManager(&cfg.Cache, logger)
	analysisCache.SetRecorder(prom)

	rateLimiter := ratelimit.NewLimiter(&cfg.RateLimit, logger)
	if rateLimiter != nil {
		rateLimiter.SetRecorder(prom)
	}

	mcpServer := server.NewMCPServer(
		cfg.Server.Name,
		cfg.Server.Version,
		server.WithLogging(),
	)

	middleware := mcptools.NewMiddleware(logger, metrics.NewCollector(), rateLimiter)
	middleware.SetRecorder(prom)

	toolsHandler := mcptools.NewToolsHandler(cfg.Game.BoardSize, session.Deps{
		Recorder: prom,
		Cache:    analysisCache,
	}, logger)
	toolsHandler.SetMiddleware(middleware)
	toolsHandler.RegisterTools(mcpServer)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownManager := shutdown.NewManager(logger)
	shutdownManager.Register("analysis-cache", func(context.Context) error {
		logger.Info("Analysis cache stats", "stats", analysisCache.Stats())
		analysisCache.Clear()
		return nil
	})
	shutdownManager.Register("rate-limiter", func(context.Context) error {
		rateLimiter.Close()
		return nil
	})
	shutdownManager.HandleSignals(ctx)

	logger.Info("goban MCP server ready")

	done := make(chan error, 1)
	go func() {
		done <- server.ServeStdio(mcpServer)
	}()

	select {
	case err := <-done:
		if err != nil {
			logger.Error("Server error", "error", err.Error())
		}
		_ = shutdownManager.Shutdown(shutdown.DefaultTimeout)
	case <-shutdownManager.Done():
		logger.Info("Server stopped by signal")
	}
}

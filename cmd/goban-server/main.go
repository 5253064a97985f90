package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/dmmcquay/goban/internal/cache"
	"github.com/dmmcquay/goban/internal/config"
	"github.com/dmmcquay/goban/internal/health"
	"github.com/dmmcquay/goban/internal/logging"
	"github.com/dmmcquay/goban/internal/metrics"
	"github.com/dmmcquay/goban/internal/ratelimit"
	"github.com/dmmcquay/goban/internal/server"
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
		fmt.Printf("goban-server version %s\n", cfg.Server.Version)
		fmt.Printf("Git commit: %s\n", GitCommit)
		fmt.Printf("Build time: %s\n", BuildTime)
		os.Exit(0)
	}

	logger, logCloser := logging.NewLoggerFromConfig(logging.ConfigFrom(cfg))
	defer logCloser.Close()
	logger.Info("Starting goban server version %s (commit: %s, built: %s)",
		cfg.Server.Version, GitCommit, BuildTime)

	prom := metrics.NewPrometheusCollector()

	analysisCache := cache.NewManager(&cfg.Cache, logger)
	analysisCache.SetRecorder(prom)

	limiter := ratelimit.NewLimiter(&cfg.RateLimit, logger)
	if limiter != nil {
		limiter.SetRecorder(prom)
	}

	lobby := session.NewLobby(cfg.Game.BoardSize, session.Deps{
		Logger:   logger,
		Recorder: prom,
		Limiter:  limiter,
		Cache:    analysisCache,
	})
	hub := server.NewHub(lobby, logger, prom)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tcpServer := server.NewTCPServer(cfg.Server.ListenAddr, cfg.Server.ReadTimeout, hub, logger)
	if err := tcpServer.Start(ctx); err != nil {
		logger.Error("Failed to start game server", "error", err.Error())
		os.Exit(1)
	}
	logger.Info("Game server listening", "addr", tcpServer.Addr().String(), "board_size", cfg.Game.BoardSize)

	checker := health.NewChecker(logger, cfg.Server.Version)
	checker.RegisterCheck("lobby", lobby.HealthCheck)
	checker.RegisterCheck("tcp", tcpServer.HealthCheck)

	shutdownManager := shutdown.NewManager(logger)
	shutdownManager.Register("analysis-cache", func(context.Context) error {
		logger.Info("Analysis cache stats", "stats", analysisCache.Stats())
		analysisCache.Clear()
		return nil
	})
	shutdownManager.Register("lobby", lobby.Close)
	shutdownManager.Register("connections", hub.Close)
	shutdownManager.Register("rate-limiter", func(context.Context) error {
		limiter.Close()
		return nil
	})

	if cfg.HTTP.Enabled {
		opts := server.HTTPOptions{
			Addr:        cfg.HTTP.HealthAddr,
			Checker:     checker,
			Lobby:       lobby,
			Recorder:    prom,
			ReadTimeout: cfg.Server.ReadTimeout,
		}
		if cfg.Server.WSEnabled {
			opts.Hub = hub
		}
		httpServer := server.NewHTTPServer(opts, logger)
		if err := httpServer.Start(); err != nil {
			logger.Error("Failed to start HTTP server", "error", err.Error())
			os.Exit(1)
		}
		logger.Info("HTTP server started", "addr", httpServer.Addr().String(), "websocket", cfg.Server.WSEnabled)
		shutdownManager.Register("http", httpServer.Stop)
	}

	shutdownManager.Register("tcp", func(stopCtx context.Context) error {
		cancel()
		return tcpServer.Stop(stopCtx)
	})

	shutdownManager.HandleSignals(ctx)
	logger.Info("goban server ready")
	shutdownManager.WaitForShutdown()
	logger.Info("goban server stopped")
}

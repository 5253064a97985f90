package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dmmcquay/goban/internal/client"
	"github.com/dmmcquay/goban/internal/config"
	"github.com/dmmcquay/goban/internal/logging"
	"github.com/dmmcquay/goban/internal/retry"
)

func main() {
	var addr string
	flag.StringVar(&addr, "addr", "", "Server address (overrides client.serverAddr)")
	flag.Parse()

	cfg, err := config.Load(config.GetConfigPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if addr == "" {
		addr = cfg.Client.ServerAddr
	}

	// The terminal belongs to the UI, so logs only go to the log file.
	var logger logging.ContextLogger = logging.NewNop()
	if cfg.Logging.File.Enabled {
		logCfg := logging.ConfigFrom(cfg)
		logCfg.Output = io.Discard
		var closer io.Closer
		logger, closer = logging.NewLoggerFromConfig(logCfg)
		defer closer.Close()
	}

	fmt.Printf("Connecting to %s...\n", addr)
	c, err := client.Dial(context.Background(), addr,
		retry.DialConfig(cfg.Client.DialAttempts, cfg.Client.DialDelay), logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cannot connect: %v\n", err)
		os.Exit(1)
	}
	defer c.Close()

	if _, err := tea.NewProgram(client.NewModel(c), tea.WithAltScreen()).Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Client error: %v\n", err)
		os.Exit(1)
	}
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mmcdole/kinorelay/internal/config"
	"github.com/mmcdole/kinorelay/internal/host"
	"github.com/mmcdole/kinorelay/internal/log"
	"github.com/mmcdole/kinorelay/internal/player"
)

// Version is set at build time via -ldflags
var Version = "dev"

func main() {
	if err := run(os.Args[1:]); err != nil {
		// stdout belongs to the protocol
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var cfg *config.Config
	var err error
	if path := configPathFromArgs(args); path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.LoadConfig()
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := log.SetupLogger(&config.LoggingConfig{File: cfg.Host.LogFile, Level: cfg.Logging.Level})
	if err != nil {
		logger = log.NullLogger()
	}

	logger.Info("starting kinorelay-host", "version", Version, "args", args)

	launcher := player.NewLauncher(cfg.Player.Command, cfg.Player.Args, logger)
	h := host.New(cfg.Host, launcher, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := h.Serve(ctx, os.Stdin, os.Stdout); err != nil {
		logger.Error("host stopped", "error", err)
		return err
	}
	logger.Info("shutting down")
	return nil
}

// configPathFromArgs finds --config in args. Browsers launch native hosts
// with their own arguments (caller origin, --parent-window), so a strict
// flag parser would reject the invocation.
func configPathFromArgs(args []string) string {
	for i, a := range args {
		if v, ok := strings.CutPrefix(a, "--config="); ok {
			return v
		}
		if v, ok := strings.CutPrefix(a, "-config="); ok {
			return v
		}
		if (a == "--config" || a == "-config") && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/kinorelay/internal/channel"
	"github.com/mmcdole/kinorelay/internal/config"
	"github.com/mmcdole/kinorelay/internal/log"
	"github.com/mmcdole/kinorelay/internal/mediaserver/plex"
	"github.com/mmcdole/kinorelay/internal/notify"
	"github.com/mmcdole/kinorelay/internal/service"
	"github.com/mmcdole/kinorelay/internal/tui"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"
)

// Version is set at build time via -ldflags
var Version = "dev"

type options struct {
	configPath string
	item       string
	plain      bool
	wait       time.Duration
}

func main() {
	var opts options
	var showVersion bool
	flag.BoolVar(&showVersion, "v", false, "print version")
	flag.BoolVar(&showVersion, "version", false, "print version")
	flag.StringVar(&opts.configPath, "config", "", "config file (default: ~/.config/kinorelay/config.yaml)")
	flag.StringVar(&opts.item, "item", "", "initial Plex item URL or ID")
	flag.BoolVar(&opts.plain, "plain", false, "read item URLs from stdin instead of starting the UI")
	flag.DurationVar(&opts.wait, "wait", 5*time.Second, "plain mode: how long to wait for host replies after stdin closes")
	flag.Parse()

	if showVersion {
		fmt.Printf("kinorelay %s\n", Version)
		return
	}

	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(opts options) error {
	// Load configuration
	var cfg *config.Config
	var err error
	if opts.configPath != "" {
		cfg, err = config.LoadFile(opts.configPath)
	} else {
		cfg, err = config.LoadConfig()
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Setup logger
	logger, err := log.SetupLogger(&cfg.Logging)
	if err != nil {
		// Fall back to null logger if file logging fails
		logger = log.NullLogger()
	}
	slog.SetDefault(logger)

	logger.Info("starting kinorelay", "version", Version)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	origin, err := cfg.Origin()
	if err != nil {
		return err
	}

	client := plex.NewClient(cfg.Server.URL, cfg.Server.Token, logger)
	identityCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := client.FetchIdentity(identityCtx); err != nil {
		// Non-fatal: every play attempt reports the server problem itself
		logger.Warn("failed to fetch plex identity", "error", err)
	}
	cancel()

	page := plex.NewPage(client)
	page.Set(opts.item)

	host, err := channel.Start(cfg.Channel.HostCommand, cfg.Channel.HostArgs, logger)
	if err != nil {
		return err
	}
	defer host.Close()

	interactive := !opts.plain &&
		term.IsTerminal(int(os.Stdin.Fd())) &&
		term.IsTerminal(int(os.Stdout.Fd()))

	if interactive {
		return runTUI(page, host, origin, cfg.Server.URL, logger)
	}
	return runPlain(page, host, origin, os.Stdin, opts.wait, logger)
}

// runTUI runs the interactive UI until the user quits
func runTUI(page *plex.Page, host *channel.Process, origin, server string, logger *slog.Logger) error {
	sink := &tui.ProgramSink{}
	orch := service.NewPlaybackOrchestrator(page, host, sink, origin, logger)

	model := tui.NewModel(page, orch, server)
	p := tea.NewProgram(model, tea.WithAltScreen())
	sink.Attach(p)

	ctx, cancel := context.WithCancel(context.Background())
	g, ctx := errgroup.WithContext(ctx)

	// One listener for the life of the UI
	g.Go(func() error {
		return host.Listen(ctx, orch.OnStatusMessage)
	})

	g.Go(func() error {
		defer cancel()
		logger.Info("starting TUI")
		if _, err := p.Run(); err != nil {
			logger.Error("TUI error", "error", err)
			return fmt.Errorf("TUI error: %w", err)
		}
		return nil
	})

	err := g.Wait()
	logger.Info("shutting down")
	return err
}

// runPlain treats every non-empty stdin line as a button press on that location
func runPlain(page *plex.Page, host *channel.Process, origin string, in io.Reader, wait time.Duration, logger *slog.Logger) error {
	console := notify.NewConsole(os.Stdout)
	orch := service.NewPlaybackOrchestrator(page, host, console, origin, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	listenCtx, stopListening := context.WithCancel(ctx)

	g.Go(func() error {
		return host.Listen(listenCtx, orch.OnStatusMessage)
	})

	g.Go(func() error {
		defer stopListening()

		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			page.Set(line)
			orch.OnUserAction(ctx)
		}
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}

		// Replies arrive independently of the requests; give them a moment
		select {
		case <-time.After(wait):
		case <-host.Exited():
		case <-ctx.Done():
		}
		return nil
	})

	return g.Wait()
}

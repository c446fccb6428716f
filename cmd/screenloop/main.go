// Package main is the screenloop demo application: a small terminal app
// exercising synchronous screen presentation, modal dialogs, and
// convention-based command and motion dispatch.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dshills/screenloop/internal/backend"
	"github.com/dshills/screenloop/internal/config"
	"github.com/dshills/screenloop/internal/event"
	"github.com/dshills/screenloop/internal/host"
	"github.com/dshills/screenloop/internal/logging"
	"github.com/dshills/screenloop/internal/screen"
	"github.com/dshills/screenloop/internal/script"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		configPath  string
		logLevel    string
		showVersion bool
	)
	flag.StringVar(&configPath, "config", "", "Path to configuration file")
	flag.StringVar(&configPath, "c", "", "Path to configuration file (shorthand)")
	flag.StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.Parse()

	if showVersion {
		fmt.Printf("screenloop %s (%s)\n", version, commit)
		return 0
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	logger, cleanup, err := setupLogging(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer cleanup()
	logging.SetDefault(logger)

	loop := host.NewLoop(host.WithQueueSize(cfg.QueueSize))

	term, err := backend.NewTerminal(backend.Options{MouseEnabled: cfg.MouseEnabled})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to open terminal: %v\n", err)
		return 1
	}

	mgr := screen.NewManager(loop, screen.WithPresenter(&termPresenter{term: term}))

	// Terminal input becomes command and motion events routed to the
	// active screen; a screen with no matching handler is skipped.
	term.Bind('s', "save")
	term.Bind('h', "help")
	term.Bind('q', "quit")
	term.Bind('y', "yes")
	term.Bind('n', "no")
	term.Bind('b', "back")

	term.OnCommand(func(cmd event.Command) {
		if _, err := mgr.DispatchCommand(cmd); err != nil {
			logger.Error("command %s failed: %v", cmd.ID, err)
		}
	})
	term.OnMotion(func(m event.Motion) {
		if _, err := mgr.DispatchMotion("onMove", m); err != nil {
			logger.Error("motion handler failed: %v", err)
		}
	})

	root := newRootScreen(mgr, term)

	if cfg.ScriptFile != "" {
		engine := script.NewEngine()
		defer engine.Close()
		if err := engine.LoadFile(cfg.ScriptFile); err != nil {
			logger.Error("script load failed: %v", err)
		} else {
			n := engine.RegisterCommandHandlers(root.Handlers())
			logger.Info("registered %d scripted command handlers", n)
		}
	}

	if configPath != "" {
		watcher, werr := config.NewWatcher(configPath, func(next config.Config) {
			loop.Post(func() {
				logger.SetLevel(logging.ParseLevel(next.LogLevel))
			})
		})
		if werr != nil {
			logger.Warn("config watch unavailable: %v", werr)
		} else {
			defer watcher.Close()
		}
	}

	if err := loop.AddSource(term); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-signals
		loop.Stop()
	}()

	// The root screen is presented from inside the loop; Present blocks
	// reentrantly until the root screen finishes, which is the app's
	// quit path.
	loop.Post(func() {
		mgr.Present(root)
		loop.Stop()
	})

	if err := loop.Run(context.Background()); err != nil && err != context.Canceled {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// setupLogging builds the application logger from configuration.
func setupLogging(cfg config.Config) (*logging.Logger, func(), error) {
	lcfg := logging.DefaultConfig()
	lcfg.Level = logging.ParseLevel(cfg.LogLevel)

	cleanup := func() {}
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file: %w", err)
		}
		lcfg.Output = f
		cleanup = func() { _ = f.Close() }
	}

	return logging.New(lcfg), cleanup, nil
}

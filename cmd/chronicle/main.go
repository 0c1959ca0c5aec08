package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/hpungsan/chronicle/internal/cache"
	"github.com/hpungsan/chronicle/internal/config"
	"github.com/hpungsan/chronicle/internal/discover"
	"github.com/hpungsan/chronicle/internal/mcp"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// cliCommands contains known CLI subcommands.
var cliCommands = map[string]bool{
	"list": true, "search": true, "chapters": true, "context": true,
	"projects": true, "refresh": true, "watch": true,
	"help": true,
}

// isCLIMode determines if we should run CLI vs MCP server.
func isCLIMode() bool {
	if len(os.Args) < 2 {
		return false // No args → MCP server
	}
	arg := os.Args[1]
	if cliCommands[arg] {
		return true
	}
	if arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" {
		return true
	}
	return false
}

// isHelpOrVersion returns true if the user is requesting help or version info.
func isHelpOrVersion() bool {
	if len(os.Args) < 2 {
		return false
	}
	arg := os.Args[1]
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" || arg == "help"
}

// isTerminal returns true if stdin is a terminal (not piped).
func isTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// printBanner displays a friendly banner when run interactively without args.
func printBanner() {
	fmt.Println(`
        _                     _      _
   ___ | |__  _ __ ___  _ __ (_) ___| | ___
  / __|| '_ \| '__/ _ \| '_ \| |/ __| |/ _ \
 | (__ | | | | | | (_) | | | | | (__| |  __/
  \___||_| |_|_|  \___/|_| |_|_|\___|_|\___|

  Structured recall over Claude Code conversation logs

  Usage: chronicle <command> [options]
         chronicle --help

  MCP server mode requires piped input.`)
}

// setupLogging routes structured logs to stderr; stdout carries MCP traffic.
func setupLogging(cfg *config.Config) {
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()})
	slog.SetDefault(slog.New(h))
}

func main() {
	// No args + interactive terminal → show banner and exit
	if len(os.Args) < 2 && isTerminal() {
		printBanner()
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Handle --help/--version before loading config
	if isHelpOrVersion() {
		app := newCLIApp(nil, nil)
		if err := app.RunContext(ctx, os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: could not determine home directory: %v\n", err)
		os.Exit(1)
	}

	baseDir := filepath.Join(homeDir, ".chronicle")

	cfg, err := config.Load(baseDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to load config: %v\n", err)
		os.Exit(1)
	}
	setupLogging(cfg)

	if unknown := mcp.ValidateDisabledTools(cfg.DisabledTools); len(unknown) > 0 {
		slog.Warn("unknown tools in disabled_tools", "tools", unknown)
	}

	idx := cache.New(discover.New(cfg.ProjectsRoot), cache.WithExcerptWidth(cfg.ExcerptWidth))

	// CLI mode: known subcommand
	if isCLIMode() {
		app := newCLIApp(idx, cfg)
		if err := app.RunContext(ctx, os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Unknown argument + terminal → show error (don't start MCP server)
	if len(os.Args) >= 2 && isTerminal() {
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "Run 'chronicle --help' for usage.\n")
		os.Exit(1)
	}

	// MCP server mode (default)
	if cfg.Watch {
		w, err := cache.NewWatcher(idx, cfg.ProjectsRoot, time.Duration(cfg.WatchDebounceMs)*time.Millisecond)
		if err != nil {
			slog.Warn("watcher unavailable", "error", err)
		} else if err := w.Start(ctx); err != nil {
			slog.Warn("watcher failed to start", "error", err)
		} else {
			defer w.Stop()
		}
	}

	if err := mcp.Run(idx, cfg, Version); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

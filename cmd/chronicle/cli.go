package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/hpungsan/chronicle/internal/cache"
	"github.com/hpungsan/chronicle/internal/config"
	"github.com/hpungsan/chronicle/internal/errors"
	"github.com/hpungsan/chronicle/internal/ops"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(idx *cache.Cache, cfg *config.Config) *cli.App {
	app := &cli.App{
		Name:    "chronicle",
		Usage:   "Structured recall over Claude Code conversation logs",
		Version: Version,
		Commands: []*cli.Command{
			listCmd(idx),
			searchCmd(idx),
			chaptersCmd(idx),
			contextCmd(idx),
			projectsCmd(idx),
			refreshCmd(idx),
			watchCmd(idx, cfg),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// listCmd creates the list command.
func listCmd(idx *cache.Cache) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List recent conversations",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "project", Aliases: []string{"p"}, Usage: "Filter by project directory name"},
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: ops.DefaultListLimit, Usage: "Maximum items"},
			&cli.IntFlag{Name: "offset", Usage: "Items to skip"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.List(c.Context, idx, ops.ListInput{
				Project: c.String("project"),
				Limit:   c.Int("limit"),
				Offset:  c.Int("offset"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, output)
		},
	}
}

// searchCmd creates the search command.
func searchCmd(idx *cache.Cache) *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search conversations by their current task list",
		ArgsUsage: "<terms...>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "project", Aliases: []string{"p"}, Usage: "Filter by project directory name"},
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: ops.DefaultSearchLimit, Usage: "Maximum items"},
			&cli.IntFlag{Name: "offset", Usage: "Items to skip"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Search(c.Context, idx, ops.SearchInput{
				Query:   strings.Join(c.Args().Slice(), " "),
				Project: c.String("project"),
				Limit:   c.Int("limit"),
				Offset:  c.Int("offset"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, output)
		},
	}
}

// chaptersCmd creates the chapters command.
func chaptersCmd(idx *cache.Cache) *cli.Command {
	return &cli.Command{
		Name:      "chapters",
		Usage:     "Show chapters and unfinished work for a conversation",
		ArgsUsage: "<session_id>",
		Action: func(c *cli.Context) error {
			output, err := ops.Chapters(c.Context, idx, ops.ChaptersInput{SessionID: c.Args().First()})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, output)
		},
	}
}

// contextCmd creates the context command.
func contextCmd(idx *cache.Cache) *cli.Command {
	return &cli.Command{
		Name:      "context",
		Usage:     "Print messages from a conversation",
		ArgsUsage: "<session_id>",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "start", Aliases: []string{"s"}, Usage: "First message index (1-based)"},
			&cli.IntFlag{Name: "end", Aliases: []string{"e"}, Usage: "Last message index (inclusive)"},
			&cli.IntFlag{Name: "around", Aliases: []string{"a"}, Usage: "Centre message index"},
			&cli.IntFlag{Name: "radius", Aliases: []string{"r"}, Usage: "Messages on each side of --around (default 10)"},
			&cli.IntFlag{Name: "recent", Usage: "Last N messages"},
			&cli.IntFlag{Name: "expand", Aliases: []string{"x"}, Usage: "Widen the range on both sides"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Context(c.Context, idx, ops.ContextInput{
				SessionID: c.Args().First(),
				Start:     c.Int("start"),
				End:       c.Int("end"),
				Around:    c.Int("around"),
				Radius:    c.Int("radius"),
				Recent:    c.Int("recent"),
				Expand:    c.Int("expand"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, output)
		},
	}
}

// projectsCmd creates the projects command.
func projectsCmd(idx *cache.Cache) *cli.Command {
	return &cli.Command{
		Name:  "projects",
		Usage: "List projects that have conversations",
		Action: func(c *cli.Context) error {
			output, err := ops.Projects(c.Context, idx)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, output)
		},
	}
}

// refreshOutput reports one freshness pass.
type refreshOutput struct {
	cache.Stats
	Conversations int   `json:"conversations"`
	Derivations   int64 `json:"derivations"`
	ElapsedMs     int64 `json:"elapsed_ms"`
}

// refreshCmd creates the refresh command.
func refreshCmd(idx *cache.Cache) *cli.Command {
	return &cli.Command{
		Name:  "refresh",
		Usage: "Index every conversation log and report pass statistics",
		Action: func(c *cli.Context) error {
			start := time.Now()
			stats, err := idx.EnsureFresh(c.Context)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, refreshOutput{
				Stats:         stats,
				Conversations: idx.Len(),
				Derivations:   idx.Derivations(),
				ElapsedMs:     time.Since(start).Milliseconds(),
			})
		},
	}
}

// watchCmd creates the watch command.
func watchCmd(idx *cache.Cache, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Keep the index fresh and print a line per refresh until interrupted",
		Flags: []cli.Flag{
			&cli.DurationFlag{Name: "debounce", Usage: "Quiet period before a refresh (default from config)"},
		},
		Action: func(c *cli.Context) error {
			debounce := c.Duration("debounce")
			if debounce == 0 {
				debounce = time.Duration(cfg.WatchDebounceMs) * time.Millisecond
			}

			stats, err := idx.EnsureFresh(c.Context)
			if err != nil {
				return outputError(err)
			}
			if err := outputJSONLine(c, stats); err != nil {
				return err
			}

			w, err := cache.NewWatcher(idx, cfg.ProjectsRoot, debounce)
			if err != nil {
				return outputError(errors.NewInternal(err))
			}
			w.OnRefresh = func(s cache.Stats) {
				_ = outputJSONLine(c, s)
			}
			if err := w.Start(c.Context); err != nil {
				return outputError(errors.NewInternal(err))
			}
			defer w.Stop()

			<-c.Context.Done()
			return nil
		},
	}
}

// Helper functions

// outputJSON writes result to the app's writer as indented JSON.
func outputJSON(c *cli.Context, v any) error {
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputJSONLine writes result as a single JSON line.
func outputJSONLine(c *cli.Context, v any) error {
	return json.NewEncoder(c.App.Writer).Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if ce, ok := errors.As(err); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", ce.Code, ce.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

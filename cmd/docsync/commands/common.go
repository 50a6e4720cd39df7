package commands

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/docsync/internal/config"
	"git.home.luguber.info/inful/docsync/internal/eventstore"
	"git.home.luguber.info/inful/docsync/internal/logfields"
	"git.home.luguber.info/inful/docsync/internal/metrics"
	"git.home.luguber.info/inful/docsync/internal/pipeline"
)

// LogLevelEnv enables debug logging when set to "debug".
const LogLevelEnv = "DOCSYNC_LOG_LEVEL"

// Global context passed to subcommands.
type Global struct {
	Logger *slog.Logger // slog.Default() when nil
	Out    io.Writer    // user-facing output; stdout when nil
}

func (g *Global) log() *slog.Logger {
	if g == nil || g.Logger == nil {
		return slog.Default()
	}
	return g.Logger
}

func (g *Global) out() io.Writer {
	if g == nil || g.Out == nil {
		return os.Stdout
	}
	return g.Out
}

// CLI definition & global flags - used by commands that need access to root config.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"docsync.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Sync    SyncCmd    `cmd:"" default:"withargs" help:"Mirror child docs and rebuild the mkdocs.yml nav (default)"`
	Init    InitCmd    `cmd:"" help:"Initialize a new configuration file"`
	Watch   WatchCmd   `cmd:"" help:"Sync, then resync whenever sources change"`
	History HistoryCmd `cmd:"" help:"Show recent sync runs"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose || strings.EqualFold(os.Getenv(LogLevelEnv), "debug") {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// newRunner wires history and metrics into a runner for cfg. The returned
// close function releases the history store.
func newRunner(cfg *config.Config) (*pipeline.Runner, func(), error) {
	var opts []pipeline.Option
	closeFn := func() {}

	if cfg.History.Path != "" {
		store, err := eventstore.NewSQLiteStore(cfg.History.Path)
		if err != nil {
			return nil, closeFn, err
		}
		opts = append(opts, pipeline.WithEventStore(store))
		closeFn = func() {
			if err := store.Close(); err != nil {
				slog.Warn("Failed to close history store", logfields.Error(err))
			}
		}
	}
	if cfg.Metrics.Textfile != "" {
		opts = append(opts, pipeline.WithRecorder(metrics.NewPrometheusRecorder(nil)))
	}
	return pipeline.NewRunner(cfg, opts...), closeFn, nil
}

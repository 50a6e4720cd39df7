package commands

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"git.home.luguber.info/inful/docsync/internal/config"
	"git.home.luguber.info/inful/docsync/internal/eventstore"
	ferrors "git.home.luguber.info/inful/docsync/internal/foundation/errors"
	"git.home.luguber.info/inful/docsync/internal/git"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit int `short:"n" help:"Number of runs to show" default:"10"`
}

func (h *HistoryCmd) Run(g *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}
	return RunHistory(context.Background(), g, cfg, h.Limit)
}

// RunHistory prints the most recent runs, newest first.
func RunHistory(ctx context.Context, g *Global, cfg *config.Config, limit int) error {
	if cfg.History.Path == "" {
		return ferrors.ConfigError("run history is disabled (set history.path in the configuration)").Build()
	}
	store, err := eventstore.NewSQLiteStore(cfg.History.Path)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	runs, err := store.RecentRuns(ctx, limit)
	if err != nil {
		return err
	}
	return printRuns(g.out(), runs)
}

func printRuns(out io.Writer, runs []eventstore.RunSummary) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(out, "No sync runs recorded.")
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "RUN\tSTARTED\tTRIGGER\tSTATUS\tREPOS\tFILES\tNAV\tDURATION\tDETAIL")
	for _, run := range runs {
		nav := "unchanged"
		if run.NavChanged {
			nav = "changed"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%s\t%s\t%s\n",
			shortRunID(run.RunID),
			run.StartedAt.Local().Format(time.DateTime),
			run.Trigger,
			run.Status,
			run.RepoCount,
			run.FileCount,
			nav,
			run.Duration.Round(time.Millisecond),
			runDetail(run))
	}
	return tw.Flush()
}

func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func runDetail(run eventstore.RunSummary) string {
	if run.Status == eventstore.RunStatusFailed {
		return run.ErrorStage + ": " + run.ErrorMessage
	}
	parts := make([]string, 0, len(run.Revisions))
	for repo, rev := range run.Revisions {
		parts = append(parts, repo+"@"+git.ShortHash(rev))
	}
	slices.Sort(parts)
	return strings.Join(parts, " ")
}

// Package pipeline runs one sync: load the site configuration, mirror every child
// source, rebuild the nav and write the site configuration back.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/docsync/internal/config"
	"git.home.luguber.info/inful/docsync/internal/eventstore"
	ferrors "git.home.luguber.info/inful/docsync/internal/foundation/errors"
	"git.home.luguber.info/inful/docsync/internal/logfields"
	"git.home.luguber.info/inful/docsync/internal/metrics"
	"git.home.luguber.info/inful/docsync/internal/mirror"
	"git.home.luguber.info/inful/docsync/internal/nav"
)

// Trigger names what started a run.
type Trigger string

const (
	TriggerManual   Trigger = "manual"
	TriggerWatch    Trigger = "watch"
	TriggerSchedule Trigger = "schedule"
)

// Report summarizes a completed run.
type Report struct {
	RunID      string
	Trigger    Trigger
	Mirrored   []mirror.Result
	Sections   []nav.SectionResult
	NavChanged bool
	Duration   time.Duration
}

// FileCount returns the number of files mirrored across all repositories.
func (r *Report) FileCount() int {
	n := 0
	for _, res := range r.Mirrored {
		n += len(res.Files)
	}
	return n
}

// Runner executes sync runs. Runs on the same Runner never overlap.
type Runner struct {
	cfg      *config.Config
	mirror   *mirror.Mirror
	store    eventstore.Store
	recorder metrics.Recorder

	mu sync.Mutex
}

// Option configures a Runner.
type Option func(*Runner)

// WithMirror replaces the default content mirror.
func WithMirror(m *mirror.Mirror) Option {
	return func(r *Runner) { r.mirror = m }
}

// WithEventStore records run history in store.
func WithEventStore(store eventstore.Store) Option {
	return func(r *Runner) { r.store = store }
}

// WithRecorder reports run metrics to rec.
func WithRecorder(rec metrics.Recorder) Option {
	return func(r *Runner) {
		if rec != nil {
			r.recorder = rec
		}
	}
}

// NewRunner creates a Runner for cfg.
func NewRunner(cfg *config.Config, opts ...Option) *Runner {
	r := &Runner{
		cfg:      cfg,
		mirror:   mirror.New(),
		recorder: metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run performs one manually triggered sync.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	return r.RunWithTrigger(ctx, TriggerManual)
}

// RunWithTrigger performs one sync, waiting for any run already in progress.
func (r *Runner) RunWithTrigger(ctx context.Context, trigger Trigger) (*Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	start := time.Now()
	report := &Report{RunID: uuid.NewString(), Trigger: trigger}
	log := slog.With(logfields.RunID(report.RunID))
	log.Info("Sync run started", slog.String("trigger", string(trigger)), logfields.Count(len(r.cfg.Repositories)))

	hist := newHistoryWriter(ctx, r.store)
	hist.record(eventstore.NewSyncStarted(report.RunID, string(trigger), r.cfg.Site.Config, repositoryNames(r.cfg.Repositories)))

	stage, err := r.execute(ctx, hist, report)
	report.Duration = time.Since(start)
	r.recorder.ObserveRunDuration(report.Duration)

	if err != nil {
		result := resultFor(err)
		r.recorder.IncRunOutcome(result)
		hist.record(eventstore.NewSyncFailed(report.RunID, stage, err.Error(), report.Duration))
		r.exportMetrics()
		log.Error("Sync run failed", logfields.Stage(stage), logfields.Error(err),
			logfields.DurationMS(millis(report.Duration)))
		return report, err
	}

	r.recorder.IncRunOutcome(metrics.ResultSuccess)
	hist.record(eventstore.NewSyncCompleted(report.RunID, report.FileCount(), report.NavChanged, report.Duration))
	r.exportMetrics()
	log.Info("Sync run completed",
		logfields.Count(report.FileCount()),
		slog.Bool("nav_changed", report.NavChanged),
		logfields.DurationMS(millis(report.Duration)))
	return report, nil
}

// execute runs the stages in order and returns the name of the failing stage.
func (r *Runner) execute(ctx context.Context, hist historyWriter, report *Report) (string, error) {
	var doc *nav.Document
	err := r.stage(metrics.StageLoadSite, func() error {
		var err error
		doc, err = nav.LoadDocument(r.cfg.Site.Config)
		if err != nil {
			return err
		}
		// Reject a malformed nav before any file is touched.
		if _, err = doc.Nav(); err != nil {
			return ferrors.WrapError(err, ferrors.CategorySite, "invalid site navigation").
				WithContext("path", r.cfg.Site.Config).
				Build()
		}
		return nil
	})
	if err != nil {
		return metrics.StageLoadSite, err
	}

	err = r.stage(metrics.StageMirror, func() error {
		results, err := r.mirror.Run(ctx, r.cfg.Repositories)
		report.Mirrored = results
		for _, res := range results {
			r.recorder.SetMirroredFiles(res.Repository, len(res.Files))
			hist.record(eventstore.NewRepositoryMirrored(report.RunID, res.Repository, res.Destination,
				len(res.Files), res.Revision, res.Fingerprint, res.Duration))
		}
		return err
	})
	if err != nil {
		return metrics.StageMirror, err
	}

	err = r.stage(metrics.StageRebuildNav, func() error {
		sections, err := nav.Rebuild(doc, r.cfg)
		if err != nil {
			return err
		}
		report.Sections = sections
		return nil
	})
	if err != nil {
		return metrics.StageRebuildNav, err
	}

	err = r.stage(metrics.StageWriteSite, func() error {
		changed, err := doc.Changed()
		if err != nil {
			return err
		}
		report.NavChanged = changed
		if !changed {
			slog.Debug("Site configuration unchanged", logfields.Path(r.cfg.Site.Config))
			return nil
		}
		return doc.Save(r.cfg.Site.Config)
	})
	if err != nil {
		return metrics.StageWriteSite, err
	}

	sections, skipped, entries := 0, 0, 0
	for _, s := range report.Sections {
		r.recorder.SetNavEntries(s.Repository, s.Entries)
		if s.Outcome == nav.OutcomeSkipped {
			skipped++
			continue
		}
		sections++
		entries += s.Entries
	}
	hist.record(eventstore.NewNavigationRebuilt(report.RunID, sections, skipped, entries, report.NavChanged))
	return "", nil
}

func (r *Runner) stage(name string, fn func() error) error {
	start := time.Now()
	err := fn()
	d := time.Since(start)

	r.recorder.ObserveStageDuration(name, d)
	if err != nil {
		r.recorder.IncStageResult(name, resultFor(err))
		return err
	}
	r.recorder.IncStageResult(name, metrics.ResultSuccess)
	slog.Debug("Stage finished", logfields.Stage(name), logfields.DurationMS(millis(d)))
	return nil
}

func (r *Runner) exportMetrics() {
	path := r.cfg.Metrics.Textfile
	if path == "" {
		return
	}
	exporter, ok := r.recorder.(interface{ WriteTextfile(string) error })
	if !ok {
		return
	}
	if err := exporter.WriteTextfile(path); err != nil {
		slog.Warn("Failed to write metrics textfile", logfields.Path(path), logfields.Error(err))
	}
}

func resultFor(err error) metrics.ResultLabel {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return metrics.ResultCanceled
	}
	return metrics.ResultFailed
}

func repositoryNames(repos []config.Repository) []string {
	names := make([]string, 0, len(repos))
	for _, repo := range repos {
		names = append(names, repo.Name)
	}
	return names
}

func millis(d time.Duration) float64 { return float64(d.Microseconds()) / 1000 }

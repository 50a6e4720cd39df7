package commands

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/docsync/internal/config"
	"git.home.luguber.info/inful/docsync/internal/logfields"
	"git.home.luguber.info/inful/docsync/internal/pipeline"
	"git.home.luguber.info/inful/docsync/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	SiteConfig string `name:"site-config" help:"Path to mkdocs.yml (overrides configuration)"`
	DocsDir    string `name:"docs-dir" help:"Site document root (overrides configuration)"`
}

func (w *WatchCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root.Config, w.SiteConfig, w.DocsDir)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	return RunWatch(ctx, g, cfg)
}

// RunWatch syncs once, then keeps syncing on source changes and on the
// configured interval until ctx is done. Failed runs after the first are logged
// and do not stop watching.
func RunWatch(ctx context.Context, g *Global, cfg *config.Config) error {
	runner, closeRunner, err := newRunner(cfg)
	if err != nil {
		return err
	}
	defer closeRunner()

	log := g.log()
	if _, err := runner.Run(ctx); err != nil {
		return err
	}

	resync := func(trigger pipeline.Trigger) {
		if ctx.Err() != nil {
			return
		}
		if _, err := runner.RunWithTrigger(ctx, trigger); err != nil {
			log.Error("Resync failed", slog.String("trigger", string(trigger)), logfields.Error(err))
		}
	}

	if cfg.Watch.Interval > 0 {
		scheduler, err := watch.NewScheduler()
		if err != nil {
			return err
		}
		if _, err := scheduler.ScheduleEvery("periodic-resync", cfg.Watch.Interval, func() {
			resync(pipeline.TriggerSchedule)
		}); err != nil {
			return err
		}
		scheduler.Start(ctx)
		defer func() {
			if err := scheduler.Stop(context.Background()); err != nil {
				log.Warn("Failed to stop scheduler", logfields.Error(err))
			}
		}()
	}

	sources := make([]string, 0, len(cfg.Repositories))
	for _, repo := range cfg.Repositories {
		sources = append(sources, repo.Source)
	}
	watcher, err := watch.NewWatcher(sources, cfg.Watch.Debounce, func(context.Context) {
		resync(pipeline.TriggerWatch)
	})
	if err != nil {
		return err
	}

	log.Info("Watching for changes; press Ctrl+C to stop")
	if err := watcher.Run(ctx); err != nil {
		return err
	}
	log.Info("Watch stopped")
	return nil
}

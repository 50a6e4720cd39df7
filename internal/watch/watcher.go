package watch

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	ferrors "git.home.luguber.info/inful/docsync/internal/foundation/errors"
	"git.home.luguber.info/inful/docsync/internal/logfields"
)

// DefaultDebounce is the quiet window used when none is configured.
const DefaultDebounce = 2 * time.Second

// TriggerFunc runs a sync. It is called from a single goroutine.
type TriggerFunc func(ctx context.Context)

// Watcher monitors source directories recursively and triggers a sync once
// Markdown changes have been quiet for the debounce window.
type Watcher struct {
	roots    []string
	debounce time.Duration
	trigger  TriggerFunc
	watcher  *fsnotify.Watcher
	ready    chan struct{}
}

// NewWatcher creates a watcher over roots.
func NewWatcher(roots []string, debounce time.Duration, trigger TriggerFunc) (*Watcher, error) {
	if trigger == nil {
		return nil, ferrors.ValidationError("trigger is required").Build()
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryRuntime, "failed to create file watcher").Build()
	}
	return &Watcher{
		roots:    roots,
		debounce: debounce,
		trigger:  trigger,
		watcher:  fw,
		ready:    make(chan struct{}),
	}, nil
}

// Ready is closed once every root is being watched.
func (w *Watcher) Ready() <-chan struct{} {
	return w.ready
}

// Run watches until ctx is done. A trigger in progress finishes before Run returns.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() {
		if err := w.watcher.Close(); err != nil {
			slog.Error("Error closing file watcher", logfields.Error(err))
		}
	}()

	for _, root := range w.roots {
		if err := w.addTree(root); err != nil {
			return err
		}
	}
	slog.Info("Watching sources", logfields.Count(len(w.roots)), slog.Duration("debounce", w.debounce))
	close(w.ready)

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !w.handle(event) {
				continue
			}
			if !timer.Stop() && fire != nil {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(w.debounce)
			fire = timer.C

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("Source watcher error", logfields.Error(err))

		case <-fire:
			fire = nil
			slog.Info("Source changes detected; syncing")
			w.trigger(ctx)
		}
	}
}

// handle updates watches for event and reports whether it warrants a sync.
func (w *Watcher) handle(event fsnotify.Event) bool {
	switch {
	case event.Has(fsnotify.Create):
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(event.Name); err != nil {
				slog.Warn("Failed to watch new directory", logfields.Path(event.Name), logfields.Error(err))
			}
			slog.Debug("Directory created", logfields.Path(event.Name))
			return true
		}
		return isMarkdown(event.Name)
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		// A removed directory may have held Markdown files.
		return true
	case event.Has(fsnotify.Write):
		return isMarkdown(event.Name)
	default:
		return false
	}
}

// addTree watches dir and every directory below it. A missing root is skipped.
func (w *Watcher) addTree(dir string) error {
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if path == dir && errors.Is(walkErr, fs.ErrNotExist) {
				slog.Warn("Source directory missing; not watched", logfields.Path(dir))
				return fs.SkipAll
			}
			return walkErr
		}
		if !d.IsDir() {
			return nil
		}
		if d.Name() == ".git" {
			return fs.SkipDir
		}
		return w.watcher.Add(path)
	})
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to watch source directory").
			WithContext("path", dir).
			Build()
	}
	return nil
}

func isMarkdown(path string) bool {
	name := filepath.Base(path)
	return strings.HasSuffix(name, ".md") || strings.EqualFold(name, "readme.md")
}

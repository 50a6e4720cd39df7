// Package mirror copies Markdown documentation from child sources into the site tree.
//
// Every run fully replaces each destination directory: stale files from an earlier
// run never survive. Only Markdown files are copied, and any case variant of
// readme.md lands as lowercase readme.md.
package mirror

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/inful/mdfp"

	"git.home.luguber.info/inful/docsync/internal/config"
	ferrors "git.home.luguber.info/inful/docsync/internal/foundation/errors"
	"git.home.luguber.info/inful/docsync/internal/git"
	"git.home.luguber.info/inful/docsync/internal/logfields"
)

const (
	markdownExt = ".md"
	readmeName  = "readme.md"
)

// File is one mirrored document.
type File struct {
	Path        string // relative to the destination, forward slashes
	Source      string // absolute or configured source path
	Size        int64
	Fingerprint string
}

// Result describes one mirrored repository.
type Result struct {
	Repository  string
	Destination string
	Files       []File
	Revision    string // HEAD of the source checkout, empty outside git
	Fingerprint string // fingerprint over all mirrored files
	Duration    time.Duration
}

// RevisionFunc resolves the source revision of a directory.
type RevisionFunc func(path string) (string, error)

// Mirror performs full-replace copies of Markdown trees.
type Mirror struct {
	revision RevisionFunc
}

// Option configures a Mirror.
type Option func(*Mirror)

// WithRevisionFunc overrides revision detection (nil disables it).
func WithRevisionFunc(fn RevisionFunc) Option {
	return func(m *Mirror) { m.revision = fn }
}

// New creates a Mirror that records source revisions via git HEAD.
func New(opts ...Option) *Mirror {
	m := &Mirror{revision: git.ReadRepoHead}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Run mirrors every repository in order. The first failure aborts the run.
func (m *Mirror) Run(ctx context.Context, repos []config.Repository) ([]Result, error) {
	for _, repo := range repos {
		if err := os.MkdirAll(repo.Destination, 0o755); err != nil {
			return nil, ferrors.FileSystemError("failed to create destination").
				WithCause(err).
				WithContext("repository", repo.Name).
				WithContext("path", repo.Destination).
				Build()
		}
	}

	results := make([]Result, 0, len(repos))
	for _, repo := range repos {
		res, err := m.Repository(ctx, repo)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

// Repository mirrors a single repository.
func (m *Mirror) Repository(ctx context.Context, repo config.Repository) (Result, error) {
	start := time.Now()
	res := Result{Repository: repo.Name, Destination: repo.Destination}
	if err := ctx.Err(); err != nil {
		return res, err
	}

	info, err := os.Stat(repo.Source)
	if err != nil || !info.IsDir() {
		if err == nil {
			err = fmt.Errorf("%s is not a directory", repo.Source)
		}
		return res, ferrors.WrapError(fmt.Errorf("%w: %w", ErrSourceNotFound, err), ferrors.CategoryNotFound, "cannot mirror repository").
			WithContext("repository", repo.Name).
			WithContext("path", repo.Source).
			UserAction().
			Build()
	}

	if err := resetDir(repo.Destination); err != nil {
		return res, ferrors.FileSystemError("failed to reset destination").
			WithCause(err).
			WithContext("repository", repo.Name).
			WithContext("path", repo.Destination).
			Build()
	}

	seen := make(map[string]string)
	err = filepath.WalkDir(repo.Source, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, ok, relErr := destinationPath(repo.Source, path)
		if relErr != nil || !ok {
			return relErr
		}
		if prev, dup := seen[rel]; dup {
			return fmt.Errorf("%w: %s and %s both map to %s", ErrPathCollision, prev, path, rel)
		}
		seen[rel] = path

		file, err := copyFile(path, filepath.Join(repo.Destination, rel))
		if err != nil {
			return err
		}
		file.Path = filepath.ToSlash(rel)
		res.Files = append(res.Files, file)
		slog.Debug("Mirrored file", logfields.Repository(repo.Name), logfields.File(file.Path))
		return nil
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return res, err
		}
		return res, ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to mirror repository").
			WithContext("repository", repo.Name).
			WithContext("source", repo.Source).
			WithContext("destination", repo.Destination).
			Build()
	}

	res.Fingerprint = treeFingerprint(res.Files)
	if m.revision != nil {
		rev, revErr := m.revision(repo.Source)
		if revErr != nil {
			slog.Warn("Could not determine source revision", logfields.Repository(repo.Name), logfields.Error(revErr))
		}
		res.Revision = rev
	}
	res.Duration = time.Since(start)

	slog.Info("Mirrored repository",
		logfields.Repository(repo.Name),
		logfields.Path(repo.Destination),
		logfields.Count(len(res.Files)),
		logfields.Revision(git.ShortHash(res.Revision)),
		logfields.DurationMS(float64(res.Duration.Microseconds())/1000))
	return res, nil
}

// destinationPath maps a source file to its path relative to the destination.
// ok is false for files that are not mirrored.
func destinationPath(sourceRoot, path string) (rel string, ok bool, err error) {
	name := filepath.Base(path)
	isReadme := strings.EqualFold(name, readmeName)
	if !isReadme && !strings.HasSuffix(name, markdownExt) {
		return "", false, nil
	}
	rel, err = filepath.Rel(sourceRoot, path)
	if err != nil {
		return "", false, err
	}
	if isReadme {
		rel = filepath.Join(filepath.Dir(rel), readmeName)
	}
	return rel, true, nil
}

// resetDir removes dir and recreates it empty.
func resetDir(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return err
	}
	return os.MkdirAll(dir, 0o755)
}

// copyFile copies src to dst byte for byte, keeping permission bits and modification time.
func copyFile(src, dst string) (File, error) {
	info, err := os.Stat(src)
	if err != nil {
		return File{}, fmt.Errorf("%w: %w", ErrCopyFailed, err)
	}
	content, err := os.ReadFile(src)
	if err != nil {
		return File{}, fmt.Errorf("%w: %w", ErrCopyFailed, err)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return File{}, fmt.Errorf("%w: %w", ErrCopyFailed, err)
	}
	if err := os.WriteFile(dst, content, info.Mode().Perm()); err != nil {
		return File{}, fmt.Errorf("%w: %w", ErrCopyFailed, err)
	}
	// WriteFile applies the umask; set the exact source bits.
	if err := os.Chmod(dst, info.Mode().Perm()); err != nil {
		return File{}, fmt.Errorf("%w: %w", ErrCopyFailed, err)
	}
	if err := os.Chtimes(dst, info.ModTime(), info.ModTime()); err != nil {
		return File{}, fmt.Errorf("%w: %w", ErrCopyFailed, err)
	}
	return File{
		Source:      src,
		Size:        info.Size(),
		Fingerprint: mdfp.CalculateFingerprintFromParts("", string(content)),
	}, nil
}

func treeFingerprint(files []File) string {
	sorted := make([]File, len(files))
	copy(sorted, files)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	var b strings.Builder
	for _, f := range sorted {
		b.WriteString(f.Path)
		b.WriteByte(' ')
		b.WriteString(f.Fingerprint)
		b.WriteByte('\n')
	}
	return mdfp.CalculateFingerprintFromParts("", b.String())
}

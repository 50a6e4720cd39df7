package nav

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"git.home.luguber.info/inful/docsync/internal/config"
	ferrors "git.home.luguber.info/inful/docsync/internal/foundation/errors"
	"git.home.luguber.info/inful/docsync/internal/logfields"
)

const markdownExt = ".md"

// Filter copies the top-level entries, dropping the ones owned by synced content:
// top-level entries titled with an owned single-level section, and the owned
// children of owned parents. Everything else keeps its position.
func Filter(nodes []Node, owned config.OwnedSections) []Node {
	out := make([]Node, 0, len(nodes))
	for _, n := range nodes {
		if n.Kind != KindOther && owned.OwnsTopLevel(n.Title) {
			continue
		}
		if n.Kind == KindBranch {
			if _, isParent := owned.Nested[n.Title]; isParent {
				kept := make([]Node, 0, len(n.Children))
				for _, child := range n.Children {
					if child.Kind != KindOther && owned.OwnsNested(n.Title, child.Title) {
						continue
					}
					kept = append(kept, child)
				}
				n.Children = kept
			}
		}
		out = append(out, n)
	}
	return out
}

// Title derives a display title from a Markdown file name: the extension is
// stripped, hyphens become spaces, the first character is upper-cased and the
// rest lower-cased.
func Title(filename string) string {
	name := strings.ReplaceAll(stem(filepath.Base(filename)), "-", " ")
	r, size := utf8.DecodeRuneInString(name)
	if size == 0 {
		return name
	}
	return string(unicode.ToTitle(r)) + cases.Lower(language.Und).String(name[size:])
}

// stem removes the last extension; leading dots do not start an extension.
func stem(name string) string {
	trimmed := strings.TrimLeft(name, ".")
	i := strings.LastIndexByte(trimmed, '.')
	if i < 0 {
		return name
	}
	return name[:len(name)-len(trimmed)+i]
}

// BuildSection walks destination and returns one leaf per Markdown file. Files of a
// directory come in name order before its subdirectories, which are visited in name
// order too. Sorting subdirectories as well as files is intentional: it keeps the
// nav identical across filesystems. Leaf paths are relative to docsDir with
// forward slashes. A missing destination yields no entries.
func BuildSection(docsDir, destination string) ([]Node, error) {
	leaves := []Node{}
	err := walkFilesFirst(destination, func(path string) error {
		if !strings.HasSuffix(path, markdownExt) {
			return nil
		}
		rel, err := filepath.Rel(docsDir, path)
		if err != nil {
			return err
		}
		leaves = append(leaves, Leaf(Title(path), filepath.ToSlash(rel)))
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return []Node{}, nil
	}
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryNav, "failed to walk mirrored documentation").
			WithContext("path", destination).
			Build()
	}
	return leaves, nil
}

func walkFilesFirst(dir string, visit func(path string) error) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	var files, dirs []string
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, e.Name())
		} else {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	sort.Strings(dirs)
	for _, f := range files {
		if err := visit(filepath.Join(dir, f)); err != nil {
			return err
		}
	}
	for _, d := range dirs {
		if err := walkFilesFirst(filepath.Join(dir, d), visit); err != nil {
			return err
		}
	}
	return nil
}

// InsertOutcome describes where a rebuilt section ended up.
type InsertOutcome string

const (
	OutcomeTopLevel      InsertOutcome = "top_level"
	OutcomeNested        InsertOutcome = "nested"
	OutcomeParentCreated InsertOutcome = "parent_created"
	OutcomeSkipped       InsertOutcome = "skipped"
)

// Insert attaches a rebuilt section. A one-segment section is appended at top level.
// A two-segment section is appended to the children of the first top-level branch
// titled with the first segment; when there is none, policy decides.
func Insert(nodes []Node, section []string, children []Node, policy config.MissingParentPolicy) ([]Node, InsertOutcome, error) {
	switch len(section) {
	case 1:
		return append(nodes, Branch(section[0], children)), OutcomeTopLevel, nil
	case 2:
	default:
		return nodes, OutcomeSkipped, ferrors.NavError("nav section must have one or two segments").
			WithContext("segments", len(section)).
			Build()
	}

	parent, child := section[0], section[1]
	for i := range nodes {
		if nodes[i].IsBranch(parent) {
			nodes[i].Children = append(slices.Clone(nodes[i].Children), Branch(child, children))
			return nodes, OutcomeNested, nil
		}
	}

	switch policy {
	case config.MissingParentCreate:
		return append(nodes, Branch(parent, []Node{Branch(child, children)})), OutcomeParentCreated, nil
	case config.MissingParentFail:
		return nodes, OutcomeSkipped, ferrors.WrapError(fmt.Errorf("%w: %s", ErrMissingParent, parent), ferrors.CategoryNav, "cannot attach nav section").
			WithContext("section", strings.Join(section, " / ")).
			Build()
	default:
		slog.Warn("Parent nav section missing; subsection not attached",
			logfields.Section(strings.Join(section, " / ")),
			logfields.Policy(string(policy)))
		return nodes, OutcomeSkipped, nil
	}
}

// SectionResult summarizes one repository's rebuilt section.
type SectionResult struct {
	Repository string
	Section    []string
	Entries    int
	Outcome    InsertOutcome
}

// Rebuild replaces the synced sections of doc's nav with sections generated from
// the mirrored destinations.
func Rebuild(doc *Document, cfg *config.Config) ([]SectionResult, error) {
	current, err := doc.Nav()
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryNav, "failed to read nav").Build()
	}

	nodes := Filter(current, cfg.OwnedSections())
	results := make([]SectionResult, 0, len(cfg.Repositories))
	for _, repo := range cfg.Repositories {
		leaves, err := BuildSection(cfg.Site.DocsDir, repo.Destination)
		if err != nil {
			return nil, err
		}
		var outcome InsertOutcome
		nodes, outcome, err = Insert(nodes, repo.NavSection, leaves, cfg.Nav.MissingParent)
		if err != nil {
			return nil, err
		}
		slog.Debug("Rebuilt nav section",
			logfields.Repository(repo.Name),
			logfields.Section(repo.SectionLabel()),
			logfields.Count(len(leaves)),
			slog.String("outcome", string(outcome)))
		results = append(results, SectionResult{
			Repository: repo.Name,
			Section:    repo.NavSection,
			Entries:    len(leaves),
			Outcome:    outcome,
		})
	}

	doc.SetNav(nodes)
	return results, nil
}

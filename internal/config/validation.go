package config

import (
	"path/filepath"
	"strings"

	ferrors "git.home.luguber.info/inful/docsync/internal/foundation/errors"
)

// Validate checks the repository table and site settings. The missing-parent
// policy is normalized in place.
func (c *Config) Validate() error {
	if len(c.Repositories) == 0 {
		return ferrors.ValidationError("at least one repository must be configured").Build()
	}

	policy, err := missingParentPolicies.Parse(string(c.Nav.MissingParent))
	if err != nil {
		return err
	}
	c.Nav.MissingParent = policy

	owned := c.OwnedSections()
	for parent := range owned.Nested {
		if owned.OwnsTopLevel(parent) {
			return ferrors.ValidationError("a single-level nav_section cannot also be the parent of a two-level one").
				WithContext("section", parent).
				Build()
		}
	}

	names := make(map[string]struct{}, len(c.Repositories))
	for i, repo := range c.Repositories {
		if err := c.validateRepository(repo); err != nil {
			return err
		}
		if _, dup := names[repo.Name]; dup {
			return ferrors.ValidationError("duplicate repository name").
				WithContext("repository", repo.Name).
				Build()
		}
		names[repo.Name] = struct{}{}

		for _, other := range c.Repositories[:i] {
			if pathWithin(other.Destination, repo.Destination) || pathWithin(repo.Destination, other.Destination) {
				return ferrors.ValidationError("repository destinations overlap").
					WithContext("repository", repo.Name).
					WithContext("other", other.Name).
					Build()
			}
		}
	}
	return nil
}

func (c *Config) validateRepository(repo Repository) error {
	if strings.TrimSpace(repo.Name) == "" {
		return ferrors.ValidationError("repository name is required").Build()
	}
	if strings.TrimSpace(repo.Source) == "" {
		return ferrors.ValidationError("repository source is required").
			WithContext("repository", repo.Name).
			Build()
	}
	if strings.TrimSpace(repo.Destination) == "" {
		return ferrors.ValidationError("repository destination is required").
			WithContext("repository", repo.Name).
			Build()
	}
	if n := len(repo.NavSection); n < 1 || n > 2 {
		return ferrors.ValidationError("nav_section must have one or two segments").
			WithContext("repository", repo.Name).
			WithContext("segments", n).
			Build()
	}
	for _, seg := range repo.NavSection {
		if strings.TrimSpace(seg) == "" {
			return ferrors.ValidationError("nav_section segments must not be empty").
				WithContext("repository", repo.Name).
				Build()
		}
	}

	// The destination is deleted on every run, so it must be a strict subdirectory of
	// the docs root and must not hold the source tree.
	rel, err := filepath.Rel(filepath.Clean(c.Site.DocsDir), filepath.Clean(repo.Destination))
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return ferrors.ValidationError("destination must be a subdirectory of the docs root").
			WithContext("repository", repo.Name).
			WithContext("destination", repo.Destination).
			WithContext("docs_dir", c.Site.DocsDir).
			Build()
	}
	if pathWithin(repo.Source, repo.Destination) || pathWithin(repo.Destination, repo.Source) {
		return ferrors.ValidationError("source and destination must not contain each other").
			WithContext("repository", repo.Name).
			Build()
	}
	return nil
}

// pathWithin reports whether child equals parent or lies beneath it.
func pathWithin(parent, child string) bool {
	rel, err := filepath.Rel(filepath.Clean(parent), filepath.Clean(child))
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// OwnedSections lists the navigation titles that synced content owns.
type OwnedSections struct {
	// TopLevel holds titles of single-level sections.
	TopLevel map[string]struct{}
	// Nested maps a top-level parent title to the child titles owned beneath it.
	Nested map[string]map[string]struct{}
}

// OwnsTopLevel reports whether a top-level entry titled title is owned.
func (o OwnedSections) OwnsTopLevel(title string) bool {
	_, ok := o.TopLevel[title]
	return ok
}

// OwnsNested reports whether child under parent is owned.
func (o OwnedSections) OwnsNested(parent, child string) bool {
	children, ok := o.Nested[parent]
	if !ok {
		return false
	}
	_, ok = children[child]
	return ok
}

// OwnedSections derives the owned titles from the repository table.
func (c *Config) OwnedSections() OwnedSections {
	owned := OwnedSections{
		TopLevel: make(map[string]struct{}),
		Nested:   make(map[string]map[string]struct{}),
	}
	for _, repo := range c.Repositories {
		switch len(repo.NavSection) {
		case 1:
			owned.TopLevel[repo.NavSection[0]] = struct{}{}
		case 2:
			parent, child := repo.NavSection[0], repo.NavSection[1]
			if owned.Nested[parent] == nil {
				owned.Nested[parent] = make(map[string]struct{})
			}
			owned.Nested[parent][child] = struct{}{}
		}
	}
	return owned
}

// SectionLabel renders a nav section path for logs.
func (r Repository) SectionLabel() string {
	return strings.Join(r.NavSection, " / ")
}

package nav

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docsync/internal/config"
)

const siteFixture = `site_name: Nexlayer Docs # site title
repo_url: https://github.com/example/docs
theme:
  name: material
  features:
    - navigation.tabs
markdown_extensions:
  - pymdownx.emoji:
      emoji_generator: !!python/name:material.extensions.emoji.to_svg
nav:
  - Home: index.md
  - Docs:
      - Intro: docs/intro.md
      - Deployment:
          - Stale: deployment/stale.md
  - Guides:
      - Quickstart: guides/quickstart.md
  - API & SDK:
      - Stale: api-reference/stale.md
  - changelog.md
extra_css:
  - css/extra.css
`

type siteFixtureDirs struct {
	root string
	cfg  *config.Config
	path string
}

func newSite(t *testing.T, mkdocs string) siteFixtureDirs {
	t.Helper()
	root := t.TempDir()
	docs := filepath.Join(root, "docs")
	writeTree(t, docs, map[string]string{
		"deployment/readme.md":           "# Deployment",
		"deployment/deployment-guide.md": "# Guide",
		"api-reference/auth/tokens.md":   "# Tokens",
		"api-reference/overview.md":      "# Overview",
	})
	path := filepath.Join(root, "mkdocs.yml")
	require.NoError(t, os.WriteFile(path, []byte(mkdocs), 0o640))

	cfg := config.Default()
	cfg.Site.Config = path
	cfg.Site.DocsDir = docs
	cfg.Repositories[0].Destination = filepath.Join(docs, "deployment")
	cfg.Repositories[1].Destination = filepath.Join(docs, "api-reference")
	return siteFixtureDirs{root: root, cfg: cfg, path: path}
}

func rebuildAndSave(t *testing.T, site siteFixtureDirs) []byte {
	t.Helper()
	doc, err := LoadDocument(site.path)
	require.NoError(t, err)
	_, err = Rebuild(doc, site.cfg)
	require.NoError(t, err)
	require.NoError(t, doc.Save(site.path))
	requireNoTempFiles(t, filepath.Dir(site.path))
	out, err := os.ReadFile(site.path)
	require.NoError(t, err)
	return out
}

func requireNoTempFiles(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		require.False(t, strings.HasSuffix(e.Name(), ".tmp"), "temporary file left behind: %s", e.Name())
	}
}

func TestRebuild_ReplacesOwnedSections(t *testing.T) {
	site := newSite(t, siteFixture)
	rebuildAndSave(t, site)

	doc, err := LoadDocument(site.path)
	require.NoError(t, err)
	nodes, err := doc.Nav()
	require.NoError(t, err)

	titles := make([]string, 0, len(nodes))
	for _, n := range nodes {
		titles = append(titles, n.Title)
	}
	// Unrelated entries keep their positions; the single-level section moves to the end.
	require.Equal(t, []string{"Home", "Docs", "Guides", "", "API & SDK"}, titles)
	require.Equal(t, KindOther, nodes[3].Kind)

	docsSection := nodes[1]
	require.Len(t, docsSection.Children, 2)
	require.Equal(t, "Intro", docsSection.Children[0].Title)
	deployment := docsSection.Children[1]
	require.True(t, deployment.IsBranch("Deployment"))
	require.Equal(t, []Node{
		Leaf("Deployment guide", "deployment/deployment-guide.md"),
		Leaf("Readme", "deployment/readme.md"),
	}, stripRaw(deployment.Children))

	api := nodes[4]
	require.Equal(t, []Node{
		Leaf("Overview", "api-reference/overview.md"),
		Leaf("Tokens", "api-reference/auth/tokens.md"),
	}, stripRaw(api.Children))

	require.Equal(t, "Quickstart", nodes[2].Children[0].Title)
}

func TestRebuild_PreservesOtherKeys(t *testing.T) {
	site := newSite(t, siteFixture)
	out := string(rebuildAndSave(t, site))

	require.Contains(t, out, "# site title")
	require.Contains(t, out, "python/name:material.extensions.emoji.to_svg")
	require.Contains(t, out, "navigation.tabs")
	require.NotContains(t, out, "stale.md")

	// Key order is kept as authored.
	require.Less(t, strings.Index(out, "site_name:"), strings.Index(out, "repo_url:"))
	require.Less(t, strings.Index(out, "theme:"), strings.Index(out, "nav:"))
	require.Less(t, strings.Index(out, "nav:"), strings.Index(out, "extra_css:"))

	info, err := os.Stat(site.path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o640), info.Mode().Perm())
}

func TestRebuild_IsIdempotent(t *testing.T) {
	site := newSite(t, siteFixture)
	first := rebuildAndSave(t, site)
	second := rebuildAndSave(t, site)
	require.Equal(t, string(first), string(second))

	doc, err := LoadDocument(site.path)
	require.NoError(t, err)
	changed, err := doc.Changed()
	require.NoError(t, err)
	require.False(t, changed)
}

func TestRebuild_MissingDocsSectionWarnsAndSkips(t *testing.T) {
	site := newSite(t, "site_name: x\nnav:\n  - Home: index.md\n")
	out := string(rebuildAndSave(t, site))
	require.NotContains(t, out, "Deployment")
	require.Contains(t, out, "API & SDK")
}

func TestRebuild_MissingNavKeyIsAppended(t *testing.T) {
	site := newSite(t, "site_name: x\ntheme: material\n")
	site.cfg.Nav.MissingParent = config.MissingParentCreate
	out := string(rebuildAndSave(t, site))
	require.Less(t, strings.Index(out, "theme:"), strings.Index(out, "nav:"))
	require.Contains(t, out, "Deployment")
}

func TestDocument_Errors(t *testing.T) {
	_, err := ParseDocument([]byte("- a\n- b\n"))
	require.ErrorIs(t, err, ErrNotMapping)

	doc, err := ParseDocument([]byte("nav: index.md\n"))
	require.NoError(t, err)
	_, err = doc.Nav()
	require.ErrorIs(t, err, ErrNavNotSequence)

	doc, err = ParseDocument([]byte(""))
	require.NoError(t, err)
	nodes, err := doc.Nav()
	require.NoError(t, err)
	require.Empty(t, nodes)

	_, err = LoadDocument(filepath.Join(t.TempDir(), "missing.yml"))
	require.Error(t, err)
}

func TestDocument_SaveFailureRemovesTempFile(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "mkdocs.yml")
	// A directory in place of the file makes the final rename fail.
	require.NoError(t, os.Mkdir(target, 0o755))

	doc, err := ParseDocument([]byte("site_name: Docs\n"))
	require.NoError(t, err)
	require.Error(t, doc.Save(target))

	requireNoTempFiles(t, dir)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func stripRaw(nodes []Node) []Node {
	out := make([]Node, len(nodes))
	for i, n := range nodes {
		n.raw = nil
		if n.Children != nil {
			n.Children = stripRaw(n.Children)
		}
		out[i] = n
	}
	return out
}

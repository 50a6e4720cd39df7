package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/docsync/internal/foundation/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "docsync.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefault_MatchesBuiltInTable(t *testing.T) {
	cfg := Default()
	require.Len(t, cfg.Repositories, 2)
	require.Equal(t, []string{"Docs", "Deployment"}, cfg.Repositories[0].NavSection)
	require.Equal(t, "docs/deployment", cfg.Repositories[0].Destination)
	require.Equal(t, []string{"API & SDK"}, cfg.Repositories[1].NavSection)
	require.Equal(t, "mkdocs.yml", cfg.Site.Config)
	require.Equal(t, "docs", cfg.Site.DocsDir)
	require.Equal(t, MissingParentWarn, cfg.Nav.MissingParent)
	require.NoError(t, cfg.Validate())
}

func TestLoad_AppliesDefaultsAndExpandsEnv(t *testing.T) {
	t.Setenv("DOCSYNC_TEST_SRC", "/srv/child")
	path := writeConfig(t, `
repositories:
  - name: child
    source: ${DOCSYNC_TEST_SRC}
    destination: docs/child
    nav_section: ["Child"]
watch:
  interval: 5m
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/srv/child", cfg.Repositories[0].Source)
	require.Equal(t, "mkdocs.yml", cfg.Site.Config)
	require.Equal(t, 2*time.Second, cfg.Watch.Debounce)
	require.Equal(t, 5*time.Minute, cfg.Watch.Interval)
}

func TestLoad_ReadsEnvFileNextToConfig(t *testing.T) {
	const key = "DOCSYNC_TEST_ENVFILE_SOURCE"
	t.Cleanup(func() { _ = os.Unsetenv(key) })

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(key+"=/srv/from-env-file\n"), 0o600))
	path := filepath.Join(dir, "docsync.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
repositories:
  - name: child
    source: ${`+key+`}
    destination: docs/child
    nav_section: ["Child"]
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/srv/from-env-file", cfg.Repositories[0].Source)
}

func TestLoad_MissingExplicitFileIsConfigError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
}

func TestLoad_MissingDefaultFileFallsBackToBuiltIn(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(DefaultConfigFile)
	require.NoError(t, err)
	require.Len(t, cfg.Repositories, 2)
}

func TestLoad_NormalizesMissingParentPolicy(t *testing.T) {
	base := `
repositories:
  - name: child
    source: child
    destination: docs/child
    nav_section: ["Docs", "Child"]
nav:
  missing_parent: `

	cfg, err := Load(writeConfig(t, base+"\" FAIL \"\n"))
	require.NoError(t, err)
	require.Equal(t, MissingParentFail, cfg.Nav.MissingParent)

	_, err = Load(writeConfig(t, base+"explode\n"))
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation))
}

func TestValidate_NormalizesPolicySetInCode(t *testing.T) {
	cfg := Default()
	cfg.Nav.MissingParent = " Create "
	require.NoError(t, cfg.Validate())
	require.Equal(t, MissingParentCreate, cfg.Nav.MissingParent)

	cfg.Nav.MissingParent = ""
	require.NoError(t, cfg.Validate())
	require.Equal(t, MissingParentWarn, cfg.Nav.MissingParent)
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := writeConfig(t, "repositories: [\n")
	_, err := Load(path)
	require.Error(t, err)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg := &Config{Repositories: []Repository{{
			Name: "a", Source: "src-a", Destination: "docs/a", NavSection: []string{"A"},
		}}}
		cfg.applyDefaults()
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no repositories", func(c *Config) { c.Repositories = nil }},
		{"empty name", func(c *Config) { c.Repositories[0].Name = " " }},
		{"empty source", func(c *Config) { c.Repositories[0].Source = "" }},
		{"no nav segments", func(c *Config) { c.Repositories[0].NavSection = nil }},
		{"three nav segments", func(c *Config) { c.Repositories[0].NavSection = []string{"A", "B", "C"} }},
		{"blank nav segment", func(c *Config) { c.Repositories[0].NavSection = []string{"Docs", ""} }},
		{"destination is docs root", func(c *Config) { c.Repositories[0].Destination = "docs" }},
		{"destination outside docs root", func(c *Config) { c.Repositories[0].Destination = "site/a" }},
		{"destination inside source", func(c *Config) { c.Repositories[0].Source = "docs" }},
		{"bad policy", func(c *Config) { c.Nav.MissingParent = "ignore" }},
		{"duplicate name", func(c *Config) {
			c.Repositories = append(c.Repositories, Repository{Name: "a", Source: "src-b", Destination: "docs/b", NavSection: []string{"B"}})
		}},
		{"top-level section reused as parent", func(c *Config) {
			c.Repositories = append(c.Repositories, Repository{Name: "b", Source: "src-b", Destination: "docs/b", NavSection: []string{"A", "B"}})
		}},
		{"nested destinations", func(c *Config) {
			c.Repositories = append(c.Repositories, Repository{Name: "b", Source: "src-b", Destination: "docs/a/b", NavSection: []string{"B"}})
		}},
	}

	require.NoError(t, base().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			require.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation))
		})
	}
}

func TestOwnedSections(t *testing.T) {
	owned := Default().OwnedSections()
	require.True(t, owned.OwnsTopLevel("API & SDK"))
	require.False(t, owned.OwnsTopLevel("Docs"))
	require.True(t, owned.OwnsNested("Docs", "Deployment"))
	require.False(t, owned.OwnsNested("Docs", "Guides"))
	require.False(t, owned.OwnsNested("Guides", "Deployment"))
}

func TestInit_RefusesOverwriteWithoutForce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docsync.yaml")
	require.NoError(t, Init(path, false))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Len(t, cfg.Repositories, 2)
	require.Equal(t, ".docsync/history.db", cfg.History.Path)

	err = Init(path, false)
	require.Error(t, err)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryAlreadyExists))
	require.NoError(t, Init(path, true))
}

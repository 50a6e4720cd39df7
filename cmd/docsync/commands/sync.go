package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/docsync/internal/config"
)

// SuccessMessage is printed after a successful sync.
const SuccessMessage = "✅ Synced all child repos and updated mkdocs.yml."

// SyncCmd implements the 'sync' command.
type SyncCmd struct {
	SiteConfig string `name:"site-config" help:"Path to mkdocs.yml (overrides configuration)"`
	DocsDir    string `name:"docs-dir" help:"Site document root (overrides configuration)"`
}

func (s *SyncCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root.Config, s.SiteConfig, s.DocsDir)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	return RunSync(ctx, g, cfg)
}

// RunSync performs a single sync run and prints the confirmation message.
func RunSync(ctx context.Context, g *Global, cfg *config.Config) error {
	runner, closeRunner, err := newRunner(cfg)
	if err != nil {
		return err
	}
	defer closeRunner()

	if _, err := runner.Run(ctx); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(g.out(), SuccessMessage)
	return nil
}

// loadConfig loads the configuration and applies command-line site overrides.
func loadConfig(path, siteConfig, docsDir string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if siteConfig == "" && docsDir == "" {
		return cfg, nil
	}
	if siteConfig != "" {
		cfg.Site.Config = siteConfig
	}
	if docsDir != "" {
		cfg.Site.DocsDir = docsDir
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

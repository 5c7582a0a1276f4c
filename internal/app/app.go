package app

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/potluck/internal/api"
	"github.com/five82/potluck/internal/config"
	"github.com/five82/potluck/internal/lists"
	"github.com/five82/potluck/internal/notify"
	"github.com/five82/potluck/internal/prefs"
	"github.com/five82/potluck/internal/search"
	"github.com/five82/potluck/internal/ui"
)

// Options configure the potluck application.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/potluck/prefs.toml
	APIBind    string // overrides api_bind when set
}

// Env is the wired-up client shared by the TUI and the subcommands.
type Env struct {
	Config config.Config
	Prefs  prefs.Prefs
	Client *api.Client
	Bus    *notify.Bus
	Logger *log.Logger
}

// Setup loads configuration and builds the API client.
func Setup(opts Options) (*Env, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if opts.APIBind != "" {
		cfg.APIBind = opts.APIBind
	}

	client, err := api.NewClient(cfg.APIBind)
	if err != nil {
		return nil, fmt.Errorf("init api client: %w", err)
	}

	return &Env{
		Config: cfg,
		Prefs:  prefs.Load(opts.PrefsPath),
		Client: client,
		Bus:    &notify.Bus{},
		Logger: log.Default(),
	}, nil
}

// ListOptions derives screen options from the configuration.
func (e *Env) ListOptions() lists.Options {
	return lists.Options{
		PageSize:  e.Config.PageSize,
		Lookahead: e.Config.Lookahead,
		Bus:       e.Bus,
		Logger:    e.Logger,
		Window:    e.Config.SearchDebounce,
		History:   search.NewHistory(e.Config.SearchHistory),
	}
}

// Run boots the TUI until the user quits or the context is cancelled.
func Run(ctx context.Context, opts Options) error {
	env, err := Setup(opts)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(env.Config.LogFile), 0o755); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}
	logFile, err := tea.LogToFile(env.Config.LogFile, "potluck")
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()

	listOpts := env.ListOptions()
	feed := lists.NewFeed(env.Client, listOpts)
	defer feed.Close()
	results := lists.NewSearch(ctx, env.Client, listOpts, nil)
	defer results.Close()
	moderation := lists.NewModeration(env.Client, listOpts)
	defer moderation.Close()

	StartRefresher(ctx, feed, env.Config.RefreshInterval, nil)

	return ui.Run(ui.Options{
		Context:    ctx,
		Feed:       feed,
		Search:     results,
		Moderation: moderation,
		Prefs:      env.Prefs,
		PrefsPath:  opts.PrefsPath,
		APIBind:    env.Config.APIBind,
	})
}

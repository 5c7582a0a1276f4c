package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/five82/potluck/internal/app"
)

// App holds the global flags shared by every subcommand.
type App struct {
	ConfigPath string
	PrefsPath  string
	APIBind    string
}

func (a *App) options() app.Options {
	return app.Options{ConfigPath: a.ConfigPath, PrefsPath: a.PrefsPath, APIBind: a.APIBind}
}

func (a *App) env() (*app.Env, error) {
	return app.Setup(a.options())
}

// NewRootCmd builds the potluck command tree. Without a subcommand it
// starts the TUI.
func NewRootCmd() *cobra.Command {
	a := &App{}

	cmd := &cobra.Command{
		Use:          "potluck",
		Short:        "Terminal client for the potluck recipe community",
		SilenceUsage:  true,
		SilenceErrors: true,
		Example: strings.TrimSpace(`
  # Start the interactive TUI
  potluck

  # Print the first two pages of the feed
  potluck feed --pages 2

  # Hide a recipe
  potluck moderate --id r017 --status hidden

  # Run the local development API
  potluck devserver --addr 127.0.0.1:8088 --fail-every 5
`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Run(cmd.Context(), a.options())
		},
	}

	cmd.PersistentFlags().StringVar(&a.ConfigPath, "config", "", "Path to config.toml (default ~/.config/potluck/config.toml)")
	cmd.PersistentFlags().StringVar(&a.PrefsPath, "prefs", "", "Path to prefs.toml (default ~/.config/potluck/prefs.toml)")
	cmd.PersistentFlags().StringVar(&a.APIBind, "api", "", "API address, overrides api_bind")

	cmd.AddCommand(newFeedCmd(a))
	cmd.AddCommand(newSearchCmd(a))
	cmd.AddCommand(newModerateCmd(a))
	cmd.AddCommand(newLogsCmd(a))
	cmd.AddCommand(newDevServerCmd())

	return cmd
}

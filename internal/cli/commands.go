package cli

import (
	"fmt"
	"log"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/five82/potluck/internal/api"
	"github.com/five82/potluck/internal/app"
	"github.com/five82/potluck/internal/devserver"
)

func newFeedCmd(a *App) *cobra.Command {
	var pages int
	cmd := &cobra.Command{
		Use:   "feed",
		Short: "Print the recipe feed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := a.env()
			if err != nil {
				return err
			}
			return app.PrintFeed(cmd.Context(), env, cmd.OutOrStdout(), pages)
		},
	}
	cmd.Flags().IntVar(&pages, "pages", 1, "Number of pages to load")
	return cmd
}

func newSearchCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "search QUERY",
		Short: "Search recipes by title or summary",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := a.env()
			if err != nil {
				return err
			}
			return app.PrintSearch(cmd.Context(), env, cmd.OutOrStdout(), strings.Join(args, " "))
		},
	}
}

func newModerateCmd(a *App) *cobra.Command {
	var id, status string
	cmd := &cobra.Command{
		Use:   "moderate",
		Short: "Set the moderation status of a recipe",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			status = strings.ToLower(strings.TrimSpace(status))
			if !slices.Contains(api.ModerationStatuses, status) {
				return fmt.Errorf("--status must be one of %s", strings.Join(api.ModerationStatuses, ", "))
			}
			env, err := a.env()
			if err != nil {
				return err
			}
			return app.Moderate(cmd.Context(), env, cmd.OutOrStdout(), strings.TrimSpace(id), status)
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "Recipe id")
	cmd.Flags().StringVar(&status, "status", "", "New status (published|hidden|flagged)")
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("status")
	return cmd
}

func newLogsCmd(a *App) *cobra.Command {
	var (
		lines   int
		level   string
		noColor bool
	)
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the client log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := a.env()
			if err != nil {
				return err
			}
			return app.PrintLogs(env, cmd.OutOrStdout(), lines, level, !noColor)
		},
	}
	cmd.Flags().IntVar(&lines, "lines", 200, "Number of trailing lines to read (0 for all)")
	cmd.Flags().StringVar(&level, "level", "info", "Minimum level (debug|info|warn|error)")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	return cmd
}

func newDevServerCmd() *cobra.Command {
	var (
		addr    string
		recipes int
		opts    devserver.Options
	)
	cmd := &cobra.Command{
		Use:   "devserver",
		Short: "Run an in-memory API for local development",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Logger = log.New(cmd.ErrOrStderr(), "devserver ", log.LstdFlags)
			opts.Logger.Printf("listening on %s with %d recipes", addr, recipes)
			return app.ServeDev(cmd.Context(), addr, recipes, opts)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8088", "Listen address")
	cmd.Flags().IntVar(&recipes, "seed", 60, "Number of seeded recipes")
	cmd.Flags().IntVar(&opts.FailEvery, "fail-every", 0, "Reject every Nth write with 503 (0 disables)")
	cmd.Flags().DurationVar(&opts.Latency, "latency", 0, "Artificial delay per request")
	cmd.Flags().BoolVar(&opts.TerminalCursor, "terminal-cursor", false, "Send a cursor on the last page alongside has_more=false")
	return cmd
}

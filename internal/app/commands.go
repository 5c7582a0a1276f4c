package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/five82/potluck/internal/api"
	"github.com/five82/potluck/internal/devserver"
	"github.com/five82/potluck/internal/lists"
	"github.com/five82/potluck/internal/logtail"
	"github.com/five82/potluck/internal/search"
	"github.com/five82/potluck/internal/state"
)

// ErrNotFound is returned when a requested row is not in the list.
var ErrNotFound = errors.New("not found")

// PrintFeed writes up to pages pages of the feed to w.
func PrintFeed(ctx context.Context, env *Env, w io.Writer, pages int) error {
	if pages <= 0 {
		pages = 1
	}
	feed := lists.NewFeed(env.Client, env.ListOptions())
	defer feed.Close()

	if err := feed.LoadInitial(ctx); err != nil {
		return err
	}
	for i := 1; i < pages && feed.State().CanLoadMore(); i++ {
		if err := feed.LoadMore(ctx); err != nil {
			return err
		}
	}
	st := feed.State()
	_, err := fmt.Fprintln(w, recipeTable(st.Items))
	if err == nil && st.CanLoadMore() {
		_, err = fmt.Fprintf(w, "%d recipes shown, more available\n", len(st.Items))
	}
	return err
}

// PrintSearch runs one debounced search and writes the first page to w.
func PrintSearch(ctx context.Context, env *Env, w io.Writer, query string) error {
	done := make(chan state.ListState[api.Recipe], 1)
	opts := env.ListOptions()
	results := lists.NewSearch(ctx, env.Client, opts, func(_ search.Session, st state.ListState[api.Recipe]) {
		select {
		case done <- st:
		default:
		}
	})
	defer results.Close()

	results.SetQuery(query)
	select {
	case <-ctx.Done():
		return ctx.Err()
	case st := <-done:
		if st.Err != nil {
			return st.Err
		}
		if len(st.Items) == 0 {
			_, err := fmt.Fprintf(w, "no recipes match %q\n", query)
			return err
		}
		_, err := fmt.Fprintln(w, recipeTable(st.Items))
		return err
	}
}

// Moderate sets the moderation status of one recipe through the bulk edit
// table, paging through the admin list until the recipe is found.
func Moderate(ctx context.Context, env *Env, w io.Writer, id, status string) error {
	mod := lists.NewModeration(env.Client, env.ListOptions())
	defer mod.Close()

	if err := mod.LoadInitial(ctx); err != nil {
		return err
	}
	for {
		if _, ok := mod.Value(id); ok {
			break
		}
		if !mod.State().CanLoadMore() {
			return fmt.Errorf("recipe %s: %w", id, ErrNotFound)
		}
		if err := mod.LoadMore(ctx); err != nil {
			return err
		}
	}

	if err := mod.Set(id, status); err != nil {
		return err
	}
	if mod.PendingCount() == 0 {
		_, err := fmt.Fprintf(w, "%s already %s\n", id, status)
		return err
	}
	if _, err := mod.Save(ctx); err != nil {
		return err
	}
	stored, _ := mod.Value(id)
	_, err := fmt.Fprintf(w, "%s is now %s\n", id, stored)
	return err
}

// PrintLogs writes the tail of the client log to w, keeping lines at or
// above level.
func PrintLogs(env *Env, w io.Writer, lines int, level string, color bool) error {
	threshold, err := logtail.ParseLevel(level)
	if err != nil {
		return err
	}
	tail, err := logtail.Read(env.Config.LogFile, lines)
	if err != nil {
		return err
	}
	for _, line := range logtail.Filter(tail, threshold) {
		if color {
			line = logtail.Colorize(line)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// ServeDev runs the in-memory API on addr until ctx is cancelled.
func ServeDev(ctx context.Context, addr string, recipes int, opts devserver.Options) error {
	if recipes <= 0 {
		recipes = 60
	}
	return devserver.New(devserver.Seed(recipes), opts).ListenAndServe(ctx, addr)
}

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

func recipeTable(recipes []api.Recipe) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "TITLE", "AUTHOR", "LIKES", "SAVED", "STATUS").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	for _, r := range recipes {
		saved := ""
		if r.IsSaved {
			saved = "yes"
		}
		t.Row(r.ID, r.Title, r.Author.Label(), strconv.Itoa(r.LikeCount), saved, r.Status)
	}
	return t.String()
}

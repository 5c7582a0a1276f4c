// Package ui implements the potluck terminal interface with Bubble Tea.
//
// The model has three tabs: the recipe feed, debounced search and the
// moderation table. It never owns list data. Each tick re-reads snapshots
// from the lists package, so paging, optimistic toggles and bulk edits all
// run through the same code paths as the command-line subcommands.
//
// Blocking work (loads, toggles, saves) runs in tea.Cmds and reports back
// with a message; the model only records the outcome in the status bar.
// Search keystrokes go straight to the debouncer, which decides when a
// request is sent and which response wins.
//
// Themes follow the palettes in theme.go and are persisted to prefs.toml
// when cycled with T.
package ui

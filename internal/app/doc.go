// Package app wires configuration, the API client and the list screens
// together.
//
// Run is the composition root for the TUI: it loads config.toml and
// prefs.toml, redirects the standard logger into the log file, builds the
// feed, search and moderation screens over one shared notify.Bus, starts
// the background feed refresher and hands control to the ui package.
//
// The same Env backs the one-shot subcommands (PrintFeed, PrintSearch,
// Moderate, PrintLogs) so they exercise exactly the paging, debouncing and
// bulk-edit paths the TUI uses. ServeDev runs the in-memory development API.
//
// The refresher reloads the feed on a fixed interval. Failed refreshes back
// off exponentially up to five minutes; a refresh that overlaps an
// in-flight load is skipped, and a closed feed stops the loop.
package app

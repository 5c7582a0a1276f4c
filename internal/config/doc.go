// Package config loads the potluck client configuration.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/potluck/config.toml
//  3. If the file doesn't exist, fall back to defaults
//  4. If the file exists but fields are missing, empty or not positive, use
//     defaults for those fields
//
// # TOML Format
//
//	api_bind = "127.0.0.1:8088"
//	page_size = 20
//	lookahead = 3
//	search_debounce_ms = 300
//	search_history = 10
//	refresh_interval_s = 60
//	log_file = "~/.local/state/potluck/potluck.log"
//
// Every field is optional. Tilde expansion is applied to log_file.
//
// # Error Handling
//
// Load returns errors for path expansion failures, read errors other than
// os.ErrNotExist, and TOML parse errors (wrapped as "parse config: ...").
// A missing config file is not an error.
package config

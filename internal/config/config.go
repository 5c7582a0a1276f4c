package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds the client settings.
type Config struct {
	APIBind         string
	PageSize        int
	Lookahead       int
	SearchDebounce  time.Duration
	SearchHistory   int
	RefreshInterval time.Duration
	LogFile         string
}

const (
	defaultConfigPath      = "~/.config/potluck/config.toml"
	defaultAPIBind         = "127.0.0.1:8088"
	defaultPageSize        = 20
	defaultLookahead       = 3
	defaultSearchDebounce  = 300 * time.Millisecond
	defaultSearchHistory   = 10
	defaultRefreshInterval = 60 * time.Second
	defaultLogFile         = "~/.local/state/potluck/potluck.log"
)

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		APIBind:         defaultAPIBind,
		PageSize:        defaultPageSize,
		Lookahead:       defaultLookahead,
		SearchDebounce:  defaultSearchDebounce,
		SearchHistory:   defaultSearchHistory,
		RefreshInterval: defaultRefreshInterval,
		LogFile:         mustExpand(defaultLogFile),
	}
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	return defaultConfigPath
}

// Load locates and parses the config, falling back to defaults when missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		APIBind          string `toml:"api_bind"`
		PageSize         int    `toml:"page_size"`
		Lookahead        int    `toml:"lookahead"`
		SearchDebounceMS int    `toml:"search_debounce_ms"`
		SearchHistory    int    `toml:"search_history"`
		RefreshIntervalS int    `toml:"refresh_interval_s"`
		LogFile          string `toml:"log_file"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if v := strings.TrimSpace(raw.APIBind); v != "" {
		cfg.APIBind = v
	}
	if raw.PageSize > 0 {
		cfg.PageSize = raw.PageSize
	}
	if raw.Lookahead > 0 {
		cfg.Lookahead = raw.Lookahead
	}
	if raw.SearchDebounceMS > 0 {
		cfg.SearchDebounce = time.Duration(raw.SearchDebounceMS) * time.Millisecond
	}
	if raw.SearchHistory > 0 {
		cfg.SearchHistory = raw.SearchHistory
	}
	if raw.RefreshIntervalS > 0 {
		cfg.RefreshInterval = time.Duration(raw.RefreshIntervalS) * time.Second
	}
	if v := strings.TrimSpace(raw.LogFile); v != "" {
		cfg.LogFile = mustExpand(v)
	}

	return cfg, nil
}

// LogDir returns the directory holding the log file.
func (c Config) LogDir() string {
	if strings.TrimSpace(c.LogFile) == "" {
		return filepath.Dir(mustExpand(defaultLogFile))
	}
	return filepath.Dir(c.LogFile)
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}

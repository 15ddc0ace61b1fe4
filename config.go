package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// WindowConfig holds window geometry and chrome preferences.
type WindowConfig struct {
	Width                  int     `mapstructure:"width" json:"width,omitempty"`
	Height                 int     `mapstructure:"height" json:"height,omitempty"`
	Zoom                   float64 `mapstructure:"zoom" json:"zoom,omitempty"`
	AutoHideMenuBar        bool    `mapstructure:"auto_hide_menu_bar" json:"auto_hide_menu_bar,omitempty"`
	VisibleOnAllWorkspaces bool    `mapstructure:"visible_on_all_workspaces" json:"visible_on_all_workspaces,omitempty"`
}

// Config is the app configuration read from config.json. The core treats it
// as immutable input for one run; editing happens externally via OpenConfig.
type Config struct {
	DefaultAccount string   `mapstructure:"default_account" json:"default_account,omitempty"`
	OtherAccounts  []string `mapstructure:"other_accounts" json:"other_accounts,omitempty"`
	// Keymaps maps menu item names to accelerators. An explicit null disables
	// the default accelerator for that item.
	Keymaps     map[string]*string `mapstructure:"keymaps" json:"keymaps,omitempty"`
	AfterTweet  string             `mapstructure:"after_tweet" json:"after_tweet,omitempty"`
	HotKey      string             `mapstructure:"hotkey" json:"hotkey,omitempty"`
	QuitOnClose bool               `mapstructure:"quit_on_close" json:"quit_on_close,omitempty"`
	Window      WindowConfig       `mapstructure:"window" json:"window,omitempty"`
}

// configDir returns the platform config directory for tweetgo.
func configDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir, _ = os.UserHomeDir()
	}
	return filepath.Join(dir, "tweetgo")
}

// ConfigFilePath returns the full path to config.json.
func ConfigFilePath() string {
	return filepath.Join(configDir(), "config.json")
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		Window: WindowConfig{Width: 600, Height: 600, Zoom: 1.0},
	}
}

// LoadConfig reads config.json. A missing file yields defaults; an unparsable
// file is a hard error surfaced by the top-level handler.
func LoadConfig(path string, log zerolog.Logger) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		log.Info().Str("path", path).Msg("no config file; using defaults")
		return DefaultConfig(), nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("cannot read config file %s: %w", path, err)
	}

	config := DefaultConfig()
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("cannot parse config file %s: %w", path, err)
	}

	// Viper lowercases map keys, so keymap names are normalized and matched
	// case-insensitively.
	if len(config.Keymaps) > 0 {
		normalized := make(map[string]*string, len(config.Keymaps))
		for name, accelerator := range config.Keymaps {
			normalized[strings.ToLower(name)] = accelerator
		}
		config.Keymaps = normalized
	}

	// Zero geometry falls back to defaults so a partial window section is
	// still usable.
	if config.Window.Width <= 0 {
		config.Window.Width = 600
	}
	if config.Window.Height <= 0 {
		config.Window.Height = 600
	}
	if config.Window.Zoom <= 0 {
		config.Window.Zoom = 1.0
	}

	log.Info().Str("path", path).Str("default_account", config.DefaultAccount).Msg("config loaded")
	return config, nil
}

// OpenConfig opens the config file for editing, creating it with defaults
// first when missing so the editor has something to show.
func OpenConfig(platform Platform, log zerolog.Logger) error {
	path := ConfigFilePath()
	if _, err := os.Stat(path); err != nil {
		if err := os.MkdirAll(configDir(), 0o755); err != nil {
			return fmt.Errorf("cannot create config directory: %w", err)
		}
		data, err := json.MarshalIndent(DefaultConfig(), "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
			return fmt.Errorf("cannot write default config: %w", err)
		}
		log.Info().Str("path", path).Msg("wrote default config file")
	}
	return platform.OpenItem(path)
}

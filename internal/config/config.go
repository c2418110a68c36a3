// Package config loads daybook settings from .env, a YAML file and DAYBOOK_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/vthunder/daybook/internal/logging"
	"github.com/vthunder/daybook/internal/store"
)

const envPrefix = "DAYBOOK"

// Config is the full daybook configuration
type Config struct {
	StatePath   string      `yaml:"state_path" mapstructure:"state_path"`
	Store       StoreConfig `yaml:"store" mapstructure:"store"`
	Timezone    string      `yaml:"timezone" mapstructure:"timezone"`
	Theme       string      `yaml:"theme" mapstructure:"theme"`
	ActivityLog bool        `yaml:"activity_log" mapstructure:"activity_log"`
	Debug       bool        `yaml:"debug" mapstructure:"debug"`

	// File is the config file that was read, empty when none was found
	File string `yaml:"-" mapstructure:"-"`
}

// StoreConfig selects the persistence backend
type StoreConfig struct {
	Backend string `yaml:"backend" mapstructure:"backend"`
	Path    string `yaml:"path" mapstructure:"path"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		StatePath:   "state",
		Store:       StoreConfig{Backend: store.BackendSQLite},
		Timezone:    "UTC",
		ActivityLog: true,
	}
}

// Load reads configuration. path names an explicit config file; when empty
// the first of $DAYBOOK_CONFIG, <state>/config.yaml and
// ~/.config/daybook/config.yaml that exists is used. A missing .env or config
// file is not an error.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logging.Warn("config", "failed to read .env: %v", err)
	}

	def := DefaultConfig()
	v := viper.New()
	v.SetDefault("state_path", def.StatePath)
	v.SetDefault("store.backend", def.Store.Backend)
	v.SetDefault("store.path", "")
	v.SetDefault("timezone", def.Timezone)
	v.SetDefault("theme", "")
	v.SetDefault("activity_log", def.ActivityLog)
	v.SetDefault("debug", false)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	file := findConfigFile(path, v.GetString("state_path"))
	if file != "" {
		v.SetConfigFile(file)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", file, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.File = file
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func findConfigFile(explicit, statePath string) string {
	if explicit != "" {
		return explicit
	}
	candidates := []string{os.Getenv(envPrefix + "_CONFIG"), filepath.Join(statePath, "config.yaml")}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".config", "daybook", "config.yaml"))
	}
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return ""
}

func (c *Config) normalize() error {
	if c.StatePath == "" {
		c.StatePath = "state"
	}
	c.Store.Backend = strings.ToLower(strings.TrimSpace(c.Store.Backend))
	if c.Store.Backend == "" {
		c.Store.Backend = store.BackendSQLite
	}
	switch c.Store.Backend {
	case store.BackendSQLite, store.BackendSQLite3, store.BackendFile, store.BackendMemory:
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	if c.Store.Path == "" {
		c.Store.Path = store.DefaultPath(c.Store.Backend, c.StatePath)
	}

	c.Theme = strings.ToLower(strings.TrimSpace(c.Theme))
	switch c.Theme {
	case "", ThemeDark, ThemeLight:
	default:
		return fmt.Errorf("theme must be dark or light, got %q", c.Theme)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves the configured timezone
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// StoreOptions converts the store section for store.Open
func (c *Config) StoreOptions() store.Options {
	return store.Options{Backend: c.Store.Backend, Path: c.Store.Path}
}

const (
	ThemeDark  = "dark"
	ThemeLight = "light"
)

// ResolveTheme picks the theme: the stored preference, then the configured
// one, then the terminal background hint, then light.
func ResolveTheme(stored, configured, colorFgBg string) string {
	for _, t := range []string{stored, configured} {
		if t == ThemeDark || t == ThemeLight {
			return t
		}
	}
	if t := TerminalTheme(colorFgBg); t != "" {
		return t
	}
	return ThemeLight
}

// TerminalTheme reads a COLORFGBG value ("15;0") and reports dark for the
// low ANSI background colours, light for the others, and "" when unset or
// unreadable.
func TerminalTheme(colorFgBg string) string {
	if colorFgBg == "" {
		return ""
	}
	parts := strings.Split(colorFgBg, ";")
	bg, err := strconv.Atoi(parts[len(parts)-1])
	if err != nil {
		return ""
	}
	if bg <= 6 || bg == 8 {
		return ThemeDark
	}
	return ThemeLight
}

// Package config loads the revise configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sokinpui/revise/internal/differ"
)

const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
	DriverBadger = "badger"
)

type Config struct {
	Server ServerConfig `yaml:"server"`
	Store  StoreConfig  `yaml:"store"`
	Limits LimitsConfig `yaml:"limits"`
	Log    LogConfig    `yaml:"log"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// StoreConfig selects the version history backend. Path is a database file
// for sqlite and a directory for badger; an empty badger path keeps the
// history in memory.
type StoreConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
}

type LimitsConfig struct {
	MaxLines      int           `yaml:"max_lines"`
	MaxCells      int           `yaml:"max_cells"`
	MaxLineLength int           `yaml:"max_line_length"`
	CharTimeout   time.Duration `yaml:"char_timeout"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Default() Config {
	l := differ.DefaultLimits()
	return Config{
		Server: ServerConfig{Addr: "127.0.0.1:8765"},
		Store:  StoreConfig{Driver: DriverSQLite, Path: defaultStorePath()},
		Limits: LimitsConfig{
			MaxLines:      l.MaxLines,
			MaxCells:      l.MaxCells,
			MaxLineLength: l.MaxLineLength,
			CharTimeout:   l.CharTimeout,
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

// Dir is the directory holding the config file and the default database.
func Dir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "revise")
	}
	return ".revise"
}

// DefaultPath is where Load looks when no path is given.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

func defaultStorePath() string {
	return filepath.Join(Dir(), "history.db")
}

// Load reads the file at path over the defaults. With an empty path the
// default location is tried, and a missing default file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Store.Driver {
	case DriverMemory, DriverBadger:
	case DriverSQLite:
		if c.Store.Path == "" {
			return errors.New("store.path is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("unknown store.driver %q", c.Store.Driver)
	}
	if c.Limits.MaxLines < 0 || c.Limits.MaxCells < 0 || c.Limits.MaxLineLength < 0 || c.Limits.CharTimeout < 0 {
		return errors.New("limits must not be negative")
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("unknown log.format %q", c.Log.Format)
	}
	return nil
}

// DiffLimits converts the limits section; zero values fall back to the
// differ defaults.
func (c Config) DiffLimits() differ.Limits {
	return differ.Limits{
		MaxLines:      c.Limits.MaxLines,
		MaxCells:      c.Limits.MaxCells,
		MaxLineLength: c.Limits.MaxLineLength,
		CharTimeout:   c.Limits.CharTimeout,
	}
}

// Write saves the config as YAML, creating the parent directory.
func Write(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

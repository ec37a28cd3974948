package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/jward/moniker/internal/binder"
	"github.com/jward/moniker/internal/logging"
)

// FileName is the config file looked up in the working directory.
const FileName = ".moniker.toml"

// Strategy names accepted in configuration. "all" prints every strategy.
const (
	StrategyExportPath = "export-path"
	StrategyHash       = "hash"
	StrategyAll        = "all"
)

// Config is the on-disk configuration.
type Config struct {
	// RootDir is the directory file scopes are named relative to.
	RootDir      string    `toml:"root_dir"`
	Database     string    `toml:"database"`
	Strategy     string    `toml:"strategy"`
	Languages    []string  `toml:"languages"`
	Parallel     bool      `toml:"parallel"`
	NamingScript string    `toml:"naming_script"`
	Log          LogConfig `toml:"log"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `toml:"level"`
	JSON  bool   `toml:"json"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		RootDir:  ".",
		Database: ".moniker/index.db",
		Strategy: StrategyAll,
		Parallel: true,
		Log:      LogConfig{Level: "warn"},
	}
}

// Load reads path over the defaults. Relative paths in the file are made
// relative to the file's directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("parse config file: unknown key %q", undecoded[0].String())
	}

	dir := filepath.Dir(path)
	cfg.RootDir = relativeTo(dir, cfg.RootDir)
	cfg.Database = relativeTo(dir, cfg.Database)
	if cfg.NamingScript != "" {
		cfg.NamingScript = relativeTo(dir, cfg.NamingScript)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadOrDefault loads path when it exists. A missing file yields the
// defaults; an unreadable or invalid one is an error.
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return Load(path)
}

func relativeTo(dir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	switch c.Strategy {
	case StrategyExportPath, StrategyHash, StrategyAll:
	default:
		return fmt.Errorf("strategy %q: must be %s, %s or %s", c.Strategy, StrategyExportPath, StrategyHash, StrategyAll)
	}
	if c.Database == "" {
		return fmt.Errorf("database is required")
	}
	if c.RootDir == "" {
		return fmt.Errorf("root_dir is required")
	}
	for _, lang := range c.Languages {
		if _, ok := binder.GrammarForLanguage(lang); !ok {
			return fmt.Errorf("unsupported language %q", lang)
		}
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// LogFormat returns the logging format selected by the config.
func (c *Config) LogFormat() logging.Format {
	if c.Log.JSON {
		return logging.JSONFormat
	}
	return logging.HumanFormat
}

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/jward/moniker"
	"github.com/jward/moniker/internal/config"
	"github.com/jward/moniker/internal/logging"
	"github.com/jward/moniker/scripts"
)

var (
	flagDB       string
	flagFormat   string
	flagConfig   string
	flagLogLevel string
)

// Loaded by the root command before any subcommand runs.
var (
	cfg      *config.Config
	logger   hclog.Logger
	repoRoot string
)

// errorHandled is set by outputError so main() doesn't double-print.
var errorHandled bool

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errorHandled {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "moniker",
	Short:         "Stable identifiers for TypeScript and JavaScript symbols",
	Long:          "Moniker indexes TypeScript and JavaScript sources with tree-sitter, resolves the program, and prints position-independent symbol identifiers.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := validateFormat(flagFormat); err != nil {
			return err
		}
		return loadSettings()
	},
	// No Run: prints help by default.
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "database path (default: database from config, relative to repo root)")
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "json", "output format: json|text")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default: .moniker.toml at repo root)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level: trace|debug|info|warn|error|off")

	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(atCmd)
	rootCmd.AddCommand(symbolsCmd)
}

// loadSettings reads the config file and builds the logger. Flags override
// config values.
func loadSettings() error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting cwd: %w", err)
	}
	repoRoot = findRepoRoot(cwd)

	if flagConfig != "" {
		cfg, err = config.Load(flagConfig)
	} else {
		cfg, err = config.LoadOrDefault(filepath.Join(repoRoot, config.FileName))
	}
	if err != nil {
		return err
	}

	level := cfg.Log.Level
	if flagLogLevel != "" {
		level = flagLogLevel
	}
	logger, err = logging.New(logging.Config{Format: cfg.LogFormat(), Level: level, Output: os.Stderr})
	return err
}

// findRepoRoot walks up from startDir looking for a .git directory.
// Returns the directory containing .git, or startDir if not found.
func findRepoRoot(startDir string) string {
	dir := startDir
	for {
		if info, err := os.Stat(filepath.Join(dir, ".git")); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root without finding .git.
			return startDir
		}
		dir = parent
	}
}

// resolveDBPath returns the database path from the --db flag or the config.
func resolveDBPath(repoRoot string) string {
	db := cfg.Database
	if flagDB != "" {
		db = flagDB
	}
	if filepath.IsAbs(db) {
		return db
	}
	return filepath.Join(repoRoot, db)
}

// resolveRootDir returns the absolute directory file scopes are named from.
func resolveRootDir(override string) string {
	root := cfg.RootDir
	if override != "" {
		root = override
	}
	if filepath.IsAbs(root) {
		return root
	}
	return filepath.Join(repoRoot, root)
}

// embeddedPrefix selects a bundled naming script.
const embeddedPrefix = "embedded:"

// engineOptions builds the options shared by every command.
func engineOptions(namingScript string, languages []string, parallel bool) []moniker.Option {
	opts := []moniker.Option{
		moniker.WithLogger(logger),
		moniker.WithParallel(parallel),
	}
	if len(languages) > 0 {
		opts = append(opts, moniker.WithLanguages(languages...))
	}
	switch {
	case strings.HasPrefix(namingScript, embeddedPrefix):
		name := strings.TrimPrefix(namingScript, embeddedPrefix)
		opts = append(opts, moniker.WithScriptsFS(scripts.FS), moniker.WithNamingScript(scripts.Path(name)))
	case namingScript != "":
		opts = append(opts, moniker.WithNamingScript(namingScript))
	}
	return opts
}

// splitList splits a comma-separated flag value, trimming blanks.
func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

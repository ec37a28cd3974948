package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/jward/moniker"
)

var (
	flagForce     bool
	flagLanguages string
	flagParallel  bool
)

var indexCmd = &cobra.Command{
	Use:   "index [path]",
	Short: "Index a repository for moniker computation",
	Long:  "Parses source files with tree-sitter, extracts and resolves symbols, and writes results to the SQLite database.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runIndex,
}

func init() {
	indexCmd.Flags().BoolVar(&flagForce, "force", false, "delete database and reindex from scratch")
	indexCmd.Flags().StringVar(&flagLanguages, "languages", "", "comma-separated language filter (e.g. typescript,javascript)")
	indexCmd.Flags().BoolVar(&flagParallel, "parallel", true, "extract files on a worker pool")
}

func runIndex(cmd *cobra.Command, args []string) error {
	start := time.Now()

	targetDir, err := resolveTargetDir(args)
	if err != nil {
		return err
	}

	dbPath := resolveDBPath(findRepoRoot(targetDir))
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(dbPath), err)
	}

	// Handle --force: delete the DB file entirely.
	if flagForce {
		if err := removeDB(dbPath); err != nil {
			return fmt.Errorf("removing database for --force: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Cleared database: %s\n", dbPath)
	}

	languages := cfg.Languages
	if cmd.Flags().Changed("languages") {
		languages = splitList(flagLanguages)
	}
	parallel := cfg.Parallel
	if cmd.Flags().Changed("parallel") {
		parallel = flagParallel
	}
	opts := engineOptions("", languages, parallel)

	engine, err := moniker.New(dbPath, opts...)
	if err != nil {
		return fmt.Errorf("creating engine: %w", err)
	}

	// An index from another binder version cannot be updated in place.
	if !flagForce && engine.NeedsReindex() {
		logger.Info("index built by a different binder version, rebuilding", "db", dbPath)
		engine.Close()
		if err := removeDB(dbPath); err != nil {
			return fmt.Errorf("removing stale database: %w", err)
		}
		if engine, err = moniker.New(dbPath, opts...); err != nil {
			return fmt.Errorf("creating engine: %w", err)
		}
	}
	defer engine.Close()

	ctx := context.Background()

	extractStart := time.Now()
	if err := engine.IndexDirectory(ctx, targetDir); err != nil {
		return fmt.Errorf("indexing: %w", err)
	}
	extractDuration := time.Since(extractStart)

	resolveStart := time.Now()
	if err := engine.Resolve(ctx); err != nil {
		return fmt.Errorf("resolving: %w", err)
	}
	resolveDuration := time.Since(resolveStart)

	fmt.Fprintf(os.Stderr, "Indexed %s in %s (extract: %s, resolve: %s)\n",
		targetDir,
		time.Since(start).Round(time.Millisecond),
		extractDuration.Round(time.Millisecond),
		resolveDuration.Round(time.Millisecond),
	)
	fmt.Fprintf(os.Stderr, "Database: %s\n", dbPath)

	return nil
}

// removeDB deletes the database and its SQLite side files.
func removeDB(dbPath string) error {
	for _, p := range []string{dbPath, dbPath + "-wal", dbPath + "-shm"} {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

// resolveTargetDir returns the absolute path of the directory to index.
func resolveTargetDir(args []string) (string, error) {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving path %q: %w", dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("directory not found: %s", abs)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("not a directory: %s", abs)
	}
	return abs, nil
}

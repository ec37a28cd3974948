package moniker

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"

	"github.com/jward/moniker/internal/binder"
	"github.com/jward/moniker/internal/runtime"
	"github.com/jward/moniker/internal/store"
)

// binderVersionKey is the metadata key holding the binder version that
// produced the index.
const binderVersionKey = "binder_version"

// Engine orchestrates the indexing pipeline: file discovery, change
// detection, extraction, resolution and program loading.
type Engine struct {
	store     *store.Store
	logger    hclog.Logger
	languages map[string]bool // nil means all languages

	// changed accumulates file IDs indexed or removed since the last
	// resolution. nil means "resolve everything" (first run).
	changed map[int64]bool

	// useParallel enables the parallel extraction pipeline.
	useParallel bool

	namingScript string
	scriptsFS    fs.FS
}

// Option configures an Engine.
type Option func(*Engine)

// WithLanguages restricts which languages the Engine will process.
func WithLanguages(languages ...string) Option {
	return func(e *Engine) {
		e.languages = make(map[string]bool, len(languages))
		for _, lang := range languages {
			e.languages[lang] = true
		}
	}
}

// WithParallel controls parallel extraction. When true (default), IndexFiles
// extracts on a worker pool, with a single goroutine committing batches to
// SQLite. Set to false for serial mode.
func WithParallel(parallel bool) Option {
	return func(e *Engine) {
		e.useParallel = parallel
	}
}

// WithLogger sets the Engine's logger. The default discards everything.
func WithLogger(logger hclog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithNamingScript configures a Risor script that names file scopes for
// the export-path strategy.
func WithNamingScript(path string) Option {
	return func(e *Engine) {
		e.namingScript = path
	}
}

// WithScriptsFS loads the naming script from fsys instead of from disk.
// This enables embedding scripts via go:embed.
func WithScriptsFS(fsys fs.FS) Option {
	return func(e *Engine) {
		e.scriptsFS = fsys
	}
}

// New creates an Engine backed by a SQLite database at dbPath.
func New(dbPath string, opts ...Option) (*Engine, error) {
	s, err := store.NewStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("moniker: create store: %w", err)
	}
	if err := s.Migrate(); err != nil {
		s.Close()
		return nil, fmt.Errorf("moniker: migrate: %w", err)
	}

	e := &Engine{
		store:       s,
		logger:      hclog.NewNullLogger(),
		useParallel: true, // default to parallel extraction
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Close releases the Engine's database resources.
func (e *Engine) Close() error {
	return e.store.Close()
}

// Store returns the underlying Store for direct access.
func (e *Engine) Store() *Store {
	return e.store
}

// NeedsReindex reports whether the index was built by a different binder
// version, or holds files that were never resolved. An empty database
// never needs it. When true, the caller should delete the DB and reindex
// from scratch.
func (e *Engine) NeedsReindex() bool {
	stored, err := e.store.GetMetadata(binderVersionKey)
	if err != nil {
		return true
	}
	if stored == "" {
		var hasFiles bool
		if err := e.store.DB().QueryRow("SELECT EXISTS(SELECT 1 FROM files)").Scan(&hasFiles); err != nil {
			return true
		}
		return hasFiles
	}
	return stored != binder.Version
}

func (e *Engine) markChanged(fileID int64) {
	if e.changed == nil {
		e.changed = make(map[int64]bool)
	}
	e.changed[fileID] = true
}

// IndexFiles indexes the given file paths. When WithParallel is enabled,
// extraction runs on a worker pool with batched SQLite writes. Otherwise
// files are extracted one at a time.
//
// For each file:
// 1. Detect language from extension
// 2. Skip unsupported or filtered-out languages
// 3. Skip unchanged files (same content hash)
// 4. Delete stale data, insert the file record
// 5. Extract symbols, scopes and references
//
// Errors on individual files are collected; processing continues.
func (e *Engine) IndexFiles(ctx context.Context, paths []string) error {
	// Initialize so Resolve can distinguish "no changes" (non-nil empty
	// map) from "first run" (nil).
	if e.changed == nil {
		e.changed = make(map[int64]bool)
	}
	if e.useParallel {
		return e.IndexFilesParallel(ctx, paths)
	}
	return e.indexFilesSerial(ctx, paths)
}

func (e *Engine) indexFilesSerial(ctx context.Context, paths []string) error {
	var errs *multierror.Error
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := e.indexFile(ctx, path); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("index %s: %w", path, err))
		}
	}
	return errs.ErrorOrNil()
}

func (e *Engine) indexFile(ctx context.Context, path string) error {
	item, skip, err := e.prepareFile(path)
	if err != nil || skip {
		return err
	}
	if err := binder.Extract(ctx, e.store, item.fileID, item.path, item.src, item.lang); err != nil {
		e.discard(item)
		return err
	}
	e.logger.Debug("indexed file", "path", path, "language", item.lang)
	return nil
}

// prepareFile does the serial work for a single file: language filter, hash
// check, cleanup and file record. Returns (item, skip, error). skip=true
// means the file is unchanged or unsupported.
func (e *Engine) prepareFile(path string) (workItem, bool, error) {
	lang, ok := binder.LanguageForFile(path)
	if !ok {
		return workItem{}, true, nil
	}
	if e.languages != nil && !e.languages[lang] {
		return workItem{}, true, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return workItem{}, false, fmt.Errorf("read file: %w", err)
	}
	hash := fmt.Sprintf("%x", sha256.Sum256(content))

	existing, err := e.store.FileByPath(path)
	if err != nil {
		return workItem{}, false, fmt.Errorf("lookup file: %w", err)
	}
	if existing != nil && existing.Hash == hash {
		return workItem{}, true, nil // unchanged
	}

	if existing != nil {
		if err := e.store.RemoveFile(existing.ID); err != nil {
			return workItem{}, false, fmt.Errorf("delete old data: %w", err)
		}
		e.markChanged(existing.ID)
	}

	fileID, err := e.store.InsertFile(&store.File{
		Path:        path,
		Language:    lang,
		Hash:        hash,
		LastIndexed: time.Now(),
	})
	if err != nil {
		return workItem{}, false, fmt.Errorf("insert file: %w", err)
	}
	e.markChanged(fileID)

	return workItem{path: path, lang: lang, fileID: fileID, src: content}, false, nil
}

// discard removes the record of a file whose extraction failed, so the next
// run retries it instead of trusting its hash.
func (e *Engine) discard(item workItem) {
	if err := e.store.RemoveFile(item.fileID); err != nil {
		e.logger.Warn("failed to discard file record", "path", item.path, "error", err)
	}
}

// skipDirs lists directories that are excluded from indexing.
var skipDirs = map[string]bool{
	"node_modules": true,
	"vendor":       true,
	"__pycache__":  true,
}

// IndexDirectory indexes all files with supported extensions under root.
// If root is inside a git repository, uses git ls-files to respect
// .gitignore. Falls back to a filesystem walk (skipping hidden dirs,
// node_modules, vendor, __pycache__) if git is unavailable. Indexed files
// under root that no longer exist are removed.
func (e *Engine) IndexDirectory(ctx context.Context, root string) error {
	root, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("resolve root: %w", err)
	}
	paths, err := e.gitListFiles(root)
	if err != nil {
		e.logger.Debug("git listing unavailable, walking directory", "root", root, "error", err)
		paths, err = e.walkListFiles(root)
		if err != nil {
			return err
		}
	}
	e.logger.Info("indexing directory", "root", root, "files", len(paths))

	if err := e.pruneMissing(root, paths); err != nil {
		return err
	}
	return e.IndexFiles(ctx, paths)
}

// pruneMissing removes indexed files under root that are not in paths.
func (e *Engine) pruneMissing(root string, paths []string) error {
	present := make(map[string]bool, len(paths))
	for _, p := range paths {
		present[p] = true
	}
	files, err := e.store.AllFiles()
	if err != nil {
		return fmt.Errorf("list indexed files: %w", err)
	}
	for _, f := range files {
		rel, err := filepath.Rel(root, f.Path)
		if err != nil || strings.HasPrefix(rel, "..") || present[f.Path] {
			continue
		}
		if err := e.store.RemoveFile(f.ID); err != nil {
			return fmt.Errorf("remove %s: %w", f.Path, err)
		}
		e.markChanged(f.ID)
		e.logger.Debug("removed deleted file", "path", f.Path)
	}
	return nil
}

// gitListFiles uses git ls-files to discover tracked and untracked (but not
// ignored) files under root, filtered to supported languages.
func (e *Engine) gitListFiles(root string) ([]string, error) {
	// --cached: tracked files, --others: untracked files,
	// --exclude-standard: respect .gitignore, .git/info/exclude, global excludes.
	cmd := exec.Command("git", "ls-files", "--cached", "--others", "--exclude-standard")
	cmd.Dir = root
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("git ls-files: %w", err)
	}

	var paths []string
	for _, line := range strings.Split(stdout.String(), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		absPath := filepath.Join(root, line)
		if _, ok := binder.LanguageForFile(absPath); ok {
			paths = append(paths, absPath)
		}
	}
	return paths, nil
}

// walkListFiles discovers files by walking the filesystem, used as a
// fallback when git is not available.
func (e *Engine) walkListFiles(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != root && (strings.HasPrefix(name, ".") || skipDirs[name]) {
				return filepath.SkipDir
			}
			return nil
		}
		if _, ok := binder.LanguageForFile(path); ok {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk directory: %w", err)
	}
	return paths, nil
}

// Resolve binds references, imports and re-exports across the whole
// program. Resolution is not incremental: any indexed or removed file
// re-resolves everything, and a run with no changes is skipped.
func (e *Engine) Resolve(ctx context.Context) error {
	defer func() { e.changed = nil }()

	// Non-nil empty change set means no files changed since the last
	// resolution by this binder version.
	if e.changed != nil && len(e.changed) == 0 && !e.NeedsReindex() {
		e.logger.Debug("no changes, skipping resolution")
		return nil
	}

	start := time.Now()
	if err := binder.Resolve(ctx, e.store, e.logger.Named("binder")); err != nil {
		return fmt.Errorf("moniker: resolve: %w", err)
	}
	if err := e.store.SetMetadata(binderVersionKey, binder.Version); err != nil {
		return fmt.Errorf("moniker: %w", err)
	}
	e.logger.Info("resolved program", "duration", time.Since(start))
	return nil
}

// distinctLanguages returns all languages that have at least one file in the Store.
func (e *Engine) distinctLanguages() ([]string, error) {
	rows, err := e.store.DB().Query("SELECT DISTINCT language FROM files ORDER BY language")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var langs []string
	for rows.Next() {
		var lang string
		if err := rows.Scan(&lang); err != nil {
			return nil, err
		}
		langs = append(langs, lang)
	}
	return langs, rows.Err()
}

// Program loads the resolved index into an in-memory graph whose file
// identities are relative to rootDir.
func (e *Engine) Program(rootDir string) (*Program, error) {
	root, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, fmt.Errorf("moniker: resolve root: %w", err)
	}
	g, err := LoadGraph(e.store, root)
	if err != nil {
		return nil, fmt.Errorf("moniker: %w", err)
	}
	langs, err := e.distinctLanguages()
	if err != nil {
		return nil, fmt.Errorf("moniker: list languages: %w", err)
	}
	e.logger.Debug("loaded program", "root", root, "files", len(g.Files()), "languages", langs)

	p := &Program{graph: g, rootDir: root, logger: e.logger.Named("program")}
	if e.namingScript != "" {
		rtOpts := []runtime.RuntimeOption{runtime.WithRuntimeLogger(e.logger.Named("naming"))}
		scriptPath, scriptsDir := e.namingScript, ""
		if e.scriptsFS != nil {
			rtOpts = append(rtOpts, runtime.WithRuntimeFS(e.scriptsFS))
		} else {
			// Imports in the script resolve next to it.
			if scriptPath, err = filepath.Abs(scriptPath); err != nil {
				return nil, fmt.Errorf("moniker: naming script: %w", err)
			}
			scriptsDir = filepath.Dir(scriptPath)
		}
		rt := runtime.NewRuntime(e.store, scriptsDir, rtOpts...)
		namer, err := runtime.NewNamer(rt, scriptPath)
		if err != nil {
			return nil, fmt.Errorf("moniker: naming script: %w", err)
		}
		p.namer = namer
	}
	p.init()
	return p, nil
}

package moniker

import (
	"context"
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/moniker/internal/binder"
	"github.com/jward/moniker/internal/store"
	"github.com/jward/moniker/scripts"
)

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	e, err := New(dbPath, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })
	return e
}

// testFileHash computes the same SHA256 hex hash the engine uses.
func testFileHash(content []byte) string {
	return fmt.Sprintf("%x", sha256.Sum256(content))
}

// writeTree writes files (slash-separated relative paths) under a new temp
// directory and returns it.
func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, src := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	}
	return root
}

const (
	classSource  = "export class MyClass {\n  sum(a: number, b: number) { return a + b; }\n}\n"
	scriptSource = "function foo() {}\nfoo();\n"
)

func TestNew_CreatesStore(t *testing.T) {
	e := newTestEngine(t)
	require.NotNil(t, e.Store())
	assert.True(t, e.useParallel)
	assert.NotNil(t, e.logger)

	// Verify the DB is usable (migration ran).
	_, err := e.Store().InsertFile(&store.File{
		Path: "/tmp/a.ts", Language: binder.LangTypeScript, Hash: "abc", LastIndexed: time.Now(),
	})
	require.NoError(t, err)
}

func TestNew_InvalidPath(t *testing.T) {
	_, err := New("/nonexistent/dir/db.sqlite")
	require.Error(t, err)
}

func TestClose(t *testing.T) {
	e, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, e.Close())
}

func TestWithLanguages(t *testing.T) {
	e := newTestEngine(t, WithLanguages("typescript", "tsx"))
	assert.True(t, e.languages["typescript"])
	assert.True(t, e.languages["tsx"])
	assert.False(t, e.languages["javascript"])
}

func TestIndexFiles_SkipsUnsupportedExtensions(t *testing.T) {
	e := newTestEngine(t)
	tmp := filepath.Join(t.TempDir(), "readme.txt")
	require.NoError(t, os.WriteFile(tmp, []byte("hello"), 0o644))

	require.NoError(t, e.IndexFiles(context.Background(), []string{tmp}))

	f, err := e.Store().FileByPath(tmp)
	require.NoError(t, err)
	assert.Nil(t, f)
}

func TestIndexFiles_SkipsFilteredLanguages(t *testing.T) {
	e := newTestEngine(t, WithLanguages("typescript"))
	tmp := filepath.Join(t.TempDir(), "global.js")
	require.NoError(t, os.WriteFile(tmp, []byte(scriptSource), 0o644))

	require.NoError(t, e.IndexFiles(context.Background(), []string{tmp}))

	f, err := e.Store().FileByPath(tmp)
	require.NoError(t, err)
	assert.Nil(t, f)
}

func TestIndexFiles_SkipsUnchangedFiles(t *testing.T) {
	e := newTestEngine(t)
	tmp := filepath.Join(t.TempDir(), "index.ts")
	content := []byte(classSource)
	require.NoError(t, os.WriteFile(tmp, content, 0o644))

	id, err := e.Store().InsertFile(&store.File{
		Path: tmp, Language: binder.LangTypeScript, Hash: testFileHash(content), LastIndexed: time.Now(),
	})
	require.NoError(t, err)

	require.NoError(t, e.IndexFiles(context.Background(), []string{tmp}))

	f, err := e.Store().FileByPath(tmp)
	require.NoError(t, err)
	require.NotNil(t, f)
	assert.Equal(t, id, f.ID)
	assert.Empty(t, e.changed)
}

func TestIndexFiles_ReindexesChangedFiles(t *testing.T) {
	for _, parallel := range []bool{false, true} {
		t.Run(fmt.Sprintf("parallel=%v", parallel), func(t *testing.T) {
			e := newTestEngine(t, WithParallel(parallel))
			tmp := filepath.Join(t.TempDir(), "index.ts")
			require.NoError(t, os.WriteFile(tmp, []byte(classSource), 0o644))

			oldID, err := e.Store().InsertFile(&store.File{
				Path: tmp, Language: binder.LangTypeScript, Hash: "oldhash", LastIndexed: time.Now(),
			})
			require.NoError(t, err)

			require.NoError(t, e.IndexFiles(context.Background(), []string{tmp}))

			f, err := e.Store().FileByPath(tmp)
			require.NoError(t, err)
			require.NotNil(t, f)
			assert.Equal(t, testFileHash([]byte(classSource)), f.Hash)
			assert.True(t, f.IsModule)
			assert.True(t, e.changed[oldID])
			assert.True(t, e.changed[f.ID])

			syms, err := e.Store().SymbolsByFile(f.ID)
			require.NoError(t, err)
			var names []string
			for _, s := range syms {
				names = append(names, s.Name)
			}
			assert.Contains(t, names, "MyClass")
			assert.Contains(t, names, "sum")
		})
	}
}

func TestIndexFiles_MissingFileReportsError(t *testing.T) {
	e := newTestEngine(t, WithParallel(false))
	ok := filepath.Join(t.TempDir(), "global.js")
	require.NoError(t, os.WriteFile(ok, []byte(scriptSource), 0o644))
	missing := filepath.Join(t.TempDir(), "gone.ts")

	err := e.IndexFiles(context.Background(), []string{missing, ok})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gone.ts")

	// The good file is still indexed.
	f, err := e.Store().FileByPath(ok)
	require.NoError(t, err)
	assert.NotNil(t, f)
}

func TestIndexFiles_CancelledContext(t *testing.T) {
	e := newTestEngine(t, WithParallel(false))
	tmp := filepath.Join(t.TempDir(), "index.ts")
	require.NoError(t, os.WriteFile(tmp, []byte(classSource), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, e.IndexFiles(ctx, []string{tmp}), context.Canceled)
}

func TestIndexDirectory_DiscoversSourceFiles(t *testing.T) {
	root := writeTree(t, map[string]string{
		"src/index.ts":  classSource,
		"src/global.js": scriptSource,
		"readme.txt":    "docs",
	})
	e := newTestEngine(t)

	require.NoError(t, e.IndexDirectory(context.Background(), root))

	files, err := e.Store().AllFiles()
	require.NoError(t, err)
	var paths []string
	for _, f := range files {
		rel, err := filepath.Rel(root, f.Path)
		require.NoError(t, err)
		paths = append(paths, filepath.ToSlash(rel))
	}
	assert.ElementsMatch(t, []string{"src/index.ts", "src/global.js"}, paths)
}

func TestIndexDirectory_SkipsHiddenAndExcludedDirs(t *testing.T) {
	root := writeTree(t, map[string]string{
		".cache/a.ts":           classSource,
		"node_modules/lib/b.js": scriptSource,
		"vendor/c.ts":           classSource,
	})
	e := newTestEngine(t)

	require.NoError(t, e.IndexDirectory(context.Background(), root))

	files, err := e.Store().AllFiles()
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestIndexDirectory_PrunesDeletedFiles(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.ts": classSource,
		"b.js": scriptSource,
	})
	e := newTestEngine(t)
	require.NoError(t, e.IndexDirectory(context.Background(), root))
	require.NoError(t, e.Resolve(context.Background()))

	gone := filepath.Join(root, "b.js")
	old, err := e.Store().FileByPath(gone)
	require.NoError(t, err)
	require.NotNil(t, old)
	require.NoError(t, os.Remove(gone))

	require.NoError(t, e.IndexDirectory(context.Background(), root))

	f, err := e.Store().FileByPath(gone)
	require.NoError(t, err)
	assert.Nil(t, f)
	assert.True(t, e.changed[old.ID])
}

func TestNeedsReindex(t *testing.T) {
	e := newTestEngine(t)
	assert.False(t, e.NeedsReindex(), "empty database")

	_, err := e.Store().InsertFile(&store.File{
		Path: "/a.ts", Language: binder.LangTypeScript, Hash: "a", LastIndexed: time.Now(),
	})
	require.NoError(t, err)
	assert.True(t, e.NeedsReindex(), "files never resolved")

	require.NoError(t, e.Store().SetMetadata(binderVersionKey, binder.Version))
	assert.False(t, e.NeedsReindex())

	require.NoError(t, e.Store().SetMetadata(binderVersionKey, "0"))
	assert.True(t, e.NeedsReindex())
}

func TestResolve_RecordsBinderVersion(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.Resolve(context.Background()))

	v, err := e.Store().GetMetadata(binderVersionKey)
	require.NoError(t, err)
	assert.Equal(t, binder.Version, v)
	assert.Nil(t, e.changed)
}

func TestResolve_SkipsWithoutChanges(t *testing.T) {
	root := writeTree(t, map[string]string{"a.ts": classSource})
	e := newTestEngine(t)
	require.NoError(t, e.IndexDirectory(context.Background(), root))
	require.NoError(t, e.Resolve(context.Background()))

	// Clear the resolution; a second pass would rebuild it.
	_, err := e.Store().DB().Exec("DELETE FROM resolved_references")
	require.NoError(t, err)

	require.NoError(t, e.IndexDirectory(context.Background(), root))
	require.NotNil(t, e.changed)
	require.Empty(t, e.changed)
	require.NoError(t, e.Resolve(context.Background()))

	var n int
	require.NoError(t, e.Store().DB().QueryRow("SELECT COUNT(*) FROM resolved_references").Scan(&n))
	assert.Zero(t, n)
}

func TestDistinctLanguages(t *testing.T) {
	e := newTestEngine(t)
	for _, f := range []*store.File{
		{Path: "/a.ts", Language: binder.LangTypeScript, Hash: "a", LastIndexed: time.Now()},
		{Path: "/b.ts", Language: binder.LangTypeScript, Hash: "b", LastIndexed: time.Now()},
		{Path: "/c.js", Language: binder.LangJavaScript, Hash: "c", LastIndexed: time.Now()},
	} {
		_, err := e.Store().InsertFile(f)
		require.NoError(t, err)
	}

	langs, err := e.distinctLanguages()
	require.NoError(t, err)
	assert.Equal(t, []string{"javascript", "typescript"}, langs)
}

// indexProgram indexes and resolves root, then loads a program rooted at
// programRoot (relative to root).
func indexProgram(t *testing.T, root, programRoot string, opts ...Option) *Program {
	t.Helper()
	e := newTestEngine(t, opts...)
	require.NoError(t, e.IndexDirectory(context.Background(), root))
	require.NoError(t, e.Resolve(context.Background()))
	p, err := e.Program(filepath.Join(root, programRoot))
	require.NoError(t, err)
	return p
}

func TestProgram_EndToEnd(t *testing.T) {
	root := writeTree(t, map[string]string{
		"src/index.ts":  classSource,
		"src/global.js": scriptSource,
	})
	p := indexProgram(t, root, "src")

	exportPath, err := p.Strategy(StrategyExportPath)
	require.NoError(t, err)
	hash, err := p.Strategy(StrategyHash)
	require.NoError(t, err)

	index := filepath.Join(root, "src", "index.ts")
	offset, err := OffsetFor(index, 2, 3)
	require.NoError(t, err)
	m, ok := p.MonikerAt(index, offset, exportPath)
	require.True(t, ok)
	assert.Equal(t, "index:MyClass.sum", m.Moniker)
	assert.Equal(t, "sum", m.Name)

	global := filepath.Join(root, "src", "global.js")
	def, ok := p.MonikerAt(global, 10, exportPath)
	require.True(t, ok)
	assert.Equal(t, ":foo", def.Moniker)

	// The call on line 2 resolves to the same symbol.
	call, ok := p.MonikerAt(global, 19, hash)
	require.True(t, ok)
	declHash, ok := p.MonikerAt(global, 10, hash)
	require.True(t, ok)
	assert.Equal(t, declHash.Moniker, call.Moniker)
	assert.Len(t, call.Moniker, 64)
}

func TestProgram_ParallelMatchesSerial(t *testing.T) {
	root := writeTree(t, map[string]string{
		"src/index.ts":  classSource,
		"src/global.js": scriptSource,
		"src/use.ts":    "import { MyClass } from \"./index\";\nexport const c = new MyClass();\nc.sum(1, 2);\n",
	})

	collect := func(p *Program) []string {
		s, err := p.Strategy(StrategyExportPath)
		require.NoError(t, err)
		var out []string
		for _, file := range p.Graph().Files() {
			for _, m := range p.MonikersInFile(filepath.Join(p.RootDir(), filepath.FromSlash(file)), s) {
				out = append(out, fmt.Sprintf("%s:%d:%s", m.File, m.Start, m.Moniker))
			}
		}
		return out
	}

	serial := collect(indexProgram(t, root, "src", WithParallel(false)))
	parallel := collect(indexProgram(t, root, "src", WithParallel(true)))
	assert.NotEmpty(t, serial)
	assert.Equal(t, serial, parallel)
	assert.Contains(t, serial, "use.ts:9:index:MyClass")
}

func TestProgram_EmbeddedNamingScript(t *testing.T) {
	root := writeTree(t, map[string]string{"src/widgets/button.ts": "export function render() {}\n"})
	p := indexProgram(t, root, "src",
		WithScriptsFS(scripts.FS), WithNamingScript(scripts.Path("basename")))

	s, err := p.Strategy(StrategyExportPath)
	require.NoError(t, err)
	got := p.MonikersInFile(filepath.Join(root, "src", "widgets", "button.ts"), s)
	require.NotEmpty(t, got)
	assert.Equal(t, "button:render", got[0].Moniker)
}

func TestProgram_NamingScriptFromFS(t *testing.T) {
	root := writeTree(t, map[string]string{"lib/a.ts": "export const x = 1;\n"})
	fsys := fstest.MapFS{
		"naming.risor": {Data: []byte(`"pkg/" + module_name`)},
	}
	p := indexProgram(t, root, ".", WithScriptsFS(fsys), WithNamingScript("naming.risor"))

	name, ok := p.FileScope("lib/a.ts")
	require.True(t, ok)
	assert.Equal(t, "pkg/lib/a", name)
}

func TestProgram_MissingNamingScript(t *testing.T) {
	e := newTestEngine(t, WithNamingScript(filepath.Join(t.TempDir(), "none.risor")))
	_, err := e.Program(t.TempDir())
	assert.ErrorContains(t, err, "naming script")
}

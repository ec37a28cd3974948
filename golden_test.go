package moniker

import (
	"context"
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Golden test format. An empty Moniker means the position has no
// export-path moniker.
type goldenFile struct {
	Monikers []goldenMoniker `json:"monikers"`
	SameHash [][2]goldenLoc  `json:"same_hash,omitempty"`
}

type goldenMoniker struct {
	File    string `json:"file"`
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Moniker string `json:"moniker"`
}

type goldenLoc struct {
	File string `json:"file"`
	Line int    `json:"line"`
	Col  int    `json:"col"`
}

// TestGolden walks testdata/{language}/ directories and runs golden tests
// for all languages that have testdata.
func TestGolden(t *testing.T) {
	langDirs, err := os.ReadDir("testdata")
	if err != nil {
		t.Skip("no testdata directory found")
	}

	for _, langDir := range langDirs {
		if !langDir.IsDir() {
			continue
		}
		lang := langDir.Name()
		langRoot := filepath.Join("testdata", lang)
		levels, err := os.ReadDir(langRoot)
		if err != nil {
			continue
		}

		for _, level := range levels {
			if !level.IsDir() {
				continue
			}
			testDir := filepath.Join(langRoot, level.Name())
			goldenPath := filepath.Join(testDir, "golden.json")
			srcDir := filepath.Join(testDir, "src")

			if _, err := os.Stat(goldenPath); err != nil {
				continue
			}
			if _, err := os.Stat(srcDir); err != nil {
				continue
			}

			t.Run(lang+"/"+level.Name(), func(t *testing.T) {
				runGoldenTest(t, lang, srcDir, goldenPath)
			})
		}
	}
}

func runGoldenTest(t *testing.T, lang, srcDir, goldenPath string) {
	t.Helper()

	goldenData, err := os.ReadFile(goldenPath)
	require.NoError(t, err)
	var golden goldenFile
	require.NoError(t, json.Unmarshal(goldenData, &golden))

	srcDir, err = filepath.Abs(srcDir)
	require.NoError(t, err)

	dbPath := filepath.Join(t.TempDir(), "golden.db")
	engine, err := New(dbPath, WithLanguages(lang))
	require.NoError(t, err)
	defer engine.Close()

	var paths []string
	err = filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, err error) error {
		if err == nil && !d.IsDir() {
			paths = append(paths, path)
		}
		return err
	})
	require.NoError(t, err)
	require.NoError(t, engine.IndexFiles(context.Background(), paths))
	require.NoError(t, engine.Resolve(context.Background()))

	program, err := engine.Program(srcDir)
	require.NoError(t, err)

	if len(golden.Monikers) > 0 {
		t.Run("export-path", func(t *testing.T) {
			verifyExportPaths(t, program, srcDir, golden.Monikers)
		})
	}
	if len(golden.SameHash) > 0 {
		t.Run("hash", func(t *testing.T) {
			verifySameHash(t, program, srcDir, golden.SameHash)
		})
	}
}

// monikerAt returns the moniker at loc, or "" when there is none.
func monikerAt(t *testing.T, p *Program, srcDir string, loc goldenLoc, strategy string) string {
	t.Helper()
	s, err := p.Strategy(strategy)
	require.NoError(t, err)
	path := filepath.Join(srcDir, filepath.FromSlash(loc.File))
	offset, err := OffsetFor(path, loc.Line, loc.Col)
	require.NoError(t, err, "%s:%d:%d", loc.File, loc.Line, loc.Col)
	m, ok := p.MonikerAt(path, offset, s)
	if !ok {
		return ""
	}
	return m.Moniker
}

func verifyExportPaths(t *testing.T, p *Program, srcDir string, expected []goldenMoniker) {
	t.Helper()
	actual := make([]goldenMoniker, len(expected))
	for i, exp := range expected {
		actual[i] = exp
		actual[i].Moniker = monikerAt(t, p, srcDir, goldenLoc{exp.File, exp.Line, exp.Col}, StrategyExportPath)
	}
	if diff := cmp.Diff(expected, actual); diff != "" {
		t.Errorf("export-path monikers mismatch (-want +got):\n%s", diff)
	}
}

func verifySameHash(t *testing.T, p *Program, srcDir string, pairs [][2]goldenLoc) {
	t.Helper()
	for _, pair := range pairs {
		a := monikerAt(t, p, srcDir, pair[0], StrategyHash)
		b := monikerAt(t, p, srcDir, pair[1], StrategyHash)
		assert.Len(t, a, 64, "%+v", pair[0])
		assert.Equal(t, a, b, "%+v and %+v should share a fingerprint", pair[0], pair[1])
	}
}

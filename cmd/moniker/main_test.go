package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindRepoRoot_DirectGitDir(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	if err := os.Mkdir(filepath.Join(root, ".git"), 0o755); err != nil {
		t.Fatal(err)
	}

	got := findRepoRoot(root)
	assert.Equal(t, root, got)
}

func TestFindRepoRoot_NestedSubdirectory(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	if err := os.Mkdir(filepath.Join(root, ".git"), 0o755); err != nil {
		t.Fatal(err)
	}
	deep := filepath.Join(root, "sub", "deep")
	if err := os.MkdirAll(deep, 0o755); err != nil {
		t.Fatal(err)
	}

	got := findRepoRoot(deep)
	assert.Equal(t, root, got)
}

func TestFindRepoRoot_NoGitAncestor(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	got := findRepoRoot(dir)
	assert.Equal(t, dir, got)
}

func TestLineCol(t *testing.T) {
	t.Parallel()
	src := []byte("export class A {\n  sum() {}\n}\n")

	tests := []struct {
		offset    int
		line, col int
	}{
		{0, 1, 1},
		{13, 1, 14},
		{17, 2, 1},
		{19, 2, 3},
		{1000, 4, 1},
	}
	for _, tt := range tests {
		line, col := lineCol(src, tt.offset)
		assert.Equal(t, tt.line, line, "offset %d", tt.offset)
		assert.Equal(t, tt.col, col, "offset %d", tt.offset)
	}
}

func TestReadSourceArg(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "a.ts")
	require.NoError(t, os.WriteFile(path, []byte("let a = 1;\n"), 0o644))

	file, src, err := readSourceArg(path)
	require.NoError(t, err)
	assert.Equal(t, path, file)
	assert.Equal(t, "let a = 1;\n", string(src))
}

func TestRunSymbols_MissingFileIsAnError(t *testing.T) {
	t.Parallel()
	missing := filepath.Join(t.TempDir(), "gone.ts")

	_, err := runSymbols(missing)
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.ErrorContains(t, err, missing)

	_, err = runAt([]string{missing, "1", "1"})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseIntArg(t *testing.T) {
	t.Parallel()
	n, err := parseIntArg("12", "line")
	require.NoError(t, err)
	assert.Equal(t, 12, n)

	_, err = parseIntArg("0", "line")
	assert.ErrorContains(t, err, "1 or greater")
	_, err = parseIntArg("x", "col")
	assert.ErrorContains(t, err, "positive integer")
}

func TestSplitList(t *testing.T) {
	t.Parallel()
	assert.Nil(t, splitList(""))
	assert.Equal(t, []string{"typescript", "javascript"}, splitList(" typescript, ,javascript "))
}

func TestValidateFormat(t *testing.T) {
	t.Parallel()
	require.NoError(t, validateFormat("json"))
	require.NoError(t, validateFormat("text"))
	assert.ErrorContains(t, validateFormat("yaml"), "invalid format")
}

func TestOutputResultText(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	err := outputResultText(&buf, CLIResult{Command: "at", Results: []CLIMoniker{
		{File: "src/index.ts", Line: 2, Col: 3, Name: "sum", Strategy: "export-path", Moniker: "index:MyClass.sum"},
	}})
	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "MONIKER")
	assert.Contains(t, out, "index:MyClass.sum")

	buf.Reset()
	require.NoError(t, outputResultText(&buf, CLIResult{Results: []CLIMoniker{}}))
	assert.Equal(t, "No moniker\n", buf.String())

	assert.Error(t, outputResultText(&buf, CLIResult{Results: 42}))
}

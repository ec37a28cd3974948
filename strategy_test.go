package moniker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func trimTS(file string) (string, bool) {
	return strings.TrimSuffix(strings.TrimSuffix(file, ".ts"), ".js"), true
}

// scenarioGraph holds a module class with a method, a global script
// function, and an interface merged across a module and a script.
func scenarioGraph() (*Graph, map[string]SymbolID) {
	b := NewGraphBuilder()
	syms := make(map[string]SymbolID)

	file := moduleFile(b, "index.ts")
	class := b.AddSymbol("MyClass", FlagClass, file)
	b.AddDeclaration(class, decl("index.ts", 13, 20, KindClassDeclaration, KindSourceFile))
	b.AddExport(file, "MyClass", class)
	sum := b.AddSymbol("sum", FlagMethod, class)
	b.AddDeclaration(sum, decl("index.ts", 25, 28, KindMethodDeclaration, KindClassDeclaration, KindSourceFile))
	b.AddOccurrence("index.ts", 13, 20, class)
	b.AddOccurrence("index.ts", 25, 28, sum)
	syms["file"], syms["MyClass"], syms["sum"] = file, class, sum

	b.AddFile("global.js", false)
	foo := b.AddSymbol("foo", FlagFunction, NoSymbol)
	b.AddDeclaration(foo, decl("global.js", 9, 12, KindFunctionDeclaration, KindSourceFile))
	b.AddOccurrence("global.js", 9, 12, foo)
	b.AddOccurrence("global.js", 18, 21, foo)
	syms["foo"] = foo

	mixed := b.AddSymbol("Mixed", FlagInterface, NoSymbol)
	b.AddDeclaration(mixed, decl("global.js", 30, 40, KindInterfaceDeclaration, KindSourceFile))
	b.AddDeclaration(mixed, decl("index.ts", 60, 70, KindInterfaceDeclaration, KindSourceFile))
	syms["Mixed"] = mixed

	return b.Build(), syms
}

func TestExportPathStrategy_Scenarios(t *testing.T) {
	g, syms := scenarioGraph()
	s := &ExportPathStrategy{FileScope: trimTS}

	m, ok := s.Moniker(g, syms["sum"])
	require.True(t, ok)
	assert.Equal(t, "index:MyClass.sum", m)

	m, ok = s.Moniker(g, syms["foo"])
	require.True(t, ok)
	assert.Equal(t, ":foo", m)

	m, ok = s.Moniker(g, syms["file"])
	require.True(t, ok)
	assert.Equal(t, "index:", m)

	m, ok = s.Moniker(g, syms["Mixed"])
	require.False(t, ok, "mixed-scope orphan is not nameable")
	assert.Empty(t, m)

	_, ok = s.Moniker(g, UnknownSymbolID)
	assert.False(t, ok)
}

func TestExportPathStrategy_MultiFileScope(t *testing.T) {
	b := NewGraphBuilder()
	fa := moduleFile(b, "a.ts")
	fb := moduleFile(b, "b.ts")
	ns := b.AddSymbol("NS", FlagNamespaceModule|FlagValueModule, fb)
	b.AddDeclaration(ns, decl("b.ts", 0, 10, KindModuleDeclaration, KindSourceFile))
	b.AddDeclaration(ns, decl("a.ts", 0, 10, KindModuleDeclaration, KindSourceFile))
	b.AddExport(fa, "NS", ns)
	b.AddExport(fb, "NS", ns)
	g := b.Build()

	s := &ExportPathStrategy{FileScope: trimTS}
	m, ok := s.Moniker(g, ns)
	require.True(t, ok)
	assert.Equal(t, "[a,b]:NS", m)
}

func TestExportPathStrategy_NilFileScope(t *testing.T) {
	g, syms := scenarioGraph()
	s := &ExportPathStrategy{}

	m, ok := s.Moniker(g, syms["sum"])
	require.True(t, ok)
	assert.Equal(t, ":MyClass.sum", m)
}

func TestParseStrategy(t *testing.T) {
	s, err := ParseStrategy("export-path", trimTS)
	require.NoError(t, err)
	assert.Equal(t, StrategyExportPath, s.Name())

	s, err = ParseStrategy("hash", nil)
	require.NoError(t, err)
	assert.Equal(t, StrategyHash, s.Name())

	_, err = ParseStrategy("scip", nil)
	assert.ErrorContains(t, err, "unknown moniker strategy")
}

func TestGetMonikerAtPosition(t *testing.T) {
	g, _ := scenarioGraph()
	exportPath, _ := ParseStrategy(StrategyExportPath, trimTS)
	hash, _ := ParseStrategy(StrategyHash, nil)

	m, ok := GetMonikerAtPosition(g, exportPath, "index.ts", 26)
	require.True(t, ok)
	assert.Equal(t, "index:MyClass.sum", m)

	// The reference and the declaration of foo share a moniker.
	def, ok := GetMonikerAtPosition(g, hash, "global.js", 10)
	require.True(t, ok)
	ref, ok := GetMonikerAtPosition(g, hash, "global.js", 21)
	require.True(t, ok)
	assert.Equal(t, def, ref)

	_, ok = GetMonikerAtPosition(g, exportPath, "index.ts", 0)
	assert.False(t, ok)
	_, ok = GetMonikerAtPosition(g, hash, "missing.ts", 0)
	assert.False(t, ok)
}

package moniker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGraph_SymbolAtPosition(t *testing.T) {
	b := NewGraphBuilder()
	outer := b.AddSymbol("obj", FlagVariable, NoSymbol)
	inner := b.AddSymbol("x", FlagProperty, NoSymbol)
	b.AddOccurrence("a.ts", 10, 20, outer)
	b.AddOccurrence("a.ts", 14, 15, inner)
	b.AddOccurrence("a.ts", 30, 33, outer)
	g := b.Build()

	tests := []struct {
		offset int
		want   SymbolID
		ok     bool
	}{
		{9, NoSymbol, false},
		{10, outer, true},
		{14, inner, true},
		{15, inner, true},
		{16, outer, true},
		{20, outer, true},
		{25, NoSymbol, false},
		{33, outer, true},
	}
	for _, tt := range tests {
		got, ok := g.SymbolAtPosition("a.ts", tt.offset)
		assert.Equal(t, tt.ok, ok, "offset %d", tt.offset)
		assert.Equal(t, tt.want, got, "offset %d", tt.offset)
	}

	_, ok := g.SymbolAtPosition("b.ts", 10)
	assert.False(t, ok)
}

func TestGraph_OccurrenceAt(t *testing.T) {
	b := NewGraphBuilder()
	outer := b.AddSymbol("obj", FlagVariable, NoSymbol)
	inner := b.AddSymbol("x", FlagProperty, NoSymbol)
	b.AddOccurrence("a.ts", 10, 20, outer)
	b.AddOccurrence("a.ts", 14, 15, inner)
	g := b.Build()

	occ, ok := g.OccurrenceAt("a.ts", 15)
	require.True(t, ok)
	assert.Equal(t, Occurrence{Start: 14, End: 15, Symbol: inner}, occ)

	occ, ok = g.OccurrenceAt("a.ts", 18)
	require.True(t, ok)
	assert.Equal(t, Occurrence{Start: 10, End: 20, Symbol: outer}, occ)

	_, ok = g.OccurrenceAt("a.ts", 21)
	assert.False(t, ok)
}

func TestGraph_OccurrencesSorted(t *testing.T) {
	b := NewGraphBuilder()
	s := b.AddSymbol("s", FlagVariable, NoSymbol)
	b.AddOccurrence("a.ts", 30, 31, s)
	b.AddOccurrence("a.ts", 2, 3, s)
	g := b.Build()

	occs := g.Occurrences("a.ts")
	require.Len(t, occs, 2)
	assert.Equal(t, Occurrence{Start: 2, End: 3, Symbol: s}, occs[0])
	assert.Nil(t, g.Occurrences("none.ts"))
}

func TestGraph_Builtins(t *testing.T) {
	g := NewGraphBuilder().Build()
	assert.Equal(t, UnknownSymbolID, g.UnknownSymbol())
	assert.Equal(t, UndefinedSymbolID, g.UndefinedSymbol())
	assert.Empty(t, g.Declarations(UnknownSymbolID))
	assert.Equal(t, "undefined", g.Name(UndefinedSymbolID))

	// Unknown IDs read as empty symbols.
	assert.Empty(t, g.Name(42))
	_, ok := g.Parent(42)
	assert.False(t, ok)
}

func TestGraphBuilder_ExportsKeepFirst(t *testing.T) {
	b := NewGraphBuilder()
	file := moduleFile(b, "a.ts")
	first := b.AddSymbol("x", FlagVariable, file)
	second := b.AddSymbol("x", FlagVariable, file)
	b.AddExport(file, "x", first)
	b.AddExport(file, "x", second)
	b.AddFlags(first, FlagAlias)
	g := b.Build()

	assert.Equal(t, first, g.Exports(file)["x"])
	assert.True(t, g.Flags(first).Has(FlagVariable|FlagAlias))
	assert.True(t, g.IsFileModule("a.ts"))
	assert.Equal(t, []string{"a.ts"}, g.Files())
}

func TestParseSymbolFlags(t *testing.T) {
	f := ParseSymbolFlags([]string{"Class", "Transient", "Bogus"})
	assert.Equal(t, FlagClass|FlagTransient, f)
	assert.Equal(t, KindMethodDeclaration, ParseSyntaxKind("MethodDeclaration"))
	assert.Equal(t, KindUnknown, ParseSyntaxKind("Nope"))
	assert.Equal(t, "ExportAssignment", KindExportAssignment.String())
}

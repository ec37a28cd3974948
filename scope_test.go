package moniker

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyScope(t *testing.T) {
	b := NewGraphBuilder()
	b.AddFile("m1.ts", true)
	b.AddFile("m2.ts", true)
	b.AddFile("g1.js", false)
	b.AddFile("g2.d.ts", false)
	g := b.Build()

	tests := []struct {
		name  string
		files []string
		want  ScopeKind
	}{
		{"none", nil, ScopeUnknown},
		{"modules", []string{"m1.ts", "m2.ts"}, ScopeModule},
		{"globals", []string{"g1.js", "g2.d.ts"}, ScopeGlobal},
		{"mixed", []string{"g1.js", "m1.ts"}, ScopeUnknown},
		{"unregistered is global", []string{"other.js"}, ScopeGlobal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyScope(g, tt.files))
		})
	}
}

func TestDeclarationFiles_UniqueSorted(t *testing.T) {
	b := NewGraphBuilder()
	ns := b.AddSymbol("NS", FlagNamespaceModule, NoSymbol)
	b.AddDeclaration(ns, decl("z.ts", 0, 1, KindModuleDeclaration))
	b.AddDeclaration(ns, decl("a.ts", 0, 1, KindModuleDeclaration))
	b.AddDeclaration(ns, decl("z.ts", 5, 9, KindModuleDeclaration))
	g := b.Build()

	assert.Equal(t, []string{"a.ts", "z.ts"}, DeclarationFiles(g, ns))
	assert.Empty(t, DeclarationFiles(g, UnknownSymbolID))
}

func TestScopeKind_String(t *testing.T) {
	assert.Equal(t, "module", ScopeModule.String())
	assert.Equal(t, "global", ScopeGlobal.String())
	assert.Equal(t, "unknown", ScopeUnknown.String())
}

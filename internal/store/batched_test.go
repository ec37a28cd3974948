package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchedStore_AssignsNegativeIDs(t *testing.T) {
	t.Parallel()
	batch := NewBatchedStore()

	id1, err := batch.InsertSymbol(&Symbol{Name: "Foo", EscapedName: "Foo"})
	require.NoError(t, err)
	assert.Equal(t, int64(-1), id1)

	id2, err := batch.InsertScope(&Scope{Kind: "file"})
	require.NoError(t, err)
	assert.Equal(t, int64(-2), id2)
	assert.Len(t, batch.Symbols, 1)
	assert.Len(t, batch.Scopes, 1)
}

func TestCommitBatch_RemapsFakeIDs(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	f := insertTestFile(t, s, "a.ts", "typescript")

	batch := NewBatchedStore()
	file := &Symbol{FileID: &f.ID, Name: `"a"`, EscapedName: `"a"`}
	_, err := batch.InsertSymbol(file)
	require.NoError(t, err)
	cls := &Symbol{FileID: &f.ID, Name: "C", EscapedName: "C", ParentSymbolID: &file.ID}
	_, err = batch.InsertSymbol(cls)
	require.NoError(t, err)

	fileScope := &Scope{FileID: f.ID, Kind: "file", EndByte: 50}
	_, err = batch.InsertScope(fileScope)
	require.NoError(t, err)
	classScope := &Scope{FileID: f.ID, Kind: "class", SymbolID: &cls.ID, ParentScopeID: &fileScope.ID}
	_, err = batch.InsertScope(classScope)
	require.NoError(t, err)

	_, err = batch.InsertDeclaration(&Declaration{SymbolID: cls.ID, FileID: f.ID, ScopeID: &fileScope.ID, Name: "C", Kind: "ClassDeclaration", Ancestors: []string{"SourceFile"}})
	require.NoError(t, err)

	obj := &Reference{FileID: f.ID, ScopeID: &classScope.ID, Name: "C", Context: RefIdentifier}
	_, err = batch.InsertReference(obj)
	require.NoError(t, err)
	_, err = batch.InsertReference(&Reference{FileID: f.ID, Name: "m", Context: RefMember, ObjectReferenceID: &obj.ID})
	require.NoError(t, err)

	_, err = batch.InsertExport(&Export{FileID: f.ID, ContainerSymbolID: file.ID, ExportedName: "C", SymbolID: &cls.ID})
	require.NoError(t, err)
	require.NoError(t, batch.SetFileModule(f.ID, true))

	require.NoError(t, s.CommitBatch(batch))

	syms, err := s.SymbolsByFile(f.ID)
	require.NoError(t, err)
	require.Len(t, syms, 2)
	for _, sym := range syms {
		assert.Positive(t, sym.ID)
	}
	require.NotNil(t, syms[1].ParentSymbolID)
	assert.Equal(t, syms[0].ID, *syms[1].ParentSymbolID)

	decls, err := s.DeclarationsBySymbol(syms[1].ID)
	require.NoError(t, err)
	require.Len(t, decls, 1)
	assert.Positive(t, *decls[0].ScopeID)

	scopes, err := s.ScopesByFile(f.ID)
	require.NoError(t, err)
	require.Len(t, scopes, 2)
	assert.Equal(t, syms[1].ID, *scopes[1].SymbolID)
	assert.Equal(t, scopes[0].ID, *scopes[1].ParentScopeID)

	refs, err := s.ReferencesByFile(f.ID)
	require.NoError(t, err)
	require.Len(t, refs, 2)
	assert.Equal(t, refs[0].ID, *refs[1].ObjectReferenceID)

	exports, err := s.ExportsByContainer(syms[0].ID)
	require.NoError(t, err)
	require.Len(t, exports, 1)
	assert.Equal(t, syms[1].ID, *exports[0].SymbolID)

	got, err := s.FileByPath("a.ts")
	require.NoError(t, err)
	assert.True(t, got.IsModule)
}

func TestCommitBatch_UnknownFakeIDFails(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	f := insertTestFile(t, s, "a.ts", "typescript")

	batch := NewBatchedStore()
	_, err := batch.InsertDeclaration(&Declaration{SymbolID: -42, FileID: f.ID, Name: "x", Kind: "Parameter"})
	require.NoError(t, err)

	err = s.CommitBatch(batch)
	require.Error(t, err)

	decls, err := s.DeclarationsByFile(f.ID)
	require.NoError(t, err)
	assert.Empty(t, decls, "failed batch rolls back")
}

package store

import "sync"

// BatchedStore buffers extraction inserts in memory using fake (negative)
// IDs. It implements DataStore so the binder can write to it without
// knowing whether it's hitting SQLite or an in-memory buffer.
//
// Thread safety: the mutex protects fake ID allocation and slice appends.
type BatchedStore struct {
	mu sync.Mutex

	// Buffered extraction data.
	Symbols      []Symbol
	Declarations []Declaration
	Scopes       []Scope
	References   []Reference
	Imports      []Import
	Exports      []Export
	FileModules  map[int64]bool

	nextFakeID int64 // starts at -1, decrements
}

// Compile-time check: *BatchedStore satisfies DataStore.
var _ DataStore = (*BatchedStore)(nil)

// NewBatchedStore creates an empty BatchedStore.
func NewBatchedStore() *BatchedStore {
	return &BatchedStore{
		FileModules: make(map[int64]bool),
		nextFakeID:  -1,
	}
}

func (b *BatchedStore) allocFakeID() int64 {
	id := b.nextFakeID
	b.nextFakeID--
	return id
}

func (b *BatchedStore) InsertSymbol(sym *Symbol) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fakeID := b.allocFakeID()
	sym.ID = fakeID
	b.Symbols = append(b.Symbols, *sym)
	return fakeID, nil
}

func (b *BatchedStore) InsertDeclaration(decl *Declaration) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fakeID := b.allocFakeID()
	decl.ID = fakeID
	b.Declarations = append(b.Declarations, *decl)
	return fakeID, nil
}

func (b *BatchedStore) InsertScope(scope *Scope) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fakeID := b.allocFakeID()
	scope.ID = fakeID
	b.Scopes = append(b.Scopes, *scope)
	return fakeID, nil
}

func (b *BatchedStore) InsertReference(ref *Reference) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fakeID := b.allocFakeID()
	ref.ID = fakeID
	b.References = append(b.References, *ref)
	return fakeID, nil
}

func (b *BatchedStore) InsertImport(imp *Import) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fakeID := b.allocFakeID()
	imp.ID = fakeID
	b.Imports = append(b.Imports, *imp)
	return fakeID, nil
}

func (b *BatchedStore) InsertExport(exp *Export) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fakeID := b.allocFakeID()
	exp.ID = fakeID
	b.Exports = append(b.Exports, *exp)
	return fakeID, nil
}

func (b *BatchedStore) SetFileModule(fileID int64, isModule bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.FileModules[fileID] = isModule
	return nil
}

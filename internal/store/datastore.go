package store

// DataStore is the interface for extraction-phase data access. Both Store
// (direct SQLite) and BatchedStore (in-memory buffering for parallel
// extraction) implement this interface.
type DataStore interface {
	// Extraction inserts. Each returns the assigned ID.
	InsertSymbol(sym *Symbol) (int64, error)
	InsertDeclaration(decl *Declaration) (int64, error)
	InsertScope(scope *Scope) (int64, error)
	InsertReference(ref *Reference) (int64, error)
	InsertImport(imp *Import) (int64, error)
	InsertExport(exp *Export) (int64, error)

	// SetFileModule records whether the file has its own module surface.
	SetFileModule(fileID int64, isModule bool) error
}

// Compile-time check: *Store satisfies DataStore.
var _ DataStore = (*Store)(nil)

package store

import (
	"database/sql"
	"fmt"
)

type scanner interface{ Scan(...any) error }

// --- File operations ---

func (s *Store) InsertFile(f *File) (int64, error) {
	res, err := s.db.Exec(
		"INSERT INTO files (path, language, hash, is_module, last_indexed) VALUES (?, ?, ?, ?, ?)",
		f.Path, f.Language, f.Hash, f.IsModule, f.LastIndexed,
	)
	if err != nil {
		return 0, fmt.Errorf("insert file: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	f.ID = id
	return id, nil
}

const fileCols = `id, path, language, hash, is_module, last_indexed`

func scanFile(sc scanner) (*File, error) {
	f := &File{}
	return f, sc.Scan(&f.ID, &f.Path, &f.Language, &f.Hash, &f.IsModule, &f.LastIndexed)
}

func (s *Store) FileByPath(path string) (*File, error) {
	f, err := scanFile(s.db.QueryRow("SELECT "+fileCols+" FROM files WHERE path = ?", path))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("file by path: %w", err)
	}
	return f, nil
}

func (s *Store) queryFiles(query string, args ...any) ([]*File, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var files []*File
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

func (s *Store) FilesByLanguage(language string) ([]*File, error) {
	return s.queryFiles("SELECT "+fileCols+" FROM files WHERE language = ? ORDER BY path", language)
}

// AllFiles returns every indexed file ordered by path.
func (s *Store) AllFiles() ([]*File, error) {
	return s.queryFiles("SELECT " + fileCols + " FROM files ORDER BY path")
}

func (s *Store) SetFileModule(fileID int64, isModule bool) error {
	if _, err := s.db.Exec("UPDATE files SET is_module = ? WHERE id = ?", isModule, fileID); err != nil {
		return fmt.Errorf("set file module: %w", err)
	}
	return nil
}

// --- Symbol operations ---

func (s *Store) InsertSymbol(sym *Symbol) (int64, error) {
	id, err := insertSymbol(s.db, sym)
	if err != nil {
		return 0, fmt.Errorf("insert symbol: %w", err)
	}
	sym.ID = id
	return id, nil
}

// SymbolCols is the column list for symbol queries.
const SymbolCols = `id, file_id, name, escaped_name, flags, parent_symbol_id, is_global`

func scanSymbol(sc scanner) (*Symbol, error) {
	sym := &Symbol{}
	var flags string
	err := sc.Scan(
		&sym.ID, &sym.FileID, &sym.Name, &sym.EscapedName, &flags,
		&sym.ParentSymbolID, &sym.IsGlobal,
	)
	if err != nil {
		return nil, err
	}
	sym.Flags = unmarshalStrings(flags)
	return sym, nil
}

func (s *Store) querySymbols(query string, args ...any) ([]*Symbol, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var symbols []*Symbol
	for rows.Next() {
		sym, err := scanSymbol(rows)
		if err != nil {
			return nil, fmt.Errorf("scan symbol: %w", err)
		}
		symbols = append(symbols, sym)
	}
	return symbols, rows.Err()
}

func (s *Store) SymbolByID(id int64) (*Symbol, error) {
	sym, err := scanSymbol(s.db.QueryRow("SELECT "+SymbolCols+" FROM symbols WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("symbol by id: %w", err)
	}
	return sym, nil
}

func (s *Store) SymbolsByFile(fileID int64) ([]*Symbol, error) {
	return s.querySymbols("SELECT "+SymbolCols+" FROM symbols WHERE file_id = ? ORDER BY id", fileID)
}

func (s *Store) SymbolsByName(name string) ([]*Symbol, error) {
	return s.querySymbols("SELECT "+SymbolCols+" FROM symbols WHERE name = ? ORDER BY id", name)
}

func (s *Store) SymbolChildren(symbolID int64) ([]*Symbol, error) {
	return s.querySymbols("SELECT "+SymbolCols+" FROM symbols WHERE parent_symbol_id = ? ORDER BY id", symbolID)
}

// GlobalSymbols returns the top-level symbols of global script files.
func (s *Store) GlobalSymbols() ([]*Symbol, error) {
	return s.querySymbols("SELECT " + SymbolCols + " FROM symbols WHERE is_global AND parent_symbol_id IS NULL ORDER BY id")
}

func (s *Store) AllSymbols() ([]*Symbol, error) {
	return s.querySymbols("SELECT " + SymbolCols + " FROM symbols ORDER BY id")
}

// --- Declaration operations ---

func (s *Store) InsertDeclaration(decl *Declaration) (int64, error) {
	id, err := insertDeclaration(s.db, decl)
	if err != nil {
		return 0, fmt.Errorf("insert declaration: %w", err)
	}
	decl.ID = id
	return id, nil
}

const declarationCols = `id, symbol_id, file_id, scope_id, name, kind, start_byte, end_byte,
	name_start, name_end, ancestors, expression, signature_symbol_id`

func scanDeclaration(sc scanner) (*Declaration, error) {
	d := &Declaration{}
	var ancestors string
	err := sc.Scan(
		&d.ID, &d.SymbolID, &d.FileID, &d.ScopeID, &d.Name, &d.Kind, &d.StartByte, &d.EndByte,
		&d.NameStart, &d.NameEnd, &ancestors, &d.Expression, &d.SignatureSymbolID,
	)
	if err != nil {
		return nil, err
	}
	d.Ancestors = unmarshalStrings(ancestors)
	return d, nil
}

func (s *Store) queryDeclarations(query string, args ...any) ([]*Declaration, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var decls []*Declaration
	for rows.Next() {
		d, err := scanDeclaration(rows)
		if err != nil {
			return nil, fmt.Errorf("scan declaration: %w", err)
		}
		decls = append(decls, d)
	}
	return decls, rows.Err()
}

func (s *Store) DeclarationsBySymbol(symbolID int64) ([]*Declaration, error) {
	return s.queryDeclarations("SELECT "+declarationCols+" FROM declarations WHERE symbol_id = ? ORDER BY id", symbolID)
}

func (s *Store) DeclarationsByFile(fileID int64) ([]*Declaration, error) {
	return s.queryDeclarations("SELECT "+declarationCols+" FROM declarations WHERE file_id = ? ORDER BY id", fileID)
}

func (s *Store) AllDeclarations() ([]*Declaration, error) {
	return s.queryDeclarations("SELECT " + declarationCols + " FROM declarations ORDER BY id")
}

// --- Scope operations ---

func (s *Store) InsertScope(scope *Scope) (int64, error) {
	id, err := insertScope(s.db, scope)
	if err != nil {
		return 0, fmt.Errorf("insert scope: %w", err)
	}
	scope.ID = id
	return id, nil
}

const scopeCols = `id, file_id, symbol_id, kind, start_byte, end_byte, parent_scope_id`

func scanScope(sc scanner) (*Scope, error) {
	scope := &Scope{}
	return scope, sc.Scan(
		&scope.ID, &scope.FileID, &scope.SymbolID, &scope.Kind,
		&scope.StartByte, &scope.EndByte, &scope.ParentScopeID,
	)
}

func (s *Store) ScopesByFile(fileID int64) ([]*Scope, error) {
	rows, err := s.db.Query("SELECT "+scopeCols+" FROM scopes WHERE file_id = ? ORDER BY id", fileID)
	if err != nil {
		return nil, fmt.Errorf("scopes by file: %w", err)
	}
	defer rows.Close()
	var scopes []*Scope
	for rows.Next() {
		sc, err := scanScope(rows)
		if err != nil {
			return nil, fmt.Errorf("scan scope: %w", err)
		}
		scopes = append(scopes, sc)
	}
	return scopes, rows.Err()
}

// --- Reference operations ---

func (s *Store) InsertReference(ref *Reference) (int64, error) {
	id, err := insertReference(s.db, ref)
	if err != nil {
		return 0, fmt.Errorf("insert reference: %w", err)
	}
	ref.ID = id
	return id, nil
}

const referenceCols = `id, file_id, scope_id, name, start_byte, end_byte, context, object_reference_id`

func (s *Store) queryReferences(query string, args ...any) ([]*Reference, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var refs []*Reference
	for rows.Next() {
		ref := &Reference{}
		if err := rows.Scan(
			&ref.ID, &ref.FileID, &ref.ScopeID, &ref.Name, &ref.StartByte, &ref.EndByte,
			&ref.Context, &ref.ObjectReferenceID,
		); err != nil {
			return nil, fmt.Errorf("scan reference: %w", err)
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

// ReferencesByFile returns a file's references in insertion order, which
// places object references before the member references that use them.
func (s *Store) ReferencesByFile(fileID int64) ([]*Reference, error) {
	return s.queryReferences("SELECT "+referenceCols+" FROM references_ WHERE file_id = ? ORDER BY id", fileID)
}

func (s *Store) ReferencesByName(name string) ([]*Reference, error) {
	return s.queryReferences("SELECT "+referenceCols+" FROM references_ WHERE name = ? ORDER BY id", name)
}

// --- Import operations ---

func (s *Store) InsertImport(imp *Import) (int64, error) {
	id, err := insertImport(s.db, imp)
	if err != nil {
		return 0, fmt.Errorf("insert import: %w", err)
	}
	imp.ID = id
	return id, nil
}

func (s *Store) ImportsByFile(fileID int64) ([]*Import, error) {
	rows, err := s.db.Query(
		`SELECT id, file_id, source, imported_name, local_alias, kind, start_byte, end_byte
		 FROM imports WHERE file_id = ? ORDER BY id`, fileID,
	)
	if err != nil {
		return nil, fmt.Errorf("imports by file: %w", err)
	}
	defer rows.Close()
	var imports []*Import
	for rows.Next() {
		imp := &Import{}
		if err := rows.Scan(
			&imp.ID, &imp.FileID, &imp.Source, &imp.ImportedName, &imp.LocalAlias,
			&imp.Kind, &imp.StartByte, &imp.EndByte,
		); err != nil {
			return nil, fmt.Errorf("scan import: %w", err)
		}
		imports = append(imports, imp)
	}
	return imports, rows.Err()
}

// --- Export operations ---

func (s *Store) InsertExport(exp *Export) (int64, error) {
	id, err := insertExport(s.db, exp)
	if err != nil {
		return 0, fmt.Errorf("insert export: %w", err)
	}
	exp.ID = id
	return id, nil
}

const exportCols = `id, file_id, container_symbol_id, exported_name, symbol_id, local_name, source`

func (s *Store) queryExports(query string, args ...any) ([]*Export, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var exports []*Export
	for rows.Next() {
		exp := &Export{}
		if err := rows.Scan(
			&exp.ID, &exp.FileID, &exp.ContainerSymbolID, &exp.ExportedName,
			&exp.SymbolID, &exp.LocalName, &exp.Source,
		); err != nil {
			return nil, fmt.Errorf("scan export: %w", err)
		}
		exports = append(exports, exp)
	}
	return exports, rows.Err()
}

func (s *Store) ExportsByContainer(containerID int64) ([]*Export, error) {
	return s.queryExports("SELECT "+exportCols+" FROM exports WHERE container_symbol_id = ? ORDER BY id", containerID)
}

func (s *Store) ExportsByFile(fileID int64) ([]*Export, error) {
	return s.queryExports("SELECT "+exportCols+" FROM exports WHERE file_id = ? ORDER BY id", fileID)
}

func (s *Store) AllExports() ([]*Export, error) {
	return s.queryExports("SELECT " + exportCols + " FROM exports ORDER BY id")
}

// --- Shared insert statements ---
// Used both by the Store methods and by CommitBatch inside a transaction.

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func lastID(res sql.Result, err error) (int64, error) {
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func insertSymbol(db execer, sym *Symbol) (int64, error) {
	return lastID(db.Exec(
		`INSERT INTO symbols (file_id, name, escaped_name, flags, parent_symbol_id, is_global)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		sym.FileID, sym.Name, sym.EscapedName, marshalStrings(sym.Flags), sym.ParentSymbolID, sym.IsGlobal,
	))
}

func insertDeclaration(db execer, d *Declaration) (int64, error) {
	return lastID(db.Exec(
		`INSERT INTO declarations (symbol_id, file_id, scope_id, name, kind, start_byte, end_byte,
			name_start, name_end, ancestors, expression, signature_symbol_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.SymbolID, d.FileID, d.ScopeID, d.Name, d.Kind, d.StartByte, d.EndByte,
		d.NameStart, d.NameEnd, marshalStrings(d.Ancestors), d.Expression, d.SignatureSymbolID,
	))
}

func insertScope(db execer, scope *Scope) (int64, error) {
	return lastID(db.Exec(
		`INSERT INTO scopes (file_id, symbol_id, kind, start_byte, end_byte, parent_scope_id)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		scope.FileID, scope.SymbolID, scope.Kind, scope.StartByte, scope.EndByte, scope.ParentScopeID,
	))
}

func insertReference(db execer, ref *Reference) (int64, error) {
	return lastID(db.Exec(
		`INSERT INTO references_ (file_id, scope_id, name, start_byte, end_byte, context, object_reference_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ref.FileID, ref.ScopeID, ref.Name, ref.StartByte, ref.EndByte, ref.Context, ref.ObjectReferenceID,
	))
}

func insertImport(db execer, imp *Import) (int64, error) {
	return lastID(db.Exec(
		`INSERT INTO imports (file_id, source, imported_name, local_alias, kind, start_byte, end_byte)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		imp.FileID, imp.Source, imp.ImportedName, imp.LocalAlias, imp.Kind, imp.StartByte, imp.EndByte,
	))
}

func insertExport(db execer, exp *Export) (int64, error) {
	return lastID(db.Exec(
		`INSERT INTO exports (file_id, container_symbol_id, exported_name, symbol_id, local_name, source)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		exp.FileID, exp.ContainerSymbolID, exp.ExportedName, exp.SymbolID, exp.LocalName, exp.Source,
	))
}

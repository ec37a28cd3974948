package store

import "fmt"

// CommitBatch inserts all buffered data from a BatchedStore into SQLite
// within a single transaction. Fake (negative) IDs are remapped to real
// (positive, AUTOINCREMENT) IDs, and all FK references within the batch
// are rewritten using the fakeToReal mapping.
//
// Insert order respects FK dependencies:
//  1. Symbols (parents are buffered before their children)
//  2. Scopes (depend on symbol_id, parent_scope_id)
//  3. Declarations (depend on symbol_id, scope_id, signature_symbol_id)
//  4. References (depend on scope_id, object_reference_id)
//  5. Imports (depend on file_id only)
//  6. Exports (depend on container_symbol_id, symbol_id)
func (s *Store) CommitBatch(batch *BatchedStore) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("commit batch: begin: %w", err)
	}
	defer tx.Rollback()

	fakeToReal := make(map[int64]int64)
	remap := func(id *int64) *int64 {
		if id == nil || *id >= 0 {
			return id
		}
		realID := fakeToReal[*id]
		return &realID
	}
	mustRemap := func(id int64) (int64, error) {
		if id >= 0 {
			return id, nil
		}
		realID, ok := fakeToReal[id]
		if !ok {
			return 0, fmt.Errorf("id %d not in fakeToReal map", id)
		}
		return realID, nil
	}

	// 1. Symbols
	for _, sym := range batch.Symbols {
		sym.ParentSymbolID = remap(sym.ParentSymbolID)
		realID, err := insertSymbol(tx, &sym)
		if err != nil {
			return fmt.Errorf("commit batch: symbol %q: %w", sym.Name, err)
		}
		fakeToReal[sym.ID] = realID
	}

	// 2. Scopes
	for _, scope := range batch.Scopes {
		scope.ParentScopeID = remap(scope.ParentScopeID)
		scope.SymbolID = remap(scope.SymbolID)
		realID, err := insertScope(tx, &scope)
		if err != nil {
			return fmt.Errorf("commit batch: scope: %w", err)
		}
		fakeToReal[scope.ID] = realID
	}

	// 3. Declarations
	for _, decl := range batch.Declarations {
		if decl.SymbolID, err = mustRemap(decl.SymbolID); err != nil {
			return fmt.Errorf("commit batch: declaration: %w", err)
		}
		decl.ScopeID = remap(decl.ScopeID)
		decl.SignatureSymbolID = remap(decl.SignatureSymbolID)
		realID, err := insertDeclaration(tx, &decl)
		if err != nil {
			return fmt.Errorf("commit batch: declaration: %w", err)
		}
		fakeToReal[decl.ID] = realID
	}

	// 4. References
	for _, ref := range batch.References {
		ref.ScopeID = remap(ref.ScopeID)
		ref.ObjectReferenceID = remap(ref.ObjectReferenceID)
		realID, err := insertReference(tx, &ref)
		if err != nil {
			return fmt.Errorf("commit batch: reference %q: %w", ref.Name, err)
		}
		fakeToReal[ref.ID] = realID
	}

	// 5. Imports
	for _, imp := range batch.Imports {
		realID, err := insertImport(tx, &imp)
		if err != nil {
			return fmt.Errorf("commit batch: import %q: %w", imp.Source, err)
		}
		fakeToReal[imp.ID] = realID
	}

	// 6. Exports
	for _, exp := range batch.Exports {
		if exp.ContainerSymbolID, err = mustRemap(exp.ContainerSymbolID); err != nil {
			return fmt.Errorf("commit batch: export %q: %w", exp.ExportedName, err)
		}
		exp.SymbolID = remap(exp.SymbolID)
		realID, err := insertExport(tx, &exp)
		if err != nil {
			return fmt.Errorf("commit batch: export %q: %w", exp.ExportedName, err)
		}
		fakeToReal[exp.ID] = realID
	}

	for fileID, isModule := range batch.FileModules {
		if _, err := tx.Exec("UPDATE files SET is_module = ? WHERE id = ?", isModule, fileID); err != nil {
			return fmt.Errorf("commit batch: file module: %w", err)
		}
	}

	return tx.Commit()
}

// Resolution is the output of one whole-program resolution pass.
type Resolution struct {
	References []ResolvedReference
	Merges     []SymbolMerge
	Reexports  []Reexport
}

// ReplaceResolution swaps all resolution rows for r within one transaction.
// Merges are written first so readers never observe references to a
// symbol whose merge is missing.
func (s *Store) ReplaceResolution(r *Resolution) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("replace resolution: begin: %w", err)
	}
	defer tx.Rollback()

	if err := deleteResolutionTx(tx); err != nil {
		return fmt.Errorf("replace resolution: %w", err)
	}
	for _, m := range r.Merges {
		if _, err := tx.Exec(
			"INSERT INTO symbol_merges (symbol_id, canonical_symbol_id) VALUES (?, ?)",
			m.SymbolID, m.CanonicalSymbolID,
		); err != nil {
			return fmt.Errorf("replace resolution: merge %d: %w", m.SymbolID, err)
		}
	}
	for _, re := range r.Reexports {
		if _, err := tx.Exec(
			`INSERT INTO reexports (file_id, container_symbol_id, original_symbol_id, exported_name)
			 VALUES (?, ?, ?, ?)`,
			re.FileID, re.ContainerSymbolID, re.OriginalSymbolID, re.ExportedName,
		); err != nil {
			return fmt.Errorf("replace resolution: reexport %q: %w", re.ExportedName, err)
		}
	}
	for _, rr := range r.References {
		var builtin any
		if rr.Builtin != "" {
			builtin = rr.Builtin
		}
		if _, err := tx.Exec(
			`INSERT INTO resolved_references (reference_id, target_symbol_id, builtin, resolution_kind)
			 VALUES (?, ?, ?, ?)`,
			rr.ReferenceID, rr.TargetSymbolID, builtin, rr.ResolutionKind,
		); err != nil {
			return fmt.Errorf("replace resolution: reference %d: %w", rr.ReferenceID, err)
		}
	}
	return tx.Commit()
}

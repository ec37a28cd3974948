package store

import (
	"database/sql"
	"fmt"
)

// --- ResolvedReference operations ---

func (s *Store) InsertResolvedReference(rr *ResolvedReference) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO resolved_references (reference_id, target_symbol_id, builtin, resolution_kind)
		 VALUES (?, ?, ?, ?)`,
		rr.ReferenceID, rr.TargetSymbolID, rr.Builtin, rr.ResolutionKind,
	)
	if err != nil {
		return 0, fmt.Errorf("insert resolved reference: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	rr.ID = id
	return id, nil
}

func (s *Store) queryResolvedRefs(query string, args ...any) ([]*ResolvedReference, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var refs []*ResolvedReference
	for rows.Next() {
		rr := &ResolvedReference{}
		var builtin sql.NullString
		if err := rows.Scan(&rr.ID, &rr.ReferenceID, &rr.TargetSymbolID, &builtin, &rr.ResolutionKind); err != nil {
			return nil, fmt.Errorf("scan resolved reference: %w", err)
		}
		rr.Builtin = builtin.String
		refs = append(refs, rr)
	}
	return refs, rows.Err()
}

const resolvedRefCols = `id, reference_id, target_symbol_id, builtin, resolution_kind`

func (s *Store) ResolvedReferencesByRef(referenceID int64) ([]*ResolvedReference, error) {
	return s.queryResolvedRefs(
		"SELECT "+resolvedRefCols+" FROM resolved_references WHERE reference_id = ?", referenceID,
	)
}

func (s *Store) ResolvedReferencesByTarget(symbolID int64) ([]*ResolvedReference, error) {
	return s.queryResolvedRefs(
		"SELECT "+resolvedRefCols+" FROM resolved_references WHERE target_symbol_id = ?", symbolID,
	)
}

// ResolvedReferencesByFile returns the resolutions of references located in
// fileID.
func (s *Store) ResolvedReferencesByFile(fileID int64) ([]*ResolvedReference, error) {
	return s.queryResolvedRefs(
		`SELECT rr.id, rr.reference_id, rr.target_symbol_id, rr.builtin, rr.resolution_kind
		 FROM resolved_references rr JOIN references_ r ON r.id = rr.reference_id
		 WHERE r.file_id = ? ORDER BY rr.id`, fileID,
	)
}

// --- SymbolMerge operations ---

func (s *Store) InsertSymbolMerge(m *SymbolMerge) (int64, error) {
	res, err := s.db.Exec(
		"INSERT INTO symbol_merges (symbol_id, canonical_symbol_id) VALUES (?, ?)",
		m.SymbolID, m.CanonicalSymbolID,
	)
	if err != nil {
		return 0, fmt.Errorf("insert symbol merge: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	m.ID = id
	return id, nil
}

func (s *Store) SymbolMerges() ([]*SymbolMerge, error) {
	rows, err := s.db.Query("SELECT id, symbol_id, canonical_symbol_id FROM symbol_merges ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("symbol merges: %w", err)
	}
	defer rows.Close()
	var merges []*SymbolMerge
	for rows.Next() {
		m := &SymbolMerge{}
		if err := rows.Scan(&m.ID, &m.SymbolID, &m.CanonicalSymbolID); err != nil {
			return nil, fmt.Errorf("scan symbol merge: %w", err)
		}
		merges = append(merges, m)
	}
	return merges, rows.Err()
}

// --- Reexport operations ---

func (s *Store) InsertReexport(re *Reexport) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO reexports (file_id, container_symbol_id, original_symbol_id, exported_name)
		 VALUES (?, ?, ?, ?)`,
		re.FileID, re.ContainerSymbolID, re.OriginalSymbolID, re.ExportedName,
	)
	if err != nil {
		return 0, fmt.Errorf("insert reexport: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	re.ID = id
	return id, nil
}

const reexportCols = `id, file_id, container_symbol_id, original_symbol_id, exported_name`

func (s *Store) queryReexports(query string, args ...any) ([]*Reexport, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var reexports []*Reexport
	for rows.Next() {
		re := &Reexport{}
		if err := rows.Scan(&re.ID, &re.FileID, &re.ContainerSymbolID, &re.OriginalSymbolID, &re.ExportedName); err != nil {
			return nil, fmt.Errorf("scan reexport: %w", err)
		}
		reexports = append(reexports, re)
	}
	return reexports, rows.Err()
}

func (s *Store) ReexportsByFile(fileID int64) ([]*Reexport, error) {
	return s.queryReexports("SELECT "+reexportCols+" FROM reexports WHERE file_id = ? ORDER BY id", fileID)
}

func (s *Store) AllReexports() ([]*Reexport, error) {
	return s.queryReexports("SELECT " + reexportCols + " FROM reexports ORDER BY id")
}

// --- Metadata ---

// GetMetadata returns the value stored under key, or "" when absent.
func (s *Store) GetMetadata(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM metadata WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get metadata %q: %w", key, err)
	}
	return value, nil
}

func (s *Store) SetMetadata(key, value string) error {
	_, err := s.db.Exec(
		"INSERT INTO metadata (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	if err != nil {
		return fmt.Errorf("set metadata %q: %w", key, err)
	}
	return nil
}

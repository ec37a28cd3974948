package moniker

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/jward/moniker/internal/store"
)

// LoadGraph builds a Graph from a resolved index. File identities are the
// indexed paths made relative to baseDir, slash separated. Symbols merged
// during resolution collapse into their canonical symbol: flags are OR-ed
// and declarations, exports and occurrences are redirected to it.
func LoadGraph(s *store.Store, baseDir string) (*Graph, error) {
	files, err := s.AllFiles()
	if err != nil {
		return nil, fmt.Errorf("load files: %w", err)
	}
	merges, err := s.SymbolMerges()
	if err != nil {
		return nil, fmt.Errorf("load symbol merges: %w", err)
	}
	symbols, err := s.AllSymbols()
	if err != nil {
		return nil, fmt.Errorf("load symbols: %w", err)
	}
	decls, err := s.AllDeclarations()
	if err != nil {
		return nil, fmt.Errorf("load declarations: %w", err)
	}
	exports, err := s.AllExports()
	if err != nil {
		return nil, fmt.Errorf("load exports: %w", err)
	}
	reexports, err := s.AllReexports()
	if err != nil {
		return nil, fmt.Errorf("load reexports: %w", err)
	}

	canonical := make(map[int64]int64, len(merges))
	for _, m := range merges {
		canonical[m.SymbolID] = m.CanonicalSymbolID
	}
	canon := func(id int64) SymbolID {
		// Merge chains are flattened by the resolver, but follow them anyway.
		for i := 0; i < len(canonical); i++ {
			next, ok := canonical[id]
			if !ok {
				break
			}
			id = next
		}
		return SymbolID(id)
	}
	canonPtr := func(id *int64) SymbolID {
		if id == nil {
			return NoSymbol
		}
		return canon(*id)
	}

	b := NewGraphBuilder()
	paths := make(map[int64]string, len(files))
	for _, f := range files {
		p := fileIdentity(baseDir, f.Path)
		paths[f.ID] = p
		b.AddFile(p, f.IsModule)
	}

	// Canonical symbols first so merged symbols only contribute flags.
	for _, sym := range symbols {
		if _, merged := canonical[sym.ID]; merged {
			continue
		}
		b.setSymbol(SymbolID(sym.ID), sym.Name, sym.EscapedName, ParseSymbolFlags(sym.Flags), canonPtr(sym.ParentSymbolID))
	}
	for _, sym := range symbols {
		if _, merged := canonical[sym.ID]; merged {
			b.AddFlags(canon(sym.ID), ParseSymbolFlags(sym.Flags))
		}
	}

	for _, d := range decls {
		target := canon(d.SymbolID)
		file := paths[d.FileID]
		ancestors := make([]SyntaxKind, len(d.Ancestors))
		for i, k := range d.Ancestors {
			ancestors[i] = ParseSyntaxKind(k)
		}
		b.AddDeclaration(target, Declaration{
			File:       file,
			Start:      d.StartByte,
			End:        d.EndByte,
			Kind:       ParseSyntaxKind(d.Kind),
			Ancestors:  ancestors,
			Expression: d.Expression,
			Signature:  canonPtr(d.SignatureSymbolID),
		})
		if d.NameEnd > d.NameStart {
			b.AddOccurrence(file, d.NameStart, d.NameEnd, target)
		}
	}

	for _, e := range exports {
		if e.SymbolID == nil {
			continue
		}
		b.AddExport(canon(e.ContainerSymbolID), e.ExportedName, canon(*e.SymbolID))
	}
	for _, re := range reexports {
		b.AddExport(canon(re.ContainerSymbolID), re.ExportedName, canon(re.OriginalSymbolID))
	}

	for _, f := range files {
		if err := loadOccurrences(s, b, f.ID, paths[f.ID], canon); err != nil {
			return nil, err
		}
	}
	return b.Build(), nil
}

func loadOccurrences(s *store.Store, b *GraphBuilder, fileID int64, file string, canon func(int64) SymbolID) error {
	refs, err := s.ReferencesByFile(fileID)
	if err != nil {
		return fmt.Errorf("load references for %s: %w", file, err)
	}
	resolved, err := s.ResolvedReferencesByFile(fileID)
	if err != nil {
		return fmt.Errorf("load resolutions for %s: %w", file, err)
	}
	targets := make(map[int64]SymbolID, len(resolved))
	for _, rr := range resolved {
		switch {
		case rr.TargetSymbolID != nil:
			targets[rr.ReferenceID] = canon(*rr.TargetSymbolID)
		case rr.Builtin == store.BuiltinUndefined:
			targets[rr.ReferenceID] = UndefinedSymbolID
		case rr.Builtin == store.BuiltinUnknown:
			targets[rr.ReferenceID] = UnknownSymbolID
		}
	}
	for _, ref := range refs {
		if sym, ok := targets[ref.ID]; ok {
			b.AddOccurrence(file, ref.StartByte, ref.EndByte, sym)
		}
	}
	return nil
}

// fileIdentity makes path relative to baseDir when it lies inside it.
func fileIdentity(baseDir, path string) string {
	if baseDir == "" {
		return filepath.ToSlash(path)
	}
	rel, err := filepath.Rel(baseDir, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

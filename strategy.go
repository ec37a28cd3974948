package moniker

import (
	"fmt"
	"sort"
	"strings"
)

// Strategy names accepted by ParseStrategy.
const (
	StrategyExportPath = "export-path"
	StrategyHash       = "hash"
)

// Strategy turns a resolved symbol into a moniker. Both strategies are
// equally valid; callers pick one explicitly.
type Strategy interface {
	Name() string
	Moniker(r Resolver, sym SymbolID) (string, bool)
}

// FileScopeFunc names the file scope of a module file. It returns false when
// the file has no usable name.
type FileScopeFunc func(file string) (string, bool)

// ExportPathStrategy builds `<file scope>:<export path>` monikers.
type ExportPathStrategy struct {
	// FileScope names declaring files. When nil, module monikers carry an
	// empty scope component.
	FileScope FileScopeFunc
}

var _ Strategy = (*ExportPathStrategy)(nil)

// Name implements Strategy.
func (s *ExportPathStrategy) Name() string { return StrategyExportPath }

// Moniker implements Strategy.
func (s *ExportPathStrategy) Moniker(r Resolver, sym SymbolID) (string, bool) {
	files := DeclarationFiles(r, sym)
	scope := ClassifyScope(r, files)
	path, hasPath := ExportPath(r, sym, scope)
	return EncodeMoniker(isSourceFile(r, sym), scope, path, hasPath, s.fileScopePath(files))
}

// fileScopePath names the set of declaring files: a single name, or the
// sorted names joined as [a,b] when the symbol spans several files.
func (s *ExportPathStrategy) fileScopePath(files []string) string {
	if s.FileScope == nil {
		return ""
	}
	seen := make(map[string]bool)
	var names []string
	for _, f := range files {
		name, ok := s.FileScope(f)
		if !ok || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	switch len(names) {
	case 0:
		return ""
	case 1:
		return names[0]
	default:
		sort.Strings(names)
		return "[" + strings.Join(names, ",") + "]"
	}
}

// ParseStrategy builds a strategy by name. fileScope is only used by the
// export-path strategy.
func ParseStrategy(name string, fileScope FileScopeFunc) (Strategy, error) {
	switch name {
	case StrategyExportPath:
		return &ExportPathStrategy{FileScope: fileScope}, nil
	case StrategyHash:
		return NewHashStrategy(), nil
	default:
		return nil, fmt.Errorf("unknown moniker strategy %q: must be %s or %s", name, StrategyExportPath, StrategyHash)
	}
}

// GetMonikerAtPosition resolves the symbol touching position in file and
// returns its moniker under s. It returns false when no symbol resolves there
// or the symbol is not nameable by s.
func GetMonikerAtPosition(r Resolver, s Strategy, file string, position int) (string, bool) {
	sym, ok := r.SymbolAtPosition(file, position)
	if !ok {
		return "", false
	}
	return s.Moniker(r, sym)
}

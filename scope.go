package moniker

import "sort"

// ScopeKind classifies the files a symbol is declared in.
type ScopeKind int

const (
	// ScopeUnknown covers symbols without declarations and symbols declared
	// in a mix of module and global files.
	ScopeUnknown ScopeKind = iota
	ScopeModule
	ScopeGlobal
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeModule:
		return "module"
	case ScopeGlobal:
		return "global"
	default:
		return "unknown"
	}
}

// DeclarationFiles returns the unique files declaring sym, sorted.
func DeclarationFiles(r Resolver, sym SymbolID) []string {
	seen := make(map[string]bool)
	var files []string
	for _, d := range r.Declarations(sym) {
		if seen[d.File] {
			continue
		}
		seen[d.File] = true
		files = append(files, d.File)
	}
	sort.Strings(files)
	return files
}

// ClassifyScope derives the ScopeKind of a set of declaring files.
func ClassifyScope(r Resolver, files []string) ScopeKind {
	if len(files) == 0 {
		return ScopeUnknown
	}
	modules, globals := 0, 0
	for _, f := range files {
		if r.IsFileModule(f) {
			modules++
		} else {
			globals++
		}
	}
	switch len(files) {
	case modules:
		return ScopeModule
	case globals:
		return ScopeGlobal
	default:
		return ScopeUnknown
	}
}

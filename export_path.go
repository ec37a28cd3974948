package moniker

import (
	"fmt"
	"strings"
)

// topLevelPaths lists declaration kinds whose top-level position is not a
// direct child of the source file, with the ancestor kinds that make them
// top level.
var topLevelPaths = map[SyntaxKind][]SyntaxKind{
	KindVariableDeclaration: {KindVariableDeclarationList, KindVariableStatement, KindSourceFile},
}

// ExportPath computes the dotted path locating sym within its module's or
// namespace's exported or structural surface. It returns false when sym is
// not structurally nameable under scope.
func ExportPath(r Resolver, sym SymbolID, scope ScopeKind) (string, bool) {
	w := pathWalker{r: r, scope: scope, active: make(map[SymbolID]bool)}
	return w.resolve(sym)
}

type pathWalker struct {
	r      Resolver
	scope  ScopeKind
	active map[SymbolID]bool
}

func (w *pathWalker) resolve(sym SymbolID) (string, bool) {
	if w.active[sym] {
		panic(fmt.Sprintf("moniker: symbol parent chain cycles through %d", sym))
	}
	w.active[sym] = true
	defer delete(w.active, sym)

	if isSourceFile(w.r, sym) && (w.scope == ScopeModule || w.scope == ScopeUnknown) {
		return "", true
	}

	name := ExportName(w.r, sym)
	parent, ok := w.r.Parent(sym)
	if !ok {
		return w.resolveOrphan(sym, name)
	}

	parentPath, ok := w.resolve(parent)
	if !ok {
		return "", false
	}
	if w.r.Flags(parent)&(FlagInterface|FlagClass|FlagTypeLiteral) != 0 {
		return parentPath + "." + name, true
	}
	if _, exported := w.r.Exports(parent)[w.r.Name(sym)]; !exported {
		return "", false
	}
	if parentPath == "" {
		return name, true
	}
	return parentPath + "." + name, true
}

// resolveOrphan handles symbols without a parent. In a global script,
// symbols nested in non-exported containers have no parent either, so only
// top-level declarations and parameters of named signatures are nameable.
func (w *pathWalker) resolveOrphan(sym SymbolID, name string) (string, bool) {
	if w.scope != ScopeGlobal {
		return "", false
	}
	if isTopLevel(w.r, sym) {
		return name, true
	}
	// Signatures merge across global files, so their parameters must be
	// nameable too.
	param, ok := parameterDeclaration(w.r, sym)
	if !ok || param.Signature == NoSymbol {
		return "", false
	}
	parentPath, ok := w.resolve(param.Signature)
	if !ok {
		return "", false
	}
	return parentPath + "." + name, true
}

// isTopLevel reports whether any declaration of sym sits at file level.
func isTopLevel(r Resolver, sym SymbolID) bool {
	for _, d := range r.Declarations(sym) {
		if path, ok := topLevelPaths[d.Kind]; ok {
			if matchAncestors(d.Ancestors, path) {
				return true
			}
			continue
		}
		if len(d.Ancestors) > 0 && d.Ancestors[0] == KindSourceFile {
			return true
		}
	}
	return false
}

func matchAncestors(ancestors, path []SyntaxKind) bool {
	if len(ancestors) < len(path) {
		return false
	}
	for i, k := range path {
		if ancestors[i] != k {
			return false
		}
	}
	return true
}

// ExportName returns the local display name sym contributes to an export
// path.
func ExportName(r Resolver, sym SymbolID) string {
	escaped := r.EscapedName(sym)
	// export default foo / export = foo
	if r.Flags(sym).Has(FlagAlias) && (escaped == InternalDefault.Escaped() || escaped == InternalExportEquals.Escaped()) {
		decls := r.Declarations(sym)
		if len(decls) == 1 && decls[0].Kind == KindExportAssignment {
			return decls[0].Expression
		}
	}
	if n, ok := LookupInternalName(escaped); ok {
		return n.Token()
	}
	return unquote(r.Name(sym))
}

// unquote strips the quotes around string-literal names such as the one in
// declare module "foo".
func unquote(name string) string {
	if len(name) >= 2 && strings.ContainsRune(`"'`, rune(name[0])) {
		return name[1 : len(name)-1]
	}
	return name
}

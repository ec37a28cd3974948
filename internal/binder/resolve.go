package binder

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/jward/moniker/internal/store"
)

// Resolution kinds recorded on resolved references.
const (
	resolvedScope   = "scope"
	resolvedImport  = "import"
	resolvedGlobal  = "global"
	resolvedMember  = "member"
	resolvedThis    = "this"
	resolvedBuiltin = "builtin"
)

// probeExtensions are tried, in order, when a relative module specifier
// does not name an indexed file directly.
var probeExtensions = []string{".ts", ".tsx", ".d.ts", ".mts", ".cts", ".js", ".jsx", ".mjs", ".cjs"}

// target is the result of resolving a name: a symbol or a builtin.
type target struct {
	sym     int64
	builtin string
}

func (t target) ok() bool { return t.sym != 0 || t.builtin != "" }

// Resolve links the extracted program. Global declarations of script files
// merge by name, module specifiers resolve to files or ambient modules,
// export tables are computed through re-exports, and every reference gets
// a target. All previous resolution data is replaced.
func Resolve(ctx context.Context, s *store.Store, logger hclog.Logger) error {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	p, err := loadProgram(s)
	if err != nil {
		return err
	}

	out := &store.Resolution{}
	p.mergeGlobals(out)

	for _, f := range p.fileList {
		if err := ctx.Err(); err != nil {
			return err
		}
		p.resolveFile(s, f, out)
		if p.err != nil {
			return p.err
		}
	}
	out.Reexports = p.reexports

	if err := s.ReplaceResolution(out); err != nil {
		return err
	}
	logger.Debug("resolved program",
		"files", len(p.fileList),
		"references", len(out.References),
		"merges", len(out.Merges),
		"reexports", len(out.Reexports),
	)
	return nil
}

type program struct {
	fileList   []*store.File
	filesByID  map[int64]*store.File
	filesByKey map[string]*store.File
	fileSymbol map[int64]int64 // file id -> file symbol
	symbols    map[int64]*store.Symbol
	declKinds  map[int64][]string
	scopes     map[int64]*store.Scope
	bindings   map[int64]map[string]int64 // scope id -> name -> symbol
	fileScope  map[int64]int64            // file id -> file scope
	members    map[int64]map[string]int64 // canonical symbol -> escaped name -> child
	exportRows map[int64][]*store.Export  // canonical container -> rows
	imports    map[int64][]*store.Import

	canonical map[int64]int64
	globals   map[string]int64
	ambient   map[string]int64

	tables    map[int64]map[string]int64
	building  map[int64]bool
	importMap map[int64]map[string]target
	aliases   map[int64]int64
	reexports []store.Reexport

	err error
}

func loadProgram(s *store.Store) (*program, error) {
	files, err := s.AllFiles()
	if err != nil {
		return nil, fmt.Errorf("load files: %w", err)
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

	p := &program{
		fileList:   files,
		filesByID:  make(map[int64]*store.File, len(files)),
		filesByKey: make(map[string]*store.File, len(files)),
		fileSymbol: make(map[int64]int64),
		symbols:    make(map[int64]*store.Symbol, len(symbols)),
		declKinds:  make(map[int64][]string),
		scopes:     make(map[int64]*store.Scope),
		bindings:   make(map[int64]map[string]int64),
		fileScope:  make(map[int64]int64),
		members:    make(map[int64]map[string]int64),
		exportRows: make(map[int64][]*store.Export),
		imports:    make(map[int64][]*store.Import),
		canonical:  make(map[int64]int64),
		globals:    make(map[string]int64),
		ambient:    make(map[string]int64),
		tables:     make(map[int64]map[string]int64),
		building:   make(map[int64]bool),
		importMap:  make(map[int64]map[string]target),
		aliases:    make(map[int64]int64),
	}
	for _, f := range files {
		p.filesByID[f.ID] = f
		p.filesByKey[pathKey(f.Path)] = f

		scopes, err := s.ScopesByFile(f.ID)
		if err != nil {
			return nil, fmt.Errorf("load scopes for %s: %w", f.Path, err)
		}
		for _, sc := range scopes {
			p.scopes[sc.ID] = sc
			if sc.Kind == scopeFile {
				p.fileScope[f.ID] = sc.ID
			}
		}
		imports, err := s.ImportsByFile(f.ID)
		if err != nil {
			return nil, fmt.Errorf("load imports for %s: %w", f.Path, err)
		}
		p.imports[f.ID] = imports
	}

	for _, sym := range symbols {
		p.symbols[sym.ID] = sym
		if sym.ParentSymbolID != nil {
			p.addMember(*sym.ParentSymbolID, sym.EscapedName, sym.ID)
		}
	}
	for _, d := range decls {
		p.declKinds[d.SymbolID] = append(p.declKinds[d.SymbolID], d.Kind)
		if d.Kind == kindSourceFile {
			p.fileSymbol[d.FileID] = d.SymbolID
		}
		if d.ScopeID != nil && d.Name != "" {
			b, ok := p.bindings[*d.ScopeID]
			if !ok {
				b = make(map[string]int64)
				p.bindings[*d.ScopeID] = b
			}
			if _, taken := b[d.Name]; !taken {
				b[d.Name] = d.SymbolID
			}
		}
	}
	for _, e := range exports {
		p.exportRows[e.ContainerSymbolID] = append(p.exportRows[e.ContainerSymbolID], e)
	}
	return p, nil
}

func (p *program) addMember(parent int64, name string, child int64) {
	m, ok := p.members[parent]
	if !ok {
		m = make(map[string]int64)
		p.members[parent] = m
	}
	if _, taken := m[name]; !taken {
		m[name] = child
	}
}

func (p *program) canon(id int64) int64 {
	for {
		next, ok := p.canonical[id]
		if !ok {
			return id
		}
		id = next
	}
}

func (p *program) hasKind(sym int64, kind string) bool {
	for _, k := range p.declKinds[sym] {
		if k == kind {
			return true
		}
	}
	return false
}

// --- Global merging ---

// mergeGlobals merges same-named global declarations of script files into
// the lowest-numbered one, then merges their members recursively.
func (p *program) mergeGlobals(out *store.Resolution) {
	ids := make([]int64, 0, len(p.symbols))
	for id, sym := range p.symbols {
		if sym.IsGlobal && sym.ParentSymbolID == nil {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		name := p.symbols[id].EscapedName
		if canon, ok := p.globals[name]; ok {
			p.merge(id, canon, out)
			continue
		}
		p.globals[name] = id
		if strings.HasPrefix(name, `"`) {
			p.ambient[unquote(name)] = id
		}
	}
}

func (p *program) merge(sym, into int64, out *store.Resolution) {
	p.canonical[sym] = into
	out.Merges = append(out.Merges, store.SymbolMerge{SymbolID: sym, CanonicalSymbolID: into})
	p.exportRows[into] = append(p.exportRows[into], p.exportRows[sym]...)

	children := p.members[sym]
	names := make([]string, 0, len(children))
	for name := range children {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		child := children[name]
		if existing, ok := p.members[into][name]; ok && existing != child {
			p.merge(child, existing, out)
			continue
		}
		p.addMember(into, name, child)
	}
}

// --- Modules and export tables ---

func pathKey(path string) string {
	return filepath.ToSlash(filepath.Clean(path))
}

// resolveModule returns the symbol of the module a specifier names from
// file, or 0.
func (p *program) resolveModule(file *store.File, spec string) int64 {
	if !strings.HasPrefix(spec, ".") && !filepath.IsAbs(spec) {
		return p.ambient[spec]
	}
	base := spec
	if !filepath.IsAbs(spec) {
		base = filepath.Join(filepath.Dir(file.Path), spec)
	}
	for _, cand := range moduleCandidates(base) {
		if f, ok := p.filesByKey[pathKey(cand)]; ok {
			if sym, ok := p.fileSymbol[f.ID]; ok {
				return sym
			}
		}
	}
	return 0
}

func moduleCandidates(base string) []string {
	cands := []string{base}
	stem := TrimSourceExtension(base)
	for _, ext := range probeExtensions {
		cands = append(cands, stem+ext)
	}
	for _, ext := range probeExtensions {
		cands = append(cands, filepath.Join(base, "index"+ext))
	}
	return cands
}

// exportTable returns the exports of a module or namespace symbol,
// including names re-exported from other modules. A container reached
// again while its table is being built contributes nothing.
func (p *program) exportTable(container int64) map[string]int64 {
	container = p.canon(container)
	if t, ok := p.tables[container]; ok {
		return t
	}
	if p.building[container] {
		return nil
	}
	p.building[container] = true
	defer delete(p.building, container)

	t := make(map[string]int64)
	rows := p.exportRows[container]
	for _, e := range rows {
		if e.Source == nil && e.SymbolID != nil {
			if _, taken := t[e.ExportedName]; !taken {
				t[e.ExportedName] = p.canon(*e.SymbolID)
			}
		}
	}
	for _, e := range rows {
		if e.Source == nil {
			continue
		}
		file := p.fileByID(e.FileID)
		if file == nil {
			continue
		}
		mod := p.resolveModule(file, *e.Source)
		if mod == 0 {
			continue
		}
		add := func(name string, sym int64) {
			if _, taken := t[name]; taken {
				return
			}
			t[name] = sym
			p.reexports = append(p.reexports, store.Reexport{
				FileID:            e.FileID,
				ContainerSymbolID: container,
				OriginalSymbolID:  sym,
				ExportedName:      name,
			})
		}
		switch {
		case e.ExportedName == "*" && e.LocalName == nil:
			inner := p.exportTable(mod)
			names := make([]string, 0, len(inner))
			for name := range inner {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				if name != nameDefault && name != nameExportEquals {
					add(name, inner[name])
				}
			}
		case e.LocalName != nil && *e.LocalName == "*":
			add(e.ExportedName, mod)
		case e.LocalName != nil:
			if sym, ok := p.exportTable(mod)[*e.LocalName]; ok {
				add(e.ExportedName, sym)
			}
		}
	}
	p.tables[container] = t
	return t
}

func (p *program) fileByID(id int64) *store.File {
	return p.filesByID[id]
}

// resolveAlias follows `export { a as b }` aliases to the local symbol they
// name. Other symbols resolve to themselves.
func (p *program) resolveAlias(sym int64) int64 {
	seen := make(map[int64]bool)
	for p.hasKind(sym, kindExportSpecifier) && !seen[sym] {
		seen[sym] = true
		if t, ok := p.aliases[sym]; ok {
			sym = t
			continue
		}
		next := p.aliasTarget(sym)
		if next == 0 {
			return sym
		}
		p.aliases[sym] = next
		sym = next
	}
	return sym
}

func (p *program) aliasTarget(alias int64) int64 {
	s := p.symbols[alias]
	if s == nil || s.FileID == nil || s.ParentSymbolID == nil {
		return 0
	}
	for _, e := range p.exportRows[p.canon(*s.ParentSymbolID)] {
		if e.SymbolID == nil || *e.SymbolID != alias || e.LocalName == nil {
			continue
		}
		if sc, ok := p.fileScope[*s.FileID]; ok {
			if sym, ok := p.bindings[sc][*e.LocalName]; ok {
				return p.canon(sym)
			}
		}
		if t, ok := p.fileImports(*s.FileID)[*e.LocalName]; ok && t.sym != 0 {
			return t.sym
		}
	}
	return 0
}

// fileImports maps a file's local import names to their targets.
func (p *program) fileImports(fileID int64) map[string]target {
	if m, ok := p.importMap[fileID]; ok {
		return m
	}
	m := make(map[string]target)
	p.importMap[fileID] = m
	file := p.fileByID(fileID)
	if file == nil {
		return m
	}
	for _, imp := range p.imports[fileID] {
		if imp.LocalAlias == nil {
			continue
		}
		m[*imp.LocalAlias] = p.importTarget(file, imp)
	}
	return m
}

func (p *program) importTarget(file *store.File, imp *store.Import) target {
	unknown := target{builtin: store.BuiltinUnknown}
	mod := p.resolveModule(file, imp.Source)
	if mod == 0 {
		return unknown
	}
	table := p.exportTable(mod)
	var sym int64
	switch imp.Kind {
	case store.ImportNamespace:
		sym = mod
	case store.ImportRequire:
		if sym = table[nameExportEquals]; sym == 0 {
			sym = mod
		}
	case store.ImportDefault:
		if sym = table[nameDefault]; sym == 0 {
			sym = table[nameExportEquals]
		}
	default:
		if imp.ImportedName != nil {
			sym = table[*imp.ImportedName]
		}
	}
	if sym == 0 {
		return unknown
	}
	return target{sym: p.resolveAlias(sym)}
}

// --- References ---

func (p *program) resolveFile(s *store.Store, f *store.File, out *store.Resolution) {
	refs, err := s.ReferencesByFile(f.ID)
	if err != nil {
		p.err = fmt.Errorf("load references for %s: %w", f.Path, err)
		return
	}
	resolved := make(map[int64]target, len(refs))
	for _, ref := range refs {
		t, kind := p.resolveRef(f, ref, resolved)
		if !t.ok() {
			continue
		}
		resolved[ref.ID] = t
		rr := store.ResolvedReference{ReferenceID: ref.ID, Builtin: t.builtin, ResolutionKind: kind}
		if t.sym != 0 {
			sym := t.sym
			rr.TargetSymbolID = &sym
		}
		out.References = append(out.References, rr)
	}
}

func (p *program) resolveRef(f *store.File, ref *store.Reference, resolved map[int64]target) (target, string) {
	switch ref.Context {
	case store.RefImport:
		t := p.fileImports(f.ID)[ref.Name]
		if t.builtin != "" {
			return t, resolvedBuiltin
		}
		return t, resolvedImport
	case store.RefMember:
		if ref.ObjectReferenceID == nil {
			return target{}, ""
		}
		obj := resolved[*ref.ObjectReferenceID]
		if obj.sym == 0 {
			return target{}, ""
		}
		return p.member(obj.sym, ref.Name), resolvedMember
	case store.RefThisMember:
		cls := p.enclosingClass(ref.ScopeID)
		if cls == 0 {
			return target{}, ""
		}
		return p.member(cls, ref.Name), resolvedThis
	}
	return p.lookup(f, ref.ScopeID, ref.Name)
}

// lookup resolves a name through the scope chain, then the file's imports,
// then program globals.
func (p *program) lookup(f *store.File, scopeID *int64, name string) (target, string) {
	for id := scopeID; id != nil; {
		if sym, ok := p.bindings[*id][name]; ok {
			return target{sym: p.canon(sym)}, resolvedScope
		}
		sc := p.scopes[*id]
		if sc == nil {
			break
		}
		id = sc.ParentScopeID
	}
	if t, ok := p.fileImports(f.ID)[name]; ok {
		if t.builtin != "" {
			return t, resolvedBuiltin
		}
		return t, resolvedImport
	}
	if sym, ok := p.globals[name]; ok {
		return target{sym: p.canon(sym)}, resolvedGlobal
	}
	if name == store.BuiltinUndefined {
		return target{builtin: store.BuiltinUndefined}, resolvedBuiltin
	}
	return target{}, ""
}

// member resolves a property of sym through its export table, then its
// members.
func (p *program) member(sym int64, name string) target {
	sym = p.canon(p.resolveAlias(sym))
	if t, ok := p.exportTable(sym)[name]; ok {
		return target{sym: p.resolveAlias(t)}
	}
	if child, ok := p.members[sym][name]; ok {
		return target{sym: p.canon(child)}
	}
	return target{}
}

func (p *program) enclosingClass(scopeID *int64) int64 {
	for id := scopeID; id != nil; {
		sc := p.scopes[*id]
		if sc == nil {
			return 0
		}
		if sc.Kind == scopeClass && sc.SymbolID != nil {
			return p.canon(*sc.SymbolID)
		}
		id = sc.ParentScopeID
	}
	return 0
}

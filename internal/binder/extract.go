package binder

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/moniker/internal/store"
)

// Version identifies the shape of the data Extract and Resolve write. Bump
// it whenever an existing index must be rebuilt.
const Version = "1"

// Syntax kind names written to the index. They match the names the moniker
// package parses back into syntax kinds.
const (
	kindSourceFile              = "SourceFile"
	kindVariableStatement       = "VariableStatement"
	kindVariableDeclarationList = "VariableDeclarationList"
	kindVariableDeclaration     = "VariableDeclaration"
	kindBindingElement          = "BindingElement"
	kindFunctionDeclaration     = "FunctionDeclaration"
	kindFunctionExpression      = "FunctionExpression"
	kindArrowFunction           = "ArrowFunction"
	kindClassDeclaration        = "ClassDeclaration"
	kindClassExpression         = "ClassExpression"
	kindInterfaceDeclaration    = "InterfaceDeclaration"
	kindTypeAliasDeclaration    = "TypeAliasDeclaration"
	kindEnumDeclaration         = "EnumDeclaration"
	kindEnumMember              = "EnumMember"
	kindModuleDeclaration       = "ModuleDeclaration"
	kindModuleBlock             = "ModuleBlock"
	kindTypeLiteral             = "TypeLiteral"
	kindPropertyDeclaration     = "PropertyDeclaration"
	kindPropertySignature       = "PropertySignature"
	kindMethodDeclaration       = "MethodDeclaration"
	kindMethodSignature         = "MethodSignature"
	kindConstructor             = "Constructor"
	kindGetAccessor             = "GetAccessor"
	kindSetAccessor             = "SetAccessor"
	kindCallSignature           = "CallSignature"
	kindConstructSignature      = "ConstructSignature"
	kindIndexSignature          = "IndexSignature"
	kindParameter               = "Parameter"
	kindExportAssignment        = "ExportAssignment"
	kindExportSpecifier         = "ExportSpecifier"
	kindCatchClause             = "CatchClause"
	kindBlock                   = "Block"
)

// Symbol flag names written to the index.
const (
	flagVariable        = "Variable"
	flagProperty        = "Property"
	flagEnumMember      = "EnumMember"
	flagFunction        = "Function"
	flagClass           = "Class"
	flagInterface       = "Interface"
	flagEnum            = "Enum"
	flagValueModule     = "ValueModule"
	flagNamespaceModule = "NamespaceModule"
	flagTypeLiteral     = "TypeLiteral"
	flagMethod          = "Method"
	flagConstructor     = "Constructor"
	flagSignature       = "Signature"
	flagTypeAlias       = "TypeAlias"
	flagParameter       = "Parameter"
	flagAlias           = "Alias"
	flagSourceFile      = "SourceFile"
)

// Names the compiler assigns to declarations without an identifier.
const (
	nameCall         = "__call"
	nameNew          = "__new"
	nameIndex        = "__index"
	nameConstructor  = "__constructor"
	nameComputed     = "__computed"
	nameType         = "__type"
	nameClass        = "__class"
	nameFunction     = "__function"
	nameDefault      = "default"
	nameExportEquals = "export="
	nameThis         = "this"
)

// Scope kinds.
const (
	scopeFile     = "file"
	scopeFunction = "function"
	scopeBlock    = "block"
	scopeClass    = "class"
	scopeModule   = "module"
)

// none marks an absent index into the extractor's tables.
const none = -1

// Extract parses src and writes the file's symbols, declarations, scopes,
// references, imports and exports to ds. Nothing is written when parsing
// fails.
func Extract(ctx context.Context, ds store.DataStore, fileID int64, path string, src []byte, lang string) error {
	grammar, ok := GrammarForLanguage(lang)
	if !ok {
		return fmt.Errorf("unsupported language %q", lang)
	}
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(grammar)

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	defer tree.Close()

	x := newExtractor(path, src)
	x.program(tree.RootNode())
	if err := x.flush(ds, fileID); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

type xsym struct {
	name    string
	escaped string
	flags   []string
	parent  int
	global  bool
}

func (s *xsym) addFlags(flags ...string) {
	for _, f := range flags {
		found := false
		for _, have := range s.flags {
			if have == f {
				found = true
				break
			}
		}
		if !found {
			s.flags = append(s.flags, f)
		}
	}
}

type xscope struct {
	kind       string
	sym        int
	start, end uint32
	parent     int
}

type xdecl struct {
	sym, scope         int
	name, kind         string
	start, end         uint32
	nameStart, nameEnd uint32
	ancestors          []string
	expr               string
	sig                int
}

type xref struct {
	scope      int
	name       string
	start, end uint32
	context    string
	object     int
}

type xexport struct {
	container int
	name      string
	sym       int
	local     *string
	source    *string
}

// tableKey identifies a symbol table: the members of a parent symbol, or the
// locals of a scope.
type tableKey struct {
	parent, scope int
}

// container describes where a statement list declares its names.
type container struct {
	sym     int  // symbol whose export table receives exported names
	ambient bool // every declaration is exported
	global  bool // top-level declarations are program globals
}

var local = container{sym: none}

type extractor struct {
	path   string
	src    []byte
	module bool

	syms    []xsym
	scopes  []xscope
	decls   []xdecl
	refs    []xref
	imports []store.Import
	exports []xexport

	tables map[tableKey]map[string]int
	kinds  []string
	scope  int
}

func newExtractor(path string, src []byte) *extractor {
	return &extractor{
		path:   path,
		src:    src,
		tables: make(map[tableKey]map[string]int),
		scope:  none,
	}
}

func (x *extractor) text(n *sitter.Node) string {
	return n.Content(x.src)
}

func (x *extractor) program(root *sitter.Node) {
	x.module = isModule(root)
	x.kinds = []string{kindSourceFile}
	x.openScope(scopeFile, none, root)

	c := container{sym: none, global: !x.module}
	if x.module {
		name := `"` + TrimSourceExtension(filepath.ToSlash(x.path)) + `"`
		c.sym = x.newSymbol(name, name, none, false, flagSourceFile, flagValueModule)
		x.decls = append(x.decls, xdecl{
			sym:   c.sym,
			scope: none,
			name:  name,
			kind:  kindSourceFile,
			start: root.StartByte(),
			end:   root.EndByte(),
			sig:   none,
		})
	}
	x.statements(root, c)
}

// isModule reports whether a file has a top-level import or export.
func isModule(root *sitter.Node) bool {
	for i := 0; i < int(root.NamedChildCount()); i++ {
		switch root.NamedChild(i).Type() {
		case "import_statement", "export_statement":
			return true
		}
	}
	return false
}

// --- Symbol tables ---

func (x *extractor) newSymbol(name, escaped string, parent int, global bool, flags ...string) int {
	s := xsym{name: name, escaped: escaped, parent: parent, global: global}
	s.addFlags(flags...)
	x.syms = append(x.syms, s)
	return len(x.syms) - 1
}

func (x *extractor) table(key tableKey) map[string]int {
	t, ok := x.tables[key]
	if !ok {
		t = make(map[string]int)
		x.tables[key] = t
	}
	return t
}

// declInfo describes one declaration handed to declare.
type declInfo struct {
	name      string
	escaped   string // defaults to name
	bindName  string // lexical binding; defaults to name
	nameNode  *sitter.Node
	node      *sitter.Node
	kind      string
	flags     []string
	exported  bool
	bind      bool
	member    bool // parent is the explicit parent below
	parent    int
	inExports bool // member is listed in its parent's export table
	anonymous bool // never merged with a same-named symbol
	signature int  // signature owning a parameter
	linked    bool // signature is set
	expr      string
	ancestors []string
}

// declare records a declaration, merging it into an existing same-named
// symbol of the same table.
func (x *extractor) declare(c container, d declInfo) int {
	if d.escaped == "" {
		d.escaped = d.name
	}
	if d.bindName == "" {
		d.bindName = d.name
	}
	if !d.linked {
		d.signature = none
	}

	parent := none
	switch {
	case d.member:
		parent = d.parent
	case d.exported && c.sym != none:
		parent = c.sym
	}
	key := tableKey{parent: parent, scope: none}
	if parent == none {
		key.scope = x.scope
	}

	sym := none
	if !d.anonymous {
		if existing, ok := x.table(key)[d.escaped]; ok {
			sym = existing
			x.syms[sym].addFlags(d.flags...)
		}
	}
	if sym == none {
		global := c.global && parent == none && !d.anonymous
		sym = x.newSymbol(d.name, d.escaped, parent, global, d.flags...)
		if !d.anonymous {
			x.table(key)[d.escaped] = sym
		}
	}

	decl := xdecl{
		sym:       sym,
		scope:     none,
		name:      d.bindName,
		kind:      d.kind,
		start:     d.node.StartByte(),
		end:       d.node.EndByte(),
		ancestors: d.ancestors,
		expr:      d.expr,
		sig:       d.signature,
	}
	if decl.ancestors == nil {
		decl.ancestors = x.ancestors()
	}
	if d.nameNode != nil {
		decl.nameStart, decl.nameEnd = d.nameNode.StartByte(), d.nameNode.EndByte()
	}
	if d.bind {
		decl.scope = x.scope
	}
	x.decls = append(x.decls, decl)

	if parent != none && (!d.member || d.inExports) {
		x.addExport(parent, d.escaped, sym, nil)
	}
	return sym
}

func (x *extractor) member(parent int, d declInfo) int {
	d.member = true
	d.parent = parent
	return x.declare(local, d)
}

func (x *extractor) addExport(container int, name string, sym int, localName *string) {
	for _, e := range x.exports {
		if e.container == container && e.name == name && e.source == nil {
			return
		}
	}
	x.exports = append(x.exports, xexport{container: container, name: name, sym: sym, local: localName})
}

// --- Scopes and ancestry ---

func (x *extractor) openScope(kind string, sym int, n *sitter.Node) int {
	prev := x.scope
	x.scopes = append(x.scopes, xscope{kind: kind, sym: sym, start: n.StartByte(), end: n.EndByte(), parent: prev})
	x.scope = len(x.scopes) - 1
	return prev
}

func (x *extractor) closeScope(prev int) {
	x.scope = prev
}

func (x *extractor) push(kind string) {
	x.kinds = append(x.kinds, kind)
}

func (x *extractor) pop() {
	x.kinds = x.kinds[:len(x.kinds)-1]
}

// ancestors returns the enclosing syntax kinds, innermost first.
func (x *extractor) ancestors() []string {
	out := make([]string, len(x.kinds))
	for i, k := range x.kinds {
		out[len(x.kinds)-1-i] = k
	}
	return out
}

// --- References ---

func (x *extractor) addRef(n *sitter.Node, context string, object int) int {
	x.refs = append(x.refs, xref{
		scope:   x.scope,
		name:    x.text(n),
		start:   n.StartByte(),
		end:     n.EndByte(),
		context: context,
		object:  object,
	})
	return len(x.refs) - 1
}

// --- Output ---

func (x *extractor) flush(ds store.DataStore, fileID int64) error {
	symIDs := make([]int64, len(x.syms))
	for i, s := range x.syms {
		sym := &store.Symbol{
			FileID:         &fileID,
			Name:           s.name,
			EscapedName:    s.escaped,
			Flags:          s.flags,
			ParentSymbolID: idAt(symIDs, s.parent),
			IsGlobal:       s.global,
		}
		id, err := ds.InsertSymbol(sym)
		if err != nil {
			return fmt.Errorf("insert symbol %s: %w", s.name, err)
		}
		symIDs[i] = id
	}

	scopeIDs := make([]int64, len(x.scopes))
	for i, sc := range x.scopes {
		id, err := ds.InsertScope(&store.Scope{
			FileID:        fileID,
			SymbolID:      idAt(symIDs, sc.sym),
			Kind:          sc.kind,
			StartByte:     int(sc.start),
			EndByte:       int(sc.end),
			ParentScopeID: idAt(scopeIDs, sc.parent),
		})
		if err != nil {
			return fmt.Errorf("insert scope: %w", err)
		}
		scopeIDs[i] = id
	}

	for _, d := range x.decls {
		_, err := ds.InsertDeclaration(&store.Declaration{
			SymbolID:          symIDs[d.sym],
			FileID:            fileID,
			ScopeID:           idAt(scopeIDs, d.scope),
			Name:              d.name,
			Kind:              d.kind,
			StartByte:         int(d.start),
			EndByte:           int(d.end),
			NameStart:         int(d.nameStart),
			NameEnd:           int(d.nameEnd),
			Ancestors:         d.ancestors,
			Expression:        d.expr,
			SignatureSymbolID: idAt(symIDs, d.sig),
		})
		if err != nil {
			return fmt.Errorf("insert declaration %s: %w", d.name, err)
		}
	}

	refIDs := make([]int64, len(x.refs))
	for i, r := range x.refs {
		id, err := ds.InsertReference(&store.Reference{
			FileID:            fileID,
			ScopeID:           idAt(scopeIDs, r.scope),
			Name:              r.name,
			StartByte:         int(r.start),
			EndByte:           int(r.end),
			Context:           r.context,
			ObjectReferenceID: idAt(refIDs, r.object),
		})
		if err != nil {
			return fmt.Errorf("insert reference %s: %w", r.name, err)
		}
		refIDs[i] = id
	}

	for i := range x.imports {
		imp := x.imports[i]
		imp.FileID = fileID
		if _, err := ds.InsertImport(&imp); err != nil {
			return fmt.Errorf("insert import %s: %w", imp.Source, err)
		}
	}

	for _, e := range x.exports {
		_, err := ds.InsertExport(&store.Export{
			FileID:            fileID,
			ContainerSymbolID: symIDs[e.container],
			ExportedName:      e.name,
			SymbolID:          idAt(symIDs, e.sym),
			LocalName:         e.local,
			Source:            e.source,
		})
		if err != nil {
			return fmt.Errorf("insert export %s: %w", e.name, err)
		}
	}

	return ds.SetFileModule(fileID, x.module)
}

func idAt(ids []int64, i int) *int64 {
	if i == none {
		return nil
	}
	v := ids[i]
	return &v
}

// --- Node helpers ---

// hasToken reports whether n has an anonymous child of the given type.
func hasToken(n *sitter.Node, tok string) bool {
	for i := 0; i < int(n.ChildCount()); i++ {
		ch := n.Child(i)
		if !ch.IsNamed() && ch.Type() == tok {
			return true
		}
	}
	return false
}

// token returns the first anonymous child of the given type.
func token(n *sitter.Node, tok string) *sitter.Node {
	for i := 0; i < int(n.ChildCount()); i++ {
		ch := n.Child(i)
		if !ch.IsNamed() && ch.Type() == tok {
			return ch
		}
	}
	return nil
}

func firstNamed(n *sitter.Node, types ...string) *sitter.Node {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		ch := n.NamedChild(i)
		for _, t := range types {
			if ch.Type() == t {
				return ch
			}
		}
	}
	return nil
}

// unquote strips matching string delimiters.
func unquote(s string) string {
	if len(s) >= 2 {
		q := s[0]
		if (q == '"' || q == '\'' || q == '`') && s[len(s)-1] == q {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// propertyName returns the symbol name of a member name node.
func (x *extractor) propertyName(n *sitter.Node) string {
	switch n.Type() {
	case "string":
		return unquote(x.text(n))
	case "computed_property_name":
		if inner := n.NamedChild(0); inner != nil && inner.Type() == "string" {
			return unquote(x.text(inner))
		}
		return nameComputed
	}
	return x.text(n)
}

func isDeclaration(typ string) bool {
	switch typ {
	case "class_declaration", "abstract_class_declaration",
		"function_declaration", "generator_function_declaration", "function_signature",
		"interface_declaration", "type_alias_declaration", "enum_declaration",
		"lexical_declaration", "variable_declaration",
		"internal_module", "module", "ambient_declaration":
		return true
	}
	return false
}

func kindForFunction(typ string) string {
	switch typ {
	case "arrow_function":
		return kindArrowFunction
	case "function_declaration", "generator_function_declaration", "function_signature":
		return kindFunctionDeclaration
	}
	return kindFunctionExpression
}

// nameParts flattens a dotted namespace name into its identifiers.
func nameParts(n *sitter.Node) []*sitter.Node {
	switch n.Type() {
	case "nested_identifier", "member_expression":
		var parts []*sitter.Node
		for i := 0; i < int(n.NamedChildCount()); i++ {
			parts = append(parts, nameParts(n.NamedChild(i))...)
		}
		return parts
	}
	return []*sitter.Node{n}
}

func isParameterProperty(p *sitter.Node) bool {
	if firstNamed(p, "accessibility_modifier", "override_modifier") != nil {
		return true
	}
	return hasToken(p, "readonly")
}

func trimmedSource(s string) *string {
	v := strings.TrimSpace(unquote(s))
	return &v
}

package binder

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/moniker/internal/store"
)

// --- Classes ---

func (x *extractor) class(n *sitter.Node, c container, kind string, exported, isDefault bool) int {
	name := n.ChildByFieldName("name")
	d := declInfo{
		node:     n,
		nameNode: name,
		kind:     kind,
		flags:    []string{flagClass},
		exported: exported,
		bind:     name != nil && kind == kindClassDeclaration,
	}
	switch {
	case isDefault:
		d.name = nameDefault
		if name != nil {
			d.bindName = x.text(name)
		}
	case name != nil:
		d.name = x.text(name)
	default:
		d.name = nameClass
		d.anonymous = true
	}
	if kind == kindClassExpression {
		d.anonymous = true
	}
	sym := x.declare(c, d)

	for i := 0; i < int(n.NamedChildCount()); i++ {
		if ch := n.NamedChild(i); ch.Type() == "class_heritage" || ch.Type() == "decorator" {
			x.walk(ch)
		}
	}

	x.push(kind)
	prev := x.openScope(scopeClass, sym, n)
	if body := n.ChildByFieldName("body"); body != nil {
		for i := 0; i < int(body.NamedChildCount()); i++ {
			x.classMember(body.NamedChild(i), sym)
		}
	}
	x.closeScope(prev)
	x.pop()
	return sym
}

func (x *extractor) classMember(m *sitter.Node, cls int) {
	switch m.Type() {
	case "method_definition", "method_signature", "abstract_method_signature":
		nameNode := m.ChildByFieldName("name")
		if nameNode == nil {
			return
		}
		d := declInfo{
			name:     x.propertyName(nameNode),
			nameNode: nameNode,
			node:     m,
			kind:     kindMethodDeclaration,
			flags:    []string{flagMethod},
		}
		switch {
		case d.name == "constructor":
			d.name = nameConstructor
			d.kind = kindConstructor
			d.flags = []string{flagConstructor}
		case hasToken(m, "get"):
			d.kind = kindGetAccessor
			d.flags = []string{flagProperty}
		case hasToken(m, "set"):
			d.kind = kindSetAccessor
			d.flags = []string{flagProperty}
		}
		if nameNode.Type() == "computed_property_name" {
			x.walk(nameNode)
		}
		sym := x.member(cls, d)
		if d.kind == kindConstructor {
			x.function(m, d.kind, none, cls)
			return
		}
		x.function(m, d.kind, sym, none)
	case "public_field_definition", "property_signature":
		nameNode := m.ChildByFieldName("name")
		if nameNode == nil {
			return
		}
		x.member(cls, declInfo{
			name:     x.propertyName(nameNode),
			nameNode: nameNode,
			node:     m,
			kind:     kindPropertyDeclaration,
			flags:    []string{flagProperty},
		})
		x.push(kindPropertyDeclaration)
		x.walk(m.ChildByFieldName("type"))
		x.walk(m.ChildByFieldName("value"))
		x.pop()
	case "index_signature":
		x.member(cls, declInfo{
			name:      nameIndex,
			node:      m,
			kind:      kindIndexSignature,
			flags:     []string{flagSignature},
			anonymous: true,
		})
		x.walk(m.ChildByFieldName("type"))
	default:
		x.walk(m)
	}
}

// --- Interfaces and type literals ---

func (x *extractor) interfaceDeclaration(n *sitter.Node, c container, exported bool) {
	name := n.ChildByFieldName("name")
	if name == nil {
		return
	}
	sym := x.declare(c, declInfo{
		name:     x.text(name),
		nameNode: name,
		node:     n,
		kind:     kindInterfaceDeclaration,
		flags:    []string{flagInterface},
		exported: exported,
		bind:     true,
	})
	if ext := firstNamed(n, "extends_type_clause"); ext != nil {
		x.walk(ext)
	}
	x.push(kindInterfaceDeclaration)
	x.typeMembers(n.ChildByFieldName("body"), sym)
	x.pop()
}

func (x *extractor) typeLiteral(n *sitter.Node) {
	sym := x.declare(local, declInfo{
		name:      nameType,
		node:      n,
		kind:      kindTypeLiteral,
		flags:     []string{flagTypeLiteral},
		anonymous: true,
	})
	x.push(kindTypeLiteral)
	x.typeMembers(n, sym)
	x.pop()
}

func (x *extractor) typeMembers(body *sitter.Node, owner int) {
	if body == nil {
		return
	}
	for i := 0; i < int(body.NamedChildCount()); i++ {
		m := body.NamedChild(i)
		switch m.Type() {
		case "property_signature":
			nameNode := m.ChildByFieldName("name")
			if nameNode == nil {
				continue
			}
			x.member(owner, declInfo{
				name:     x.propertyName(nameNode),
				nameNode: nameNode,
				node:     m,
				kind:     kindPropertySignature,
				flags:    []string{flagProperty},
			})
			x.push(kindPropertySignature)
			x.walk(m.ChildByFieldName("type"))
			x.pop()
		case "method_signature":
			nameNode := m.ChildByFieldName("name")
			if nameNode == nil {
				continue
			}
			sym := x.member(owner, declInfo{
				name:     x.propertyName(nameNode),
				nameNode: nameNode,
				node:     m,
				kind:     kindMethodSignature,
				flags:    []string{flagMethod},
			})
			x.function(m, kindMethodSignature, sym, none)
		case "call_signature":
			x.member(owner, declInfo{name: nameCall, node: m, kind: kindCallSignature, flags: []string{flagSignature}})
			x.function(m, kindCallSignature, none, none)
		case "construct_signature":
			x.member(owner, declInfo{name: nameNew, node: m, kind: kindConstructSignature, flags: []string{flagSignature}})
			x.function(m, kindConstructSignature, none, none)
		case "index_signature":
			x.member(owner, declInfo{name: nameIndex, node: m, kind: kindIndexSignature, flags: []string{flagSignature}})
			x.walk(m.ChildByFieldName("type"))
		default:
			x.walk(m)
		}
	}
}

func (x *extractor) typeAlias(n *sitter.Node, c container, exported bool) {
	name := n.ChildByFieldName("name")
	if name == nil {
		return
	}
	x.declare(c, declInfo{
		name:     x.text(name),
		nameNode: name,
		node:     n,
		kind:     kindTypeAliasDeclaration,
		flags:    []string{flagTypeAlias},
		exported: exported,
		bind:     true,
	})
	x.push(kindTypeAliasDeclaration)
	x.walk(n.ChildByFieldName("value"))
	x.pop()
}

// --- Enums ---

func (x *extractor) enum(n *sitter.Node, c container, exported bool) {
	name := n.ChildByFieldName("name")
	if name == nil {
		return
	}
	sym := x.declare(c, declInfo{
		name:     x.text(name),
		nameNode: name,
		node:     n,
		kind:     kindEnumDeclaration,
		flags:    []string{flagEnum},
		exported: exported,
		bind:     true,
	})
	body := n.ChildByFieldName("body")
	if body == nil {
		return
	}
	x.push(kindEnumDeclaration)
	for i := 0; i < int(body.NamedChildCount()); i++ {
		m := body.NamedChild(i)
		nameNode := m
		if m.Type() == "enum_assignment" {
			nameNode = m.ChildByFieldName("name")
		}
		switch nameNode.Type() {
		case "property_identifier", "string", "number":
		default:
			continue
		}
		x.member(sym, declInfo{
			name:      x.propertyName(nameNode),
			nameNode:  nameNode,
			node:      m,
			kind:      kindEnumMember,
			flags:     []string{flagEnumMember},
			inExports: true,
		})
		if m.Type() == "enum_assignment" {
			x.walk(m.ChildByFieldName("value"))
		}
	}
	x.pop()
}

// --- Namespaces and ambient declarations ---

// namespace declares `namespace A.B.C {}` as a chain of module symbols,
// each inner one exported from its outer one. String-named modules declare
// ambient external modules.
func (x *extractor) namespace(n *sitter.Node, c container, exported bool) {
	name := n.ChildByFieldName("name")
	if name == nil {
		return
	}
	flags := []string{flagNamespaceModule}
	if name.Type() == "string" {
		flags = []string{flagValueModule}
	}

	sym := none
	cc := c
	depth := 0
	for i, part := range nameParts(name) {
		d := declInfo{
			name:     x.text(part),
			nameNode: part,
			node:     n,
			kind:     kindModuleDeclaration,
			flags:    flags,
			exported: exported,
			bind:     i == 0,
		}
		if i > 0 {
			cc = container{sym: sym, ambient: c.ambient}
			d.exported = true
		}
		sym = x.declare(cc, d)
		x.push(kindModuleDeclaration)
		depth++
	}

	if body := n.ChildByFieldName("body"); body != nil {
		x.push(kindModuleBlock)
		prev := x.openScope(scopeModule, sym, body)
		x.statements(body, container{sym: sym, ambient: c.ambient})
		x.closeScope(prev)
		x.pop()
	}
	for ; depth > 0; depth-- {
		x.pop()
	}
}

// ambient handles `declare ...`. Namespaces declared this way export all of
// their members. `declare global {}` contributes program globals.
func (x *extractor) ambient(n *sitter.Node, c container, exported bool) {
	if hasToken(n, "global") {
		if body := firstNamed(n, "statement_block"); body != nil {
			x.push(kindModuleBlock)
			x.statements(body, container{sym: none, ambient: true, global: true})
			x.pop()
		}
		return
	}
	ac := c
	ac.ambient = true
	for i := 0; i < int(n.NamedChildCount()); i++ {
		ch := n.NamedChild(i)
		if isDeclaration(ch.Type()) {
			x.declaration(ch, ac, exported, false)
		}
	}
}

// --- Imports and exports ---

func (x *extractor) importStatement(n *sitter.Node) {
	source := n.ChildByFieldName("source")
	for i := 0; i < int(n.NamedChildCount()); i++ {
		ch := n.NamedChild(i)
		switch ch.Type() {
		case "import_clause":
			if source != nil {
				x.importClause(ch, unquote(x.text(source)))
			}
		case "import_require_clause":
			src := ch.ChildByFieldName("source")
			if src == nil {
				src = source
			}
			id := firstNamed(ch, "identifier")
			if src != nil && id != nil {
				x.addImport(unquote(x.text(src)), nil, id, store.ImportRequire)
			}
		}
	}
}

func (x *extractor) importClause(cl *sitter.Node, source string) {
	for i := 0; i < int(cl.NamedChildCount()); i++ {
		ch := cl.NamedChild(i)
		switch ch.Type() {
		case "identifier":
			imported := nameDefault
			x.addImport(source, &imported, ch, store.ImportDefault)
		case "namespace_import":
			if id := firstNamed(ch, "identifier"); id != nil {
				x.addImport(source, nil, id, store.ImportNamespace)
			}
		case "named_imports":
			for j := 0; j < int(ch.NamedChildCount()); j++ {
				spec := ch.NamedChild(j)
				if spec.Type() != "import_specifier" {
					continue
				}
				name := spec.ChildByFieldName("name")
				if name == nil {
					continue
				}
				imported := unquote(x.text(name))
				localNode := name
				if alias := spec.ChildByFieldName("alias"); alias != nil {
					localNode = alias
				}
				idx := x.addImport(source, &imported, localNode, store.ImportNamed)
				if localNode != name {
					x.refs = append(x.refs, xref{
						scope:   x.scope,
						name:    x.refs[idx].name,
						start:   name.StartByte(),
						end:     name.EndByte(),
						context: store.RefImport,
						object:  none,
					})
				}
			}
		}
	}
}

// addImport records an import binding and the import reference at its local
// name, returning the reference.
func (x *extractor) addImport(source string, imported *string, localNode *sitter.Node, kind string) int {
	alias := x.text(localNode)
	x.imports = append(x.imports, store.Import{
		Source:       source,
		ImportedName: imported,
		LocalAlias:   &alias,
		Kind:         kind,
		StartByte:    int(localNode.StartByte()),
		EndByte:      int(localNode.EndByte()),
	})
	return x.addRef(localNode, store.RefImport, none)
}

func (x *extractor) exportStatement(n *sitter.Node, c container) {
	isDefault := hasToken(n, "default")
	if decl := n.ChildByFieldName("declaration"); decl != nil {
		x.declaration(decl, c, true, isDefault)
		return
	}
	if value := n.ChildByFieldName("value"); value != nil && isDefault {
		switch value.Type() {
		case "class", "function_expression", "function", "generator_function":
			x.declaration(value, c, true, true)
		default:
			x.exportAssignment(n, value, c, nameDefault, token(n, "default"))
		}
		return
	}
	if hasToken(n, "=") {
		if value := n.NamedChild(int(n.NamedChildCount()) - 1); value != nil {
			x.exportAssignment(n, value, c, nameExportEquals, token(n, "export"))
		}
		return
	}
	if c.sym == none {
		return
	}

	var source *string
	if src := n.ChildByFieldName("source"); src != nil {
		source = trimmedSource(x.text(src))
	}
	clause := firstNamed(n, "export_clause")
	nsExport := firstNamed(n, "namespace_export")
	switch {
	case clause != nil:
		x.exportClause(clause, c, source)
	case nsExport != nil && source != nil:
		if id := nsExport.NamedChild(0); id != nil {
			star := "*"
			x.exports = append(x.exports, xexport{container: c.sym, name: unquote(x.text(id)), sym: none, local: &star, source: source})
		}
	case hasToken(n, "*") && source != nil:
		x.exports = append(x.exports, xexport{container: c.sym, name: "*", sym: none, source: source})
	}
}

// exportAssignment declares the alias created by `export default expr` or
// `export = expr`.
func (x *extractor) exportAssignment(n, value *sitter.Node, c container, name string, keyword *sitter.Node) {
	x.declare(c, declInfo{
		name:     name,
		nameNode: keyword,
		node:     n,
		kind:     kindExportAssignment,
		flags:    []string{flagAlias},
		exported: true,
		expr:     x.text(value),
	})
	x.walk(value)
}

func (x *extractor) exportClause(clause *sitter.Node, c container, source *string) {
	for i := 0; i < int(clause.NamedChildCount()); i++ {
		spec := clause.NamedChild(i)
		if spec.Type() != "export_specifier" {
			continue
		}
		name := spec.ChildByFieldName("name")
		if name == nil {
			continue
		}
		localName := unquote(x.text(name))
		alias := spec.ChildByFieldName("alias")
		exportedName := localName
		if alias != nil {
			exportedName = unquote(x.text(alias))
		}

		if source != nil {
			x.exports = append(x.exports, xexport{container: c.sym, name: exportedName, sym: none, local: &localName, source: source})
			continue
		}
		x.addRef(name, store.RefExport, none)
		sym := x.declare(local, declInfo{
			name:     exportedName,
			nameNode: alias,
			node:     spec,
			kind:     kindExportSpecifier,
			flags:    []string{flagAlias},
			member:   true,
			parent:   c.sym,
		})
		x.addExport(c.sym, exportedName, sym, &localName)
	}
}

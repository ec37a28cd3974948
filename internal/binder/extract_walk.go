package binder

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/moniker/internal/store"
)

func (x *extractor) statements(n *sitter.Node, c container) {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		x.statement(n.NamedChild(i), c)
	}
}

func (x *extractor) statement(n *sitter.Node, c container) {
	exported := c.ambient && c.sym != none
	switch n.Type() {
	case "import_statement":
		x.importStatement(n)
	case "export_statement":
		x.exportStatement(n, c)
	case "expression_statement":
		// `namespace N {}` parses as an expression statement.
		if inner := n.NamedChild(0); inner != nil && (inner.Type() == "internal_module" || inner.Type() == "module") {
			x.declaration(inner, c, exported, false)
			return
		}
		x.walk(n)
	default:
		if isDeclaration(n.Type()) {
			x.declaration(n, c, exported, false)
			return
		}
		x.walk(n)
	}
}

func (x *extractor) declaration(n *sitter.Node, c container, exported, isDefault bool) {
	switch n.Type() {
	case "class_declaration", "abstract_class_declaration", "class":
		x.class(n, c, kindClassDeclaration, exported, isDefault)
	case "function_declaration", "generator_function_declaration", "function_signature",
		"function_expression", "function", "generator_function":
		x.functionDeclaration(n, c, exported, isDefault)
	case "interface_declaration":
		x.interfaceDeclaration(n, c, exported)
	case "type_alias_declaration":
		x.typeAlias(n, c, exported)
	case "enum_declaration":
		x.enum(n, c, exported)
	case "lexical_declaration", "variable_declaration":
		x.variables(n, c, exported)
	case "internal_module", "module":
		x.namespace(n, c, exported)
	case "ambient_declaration":
		x.ambient(n, c, exported)
	default:
		x.walk(n)
	}
}

// walk visits a subtree outside declaration position, recording references
// and any nested declarations.
func (x *extractor) walk(n *sitter.Node) {
	if n == nil {
		return
	}
	switch n.Type() {
	case "identifier", "type_identifier", "shorthand_property_identifier", "undefined":
		x.addRef(n, store.RefIdentifier, none)
	case "member_expression", "nested_type_identifier", "nested_identifier":
		x.refExpr(n)
	case "statement_block":
		x.block(n)
	case "arrow_function", "function_expression", "function", "generator_function":
		x.function(n, kindForFunction(n.Type()), none, none)
	case "class":
		x.class(n, local, kindClassExpression, false, false)
	case "object_type":
		x.typeLiteral(n)
	case "for_in_statement":
		x.forIn(n)
	case "for_statement":
		prev := x.openScope(scopeBlock, none, n)
		x.walkChildren(n)
		x.closeScope(prev)
	case "catch_clause":
		x.catchClause(n)
	case "formal_parameters":
		// Parameter names of function types are not bindings.
		for i := 0; i < int(n.NamedChildCount()); i++ {
			p := n.NamedChild(i)
			x.walk(p.ChildByFieldName("type"))
		}
	case "type_parameters", "property_identifier", "private_property_name",
		"statement_identifier", "this", "string", "template_string", "number",
		"regex", "comment", "predefined_type":
	default:
		if isDeclaration(n.Type()) {
			x.declaration(n, local, false, false)
			return
		}
		x.walkChildren(n)
	}
}

func (x *extractor) walkChildren(n *sitter.Node) {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		x.walk(n.NamedChild(i))
	}
}

// refExpr records the references of a name or property access chain and
// returns the reference for the outermost name, or none.
func (x *extractor) refExpr(n *sitter.Node) int {
	if n == nil {
		return none
	}
	switch n.Type() {
	case "identifier", "type_identifier", "shorthand_property_identifier", "undefined":
		return x.addRef(n, store.RefIdentifier, none)
	case "member_expression":
		obj := n.ChildByFieldName("object")
		prop := n.ChildByFieldName("property")
		if obj != nil && obj.Type() == "this" {
			if prop != nil {
				return x.addRef(prop, store.RefThisMember, none)
			}
			return none
		}
		object := x.refExpr(obj)
		if object == none || prop == nil {
			return none
		}
		return x.addRef(prop, store.RefMember, object)
	case "nested_type_identifier":
		object := x.refExpr(n.ChildByFieldName("module"))
		name := n.ChildByFieldName("name")
		if object == none || name == nil {
			return none
		}
		return x.addRef(name, store.RefMember, object)
	case "nested_identifier":
		count := int(n.NamedChildCount())
		if count < 2 {
			return none
		}
		object := x.refExpr(n.NamedChild(0))
		if object == none {
			return none
		}
		return x.addRef(n.NamedChild(count-1), store.RefMember, object)
	case "parenthesized_expression", "non_null_expression":
		if inner := n.NamedChild(0); inner != nil {
			return x.refExpr(inner)
		}
		return none
	}
	x.walk(n)
	return none
}

func (x *extractor) block(n *sitter.Node) {
	x.push(kindBlock)
	prev := x.openScope(scopeBlock, none, n)
	x.statements(n, local)
	x.closeScope(prev)
	x.pop()
}

// --- Functions and parameters ---

// function visits a function-like node: its parameters, return type and
// body. Parameters link to sig when the function is named. owner receives
// parameter properties.
func (x *extractor) function(n *sitter.Node, kind string, sig, owner int) {
	x.push(kind)
	prev := x.openScope(scopeFunction, none, n)
	x.parameters(n, sig, owner)
	x.walk(n.ChildByFieldName("return_type"))
	if body := n.ChildByFieldName("body"); body != nil {
		if body.Type() == "statement_block" {
			x.push(kindBlock)
			x.statements(body, local)
			x.pop()
		} else {
			x.walk(body)
		}
	}
	x.closeScope(prev)
	x.pop()
}

func (x *extractor) parameters(n *sitter.Node, sig, owner int) {
	if p := n.ChildByFieldName("parameter"); p != nil {
		x.parameter(p, p, sig)
		return
	}
	params := n.ChildByFieldName("parameters")
	if params == nil {
		return
	}
	for i := 0; i < int(params.NamedChildCount()); i++ {
		p := params.NamedChild(i)
		switch p.Type() {
		case "required_parameter", "optional_parameter":
			pattern := p.ChildByFieldName("pattern")
			if pattern == nil {
				continue
			}
			x.parameter(pattern, p, sig)
			if owner != none && pattern.Type() == "identifier" && isParameterProperty(p) {
				x.member(owner, declInfo{
					name:     x.text(pattern),
					nameNode: pattern,
					node:     p,
					kind:     kindParameter,
					flags:    []string{flagProperty},
				})
			}
			x.walk(p.ChildByFieldName("type"))
			x.walk(p.ChildByFieldName("value"))
		case "comment":
		default:
			x.parameter(p, p, sig)
		}
	}
}

// parameter declares the names bound by one parameter pattern.
func (x *extractor) parameter(pattern, node *sitter.Node, sig int) {
	if pattern.Type() == "this" {
		x.declare(local, declInfo{
			name:      nameThis,
			nameNode:  pattern,
			node:      node,
			kind:      kindParameter,
			flags:     []string{flagParameter},
			anonymous: true,
			signature: sig,
			linked:    sig != none,
		})
		return
	}
	x.bindPattern(pattern, func(id *sitter.Node, nested bool) {
		d := declInfo{
			name:     x.text(id),
			nameNode: id,
			node:     node,
			kind:     kindParameter,
			flags:    []string{flagParameter},
			bind:     true,
		}
		if nested {
			d.kind = kindBindingElement
			d.node = id
		} else {
			d.signature, d.linked = sig, sig != none
		}
		x.declare(local, d)
	})
}

// bindPattern calls bind for every identifier a binding pattern introduces.
// nested is false only for a plain identifier pattern.
func (x *extractor) bindPattern(p *sitter.Node, bind func(id *sitter.Node, nested bool)) {
	var visit func(n *sitter.Node, nested bool)
	visit = func(n *sitter.Node, nested bool) {
		if n == nil {
			return
		}
		switch n.Type() {
		case "identifier", "shorthand_property_identifier_pattern":
			bind(n, nested)
		case "assignment_pattern", "object_assignment_pattern":
			visit(n.ChildByFieldName("left"), nested)
			x.walk(n.ChildByFieldName("right"))
		case "rest_pattern":
			visit(n.NamedChild(0), nested)
		case "pair_pattern":
			visit(n.ChildByFieldName("value"), true)
		case "object_pattern", "array_pattern":
			for i := 0; i < int(n.NamedChildCount()); i++ {
				visit(n.NamedChild(i), true)
			}
		}
	}
	visit(p, false)
}

func (x *extractor) functionDeclaration(n *sitter.Node, c container, exported, isDefault bool) {
	name := n.ChildByFieldName("name")
	d := declInfo{
		node:     n,
		nameNode: name,
		kind:     kindFunctionDeclaration,
		flags:    []string{flagFunction},
		exported: exported,
		bind:     name != nil,
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
		d.name = nameFunction
		d.anonymous = true
	}
	sym := x.declare(c, d)
	sig := none
	if name != nil {
		sig = sym
	}
	x.function(n, kindFunctionDeclaration, sig, none)
}

// --- Variables ---

func (x *extractor) variables(n *sitter.Node, c container, exported bool) {
	x.push(kindVariableStatement)
	x.push(kindVariableDeclarationList)
	for i := 0; i < int(n.NamedChildCount()); i++ {
		decl := n.NamedChild(i)
		if decl.Type() != "variable_declarator" {
			continue
		}
		x.bindPattern(decl.ChildByFieldName("name"), func(id *sitter.Node, nested bool) {
			d := declInfo{
				name:     x.text(id),
				nameNode: id,
				node:     decl,
				kind:     kindVariableDeclaration,
				flags:    []string{flagVariable},
				exported: exported,
				bind:     true,
			}
			if nested {
				d.kind = kindBindingElement
				d.node = id
			}
			x.declare(c, d)
		})
		x.push(kindVariableDeclaration)
		x.walk(decl.ChildByFieldName("type"))
		x.walk(decl.ChildByFieldName("value"))
		x.pop()
	}
	x.pop()
	x.pop()
}

func (x *extractor) forIn(n *sitter.Node) {
	prev := x.openScope(scopeBlock, none, n)
	left := n.ChildByFieldName("left")
	if hasToken(n, "const") || hasToken(n, "let") || hasToken(n, "var") {
		x.bindPattern(left, func(id *sitter.Node, _ bool) {
			x.declare(local, declInfo{
				name:     x.text(id),
				nameNode: id,
				node:     left,
				kind:     kindVariableDeclaration,
				flags:    []string{flagVariable},
				bind:     true,
			})
		})
	} else {
		x.walk(left)
	}
	x.walk(n.ChildByFieldName("right"))
	x.walk(n.ChildByFieldName("body"))
	x.closeScope(prev)
}

func (x *extractor) catchClause(n *sitter.Node) {
	x.push(kindCatchClause)
	prev := x.openScope(scopeBlock, none, n)
	if param := n.ChildByFieldName("parameter"); param != nil {
		x.bindPattern(param, func(id *sitter.Node, _ bool) {
			x.declare(local, declInfo{
				name:     x.text(id),
				nameNode: id,
				node:     param,
				kind:     kindVariableDeclaration,
				flags:    []string{flagVariable},
				bind:     true,
			})
		})
	}
	x.walk(n.ChildByFieldName("body"))
	x.closeScope(prev)
	x.pop()
}

package moniker

// SymbolID is the host resolver's opaque handle for a resolved symbol.
// The zero value never names a symbol.
type SymbolID int64

// NoSymbol is the zero SymbolID.
const NoSymbol SymbolID = 0

// SymbolFlags describes what a symbol is. Only the flags the moniker
// algorithms consult are required from a host; the rest are informational.
type SymbolFlags uint32

const (
	FlagVariable SymbolFlags = 1 << iota
	FlagProperty
	FlagEnumMember
	FlagFunction
	FlagClass
	FlagInterface
	FlagEnum
	FlagValueModule
	FlagNamespaceModule
	FlagTypeLiteral
	FlagMethod
	FlagConstructor
	FlagSignature
	FlagTypeAlias
	FlagParameter
	FlagAlias
	FlagTransient
	FlagSourceFile
)

// Has reports whether all bits of f are set.
func (s SymbolFlags) Has(f SymbolFlags) bool { return s&f == f }

var symbolFlagNames = map[string]SymbolFlags{
	"Variable":        FlagVariable,
	"Property":        FlagProperty,
	"EnumMember":      FlagEnumMember,
	"Function":        FlagFunction,
	"Class":           FlagClass,
	"Interface":       FlagInterface,
	"Enum":            FlagEnum,
	"ValueModule":     FlagValueModule,
	"NamespaceModule": FlagNamespaceModule,
	"TypeLiteral":     FlagTypeLiteral,
	"Method":          FlagMethod,
	"Constructor":     FlagConstructor,
	"Signature":       FlagSignature,
	"TypeAlias":       FlagTypeAlias,
	"Parameter":       FlagParameter,
	"Alias":           FlagAlias,
	"Transient":       FlagTransient,
	"SourceFile":      FlagSourceFile,
}

// ParseSymbolFlags combines flag names as stored in an index. Unknown names
// are ignored.
func ParseSymbolFlags(names []string) SymbolFlags {
	var f SymbolFlags
	for _, n := range names {
		f |= symbolFlagNames[n]
	}
	return f
}

// SyntaxKind is the syntactic kind of a declaration or of one of its
// ancestors. Kind codes are part of the fingerprint input, so existing
// values must never be renumbered.
type SyntaxKind int

const (
	KindUnknown SyntaxKind = iota
	KindSourceFile
	KindVariableStatement
	KindVariableDeclarationList
	KindVariableDeclaration
	KindFunctionDeclaration
	KindClassDeclaration
	KindInterfaceDeclaration
	KindTypeAliasDeclaration
	KindEnumDeclaration
	KindEnumMember
	KindModuleDeclaration
	KindModuleBlock
	KindMethodDeclaration
	KindPropertyDeclaration
	KindConstructor
	KindGetAccessor
	KindSetAccessor
	KindPropertySignature
	KindMethodSignature
	KindCallSignature
	KindConstructSignature
	KindIndexSignature
	KindParameter
	KindTypeLiteral
	KindExportAssignment
	KindExportSpecifier
	KindImportSpecifier
	KindClassExpression
	KindFunctionExpression
	KindArrowFunction
	KindBlock
	KindBindingElement
	KindCatchClause
)

var syntaxKindNames = map[SyntaxKind]string{
	KindUnknown:                 "Unknown",
	KindSourceFile:              "SourceFile",
	KindVariableStatement:       "VariableStatement",
	KindVariableDeclarationList: "VariableDeclarationList",
	KindVariableDeclaration:     "VariableDeclaration",
	KindFunctionDeclaration:     "FunctionDeclaration",
	KindClassDeclaration:        "ClassDeclaration",
	KindInterfaceDeclaration:    "InterfaceDeclaration",
	KindTypeAliasDeclaration:    "TypeAliasDeclaration",
	KindEnumDeclaration:         "EnumDeclaration",
	KindEnumMember:              "EnumMember",
	KindModuleDeclaration:       "ModuleDeclaration",
	KindModuleBlock:             "ModuleBlock",
	KindMethodDeclaration:       "MethodDeclaration",
	KindPropertyDeclaration:     "PropertyDeclaration",
	KindConstructor:             "Constructor",
	KindGetAccessor:             "GetAccessor",
	KindSetAccessor:             "SetAccessor",
	KindPropertySignature:       "PropertySignature",
	KindMethodSignature:         "MethodSignature",
	KindCallSignature:           "CallSignature",
	KindConstructSignature:      "ConstructSignature",
	KindIndexSignature:          "IndexSignature",
	KindParameter:               "Parameter",
	KindTypeLiteral:             "TypeLiteral",
	KindExportAssignment:        "ExportAssignment",
	KindExportSpecifier:         "ExportSpecifier",
	KindImportSpecifier:         "ImportSpecifier",
	KindClassExpression:         "ClassExpression",
	KindFunctionExpression:      "FunctionExpression",
	KindArrowFunction:           "ArrowFunction",
	KindBlock:                   "Block",
	KindBindingElement:          "BindingElement",
	KindCatchClause:             "CatchClause",
}

func (k SyntaxKind) String() string {
	if name, ok := syntaxKindNames[k]; ok {
		return name
	}
	return "Unknown"
}

var syntaxKindsByName = func() map[string]SyntaxKind {
	m := make(map[string]SyntaxKind, len(syntaxKindNames))
	for k, name := range syntaxKindNames {
		m[name] = k
	}
	return m
}()

// ParseSyntaxKind returns the kind named name, or KindUnknown.
func ParseSyntaxKind(name string) SyntaxKind {
	return syntaxKindsByName[name]
}

// Declaration is one syntactic occurrence backing a symbol.
type Declaration struct {
	// File is the owning file's identity.
	File  string
	Start int
	End   int
	Kind  SyntaxKind

	// Ancestors lists the kinds of the enclosing syntax nodes, innermost
	// first, ending at KindSourceFile for file-level code.
	Ancestors []SyntaxKind

	// Expression is the source text of the assigned expression. Set only
	// for KindExportAssignment declarations.
	Expression string

	// Signature is the symbol of the named signature enclosing a
	// parameter declaration, or NoSymbol.
	Signature SymbolID
}

// Resolver is the read-only view of the host symbol graph that moniker
// computation needs. Implementations must be immutable for the lifetime of
// the values computed from them.
type Resolver interface {
	// SymbolAtPosition resolves the symbol touching offset in file.
	SymbolAtPosition(file string, offset int) (SymbolID, bool)
	Declarations(sym SymbolID) []Declaration
	Flags(sym SymbolID) SymbolFlags
	// Name is the declared (display) name.
	Name(sym SymbolID) string
	// EscapedName is the internal name, which differs from Name for
	// compiler-synthesized symbols such as "__call" or "export=".
	EscapedName(sym SymbolID) string
	Parent(sym SymbolID) (SymbolID, bool)
	// Exports returns the container's export table keyed by declared name.
	Exports(container SymbolID) map[string]SymbolID
	// IsFileModule reports whether file has its own module export surface.
	IsFileModule(file string) bool
	UnknownSymbol() SymbolID
	UndefinedSymbol() SymbolID
}

// isSourceFile reports whether sym denotes a source file itself.
func isSourceFile(r Resolver, sym SymbolID) bool {
	decls := r.Declarations(sym)
	return len(decls) == 1 && decls[0].Kind == KindSourceFile
}

// parameterDeclaration returns sym's only declaration when it is a parameter.
func parameterDeclaration(r Resolver, sym SymbolID) (Declaration, bool) {
	decls := r.Declarations(sym)
	if len(decls) != 1 || decls[0].Kind != KindParameter {
		return Declaration{}, false
	}
	return decls[0], true
}

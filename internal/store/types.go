package store

import "time"

// Extraction domain types

type File struct {
	ID          int64
	Path        string
	Language    string
	Hash        string
	IsModule    bool
	LastIndexed time.Time
}

type Symbol struct {
	ID             int64
	FileID         *int64
	Name           string
	EscapedName    string
	Flags          []string
	ParentSymbolID *int64
	IsGlobal       bool
}

// Declaration is one syntactic occurrence of a symbol. Offsets are byte
// offsets into the file. Name is the name the declaration binds in ScopeID,
// which is nil for members that are not lexically visible. Ancestors holds
// the syntax kinds of the enclosing nodes, innermost first.
type Declaration struct {
	ID                int64
	SymbolID          int64
	FileID            int64
	ScopeID           *int64
	Name              string
	Kind              string
	StartByte         int
	EndByte           int
	NameStart         int
	NameEnd           int
	Ancestors         []string
	Expression        string
	SignatureSymbolID *int64
}

type Scope struct {
	ID            int64
	FileID        int64
	SymbolID      *int64
	Kind          string
	StartByte     int
	EndByte       int
	ParentScopeID *int64
}

// Reference contexts.
const (
	RefIdentifier = "identifier"
	RefMember     = "member"
	RefThisMember = "this_member"
	RefImport     = "import"
	RefExport     = "export"
)

type Reference struct {
	ID                int64
	FileID            int64
	ScopeID           *int64
	Name              string
	StartByte         int
	EndByte           int
	Context           string
	ObjectReferenceID *int64
}

// Import kinds.
const (
	ImportNamed     = "named"
	ImportDefault   = "default"
	ImportNamespace = "namespace"
	ImportRequire   = "require"
)

type Import struct {
	ID           int64
	FileID       int64
	Source       string
	ImportedName *string
	LocalAlias   *string
	Kind         string
	StartByte    int
	EndByte      int
}

// Export is an entry of a container's export table. Declared exports carry
// SymbolID; re-exports from another module carry Source and LocalName
// instead and are resolved into Reexport rows.
type Export struct {
	ID                int64
	FileID            int64
	ContainerSymbolID int64
	ExportedName      string
	SymbolID          *int64
	LocalName         *string
	Source            *string
}

// Builtin resolution targets.
const (
	BuiltinUnknown   = "unknown"
	BuiltinUndefined = "undefined"
)

// Resolution domain types

type ResolvedReference struct {
	ID             int64
	ReferenceID    int64
	TargetSymbolID *int64
	Builtin        string
	ResolutionKind string
}

// SymbolMerge records that SymbolID is merged into CanonicalSymbolID.
type SymbolMerge struct {
	ID                int64
	SymbolID          int64
	CanonicalSymbolID int64
}

type Reexport struct {
	ID                int64
	FileID            int64
	ContainerSymbolID int64
	OriginalSymbolID  int64
	ExportedName      string
}

package moniker

// InternalName enumerates the compiler-synthesized pseudo-names that can
// appear as a symbol's escaped name. None of them is a valid identifier, so
// export paths replace them with short stable tokens.
type InternalName int

const (
	InternalCall InternalName = iota
	InternalConstructor
	InternalNew
	InternalIndex
	InternalExportStar
	InternalGlobal
	InternalMissing
	InternalType
	InternalObject
	InternalJSXAttributes
	InternalClass
	InternalFunction
	InternalComputed
	InternalResolving
	InternalExportEquals
	InternalDefault
	InternalThis

	numInternalNames
)

// internalNames is indexed by InternalName. escaped is the pseudo-name as
// the host reports it; token is what export paths embed.
var internalNames = [...]struct {
	escaped string
	token   string
}{
	InternalCall:          {"__call", "1I"},
	InternalConstructor:   {"__constructor", "2I"},
	InternalNew:           {"__new", "3I"},
	InternalIndex:         {"__index", "4I"},
	InternalExportStar:    {"__export", "5I"},
	InternalGlobal:        {"__global", "6I"},
	InternalMissing:       {"__missing", "7I"},
	InternalType:          {"__type", "8I"},
	InternalObject:        {"__object", "9I"},
	InternalJSXAttributes: {"__jsxAttributes", "10I"},
	InternalClass:         {"__class", "11I"},
	InternalFunction:      {"__function", "12I"},
	InternalComputed:      {"__computed", "13I"},
	InternalResolving:     {"__resolving__", "14I"},
	InternalExportEquals:  {"export=", "15I"},
	InternalDefault:       {"default", "16I"},
	InternalThis:          {"this", "17I"},
}

// Adding an InternalName without a table entry fails to compile: the table
// length must equal numInternalNames.
var _ = [1]struct{}{}[len(internalNames)-int(numInternalNames)]

var internalByEscaped = func() map[string]InternalName {
	m := make(map[string]InternalName, numInternalNames)
	for i := InternalName(0); i < numInternalNames; i++ {
		m[internalNames[i].escaped] = i
	}
	return m
}()

// LookupInternalName maps an escaped name to its InternalName.
func LookupInternalName(escaped string) (InternalName, bool) {
	n, ok := internalByEscaped[escaped]
	return n, ok
}

// Token returns the stable export-path token for n.
func (n InternalName) Token() string {
	if n < 0 || n >= numInternalNames {
		return ""
	}
	return internalNames[n].token
}

// Escaped returns the pseudo-name n stands for.
func (n InternalName) Escaped() string {
	if n < 0 || n >= numInternalNames {
		return ""
	}
	return internalNames[n].escaped
}

package moniker

import (
	"sort"
)

// Reserved symbol IDs for the distinguished builtin symbols. Real symbols
// always have positive IDs.
const (
	UnknownSymbolID   SymbolID = -1
	UndefinedSymbolID SymbolID = -2
)

type graphSymbol struct {
	name    string
	escaped string
	flags   SymbolFlags
	parent  SymbolID
	decls   []Declaration
	exports map[string]SymbolID
}

type occurrence struct {
	start, end int
	sym        SymbolID
}

type graphFile struct {
	module      bool
	occurrences []occurrence
}

// Graph is an immutable in-memory symbol graph implementing Resolver.
// Build one with a GraphBuilder or load it from an index with LoadGraph.
type Graph struct {
	symbols map[SymbolID]*graphSymbol
	files   map[string]*graphFile
}

var _ Resolver = (*Graph)(nil)

func (g *Graph) symbol(sym SymbolID) *graphSymbol {
	if s, ok := g.symbols[sym]; ok {
		return s
	}
	return &graphSymbol{}
}

// SymbolAtPosition returns the symbol of the narrowest occurrence in file
// whose span contains offset.
func (g *Graph) SymbolAtPosition(file string, offset int) (SymbolID, bool) {
	occ, ok := g.OccurrenceAt(file, offset)
	if !ok {
		return NoSymbol, false
	}
	return occ.Symbol, true
}

// OccurrenceAt returns the narrowest occurrence in file whose span contains
// offset. Spans are inclusive of their end so a cursor just after an
// identifier still touches it.
func (g *Graph) OccurrenceAt(file string, offset int) (Occurrence, bool) {
	f, ok := g.files[file]
	if !ok {
		return Occurrence{}, false
	}
	best := -1
	for i, occ := range f.occurrences {
		if occ.start > offset {
			break
		}
		if offset > occ.end {
			continue
		}
		if best < 0 || occ.end-occ.start < f.occurrences[best].end-f.occurrences[best].start {
			best = i
		}
	}
	if best < 0 {
		return Occurrence{}, false
	}
	occ := f.occurrences[best]
	return Occurrence{Start: occ.start, End: occ.end, Symbol: occ.sym}, true
}

func (g *Graph) Declarations(sym SymbolID) []Declaration { return g.symbol(sym).decls }
func (g *Graph) Flags(sym SymbolID) SymbolFlags          { return g.symbol(sym).flags }
func (g *Graph) Name(sym SymbolID) string                { return g.symbol(sym).name }
func (g *Graph) EscapedName(sym SymbolID) string         { return g.symbol(sym).escaped }

func (g *Graph) Parent(sym SymbolID) (SymbolID, bool) {
	p := g.symbol(sym).parent
	return p, p != NoSymbol
}

// Exports returns the export table of container. The map must not be
// modified.
func (g *Graph) Exports(container SymbolID) map[string]SymbolID {
	return g.symbol(container).exports
}

func (g *Graph) IsFileModule(file string) bool {
	f, ok := g.files[file]
	return ok && f.module
}

func (g *Graph) UnknownSymbol() SymbolID   { return UnknownSymbolID }
func (g *Graph) UndefinedSymbol() SymbolID { return UndefinedSymbolID }

// Files returns the graph's file identities, sorted.
func (g *Graph) Files() []string {
	files := make([]string, 0, len(g.files))
	for f := range g.files {
		files = append(files, f)
	}
	sort.Strings(files)
	return files
}

// Occurrence is a resolved symbol span in a file.
type Occurrence struct {
	Start  int
	End    int
	Symbol SymbolID
}

// Occurrences returns the resolved spans of file ordered by start offset.
func (g *Graph) Occurrences(file string) []Occurrence {
	f, ok := g.files[file]
	if !ok {
		return nil
	}
	out := make([]Occurrence, len(f.occurrences))
	for i, occ := range f.occurrences {
		out[i] = Occurrence{Start: occ.start, End: occ.end, Symbol: occ.sym}
	}
	return out
}

// GraphBuilder assembles a Graph. It is not safe for concurrent use, and
// must not be used after Build.
type GraphBuilder struct {
	g      *Graph
	nextID SymbolID
}

// NewGraphBuilder returns a builder holding only the builtin symbols.
func NewGraphBuilder() *GraphBuilder {
	g := &Graph{
		symbols: map[SymbolID]*graphSymbol{
			UnknownSymbolID:   {name: "unknown", escaped: "unknown"},
			UndefinedSymbolID: {name: "undefined", escaped: "undefined", flags: FlagVariable},
		},
		files: make(map[string]*graphFile),
	}
	return &GraphBuilder{g: g, nextID: 1}
}

// AddFile registers file. Files referenced only by declarations are added
// implicitly as non-module files.
func (b *GraphBuilder) AddFile(file string, module bool) {
	b.file(file).module = module
}

func (b *GraphBuilder) file(name string) *graphFile {
	f, ok := b.g.files[name]
	if !ok {
		f = &graphFile{}
		b.g.files[name] = f
	}
	return f
}

// AddSymbol adds a symbol whose escaped name equals its name and returns
// its ID.
func (b *GraphBuilder) AddSymbol(name string, flags SymbolFlags, parent SymbolID) SymbolID {
	return b.AddInternalSymbol(name, name, flags, parent)
}

// AddInternalSymbol adds a symbol with a distinct escaped name, such as a
// call signature named "__call".
func (b *GraphBuilder) AddInternalSymbol(name, escaped string, flags SymbolFlags, parent SymbolID) SymbolID {
	id := b.nextID
	b.nextID++
	b.g.symbols[id] = &graphSymbol{name: name, escaped: escaped, flags: flags, parent: parent}
	return id
}

// setSymbol installs a symbol under a caller-chosen ID.
func (b *GraphBuilder) setSymbol(id SymbolID, name, escaped string, flags SymbolFlags, parent SymbolID) {
	b.g.symbols[id] = &graphSymbol{name: name, escaped: escaped, flags: flags, parent: parent}
	if id >= b.nextID {
		b.nextID = id + 1
	}
}

// AddFlags ORs flags into sym.
func (b *GraphBuilder) AddFlags(sym SymbolID, flags SymbolFlags) {
	if s, ok := b.g.symbols[sym]; ok {
		s.flags |= flags
	}
}

// AddDeclaration appends a declaration to sym and registers its file.
func (b *GraphBuilder) AddDeclaration(sym SymbolID, decl Declaration) {
	s, ok := b.g.symbols[sym]
	if !ok {
		return
	}
	b.file(decl.File)
	s.decls = append(s.decls, decl)
}

// AddExport records member in container's export table under name. An
// existing entry is kept.
func (b *GraphBuilder) AddExport(container SymbolID, name string, member SymbolID) {
	s, ok := b.g.symbols[container]
	if !ok {
		return
	}
	if s.exports == nil {
		s.exports = make(map[string]SymbolID)
	}
	if _, exists := s.exports[name]; !exists {
		s.exports[name] = member
	}
}

// AddOccurrence records that [start, end] in file resolves to sym.
func (b *GraphBuilder) AddOccurrence(file string, start, end int, sym SymbolID) {
	f := b.file(file)
	f.occurrences = append(f.occurrences, occurrence{start: start, end: end, sym: sym})
}

// Build finalizes and returns the graph.
func (b *GraphBuilder) Build() *Graph {
	for _, f := range b.g.files {
		sort.SliceStable(f.occurrences, func(i, j int) bool {
			return f.occurrences[i].start < f.occurrences[j].start
		})
	}
	g := b.g
	b.g = nil
	return g
}

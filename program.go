package moniker

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/hashicorp/go-hclog"

	"github.com/jward/moniker/internal/binder"
	"github.com/jward/moniker/internal/runtime"
)

// Program is a loaded, resolved index ready for moniker computation. It is
// safe for concurrent use once returned by Engine.Program.
type Program struct {
	graph   *Graph
	rootDir string
	namer   *runtime.Namer
	logger  hclog.Logger

	strategies map[string]Strategy
	warned     sync.Map // file identity -> struct{}
}

// SymbolMoniker is the moniker of one resolved span.
type SymbolMoniker struct {
	File     string   `json:"file"`
	Start    int      `json:"start"`
	End      int      `json:"end"`
	Symbol   SymbolID `json:"symbol"`
	Name     string   `json:"name"`
	Strategy string   `json:"strategy"`
	Moniker  string   `json:"moniker"`
}

func (p *Program) init() {
	// Strategies live as long as the program so the hash memo is shared.
	p.strategies = map[string]Strategy{
		StrategyExportPath: &ExportPathStrategy{FileScope: p.FileScope},
		StrategyHash:       NewHashStrategy(),
	}
}

// Graph returns the program's symbol graph.
func (p *Program) Graph() *Graph { return p.graph }

// RootDir returns the absolute directory file identities are relative to.
func (p *Program) RootDir() string { return p.rootDir }

// Strategy returns the program's strategy with the given name.
func (p *Program) Strategy(name string) (Strategy, error) {
	s, ok := p.strategies[name]
	if !ok {
		return nil, fmt.Errorf("unknown moniker strategy %q: must be %s or %s", name, StrategyExportPath, StrategyHash)
	}
	return s, nil
}

// Identity maps a path on disk to the program's file identity.
func (p *Program) Identity(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return fileIdentity(p.rootDir, path)
}

// ModulePathNamer is the default file-scope name: the file identity without
// its source extension.
func ModulePathNamer(file string) (string, bool) {
	name := binder.TrimSourceExtension(file)
	return name, name != ""
}

// FileScope names file for the export-path strategy. A naming script, when
// configured, may override the default; script failures fall back to it.
func (p *Program) FileScope(file string) (string, bool) {
	name, ok := ModulePathNamer(file)
	if p.namer == nil {
		return name, ok
	}
	custom, overridden, err := p.namer.Name(context.Background(), file, filepath.Join(p.rootDir, filepath.FromSlash(file)), name)
	if err != nil {
		if _, seen := p.warned.LoadOrStore(file, struct{}{}); !seen {
			p.logger.Warn("naming script failed, using module path", "file", file, "error", err)
		}
		return name, ok
	}
	if overridden {
		return custom, custom != ""
	}
	return name, ok
}

// MonikerAt returns the moniker of the symbol touching offset in path.
func (p *Program) MonikerAt(path string, offset int, s Strategy) (SymbolMoniker, bool) {
	file := p.Identity(path)
	m, ok := GetMonikerAtPosition(p.graph, s, file, offset)
	if !ok {
		return SymbolMoniker{}, false
	}
	occ, _ := p.graph.OccurrenceAt(file, offset)
	return p.symbolMoniker(file, occ, s, m), true
}

// MonikersInFile returns the monikers of every resolved span in path, in
// source order. Spans whose symbol has no moniker under s are omitted.
func (p *Program) MonikersInFile(path string, s Strategy) []SymbolMoniker {
	file := p.Identity(path)
	var out []SymbolMoniker
	for _, occ := range p.graph.Occurrences(file) {
		if m, ok := s.Moniker(p.graph, occ.Symbol); ok {
			out = append(out, p.symbolMoniker(file, occ, s, m))
		}
	}
	return out
}

func (p *Program) symbolMoniker(file string, occ Occurrence, s Strategy, m string) SymbolMoniker {
	return SymbolMoniker{
		File:     file,
		Start:    occ.Start,
		End:      occ.End,
		Symbol:   occ.Symbol,
		Name:     p.graph.Name(occ.Symbol),
		Strategy: s.Name(),
		Moniker:  m,
	}
}

// OffsetFor converts a 1-based line and column into a byte offset in the
// file at path. Columns count bytes.
func OffsetFor(path string, line, col int) (int, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", path, err)
	}
	return offsetIn(src, line, col)
}

func offsetIn(src []byte, line, col int) (int, error) {
	if line < 1 || col < 1 {
		return 0, fmt.Errorf("position %d:%d: line and column are 1-based", line, col)
	}
	offset := 0
	for l := 1; l < line; l++ {
		i := bytes.IndexByte(src[offset:], '\n')
		if i < 0 {
			return 0, fmt.Errorf("position %d:%d: file has %d lines", line, col, l)
		}
		offset += i + 1
	}
	end := len(src)
	if i := bytes.IndexByte(src[offset:], '\n'); i >= 0 {
		end = offset + i
	}
	if offset+col-1 > end {
		return 0, fmt.Errorf("position %d:%d: line has %d columns", line, col, end-offset)
	}
	return offset + col - 1, nil
}

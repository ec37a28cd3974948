// Package moniker computes stable, position-independent identifiers for
// resolved TypeScript and JavaScript symbols.
//
// A moniker names what a symbol is rather than where it appears: every
// occurrence of one symbol yields the same string, and two symbols never
// share one. Monikers are derived on demand and never persisted.
//
// # Strategies
//
// Two strategies implement [Strategy]:
//
//   - [ExportPathStrategy] builds "<file scope>:<export path>", for example
//     "index:MyClass.sum" for a method of an exported class, or ":foo" for a
//     script global. Colons inside either component are doubled.
//   - [HashStrategy] fingerprints a symbol's declaration fragments with
//     SHA-256 over a canonical msgpack encoding, independent of the order
//     the declarations were seen in.
//
// Both read the symbol graph through the [Resolver] interface, so any host
// that can answer its questions can be monikered.
//
// # Pipeline
//
// The [Engine] supplies a Resolver for real code:
//
//  1. Extract: each source file is parsed with tree-sitter and its symbols,
//     declarations, scopes, references, imports and exports are written to
//     SQLite.
//
//  2. Resolve: the whole program is bound: global declarations merge,
//     imports follow module exports, and references resolve through the
//     lexical scope chain.
//
//  3. Program: the resolved index is loaded into an immutable [Graph].
//
// # Usage
//
//	e, err := moniker.New("moniker.db")
//	if err != nil { ... }
//	defer e.Close()
//
//	ctx := context.Background()
//	err = e.IndexDirectory(ctx, "path/to/project")
//	err = e.Resolve(ctx)
//
//	p, err := e.Program("path/to/project/src")
//	s, _ := p.Strategy(moniker.StrategyExportPath)
//	m, ok := p.MonikerAt("path/to/project/src/index.ts", 120, s)
//
// # File scopes
//
// The export-path strategy names a module file by its path relative to the
// program root, without extension. [WithNamingScript] installs a Risor
// script that may return a different name; see the internal/runtime
// package for the globals exposed to it.
package moniker

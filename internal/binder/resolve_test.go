package binder

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/moniker/internal/store"
)

// resolveSources extracts each file and resolves the program.
func resolveSources(t *testing.T, files map[string]string) (*store.Store, map[string]*store.File) {
	t.Helper()
	s := newTestStore(t)
	out := make(map[string]*store.File, len(files))
	for path, src := range files {
		out[path] = extractSource(t, s, path, src)
	}
	require.NoError(t, Resolve(context.Background(), s, nil))
	return s, out
}

// targetOf returns the resolution of the first reference named name in f
// with the given context.
func targetOf(t *testing.T, s *store.Store, f *store.File, name, context string) *store.ResolvedReference {
	t.Helper()
	refs, err := s.ReferencesByFile(f.ID)
	require.NoError(t, err)
	for _, ref := range refs {
		if ref.Name != name || ref.Context != context {
			continue
		}
		rrs, err := s.ResolvedReferencesByRef(ref.ID)
		require.NoError(t, err)
		if len(rrs) == 0 {
			return nil
		}
		return rrs[0]
	}
	t.Fatalf("no %s reference %q in %s", context, name, f.Path)
	return nil
}

func requireTarget(t *testing.T, rr *store.ResolvedReference, want *store.Symbol) {
	t.Helper()
	require.NotNil(t, rr, "reference is unresolved")
	require.NotNil(t, rr.TargetSymbolID, "reference resolved to builtin %q", rr.Builtin)
	assert.Equal(t, want.ID, *rr.TargetSymbolID)
}

// =============================================================================
// Scopes
// =============================================================================

func TestResolve_LexicalScopeShadowing(t *testing.T) {
	t.Parallel()
	s, files := resolveSources(t, map[string]string{
		"/src/a.js": `var x = 1;
function f(x) { return x; }`,
	})
	f := files["/src/a.js"]

	refs, err := s.ReferencesByFile(f.ID)
	require.NoError(t, err)
	require.Len(t, refs, 1)
	rrs, err := s.ResolvedReferencesByRef(refs[0].ID)
	require.NoError(t, err)
	require.Len(t, rrs, 1)

	syms, err := s.SymbolsByName("x")
	require.NoError(t, err)
	require.Len(t, syms, 2)
	assert.Equal(t, syms[1].ID, *rrs[0].TargetSymbolID, "parameter shadows the global")
	assert.Equal(t, resolvedScope, rrs[0].ResolutionKind)
}

func TestResolve_UndefinedIsBuiltin(t *testing.T) {
	t.Parallel()
	s, files := resolveSources(t, map[string]string{
		"/src/a.js": `var y = undefined;`,
	})

	rr := targetOf(t, s, files["/src/a.js"], "undefined", store.RefIdentifier)
	require.NotNil(t, rr)
	assert.Nil(t, rr.TargetSymbolID)
	assert.Equal(t, store.BuiltinUndefined, rr.Builtin)
}

func TestResolve_ThisMember(t *testing.T) {
	t.Parallel()
	s, files := resolveSources(t, map[string]string{
		"/src/c.ts": `export class Counter {
  count = 0;
  inc() { this.count++; }
}`,
	})
	f := files["/src/c.ts"]

	count := symbolNamed(t, s, f.ID, "count")
	requireTarget(t, targetOf(t, s, f, "count", store.RefThisMember), count)
}

// =============================================================================
// Modules
// =============================================================================

func TestResolve_NamedAndDefaultImports(t *testing.T) {
	t.Parallel()
	s, files := resolveSources(t, map[string]string{
		"/src/lib.ts": `export function helper() {}
export default class Widget {}`,
		"/src/app.ts": `import Widget, { helper } from "./lib";
helper();
new Widget();`,
	})
	lib, app := files["/src/lib.ts"], files["/src/app.ts"]

	helper := symbolNamed(t, s, lib.ID, "helper")
	widget := symbolNamed(t, s, lib.ID, "default")

	requireTarget(t, targetOf(t, s, app, "helper", store.RefImport), helper)
	requireTarget(t, targetOf(t, s, app, "helper", store.RefIdentifier), helper)
	requireTarget(t, targetOf(t, s, app, "Widget", store.RefIdentifier), widget)
}

func TestResolve_IndexFileProbing(t *testing.T) {
	t.Parallel()
	s, files := resolveSources(t, map[string]string{
		"/src/util/index.ts": `export const pi = 3.14;`,
		"/src/app.ts":        `import { pi } from "./util";`,
	})

	pi := symbolNamed(t, s, files["/src/util/index.ts"].ID, "pi")
	requireTarget(t, targetOf(t, s, files["/src/app.ts"], "pi", store.RefImport), pi)
}

func TestResolve_UnresolvedImportIsUnknown(t *testing.T) {
	t.Parallel()
	s, files := resolveSources(t, map[string]string{
		"/src/app.ts": `import { useState } from "react";
useState();`,
	})

	rr := targetOf(t, s, files["/src/app.ts"], "useState", store.RefIdentifier)
	require.NotNil(t, rr)
	assert.Equal(t, store.BuiltinUnknown, rr.Builtin)
}

func TestResolve_ReexportsAndAliases(t *testing.T) {
	t.Parallel()
	s, files := resolveSources(t, map[string]string{
		"/src/core.ts":  `export class Engine {}`,
		"/src/local.ts": `function start() {}
export { start as boot };`,
		"/src/index.ts": `export * from "./core";
export { boot as run } from "./local";`,
		"/src/app.ts": `import { Engine, run } from "./index";`,
	})

	engine := symbolNamed(t, s, files["/src/core.ts"].ID, "Engine")
	start := symbolNamed(t, s, files["/src/local.ts"].ID, "start")
	app := files["/src/app.ts"]
	requireTarget(t, targetOf(t, s, app, "Engine", store.RefImport), engine)
	requireTarget(t, targetOf(t, s, app, "run", store.RefImport), start)

	reexports, err := s.ReexportsByFile(files["/src/index.ts"].ID)
	require.NoError(t, err)
	var names []string
	for _, re := range reexports {
		names = append(names, re.ExportedName)
	}
	assert.ElementsMatch(t, []string{"Engine", "run"}, names)
}

func TestResolve_NamespaceMemberAccess(t *testing.T) {
	t.Parallel()
	s, files := resolveSources(t, map[string]string{
		"/src/geo.ts": `export namespace Geo {
  export function dist() { return 0; }
}`,
		"/src/app.ts": `import * as g from "./geo";
g.Geo.dist();`,
	})

	dist := symbolNamed(t, s, files["/src/geo.ts"].ID, "dist")
	requireTarget(t, targetOf(t, s, files["/src/app.ts"], "dist", store.RefMember), dist)
}

func TestResolve_AmbientModule(t *testing.T) {
	t.Parallel()
	s, files := resolveSources(t, map[string]string{
		"/src/types.d.ts": `declare module "vendor" {
  export function go(): void;
}`,
		"/src/app.ts": `import { go } from "vendor";`,
	})

	goSym := symbolNamed(t, s, files["/src/types.d.ts"].ID, "go")
	requireTarget(t, targetOf(t, s, files["/src/app.ts"], "go", store.RefImport), goSym)
}

// =============================================================================
// Global merging
// =============================================================================

func TestResolve_GlobalNamespacesMerge(t *testing.T) {
	t.Parallel()
	s, files := resolveSources(t, map[string]string{
		"/src/a.ts": `namespace App { export const one = 1; }`,
		"/src/b.ts": `namespace App { export const two = 2; }
App.one;`,
	})

	merges, err := s.SymbolMerges()
	require.NoError(t, err)
	require.Len(t, merges, 1)

	one := symbolNamed(t, s, files["/src/a.ts"].ID, "one")
	requireTarget(t, targetOf(t, s, files["/src/b.ts"], "one", store.RefMember), one)
}

func TestResolve_ReplacesPreviousResolution(t *testing.T) {
	t.Parallel()
	s, _ := resolveSources(t, map[string]string{
		"/src/a.js": `function f() {} f();`,
	})
	first, err := s.ResolvedReferencesByFile(1)
	require.NoError(t, err)

	require.NoError(t, Resolve(context.Background(), s, nil))
	second, err := s.ResolvedReferencesByFile(1)
	require.NoError(t, err)
	assert.Len(t, second, len(first))
}

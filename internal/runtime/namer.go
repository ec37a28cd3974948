package runtime

import (
	"context"
	"fmt"
	"sync"

	"github.com/risor-io/risor/object"
)

// Namer computes file-scope names with a Risor naming script. The script
// sees file_path (root-relative, slash separated), abs_path and
// module_name (the default name) as globals. Its last expression is the
// result: a string overrides the name, nil keeps the default.
type Namer struct {
	rt     *Runtime
	label  string
	source string

	mu    sync.Mutex
	names map[string]namerResult
}

type namerResult struct {
	name string
	ok   bool
	err  error
}

// NewNamer loads the naming script once. scriptPath is resolved the same
// way as RunScript.
func NewNamer(rt *Runtime, scriptPath string) (*Namer, error) {
	src, err := rt.LoadScript(scriptPath)
	if err != nil {
		return nil, err
	}
	return &Namer{rt: rt, label: scriptPath, source: src, names: make(map[string]namerResult)}, nil
}

// NewNamerFromSource builds a Namer around inline script source.
func NewNamerFromSource(rt *Runtime, source string) *Namer {
	return &Namer{rt: rt, label: "<inline>", source: source, names: make(map[string]namerResult)}
}

// Name runs the script for one file. ok is false when the script returned
// nil. Results and script failures are memoized per file path; failures
// caused by ctx ending are not.
func (n *Namer) Name(ctx context.Context, filePath, absPath, moduleName string) (string, bool, error) {
	n.mu.Lock()
	if r, hit := n.names[filePath]; hit {
		n.mu.Unlock()
		return r.name, r.ok, r.err
	}
	n.mu.Unlock()

	result, err := n.rt.eval(ctx, n.source, n.label, map[string]any{
		"file_path":   object.NewString(filePath),
		"abs_path":    object.NewString(absPath),
		"module_name": object.NewString(moduleName),
	})
	if err != nil && ctx.Err() != nil {
		return "", false, err
	}

	r := namerResult{err: err}
	if err == nil {
		switch v := result.(type) {
		case *object.String:
			r = namerResult{name: v.Value(), ok: true}
		case nil, *object.NilType:
		default:
			r.err = fmt.Errorf("runtime: naming script %s returned %s, want string or nil", n.label, result.Type())
		}
	}

	n.mu.Lock()
	n.names[filePath] = r
	n.mu.Unlock()
	return r.name, r.ok, r.err
}

package runtime

import (
	"context"
	"path"

	"github.com/hashicorp/go-hclog"
	"github.com/risor-io/risor/object"

	"github.com/jward/moniker/internal/binder"
)

// makeTrimExtFn creates the "trim_ext" host function.
//
// trim_ext(path) → path without its TypeScript/JavaScript extension
func makeTrimExtFn() *object.Builtin {
	return object.NewBuiltin("trim_ext", func(ctx context.Context, args ...object.Object) object.Object {
		p, errObj := stringArg("trim_ext", args)
		if errObj != nil {
			return errObj
		}
		return object.NewString(binder.TrimSourceExtension(p))
	})
}

// makeBaseNameFn creates the "base_name" host function.
//
// base_name(path) → last slash-separated element
func makeBaseNameFn() *object.Builtin {
	return object.NewBuiltin("base_name", func(ctx context.Context, args ...object.Object) object.Object {
		p, errObj := stringArg("base_name", args)
		if errObj != nil {
			return errObj
		}
		return object.NewString(path.Base(p))
	})
}

// makeDirNameFn creates the "dir_name" host function.
//
// dir_name(path) → all but the last slash-separated element
func makeDirNameFn() *object.Builtin {
	return object.NewBuiltin("dir_name", func(ctx context.Context, args ...object.Object) object.Object {
		p, errObj := stringArg("dir_name", args)
		if errObj != nil {
			return errObj
		}
		return object.NewString(path.Dir(p))
	})
}

func stringArg(name string, args []object.Object) (string, object.Object) {
	if len(args) != 1 {
		return "", object.NewArgsError(name, 1, len(args))
	}
	s, ok := args[0].(*object.String)
	if !ok {
		return "", object.Errorf("%s: expected string, got %s", name, args[0].Type())
	}
	return s.Value(), nil
}

// logObject provides log.Info/Warn/Error/Debug methods for Risor scripts.
type logObject struct {
	logger hclog.Logger
}

func (l *logObject) Debug(msg string) {
	l.logger.Debug(msg)
}

func (l *logObject) Info(msg string) {
	l.logger.Info(msg)
}

func (l *logObject) Warn(msg string) {
	l.logger.Warn(msg)
}

func (l *logObject) Error(msg string) {
	l.logger.Error(msg)
}

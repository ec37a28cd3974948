package runtime

import (
	"context"

	"github.com/risor-io/risor/object"

	"github.com/jward/moniker/internal/store"
)

// makeFileInfoFn creates the "file_info" host function.
//
// file_info(path) → {path, language, is_module} or nil when path is not indexed
func makeFileInfoFn(s *store.Store) *object.Builtin {
	return object.NewBuiltin("file_info", func(ctx context.Context, args ...object.Object) object.Object {
		p, errObj := stringArg("file_info", args)
		if errObj != nil {
			return errObj
		}
		f, err := s.FileByPath(p)
		if err != nil {
			return object.Errorf("file_info: %v", err)
		}
		if f == nil {
			return object.Nil
		}
		return fileToMap(f)
	})
}

func fileToMap(f *store.File) *object.Map {
	return object.NewMap(map[string]object.Object{
		"path":      object.NewString(f.Path),
		"language":  object.NewString(f.Language),
		"is_module": object.NewBool(f.IsModule),
	})
}

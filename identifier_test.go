package moniker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeMoniker(t *testing.T) {
	tests := []struct {
		name       string
		sourceFile bool
		scope      ScopeKind
		path       string
		hasPath    bool
		fileScope  string
		want       string
		ok         bool
	}{
		{"module member", false, ScopeModule, "MyClass.sum", true, "index", "index:MyClass.sum", true},
		{"global", false, ScopeGlobal, "foo", true, "script", ":foo", true},
		{"unknown scope", false, ScopeUnknown, "Mixed", true, "[a,b]", ":Mixed", true},
		{"no file scope", false, ScopeModule, "X", true, "", ":X", true},
		{"source file", true, ScopeModule, "", true, "src/index", "src/index:", true},
		{"source file without scope", true, ScopeModule, "", true, "", ":", true},
		{"no path", false, ScopeModule, "", false, "index", "", false},
		{"escaped", false, ScopeModule, "a:b", true, "c:d", "c::d:a::b", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := EncodeMoniker(tt.sourceFile, tt.scope, tt.path, tt.hasPath, tt.fileScope)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSplitMoniker_RoundTrip(t *testing.T) {
	pairs := [][2]string{
		{"index", "MyClass.sum"},
		{"", "foo"},
		{"c:d", "a:b"},
		{"a:", "b"},
		{"pkg/mod", ""},
	}
	for _, p := range pairs {
		m, ok := EncodeMoniker(false, ScopeModule, p[1], true, p[0])
		require.True(t, ok)
		scope, symbol, ok := SplitMoniker(m)
		require.True(t, ok, m)
		if p[0] == "" {
			assert.Empty(t, scope)
		} else {
			assert.Equal(t, p[0], scope, m)
		}
		assert.Equal(t, p[1], symbol, m)
	}
}

func TestSplitMoniker_NoSeparator(t *testing.T) {
	_, _, ok := SplitMoniker("abc::def")
	assert.False(t, ok)
}

package moniker

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInternalNameTokens(t *testing.T) {
	want := map[string]string{
		"__call":          "1I",
		"__constructor":   "2I",
		"__new":           "3I",
		"__index":         "4I",
		"__export":        "5I",
		"__global":        "6I",
		"__missing":       "7I",
		"__type":          "8I",
		"__object":        "9I",
		"__jsxAttributes": "10I",
		"__class":         "11I",
		"__function":      "12I",
		"__computed":      "13I",
		"__resolving__":   "14I",
		"export=":         "15I",
		"default":         "16I",
		"this":            "17I",
	}
	assert.Len(t, want, int(numInternalNames))
	for escaped, token := range want {
		n, ok := LookupInternalName(escaped)
		if assert.True(t, ok, escaped) {
			assert.Equal(t, token, n.Token(), escaped)
			assert.Equal(t, escaped, n.Escaped())
		}
	}
}

func TestLookupInternalName_Unknown(t *testing.T) {
	_, ok := LookupInternalName("__proto__")
	assert.False(t, ok)
	assert.Empty(t, InternalName(-1).Token())
	assert.Empty(t, numInternalNames.Escaped())
}

package moniker

import "strings"

// EncodeMoniker formats the export-path moniker `<scope>:<symbol>`.
// fileScope is empty when no file-scope path is known. It returns false
// when neither component can be produced.
func EncodeMoniker(sourceFile bool, scope ScopeKind, exportPath string, hasExportPath bool, fileScope string) (string, bool) {
	if sourceFile && fileScope != "" {
		return escapeComponent(fileScope) + ":", true
	}
	if !hasExportPath {
		return "", false
	}
	if scope == ScopeGlobal || scope == ScopeUnknown || fileScope == "" {
		return ":" + escapeComponent(exportPath), true
	}
	return escapeComponent(fileScope) + ":" + escapeComponent(exportPath), true
}

func escapeComponent(s string) string {
	return strings.ReplaceAll(s, ":", "::")
}

// SplitMoniker splits an export-path moniker on its first unescaped colon
// and unescapes both components.
func SplitMoniker(m string) (scope, symbol string, ok bool) {
	var b strings.Builder
	for i := 0; i < len(m); i++ {
		if m[i] != ':' {
			b.WriteByte(m[i])
			continue
		}
		if i+1 < len(m) && m[i+1] == ':' {
			b.WriteByte(':')
			i++
			continue
		}
		return b.String(), strings.ReplaceAll(m[i+1:], "::", ":"), true
	}
	return "", "", false
}

// Package scripts embeds the bundled Risor file-scope naming scripts.
package scripts

import "embed"

// FS holds naming/*.risor. Select one with the "embedded:<name>" form of
// the naming script setting.
//
//go:embed naming/*.risor
var FS embed.FS

// Path returns the FS path of the bundled naming script name.
func Path(name string) string {
	return "naming/" + name + ".risor"
}

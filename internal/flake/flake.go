// Package flake renders and edits the generated flake.nix.
//
// The canonical path is Generate, a pure function from package state to
// complete, marker-free flake text. The marker editor in editor.go only
// exists for files written by old nixy versions, which carried managed
// `# [nixy:...]` sections; migration uses it to recover state from them.
package flake

import "strings"

// Description written into every generated flake. Its presence is also how
// nixy recognizes a flake.nix it owns.
const description = "nixy managed packages"

// LocalPackage is a .nix file discovered in the packages directory. It is
// derived by scanning at render time and never persisted.
type LocalPackage struct {
	Name        string
	InputName   string
	InputURL    string
	Overlay     string
	PackageExpr string
}

// LocalFlake is a subdirectory of the packages directory containing its own
// flake.nix.
type LocalFlake struct {
	Name string
}

// IsManaged reports whether flake content was produced by nixy, either by
// the generator or by an old marker-based version.
func IsManaged(content string) bool {
	return strings.Contains(content, `description = "`+description+`"`) ||
		HasMarker(content, "nixy:packages")
}

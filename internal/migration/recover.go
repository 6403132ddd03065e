package migration

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/nixydotdev/nixy/internal/flake"
	"github.com/nixydotdev/nixy/internal/state"
	"github.com/nixydotdev/nixy/internal/ui"
)

// customBindingRe matches the binding shape the marker-era generator wrote
// for custom packages: name = inputs.<input>.<output>.${system}.<source>;
var customBindingRe = regexp.MustCompile(
	`^([A-Za-z_][A-Za-z0-9_-]*)\s*=\s*inputs\.([A-Za-z_][A-Za-z0-9_-]*)\.([A-Za-z_][A-Za-z0-9_]*)\.\$\{system\}\.([A-Za-z_][A-Za-z0-9_-]*);$`)

// inputURLRe matches an input declaration line: <name>.url = "<url>";
var inputURLRe = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_-]*)\.url\s*=\s*"([^"]*)";$`)

// RecoverState rebuilds package state from a marker-based legacy flake that
// has no packages.json next to it. Recovery is best-effort: entries that do
// not match the shapes the old generator wrote are skipped with a warning
// rather than failing the migration.
func RecoverState(content string) *state.PackageState {
	st := state.NewPackageState()

	// Plain packages: only the canonical "name = pkgs.name;" binding is
	// trusted. Aliased or hand-edited bindings are not recoverable as
	// plain packages and are skipped.
	for _, line := range sectionLines(content, "nixy:packages") {
		name, rhs, ok := splitBinding(line)
		if !ok {
			continue
		}
		if rhs == "pkgs."+name+";" {
			st.AddPackage(name)
		}
	}

	inputs := inputURLs(content)

	for _, line := range sectionLines(content, "nixy:custom-packages") {
		m := customBindingRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		name, inputName, output, sourceName := m[1], m[2], m[3], m[4]

		if name != sourceName {
			ui.Warn(fmt.Sprintf("Package '%s' is an alias for '%s'", name, sourceName))
		}

		url, ok := inputs[inputName]
		if !ok {
			ui.Warn(fmt.Sprintf("Skipping package '%s': could not find URL for input '%s'", name, inputName))
			continue
		}

		pkg := state.CustomPackage{
			Name:          name,
			InputName:     inputName,
			InputURL:      url,
			PackageOutput: output,
		}
		if sourceName != name {
			pkg.SourceName = sourceName
		}
		st.AddCustomPackage(pkg)
	}

	return st
}

// inputURLs collects input-name-to-URL bindings from both input sections of
// a marker-based flake.
func inputURLs(content string) map[string]string {
	urls := map[string]string{}
	for _, marker := range []string{"nixy:custom-inputs", "nixy:local-inputs"} {
		for _, line := range sectionLines(content, marker) {
			if m := inputURLRe.FindStringSubmatch(line); m != nil {
				urls[m[1]] = m[2]
			}
		}
	}
	return urls
}

func sectionLines(content, marker string) []string {
	var lines []string
	for _, line := range strings.Split(flake.ExtractSection(content, marker), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func splitBinding(line string) (name, rhs string, ok bool) {
	name, rhs, found := strings.Cut(line, "=")
	if !found {
		return "", "", false
	}
	return strings.TrimSpace(name), strings.TrimSpace(rhs), true
}

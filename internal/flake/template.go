package flake

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/nixydotdev/nixy/internal/state"
)

const defaultNixpkgsURL = "github:NixOS/nixpkgs/nixos-unstable"

// pathEntry is a buildEnv manifest entry with optional platform restrictions.
type pathEntry struct {
	name      string
	platforms []string
}

// builder accumulates the sections of a flake.nix.
type builder struct {
	inputs          strings.Builder
	seenInputs      map[string]bool
	overlays        strings.Builder
	standardEntries strings.Builder
	resolvedEntries strings.Builder
	localEntries    strings.Builder
	customEntries   strings.Builder
	buildEnvPaths   []pathEntry
}

func newBuilder() *builder {
	return &builder{seenInputs: map[string]bool{}}
}

func (b *builder) addInput(name, url string) bool {
	if b.seenInputs[name] {
		return false
	}
	b.seenInputs[name] = true
	fmt.Fprintf(&b.inputs, "    %s.url = %q;\n", name, url)
	return true
}

// addStandardPackages emits plain nixpkgs bindings.
func (b *builder) addStandardPackages(packages []string) {
	for _, pkg := range packages {
		fmt.Fprintf(&b.standardEntries, "          %s = pkgs.%s;\n", pkg, pkg)
		b.buildEnvPaths = append(b.buildEnvPaths, pathEntry{name: pkg})
	}
}

// addResolvedPackages groups packages by nixpkgs commit and declares one
// pinned input per commit. Groups are emitted in sorted commit order so the
// output is deterministic.
func (b *builder) addResolvedPackages(packages []state.ResolvedPackage) {
	byCommit := make(map[string][]state.ResolvedPackage)
	for _, pkg := range packages {
		byCommit[pkg.CommitHash] = append(byCommit[pkg.CommitHash], pkg)
	}

	commits := make([]string, 0, len(byCommit))
	for commit := range byCommit {
		commits = append(commits, commit)
	}
	slices.Sort(commits)

	for _, commit := range commits {
		inputName := "nixpkgs-" + commit[:min(8, len(commit))]
		b.addInput(inputName, "github:NixOS/nixpkgs/"+commit)
		for _, pkg := range byCommit[commit] {
			fmt.Fprintf(&b.resolvedEntries,
				"          %s = inputs.%s.legacyPackages.${system}.%s;\n",
				pkg.Name, inputName, pkg.AttributePath)
			b.buildEnvPaths = append(b.buildEnvPaths, pathEntry{
				name:      pkg.Name,
				platforms: pkg.Platforms,
			})
		}
	}
}

// addLocalFlakes declares one path input per sub-flake in the packages
// directory. Spaces in the path are encoded for the flake URL.
func (b *builder) addLocalFlakes(flakes []LocalFlake, packagesDir string) {
	for _, lf := range flakes {
		url := "path:./packages/" + lf.Name
		if packagesDir != "" {
			url = "path:" + strings.ReplaceAll(filepath.Join(packagesDir, lf.Name), " ", "%20")
		}
		b.addInput(lf.Name, url)
		fmt.Fprintf(&b.localEntries,
			"          %s = inputs.%s.packages.${system}.default;\n", lf.Name, lf.Name)
		b.buildEnvPaths = append(b.buildEnvPaths, pathEntry{name: lf.Name})
	}
}

// addLocalPackages emits entries for .nix files in the packages directory.
func (b *builder) addLocalPackages(packages []LocalPackage, packagesDir string) {
	for _, pkg := range packages {
		if pkg.InputName != "" && pkg.InputURL != "" {
			b.addInput(pkg.InputName, pkg.InputURL)
		}
		if pkg.Overlay != "" {
			fmt.Fprintf(&b.overlays, "          %s\n", pkg.Overlay)
		}

		expr := pkg.PackageExpr
		if packagesDir != "" && expr == fmt.Sprintf("pkgs.callPackage ./packages/%s.nix {}", pkg.Name) {
			absPath := filepath.Join(packagesDir, pkg.Name+".nix")
			if strings.Contains(absPath, " ") {
				expr = fmt.Sprintf("pkgs.callPackage /. + %q {}", absPath)
			} else {
				expr = fmt.Sprintf("pkgs.callPackage %s {}", absPath)
			}
		}

		fmt.Fprintf(&b.localEntries, "          %s = %s;\n", pkg.Name, expr)
		b.buildEnvPaths = append(b.buildEnvPaths, pathEntry{name: pkg.Name})
	}
}

// addCustomPackages emits entries bound through external flake inputs. The
// input name "nixpkgs" refers to the default input already declared in the
// header, so no duplicate declaration is emitted for it.
func (b *builder) addCustomPackages(packages []state.CustomPackage) {
	for _, pkg := range packages {
		if pkg.InputName != "nixpkgs" {
			b.addInput(pkg.InputName, pkg.InputURL)
		}
		fmt.Fprintf(&b.customEntries, "          %s = inputs.%s.%s.${system}.%s;\n",
			pkg.Name, pkg.InputName, pkg.PackageOutput, pkg.SourcePackageName())
		b.buildEnvPaths = append(b.buildEnvPaths, pathEntry{
			name:      pkg.Name,
			platforms: pkg.Platforms,
		})
	}
}

func (b *builder) outputParams() string {
	if len(b.seenInputs) == 0 {
		return "self, nixpkgs"
	}
	names := make([]string, 0, len(b.seenInputs))
	for name := range b.seenInputs {
		names = append(names, name)
	}
	slices.Sort(names)
	return "self, nixpkgs, " + strings.Join(names, ", ")
}

func (b *builder) pkgsDefinition() (def, binding string) {
	if b.overlays.Len() == 0 {
		return "", "let pkgs = nixpkgs.legacyPackages.${system};"
	}
	def = fmt.Sprintf(`pkgsFor = system: import nixpkgs {
        inherit system;
        overlays = [
%s        ];
      };
`, b.overlays.String())
	return def, "let pkgs = pkgsFor system;"
}

// pathsSection renders the buildEnv manifest. Universal packages come
// first; platform-restricted packages are grouped behind lib.optionals
// guards, one group per distinct platform set, in sorted order.
func (b *builder) pathsSection() string {
	var universal []string
	byPlatforms := make(map[string][]string)

	for _, entry := range b.buildEnvPaths {
		if len(entry.platforms) == 0 {
			universal = append(universal, entry.name)
			continue
		}
		sorted := slices.Clone(entry.platforms)
		slices.Sort(sorted)
		key := strings.Join(sorted, " ")
		byPlatforms[key] = append(byPlatforms[key], entry.name)
	}

	var content strings.Builder
	for _, pkg := range universal {
		fmt.Fprintf(&content, "              %s\n", pkg)
	}

	groups := make([]string, 0, len(byPlatforms))
	for key := range byPlatforms {
		groups = append(groups, key)
	}
	slices.Sort(groups)

	for _, key := range groups {
		quoted := make([]string, 0)
		for _, p := range strings.Fields(key) {
			quoted = append(quoted, `"`+p+`"`)
		}
		var pkgs strings.Builder
		for _, name := range byPlatforms[key] {
			fmt.Fprintf(&pkgs, "\n                %s", name)
		}
		fmt.Fprintf(&content,
			"            ] ++ pkgs.lib.optionals (builtins.elem system [ %s ]) [%s\n",
			strings.Join(quoted, " "), pkgs.String())
	}

	return fmt.Sprintf("paths = [\n%s            ];", content.String())
}

func (b *builder) build() string {
	pkgsDef, pkgsBinding := b.pkgsDefinition()
	systems := make([]string, 0)
	for _, s := range state.Systems() {
		systems = append(systems, `"`+s+`"`)
	}

	return fmt.Sprintf(`{
  description = %q;

  inputs = {
    nixpkgs.url = %q;
%s  };

  outputs = { %s }@inputs:
    let
      systems = [ %s ];
      forAllSystems = f: nixpkgs.lib.genAttrs systems (system: f system);
      %s
    in {
      packages = forAllSystems (system:
        %s
        in rec {
%s%s%s%s
          default = pkgs.buildEnv {
            name = "nixy-env";
            %s
            extraOutputsToInstall = [ "man" "doc" "info" ];
          };
        });
    };
}
`,
		description,
		defaultNixpkgsURL,
		b.inputs.String(),
		b.outputParams(),
		strings.Join(systems, " "),
		pkgsDef,
		pkgsBinding,
		b.standardEntries.String(),
		b.resolvedEntries.String(),
		b.localEntries.String(),
		b.customEntries.String(),
		b.pathsSection(),
	)
}

// Generate renders the complete flake.nix for a package state. When
// packagesDir is non-empty it is scanned for local packages and sub-flakes,
// whose names shadow same-named entries in the state. The output is
// deterministic: the same state and directory contents always render
// byte-identical text.
func Generate(st *state.PackageState, packagesDir string) string {
	var localPackages []LocalPackage
	var localFlakes []LocalFlake
	if packagesDir != "" {
		localPackages, localFlakes = CollectLocalPackages(packagesDir)
	}

	isLocal := func(name string) bool {
		return slices.ContainsFunc(localPackages, func(p LocalPackage) bool { return p.Name == name }) ||
			slices.ContainsFunc(localFlakes, func(f LocalFlake) bool { return f.Name == name })
	}

	var plain []string
	for _, pkg := range st.Packages {
		if !isLocal(pkg) {
			plain = append(plain, pkg)
		}
	}
	var resolved []state.ResolvedPackage
	for _, pkg := range st.ResolvedPackages {
		if !isLocal(pkg.Name) {
			resolved = append(resolved, pkg)
		}
	}

	b := newBuilder()
	b.addStandardPackages(plain)
	b.addResolvedPackages(resolved)
	b.addLocalFlakes(localFlakes, packagesDir)
	b.addLocalPackages(localPackages, packagesDir)
	b.addCustomPackages(st.CustomPackages)
	return b.build()
}

// Regenerate writes dir/flake.nix rendered from the state.
func Regenerate(dir string, st *state.PackageState, packagesDir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir flake dir: %w", err)
	}
	content := Generate(st, packagesDir)
	if err := os.WriteFile(filepath.Join(dir, "flake.nix"), []byte(content), 0o644); err != nil {
		return fmt.Errorf("write flake.nix: %w", err)
	}
	return nil
}

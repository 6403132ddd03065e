// Package nix shells out to the nix CLI. Every nix invocation in nixy goes
// through here so the experimental-feature flags and flake reference
// escaping stay in one place.
package nix

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"slices"
	"strings"

	"github.com/nixydotdev/nixy/internal/config"
	"github.com/nixydotdev/nixy/internal/logging"
)

// ErrNotInstalled means the nix binary was not found on PATH.
var ErrNotInstalled = errors.New("nix is not installed. See https://nixos.org/download for installation instructions")

// flakeRef formats a directory as a flake reference with an optional output
// attribute. Spaces are URL-encoded the way nix expects.
func flakeRef(path, output string) string {
	encoded := strings.ReplaceAll(path, " ", "%20")
	if output == "" {
		return encoded
	}
	return encoded + "#" + output
}

func command(args ...string) *exec.Cmd {
	return exec.Command("nix", append(append([]string{}, config.NixFlags...), args...)...)
}

// CheckInstalled verifies the nix binary is reachable.
func CheckInstalled() error {
	cmd := exec.Command("nix", "--version")
	cmd.Stdout = nil
	cmd.Stderr = nil
	if err := cmd.Run(); err != nil {
		return ErrNotInstalled
	}
	return nil
}

// CurrentSystem returns the running system's double, e.g. "aarch64-darwin".
func CurrentSystem() (string, error) {
	cmd := command("eval", "--impure", "--expr", "builtins.currentSystem", "--raw")
	var stderr strings.Builder
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("failed to get current system: %s", strings.TrimSpace(stderr.String()))
	}
	return string(out), nil
}

// Build builds an output of the flake in flakeDir and points outLink at the
// result. Build output streams to the user's terminal.
func Build(flakeDir, output, outLink string) error {
	cmd := command("build", flakeRef(flakeDir, output), "--out-link", outLink, "--impure")
	cmd.Env = append(os.Environ(), "NIXPKGS_ALLOW_UNFREE=1")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	logging.GetLogger("nix").Debug().Str("flake", flakeDir).Str("output", output).Msg("nix build")
	if err := cmd.Run(); err != nil {
		return errors.New("failed to build environment. See output above for details")
	}
	return nil
}

// Search runs nix's own nixpkgs search, streaming results to the terminal.
func Search(query string) error {
	cmd := command("search", "nixpkgs", query)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("search failed for query '%s'", query)
	}
	return nil
}

// GC deletes unreferenced store paths.
func GC() error {
	cmd := command("store", "gc")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return errors.New("failed to run garbage collection. See output above for details")
	}
	return nil
}

// FlakeUpdate updates the named inputs of the flake in flakeDir. With no
// names it updates everything.
func FlakeUpdate(flakeDir string, inputs ...string) error {
	args := append([]string{"flake", "update"}, inputs...)
	args = append(args, "--flake", flakeDir)
	cmd := command(args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return errors.New("failed to update flake. See output above for details")
	}
	return nil
}

// ValidateFlakePackage checks that pkg is exposed by the flake at flakeURL
// for the current system, trying the packages output first and then
// legacyPackages. It returns the output name that carries the package, or
// "" when neither does.
func ValidateFlakePackage(flakeURL, pkg string) (string, error) {
	system, err := CurrentSystem()
	if err != nil {
		return "", err
	}

	for _, outputType := range []string{"packages", "legacyPackages"} {
		attr := fmt.Sprintf("%s#%s.%s.%s.type", flakeURL, outputType, system, pkg)
		out, err := command("eval", attr).Output()
		if err == nil && strings.Contains(string(out), "derivation") {
			return outputType, nil
		}
	}
	return "", nil
}

// ListFlakePackages returns the package names a flake exposes for the
// current system. outputType narrows the search to one output; empty tries
// packages then legacyPackages.
func ListFlakePackages(flakeURL, outputType string) ([]string, error) {
	system, err := CurrentSystem()
	if err != nil {
		return nil, err
	}

	var candidates []string
	if outputType != "" {
		candidates = []string{outputType + "." + system}
	} else {
		candidates = []string{"packages." + system, "legacyPackages." + system}
	}

	for _, attrPath := range candidates {
		out, err := command(
			"eval", flakeURL+"#"+attrPath,
			"--apply", `pkgs: builtins.concatStringsSep "\n" (builtins.attrNames pkgs)`,
			"--raw",
		).Output()
		if err != nil {
			continue
		}
		var names []string
		for _, line := range strings.Split(string(out), "\n") {
			if line != "" {
				names = append(names, line)
			}
		}
		return names, nil
	}
	return nil, nil
}

// FlakePrefetch downloads a flake to the store and returns its store path.
func FlakePrefetch(url string) (string, error) {
	cmd := command("flake", "prefetch", "--json", url)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("failed to prefetch flake '%s': %s", url, strings.TrimSpace(stderr.String()))
	}

	var result struct {
		StorePath string `json:"storePath"`
	}
	if err := json.Unmarshal(out, &result); err != nil {
		return "", fmt.Errorf("parse flake prefetch output: %w", err)
	}
	if result.StorePath == "" {
		return "", errors.New("missing storePath in flake prefetch output")
	}
	return result.StorePath, nil
}

// PackageSourcePath resolves the nixpkgs source file defining a package,
// via its meta.position attribute.
func PackageSourcePath(commit, attr, system string) (string, error) {
	ref := fmt.Sprintf("github:NixOS/nixpkgs/%s#legacyPackages.%s.%s.meta.position", commit, system, attr)
	cmd := command("eval", "--raw", ref)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("failed to get source path for '%s': %s", attr, strings.TrimSpace(stderr.String()))
	}

	// Position is "path:line". Store paths never contain colons, so
	// splitting on the last one is safe.
	position := string(out)
	if i := strings.LastIndex(position, ":"); i >= 0 {
		return position[:i], nil
	}
	return position, nil
}

// FlakeInputs lists the input names recorded in a flake.lock file.
func FlakeInputs(lockFile string) ([]string, error) {
	data, err := os.ReadFile(lockFile)
	if err != nil {
		return nil, fmt.Errorf("read flake.lock: %w", err)
	}

	var lock struct {
		Nodes map[string]struct {
			Inputs map[string]json.RawMessage `json:"inputs"`
		} `json:"nodes"`
	}
	if err := json.Unmarshal(data, &lock); err != nil {
		return nil, fmt.Errorf("invalid flake.lock: %w", err)
	}

	root, ok := lock.Nodes["root"]
	if !ok {
		return nil, errors.New("invalid flake.lock: no root node")
	}
	names := make([]string, 0, len(root.Inputs))
	for name := range root.Inputs {
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}

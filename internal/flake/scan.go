package flake

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// inputURLPattern matches the first `name.url = "..."` binding in a file.
var inputURLPattern = regexp.MustCompile(`([A-Za-z_][A-Za-z0-9_-]*)\.url\s*=\s*"([^"]*)"`)

// scanNixAttr finds the value of an attribute binding in loosely parsed Nix
// source. It supports quoted values (possibly spanning lines) and bare
// identifier values. Values containing string interpolation cannot be
// evaluated statically and report not found.
func scanNixAttr(content, attr string) (string, bool) {
	quoted := regexp.MustCompile(`\b` + regexp.QuoteMeta(attr) + `\s*=\s*"([^"]*)"`)
	if m := quoted.FindStringSubmatch(content); m != nil {
		if strings.Contains(m[1], "${") {
			return "", false
		}
		return m[1], true
	}

	bare := regexp.MustCompile(`\b` + regexp.QuoteMeta(attr) + `\s*=\s*([A-Za-z_][A-Za-z0-9_.'-]*)\s*;`)
	if m := bare.FindStringSubmatch(content); m != nil {
		return m[1], true
	}
	return "", false
}

// parseLocalPackageFile reads a packages-directory .nix file into a
// LocalPackage. Files without a pname or name attribute are skipped.
func parseLocalPackageFile(path string) (LocalPackage, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return LocalPackage{}, false
	}
	content := string(data)

	name, ok := scanNixAttr(content, "pname")
	if !ok {
		name, ok = scanNixAttr(content, "name")
	}
	if !ok {
		return LocalPackage{}, false
	}

	pkg := LocalPackage{Name: name}
	if m := inputURLPattern.FindStringSubmatch(content); m != nil {
		pkg.InputName = m[1]
		pkg.InputURL = m[2]
	}
	pkg.Overlay, _ = scanNixAttr(content, "overlay")

	if expr, ok := scanNixAttr(content, "packageExpr"); ok {
		pkg.PackageExpr = expr
	} else {
		pkg.PackageExpr = fmt.Sprintf("pkgs.callPackage ./packages/%s.nix {}", name)
	}
	return pkg, true
}

// CollectLocalPackages scans the packages directory for standalone .nix
// package files and sub-flake directories. Entries come back in directory
// order, which os.ReadDir keeps sorted by name.
func CollectLocalPackages(packagesDir string) ([]LocalPackage, []LocalFlake) {
	var packages []LocalPackage
	var flakes []LocalFlake

	entries, err := os.ReadDir(packagesDir)
	if err != nil {
		return nil, nil
	}

	for _, entry := range entries {
		path := filepath.Join(packagesDir, entry.Name())
		if entry.IsDir() {
			if _, err := os.Stat(filepath.Join(path, "flake.nix")); err == nil {
				flakes = append(flakes, LocalFlake{Name: entry.Name()})
			}
			continue
		}
		if filepath.Ext(entry.Name()) != ".nix" {
			continue
		}
		if pkg, ok := parseLocalPackageFile(path); ok {
			packages = append(packages, pkg)
		}
	}
	return packages, flakes
}

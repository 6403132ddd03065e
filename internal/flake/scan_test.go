package flake

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanNixAttrQuoted(t *testing.T) {
	content := `
{
  pname = "my-package";
  version = "1.0.0";
}
`
	value, ok := scanNixAttr(content, "pname")
	require.True(t, ok)
	assert.Equal(t, "my-package", value)
}

func TestScanNixAttrUnquoted(t *testing.T) {
	content := `
{
  name = mypackage;
}
`
	value, ok := scanNixAttr(content, "name")
	require.True(t, ok)
	assert.Equal(t, "mypackage", value)
}

func TestScanNixAttrMultilineValue(t *testing.T) {
	content := `
{ pkgs }:
pkgs.stdenv.mkDerivation {
  pname =
    "multiline-package";
  version = "1.0.0";
}
`
	value, ok := scanNixAttr(content, "pname")
	require.True(t, ok)
	assert.Equal(t, "multiline-package", value)
}

func TestScanNixAttrInterpolationNotFound(t *testing.T) {
	content := `
{ pkgs, version }:
pkgs.stdenv.mkDerivation {
  pname = "test-${version}";
}
`
	_, ok := scanNixAttr(content, "pname")
	assert.False(t, ok)
}

func TestScanNixAttrMissing(t *testing.T) {
	content := `
{ pkgs }:
pkgs.stdenv.mkDerivation {
  src = ./.;
  buildPhase = "echo hello";
}
`
	_, ok := scanNixAttr(content, "pname")
	assert.False(t, ok)
	_, ok = scanNixAttr(content, "name")
	assert.False(t, ok)
}

func TestInputURLPattern(t *testing.T) {
	content := `
{
  inputs = {
    overlay-name.url = "github:user/repo";
  };
}
`
	m := inputURLPattern.FindStringSubmatch(content)
	require.NotNil(t, m)
	assert.Equal(t, "overlay-name", m[1])
	assert.Equal(t, "github:user/repo", m[2])
}

func TestInputURLPatternFirstWins(t *testing.T) {
	content := `
{
  inputs = {
    first-input.url = "github:user/first";
    second-input.url = "github:user/second";
  };
}
`
	m := inputURLPattern.FindStringSubmatch(content)
	require.NotNil(t, m)
	assert.Equal(t, "first-input", m[1])
	assert.Equal(t, "github:user/first", m[2])
}

func TestCollectLocalPackagesNonexistentDir(t *testing.T) {
	packages, flakes := CollectLocalPackages(filepath.Join(t.TempDir(), "nonexistent"))
	assert.Empty(t, packages)
	assert.Empty(t, flakes)
}

func TestCollectLocalPackagesEmptyDir(t *testing.T) {
	packages, flakes := CollectLocalPackages(t.TempDir())
	assert.Empty(t, packages)
	assert.Empty(t, flakes)
}

func TestCollectLocalPackagesNixFile(t *testing.T) {
	dir := t.TempDir()
	content := `
{ lib, stdenv }:
stdenv.mkDerivation {
  pname = "my-local-pkg";
  version = "1.0.0";
  src = ./.;
}
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "my-local-pkg.nix"), []byte(content), 0o644))

	packages, flakes := CollectLocalPackages(dir)
	require.Len(t, packages, 1)
	assert.Equal(t, "my-local-pkg", packages[0].Name)
	assert.Equal(t, "pkgs.callPackage ./packages/my-local-pkg.nix {}", packages[0].PackageExpr)
	assert.Empty(t, flakes)
}

func TestCollectLocalPackagesFlakeDir(t *testing.T) {
	dir := t.TempDir()
	flakeDir := filepath.Join(dir, "my-flake")
	require.NoError(t, os.MkdirAll(flakeDir, 0o755))
	content := `
{
  inputs = { nixpkgs.url = "github:NixOS/nixpkgs/nixos-unstable"; };
  outputs = { self, nixpkgs }: { };
}
`
	require.NoError(t, os.WriteFile(filepath.Join(flakeDir, "flake.nix"), []byte(content), 0o644))

	packages, flakes := CollectLocalPackages(dir)
	assert.Empty(t, packages)
	require.Len(t, flakes, 1)
	assert.Equal(t, "my-flake", flakes[0].Name)
}

func TestCollectLocalPackagesMixed(t *testing.T) {
	dir := t.TempDir()
	flakeDir := filepath.Join(dir, "flake-pkg")
	require.NoError(t, os.MkdirAll(flakeDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(flakeDir, "flake.nix"), []byte("{}\n"), 0o644))

	pkg := `
{ lib, stdenv }:
stdenv.mkDerivation {
  pname = "regular-pkg";
  version = "1.0.0";
  src = ./.;
}
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "regular-pkg.nix"), []byte(pkg), 0o644))

	packages, flakes := CollectLocalPackages(dir)
	require.Len(t, packages, 1)
	assert.Equal(t, "regular-pkg", packages[0].Name)
	require.Len(t, flakes, 1)
	assert.Equal(t, "flake-pkg", flakes[0].Name)
}

func TestCollectLocalPackagesSkipsDirWithoutFlake(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "not-a-flake"), 0o755))

	packages, flakes := CollectLocalPackages(dir)
	assert.Empty(t, packages)
	assert.Empty(t, flakes)
}

func TestCollectLocalPackagesWithInputAndOverlay(t *testing.T) {
	dir := t.TempDir()
	content := `
{
  pname = "overlaid";
  inputs = {
    my-overlay.url = "github:user/repo";
  };
  overlay = "my-overlay.overlays.default";
  packageExpr = "pkgs.overlaid";
}
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "overlaid.nix"), []byte(content), 0o644))

	packages, _ := CollectLocalPackages(dir)
	require.Len(t, packages, 1)
	assert.Equal(t, "overlaid", packages[0].Name)
	assert.Equal(t, "my-overlay", packages[0].InputName)
	assert.Equal(t, "github:user/repo", packages[0].InputURL)
	assert.Equal(t, "my-overlay.overlays.default", packages[0].Overlay)
	assert.Equal(t, "pkgs.overlaid", packages[0].PackageExpr)
}

func TestCollectLocalPackagesSkipsFileWithoutName(t *testing.T) {
	dir := t.TempDir()
	content := `
{ pkgs }:
pkgs.stdenv.mkDerivation {
  src = ./.;
}
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "anonymous.nix"), []byte(content), 0o644))

	packages, _ := CollectLocalPackages(dir)
	assert.Empty(t, packages)
}

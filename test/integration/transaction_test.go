//go:build integration

package integration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nixydotdev/nixy/internal/flake"
	"github.com/nixydotdev/nixy/internal/rollback"
	"github.com/nixydotdev/nixy/internal/state"
	"github.com/nixydotdev/nixy/testutil"
)

var ripgrep = state.ResolvedPackage{
	Name:            "ripgrep",
	ResolvedVersion: "14.1.0",
	AttributePath:   "ripgrep",
	CommitHash:      "0123456789abcdef0123456789abcdef01234567",
}

// TestIntegration_StoreRoundTrip verifies nixy.json survives a save/load
// cycle with packages intact.
func TestIntegration_StoreRoundTrip(t *testing.T) {
	cfg := testutil.TempConfig(t)
	testutil.SeedStore(t, cfg, ripgrep)

	loaded, err := state.LoadStore(cfg.NixyJSON)
	require.NoError(t, err)

	pkg := loaded.ActiveState().GetResolvedPackage("ripgrep")
	require.NotNil(t, pkg)
	assert.Equal(t, "14.1.0", pkg.ResolvedVersion)
	assert.Equal(t, []string{"ripgrep"}, loaded.ActiveState().AllPackageNames())
}

// TestIntegration_FlakeFromStore regenerates flake.nix from a seeded
// store and checks the result is recognized as nixy-managed.
func TestIntegration_FlakeFromStore(t *testing.T) {
	cfg := testutil.TempConfig(t)
	store := testutil.SeedStore(t, cfg, ripgrep)

	flakeDir := t.TempDir()
	require.NoError(t, flake.Regenerate(flakeDir, store.ActiveState(), cfg.GlobalPackagesDir))

	content, err := os.ReadFile(filepath.Join(flakeDir, "flake.nix"))
	require.NoError(t, err)
	assert.True(t, flake.IsManaged(string(content)))
	assert.Contains(t, string(content), "ripgrep")
}

// TestIntegration_RollbackRestore simulates an interrupted install: the
// store and flake are mutated, then the armed snapshot is restored and
// both files must match the pre-transaction state again.
func TestIntegration_RollbackRestore(t *testing.T) {
	cfg := testutil.TempConfig(t)
	store := testutil.SeedStore(t, cfg, ripgrep)
	snapshot := store.Clone()

	flakeDir := t.TempDir()
	require.NoError(t, flake.Regenerate(flakeDir, store.ActiveState(), cfg.GlobalPackagesDir))

	// Mutate mid-transaction.
	store.ActiveState().AddResolvedPackage(state.ResolvedPackage{
		Name:            "fd",
		ResolvedVersion: "10.2.0",
		AttributePath:   "fd",
		CommitHash:      "fedcba9876543210fedcba9876543210fedcba98",
	})
	require.NoError(t, store.Save(cfg.NixyJSON))
	require.NoError(t, flake.Regenerate(flakeDir, store.ActiveState(), cfg.GlobalPackagesDir))

	ctx := &rollback.Context{
		Store:       snapshot,
		StorePath:   cfg.NixyJSON,
		FlakeDir:    flakeDir,
		PackagesDir: cfg.GlobalPackagesDir,
	}
	require.NoError(t, ctx.Restore())

	restored, err := state.LoadStore(cfg.NixyJSON)
	require.NoError(t, err)
	assert.Nil(t, restored.ActiveState().GetResolvedPackage("fd"))
	require.NotNil(t, restored.ActiveState().GetResolvedPackage("ripgrep"))

	content, err := os.ReadFile(filepath.Join(flakeDir, "flake.nix"))
	require.NoError(t, err)
	assert.NotContains(t, string(content), "fedcba9876543210")
	assert.Contains(t, string(content), "ripgrep")
}

// TestIntegration_RollbackRemovesArtifacts covers the file-install side of
// a rollback: copied files and created directories disappear.
func TestIntegration_RollbackRemovesArtifacts(t *testing.T) {
	dir := t.TempDir()
	copied := filepath.Join(dir, "pkg.nix")
	created := filepath.Join(dir, "pkg-flake")
	require.NoError(t, os.WriteFile(copied, []byte("{ }"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(created, "sub"), 0o755))

	ctx := &rollback.Context{CopiedFile: copied, CreatedDir: created}
	require.NoError(t, ctx.Restore())

	assert.NoFileExists(t, copied)
	assert.NoDirExists(t, created)
}

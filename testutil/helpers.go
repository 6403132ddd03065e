// Package testutil holds helpers shared by the integration and e2e tests.
package testutil

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/nixydotdev/nixy/internal/config"
	"github.com/nixydotdev/nixy/internal/state"
)

// TempConfig points all nixy paths at a fresh temp directory for the
// duration of a test.
func TempConfig(t *testing.T) *config.Config {
	t.Helper()

	root := t.TempDir()
	t.Setenv("NIXY_CONFIG_DIR", filepath.Join(root, "config"))
	t.Setenv("NIXY_STATE_DIR", filepath.Join(root, "state"))
	t.Setenv("NIXY_ENV", filepath.Join(root, "state", "env"))

	return config.New()
}

// WriteStore saves a store to the config's nixy.json, creating parent
// directories as needed.
func WriteStore(t *testing.T, cfg *config.Config, store *state.Store) {
	t.Helper()

	if err := os.MkdirAll(cfg.ConfigDir, 0o755); err != nil {
		t.Fatalf("create config dir: %v", err)
	}
	if err := store.Save(cfg.NixyJSON); err != nil {
		t.Fatalf("save store: %v", err)
	}
}

// SeedStore writes a single-profile store containing the given resolved
// packages and returns it.
func SeedStore(t *testing.T, cfg *config.Config, packages ...state.ResolvedPackage) *state.Store {
	t.Helper()

	store := state.NewStore()
	active := store.ActiveState()
	for _, pkg := range packages {
		active.AddResolvedPackage(pkg)
	}
	WriteStore(t, cfg, store)
	return store
}

// BuildTestBinary compiles the nixy binary into a temp dir and returns
// its path. Used by the e2e tests only.
func BuildTestBinary(t *testing.T) string {
	t.Helper()

	binaryPath := filepath.Join(t.TempDir(), "nixy")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/nixy")
	cmd.Dir = findProjectRoot(t)
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("failed to build test binary: %v\n%s", err, out)
	}
	return binaryPath
}

func findProjectRoot(t *testing.T) string {
	t.Helper()

	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get working directory: %v", err)
	}
	for {
		if _, err := os.Stat(filepath.Join(wd, "go.mod")); err == nil {
			return wd
		}
		parent := filepath.Dir(wd)
		if parent == wd {
			t.Fatalf("could not find project root (go.mod)")
		}
		wd = parent
	}
}

// NixAvailable reports whether a real nix binary is on PATH. Tests that
// shell out to nix skip when it is absent.
func NixAvailable() bool {
	_, err := exec.LookPath("nix")
	return err == nil
}

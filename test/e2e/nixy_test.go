//go:build e2e

package e2e

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nixydotdev/nixy/testutil"
)

// run executes the built binary against an isolated config rooted in dir.
func run(t *testing.T, binary, dir string, args ...string) (string, error) {
	t.Helper()

	cmd := exec.Command(binary, args...)
	cmd.Env = append(os.Environ(),
		"NIXY_CONFIG_DIR="+filepath.Join(dir, "config"),
		"NIXY_STATE_DIR="+filepath.Join(dir, "state"),
	)
	out, err := cmd.CombinedOutput()
	return string(out), err
}

func TestE2E_VersionAndConfig(t *testing.T) {
	if !testutil.NixAvailable() {
		t.Skip("nix is not installed")
	}
	binary := testutil.BuildTestBinary(t)
	dir := t.TempDir()

	out, err := run(t, binary, dir, "version")
	require.NoError(t, err, out)
	assert.Contains(t, out, "nixy v")

	out, err = run(t, binary, dir, "config", "zsh")
	require.NoError(t, err, out)
	assert.Contains(t, out, `export PATH="$HOME/.local/state/nixy/env/bin:$PATH"`)

	out, err = run(t, binary, dir, "config", "powershell")
	require.Error(t, err)
	assert.Contains(t, out, "Unknown shell: powershell")
}

func TestE2E_ListEmptyProfile(t *testing.T) {
	if !testutil.NixAvailable() {
		t.Skip("nix is not installed")
	}
	binary := testutil.BuildTestBinary(t)
	dir := t.TempDir()

	out, err := run(t, binary, dir, "list")
	require.NoError(t, err, out)
	assert.Contains(t, out, "default")
	assert.Contains(t, out, "(none)")
}

func TestE2E_ProfileLifecycle(t *testing.T) {
	if !testutil.NixAvailable() {
		t.Skip("nix is not installed")
	}
	binary := testutil.BuildTestBinary(t)
	dir := t.TempDir()

	out, err := run(t, binary, dir, "profile", "switch", "-c", "work")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Switched to profile 'work'")

	out, err = run(t, binary, dir, "profile", "list")
	require.NoError(t, err, out)
	assert.Contains(t, out, "* work (active)")
	assert.Contains(t, out, "default")

	// The active profile cannot be deleted.
	out, err = run(t, binary, dir, "profile", "delete", "--force", "work")
	require.Error(t, err)
	assert.Contains(t, out, "Cannot delete the active profile")

	out, err = run(t, binary, dir, "profile", "switch", "default")
	require.NoError(t, err, out)

	out, err = run(t, binary, dir, "profile", "delete", "--force", "work")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Deleted profile 'work'")

	out, err = run(t, binary, dir, "profile", "list")
	require.NoError(t, err, out)
	assert.False(t, strings.Contains(out, "work"), "deleted profile still listed:\n%s", out)
}

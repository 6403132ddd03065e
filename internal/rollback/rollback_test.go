package rollback

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nixydotdev/nixy/internal/state"
)

func reset() {
	Clear()
	completed.Store(false)
}

func TestInterruptRestoresArmedSnapshot(t *testing.T) {
	reset()
	dir := t.TempDir()
	storePath := filepath.Join(dir, "nixy.json")
	flakeDir := filepath.Join(dir, "profiles", "default")

	snapshot := state.NewStore()
	snapshot.ActiveState().AddPackage("hello")
	require.NoError(t, snapshot.Save(storePath))

	// Simulate a half-done transaction on disk.
	mutated := snapshot.Clone()
	mutated.ActiveState().AddPackage("ripgrep")
	require.NoError(t, mutated.Save(storePath))

	Arm(&Context{
		Store:     snapshot,
		StorePath: storePath,
		FlakeDir:  flakeDir,
	})

	code := -1
	handleInterrupt(func(c int) { code = c })
	assert.Equal(t, 130, code)

	restored, err := state.LoadStore(storePath)
	require.NoError(t, err)
	assert.True(t, restored.ActiveState().HasPackage("hello"))
	assert.False(t, restored.ActiveState().HasPackage("ripgrep"))

	data, err := os.ReadFile(filepath.Join(flakeDir, "flake.nix"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello = pkgs.hello;")
	assert.NotContains(t, string(data), "ripgrep")
}

func TestInterruptAfterCommitIsNoOp(t *testing.T) {
	reset()
	dir := t.TempDir()
	storePath := filepath.Join(dir, "nixy.json")

	snapshot := state.NewStore()
	Arm(&Context{Store: snapshot, StorePath: storePath})
	Commit()

	code := -1
	handleInterrupt(func(c int) { code = c })
	assert.Equal(t, 130, code)
	assert.NoFileExists(t, storePath)
}

func TestInterruptWithoutContextJustExits(t *testing.T) {
	reset()
	code := -1
	handleInterrupt(func(c int) { code = c })
	assert.Equal(t, 130, code)
}

func TestClearDisarms(t *testing.T) {
	reset()
	dir := t.TempDir()
	storePath := filepath.Join(dir, "nixy.json")

	Arm(&Context{Store: state.NewStore(), StorePath: storePath})
	Clear()

	code := -1
	handleInterrupt(func(c int) { code = c })
	assert.Equal(t, 130, code)
	assert.NoFileExists(t, storePath)
}

func TestArmReplacesPreviousContext(t *testing.T) {
	reset()
	dir := t.TempDir()
	first := filepath.Join(dir, "first.json")
	second := filepath.Join(dir, "second.json")

	Arm(&Context{Store: state.NewStore(), StorePath: first})
	Arm(&Context{Store: state.NewStore(), StorePath: second})

	handleInterrupt(func(int) {})
	assert.NoFileExists(t, first)
	assert.FileExists(t, second)
}

func TestRestoreRemovesCopiedFileAndCreatedDir(t *testing.T) {
	reset()
	dir := t.TempDir()
	copied := filepath.Join(dir, "copied.nix")
	created := filepath.Join(dir, "created")
	require.NoError(t, os.WriteFile(copied, []byte("{}"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(created, "sub"), 0o755))

	c := &Context{CopiedFile: copied, CreatedDir: created}
	require.NoError(t, c.Restore())

	assert.NoFileExists(t, copied)
	assert.NoDirExists(t, created)
}

func TestRestoreMissingCopiedFileIsFine(t *testing.T) {
	c := &Context{CopiedFile: filepath.Join(t.TempDir(), "never-existed.nix")}
	assert.NoError(t, c.Restore())
}

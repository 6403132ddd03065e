package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nixydotdev/nixy/internal/flake"
	"github.com/nixydotdev/nixy/internal/nix"
	"github.com/nixydotdev/nixy/internal/profile"
	"github.com/nixydotdev/nixy/internal/rollback"
	"github.com/nixydotdev/nixy/internal/shell"
	"github.com/nixydotdev/nixy/internal/state"
	"github.com/nixydotdev/nixy/internal/ui"
)

func loadStore() (*state.Store, error) {
	return state.LoadStore(cfg.NixyJSON)
}

func activeFlakeDir(store *state.Store) (string, error) {
	return profile.FlakeDir(store.ActiveProfile, cfg)
}

// guardManagedFlake refuses to overwrite a flake.nix that nixy does not
// recognize as its own. Hand-written flakes are never silently clobbered.
func guardManagedFlake(flakeDir string, force bool) error {
	content, err := os.ReadFile(filepath.Join(flakeDir, "flake.nix"))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read flake.nix: %w", err)
	}
	if !flake.IsManaged(string(content)) && !force {
		return fmt.Errorf("existing flake.nix in %s was not generated by nixy. Use --force to overwrite it", flakeDir)
	}
	return nil
}

// syncEnvironment regenerates a missing flake.nix and builds the active
// profile environment behind the env symlink.
func syncEnvironment(store *state.Store) error {
	flakeDir, err := activeFlakeDir(store)
	if err != nil {
		return err
	}
	flakePath := filepath.Join(flakeDir, "flake.nix")

	if _, err := os.Stat(flakePath); os.IsNotExist(err) {
		ui.Info("Regenerating flake.nix from nixy.json...")
		if err := flake.Regenerate(flakeDir, store.ActiveState(), cfg.GlobalPackagesDir); err != nil {
			return err
		}
	}

	ui.Info(fmt.Sprintf("Syncing packages with %s...", flakePath))
	ui.Info("Building nixy environment...")

	if err := os.MkdirAll(filepath.Dir(cfg.EnvLink), 0o755); err != nil {
		return fmt.Errorf("create env link directory: %w", err)
	}

	if err := nix.Build(flakeDir, "default", cfg.EnvLink); err != nil {
		return err
	}

	ui.Success("Sync complete")
	showPathHint()
	return nil
}

// finishTransaction runs the post-mutation half of every mutating command:
// regenerate the flake, arm the interrupt rollback, rebuild, then commit.
// The store must already be saved; snapshot is the pre-mutation copy that is
// written back on any failure.
func finishTransaction(store, snapshot *state.Store, flakeDir string) error {
	if err := flake.Regenerate(flakeDir, store.ActiveState(), cfg.GlobalPackagesDir); err != nil {
		_ = snapshot.Save(cfg.NixyJSON)
		ui.Warn("Failed to regenerate flake.nix. Reverted changes.")
		return err
	}

	rollback.Arm(&rollback.Context{
		Store:       snapshot,
		StorePath:   cfg.NixyJSON,
		FlakeDir:    flakeDir,
		PackagesDir: cfg.GlobalPackagesDir,
	})

	if err := syncEnvironment(store); err != nil {
		rollback.Clear()
		_ = snapshot.Save(cfg.NixyJSON)
		_ = flake.Regenerate(flakeDir, snapshot.ActiveState(), cfg.GlobalPackagesDir)
		ui.Warn("Sync failed. Reverted changes.")
		return err
	}

	rollback.Commit()
	return nil
}

// showPathHint nudges the user once when the built environment is not on
// their PATH.
func showPathHint() {
	binDir := filepath.Join(cfg.EnvLink, "bin")
	if strings.Contains(os.Getenv("PATH"), binDir) {
		return
	}

	reminderPath := state.ReminderPath(cfg.StateDir)
	r, err := state.LoadReminder(reminderPath)
	if err != nil || r.PathHintShown {
		return
	}

	ui.Warn(fmt.Sprintf("%s is not on your PATH", binDir))
	ui.Muted("Add it to your shell config: " + shell.HintCommand(shell.Detect()))

	r.PathHintShown = true
	_ = state.SaveReminder(reminderPath, r)
}

package cli

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nixydotdev/nixy/internal/ui"
)

var uninstallForce bool

var uninstallCmd = &cobra.Command{
	Use:     "uninstall <package>...",
	Aliases: []string{"remove"},
	Short:   "Uninstall packages",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runUninstall(args)
	},
}

func init() {
	uninstallCmd.Flags().BoolVar(&uninstallForce, "force", false,
		"overwrite a flake.nix that was not generated by nixy")
}

func runUninstall(packages []string) error {
	store, err := loadStore()
	if err != nil {
		return err
	}
	flakeDir, err := activeFlakeDir(store)
	if err != nil {
		return err
	}
	if err := guardManagedFlake(flakeDir, uninstallForce); err != nil {
		return err
	}

	active := store.ActiveState()
	snapshot := store.Clone()

	removedAny := false
	for _, pkg := range packages {
		ui.Info(fmt.Sprintf("Uninstalling %s...", pkg))

		localRemoved, err := removeLocalPackage(pkg)
		if err != nil {
			return err
		}
		if !active.RemovePackage(pkg) && !localRemoved {
			return fmt.Errorf("package '%s' is not installed", pkg)
		}
		removedAny = true
	}
	if !removedAny {
		return nil
	}

	if err := store.Save(cfg.NixyJSON); err != nil {
		return err
	}

	if err := finishTransaction(store, snapshot, flakeDir); err != nil {
		return err
	}

	for _, pkg := range packages {
		ui.Success(fmt.Sprintf("Removed %s", pkg))
	}
	return nil
}

// removeLocalPackage deletes a local package definition (<name>.nix) or a
// local flake directory from the global packages dir, if one exists.
func removeLocalPackage(name string) (bool, error) {
	pkgFile := filepath.Join(cfg.GlobalPackagesDir, name+".nix")
	flakeDir := filepath.Join(cfg.GlobalPackagesDir, name)

	if _, err := os.Stat(pkgFile); err == nil {
		ui.Info(fmt.Sprintf("Removing local package definition: %s", pkgFile))
		if err := os.Remove(pkgFile); err != nil {
			return false, err
		}
		gitForget(cfg.GlobalPackagesDir, name+".nix", false)
		return true, nil
	}

	if _, err := os.Stat(filepath.Join(flakeDir, "flake.nix")); err == nil {
		ui.Info(fmt.Sprintf("Removing local flake: %s", flakeDir))
		if err := os.RemoveAll(flakeDir); err != nil {
			return false, err
		}
		gitForget(cfg.GlobalPackagesDir, name, true)
		return true, nil
	}

	return false, nil
}

// gitForget drops a removed path from the git index when the packages dir
// is version-controlled (common for dotfile setups). Failures are ignored.
func gitForget(dir, path string, recursive bool) {
	check := exec.Command("git", "-C", dir, "rev-parse", "--git-dir")
	if err := check.Run(); err != nil {
		return
	}

	args := []string{"-C", dir, "rm", "--cached"}
	if recursive {
		args = append(args, "-r")
	}
	args = append(args, path)
	_ = exec.Command("git", args...).Run()
}

package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nixydotdev/nixy/internal/flake"
	"github.com/nixydotdev/nixy/internal/nix"
	"github.com/nixydotdev/nixy/internal/nixhub"
	"github.com/nixydotdev/nixy/internal/rollback"
	"github.com/nixydotdev/nixy/internal/state"
	"github.com/nixydotdev/nixy/internal/ui"
)

var upgradeCmd = &cobra.Command{
	Use:   "upgrade [package or input]...",
	Short: "Upgrade all packages or specific ones",
	Long: `Re-resolve versioned packages through Nixhub and update flake inputs.

With no arguments every versioned package is re-resolved and every flake
input updated. Arguments may name versioned packages or flake inputs;
legacy packages (installed without @version) follow nixpkgs and are only
upgraded by the no-argument form.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runUpgrade(args)
	},
}

func runUpgrade(inputs []string) error {
	store, err := loadStore()
	if err != nil {
		return err
	}
	flakeDir, err := activeFlakeDir(store)
	if err != nil {
		return err
	}
	active := store.ActiveState()

	flakePath := filepath.Join(flakeDir, "flake.nix")
	lockFile := filepath.Join(flakeDir, "flake.lock")

	if _, err := os.Stat(flakePath); os.IsNotExist(err) {
		ui.Info("Regenerating flake.nix from nixy.json...")
		if err := flake.Regenerate(flakeDir, active, cfg.GlobalPackagesDir); err != nil {
			return err
		}
	}

	snapshot := store.Clone()
	armed := false

	// saveAndRegenerate persists an upgraded state and arms the interrupt
	// rollback for the build that follows.
	saveAndRegenerate := func() error {
		if err := store.Save(cfg.NixyJSON); err != nil {
			return err
		}
		if err := flake.Regenerate(flakeDir, active, cfg.GlobalPackagesDir); err != nil {
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
		armed = true
		return nil
	}

	if len(inputs) > 0 {
		var resolvedNames []string
		for _, p := range active.ResolvedPackages {
			resolvedNames = append(resolvedNames, p.Name)
		}

		var packagesToUpgrade, flakeInputsToUpdate []string
		for _, input := range inputs {
			if slices.Contains(resolvedNames, input) {
				packagesToUpgrade = append(packagesToUpgrade, input)
			} else {
				flakeInputsToUpdate = append(flakeInputsToUpdate, input)
			}
		}

		if len(packagesToUpgrade) > 0 {
			if err := upgradeResolvedPackages(active, packagesToUpgrade); err != nil {
				return err
			}
			if err := saveAndRegenerate(); err != nil {
				return err
			}
		}

		if len(flakeInputsToUpdate) > 0 {
			if _, err := os.Stat(lockFile); os.IsNotExist(err) {
				return fmt.Errorf("no flake.lock found. Run 'nixy sync' first")
			}

			available, err := nix.FlakeInputs(lockFile)
			if err != nil {
				return err
			}

			var invalid, legacy []string
			for _, input := range flakeInputsToUpdate {
				if slices.Contains(available, input) {
					continue
				}
				if slices.Contains(active.Packages, input) || active.GetCustomPackage(input) != nil {
					legacy = append(legacy, input)
				} else {
					invalid = append(invalid, input)
				}
			}

			if len(legacy) > 0 {
				ui.Warn("Per-package upgrade is only supported for versioned packages (installed with @version).")
				ui.Warn(fmt.Sprintf("Legacy packages (%s) are upgraded when you run 'nixy upgrade' without arguments.",
					strings.Join(legacy, ", ")))
				return nil
			}
			if len(invalid) > 0 {
				return fmt.Errorf("unknown input(s): %s. Available inputs: %s",
					strings.Join(invalid, ", "), strings.Join(available, " "))
			}

			ui.Info(fmt.Sprintf("Updating inputs: %s...", strings.Join(flakeInputsToUpdate, ", ")))
			if err := nix.FlakeUpdate(flakeDir, flakeInputsToUpdate...); err != nil {
				return err
			}
		}
	} else {
		if len(active.ResolvedPackages) > 0 {
			var names []string
			for _, p := range active.ResolvedPackages {
				names = append(names, p.Name)
			}
			if err := upgradeResolvedPackages(active, names); err != nil {
				return err
			}
			if err := saveAndRegenerate(); err != nil {
				return err
			}
		}

		ui.Info("Updating all flake inputs...")
		if err := nix.FlakeUpdate(flakeDir); err != nil {
			return err
		}
	}

	ui.Info("Rebuilding environment...")
	if err := syncEnvironment(store); err != nil {
		if armed {
			rollback.Clear()
			_ = snapshot.Save(cfg.NixyJSON)
			_ = flake.Regenerate(flakeDir, snapshot.ActiveState(), cfg.GlobalPackagesDir)
			ui.Warn("Sync failed. Reverted changes.")
		}
		return err
	}
	rollback.Commit()

	if len(inputs) > 0 {
		ui.Success(fmt.Sprintf("Upgraded: %s", strings.Join(inputs, ", ")))
	} else {
		ui.Success("All packages upgraded")
	}
	return nil
}

// upgradeResolvedPackages re-resolves each named package through Nixhub,
// preserving its version spec and platform restrictions. Resolution
// failures are warnings, not errors, so one unreachable package does not
// block the rest.
func upgradeResolvedPackages(active *state.PackageState, names []string) error {
	system, err := nix.CurrentSystem()
	if err != nil {
		return err
	}
	client := nixhub.NewClient()

	for _, name := range names {
		existing := active.GetResolvedPackage(name)
		if existing == nil {
			continue
		}

		version := existing.VersionSpec
		if version == "" {
			version = "latest"
		}
		ui.Info(fmt.Sprintf("Resolving %s@%s...", name, version))

		resolved, err := client.ResolveForSystem(name, version, system)
		if err != nil {
			ui.Warn(fmt.Sprintf("  Failed to resolve %s: %v", name, err))
			continue
		}

		if resolved.Version == existing.ResolvedVersion && resolved.CommitHash == existing.CommitHash {
			ui.Info(fmt.Sprintf("  %s is already at the latest version", name))
			continue
		}

		ui.Info(fmt.Sprintf("  %s -> %s (commit %s)",
			existing.ResolvedVersion, resolved.Version,
			resolved.CommitHash[:min(8, len(resolved.CommitHash))]))

		active.AddResolvedPackage(state.ResolvedPackage{
			Name:            resolved.Name,
			VersionSpec:     existing.VersionSpec,
			ResolvedVersion: resolved.Version,
			AttributePath:   resolved.AttributePath,
			CommitHash:      resolved.CommitHash,
			Platforms:       existing.Platforms,
		})
	}
	return nil
}

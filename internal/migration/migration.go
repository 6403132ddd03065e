// Package migration converts legacy on-disk layouts to the nixy.json store.
//
// Two legacy layouts exist. The per-profile layout kept a packages.json and
// generated files inside ~/.config/nixy/profiles/<name>/. The very old
// layout kept a single flake.nix directly in ~/.config/nixy. Both are folded
// into the single store on first run; generated files move to the state
// directory.
package migration

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nixydotdev/nixy/internal/config"
	"github.com/nixydotdev/nixy/internal/logging"
	"github.com/nixydotdev/nixy/internal/profile"
	"github.com/nixydotdev/nixy/internal/state"
	"github.com/nixydotdev/nixy/internal/ui"
)

// Needed reports whether a legacy layout exists and nixy.json does not.
func Needed(cfg *config.Config) bool {
	if _, err := os.Stat(cfg.NixyJSON); err == nil {
		return false
	}

	if entries, err := os.ReadDir(cfg.LegacyProfilesDir); err == nil {
		for _, entry := range entries {
			if entry.IsDir() {
				return true
			}
		}
	}
	if _, err := os.Stat(cfg.LegacyActiveFile); err == nil {
		return true
	}
	if _, err := os.Stat(cfg.LegacyFlake); err == nil {
		return true
	}
	return false
}

// RunIfNeeded migrates legacy layouts before any command touches state.
func RunIfNeeded(cfg *config.Config) error {
	if !Needed(cfg) {
		return nil
	}

	ui.Info("Migrating to new nixy.json configuration format...")

	store, err := Migrate(cfg)
	if err != nil {
		return err
	}
	if err := store.Save(cfg.NixyJSON); err != nil {
		return err
	}

	ui.Success("Migration complete! Your configuration has been updated.")
	ui.Info(fmt.Sprintf("Configuration is now stored in: %s", cfg.NixyJSON))
	ui.Info(fmt.Sprintf("Generated files are now in: %s", cfg.ProfilesStateDir))
	return nil
}

// Migrate builds a store from whatever legacy layout is present. Nothing
// legacy is deleted; files are copied so a failed migration leaves the old
// layout usable.
func Migrate(cfg *config.Config) (*state.Store, error) {
	store := &state.Store{
		Version:       state.StoreVersion,
		ActiveProfile: config.DefaultProfile,
		Profiles:      map[string]*state.PackageState{},
	}

	if data, err := os.ReadFile(cfg.LegacyActiveFile); err == nil {
		if active := strings.TrimSpace(string(data)); active != "" {
			store.ActiveProfile = active
		}
	}

	entries, _ := os.ReadDir(cfg.LegacyProfilesDir)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name := entry.Name()
		profileDir := filepath.Join(cfg.LegacyProfilesDir, name)

		st, err := migrateProfile(profileDir)
		if err != nil {
			return nil, fmt.Errorf("migrate profile %s: %w", name, err)
		}
		store.Profiles[name] = st

		stateDir := filepath.Join(cfg.ProfilesStateDir, name)
		if err := os.MkdirAll(stateDir, 0o755); err != nil {
			return nil, err
		}
		for _, file := range []string{"flake.nix", "flake.lock"} {
			src := filepath.Join(profileDir, file)
			if _, err := os.Stat(src); err == nil {
				if err := copyFile(src, filepath.Join(stateDir, file)); err != nil {
					return nil, err
				}
			}
		}

		legacyPackages := filepath.Join(profileDir, "packages")
		if _, err := os.Stat(legacyPackages); err == nil {
			if err := mergeLocalPackages(legacyPackages, cfg.GlobalPackagesDir); err != nil {
				return nil, err
			}
		}
	}

	// Very old format: a single flake.nix directly in the config dir.
	if _, err := os.Stat(cfg.LegacyFlake); err == nil {
		if _, ok := store.Profiles[config.DefaultProfile]; !ok {
			st, err := migrateLegacyFlake(cfg)
			if err != nil {
				return nil, err
			}
			store.Profiles[config.DefaultProfile] = st
		}
	}

	if _, ok := store.Profiles[config.DefaultProfile]; !ok {
		store.Profiles[config.DefaultProfile] = state.NewPackageState()
	}
	if _, ok := store.Profiles[store.ActiveProfile]; !ok {
		store.ActiveProfile = config.DefaultProfile
	}
	return store, nil
}

// migrateProfile recovers a profile's package state. packages.json is the
// source of truth; a marker-based flake.nix without one is scraped for
// state instead.
func migrateProfile(profileDir string) (*state.PackageState, error) {
	statePath := filepath.Join(profileDir, "packages.json")
	if _, err := os.Stat(statePath); err == nil {
		return state.Load(statePath)
	}

	flakePath := filepath.Join(profileDir, "flake.nix")
	if data, err := os.ReadFile(flakePath); err == nil {
		return RecoverState(string(data)), nil
	}
	return state.NewPackageState(), nil
}

func migrateLegacyFlake(cfg *config.Config) (*state.PackageState, error) {
	stateDir := filepath.Join(cfg.ProfilesStateDir, config.DefaultProfile)
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return nil, err
	}
	if err := copyFile(cfg.LegacyFlake, filepath.Join(stateDir, "flake.nix")); err != nil {
		return nil, err
	}
	legacyLock := filepath.Join(cfg.ConfigDir, "flake.lock")
	if _, err := os.Stat(legacyLock); err == nil {
		if err := copyFile(legacyLock, filepath.Join(stateDir, "flake.lock")); err != nil {
			return nil, err
		}
	}
	legacyPackages := filepath.Join(cfg.ConfigDir, "packages")
	if _, err := os.Stat(legacyPackages); err == nil {
		if err := mergeLocalPackages(legacyPackages, cfg.GlobalPackagesDir); err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(cfg.LegacyFlake)
	if err != nil {
		return nil, err
	}
	return RecoverState(string(data)), nil
}

// mergeLocalPackages copies legacy local package files into the global
// packages directory. Existing files are never overwritten, so the first
// profile migrated wins on a name collision.
func mergeLocalPackages(src, dst string) error {
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return err
	}
	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		srcPath := filepath.Join(src, entry.Name())
		dstPath := filepath.Join(dst, entry.Name())
		if _, err := os.Stat(dstPath); err == nil {
			logging.GetLogger("migration").Debug().Str("file", entry.Name()).Msg("skipping existing local package")
			continue
		}
		if entry.IsDir() {
			if err := profile.CopyDir(srcPath, dstPath); err != nil {
				return err
			}
			continue
		}
		if err := copyFile(srcPath, dstPath); err != nil {
			return err
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o644)
}

// Package config resolves the filesystem locations nixy works with.
//
// Layout:
//
//	~/.config/nixy/
//	├── nixy.json           # single source of truth (all profiles)
//	└── packages/           # global local packages directory
//
//	~/.local/state/nixy/
//	├── env -> ...          # symlink to the active profile's build
//	└── profiles/
//	    ├── default/
//	    │   ├── flake.nix   # generated from nixy.json
//	    │   └── flake.lock  # managed by nix
//	    └── work/
//	        └── ...
//
// All locations can be overridden via NIXY_CONFIG_DIR, NIXY_STATE_DIR and
// NIXY_ENV. The defaults deliberately use ~/.config and ~/.local/state on
// every platform, not macOS Application Support.
package config

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

// DefaultProfile is the profile that always exists.
const DefaultProfile = "default"

// NixFlags enables the experimental features every nix invocation needs.
var NixFlags = []string{
	"--extra-experimental-features", "nix-command",
	"--extra-experimental-features", "flakes",
}

// Config holds every path nixy reads or writes.
type Config struct {
	// ConfigDir is ~/.config/nixy.
	ConfigDir string
	// NixyJSON is the multi-profile store file, ~/.config/nixy/nixy.json.
	NixyJSON string
	// GlobalPackagesDir holds local package definitions shared by all profiles.
	GlobalPackagesDir string
	// StateDir is ~/.local/state/nixy.
	StateDir string
	// ProfilesStateDir holds the generated flake.nix/flake.lock per profile.
	ProfilesStateDir string
	// EnvLink is the symlink to the active profile's built environment.
	EnvLink string

	// Legacy locations, only consulted during migration.
	LegacyProfilesDir string
	LegacyActiveFile  string
	LegacyFlake       string
}

// New resolves all paths, honoring environment overrides.
func New() *Config {
	configDir := os.Getenv("NIXY_CONFIG_DIR")
	if configDir == "" {
		configDir = filepath.Join(xdg.Home, ".config", "nixy")
	}

	stateDir := os.Getenv("NIXY_STATE_DIR")
	if stateDir == "" {
		stateDir = filepath.Join(xdg.Home, ".local", "state", "nixy")
	}

	envLink := os.Getenv("NIXY_ENV")
	if envLink == "" {
		envLink = filepath.Join(stateDir, "env")
	}

	return &Config{
		ConfigDir:         configDir,
		NixyJSON:          filepath.Join(configDir, "nixy.json"),
		GlobalPackagesDir: filepath.Join(configDir, "packages"),
		StateDir:          stateDir,
		ProfilesStateDir:  filepath.Join(stateDir, "profiles"),
		EnvLink:           envLink,
		LegacyProfilesDir: filepath.Join(configDir, "profiles"),
		LegacyActiveFile:  filepath.Join(configDir, "active"),
		LegacyFlake:       filepath.Join(configDir, "flake.nix"),
	}
}

// Package profile maps profile names to their on-disk directories.
//
// Package state for every profile lives in nixy.json; what a profile owns
// on disk is its state directory with the generated flake.nix and the
// flake.lock nix maintains next to it:
//
//	~/.local/state/nixy/
//	├── env -> ...          symlink to the active profile's build
//	└── profiles/
//	    ├── default/
//	    │   ├── flake.nix
//	    │   └── flake.lock
//	    └── work/
//	        └── ...
package profile

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"

	"github.com/nixydotdev/nixy/internal/config"
)

var nameRe = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ValidateName rejects profile names outside [a-zA-Z0-9_-]+.
func ValidateName(name string) error {
	if !nameRe.MatchString(name) {
		return fmt.Errorf("Invalid profile name '%s'. Use only letters, numbers, dashes, and underscores.", name)
	}
	return nil
}

// Profile locates a named profile's directories.
type Profile struct {
	Name string
	// StateDir holds the generated flake.nix and flake.lock.
	StateDir  string
	FlakePath string
	// LegacyDir is the pre-nixy.json profile directory, only consulted
	// during migration.
	LegacyDir string
}

func New(name string, cfg *config.Config) *Profile {
	stateDir := filepath.Join(cfg.ProfilesStateDir, name)
	return &Profile{
		Name:      name,
		StateDir:  stateDir,
		FlakePath: filepath.Join(stateDir, "flake.nix"),
		LegacyDir: filepath.Join(cfg.LegacyProfilesDir, name),
	}
}

// Exists reports whether the profile has a directory in either the state
// layout or the legacy layout.
func (p *Profile) Exists() bool {
	if _, err := os.Stat(p.StateDir); err == nil {
		return true
	}
	_, err := os.Stat(p.LegacyDir)
	return err == nil
}

// Create makes the profile state directory.
func (p *Profile) Create() error {
	return os.MkdirAll(p.StateDir, 0o755)
}

// Delete removes the profile state directory and any legacy directory.
func (p *Profile) Delete() error {
	if err := os.RemoveAll(p.StateDir); err != nil {
		return err
	}
	return os.RemoveAll(p.LegacyDir)
}

// FlakeDir returns the profile's state directory, creating it if needed.
// The generated flake.nix and the flake.lock nix writes both live there.
func FlakeDir(name string, cfg *config.Config) (string, error) {
	p := New(name, cfg)
	if err := p.Create(); err != nil {
		return "", fmt.Errorf("create profile dir: %w", err)
	}
	return p.StateDir, nil
}

// CopyDir recursively copies src into dst, creating dst if needed.
func CopyDir(src, dst string) error {
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
		if entry.IsDir() {
			if err := CopyDir(srcPath, dstPath); err != nil {
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
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

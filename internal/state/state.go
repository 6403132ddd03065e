// Package state holds the persisted package records for nixy.
//
// A profile's packages live in three categories: plain names bound to the
// default nixpkgs (legacy), packages resolved to a specific nixpkgs commit,
// and custom packages pulled from external flakes. A name belongs to at most
// one category at a time; every add evicts the same name from the other two.
//
// State files are written atomically (temp file, then rename) so an
// interrupted write never corrupts them.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// Version is the current schema version of a single-profile state file.
const Version = 2

// ResolvedPackage is a package pinned to a specific nixpkgs commit and
// attribute path, resolved through Nixhub.
type ResolvedPackage struct {
	Name            string   `json:"name"`
	VersionSpec     string   `json:"version_spec,omitempty"`
	ResolvedVersion string   `json:"resolved_version"`
	AttributePath   string   `json:"attribute_path"`
	CommitHash      string   `json:"commit_hash"`
	Platforms       []string `json:"platforms,omitempty"`
}

// CustomPackage is a package installed from an external flake URL.
type CustomPackage struct {
	Name        string `json:"name"`
	InputName   string `json:"input_name"`
	InputURL    string `json:"input_url"`
	// PackageOutput is "packages" or "legacyPackages".
	PackageOutput string   `json:"package_output"`
	SourceName    string   `json:"source_name,omitempty"`
	Platforms     []string `json:"platforms,omitempty"`
}

// SourcePackageName returns the attribute name in the source flake,
// falling back to Name when no alias is recorded.
func (p CustomPackage) SourcePackageName() string {
	if p.SourceName != "" {
		return p.SourceName
	}
	return p.Name
}

// PackageState is the package record for one profile.
type PackageState struct {
	Version          int               `json:"version"`
	Packages         []string          `json:"packages"`
	ResolvedPackages []ResolvedPackage `json:"resolved_packages"`
	CustomPackages   []CustomPackage   `json:"custom_packages"`
}

// NewPackageState returns an empty state at the current schema version.
func NewPackageState() *PackageState {
	return &PackageState{
		Version:          Version,
		Packages:         []string{},
		ResolvedPackages: []ResolvedPackage{},
		CustomPackages:   []CustomPackage{},
	}
}

// Load reads a state file. A missing file yields an empty default state;
// a file that exists but cannot be parsed is an error.
func Load(path string) (*PackageState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewPackageState(), nil
		}
		return nil, fmt.Errorf("read state: %w", err)
	}

	st := NewPackageState()
	if err := json.Unmarshal(data, st); err != nil {
		return nil, fmt.Errorf("parse state %s: %w", path, err)
	}
	if st.Version < Version {
		// Older schema: keep legacy entries in place, bump in memory only.
		// The upgraded form is persisted on the next save.
		st.Version = Version
	}
	st.normalizeCollections()
	return st, nil
}

// normalizeCollections replaces nil collections with empty ones. Files are
// user-editable; a profile that omits (or nulls) a category must still save
// back as the three arrays.
func (s *PackageState) normalizeCollections() {
	if s.Packages == nil {
		s.Packages = []string{}
	}
	if s.ResolvedPackages == nil {
		s.ResolvedPackages = []ResolvedPackage{}
	}
	if s.CustomPackages == nil {
		s.CustomPackages = []CustomPackage{}
	}
}

// Save writes the state atomically. The temp file is removed if either the
// write or the rename fails.
func (s *PackageState) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write state: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename state: %w", err)
	}
	return nil
}

// AddPackage records a plain nixpkgs package, evicting the name from the
// resolved and custom categories.
func (s *PackageState) AddPackage(name string) {
	s.evictResolved(name)
	s.evictCustom(name)
	if !slices.Contains(s.Packages, name) {
		s.Packages = append(s.Packages, name)
		slices.Sort(s.Packages)
	}
}

// AddResolvedPackage records a resolved package, evicting the name from the
// plain and custom categories.
func (s *PackageState) AddResolvedPackage(pkg ResolvedPackage) {
	s.evictPlain(pkg.Name)
	s.evictCustom(pkg.Name)
	s.evictResolved(pkg.Name)
	s.ResolvedPackages = append(s.ResolvedPackages, pkg)
	slices.SortFunc(s.ResolvedPackages, func(a, b ResolvedPackage) int {
		return strings.Compare(a.Name, b.Name)
	})
}

// AddCustomPackage records a custom package, evicting the name from the
// plain and resolved categories.
func (s *PackageState) AddCustomPackage(pkg CustomPackage) {
	s.evictPlain(pkg.Name)
	s.evictResolved(pkg.Name)
	s.evictCustom(pkg.Name)
	s.CustomPackages = append(s.CustomPackages, pkg)
	slices.SortFunc(s.CustomPackages, func(a, b CustomPackage) int {
		return strings.Compare(a.Name, b.Name)
	})
}

// RemovePackage deletes a name from all three categories and reports
// whether anything was removed.
func (s *PackageState) RemovePackage(name string) bool {
	removed := slices.Contains(s.Packages, name) ||
		s.GetResolvedPackage(name) != nil ||
		s.getCustomPackage(name) != nil
	s.evictPlain(name)
	s.evictResolved(name)
	s.evictCustom(name)
	return removed
}

// HasPackage reports whether the name exists in any category.
func (s *PackageState) HasPackage(name string) bool {
	return slices.Contains(s.Packages, name) ||
		s.GetResolvedPackage(name) != nil ||
		s.getCustomPackage(name) != nil
}

// GetResolvedPackage returns the resolved entry for name, or nil.
func (s *PackageState) GetResolvedPackage(name string) *ResolvedPackage {
	for i := range s.ResolvedPackages {
		if s.ResolvedPackages[i].Name == name {
			return &s.ResolvedPackages[i]
		}
	}
	return nil
}

func (s *PackageState) getCustomPackage(name string) *CustomPackage {
	for i := range s.CustomPackages {
		if s.CustomPackages[i].Name == name {
			return &s.CustomPackages[i]
		}
	}
	return nil
}

// GetCustomPackage returns the custom entry for name, or nil.
func (s *PackageState) GetCustomPackage(name string) *CustomPackage {
	return s.getCustomPackage(name)
}

// AllPackageNames returns every installed name across all categories, sorted.
func (s *PackageState) AllPackageNames() []string {
	names := slices.Clone(s.Packages)
	for _, p := range s.ResolvedPackages {
		names = append(names, p.Name)
	}
	for _, p := range s.CustomPackages {
		names = append(names, p.Name)
	}
	slices.Sort(names)
	return names
}

// Clone returns a deep copy, used for pre-mutation snapshots.
func (s *PackageState) Clone() *PackageState {
	c := &PackageState{
		Version:          s.Version,
		Packages:         slices.Clone(s.Packages),
		ResolvedPackages: make([]ResolvedPackage, len(s.ResolvedPackages)),
		CustomPackages:   make([]CustomPackage, len(s.CustomPackages)),
	}
	for i, p := range s.ResolvedPackages {
		p.Platforms = slices.Clone(p.Platforms)
		c.ResolvedPackages[i] = p
	}
	for i, p := range s.CustomPackages {
		p.Platforms = slices.Clone(p.Platforms)
		c.CustomPackages[i] = p
	}
	return c
}

func (s *PackageState) evictPlain(name string) {
	s.Packages = slices.DeleteFunc(s.Packages, func(p string) bool { return p == name })
}

func (s *PackageState) evictResolved(name string) {
	s.ResolvedPackages = slices.DeleteFunc(s.ResolvedPackages, func(p ResolvedPackage) bool {
		return p.Name == name
	})
}

func (s *PackageState) evictCustom(name string) {
	s.CustomPackages = slices.DeleteFunc(s.CustomPackages, func(p CustomPackage) bool {
		return p.Name == name
	})
}

// StatePath returns the packages.json path inside a legacy profile directory.
func StatePath(profileDir string) string {
	return filepath.Join(profileDir, "packages.json")
}

package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/nixydotdev/nixy/internal/config"
)

// StoreVersion is the current schema version of nixy.json.
const StoreVersion = 3

// ErrActiveProfile is returned when deleting the profile that is in use.
var ErrActiveProfile = errors.New("cannot delete the active profile; switch to another profile first")

// ErrProfileNotFound is wrapped with the profile name by store operations.
var ErrProfileNotFound = errors.New("profile does not exist")

// Store is the multi-profile nixy.json file.
type Store struct {
	Version       int                      `json:"version"`
	ActiveProfile string                   `json:"active_profile"`
	Profiles      map[string]*PackageState `json:"profiles"`
}

// NewStore returns a store containing only an empty default profile.
func NewStore() *Store {
	return &Store{
		Version:       StoreVersion,
		ActiveProfile: config.DefaultProfile,
		Profiles: map[string]*PackageState{
			config.DefaultProfile: NewPackageState(),
		},
	}
}

// LoadStore reads nixy.json. A missing file yields the default store. The
// result is always normalized: the default profile exists and the active
// pointer resolves, no matter what a hand-edited file claims.
func LoadStore(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewStore(), nil
		}
		return nil, fmt.Errorf("read store: %w", err)
	}

	var store Store
	if err := json.Unmarshal(data, &store); err != nil {
		return nil, fmt.Errorf("parse store %s: %w", path, err)
	}
	if store.Version < StoreVersion {
		store.Version = StoreVersion
	}
	store.normalize()
	return &store, nil
}

// normalize re-establishes the store invariants after every load. The file
// is user-editable, so neither the default profile nor a valid active
// pointer can be assumed.
func (s *Store) normalize() {
	if s.Profiles == nil {
		s.Profiles = make(map[string]*PackageState)
	}
	for name, profile := range s.Profiles {
		if profile == nil {
			s.Profiles[name] = NewPackageState()
			continue
		}
		profile.normalizeCollections()
	}
	if _, ok := s.Profiles[config.DefaultProfile]; !ok {
		s.Profiles[config.DefaultProfile] = NewPackageState()
	}
	if _, ok := s.Profiles[s.ActiveProfile]; !ok {
		s.ActiveProfile = config.DefaultProfile
	}
}

// Save writes the store atomically, cleaning up the temp file on failure.
func (s *Store) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal store: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write store: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename store: %w", err)
	}
	return nil
}

// ActiveState returns the package state of the active profile.
func (s *Store) ActiveState() *PackageState {
	return s.Profiles[s.ActiveProfile]
}

// CreateProfile adds an empty profile. Creating an existing profile is not
// an error.
func (s *Store) CreateProfile(name string) {
	if _, ok := s.Profiles[name]; !ok {
		s.Profiles[name] = NewPackageState()
	}
}

// DeleteProfile removes a profile. The active profile cannot be deleted.
func (s *Store) DeleteProfile(name string) error {
	if name == s.ActiveProfile {
		return ErrActiveProfile
	}
	if _, ok := s.Profiles[name]; !ok {
		return fmt.Errorf("profile %q: %w", name, ErrProfileNotFound)
	}
	delete(s.Profiles, name)
	return nil
}

// SetActiveProfile switches the active pointer to an existing profile.
func (s *Store) SetActiveProfile(name string) error {
	if _, ok := s.Profiles[name]; !ok {
		return fmt.Errorf("profile %q: %w", name, ErrProfileNotFound)
	}
	s.ActiveProfile = name
	return nil
}

// ListProfiles returns all profile names, sorted.
func (s *Store) ListProfiles() []string {
	names := make([]string, 0, len(s.Profiles))
	for name := range s.Profiles {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// ProfileExists reports whether a profile is present.
func (s *Store) ProfileExists(name string) bool {
	_, ok := s.Profiles[name]
	return ok
}

// Clone returns a deep copy, used for pre-mutation snapshots.
func (s *Store) Clone() *Store {
	c := &Store{
		Version:       s.Version,
		ActiveProfile: s.ActiveProfile,
		Profiles:      make(map[string]*PackageState, len(s.Profiles)),
	}
	for name, profile := range s.Profiles {
		c.Profiles[name] = profile.Clone()
	}
	return c
}

// StoreExists reports whether nixy.json has been written yet.
func StoreExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

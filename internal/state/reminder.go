package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Reminder tracks one-time hints nixy has already shown, so a user who
// chose not to act on them is not nagged on every sync.
type Reminder struct {
	PathHintShown bool `json:"path_hint_shown"`
}

// ReminderPath returns the reminder file location inside the state dir.
func ReminderPath(stateDir string) string {
	return filepath.Join(stateDir, "reminder.json")
}

// LoadReminder reads reminder state. Returns default state if the file is
// missing or contains invalid JSON (logs a warning to stderr in the latter
// case).
func LoadReminder(path string) (*Reminder, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Reminder{}, nil
		}
		return nil, fmt.Errorf("failed to read reminder file: %w", err)
	}

	var r Reminder
	if err := json.Unmarshal(data, &r); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to parse reminder file, using defaults: %v\n", err)
		return &Reminder{}, nil
	}

	return &r, nil
}

// SaveReminder writes reminder state atomically (temp file + rename).
func SaveReminder(path string, r *Reminder) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create reminder directory: %w", err)
	}

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal reminder data: %w", err)
	}

	tmpFile := path + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0o644); err != nil {
		return fmt.Errorf("failed to write temporary reminder file: %w", err)
	}

	if err := os.Rename(tmpFile, path); err != nil {
		_ = os.Remove(tmpFile)
		return fmt.Errorf("failed to rename reminder file: %w", err)
	}

	return nil
}

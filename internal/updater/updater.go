// Package updater checks GitHub releases for new nixy versions and
// replaces the running binary on self-upgrade.
package updater

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/nixydotdev/nixy/internal/config"
	"github.com/nixydotdev/nixy/internal/ui"
)

const (
	checkInterval = 24 * time.Hour
	releaseAPI    = "https://api.github.com/repos/nixydotdev/nixy/releases/latest"
)

type Release struct {
	TagName string  `json:"tag_name"`
	Assets  []Asset `json:"assets"`
}

type Asset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
}

type CheckState struct {
	LastCheck       time.Time `json:"last_check"`
	LatestVersion   string    `json:"latest_version"`
	UpdateAvailable bool      `json:"update_available"`
}

func ShowUpdateNotificationIfAvailable(currentVersion string) {
	state, err := loadState()
	if err != nil {
		return
	}

	if state.UpdateAvailable && isNewerVersion(state.LatestVersion, currentVersion) {
		ui.Warn(fmt.Sprintf("New version available: %s (current: v%s)", state.LatestVersion, currentVersion))
		ui.Muted("Run 'nixy self-upgrade' to upgrade")
		fmt.Println()
	}
}

func CheckForUpdatesAsync(currentVersion string) {
	go func() {
		state, _ := loadState()

		if state != nil && time.Since(state.LastCheck) < checkInterval {
			return
		}

		release, err := latestRelease()
		if err != nil {
			return
		}

		saveState(&CheckState{
			LastCheck:       time.Now(),
			LatestVersion:   release.TagName,
			UpdateAvailable: isNewerVersion(release.TagName, currentVersion),
		})
	}()
}

// SelfUpgrade downloads the latest release binary for this platform and
// swaps it in over the running executable. Returns the new version tag, or
// "" when already up to date. With force set the version check is skipped
// and the latest release is installed unconditionally.
func SelfUpgrade(currentVersion string, force bool) (string, error) {
	release, err := latestRelease()
	if err != nil {
		return "", fmt.Errorf("check latest release: %w", err)
	}
	if !force && !isNewerVersion(release.TagName, currentVersion) {
		return "", nil
	}

	assetName := fmt.Sprintf("nixy-%s-%s", runtime.GOOS, runtime.GOARCH)
	var url string
	for _, asset := range release.Assets {
		if asset.Name == assetName {
			url = asset.BrowserDownloadURL
			break
		}
	}
	if url == "" {
		return "", fmt.Errorf("release %s has no binary for %s/%s", release.TagName, runtime.GOOS, runtime.GOARCH)
	}

	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return "", err
	}

	if err := downloadAndReplace(url, exe); err != nil {
		return "", err
	}
	return release.TagName, nil
}

// downloadAndReplace writes the new binary next to the target and renames
// it into place, so the swap is atomic and never leaves a half-written
// executable on the PATH.
func downloadAndReplace(url, target string) error {
	client := &http.Client{Timeout: 5 * time.Minute}
	resp, err := client.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download returned %s", resp.Status)
	}

	tmp := target + ".tmp"
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o755)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

func isNewerVersion(latest, current string) bool {
	if latest == "" {
		return false
	}

	latestClean := trimVersionPrefix(latest)
	currentClean := trimVersionPrefix(current)

	return latestClean != currentClean && latestClean > currentClean
}

func trimVersionPrefix(v string) string {
	if len(v) > 0 && v[0] == 'v' {
		return v[1:]
	}
	return v
}

func latestRelease() (*Release, error) {
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(releaseAPI)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GitHub API returned %d", resp.StatusCode)
	}

	var release Release
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return nil, err
	}
	if release.TagName == "" {
		return nil, errors.New("release has no tag name")
	}

	return &release, nil
}

func getCheckFilePath() string {
	return filepath.Join(config.New().StateDir, "update_state.json")
}

func loadState() (*CheckState, error) {
	data, err := os.ReadFile(getCheckFilePath())
	if err != nil {
		return nil, err
	}

	var state CheckState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}

	return &state, nil
}

func saveState(state *CheckState) error {
	path := getCheckFilePath()
	os.MkdirAll(filepath.Dir(path), 0o755)

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o644)
}

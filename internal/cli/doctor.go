package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nixydotdev/nixy/internal/flake"
	"github.com/nixydotdev/nixy/internal/nix"
	"github.com/nixydotdev/nixy/internal/shell"
	"github.com/nixydotdev/nixy/internal/state"
	"github.com/nixydotdev/nixy/internal/ui"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the health of the nixy installation",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDoctor()
	},
}

type doctorCheck struct {
	name string
	run  func() (string, error)
}

func runDoctor() error {
	checks := []doctorCheck{
		{"nix installation", checkNix},
		{"package store", checkStore},
		{"generated flake", checkFlake},
		{"environment link", checkEnvLink},
		{"PATH", checkPath},
	}

	names := make([]string, len(checks))
	for i, c := range checks {
		names[i] = c.name
	}

	sp := ui.NewStepProgress("Checking nixy installation", names)
	for i, c := range checks {
		sp.StartStep(i)
		detail, err := c.run()
		if err != nil {
			sp.FinishStep(i, false, err.Error())
			continue
		}
		sp.FinishStep(i, true, detail)
	}
	sp.Finish()

	if failed := sp.Failed(); failed > 0 {
		return fmt.Errorf("%d check(s) failed", failed)
	}
	ui.Success("Everything looks good")
	return nil
}

func checkNix() (string, error) {
	if err := nix.CheckInstalled(); err != nil {
		return "", err
	}
	system, err := nix.CurrentSystem()
	if err != nil {
		return "", err
	}
	return system, nil
}

func checkStore() (string, error) {
	store, err := state.LoadStore(cfg.NixyJSON)
	if err != nil {
		return "", err
	}
	active := store.ActiveState()
	return fmt.Sprintf("profile '%s', %d packages",
		store.ActiveProfile, len(active.AllPackageNames())), nil
}

func checkFlake() (string, error) {
	store, err := state.LoadStore(cfg.NixyJSON)
	if err != nil {
		return "", err
	}
	flakeDir, err := activeFlakeDir(store)
	if err != nil {
		return "", err
	}
	flakePath := filepath.Join(flakeDir, "flake.nix")
	content, err := os.ReadFile(flakePath)
	if os.IsNotExist(err) {
		return "", fmt.Errorf("missing; run 'nixy sync'")
	}
	if err != nil {
		return "", err
	}
	if !flake.IsManaged(string(content)) {
		return "", fmt.Errorf("%s is not managed by nixy", flakePath)
	}
	return flakePath, nil
}

func checkEnvLink() (string, error) {
	target, err := os.Readlink(cfg.EnvLink)
	if os.IsNotExist(err) {
		return "", fmt.Errorf("missing; run 'nixy sync'")
	}
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(cfg.EnvLink); err != nil {
		return "", fmt.Errorf("dangling link to %s", target)
	}
	return target, nil
}

func checkPath() (string, error) {
	binDir := filepath.Join(cfg.EnvLink, "bin")
	for _, dir := range filepath.SplitList(os.Getenv("PATH")) {
		if dir == binDir {
			return binDir, nil
		}
	}
	sh := shell.Detect()
	return "", fmt.Errorf("%s is not on PATH. Add: %s", binDir, shell.HintCommand(sh))
}

package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/nixydotdev/nixy/internal/flake"
	"github.com/nixydotdev/nixy/internal/nix"
	"github.com/nixydotdev/nixy/internal/profile"
	"github.com/nixydotdev/nixy/internal/state"
	"github.com/nixydotdev/nixy/internal/ui"
)

var (
	profileSwitchCreate bool
	profileDeleteForce  bool
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Profile management commands",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := loadStore()
		if err != nil {
			return err
		}
		ui.Info(fmt.Sprintf("Active profile: %s", store.ActiveProfile))
		return nil
	},
}

var profileSwitchCmd = &cobra.Command{
	Use:     "switch <name>",
	Aliases: []string{"use"},
	Short:   "Switch to a different profile",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runProfileSwitch(args[0], profileSwitchCreate)
	},
}

var profileListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List all profiles",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runProfileList()
	},
}

var profileDeleteCmd = &cobra.Command{
	Use:     "delete <name>",
	Aliases: []string{"rm"},
	Short:   "Delete a profile",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runProfileDelete(args[0], profileDeleteForce)
	},
}

func init() {
	profileSwitchCmd.Flags().BoolVarP(&profileSwitchCreate, "create", "c", false,
		"create the profile if it doesn't exist")
	profileDeleteCmd.Flags().BoolVar(&profileDeleteForce, "force", false,
		"delete without confirmation")

	profileCmd.AddCommand(profileSwitchCmd)
	profileCmd.AddCommand(profileListCmd)
	profileCmd.AddCommand(profileDeleteCmd)
}

func runProfileSwitch(name string, create bool) error {
	if err := profile.ValidateName(name); err != nil {
		return err
	}

	store, err := loadStore()
	if err != nil {
		return err
	}

	if !store.ProfileExists(name) {
		if !create {
			return fmt.Errorf("Profile '%s' does not exist. Use -c to create it: nixy profile switch -c %s",
				name, name)
		}
		ui.Info(fmt.Sprintf("Creating profile '%s'...", name))
		store.CreateProfile(name)
	}

	ui.Info(fmt.Sprintf("Switching to profile '%s'...", name))
	if err := store.SetActiveProfile(name); err != nil {
		return err
	}
	if err := store.Save(cfg.NixyJSON); err != nil {
		return err
	}

	flakeDir, err := activeFlakeDir(store)
	if err != nil {
		return err
	}
	active := store.ActiveState()
	if err := flake.Regenerate(flakeDir, active, cfg.GlobalPackagesDir); err != nil {
		return err
	}

	if len(active.AllPackageNames()) == 0 {
		ui.Success(fmt.Sprintf("Switched to profile '%s' (no packages installed)", name))
		return nil
	}

	ui.Info(fmt.Sprintf("Building environment for profile '%s'...", name))
	if err := os.MkdirAll(cfg.StateDir, 0o755); err != nil {
		return err
	}
	if err := nix.Build(flakeDir, "default", cfg.EnvLink); err != nil {
		ui.Warn("Profile switched but environment build failed. Run 'nixy sync' to rebuild.")
	}
	ui.Success(fmt.Sprintf("Switched to profile '%s'", name))
	return nil
}

func runProfileList() error {
	store, err := loadStore()
	if err != nil {
		return err
	}

	ui.Info("Available profiles:")
	for _, name := range store.ListProfiles() {
		if name == store.ActiveProfile {
			fmt.Printf("  * %s (active)\n", name)
		} else {
			fmt.Printf("    %s\n", name)
		}
	}
	return nil
}

func runProfileDelete(name string, force bool) error {
	if err := profile.ValidateName(name); err != nil {
		return err
	}

	store, err := loadStore()
	if err != nil {
		return err
	}
	if !store.ProfileExists(name) {
		return fmt.Errorf("Profile '%s' does not exist", name)
	}

	if !force {
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			ui.Warn(fmt.Sprintf("This will delete profile '%s' and all its packages.", name))
			return errors.New("Use --force to confirm deletion.")
		}
		ok, err := ui.Confirm(fmt.Sprintf("Delete profile '%s' and all its packages?", name), false)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
	}

	ui.Info(fmt.Sprintf("Deleting profile '%s'...", name))
	if err := store.DeleteProfile(name); err != nil {
		if errors.Is(err, state.ErrActiveProfile) {
			return errors.New("Cannot delete the active profile. Switch to another profile first.")
		}
		return err
	}
	if err := store.Save(cfg.NixyJSON); err != nil {
		return err
	}
	if err := profile.New(name, cfg).Delete(); err != nil {
		return err
	}

	ui.Success(fmt.Sprintf("Deleted profile '%s'", name))
	return nil
}

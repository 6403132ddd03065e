package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nixydotdev/nixy/internal/ui"
	"github.com/nixydotdev/nixy/internal/updater"
)

var selfUpgradeForce bool

var selfUpgradeCmd = &cobra.Command{
	Use:   "self-upgrade",
	Short: "Upgrade nixy to the latest release",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ui.Info(fmt.Sprintf("Current version: %s", version))
		ui.Info("Checking for updates...")

		tag, err := updater.SelfUpgrade(version, selfUpgradeForce)
		if err != nil {
			return err
		}
		if tag == "" {
			ui.Success("Already up to date")
			return nil
		}
		ui.Success(fmt.Sprintf("Upgraded to %s", tag))
		return nil
	},
}

func init() {
	selfUpgradeCmd.Flags().BoolVar(&selfUpgradeForce, "force", false,
		"reinstall even if already on the latest version")
}

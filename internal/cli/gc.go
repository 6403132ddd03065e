package cli

import (
	"github.com/spf13/cobra"

	"github.com/nixydotdev/nixy/internal/nix"
	"github.com/nixydotdev/nixy/internal/ui"
)

var gcCmd = &cobra.Command{
	Use:   "gc",
	Short: "Delete unused packages from the Nix store",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ui.Info("Running garbage collection...")
		if err := nix.GC(); err != nil {
			return err
		}
		ui.Success("Garbage collection complete")
		return nil
	},
}

package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/nixydotdev/nixy/internal/flake"
	"github.com/nixydotdev/nixy/internal/ui"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List installed packages",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runList()
	},
}

func runList() error {
	store, err := loadStore()
	if err != nil {
		return err
	}
	active := store.ActiveState()

	ui.Info(fmt.Sprintf("Installed packages (profile '%s'):", store.ActiveProfile))

	names := active.AllPackageNames()

	localPackages, localFlakes := flake.CollectLocalPackages(cfg.GlobalPackagesDir)
	for _, pkg := range localPackages {
		if !slices.Contains(names, pkg.Name) {
			names = append(names, pkg.Name)
		}
	}
	for _, lf := range localFlakes {
		if !slices.Contains(names, lf.Name) {
			names = append(names, lf.Name)
		}
	}
	slices.Sort(names)

	if len(names) == 0 {
		fmt.Println("  (none)")
		return nil
	}

	for _, name := range names {
		if resolved := active.GetResolvedPackage(name); resolved != nil {
			fmt.Printf("  %s %s\n", name, ui.Blue(resolved.ResolvedVersion))
		} else {
			fmt.Printf("  %s\n", name)
		}
	}
	return nil
}

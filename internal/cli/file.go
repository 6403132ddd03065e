package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nixydotdev/nixy/internal/nix"
)

var fileCmd = &cobra.Command{
	Use:   "file <package>",
	Short: "Show the path to a package's source in the Nix store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFile(args[0])
	},
}

func runFile(name string) error {
	store, err := loadStore()
	if err != nil {
		return err
	}
	active := store.ActiveState()

	if custom := active.GetCustomPackage(name); custom != nil {
		storePath, err := nix.FlakePrefetch(custom.InputURL)
		if err != nil {
			return err
		}
		fmt.Println(filepath.Join(storePath, "flake.nix"))
		return nil
	}

	if resolved := active.GetResolvedPackage(name); resolved != nil {
		system, err := nix.CurrentSystem()
		if err != nil {
			return err
		}
		path, err := nix.PackageSourcePath(resolved.CommitHash, resolved.AttributePath, system)
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	}

	for _, pkg := range active.Packages {
		if pkg == name {
			system, err := nix.CurrentSystem()
			if err != nil {
				return err
			}
			path, err := nix.PackageSourcePath("nixos-unstable", name, system)
			if err != nil {
				return err
			}
			fmt.Println(path)
			return nil
		}
	}

	localNix := filepath.Join(cfg.GlobalPackagesDir, name+".nix")
	localFlake := filepath.Join(cfg.GlobalPackagesDir, name, "flake.nix")
	if info, err := os.Stat(localNix); err == nil && !info.IsDir() {
		fmt.Println(localNix)
		return nil
	}
	if info, err := os.Stat(localFlake); err == nil && !info.IsDir() {
		fmt.Println(localFlake)
		return nil
	}

	return fmt.Errorf("package '%s' is not installed", name)
}

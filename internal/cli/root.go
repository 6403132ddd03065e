// Package cli wires the nixy commands. Each verb lives in its own file;
// shared transaction plumbing is in helpers.go.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nixydotdev/nixy/internal/config"
	"github.com/nixydotdev/nixy/internal/logging"
	"github.com/nixydotdev/nixy/internal/migration"
	"github.com/nixydotdev/nixy/internal/nix"
	"github.com/nixydotdev/nixy/internal/updater"
)

var (
	version   = "dev"
	verbosity int
	cfg       *config.Config
)

var rootCmd = &cobra.Command{
	Use:           "nixy",
	Short:         "Homebrew-style wrapper for Nix using flake.nix",
	SilenceUsage:  true,
	SilenceErrors: true,
	Example: `  # Install a package
  nixy install ripgrep

  # Install a specific version
  nixy install nodejs@20

  # Install from a flake
  nixy install github:nix-community/neovim-nightly-overlay#neovim

  # Switch profiles
  nixy profile switch -c work`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logging.Setup(verbosity)
		cfg = config.New()

		if err := nix.CheckInstalled(); err != nil {
			return err
		}

		// Commands that never read nixy.json skip the legacy migration.
		switch cmd.Name() {
		case "config", "search", "self-upgrade", "version", "help", "completion":
			return nil
		}
		return migration.RunIfNeeded(cfg)
	},
}

func init() {
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "increase log verbosity (-v info, -vv debug)")

	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(uninstallCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(upgradeCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(fileCmd)
	rootCmd.AddCommand(gcCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(selfUpgradeCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.SetUsageTemplate(usageTemplate)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show nixy version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("nixy v%s\n", version)
		updater.ShowUpdateNotificationIfAvailable(version)
	},
}

const usageTemplate = `Usage:{{if .Runnable}}
  {{.UseLine}}{{end}}{{if .HasAvailableSubCommands}}
  {{.CommandPath}} [command]{{end}}{{if gt (len .Aliases) 0}}

Aliases:
  {{.NameAndAliases}}{{end}}{{if .HasExample}}

Examples:
{{.Example}}{{end}}{{if .HasAvailableSubCommands}}

Commands:{{range .Commands}}{{if (or .IsAvailableCommand (eq .Name "help"))}}
  {{rpad .Name .NamePadding }} {{.Short}}{{end}}{{end}}{{end}}{{if .HasAvailableLocalFlags}}

Flags:
{{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}{{end}}{{if .HasAvailableInheritedFlags}}

Global Flags:
{{.InheritedFlags.FlagUsages | trimTrailingWhitespaces}}{{end}}{{if .HasHelpSubCommands}}

Additional help topics:{{range .Commands}}{{if .IsAdditionalHelpTopicCommand}}
  {{rpad .CommandPath .CommandPathPadding}} {{.Short}}{{end}}{{end}}{{end}}{{if .HasAvailableSubCommands}}

Use "{{.CommandPath}} [command] --help" for more information about a command.{{end}}

Learn more:
  GitHub: https://github.com/nixydotdev/nixy
`

func Execute() error {
	updater.CheckForUpdatesAsync(version)
	return rootCmd.Execute()
}

package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/nixydotdev/nixy/internal/migration"
	"github.com/nixydotdev/nixy/internal/nixhub"
	"github.com/nixydotdev/nixy/internal/ui"
)

var searchNoInteractive bool

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search for packages on Nixhub",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSearch(args[0])
	},
}

func init() {
	searchCmd.Flags().BoolVar(&searchNoInteractive, "no-interactive", false,
		"print results without the interactive picker")
}

func runSearch(query string) error {
	ui.Info(fmt.Sprintf("Searching for %s...", query))

	client := nixhub.NewClient()
	resp, err := client.Search(query)
	if err != nil {
		return err
	}

	if len(resp.Results) == 0 {
		ui.Info("No packages found")
		return nil
	}

	interactive := !searchNoInteractive && term.IsTerminal(int(os.Stdout.Fd()))
	if !interactive {
		for _, result := range resp.Results {
			if result.Summary != "" {
				fmt.Printf("  %s  %s\n", ui.Cyan(result.Name), result.Summary)
			} else {
				fmt.Printf("  %s\n", ui.Cyan(result.Name))
			}
		}
		return nil
	}

	items := make([]ui.SelectorItem, len(resp.Results))
	for i, result := range resp.Results {
		items[i] = ui.SelectorItem{Name: result.Name, Description: result.Summary}
	}

	selected, confirmed, err := ui.RunSelector(items)
	if err != nil {
		return err
	}
	if !confirmed || len(selected) == 0 {
		return nil
	}

	ok, err := ui.Confirm(fmt.Sprintf("Install %s?", strings.Join(selected, ", ")), true)
	if err != nil || !ok {
		return err
	}

	// Search itself skips the legacy migration; installing must not.
	if err := migration.RunIfNeeded(cfg); err != nil {
		return err
	}
	return runInstall(selected)
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nixydotdev/nixy/internal/shell"
)

var configCmd = &cobra.Command{
	Use:   "config <shell>",
	Short: "Output shell config (for eval in rc files)",
	Example: `  # bash/zsh
  eval "$(nixy config zsh)"

  # fish
  nixy config fish | source`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := ""
		if len(args) > 0 {
			name = args[0]
		}
		snippet, err := shell.Snippet(name)
		if err != nil {
			return err
		}
		fmt.Println(snippet)
		return nil
	},
}

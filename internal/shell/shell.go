// Package shell detects the user's shell and renders the PATH snippets
// nixy emits for rc files via 'nixy config <shell>'.
package shell

import (
	"fmt"
	"os"
	"path/filepath"
)

const snippetHeader = "# nixy shell configuration"

// Detect returns the user's shell from $SHELL, falling back to zsh when
// it is unset or unsupported.
func Detect() string {
	switch base := filepath.Base(os.Getenv("SHELL")); base {
	case "bash", "zsh", "fish":
		return base
	default:
		return "zsh"
	}
}

// Snippet returns the rc-file snippet that puts the nixy environment on
// PATH. The path is spelled with $HOME so the same line works on every
// machine the rc file is synced to.
func Snippet(shell string) (string, error) {
	switch shell {
	case "bash", "zsh", "sh":
		return snippetHeader + "\n" +
			`export PATH="$HOME/.local/state/nixy/env/bin:$PATH"`, nil
	case "fish":
		return snippetHeader + "\n" +
			"set -gx PATH $HOME/.local/state/nixy/env/bin $PATH", nil
	case "":
		return "", fmt.Errorf(`Usage: nixy config <shell>
Supported shells: bash, zsh, fish

Add to your shell config:
  bash/zsh: eval "$(nixy config zsh)"
  fish:     nixy config fish | source`)
	default:
		return "", fmt.Errorf("Unknown shell: %s. Supported: bash, zsh, fish", shell)
	}
}

// HintCommand returns the one-liner the user should add to their rc file
// for the given shell.
func HintCommand(shell string) string {
	if shell == "fish" {
		return "nixy config fish | source"
	}
	return fmt.Sprintf(`eval "$(nixy config %s)"`, shell)
}

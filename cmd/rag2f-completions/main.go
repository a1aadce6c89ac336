// Command rag2f-completions writes shell completion scripts for rag2f.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/rag2f/rag2f/cmd/rag2f"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <bash|zsh|fish|powershell>\n", os.Args[0])
		os.Exit(1)
	}

	if err := generate(os.Stdout, os.Args[1]); err != nil {
		fmt.Fprintln(os.Stderr, rag2f.ErrorStyle.Render(err.Error()))
		os.Exit(1)
	}
}

func generate(w io.Writer, shell string) error {
	rootCmd := rag2f.NewRootCmd()

	var err error
	switch shell {
	case "bash":
		err = rootCmd.GenBashCompletionV2(w, true)
	case "zsh":
		err = rootCmd.GenZshCompletion(w)
	case "fish":
		err = rootCmd.GenFishCompletion(w, true)
	case "powershell":
		err = rootCmd.GenPowerShellCompletionWithDesc(w)
	default:
		return fmt.Errorf("unknown shell %q (supported: bash, zsh, fish, powershell)", shell)
	}
	if err != nil {
		return fmt.Errorf("generating %s completion: %w", shell, err)
	}
	return nil
}

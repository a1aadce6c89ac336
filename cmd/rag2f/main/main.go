package main

import (
	"fmt"
	"os"

	"github.com/rag2f/rag2f/cmd/rag2f"
)

func main() {
	rootCmd := rag2f.NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		// Print the error in red
		fmt.Fprintln(os.Stderr, rag2f.ErrorStyle.Render(fmt.Sprintf("Error: %v", err)))
		os.Exit(1)
	}
}

// Command rag2f-manpage writes the rag2f(1) man page to stdout.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra/doc"

	"github.com/rag2f/rag2f/cmd/rag2f"
	"github.com/rag2f/rag2f/internal/version"
)

func main() {
	if err := generate(os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error generating man page: %v\n", err)
		os.Exit(1)
	}
}

func generate(w io.Writer) error {
	header := &doc.GenManHeader{
		Title:   "RAG2F",
		Section: "1",
		Source:  "rag2f " + version.Version,
		Manual:  "rag2f manual",
	}
	return doc.GenMan(rag2f.NewRootCmd(), header, w)
}

// Command sp-manpage renders the sp man pages. With no argument it writes
// sp(1) to stdout; with a directory it writes one page per command there.
package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra/doc"

	"github.com/arthur-debert/skillpack/internal/cli"
	"github.com/arthur-debert/skillpack/internal/version"
)

func main() {
	var dir string
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}
	if err := render(os.Stdout, dir); err != nil {
		fmt.Fprintf(os.Stderr, "Error generating man page: %v\n", err)
		os.Exit(1)
	}
}

func render(w io.Writer, dir string) error {
	rootCmd := cli.NewRootCmd()
	header := manHeader(version.Version, version.Date)
	if dir == "" {
		return doc.GenMan(rootCmd, header, w)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	return doc.GenManTree(rootCmd, header, dir)
}

// manHeader stamps pages with the build date so release pages are
// reproducible. Development builds fall back to the current time.
func manHeader(ver, built string) *doc.GenManHeader {
	header := &doc.GenManHeader{
		Title:   "SP",
		Section: "1",
		Source:  "skillpack " + ver,
		Manual:  "Skillpack Commands",
	}
	if at, err := time.Parse(time.RFC3339, built); err == nil {
		header.Date = &at
	}
	return header
}

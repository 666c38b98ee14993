// Command qrelax finds cooperative answers for failing RDF queries.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/qrelax/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}

// Command geometrix compiles, renders and checks geometry sources.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/geometrix/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}

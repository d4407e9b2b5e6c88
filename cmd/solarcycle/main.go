// Command solarcycle is the entry point for the solar panel lifecycle tracker.
// All logic lives in internal/; main only runs the root command.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sakif/solarcycle/internal/cli"
)

func main() {
	if err := cli.Execute(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// Command hoganserver renders handlebars-style templates against
// git-backed JSON configuration, either once offline (transform) or as a
// long-running cache-backed HTTP service (server).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "hoganserver",
		Short: "Template-rendering configuration service",
	}

	root.AddCommand(newTransformCommand())
	root.AddCommand(newServerCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

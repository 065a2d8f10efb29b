// Command ingestctl is the ingestion gateway's operator CLI: validate
// a config file before deploying it, and inspect or replay whatever
// has piled up in a file-backed dead-letter destination.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var log = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

func main() {
	root := &cobra.Command{
		Use:   "ingestctl",
		Short: "operator tooling for the ingestion gateway",
	}

	root.AddCommand(newConfigCmd())
	root.AddCommand(newDLQCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

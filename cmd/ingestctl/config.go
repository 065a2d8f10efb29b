package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ravndata/ingestgate/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "inspect and validate gateway configuration",
	}
	cmd.AddCommand(newConfigValidateCmd())
	return cmd
}

func newConfigValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <path>",
		Short: "load a config file and report whether it is valid",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(args[0])
			if err != nil {
				return fmt.Errorf("config invalid: %w", err)
			}

			fmt.Printf("config valid: %s\n", args[0])
			fmt.Printf("  server.port:            %d\n", cfg.Server.Port)
			fmt.Printf("  queue.capacity:         %d\n", cfg.Queue.Capacity)
			fmt.Printf("  batch.size:             %d\n", cfg.Batch.Size)
			fmt.Printf("  batch.flush_interval:   %s\n", cfg.Batch.FlushInterval)
			fmt.Printf("  retry.max_attempts:     %d\n", cfg.Retry.MaxAttempts)
			fmt.Printf("  retry.base_delay:       %s\n", cfg.Retry.BaseDelay)
			fmt.Printf("  sink.primary.type:      %s\n", cfg.Sink.Primary.Type)
			fmt.Printf("  sink.dlq.type:          %s\n", cfg.Sink.DLQ.Type)
			return nil
		},
	}
}

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the backend is running",
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := newClient().Health(context.Background())
		if err != nil {
			return fmt.Errorf("backend unreachable at %s: %w", cfg.Client.APIBaseURL, err)
		}
		fmt.Printf("%s: %s\n", h.Status, h.Message)
		return nil
	},
}

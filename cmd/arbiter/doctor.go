package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"buzzquiz/arbiter/internal/health"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the controller, capture sidecar and embedder are reachable",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		st := health.CheckAll(cmd.Context(), cfg)
		fmt.Fprint(cmd.OutOrStdout(), st.String())
		if !st.OK {
			return errors.New("health checks failed")
		}
		return nil
	},
}

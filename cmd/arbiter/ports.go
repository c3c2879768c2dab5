package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"buzzquiz/arbiter/internal/device"
)

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List serial ports and mark likely buzzer controllers",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ports, err := device.Ports()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(ports) == 0 {
			fmt.Fprintln(out, "no serial ports found")
			return nil
		}
		mark := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#10B981"))
		for _, p := range ports {
			line := fmt.Sprintf("%-16s %-32s %s:%s", p.Name, p.Product, p.VID, p.PID)
			if p.Controller {
				line = mark.Render(line + "  controller")
			}
			fmt.Fprintln(out, line)
		}
		return nil
	},
}

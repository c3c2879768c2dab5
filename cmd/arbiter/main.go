package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"buzzquiz/arbiter/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "arbiter",
	Short: "Buzzer quiz arbiter",
	Long: `arbiter runs a buzzer quiz against a serial-attached controller.
The first contestant to buzz gets the floor, their spoken answer is
transcribed and judged, and off-topic, missing or copied answers are
penalised on the device.`,
	SilenceUsage: true,
	RunE:         runQuiz,
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (yaml, toml or json)")
	rootCmd.PersistentFlags().StringP("port", "p", "", "serial port of the controller (default: auto-discover)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "also print dropped buzzes and state changes")

	rootCmd.AddCommand(runCmd, portsCmd, doctorCmd)
}

func main() {
	// Load .env file if present (ignored if missing)
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the config file named by --config and applies flag overrides.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	if port, _ := cmd.Flags().GetString("port"); port != "" {
		cfg.Device.Port = port
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Log.Level = level
	}
	return cfg, nil
}

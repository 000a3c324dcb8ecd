// Package cli implements the thermactl command-line interface using
// Cobra. Each subcommand maps to one control-plane operation: run the
// governor daemon, manage thermal profiles, or calibrate via a stress
// session.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "thermactl",
	Short: "Thermal governor for handheld streaming devices",
	Long: `thermactl keeps a streaming handheld inside its thermal envelope.
It polls SoC and battery temperatures, throttles the encoder through
graduated actions, holds battery charging when heat demands it, and
records history for tuning.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.Bool("debug", false, "Enable debugging mode")
	flags.Bool("verbose", false, "Enable verbose logging")
	flags.String("log-level", "", "Log level (debug, info, warn, error)")
	flags.Int("interval", 0, "Seconds between governor evaluations")
	flags.String("profile", "", "Thermal profile override name")
	flags.String("state-dir", "", "Directory for persisted history and profiles")
	flags.Bool("telemetry", false, "Enable telemetry collection")
	flags.String("telemetry-db", "", "Path to the telemetry database")
}

// Execute runs the root command. Called from main.go.
func Execute(version string) {
	rootCmd.Version = version

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

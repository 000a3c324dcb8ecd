package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kasard/thermactl/internal/logger"
	"github.com/kasard/thermactl/internal/stress"
)

func init() {
	stressCmd.Flags().Int("duration", 120, "Session length in seconds (clamped to 60-600)")
	stressCmd.Flags().Bool("apply", false, "Persist the recommended profile as the override")
	rootCmd.AddCommand(stressCmd)
}

var stressCmd = &cobra.Command{
	Use:   "stress",
	Short: "Run a calibration stress session and derive a profile",
	Long: `Run the governor while an external load keeps the device busy,
sample temperatures for the session length, and derive recommended
thresholds and a sustainable encode tier from the observed peaks.`,
	RunE: runStress,
}

func runStress(cmd *cobra.Command, _ []string) error {
	durationSec, _ := cmd.Flags().GetInt("duration")
	apply, _ := cmd.Flags().GetBool("apply")

	s, err := buildStack(newLogThrottler())
	if err != nil {
		return err
	}
	defer s.close()

	s.gov.Start()

	test := stress.New(s.mon, s.gov, 0)
	if err := test.Start(time.Duration(durationSec) * time.Second); err != nil {
		return err
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)

	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	fmt.Printf("Stress session %s running for %s...\n", test.Status().SessionID, test.Status().Duration)

loop:
	for {
		select {
		case <-sigs:
			logger.Info().Msg("Received termination signal, ending session early.")
			test.Stop()
			break loop
		case <-ticker.C:
			status := test.Status()
			if !status.Running {
				break loop
			}
			fmt.Printf("  %s elapsed, %d samples\n", status.Elapsed.Round(time.Second), status.Samples)
		}
	}

	test.Stop()

	result, ok := test.Result()
	if !ok {
		return fmt.Errorf("session collected no samples")
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))

	if apply {
		recommended := result.Recommended
		device := s.manager.Device()
		recommended.DeviceModel = device.Model
		recommended.Codename = device.Codename
		recommended.SoC = device.SoC

		if err := s.manager.SetOverride(recommended); err != nil {
			return err
		}
		fmt.Printf("Override set: %s\n", recommended.Name)
	}

	return nil
}

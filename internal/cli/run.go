package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kasard/thermactl/internal/logger"
)

func init() {
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the thermal governor daemon",
	Long: `Run the governor loop: poll temperatures, apply graduated throttle
actions through the encoder hook, manage charge bypass, and record
history until terminated.`,
	RunE: runRun,
}

func runRun(_ *cobra.Command, _ []string) error {
	s, err := buildStack(newLogThrottler())
	if err != nil {
		return err
	}
	defer s.close()

	s.gov.Start()

	active := s.manager.Active()
	logger.Info().
		Str("profile", active.Name).
		Str("device", s.manager.Device().Model).
		Msg("Governor running")

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs

	logger.Info().Msg("Received termination signal.")

	return nil
}

// logThrottler is the default encoder hook: it logs every throttle
// action. A streaming integration replaces it with calls into the
// encoder pipeline.
type logThrottler struct{}

func newLogThrottler() *logThrottler { return &logThrottler{} }

func (*logThrottler) ReduceBitrate(percent int) {
	logger.Info().Int("percent", percent).Msg("Throttle: reduce bitrate")
}

func (*logThrottler) ReduceResolution() {
	logger.Info().Msg("Throttle: reduce resolution")
}

func (*logThrottler) ReduceFramerate() {
	logger.Info().Msg("Throttle: reduce framerate")
}

func (*logThrottler) PauseStreaming() {
	logger.Warn().Msg("Throttle: pause streaming")
}

func (*logThrottler) ResumeStreaming() {
	logger.Info().Msg("Throttle: resume streaming")
}

func (*logThrottler) RestoreSettings() {
	logger.Info().Msg("Throttle: restore encode settings")
}

func (*logThrottler) AlertUser(message string) {
	logger.Warn().Str("alert", message).Msg("Thermal alert")
}

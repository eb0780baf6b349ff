package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"

	"github.com/spf13/cobra"
)

// RunCmd starts the daemon against the simulated sensor so sinks can be tried without hardware.
func RunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run sensorlog locally with the mock sensor",
		RunE: func(cmd *cobra.Command, args []string) error {
			interval, _ := cmd.Flags().GetString("interval")
			sensorID, _ := cmd.Flags().GetString("sensor-id")
			goArgs := []string{"run", "./cmd/sensorlog",
				"--model", "mock",
				"--sensor-id", sensorID,
				"--interval", interval,
			}
			if debug, _ := cmd.Flags().GetBool("debug"); debug {
				goArgs = append(goArgs, "--verbose")
			}
			goArgs = append(goArgs, "run")

			slog.Info("starting sensorlog", "args", goArgs)
			run := exec.CommandContext(cmd.Context(), "go", goArgs...)
			run.Stdout = os.Stdout
			run.Stderr = os.Stderr
			run.Env = os.Environ()
			if err := run.Run(); err != nil {
				return fmt.Errorf("sensorlog exited: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().String("interval", "5s", "sampling interval")
	cmd.Flags().String("sensor-id", "dev", "sensor id stored with readings")
	return cmd
}

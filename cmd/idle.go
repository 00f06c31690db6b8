package cmd

import (
	"github.com/mj1618/a11y-probe/internal/output"
	"github.com/spf13/cobra"
)

var idleCmd = &cobra.Command{
	Use:   "idle",
	Short: "Wait for the UI to go quiet, then take a screenshot",
	Long: `Wait until no UI event has arrived for timing.idle_threshold and take a
screenshot. After timing.idle_timeout the screenshot is taken anyway and the
outcome is reported as timeout.`,
	RunE: runIdle,
}

func init() {
	rootCmd.AddCommand(idleCmd)
	idleCmd.Flags().String("id", "", "Capture id (random if empty)")
}

func runIdle(cmd *cobra.Command, args []string) error {
	id, _ := cmd.Flags().GetString("id")

	s, err := openSession(cmd.Context(), cfg, true)
	if err != nil {
		return err
	}
	defer s.Close()

	res, err := get(cmd.Context(), s.engine.CaptureWhenIdle(id))
	if err != nil {
		return err
	}
	if err := output.Print(res); err != nil {
		return err
	}
	return res.Err
}

package cmd

import (
	"github.com/mj1618/a11y-probe/internal/output"
	"github.com/spf13/cobra"
)

var clickCmd = &cobra.Command{
	Use:   "click",
	Short: "Click the accessibility-focused node",
	Long: `Perform a click (or long-click with --long) on the node that currently
holds accessibility focus. With --wait, watch UI events afterwards and capture
on a window transition or timeout.`,
	RunE: runClick,
}

func init() {
	rootCmd.AddCommand(clickCmd)
	clickCmd.Flags().Bool("long", false, "Long-click instead of click")
	clickCmd.Flags().Bool("wait", false, "Wait for a transition and capture on anomaly")
	clickCmd.Flags().String("id", "", "Capture id (random if empty)")
}

func runClick(cmd *cobra.Command, args []string) error {
	long, _ := cmd.Flags().GetBool("long")
	waitFlag, _ := cmd.Flags().GetBool("wait")
	id, _ := cmd.Flags().GetString("id")

	s, err := openSession(cmd.Context(), cfg, true)
	if err != nil {
		return err
	}
	defer s.Close()

	if waitFlag {
		res, err := get(cmd.Context(), s.engine.ClickWaitCapture(long, id))
		if err != nil {
			return err
		}
		return output.Print(res)
	}
	res, err := get(cmd.Context(), s.engine.Click(long, id))
	if err != nil {
		return err
	}
	return output.Print(res)
}

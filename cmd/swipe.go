package cmd

import (
	"github.com/mj1618/a11y-probe/internal/model"
	"github.com/mj1618/a11y-probe/internal/output"
	"github.com/spf13/cobra"
)

var swipeCmd = &cobra.Command{
	Use:   "swipe",
	Short: "Perform a screen-reader swipe gesture",
	Long: `Dispatch a swipe gesture. With --wait, watch UI events after the gesture:
a window transition or no event before the transition timeout captures the
node tree (a11y-<id>.xml) and a screenshot (<id>.png) into capture_dir.

Directions: left, right, up, down, up-right, up-left.`,
	RunE: runSwipe,
}

func init() {
	rootCmd.AddCommand(swipeCmd)
	swipeCmd.Flags().String("direction", "right", "Swipe direction")
	swipeCmd.Flags().Bool("wait", false, "Wait for a transition and capture on anomaly")
	swipeCmd.Flags().String("id", "", "Capture id (random if empty)")
}

func runSwipe(cmd *cobra.Command, args []string) error {
	direction, _ := cmd.Flags().GetString("direction")
	waitFlag, _ := cmd.Flags().GetBool("wait")
	id, _ := cmd.Flags().GetString("id")

	dir, err := model.ParseDirection(direction)
	if err != nil {
		return err
	}

	s, err := openSession(cmd.Context(), cfg, true)
	if err != nil {
		return err
	}
	defer s.Close()

	if waitFlag {
		res, err := get(cmd.Context(), s.engine.SwipeWaitCapture(dir, id))
		if err != nil {
			return err
		}
		return output.Print(res)
	}
	res, err := get(cmd.Context(), s.engine.Swipe(dir, id))
	if err != nil {
		return err
	}
	return output.Print(res)
}

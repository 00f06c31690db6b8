package cmd

import (
	"github.com/mj1618/a11y-probe/internal/navigate"
	"github.com/mj1618/a11y-probe/internal/output"
	"github.com/spf13/cobra"
)

var focusCmd = &cobra.Command{
	Use:   "focus",
	Short: "Move accessibility focus to a matching node",
	Long: `Move accessibility focus to the next node matching a selection.

  --by id       resource id contains --value (whole tree)
  --by text     text contains --value (whole tree)
  --by class    class name equals --value (from the current focus)
  --by heading  heading nodes (from the current focus)

Examples:
  a11y-probe focus --by text --value Settings
  a11y-probe focus --by heading --direction previous`,
	RunE: runFocus,
}

func init() {
	rootCmd.AddCommand(focusCmd)
	focusCmd.Flags().String("by", "heading", "Selection kind: id, text, class, heading")
	focusCmd.Flags().String("value", "", "Value to match")
	focusCmd.Flags().String("direction", "next", "Search direction: next or previous")
}

func runFocus(cmd *cobra.Command, args []string) error {
	by, _ := cmd.Flags().GetString("by")
	value, _ := cmd.Flags().GetString("value")
	direction, _ := cmd.Flags().GetString("direction")

	kind, err := navigate.ParseKind(by)
	if err != nil {
		return err
	}
	dir, err := navigate.ParseDirection(direction)
	if err != nil {
		return err
	}
	sel := navigate.Selection{Kind: kind, Value: value}
	if err := sel.Validate(); err != nil {
		return err
	}

	s, err := openSession(cmd.Context(), cfg, true)
	if err != nil {
		return err
	}
	defer s.Close()

	res, err := get(cmd.Context(), s.engine.Focus(sel, dir))
	if err != nil {
		return err
	}
	return output.Print(output.NewFocusResult(res))
}

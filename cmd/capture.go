package cmd

import (
	"github.com/mj1618/a11y-probe/internal/output"
	"github.com/spf13/cobra"
)

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Write the node tree to capture_dir as a11y-<id>.xml",
	RunE:  runDump,
}

var screenshotCmd = &cobra.Command{
	Use:   "screenshot",
	Short: "Write a screenshot to capture_dir as <id>.png",
	RunE:  runScreenshot,
}

var treeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Print the node tree as a flat list with NAF markers",
	RunE:  runTree,
}

func init() {
	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(screenshotCmd)
	rootCmd.AddCommand(treeCmd)
	dumpCmd.Flags().String("id", "", "Capture id (random if empty)")
	screenshotCmd.Flags().String("id", "", "Capture id (random if empty)")
}

func runDump(cmd *cobra.Command, args []string) error {
	id, _ := cmd.Flags().GetString("id")
	s, err := openSession(cmd.Context(), cfg, true)
	if err != nil {
		return err
	}
	defer s.Close()

	art, err := get(cmd.Context(), s.engine.DumpTree(id))
	if err != nil {
		return err
	}
	return output.Print(art)
}

func runScreenshot(cmd *cobra.Command, args []string) error {
	id, _ := cmd.Flags().GetString("id")
	s, err := openSession(cmd.Context(), cfg, true)
	if err != nil {
		return err
	}
	defer s.Close()

	art, err := get(cmd.Context(), s.engine.Screenshot(id))
	if err != nil {
		return err
	}
	return output.Print(art)
}

func runTree(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd.Context(), cfg, true)
	if err != nil {
		return err
	}
	defer s.Close()

	root, err := get(cmd.Context(), s.engine.Tree())
	if err != nil {
		return err
	}
	return output.Print(output.FlattenTree(root))
}

package cmd

import (
	"strings"

	"github.com/mj1618/a11y-probe/internal/output"
	"github.com/spf13/cobra"
)

// AnnounceResult is the output of a successful announce.
type AnnounceResult struct {
	OK   bool   `yaml:"ok"   json:"ok"`
	Text string `yaml:"text" json:"text"`
}

var announceCmd = &cobra.Command{
	Use:   "announce TEXT...",
	Short: "Speak text through the screen reader",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAnnounce,
}

func init() {
	rootCmd.AddCommand(announceCmd)
}

func runAnnounce(cmd *cobra.Command, args []string) error {
	text := strings.Join(args, " ")
	s, err := openSession(cmd.Context(), cfg, true)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.engine.Announce(text).Wait(); err != nil {
		return err
	}
	return output.Print(AnnounceResult{OK: true, Text: text})
}

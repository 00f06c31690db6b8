package cmd

import (
	"fmt"
	"time"

	"github.com/mj1618/a11y-probe/internal/output"
	"github.com/mj1618/a11y-probe/internal/store"
	"github.com/spf13/cobra"
)

var episodesCmd = &cobra.Command{
	Use:   "episodes",
	Short: "List recorded episodes from the ledger",
	Long: `List episodes recorded in the sqlite ledger at store.path, newest first.
Reading the ledger does not need a connected device.`,
	RunE: runEpisodes,
}

func init() {
	rootCmd.AddCommand(episodesCmd)
	episodesCmd.Flags().Int("limit", 50, "Max entries")
	episodesCmd.Flags().String("kind", "", "Filter by kind (swipe, click, long_click, idle, dump, screenshot)")
	episodesCmd.Flags().String("outcome", "", "Filter by outcome (completed, transition, timeout, cancelled, failed, idle)")
	episodesCmd.Flags().Duration("since", 0, "Only episodes started within this long ago (e.g. 1h)")
}

func runEpisodes(cmd *cobra.Command, args []string) error {
	if cfg.Store.Path == "" {
		return fmt.Errorf("no episode ledger configured: set store.path in %s", configPath())
	}
	limit, _ := cmd.Flags().GetInt("limit")
	kind, _ := cmd.Flags().GetString("kind")
	outcome, _ := cmd.Flags().GetString("outcome")
	since, _ := cmd.Flags().GetDuration("since")

	ledger, err := store.Open(cfg.Store.Path)
	if err != nil {
		return err
	}
	defer ledger.Close()

	opts := store.ListOptions{Limit: limit, Kind: kind, Outcome: outcome}
	if since > 0 {
		opts.Since = time.Now().Add(-since)
	}
	eps, err := ledger.List(cmd.Context(), opts)
	if err != nil {
		return err
	}
	if eps == nil {
		eps = []store.Episode{}
	}
	return output.Print(eps)
}

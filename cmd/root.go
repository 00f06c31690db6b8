package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mj1618/a11y-probe/internal/config"
	"github.com/mj1618/a11y-probe/internal/logging"
	"github.com/mj1618/a11y-probe/internal/output"
	"github.com/mj1618/a11y-probe/internal/version"
	"github.com/spf13/cobra"
)

// cfg is the configuration loaded by the root command before any subcommand runs.
var cfg = config.Default()

var rootCmd = &cobra.Command{
	Use:   "a11y-probe",
	Short: "Drive a screen reader with gestures and capture what the UI does",
	Long: `a11y-probe performs screen-reader gestures and clicks on a connected device,
waits for the UI to settle, and captures the node tree and a screenshot
whenever a screen transition or a timeout shows something unexpected.

A device agent connects to the bridge websocket (bridge.listen in the
config file). Every command waits for an agent before running.`,
	SilenceUsage: true,
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	logging.Close()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version.Version, version.Commit, version.BuildDate)
	rootCmd.PersistentFlags().String("config", config.DefaultPath, "Path to the YAML config file")
	rootCmd.PersistentFlags().String("format", "yaml", "Output format: yaml, json")
	rootCmd.PersistentFlags().Bool("pretty", false, "Indent JSON output")
	rootCmd.PersistentFlags().String("log-level", "", "Override log.level from the config file")
	rootCmd.PersistentFlags().String("capture-dir", "", "Override capture_dir from the config file")
	rootCmd.PersistentPreRunE = loadRootFlags
}

func loadRootFlags(cmd *cobra.Command, args []string) error {
	path, _ := rootCmd.PersistentFlags().GetString("config")
	loaded, err := config.Load(path)
	if err != nil {
		return err
	}
	applyOverrides(&loaded)
	cfg = loaded

	if err := logging.Init(logging.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		File:   cfg.Log.File,
	}); err != nil {
		return err
	}

	format, _ := rootCmd.PersistentFlags().GetString("format")
	f, err := output.ParseFormat(format)
	if err != nil {
		return err
	}
	output.OutputFormat = f
	output.PrettyOutput, _ = rootCmd.PersistentFlags().GetBool("pretty")
	return nil
}

// applyOverrides copies --log-level and --capture-dir onto c when set.
func applyOverrides(c *config.Config) {
	if level, _ := rootCmd.PersistentFlags().GetString("log-level"); level != "" {
		c.Log.Level = level
	}
	if dir, _ := rootCmd.PersistentFlags().GetString("capture-dir"); dir != "" {
		c.CaptureDir = dir
	}
}

// configPath returns the --config value.
func configPath() string {
	path, _ := rootCmd.PersistentFlags().GetString("config")
	return path
}

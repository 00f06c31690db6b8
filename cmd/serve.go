package cmd

import (
	"fmt"
	"time"

	"github.com/mj1618/a11y-probe/internal/config"
	"github.com/mj1618/a11y-probe/internal/logging"
	"github.com/mj1618/a11y-probe/internal/server"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the device bridge and an MCP server exposing a11y-probe tools",
	Long: `Start the device bridge and a Model Context Protocol (MCP) server that
exposes every a11y-probe operation as a tool. Device agents connect to the
bridge at any time; tools fail with "no device agent connected" until one has.

The config file is watched: log level, timing and gesture settings are
applied to the running server when it changes.

Supported transports:
  stdio             Standard I/O (default, for MCP clients)
  streamable-http   Streamable HTTP transport (for remote agents)

Examples:
  a11y-probe serve
  a11y-probe serve --transport streamable-http --port 8080
  a11y-probe serve --cache-ttl 0`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("transport", "stdio", "Transport: stdio, streamable-http")
	serveCmd.Flags().Int("port", 8080, "HTTP port for streamable-http transport")
	serveCmd.Flags().Int("cache-ttl", 500, "Node tree cache TTL in milliseconds (0 to disable)")
	serveCmd.Flags().Bool("watch", true, "Reload the config file when it changes")
}

func runServe(cmd *cobra.Command, args []string) error {
	transport, _ := cmd.Flags().GetString("transport")
	port, _ := cmd.Flags().GetInt("port")
	cacheTTLMs, _ := cmd.Flags().GetInt("cache-ttl")
	watch, _ := cmd.Flags().GetBool("watch")

	srvCfg := server.Config{
		Transport: transport,
		Port:      port,
		CacheTTL:  time.Duration(cacheTTLMs) * time.Millisecond,
	}

	ctx := cmd.Context()
	s, err := openSession(ctx, cfg, false)
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer s.Close()

	logger := logging.For("serve")
	if watch {
		go func() {
			err := config.Watch(ctx, configPath(), logging.For("config"), func(c config.Config) {
				applyReload(s, c)
			})
			if err != nil {
				logger.Warn().Err(err).Msg("config watch stopped")
			}
		}()
	}

	var ledger server.EpisodeLister
	if s.ledger != nil {
		ledger = s.ledger
	}
	srv := server.New(s.engine, ledger, srvCfg, logging.For("mcp"))
	return srv.Serve(ctx, srvCfg)
}

// applyReload hands the hot-reloadable parts of c to the running session.
// Command-line overrides still win over the file. Bridge, store and capture
// settings need a restart.
func applyReload(s *session, c config.Config) {
	applyOverrides(&c)
	logger := logging.For("serve")
	if err := logging.SetLevel(c.Log.Level); err != nil {
		logger.Warn().Err(err).Msg("ignoring log level from reloaded config")
	}
	s.engine.SetTiming(timingFromConfig(c.Timing))
	s.engine.SetGestureBounds(gestureFromConfig(c.Gesture))
	if c.Bridge != cfg.Bridge || c.Store != cfg.Store || c.CaptureDir != cfg.CaptureDir {
		logger.Warn().Msg("bridge, store and capture_dir changes take effect after restart")
	}
}

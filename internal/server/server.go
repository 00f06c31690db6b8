// Package server exposes engine operations as MCP tools.
package server

import (
	"context"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/mj1618/a11y-probe/internal/engine"
	"github.com/mj1618/a11y-probe/internal/store"
	"github.com/mj1618/a11y-probe/internal/version"
	"github.com/rs/zerolog"
)

// EpisodeLister reads the episode ledger.
type EpisodeLister interface {
	List(ctx context.Context, opts store.ListOptions) ([]store.Episode, error)
}

// Config holds MCP server configuration.
type Config struct {
	Transport string
	Port      int
	CacheTTL  time.Duration
}

// Server wraps the MCP server with the engine and tree cache.
type Server struct {
	engine *engine.Engine
	ledger EpisodeLister
	cache  *TreeCache
	logger zerolog.Logger
	mcp    *mcpserver.MCPServer
}

// New creates an MCP server with every a11y-probe tool registered. ledger may
// be nil, in which case the episodes tool reports that no ledger is
// configured.
func New(eng *engine.Engine, ledger EpisodeLister, cfg Config, logger zerolog.Logger) *Server {
	s := &Server{
		engine: eng,
		ledger: ledger,
		cache:  NewTreeCache(cfg.CacheTTL),
		logger: logger,
	}
	s.mcp = mcpserver.NewMCPServer("a11y-probe", version.Version)
	s.registerTools()
	return s
}

// MCP returns the underlying MCP server.
func (s *Server) MCP() *mcpserver.MCPServer { return s.mcp }

// Serve starts the MCP server with the configured transport and returns when
// it stops. For streamable-http, cancelling ctx shuts the listener down.
func (s *Server) Serve(ctx context.Context, cfg Config) error {
	switch cfg.Transport {
	case "stdio", "":
		s.logger.Info().Msg("serving MCP on stdio")
		return mcpserver.ServeStdio(s.mcp)
	case "streamable-http":
		httpServer := mcpserver.NewStreamableHTTPServer(s.mcp)
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				s.logger.Warn().Err(err).Msg("MCP http shutdown")
			}
		}()
		addr := fmt.Sprintf(":%d", cfg.Port)
		s.logger.Info().Str("addr", addr).Msg("serving MCP on streamable-http")
		return httpServer.Start(addr)
	default:
		return fmt.Errorf("unsupported transport: %s (use stdio or streamable-http)", cfg.Transport)
	}
}

func (s *Server) registerTools() {
	s.mcp.AddTool(
		mcp.NewTool("swipe",
			mcp.WithDescription("Perform a swipe gesture. With wait, watch for a screen transition and capture the tree and a screenshot if the UI changes unexpectedly or nothing happens before the transition timeout."),
			mcp.WithString("direction", mcp.Required(), mcp.Description("left, right, up, down, up-right, up-left")),
			mcp.WithBoolean("wait", mcp.Description("Run the gesture-wait-capture protocol")),
			mcp.WithString("id", mcp.Description("Capture id used in artifact file names (random if empty)")),
		),
		s.handleSwipe,
	)

	s.mcp.AddTool(
		mcp.NewTool("click",
			mcp.WithDescription("Click the accessibility-focused node. With wait, watch for a screen transition and capture on timeout or transition."),
			mcp.WithBoolean("long", mcp.Description("Long-click instead of click")),
			mcp.WithBoolean("wait", mcp.Description("Run the click-wait-capture protocol")),
			mcp.WithString("id", mcp.Description("Capture id used in artifact file names (random if empty)")),
		),
		s.handleClick,
	)

	s.mcp.AddTool(
		mcp.NewTool("wait_idle",
			mcp.WithDescription("Wait until no UI event has arrived for the idle threshold, then take a screenshot. Gives up after the idle timeout."),
			mcp.WithString("id", mcp.Description("Capture id used in the screenshot file name (random if empty)")),
		),
		s.handleWaitIdle,
	)

	s.mcp.AddTool(
		mcp.NewTool("focus",
			mcp.WithDescription("Move accessibility focus to the next node matching a selection"),
			mcp.WithString("by", mcp.Required(), mcp.Description("Selection kind: id, text, class, heading")),
			mcp.WithString("value", mcp.Description("Substring for id/text, exact class name for class")),
			mcp.WithString("direction", mcp.Description("next (default) or previous")),
		),
		s.handleFocus,
	)

	s.mcp.AddTool(
		mcp.NewTool("tree",
			mcp.WithDescription("Read the current node tree as a flat pre-order list with depth, bounds and NAF markers"),
		),
		s.handleTree,
	)

	s.mcp.AddTool(
		mcp.NewTool("dump",
			mcp.WithDescription("Write the node tree to the capture directory as XML"),
			mcp.WithString("id", mcp.Description("Capture id (random if empty)")),
		),
		s.handleDump,
	)

	s.mcp.AddTool(
		mcp.NewTool("screenshot",
			mcp.WithDescription("Write a PNG screenshot to the capture directory"),
			mcp.WithString("id", mcp.Description("Capture id (random if empty)")),
		),
		s.handleScreenshot,
	)

	s.mcp.AddTool(
		mcp.NewTool("announce",
			mcp.WithDescription("Speak text through the screen reader"),
			mcp.WithString("text", mcp.Required(), mcp.Description("Text to announce")),
		),
		s.handleAnnounce,
	)

	s.mcp.AddTool(
		mcp.NewTool("episodes",
			mcp.WithDescription("List recorded episodes, newest first"),
			mcp.WithNumber("limit", mcp.Description("Max entries (default 50)")),
			mcp.WithString("kind", mcp.Description("Filter by kind: swipe, click, long_click, idle, dump, screenshot")),
			mcp.WithString("outcome", mcp.Description("Filter by outcome")),
		),
		s.handleEpisodes,
	)
}

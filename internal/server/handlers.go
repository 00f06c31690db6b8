package server

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mj1618/a11y-probe/internal/model"
	"github.com/mj1618/a11y-probe/internal/navigate"
	"github.com/mj1618/a11y-probe/internal/output"
	"github.com/mj1618/a11y-probe/internal/store"
	"github.com/mj1618/a11y-probe/internal/worker"
)

// await waits for f, cancelling it if the client goes away first.
func await[T any](ctx context.Context, f *worker.Future[T]) (T, error) {
	select {
	case <-f.Done():
	case <-ctx.Done():
		f.Cancel()
	}
	return f.Get()
}

// toText serializes v to YAML for an MCP response.
func toText(v interface{}) string {
	text, err := output.YAML(v)
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	return text
}

// respond builds the tool result. An error marks the result as failed but
// still carries v when there is one.
func respond(v interface{}, err error) (*mcp.CallToolResult, error) {
	if err != nil {
		if v == nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultError(toText(v)), nil
	}
	return mcp.NewToolResultText(toText(v)), nil
}

func (s *Server) handleSwipe(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	dir, err := model.ParseDirection(stringParam(params, "direction", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	id := stringParam(params, "id", "")
	defer s.cache.Invalidate()

	if boolParam(params, "wait", false) {
		res, err := await(ctx, s.engine.SwipeWaitCapture(dir, id))
		return respond(res, err)
	}
	res, err := await(ctx, s.engine.Swipe(dir, id))
	return respond(res, err)
}

func (s *Server) handleClick(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	long := boolParam(params, "long", false)
	id := stringParam(params, "id", "")
	defer s.cache.Invalidate()

	if boolParam(params, "wait", false) {
		res, err := await(ctx, s.engine.ClickWaitCapture(long, id))
		return respond(res, err)
	}
	res, err := await(ctx, s.engine.Click(long, id))
	return respond(res, err)
}

func (s *Server) handleWaitIdle(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := stringParam(request.GetArguments(), "id", "")
	res, err := await(ctx, s.engine.CaptureWhenIdle(id))
	if err == nil && res.Err != nil {
		err = res.Err
	}
	return respond(res, err)
}

func (s *Server) handleFocus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	kind, err := navigate.ParseKind(stringParam(params, "by", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	dir, err := navigate.ParseDirection(stringParam(params, "direction", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	sel := navigate.Selection{Kind: kind, Value: stringParam(params, "value", "")}
	if err := sel.Validate(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	defer s.cache.Invalidate()

	res, err := await(ctx, s.engine.Focus(sel, dir))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return respond(output.NewFocusResult(res), nil)
}

func (s *Server) handleTree(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	root, err := s.cache.Get(func() (*model.Node, error) {
		return await(ctx, s.engine.Tree())
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if root == nil {
		return mcp.NewToolResultText("[]\n"), nil
	}
	return respond(output.FlattenTree(root), nil)
}

func (s *Server) handleDump(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	art, err := await(ctx, s.engine.DumpTree(stringParam(request.GetArguments(), "id", "")))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return respond(art, nil)
}

func (s *Server) handleScreenshot(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	art, err := await(ctx, s.engine.Screenshot(stringParam(request.GetArguments(), "id", "")))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return respond(art, nil)
}

func (s *Server) handleAnnounce(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text := stringParam(request.GetArguments(), "text", "")
	if text == "" {
		return mcp.NewToolResultError("text is required"), nil
	}
	h := s.engine.Announce(text)
	select {
	case <-h.Done():
	case <-ctx.Done():
		h.Cancel()
	}
	if err := h.Wait(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return respond(map[string]interface{}{"announced": text}, nil)
}

func (s *Server) handleEpisodes(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.ledger == nil {
		return mcp.NewToolResultError(errNoLedger.Error()), nil
	}
	params := request.GetArguments()
	eps, err := s.ledger.List(ctx, store.ListOptions{
		Limit:   intParam(params, "limit", 0),
		Kind:    stringParam(params, "kind", ""),
		Outcome: stringParam(params, "outcome", ""),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(eps) == 0 {
		return mcp.NewToolResultText("[]\n"), nil
	}
	return respond(eps, nil)
}

var errNoLedger = errors.New("no episode ledger configured (set store.path)")

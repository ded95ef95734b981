package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rendis/flowviz/internal/viewport"
	"github.com/rendis/flowviz/pkg/schema"
)

// callTool invokes a tool through HandleMessage (full JSON-RPC round trip).
func callTool(t *testing.T, s *FlowvizServer, toolName string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	mcpSrv := s.MCPServer()

	rawInit, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      0,
		"method":  "initialize",
		"params": map[string]any{
			"protocolVersion": "2025-03-26",
			"capabilities":    map[string]any{},
			"clientInfo":      map[string]any{"name": "roundtrip-test", "version": "1.0.0"},
		},
	})
	require.NoError(t, err)
	require.NotNil(t, mcpSrv.HandleMessage(ctx, rawInit))

	rawReq, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "tools/call",
		"params":  map[string]any{"name": toolName, "arguments": args},
	})
	require.NoError(t, err)

	resp := mcpSrv.HandleMessage(ctx, rawReq)
	require.NotNil(t, resp)
	respBytes, err := json.Marshal(resp)
	require.NoError(t, err)

	var rpcResp struct {
		Result *mcp.CallToolResult `json:"result"`
		Error  *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(respBytes, &rpcResp))
	if rpcResp.Error != nil {
		t.Fatalf("JSON-RPC error: code=%d, msg=%s", rpcResp.Error.Code, rpcResp.Error.Message)
	}
	require.NotNil(t, rpcResp.Result)
	return rpcResp.Result
}

func TestRoundTrip_SessionLayoutViewportClose(t *testing.T) {
	s, n := newTestServer(t)

	res := callTool(t, s, "flowviz.session", map[string]any{"container_width": 800, "container_height": 600})
	require.False(t, res.IsError, extractText(t, res))
	var opened struct {
		SessionID string `json:"session_id"`
	}
	unmarshalResult(t, res, &opened)

	res = callTool(t, s, "flowviz.layout", map[string]any{
		"trigger":      "pre-tool",
		"name":         "review",
		"instructions": reviewInstructions,
		"session_id":   opened.SessionID,
	})
	require.False(t, res.IsError, extractText(t, res))
	var laidOut struct {
		Layout   schema.FlowLayout `json:"layout"`
		Viewport viewport.Viewport `json:"viewport"`
	}
	unmarshalResult(t, res, &laidOut)
	assert.Len(t, laidOut.Layout.Nodes, 6)
	fitted := laidOut.Viewport.State

	res = callTool(t, s, "flowviz.viewport", map[string]any{
		"session_id": opened.SessionID,
		"events": []any{
			map[string]any{"type": "wheel", "delta_y": -100, "x": 400, "y": 300},
			map[string]any{"type": "wheel", "delta_y": 100, "x": 400, "y": 300},
		},
	})
	require.False(t, res.IsError, extractText(t, res))
	var vr viewportResult
	unmarshalResult(t, res, &vr)
	// 1.1 * 0.9 is not the identity; the anchor keeps (400,300) fixed.
	assert.InDelta(t, fitted.Scale*0.99, vr.Viewport.State.Scale, 1e-9)
	anchor := fitted.ToDiagram(viewport.Point{X: 400, Y: 300})
	back := vr.Viewport.State.ToScreen(anchor)
	assert.InDelta(t, 400, back.X, 1e-9)
	assert.InDelta(t, 300, back.Y, 1e-9)
	assert.Equal(t, 3, n.count())

	res = callTool(t, s, "flowviz.close", map[string]any{"session_id": opened.SessionID})
	assert.False(t, res.IsError)
	assert.Equal(t, 0, s.Sessions().Len())
}

func TestRoundTrip_ExtractError(t *testing.T) {
	s, _ := newTestServer(t)

	res := callTool(t, s, "flowviz.extract", map[string]any{})
	assert.True(t, res.IsError)
	assert.Contains(t, extractText(t, res), "instructions is required")
}

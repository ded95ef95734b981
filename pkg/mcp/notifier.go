package mcp

import (
	"context"
	"errors"

	"github.com/mark3labs/mcp-go/server"
	"github.com/rendis/flowviz/internal/viewport"
)

// ViewportNotifier pushes viewport updates to the client that owns a
// session.
type ViewportNotifier interface {
	NotifyViewport(ctx context.Context, sess *Session, vp viewport.Viewport) error
}

// MCPNotifier implements ViewportNotifier with MCP server notifications.
type MCPNotifier struct {
	mcpServer *server.MCPServer
	sessions  *SessionRegistry
}

// NewMCPNotifier creates a notifier that pushes through mcpServer.
func NewMCPNotifier(mcpServer *server.MCPServer, sessions *SessionRegistry) *MCPNotifier {
	return &MCPNotifier{mcpServer: mcpServer, sessions: sessions}
}

// NotifyViewport sends a notifications/message to the session owner.
// Best-effort: sessions without an owner are skipped, and a vanished
// client drops its sessions instead of failing.
func (n *MCPNotifier) NotifyViewport(_ context.Context, sess *Session, vp viewport.Viewport) error {
	if sess.Owner == "" {
		return nil
	}
	payload := map[string]any{
		"type":       "flowviz.viewport",
		"session_id": sess.ID,
		"viewport":   vp,
		"transform":  vp.State.Transform(),
	}
	err := n.mcpServer.SendNotificationToSpecificClient(sess.Owner, "notifications/message", payload)
	if errors.Is(err, server.ErrSessionNotFound) {
		n.sessions.RemoveOwner(sess.Owner)
		return nil
	}
	return err
}

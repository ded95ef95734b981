package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rendis/flowviz/internal/diagram"
	"github.com/rendis/flowviz/internal/extract"
	"github.com/rendis/flowviz/internal/logging"
	"github.com/rendis/flowviz/internal/viewport"
	"github.com/rendis/flowviz/pkg/schema"
)

// handleExtract classifies instruction text into an entity bundle.
func (s *FlowvizServer) handleExtract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ctx = logging.WithTool(ctx, "flowviz.extract")

	instructions, err := req.RequireString("instructions")
	if err != nil {
		return mcp.NewToolResultError("instructions is required"), nil
	}
	classifier, cErr := s.classifierFor(req.GetString("classifier", ""))
	if cErr != nil {
		return mcp.NewToolResultError(fmt.Sprintf("classifier unavailable: %v", cErr)), nil
	}

	bundle := classifier.Classify(instructions)
	s.logger.DebugContext(ctx, "entities extracted",
		"integrations", len(bundle.Integrations), "agents", len(bundle.Agents), "tasks", len(bundle.Tasks))
	return marshalResult(bundle)
}

// handleLayout builds a layout for a draft and, with a session, refits
// the session viewport to it.
func (s *FlowvizServer) handleLayout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	draftDoc := map[string]any{}
	for _, key := range []string{"trigger", "name", "instructions"} {
		if v, ok := req.GetArguments()[key]; ok {
			draftDoc[key] = v
		}
	}
	if vErr := s.validator.ValidateDraft(draftDoc); vErr != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid draft: %v", vErr)), nil
	}
	draft := schema.Draft{
		Trigger:      schema.TriggerKind(req.GetString("trigger", "")),
		Name:         req.GetString("name", ""),
		Instructions: req.GetString("instructions", ""),
	}
	ctx = logging.WithIDs(ctx, req.GetString("session_id", ""), draft.Name, "flowviz.layout")

	classifier, cErr := s.classifierFor(req.GetString("classifier", ""))
	if cErr != nil {
		return mcp.NewToolResultError(fmt.Sprintf("classifier unavailable: %v", cErr)), nil
	}
	layout := diagram.BuildDraft(draft, classifier)
	s.logger.DebugContext(ctx, "layout built", "nodes", len(layout.Nodes), "connections", len(layout.Connections))

	sessionID := req.GetString("session_id", "")
	if sessionID == "" {
		return marshalResult(layout)
	}
	sess, ok := s.sessions.Get(sessionID)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("session %q not found", sessionID)), nil
	}
	vp := sess.SetLayout(layout)
	return marshalResult(map[string]any{
		"layout":   layout,
		"viewport": vp,
	})
}

// handleSession opens a viewport session owned by the calling client.
func (s *FlowvizServer) handleSession(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	width, err := req.RequireFloat("container_width")
	if err != nil {
		return mcp.NewToolResultError("container_width is required"), nil
	}
	height, err := req.RequireFloat("container_height")
	if err != nil {
		return mcp.NewToolResultError("container_height is required"), nil
	}
	container := viewport.Size{Width: width, Height: height}
	if !container.Valid() {
		return mcp.NewToolResultError("container size must be positive"), nil
	}

	var owner string
	if cs := server.ClientSessionFromContext(ctx); cs != nil {
		owner = cs.SessionID()
	}

	ctrl := viewport.NewController(s.vpConfig, container)
	sess := s.sessions.Create(owner, ctrl)
	s.watch(sess, ctrl)

	ctx = logging.WithIDs(ctx, sess.ID, "", "flowviz.session")
	s.logger.InfoContext(ctx, "viewport session opened", "width", width, "height", height)

	return marshalResult(map[string]any{
		"session_id": sess.ID,
		"viewport":   sess.Viewport(),
	})
}

// handleViewport replays input events on a session viewport.
func (s *FlowvizServer) handleViewport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := req.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError("session_id is required"), nil
	}
	raw, ok := req.GetArguments()["events"]
	if !ok {
		return mcp.NewToolResultError("events is required"), nil
	}
	if vErr := s.validator.ValidateEvents(raw); vErr != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid events: %v", vErr)), nil
	}
	data, mErr := json.Marshal(raw)
	if mErr != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid events: %v", mErr)), nil
	}
	events, dErr := viewport.DecodeEvents(data)
	if dErr != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid events: %v", dErr)), nil
	}

	sess, found := s.sessions.Get(sessionID)
	if !found {
		return mcp.NewToolResultError(fmt.Sprintf("session %q not found", sessionID)), nil
	}
	ctx = logging.WithIDs(ctx, sessionID, "", "flowviz.viewport")

	var (
		vp        viewport.Viewport
		reduceErr error
	)
	sess.Do(func(ctrl *viewport.Controller) {
		reduceErr = ctrl.DispatchAll(events)
		vp = ctrl.Viewport()
	})
	if reduceErr != nil {
		return mcp.NewToolResultError(fmt.Sprintf("event rejected: %v", reduceErr)), nil
	}
	s.logger.DebugContext(ctx, "events applied", "count", len(events), "scale", vp.State.Scale, "mode", vp.Mode)

	return marshalResult(map[string]any{
		"session_id": sessionID,
		"viewport":   vp,
		"transform":  vp.State.Transform(),
	})
}

// handleClose releases a viewport session.
func (s *FlowvizServer) handleClose(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := req.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError("session_id is required"), nil
	}
	if !s.sessions.Close(sessionID) {
		return mcp.NewToolResultError(fmt.Sprintf("session %q not found", sessionID)), nil
	}
	s.logger.InfoContext(logging.WithIDs(ctx, sessionID, "", "flowviz.close"), "viewport session closed")
	return marshalResult(map[string]any{"ok": true, "session_id": sessionID})
}

// --- Helpers ---

// classifierFor returns the configured classifier, or a fresh one when a
// request names a mode.
func (s *FlowvizServer) classifierFor(mode string) (extract.Classifier, error) {
	if mode == "" {
		return s.classifier, nil
	}
	return extract.New(mode, s.rulesPath)
}

// watch pushes viewport changes to the session owner and logs gesture
// transitions.
func (s *FlowvizServer) watch(sess *Session, ctrl *viewport.Controller) {
	ctx := logging.WithSessionID(context.Background(), sess.ID)

	ctrl.OnChange(func(vp viewport.Viewport) {
		if err := s.notifier.NotifyViewport(ctx, sess, vp); err != nil {
			s.logger.WarnContext(ctx, "viewport notification failed", "error", err)
		}
	})
	log := func(from, to viewport.Mode) error {
		s.logger.DebugContext(ctx, "viewport mode changed", "from", from, "to", to)
		return nil
	}
	ctrl.OnTransition(viewport.ModeIdle, viewport.ModePanning, log)
	ctrl.OnTransition(viewport.ModePanning, viewport.ModeIdle, log)
}

// marshalResult converts a value to a JSON text tool result.
func marshalResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultJSON(json.RawMessage(data))
}

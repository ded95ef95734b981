package mcp

import (
	"context"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rendis/flowviz/internal/extract"
	"github.com/rendis/flowviz/internal/logging"
	"github.com/rendis/flowviz/internal/validation"
	"github.com/rendis/flowviz/internal/viewport"
)

// FlowvizServerDeps holds the dependencies for creating a FlowvizServer.
// Zero values get defaults.
type FlowvizServerDeps struct {
	Classifier extract.Classifier
	// RulesPath is passed to extract.New when a request names a classifier.
	RulesPath string
	Validator *validation.JSONSchemaValidator
	Viewport  viewport.Config
	Notifier  ViewportNotifier
	Logger    *slog.Logger
}

// FlowvizServer wraps an MCP server with the flowviz tool handlers.
type FlowvizServer struct {
	classifier extract.Classifier
	rulesPath  string
	validator  *validation.JSONSchemaValidator
	vpConfig   viewport.Config
	sessions   *SessionRegistry
	notifier   ViewportNotifier
	logger     *slog.Logger
	mcpServer  *server.MCPServer
}

// NewFlowvizServer creates a FlowvizServer with all tools registered.
func NewFlowvizServer(deps FlowvizServerDeps) (*FlowvizServer, error) {
	logger := deps.Logger
	if logger == nil {
		logger = logging.NewLogger("info", os.Stderr)
	}
	classifier := deps.Classifier
	if classifier == nil {
		classifier = extract.NewPatternClassifier()
	}
	validator := deps.Validator
	if validator == nil {
		v, err := validation.NewJSONSchemaValidator()
		if err != nil {
			return nil, err
		}
		validator = v
	}
	vpConfig := deps.Viewport
	if vpConfig == (viewport.Config{}) {
		vpConfig = viewport.DefaultConfig
	}

	s := &FlowvizServer{
		classifier: classifier,
		rulesPath:  deps.RulesPath,
		validator:  validator,
		vpConfig:   vpConfig,
		sessions:   NewSessionRegistry(),
		logger:     logger,
	}

	hooks := &server.Hooks{}
	hooks.AddOnUnregisterSession(func(ctx context.Context, session server.ClientSession) {
		if n := s.sessions.RemoveOwner(session.SessionID()); n > 0 {
			s.logger.InfoContext(ctx, "client disconnected, sessions closed", "client", session.SessionID(), "closed", n)
		}
	})

	mcpSrv := server.NewMCPServer(
		"flowviz",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithHooks(hooks),
		server.WithInstructions("flowviz turns agent hook drafts into flow diagrams. Use flowviz.extract to list the integrations, agents and tasks in instructions, flowviz.layout to compute node positions and connector paths, flowviz.session to open a pan/zoom viewport, flowviz.viewport to apply input events to it, and flowviz.close to release it."),
	)
	mcpSrv.AddTools(s.tools()...)
	s.mcpServer = mcpSrv

	s.notifier = deps.Notifier
	if s.notifier == nil {
		s.notifier = NewMCPNotifier(mcpSrv, s.sessions)
	}
	return s, nil
}

// Serve starts the stdio transport and blocks until ctx is cancelled or stdin closes.
func (s *FlowvizServer) Serve(ctx context.Context) error {
	stdio := server.NewStdioServer(s.mcpServer)
	return stdio.Listen(ctx, os.Stdin, os.Stdout)
}

// MCPServer returns the underlying MCPServer for testing or custom transports.
func (s *FlowvizServer) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// Sessions returns the viewport session registry.
func (s *FlowvizServer) Sessions() *SessionRegistry {
	return s.sessions
}

func (s *FlowvizServer) tools() []server.ServerTool {
	return []server.ServerTool{
		{Tool: extractTool(), Handler: s.handleExtract},
		{Tool: layoutTool(), Handler: s.handleLayout},
		{Tool: sessionTool(), Handler: s.handleSession},
		{Tool: viewportTool(), Handler: s.handleViewport},
		{Tool: closeTool(), Handler: s.handleClose},
	}
}

// --- Tool definitions ---

func extractTool() mcp.Tool {
	return mcp.NewTool("flowviz.extract",
		mcp.WithDescription("Extract integrations, agents and tasks from hook instructions"),
		mcp.WithString("instructions", mcp.Required(), mcp.Description("Free-text hook instructions")),
		mcp.WithString("classifier",
			mcp.Enum(extract.ModePattern, extract.ModeRules, extract.ModeStructured),
			mcp.Description("Classifier to use (default: server configuration)"),
		),
	)
}

func layoutTool() mcp.Tool {
	return mcp.NewTool("flowviz.layout",
		mcp.WithDescription("Compute the flow diagram layout for a hook draft"),
		mcp.WithString("trigger",
			mcp.Enum("pre-tool", "post-tool"),
			mcp.Description("Hook trigger (default: pre-tool)"),
		),
		mcp.WithString("name", mcp.Description("Hook name shown on the trigger node")),
		mcp.WithString("instructions", mcp.Description("Free-text hook instructions")),
		mcp.WithString("classifier",
			mcp.Enum(extract.ModePattern, extract.ModeRules, extract.ModeStructured),
			mcp.Description("Classifier to use (default: server configuration)"),
		),
		mcp.WithString("session_id", mcp.Description("Viewport session to refit to the new layout")),
	)
}

func sessionTool() mcp.Tool {
	return mcp.NewTool("flowviz.session",
		mcp.WithDescription("Open a pan/zoom viewport session"),
		mcp.WithNumber("container_width", mcp.Required(), mcp.Description("Viewport container width in pixels")),
		mcp.WithNumber("container_height", mcp.Required(), mcp.Description("Viewport container height in pixels")),
	)
}

func viewportTool() mcp.Tool {
	return mcp.NewTool("flowviz.viewport",
		mcp.WithDescription("Apply input events to a viewport session"),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Viewport session ID")),
		mcp.WithArray("events", mcp.Required(),
			mcp.Description("Events in order, e.g. {\"type\":\"wheel\",\"delta_y\":-100,\"x\":400,\"y\":300}"),
		),
	)
}

func closeTool() mcp.Tool {
	return mcp.NewTool("flowviz.close",
		mcp.WithDescription("Close a viewport session"),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Viewport session ID")),
	)
}

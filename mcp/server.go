package mcp

import (
	"context"

	"github.com/google/uuid"
	mcptypes "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/husain-clintel/Pharmascribe-sub000/config"
	"github.com/husain-clintel/Pharmascribe-sub000/model"
	"github.com/husain-clintel/Pharmascribe-sub000/tools"
)

// Server exposes the agent's tool executors over MCP. ask_user_question is
// left out: it pauses an agent run and has no meaning outside one.
type Server struct {
	registry *tools.Registry
	reportID string
	mcp      *server.MCPServer
}

// NewServer registers every tool of registry except ask_user_question.
// Memory tools are scoped to reportID.
func NewServer(registry *tools.Registry, reportID, version string) *Server {
	s := &Server{
		registry: registry.Without(tools.AskUserQuestion),
		reportID: reportID,
		mcp:      server.NewMCPServer("pharmascribe", version, server.WithToolCapabilities(false)),
	}
	for _, decl := range s.registry.Declarations() {
		s.mcp.AddTool(decl, s.handler(decl.Name))
	}
	return s
}

// Tools lists the names of the exposed tools.
func (s *Server) Tools() []string {
	decls := s.registry.Declarations()
	names := make([]string, len(decls))
	for i, d := range decls {
		names[i] = d.Name
	}
	return names
}

// ServeStdio serves MCP on stdin and stdout until the client disconnects.
func (s *Server) ServeStdio() error {
	config.DebugLog.Info("[MCP] serving tools on stdio", zap.String("report_id", s.reportID), zap.Strings("tools", s.Tools()))
	return server.ServeStdio(s.mcp)
}

func (s *Server) handler(name string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcptypes.CallToolRequest) (*mcptypes.CallToolResult, error) {
		call := model.ToolCall{
			ID:        "mcp_" + uuid.NewString(),
			Name:      name,
			Arguments: req.GetArguments(),
		}
		res := s.registry.Dispatch(ctx, call, tools.ExecutionContext{ReportID: s.reportID})
		if res.IsError {
			return mcptypes.NewToolResultError(res.Error), nil
		}
		return mcptypes.NewToolResultText(res.Text()), nil
	}
}

package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/duynguyendang/askdb/pkg/assistant"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
)

const historyURI = "askdb://conversation/history"

// Service is the conversation surface exposed to MCP clients.
type Service interface {
	Ask(ctx context.Context, question string) (*assistant.Answer, error)
	Clear()
	History() assistant.History
	Schema() string
}

// MCPServer wraps the assistant to expose it via MCP.
type MCPServer struct {
	svc    Service
	logger zerolog.Logger
}

// New registers the askdb tools and resources on a fresh MCP server.
func New(svc Service, version string, logger zerolog.Logger) *server.MCPServer {
	s := server.NewMCPServer(
		"askdb",
		version,
		server.WithResourceCapabilities(true, true),
		server.WithLogging(),
	)
	ms := &MCPServer{svc: svc, logger: logger.With().Str("component", "mcp").Logger()}

	// --- Resources ---

	s.AddResource(
		mcp.NewResource(
			historyURI,
			"Conversation History",
			mcp.WithResourceDescription("Recent turns and the context carried into the next question"),
			mcp.WithMIMEType("application/json"),
		),
		ms.handleHistory,
	)

	// --- Tools ---

	s.AddTool(
		mcp.NewTool(
			"ask",
			mcp.WithDescription("Answer a question about the database. Generates SQL, runs it and summarizes the rows."),
			mcp.WithString("question", mcp.Required(), mcp.Description("The question in plain language")),
		),
		ms.handleAsk,
	)

	s.AddTool(
		mcp.NewTool(
			"clear",
			mcp.WithDescription("Forget the conversation so far."),
		),
		ms.handleClear,
	)

	s.AddTool(
		mcp.NewTool(
			"schema",
			mcp.WithDescription("Show the table definitions the SQL is generated against."),
		),
		ms.handleSchema,
	)

	return s
}

// Run starts the MCP server on Stdio.
func Run(svc Service, version string, logger zerolog.Logger) error {
	return server.ServeStdio(New(svc, version, logger))
}

// --- Resource Handlers ---

func (ms *MCPServer) handleHistory(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	jsonBytes, err := json.MarshalIndent(ms.svc.History(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal history: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "application/json",
			Text:     string(jsonBytes),
		},
	}, nil
}

// --- Tool Handlers ---

func (ms *MCPServer) handleAsk(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	question, ok := args["question"].(string)
	question = strings.TrimSpace(question)
	if !ok || question == "" {
		return mcp.NewToolResultError("question argument required"), nil
	}

	ans, err := ms.svc.Ask(ctx, question)
	if err != nil {
		ms.logger.Warn().Err(err).Msg("ask failed")
		return mcp.NewToolResultError(err.Error()), nil
	}

	jsonBytes, err := json.MarshalIndent(ans, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal answer: %w", err)
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (ms *MCPServer) handleClear(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ms.svc.Clear()
	return mcp.NewToolResultText("Conversation cleared."), nil
}

func (ms *MCPServer) handleSchema(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(ms.svc.Schema()), nil
}

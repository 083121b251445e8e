// Package mcp exposes railchat conversations as Model Context Protocol tools.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/mitchellh/mapstructure"

	"github.com/aretw0/railchat"
	"github.com/aretw0/railchat/internal/logging"
	"github.com/aretw0/railchat/internal/presentation/graph"
	"github.com/aretw0/railchat/pkg/domain"
	"github.com/aretw0/railchat/pkg/ports"
	"github.com/aretw0/railchat/pkg/runner"
)

// RulesURI is the resource holding the rule catalog as a mermaid graph.
const RulesURI = "railchat://rules"

// TurnResponse aligns with the HTTP turn result and provides a unified structure across adapters.
type TurnResponse struct {
	SessionID string           `json:"session_id" jsonschema_description:"The conversation the turn ran in"`
	Messages  []domain.Message `json:"messages" jsonschema_description:"Replies for the user, in order"`
	Ended     bool             `json:"ended" jsonschema_description:"Indicates that the user closed the conversation"`
	Error     string           `json:"error,omitempty" jsonschema_description:"Set when the turn failed and the reply is an apology"`
}

// Sessions runs and inspects keyed conversations. *session.Manager satisfies it.
type Sessions interface {
	runner.Sessions
	Reset(ctx context.Context, sessionID string) (*domain.TurnResult, error)
	Load(ctx context.Context, sessionID string) (*domain.Session, error)
}

// Catalog lists the rules of the engine. *railchat.Engine satisfies it.
type Catalog interface {
	Rules() []railchat.RuleInfo
}

// Server wraps the conversation manager and exposes it as an MCP Server.
type Server struct {
	sessions  Sessions
	extractor ports.Extractor
	catalog   Catalog
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

type sessionArgs struct {
	SessionID string `mapstructure:"session_id"`
	Text      string `mapstructure:"text"`
}

// NewServer creates a new MCP Server instance.
func NewServer(sessions Sessions, extractor ports.Extractor, catalog Catalog, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		sessions:  sessions,
		extractor: extractor,
		catalog:   catalog,
		logger:    logger,
		mcpServer: server.NewMCPServer("railchat-mcp", strings.TrimSpace(railchat.Version)),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying protocol server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on addr using SSE and stops it when ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization", "X-Requested-With"},
	}))
	r.Handle("/sse", sseServer.SSEHandler())
	r.Handle("/message", sseServer.MessageHandler())

	httpServer := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("Shutdown signal received, shutting down server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() {
	// TOOL: send_message
	sendTool := mcp.NewTool("send_message",
		mcp.WithDescription("Send a free-text message to the travel assistant and get its replies."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Conversation ID. A new ID starts a new conversation.")),
		mcp.WithString("text", mcp.Required(), mcp.Description("What the user said")),
		mcp.WithOutputSchema[TurnResponse](),
	)
	s.mcpServer.AddTool(sendTool, mcp.NewStructuredToolHandler(s.handleSendMessage))

	// TOOL: run_turn
	turnTool := mcp.NewTool("run_turn",
		mcp.WithDescription("Run a turn from an already extracted message, skipping the built-in extractor."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Conversation ID")),
		mcp.WithString("extraction", mcp.Required(), mcp.Description("JSON object with intent, from_station, to_station, outward_date, confirmation and the other extraction fields")),
		mcp.WithOutputSchema[TurnResponse](),
	)
	s.mcpServer.AddTool(turnTool, mcp.NewStructuredToolHandler(s.handleRunTurn))

	// TOOL: reset_session
	resetTool := mcp.NewTool("reset_session",
		mcp.WithDescription("Forget the trip details of a conversation and start again."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Conversation ID")),
		mcp.WithOutputSchema[TurnResponse](),
	)
	s.mcpServer.AddTool(resetTool, mcp.NewStructuredToolHandler(s.handleReset))

	// TOOL: get_session
	s.mcpServer.AddTool(mcp.NewTool("get_session",
		mcp.WithDescription("Get the trip details collected so far in a conversation."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Conversation ID")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args sessionArgs
		if err := mapstructure.Decode(request.GetArguments(), &args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}
		sess, err := s.sessions.Load(ctx, args.SessionID)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("load failed: %v", err)), nil
		}
		jsonBytes, _ := json.Marshal(sess)
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})
}

// Handler methods for structured tools

func (s *Server) handleSendMessage(ctx context.Context, request mcp.CallToolRequest, raw map[string]any) (TurnResponse, error) {
	var args sessionArgs
	if err := mapstructure.Decode(raw, &args); err != nil {
		return TurnResponse{}, fmt.Errorf("invalid arguments: %w", err)
	}
	if args.SessionID == "" {
		return TurnResponse{}, fmt.Errorf("session_id is required")
	}

	res, err := runner.Respond(ctx, s.sessions, s.extractor, args.SessionID, args.Text)
	if err != nil {
		s.logger.Warn("MCP send_message: Input rejected", "error", err, "size", len(args.Text))
		return TurnResponse{}, fmt.Errorf("send failed: %w", err)
	}
	return toResponse(res), nil
}

func (s *Server) handleRunTurn(ctx context.Context, request mcp.CallToolRequest, raw map[string]any) (TurnResponse, error) {
	sessionID, _ := raw["session_id"].(string)
	if sessionID == "" {
		return TurnResponse{}, fmt.Errorf("session_id is required")
	}

	var fields map[string]any
	switch v := raw["extraction"].(type) {
	case string:
		if err := json.Unmarshal([]byte(v), &fields); err != nil {
			return TurnResponse{}, fmt.Errorf("extraction is not a JSON object: %w", err)
		}
	case map[string]any:
		fields = v
	default:
		return TurnResponse{}, fmt.Errorf("extraction is required")
	}

	ex, err := domain.DecodeExtraction(fields)
	if err != nil {
		return TurnResponse{}, err
	}
	res, err := s.sessions.Handle(ctx, sessionID, ex)
	if err != nil {
		return TurnResponse{}, fmt.Errorf("turn failed: %w", err)
	}
	return toResponse(res), nil
}

func (s *Server) handleReset(ctx context.Context, request mcp.CallToolRequest, raw map[string]any) (TurnResponse, error) {
	var args sessionArgs
	if err := mapstructure.Decode(raw, &args); err != nil {
		return TurnResponse{}, fmt.Errorf("invalid arguments: %w", err)
	}
	res, err := s.sessions.Reset(ctx, args.SessionID)
	if err != nil {
		return TurnResponse{}, fmt.Errorf("reset failed: %w", err)
	}
	return toResponse(res), nil
}

func toResponse(res *domain.TurnResult) TurnResponse {
	return TurnResponse{
		SessionID: res.SessionID,
		Messages:  res.Messages,
		Ended:     res.Ended,
		Error:     res.Error,
	}
}

func (s *Server) registerResources() {
	// EXPOSE: railchat://rules
	s.mcpServer.AddResource(mcp.NewResource(RulesURI, "Dialog Rule Catalog",
		mcp.WithMIMEType("text/vnd.mermaid"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      RulesURI,
				MIMEType: "text/vnd.mermaid",
				Text:     graph.GenerateMermaid(s.catalog.Rules(), nil),
			},
		}, nil
	})
}

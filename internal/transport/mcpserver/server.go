// Package mcpserver exposes the shopping operations as MCP tools.
//
// Each tool answers with the normalized envelope twice: as structured content
// and as JSON text for clients that only read text. A platform announces its
// profile in the request metadata:
//
//	{"_meta": {"ucp-agent": {"profile": "https://platform.example/profile"}}}
//
// or, for clients that cannot set metadata, under a "meta" argument with the
// same shape.
package mcpserver

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"ucphost/internal/envelope"
	"ucphost/internal/manifest"
	"ucphost/internal/negotiation"
	"ucphost/internal/shopping"
	dErrors "ucphost/pkg/domain-errors"
	"ucphost/pkg/requestcontext"
)

const (
	transportName = "mcp"

	// AgentMetaKey names the metadata object carrying the platform profile.
	AgentMetaKey = "ucp-agent"
	metaArgument = "meta"
)

// ProfileResolver negotiates for a platform profile URL.
type ProfileResolver interface {
	Resolve(ctx context.Context, profileURL string) (*negotiation.Result, error)
}

// Server hosts the MCP binding.
type Server struct {
	server     *mcp.Server
	service    shopping.Service
	bridge     *envelope.Bridge
	resolver   ProfileResolver
	logger     *slog.Logger
	middleware []func(http.Handler) http.Handler
}

// New creates the MCP server and registers one tool per shopping operation.
// resolver may be nil, in which case no negotiation happens.
func New(name, version string, service shopping.Service, bridge *envelope.Bridge, resolver ProfileResolver, logger *slog.Logger, mw ...func(http.Handler) http.Handler) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Server{
		server:     mcp.NewServer(&mcp.Implementation{Name: name, Version: version}, nil),
		service:    service,
		bridge:     bridge,
		resolver:   resolver,
		logger:     logger,
		middleware: mw,
	}
	for _, op := range shopping.Operations() {
		mcp.AddTool(s.server, &mcp.Tool{Name: op.Name, Description: op.Description}, s.toolHandler(op))
	}
	return s
}

// Register mounts the streamable HTTP endpoint at manifest.MCPPath.
func (s *Server) Register(r chi.Router) {
	handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return s.server }, nil)
	r.Group(func(r chi.Router) {
		r.Use(s.middleware...)
		r.Handle(manifest.MCPPath, handler)
	})
}

// Run serves the tools over t until ctx ends.
func (s *Server) Run(ctx context.Context, t mcp.Transport) error {
	return s.server.Run(ctx, t)
}

func (s *Server) toolHandler(op shopping.Operation) mcp.ToolHandlerFor[map[string]any, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, args map[string]any) (*mcp.CallToolResult, any, error) {
		ctx = requestcontext.WithTransport(ctx, transportName)
		if requestcontext.RequestID(ctx) == "" {
			ctx = requestcontext.WithRequestID(ctx, uuid.NewString())
		}

		profileURL := profileFromMeta(metaOf(req))
		if nested, ok := args[metaArgument].(map[string]any); ok {
			if profileURL == "" {
				profileURL = profileFromMeta(nested)
			}
			delete(args, metaArgument)
		}

		env, err := s.bridge.Invoke(ctx, op.Capability, func(ctx context.Context) (any, error) {
			if s.resolver != nil {
				result, err := s.resolver.Resolve(ctx, profileURL)
				if err != nil {
					return nil, err
				}
				ctx = negotiation.WithResult(ctx, result)
			}
			params, err := json.Marshal(args)
			if err != nil {
				return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid arguments")
			}
			return op.Call(ctx, s.service, params)
		})
		return s.toolResult(ctx, op.Capability, env, err), nil, nil
	}
}

func (s *Server) toolResult(ctx context.Context, capabilityName string, env envelope.Envelope, invokeErr error) *mcp.CallToolResult {
	text, err := json.Marshal(env)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to encode envelope", "error", err)
		env = envelope.ErrorEnvelope(capabilityName, err)
		invokeErr = err
		text, _ = json.Marshal(env)
	}
	return &mcp.CallToolResult{
		Content:           []mcp.Content{&mcp.TextContent{Text: string(text)}},
		StructuredContent: env,
		IsError:           invokeErr != nil,
	}
}

func metaOf(req *mcp.CallToolRequest) map[string]any {
	if req == nil || req.Params == nil {
		return nil
	}
	return req.Params.GetMeta()
}

func profileFromMeta(meta map[string]any) string {
	agent, ok := meta[AgentMetaKey].(map[string]any)
	if !ok {
		return ""
	}
	profile, _ := agent["profile"].(string)
	return profile
}

// Package jsonrpc is the JSON-RPC 2.0 binding of the shopping operations.
//
//	POST /ucp/jsonrpc
//	{"jsonrpc": "2.0", "method": "get_checkout", "params": {"id": "chk_1"}, "id": 1}
//
// Every answered call carries a normalized envelope under "result", including
// business failures. JSON-RPC errors are reserved for protocol failures: a
// body that is not a request, or a method that does not exist.
package jsonrpc

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	rpc "github.com/modelcontextprotocol/go-sdk/jsonrpc"

	"ucphost/internal/envelope"
	"ucphost/internal/manifest"
	"ucphost/internal/platform/middleware"
	"ucphost/internal/shopping"
	"ucphost/pkg/requestcontext"
)

const (
	transportName = "a2a"
	maxBodyBytes  = 1 << 20
)

// Standard JSON-RPC 2.0 error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInternalError  = -32603
)

// Handler serves JSON-RPC calls against a shopping.Service.
type Handler struct {
	service    shopping.Service
	bridge     *envelope.Bridge
	logger     *slog.Logger
	middleware []func(http.Handler) http.Handler
}

// New creates the JSON-RPC handler. mw runs after the transport is recorded.
func New(service shopping.Service, bridge *envelope.Bridge, logger *slog.Logger, mw ...func(http.Handler) http.Handler) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handler{service: service, bridge: bridge, logger: logger, middleware: mw}
}

// Register mounts the endpoint at manifest.JSONRPCPath.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.Transport(transportName))
		r.Use(h.middleware...)
		r.Post(manifest.JSONRPCPath, h.ServeRPC)
	})
}

// ServeRPC handles one JSON-RPC message.
func (h *Handler) ServeRPC(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		h.logger.WarnContext(ctx, "failed to read json-rpc body", "request_id", requestID, "error", err)
		writeProtocolError(w, CodeParseError, "failed to read request")
		return
	}

	msg, err := rpc.DecodeMessage(body)
	if err != nil {
		h.logger.WarnContext(ctx, "invalid json-rpc message", "request_id", requestID, "error", err)
		writeProtocolError(w, CodeParseError, "parse error")
		return
	}
	req, ok := msg.(*rpc.Request)
	if !ok {
		writeProtocolError(w, CodeInvalidRequest, "expected a request")
		return
	}
	notification := req.ID == rpc.ID{}

	op, ok := shopping.LookupOperation(req.Method)
	if !ok {
		h.logger.WarnContext(ctx, "unknown json-rpc method", "request_id", requestID, "method", req.Method)
		if notification {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		h.write(w, r, &rpc.Response{
			ID:    req.ID,
			Error: &rpc.Error{Code: CodeMethodNotFound, Message: "method not found: " + req.Method},
		})
		return
	}

	env, _ := h.bridge.Invoke(ctx, op.Capability, func(ctx context.Context) (any, error) {
		return op.Call(ctx, h.service, req.Params)
	})
	if notification {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	result, err := json.Marshal(env)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to encode envelope", "request_id", requestID, "method", req.Method, "error", err)
		h.write(w, r, &rpc.Response{
			ID:    req.ID,
			Error: &rpc.Error{Code: CodeInternalError, Message: envelope.GenericErrorMessage},
		})
		return
	}
	h.write(w, r, &rpc.Response{ID: req.ID, Result: result})
}

func (h *Handler) write(w http.ResponseWriter, r *http.Request, resp *rpc.Response) {
	data, err := rpc.EncodeMessage(resp)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to encode json-rpc response", "error", err)
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

// writeProtocolError answers a message whose id could not be read.
func writeProtocolError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"jsonrpc": "2.0",
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
		"id": nil,
	})
}

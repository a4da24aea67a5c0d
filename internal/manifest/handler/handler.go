package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ucphost/internal/manifest"
	dErrors "ucphost/pkg/domain-errors"
	"ucphost/pkg/platform/httputil"
	"ucphost/pkg/requestcontext"
)

// WellKnownPath is where platforms discover the host.
const WellKnownPath = "/.well-known/ucp"

// Builder renders the discovery manifest.
type Builder interface {
	Build() (*manifest.Document, error)
}

// Handler serves the discovery manifest.
type Handler struct {
	builder Builder
	logger  *slog.Logger
}

// New constructs a manifest handler.
func New(builder Builder, logger *slog.Logger) *Handler {
	return &Handler{builder: builder, logger: logger}
}

// Register mounts the discovery endpoint on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get(WellKnownPath, h.HandleManifest)
}

// HandleManifest handles GET /.well-known/ucp requests.
func (h *Handler) HandleManifest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	doc, err := h.builder.Build()
	if err != nil {
		if errors.Is(err, manifest.ErrNoBusinessIdentity) {
			httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeNotFound, "no UCP business is configured on this host"))
			return
		}
		h.logger.ErrorContext(ctx, "failed to build manifest",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to build manifest"))
		return
	}

	w.Header().Set("Cache-Control", "public, max-age=300")
	httputil.WriteJSON(w, http.StatusOK, doc)
}

package negotiation

import (
	"net/http"

	dErrors "ucphost/pkg/domain-errors"
	"ucphost/pkg/platform/httputil"
)

// Middleware negotiates against the profile named in the UCP-Agent header
// and stores the result in the request context. Requests without the header
// get the business view.
func (n *Negotiator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		header := r.Header.Get(AgentHeader)
		if header == "" {
			next.ServeHTTP(w, r.WithContext(WithResult(ctx, n.Business())))
			return
		}

		profileURL, err := ParseAgentHeader(header)
		if err != nil {
			httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid UCP-Agent header"))
			return
		}

		result, err := n.Resolve(ctx, profileURL)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		if result.FetchError != nil {
			w.Header().Set("Warning", `199 - "platform profile unavailable"`)
		}
		next.ServeHTTP(w, r.WithContext(WithResult(ctx, result)))
	})
}

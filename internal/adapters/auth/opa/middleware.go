package opa

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

// ClaimsFunc returns the verified claims the authentication middleware
// stored in the request context. Injected so this package never has to
// guess another package's context key.
type ClaimsFunc func(ctx context.Context) (map[string]interface{}, bool)

// Middleware authorizes requests against an Open Policy Agent instance.
type Middleware struct {
	opaURL string
	claims ClaimsFunc
	logger *slog.Logger
	client *http.Client
}

func NewMiddleware(opaURL string, claims ClaimsFunc, logger *slog.Logger) *Middleware {
	return &Middleware{
		opaURL: opaURL,
		claims: claims,
		logger: logger,
		client: &http.Client{Timeout: 500 * time.Millisecond},
	}
}

// OPAInput is the policy query document.
type OPAInput struct {
	Method string                 `json:"method"`
	Path   string                 `json:"path"`
	User   map[string]interface{} `json:"user"`
}

// OPAResponse is the policy decision.
type OPAResponse struct {
	Allow bool `json:"allow"`
}

// Authorize is an HTTP middleware that performs permission checking.
func (m *Middleware) Authorize(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := m.claims(r.Context())
		if !ok {
			http.Error(w, "Claims not found in context", http.StatusInternalServerError)
			return
		}

		input := OPAInput{
			Method: r.Method,
			Path:   r.URL.Path,
			User:   claims,
		}

		inputBytes, err := json.Marshal(map[string]interface{}{"input": input})
		if err != nil {
			m.logger.Error("failed to create OPA request", "error", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		// The URL typically looks like http://opa:8181/v1/data/backoffice/authz
		req, err := http.NewRequestWithContext(r.Context(), "POST", m.opaURL, bytes.NewBuffer(inputBytes))
		if err != nil {
			m.logger.Error("failed to create OPA request", "error", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := m.client.Do(req)
		if err != nil {
			m.logger.Error("error reaching OPA", "error", err)
			http.Error(w, "Authorization service unavailable", http.StatusServiceUnavailable)
			return
		}
		defer func() {
			if err := resp.Body.Close(); err != nil {
				m.logger.Error("failed to close OPA response body", "error", err)
			}
		}()

		var opaResp OPAResponse
		if err := json.NewDecoder(resp.Body).Decode(&opaResp); err != nil {
			m.logger.Error("unable to decode response from OPA", "error", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		if !opaResp.Allow {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}

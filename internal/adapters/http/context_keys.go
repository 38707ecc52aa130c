package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
)

// contextKey is a typed key for request-context values.
type contextKey string

// claimsContextKey stores the verified claims (JWT or OIDC) in the context.
const claimsContextKey = contextKey("claims")

// ClaimsFromContext returns the verified claims stored by JWTMiddleware or
// the OIDC authenticator. Authorization layers in other packages must use
// this accessor; context keys are typed per package and never match across
// package boundaries.
func ClaimsFromContext(ctx context.Context) (map[string]interface{}, bool) {
	claims, ok := ctx.Value(claimsContextKey).(map[string]interface{})
	return claims, ok
}

// ErrorResponse is the standard structure for returning errors as JSON.
type ErrorResponse struct {
	Error string `json:"error"`
}

// writeJSONError is a helper for sending errors in JSON format.
func writeJSONError(w http.ResponseWriter, message string, status int, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(ErrorResponse{Error: message}); err != nil {
		logger.Error("failed to write JSON error response", "error", err)
	}
}

package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
)

// OIDCAuthenticator stores the token verifier. It is the drop-in
// alternative to JWTMiddleware when an external identity provider
// (Keycloak) issues the tokens.
type OIDCAuthenticator struct {
	Verifier *oidc.IDTokenVerifier
	logger   *slog.Logger
}

// NewOIDCAuthenticator connects to the OIDC provider and creates an
// authenticator.
func NewOIDCAuthenticator(ctx context.Context, providerURL, clientID string, logger *slog.Logger) (*OIDCAuthenticator, error) {
	if providerURL == "" || clientID == "" {
		return nil, fmt.Errorf("OIDC URL and ClientID cannot be empty")
	}

	provider, err := oidc.NewProvider(ctx, providerURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create OIDC provider: %w", err)
	}

	verifier := provider.Verifier(&oidc.Config{ClientID: clientID})
	return &OIDCAuthenticator{Verifier: verifier, logger: logger}, nil
}

// Middleware is an HTTP middleware for token verification.
func (a *OIDCAuthenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeJSONError(w, "Authorization header required", http.StatusUnauthorized, a.logger)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			writeJSONError(w, "Invalid Authorization header format", http.StatusUnauthorized, a.logger)
			return
		}
		rawToken := parts[1]

		idToken, err := a.Verifier.Verify(r.Context(), rawToken)
		if err != nil {
			writeJSONError(w, "Invalid token", http.StatusUnauthorized, a.logger)
			return
		}

		var claims map[string]interface{}
		if err := idToken.Claims(&claims); err != nil {
			writeJSONError(w, "Failed to extract claims", http.StatusInternalServerError, a.logger)
			return
		}

		ctx := context.WithValue(r.Context(), claimsContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// JWTMiddleware verifies the bearer token and stores its claims in the
// request context for the authorization layer.
func JWTMiddleware(jwtSecret []byte, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeJSONError(w, "Authorization header required", http.StatusUnauthorized, logger)
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				writeJSONError(w, "Invalid Authorization header format", http.StatusUnauthorized, logger)
				return
			}

			tokenString := parts[1]

			token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
				// Only HS256 is accepted.
				if token.Method.Alg() != "HS256" {
					return nil, errors.New("unexpected signing method")
				}
				return jwtSecret, nil
			})

			if err != nil {
				logger.Warn("JWT validation failed", "error", err)
				writeJSONError(w, "Invalid token", http.StatusUnauthorized, logger)
				return
			}
			if !token.Valid {
				logger.Warn("JWT token is not valid")
				writeJSONError(w, "Invalid token", http.StatusUnauthorized, logger)
				return
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				logger.Warn("failed to cast token claims")
				writeJSONError(w, "Invalid token claims", http.StatusUnauthorized, logger)
				return
			}

			// Stored as a plain map so downstream consumers (OPA input,
			// caller context) do not depend on the JWT library type.
			ctx := context.WithValue(r.Context(), claimsContextKey, map[string]interface{}(claims))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

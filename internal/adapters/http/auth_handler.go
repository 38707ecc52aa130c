package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AuthHandler handles authentication-related requests.
type AuthHandler struct {
	jwtSecret []byte
	logger    *slog.Logger
}

func NewAuthHandler(logger *slog.Logger, jwtSecret string) *AuthHandler {
	return &AuthHandler{
		logger:    logger,
		jwtSecret: []byte(jwtSecret),
	}
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"` //TODO: verify against the user store
}

type LoginResponse struct {
	Token string `json:"token"`
}

// HandleLogin issues a short-lived JWT for back-office staff.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest, h.logger)
		return
	}

	var roles []string
	var userID string
	switch req.Username {
	case "manager":
		roles = []string{"manager", "agent"}
		userID = "user-manager-001"
	case "agent":
		roles = []string{"agent"}
		userID = "user-agent-002"
	default:
		writeJSONError(w, "Invalid username", http.StatusUnauthorized, h.logger)
		return
	}

	claims := jwt.MapClaims{
		"sub":   userID,
		"roles": roles, // consumed by the OPA policy
		"exp":   time.Now().Add(time.Hour * 1).Unix(),
		"iat":   time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString(h.jwtSecret)
	if err != nil {
		writeJSONError(w, "Failed to generate token", http.StatusInternalServerError, h.logger)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(w).Encode(LoginResponse{Token: tokenString}); err != nil {
		h.logger.Error("failed to write json response", "error", err)
	}
}

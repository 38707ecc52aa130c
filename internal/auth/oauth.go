package auth

import (
	"log/slog"

	"github.com/go-oauth2/oauth2/v4"
	"github.com/go-oauth2/oauth2/v4/errors"
	"github.com/go-oauth2/oauth2/v4/generates"
	"github.com/go-oauth2/oauth2/v4/manage"
	"github.com/go-oauth2/oauth2/v4/models"
	"github.com/go-oauth2/oauth2/v4/server"
	"github.com/go-oauth2/oauth2/v4/store"
	// generates.NewJWTAccessGenerate takes the jwt v3 SigningMethod type,
	// not the v5 one the HTTP middleware uses.
	"github.com/golang-jwt/jwt"
)

// NewAuthorizationServer creates and configures an OAuth 2.0 server for
// machine-to-machine callers (reporting jobs, the archiver, integrations).
func NewAuthorizationServer(jwtSecret string, logger *slog.Logger) *server.Server {
	manager := manage.NewDefaultManager()

	// token store
	manager.MustTokenStorage(store.NewMemoryTokenStore())

	// Configure the token generator to use JWT.
	manager.MapAccessGenerate(generates.NewJWTAccessGenerate("", []byte(jwtSecret), jwt.SigningMethodHS256))

	// In-memory client store.
	clientStore := store.NewClientStore()
	err := clientStore.Set("backoffice-client", &models.Client{
		ID:     "backoffice-client",
		Secret: "backoffice-secret",
		Domain: "http://localhost",
	})
	if err != nil {
		logger.Error("failed to set client in store", "error", err)
		return nil
	}
	manager.MapClientStorage(clientStore)

	srv := server.NewServer(server.NewConfig(), manager)

	// Client Credentials grant type.
	srv.SetAllowGetAccessRequest(true)
	srv.SetClientInfoHandler(server.ClientFormHandler)

	// Custom claims for the OPA policy.
	srv.SetExtensionFieldsHandler(func(ti oauth2.TokenInfo) (fieldsValue map[string]interface{}) {
		fieldsValue = map[string]interface{}{
			"sub":   ti.GetClientID(),
			"roles": []string{"service"},
		}
		return
	})

	srv.SetInternalErrorHandler(func(err error) (re *errors.Response) {
		logger.Error("internal OAuth2 server error", "error", err)
		return
	})

	logger.Info("OAuth 2.0 server configured successfully")
	return srv
}

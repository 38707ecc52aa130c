package http

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewOIDCAuthenticator_RequiresConfiguration(t *testing.T) {
	_, err := NewOIDCAuthenticator(context.Background(), "", "", testLogger())
	assert.Error(t, err)

	_, err = NewOIDCAuthenticator(context.Background(), "http://localhost:8180/realms/backoffice", "", testLogger())
	assert.Error(t, err)
}

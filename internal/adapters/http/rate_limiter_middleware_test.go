package http

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// Mock - implementation of the rate limiter repository
type MockRateLimiter struct {
	mock.Mock
}

func (m *MockRateLimiter) IsAllowed(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	args := m.Called(ctx, key, limit, window)
	return args.Bool(0), args.Error(1)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRateLimiter_ThrottlesBareIPRemoteAddr(t *testing.T) {
	// --- Arrange ---
	// Behind middleware.RealIP, RemoteAddr carries no port; the limiter must
	// still key on the IP instead of failing open.
	mockRepo := new(MockRateLimiter)
	mockRepo.On("IsAllowed", mock.Anything, "203.0.113.7", 100, time.Minute).Return(false, nil)
	mw := NewRateLimiterMiddleware(mockRepo, testLogger())

	handlerReached := false
	next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { handlerReached = true })

	req := httptest.NewRequest(http.MethodGet, "/api/v1/payments", nil)
	req.RemoteAddr = "203.0.113.7"
	rec := httptest.NewRecorder()

	// --- Act ---
	mw.Handler(next).ServeHTTP(rec, req)

	// --- Assert ---
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.False(t, handlerReached)
	mockRepo.AssertExpectations(t)
}

func TestRateLimiter_AllowsHostPortRemoteAddr(t *testing.T) {
	// --- Arrange ---
	mockRepo := new(MockRateLimiter)
	mockRepo.On("IsAllowed", mock.Anything, "203.0.113.7", 100, time.Minute).Return(true, nil)
	mw := NewRateLimiterMiddleware(mockRepo, testLogger())

	handlerReached := false
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		handlerReached = true
		w.WriteHeader(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/payments", nil)
	req.RemoteAddr = "203.0.113.7:51234"
	rec := httptest.NewRecorder()

	// --- Act ---
	mw.Handler(next).ServeHTTP(rec, req)

	// --- Assert ---
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, handlerReached)
	mockRepo.AssertExpectations(t)
}

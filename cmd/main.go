package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"property-finance-system/internal/adapters/auth/opa"
	httphandler "property-finance-system/internal/adapters/http"
	"property-finance-system/internal/adapters/messaging/kafka"
	"property-finance-system/internal/adapters/messaging/mock"
	"property-finance-system/internal/adapters/storage/postgres"
	"property-finance-system/internal/adapters/storage/redis"
	"property-finance-system/internal/app"
	"property-finance-system/internal/auth"
	"property-finance-system/internal/config"
	"property-finance-system/internal/core/ports"
	"property-finance-system/internal/observability"
	"property-finance-system/internal/security"
)

func main() {
	// --- 1. Configuration and Logging ---
	fallbackLogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		fallbackLogger.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.SetupLogger(cfg.App.Env)
	logger.Info("Application starting", "env", cfg.App.Env, "port", cfg.Server.Port)

	// --- 2. Validate critical config ---
	jwtSecret := cfg.JWT.Secret
	if jwtSecret == "" {
		logger.Error("JWT_SECRET is not set")
		os.Exit(1)
	}
	catalog := cfg.MethodCatalog()
	if len(cfg.PaymentMethods) == 0 {
		logger.Error("no payment methods configured")
		os.Exit(1)
	}

	// --- 3. Observability ---
	shutdownTracer, err := observability.InitTracer(cfg.Jaeger.Port, "backoffice-gateway")
	if err != nil {
		logger.Error("Failed to initialize tracing", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			logger.Warn("Failed to shutdown tracer", "error", err)
		}
	}()

	// --- 4. Dependencies ---
	ctx := context.Background()

	store, err := postgres.NewStore(ctx, cfg.Postgres.DSN)
	if err != nil {
		logger.Error("Failed to connect to PostgreSQL", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	logger.Info("Connected to PostgreSQL")

	// Redis
	rdb, err := redis.NewClient(cfg.Redis.Addr)
	if err != nil {
		logger.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			logger.Warn("Failed to close Redis", "error", err)
		}
	}()
	rateLimiterRepo := redis.NewRateLimiterAdapter(rdb)

	// Kafka (replaced with a stdout stub for local runs without a broker)
	var notifier ports.NotificationDispatcher
	switch cfg.App.Env {
	case "development", "dev":
		notifier = mock.NewNotifier()
		logger.Info("Using mock notifier, confirmations go to stdout")
	default:
		kafkaNotifier, err := kafka.NewNotifier([]string{cfg.Kafka.BootstrapServers}, cfg.Kafka.ConfirmationTopic, logger)
		if err != nil {
			logger.Error("Failed to create Kafka notifier", "error", err)
			os.Exit(1)
		}
		defer kafkaNotifier.Close()
		notifier = kafkaNotifier
		logger.Info("Kafka notifier created")
	}

	// --- 5. Service Layer ---
	assessor := security.NewAssessor(rdb, cfg.Security, cfg.FraudScorer.URL, logger)
	paymentService := app.NewPaymentPipeline(catalog, assessor, store, store, notifier, logger)
	allocationService := app.NewAllocationEngine(store, logger)

	paymentHandler := httphandler.NewPaymentHandler(paymentService, logger)
	allocationHandler := httphandler.NewAllocationHandler(allocationService, logger)
	authHandler := httphandler.NewAuthHandler(logger, jwtSecret)
	rateLimiterMiddleware := httphandler.NewRateLimiterMiddleware(rateLimiterRepo, logger)
	opaMiddleware := opa.NewMiddleware(cfg.OPA.URL, httphandler.ClaimsFromContext, logger)
	oauthServer := auth.NewAuthorizationServer(jwtSecret, logger)

	// Token verification: built-in HS256 by default, the external identity
	// provider (Keycloak) when the oidc section enables it. Both store their
	// claims under the same context key for the authorization layer.
	authenticate := httphandler.JWTMiddleware([]byte(jwtSecret), logger)
	if cfg.OIDC.Enabled {
		oidcAuth, err := httphandler.NewOIDCAuthenticator(ctx, cfg.OIDC.URL, cfg.OIDC.ClientID, logger)
		if err != nil {
			logger.Error("Failed to initialize OIDC authenticator", "error", err)
			os.Exit(1)
		}
		authenticate = oidcAuth.Middleware
		logger.Info("OIDC token verification enabled", "provider", cfg.OIDC.URL)
	}

	// --- 6. HTTP Router ---
	r := chi.NewRouter()

	// Public middleware
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		rateLimiterMiddleware.Handler,
		middleware.Logger,
		middleware.Recoverer,
		observability.NewLoggerMiddleware(logger),
		observability.NewMetricsMiddleware("backoffice-gateway"),
		observability.NewTracingMiddleware("backoffice-gateway"),
	)

	// Public routes
	r.Post("/login", authHandler.HandleLogin)
	r.Post("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		if err := oauthServer.HandleTokenRequest(w, r); err != nil {
			logger.Error("failed to handle token request", "error", err)
		}
	})
	// Health check
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if err := json.NewEncoder(w).Encode(map[string]string{
			"status":  "healthy",
			"service": "backoffice-gateway",
		}); err != nil {
			logger.Error("Failed to write health response", "error", err)
		}
	})
	r.Handle("/metrics", promhttp.Handler())

	// Protected routes: /api/v1/*
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(
			authenticate,
			opaMiddleware.Authorize,
		)
		r.Post("/payments", paymentHandler.HandleCreatePayment)
		r.Post("/expenses/{id}/allocations", allocationHandler.HandleAllocateExpense)
	})

	// --- 7. HTTP Server ---
	serverAddr := cfg.Server.Port
	if serverAddr == "" {
		serverAddr = ":8080"
	}

	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start server
	go func() {
		logger.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", "error", err)
		os.Exit(1)
	}

	logger.Info("Server exited properly")
}

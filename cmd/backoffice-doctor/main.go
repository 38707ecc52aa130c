package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/twmb/franz-go/pkg/kgo"

	"property-finance-system/internal/config"
	"property-finance-system/internal/observability"
)

// Check describes one diagnostic check.
type Check struct {
	Name     string
	Func     func(ctx context.Context) error
	Status   string
	Error    error
	Duration time.Duration
}

func main() {
	logger := observability.SetupLogger("development")
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	checks := []Check{
		{Name: "Back-office Gateway", Func: func(ctx context.Context) error {
			return checkHTTPHealth(ctx, "localhost"+cfg.Server.Port+"/health", logger)
		}},
		{Name: "PostgreSQL", Func: func(ctx context.Context) error {
			return checkPostgres(ctx, cfg.Postgres.DSN, logger)
		}},
		{Name: "Redis", Func: func(ctx context.Context) error {
			return checkRedis(ctx, cfg.Redis.Addr, logger)
		}},
		{Name: "Kafka Cluster", Func: func(ctx context.Context) error {
			return checkKafka(ctx, strings.Split(cfg.Kafka.BootstrapServers, ","))
		}},
		{Name: "ClickHouse", Func: func(ctx context.Context) error {
			return checkClickHouse(ctx, cfg.ClickHouse, logger)
		}},
		{Name: "Keycloak", Func: func(ctx context.Context) error {
			return checkHTTPHealth(ctx, cfg.OIDC.URL+"/health/ready", logger)
		}},
		{Name: "Open Policy Agent", Func: func(ctx context.Context) error {
			return checkHTTPHealth(ctx, cfg.OPA.URL+"/health", logger)
		}},
		{Name: "Fraud Scorer", Func: func(ctx context.Context) error {
			return checkHTTPHealth(ctx, cfg.FraudScorer.URL+"/healthz", logger)
		}},
		{Name: "Alerter Service", Func: func(ctx context.Context) error {
			return checkHTTPHealth(ctx, "localhost:"+cfg.Server.PortAlerter+"/health", logger)
		}},
	}

	var wg sync.WaitGroup
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	fmt.Println("🩺 Running full system diagnostics...")

	for i := range checks {
		wg.Add(1)
		go func(c *Check) {
			defer wg.Done()
			start := time.Now()
			c.Error = c.Func(ctx)
			c.Duration = time.Since(start)
			if c.Error == nil {
				c.Status = "✅ OK"
			} else {
				c.Status = "❌ FAILED"
			}
		}(&checks[i])
	}

	wg.Wait()

	fmt.Println("\n--- Diagnostics report ---")
	hasErrors := false
	for _, c := range checks {
		if c.Error == nil {
			fmt.Printf("[%s] %-25s (took %v)\n", c.Status, c.Name, c.Duration.Round(time.Millisecond))
		} else {
			hasErrors = true
			fmt.Printf("[%s] %-25s (took %v) - error: %v\n", c.Status, c.Name, c.Duration.Round(time.Millisecond), c.Error)
		}
	}

	if hasErrors {
		fmt.Println("\nDiagnostics found problems.")
		os.Exit(1)
	}
	fmt.Println("\nAll systems healthy!")
}

// --- Check functions ---

func checkHTTPHealth(ctx context.Context, url string, logger *slog.Logger) error {
	if !strings.HasPrefix(url, "http") {
		url = "http://" + url
	}

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Error("failed to close HTTP response body", "error", err)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status: %s", resp.Status)
	}
	return nil
}

func checkPostgres(ctx context.Context, dsn string, logger *slog.Logger) error {
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return err
	}
	defer func() {
		if err := conn.Close(ctx); err != nil {
			logger.Error("failed to close Postgres connection", "error", err)
		}
	}()
	return conn.Ping(ctx)
}

func checkRedis(ctx context.Context, addr string, logger *slog.Logger) error {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	defer func() {
		if err := rdb.Close(); err != nil {
			logger.Error("failed to close Redis connection", "error", err)
		}
	}()
	return rdb.Ping(ctx).Err()
}

func checkKafka(ctx context.Context, brokers []string) error {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DialTimeout(5*time.Second),
	)
	if err != nil {
		return err
	}
	defer client.Close()

	return client.Ping(ctx)
}

func checkClickHouse(ctx context.Context, cfg config.ClickHouseConfig, logger *slog.Logger) error {
	if cfg.Addr == "" {
		return fmt.Errorf("ClickHouse address is not configured")
	}

	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.User,
			Password: cfg.Password,
		},
		DialTimeout: 5 * time.Second,
	})
	if err != nil {
		return fmt.Errorf("failed to open connection: %w", err)
	}
	defer func() {
		if err := conn.Close(); err != nil {
			logger.Error("failed to close ClickHouse connection", "error", err)
		}
	}()

	return conn.Ping(ctx)
}

package config

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"property-finance-system/internal/core/domain"
)

// SecurityConfig stores parameters for the security rules engine.
type SecurityConfig struct {
	AmountWarnThreshold    float64 `yaml:"amount_warn_threshold"`
	AmountBlockThreshold   float64 `yaml:"amount_block_threshold"`
	FrequencyThreshold     int     `yaml:"frequency_threshold"`
	FrequencyWindowSeconds int     `yaml:"frequency_window_seconds"`
}

// MethodConfig is one payment method entry in the catalog section.
type MethodConfig struct {
	ID        string  `yaml:"id"`
	Label     string  `yaml:"label"`
	Enabled   bool    `yaml:"enabled"`
	MinAmount float64 `yaml:"min_amount"`
	MaxAmount float64 `yaml:"max_amount"`
	Reference struct {
		Required     bool `yaml:"required"`
		Allowed      bool `yaml:"allowed"`
		MinLength    int  `yaml:"min_length"`
		MaxLength    int  `yaml:"max_length"`
		Alphanumeric bool `yaml:"alphanumeric"`
		Uppercase    bool `yaml:"uppercase"`
	} `yaml:"reference"`
	Fee struct {
		Kind   string  `yaml:"kind"`
		Rate   float64 `yaml:"rate"`
		Amount float64 `yaml:"amount"`
	} `yaml:"fee"`
}

// ClickHouseConfig holds the archive connection settings.
type ClickHouseConfig struct {
	Addr     string `yaml:"addr"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

type Config struct {
	App struct {
		Env string `yaml:"env"`
	} `yaml:"app"`
	Server struct {
		Port        string `yaml:"port"`
		PortAlerter string `yaml:"port_alerter"`
	} `yaml:"server"`
	Postgres struct {
		DSN string `yaml:"dsn"`
	} `yaml:"postgres"`
	Kafka struct {
		BootstrapServers  string `yaml:"bootstrap_servers"`
		ConfirmationTopic string `yaml:"confirmation_topic"`
		DLQTopic          string `yaml:"dlq_topic"`
	} `yaml:"kafka"`
	Redis struct {
		Addr string `yaml:"addr"`
	} `yaml:"redis"`
	ClickHouse ClickHouseConfig `yaml:"clickhouse"`
	Jaeger     struct {
		Port     string `yaml:"port"`
		PortGrpc string `yaml:"port_grpc"`
	} `yaml:"jaeger"`
	OIDC struct {
		// Enabled switches token verification from the built-in HS256
		// middleware to the external identity provider.
		Enabled  bool   `yaml:"enabled"`
		URL      string `yaml:"url"`
		ClientID string `yaml:"client_id"`
	} `yaml:"oidc"`
	OPA struct {
		URL string `yaml:"url"`
	} `yaml:"opa"`
	JWT struct {
		Secret string `yaml:"jwt_secret"`
	} `yaml:"jwt"`
	FraudScorer struct {
		URL string `yaml:"url"`
	} `yaml:"fraud_scorer"`
	Security       SecurityConfig `yaml:"security"`
	PaymentMethods []MethodConfig `yaml:"payment_methods"`
}

func Load(configPath string) (*Config, error) {
	config := &Config{}

	file, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// First, we substitute environment variables into the raw YAML file.
	expandedFile := os.ExpandEnv(string(file))

	if err := yaml.Unmarshal([]byte(expandedFile), config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return config, nil
}

// MethodCatalog converts the configured method entries into the immutable
// domain catalog shared by all pipeline invocations.
func (c *Config) MethodCatalog() *domain.MethodCatalog {
	configs := make([]domain.PaymentMethodConfig, 0, len(c.PaymentMethods))
	for _, m := range c.PaymentMethods {
		configs = append(configs, domain.PaymentMethodConfig{
			ID:        domain.PaymentMethod(m.ID),
			Label:     m.Label,
			IsEnabled: m.Enabled,
			MinAmount: decimal.NewFromFloat(m.MinAmount),
			MaxAmount: decimal.NewFromFloat(m.MaxAmount),
			Reference: domain.ReferenceRule{
				Required:     m.Reference.Required,
				Allowed:      m.Reference.Allowed,
				MinLength:    m.Reference.MinLength,
				MaxLength:    m.Reference.MaxLength,
				Alphanumeric: m.Reference.Alphanumeric,
				Uppercase:    m.Reference.Uppercase,
			},
			Fee: domain.FeeModel{
				Kind:   domain.FeeModelKind(m.Fee.Kind),
				Rate:   decimal.NewFromFloat(m.Fee.Rate),
				Amount: decimal.NewFromFloat(m.Fee.Amount),
			},
		})
	}
	return domain.NewMethodCatalog(configs)
}

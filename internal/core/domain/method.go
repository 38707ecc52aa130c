package domain

import "github.com/shopspring/decimal"

// PaymentMethod identifies how money came in.
type PaymentMethod string

const (
	MethodMpesa        PaymentMethod = "MPESA"
	MethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	MethodCheque       PaymentMethod = "CHEQUE"
	MethodCash         PaymentMethod = "CASH"
)

// FeeModelKind selects how the processing fee is computed for a method.
type FeeModelKind string

const (
	FeeNone       FeeModelKind = "NONE"
	FeePercentage FeeModelKind = "PERCENTAGE"
	FeeFixed      FeeModelKind = "FIXED"
)

// FeeModel is the fee rule attached to a payment method.
// Rate is a percentage (2.5 means 2.5%), Amount a flat fee in KES.
type FeeModel struct {
	Kind   FeeModelKind
	Rate   decimal.Decimal
	Amount decimal.Decimal
}

// ReferenceRule describes the transaction-reference format a method expects.
// Required and Allowed are separate: CASH allows no reference at all, while
// BANK_TRANSFER requires a free-form one.
type ReferenceRule struct {
	Required     bool
	Allowed      bool
	MinLength    int
	MaxLength    int
	Alphanumeric bool
	Uppercase    bool
}

// PaymentMethodConfig is the immutable per-method configuration.
type PaymentMethodConfig struct {
	ID        PaymentMethod
	Label     string
	IsEnabled bool
	MinAmount decimal.Decimal
	MaxAmount decimal.Decimal
	Reference ReferenceRule
	Fee       FeeModel
}

// MethodCatalog is the registry of configured payment methods. It is loaded
// once at startup and shared read-only across all pipeline invocations.
type MethodCatalog struct {
	methods map[PaymentMethod]PaymentMethodConfig
}

func NewMethodCatalog(configs []PaymentMethodConfig) *MethodCatalog {
	methods := make(map[PaymentMethod]PaymentMethodConfig, len(configs))
	for _, cfg := range configs {
		methods[cfg.ID] = cfg
	}
	return &MethodCatalog{methods: methods}
}

// Lookup returns the config for a method and whether it is known at all.
func (c *MethodCatalog) Lookup(method PaymentMethod) (PaymentMethodConfig, bool) {
	cfg, ok := c.methods[method]
	return cfg, ok
}

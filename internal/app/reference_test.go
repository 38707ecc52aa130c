package app

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"property-finance-system/internal/core/domain"
)

func mpesaRule() domain.PaymentMethodConfig {
	return domain.PaymentMethodConfig{
		ID:    domain.MethodMpesa,
		Label: "M-PESA",
		Reference: domain.ReferenceRule{
			Required: true, Allowed: true,
			MinLength: 10, MaxLength: 10,
			Alphanumeric: true, Uppercase: true,
		},
	}
}

func TestValidateReference_Mpesa(t *testing.T) {
	cfg := mpesaRule()

	tests := []struct {
		name      string
		reference string
		wantMsg   string
	}{
		{"valid code", "QAB12CD34E", ""},
		{"valid with surrounding spaces", "  QAB12CD34E  ", ""},
		{"missing", "", "M-PESA payments require a transaction reference"},
		{"too short", "QAB12", "M-PESA reference must be at least 10 characters"},
		{"too long", "QAB12CD34EF", "M-PESA reference must be at most 10 characters"},
		{"punctuation", "QAB12-D34E", "M-PESA reference may contain letters and digits only"},
		{"lowercase", "qab12cd34e", "M-PESA reference must be uppercase"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMsg, ValidateReference(cfg, tt.reference))
		})
	}
}

func TestValidateReference_CashForbidsReference(t *testing.T) {
	cfg := domain.PaymentMethodConfig{
		ID:        domain.MethodCash,
		Label:     "Cash",
		Reference: domain.ReferenceRule{Required: false, Allowed: false},
	}

	assert.Empty(t, ValidateReference(cfg, ""))
	assert.Empty(t, ValidateReference(cfg, "   "))
	assert.Equal(t, "Cash payments must not include a transaction reference", ValidateReference(cfg, "RECEIPT-17"))
}

func TestValidateReference_BankTransferFreeForm(t *testing.T) {
	cfg := domain.PaymentMethodConfig{
		ID:        domain.MethodBankTransfer,
		Label:     "Bank Transfer",
		Reference: domain.ReferenceRule{Required: true, Allowed: true, MaxLength: 64},
	}

	assert.Empty(t, ValidateReference(cfg, "FT24081 / kcb-0042"))
	assert.Equal(t, "Bank Transfer payments require a transaction reference", ValidateReference(cfg, ""))
	assert.Equal(t, "Bank Transfer reference must be at most 64 characters", ValidateReference(cfg, strings.Repeat("A", 65)))
}

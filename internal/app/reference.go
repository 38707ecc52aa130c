package app

import (
	"fmt"
	"strings"
	"unicode"

	"property-finance-system/internal/core/domain"
)

// ValidateReference applies the method's reference rule to a submitted
// transaction reference. An empty string result means the reference is
// acceptable; otherwise a user-safe, method-specific message is returned.
func ValidateReference(cfg domain.PaymentMethodConfig, reference string) string {
	reference = strings.TrimSpace(reference)

	if reference == "" {
		if cfg.Reference.Required {
			return fmt.Sprintf("%s payments require a transaction reference", cfg.Label)
		}
		return ""
	}

	if !cfg.Reference.Allowed {
		return fmt.Sprintf("%s payments must not include a transaction reference", cfg.Label)
	}

	if cfg.Reference.MinLength > 0 && len(reference) < cfg.Reference.MinLength {
		return fmt.Sprintf("%s reference must be at least %d characters", cfg.Label, cfg.Reference.MinLength)
	}
	if cfg.Reference.MaxLength > 0 && len(reference) > cfg.Reference.MaxLength {
		return fmt.Sprintf("%s reference must be at most %d characters", cfg.Label, cfg.Reference.MaxLength)
	}

	if cfg.Reference.Alphanumeric {
		for _, r := range reference {
			if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
				return fmt.Sprintf("%s reference may contain letters and digits only", cfg.Label)
			}
		}
	}
	if cfg.Reference.Uppercase && reference != strings.ToUpper(reference) {
		return fmt.Sprintf("%s reference must be uppercase", cfg.Label)
	}

	return ""
}

package security

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"property-finance-system/internal/config"
	"property-finance-system/internal/core/domain"
)

// Assessor implements the SecurityAssessor port. The policy check runs on
// stateful Redis rules (velocity, amount thresholds); fraud scoring is
// delegated to an external service.
type Assessor struct {
	rdb       *redis.Client
	cfg       config.SecurityConfig
	client    *http.Client
	scorerURL string
	logger    *slog.Logger
}

// NewAssessor creates an assessor backed by Redis and the external scorer.
func NewAssessor(rdb *redis.Client, cfg config.SecurityConfig, scorerURL string, logger *slog.Logger) *Assessor {
	return &Assessor{
		rdb: rdb,
		cfg: cfg,
		// Timeout keeps a slow scorer from stalling the whole pipeline.
		client:    &http.Client{Timeout: 5 * time.Second},
		scorerURL: scorerURL,
		logger:    logger,
	}
}

// Assess runs the security policy rules. Warnings are advisory and survive
// into a successful result; blockers fail the payment outright.
func (a *Assessor) Assess(ctx context.Context, req domain.PaymentRequest, caller domain.CallerContext) (domain.SecurityAssessment, error) {
	assessment := domain.SecurityAssessment{IsSecure: true, RiskLevel: domain.RiskLow}

	// Rule 1: single-payment amount thresholds.
	blockAt := decimal.NewFromFloat(a.cfg.AmountBlockThreshold)
	warnAt := decimal.NewFromFloat(a.cfg.AmountWarnThreshold)
	if blockAt.IsPositive() && req.Amount.GreaterThan(blockAt) {
		assessment.IsSecure = false
		assessment.RiskLevel = domain.RiskHigh
		assessment.Blockers = append(assessment.Blockers,
			fmt.Sprintf("Amount exceeds the single-payment limit of KES %s", blockAt.StringFixed(0)))
	} else if warnAt.IsPositive() && req.Amount.GreaterThan(warnAt) {
		assessment.RiskLevel = domain.RiskMedium
		assessment.Warnings = append(assessment.Warnings, "Unusually large payment amount")
	}

	// Rule 2: submission velocity per tenant within a sliding window.
	key := fmt.Sprintf("tenant_submit_count:%s", req.TenantID)
	count, err := a.rdb.Incr(ctx, key).Result()
	if err != nil {
		return domain.SecurityAssessment{}, fmt.Errorf("redis INCR failed: %w", err)
	}
	if count == 1 {
		window := time.Duration(a.cfg.FrequencyWindowSeconds) * time.Second
		if err := a.rdb.Expire(ctx, key, window).Err(); err != nil {
			return domain.SecurityAssessment{}, fmt.Errorf("redis EXPIRE failed: %w", err)
		}
	}
	if count > int64(a.cfg.FrequencyThreshold) {
		assessment.IsSecure = false
		assessment.RiskLevel = domain.RiskHigh
		assessment.Blockers = append(assessment.Blockers,
			fmt.Sprintf("Too many payment submissions: %d in %d seconds", count, a.cfg.FrequencyWindowSeconds))
	} else if count == int64(a.cfg.FrequencyThreshold) {
		assessment.Warnings = append(assessment.Warnings, "Submission rate is approaching the limit")
		if assessment.RiskLevel == domain.RiskLow {
			assessment.RiskLevel = domain.RiskMedium
		}
	}

	return assessment, nil
}

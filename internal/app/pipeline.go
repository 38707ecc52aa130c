package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"property-finance-system/internal/core/domain"
	"property-finance-system/internal/core/ports"
	"property-finance-system/internal/observability"
)

const genericPaymentError = "An unexpected error occurred while processing the payment"

// pipeline is the implementation of the PaymentService port. Stages run
// strictly in order and short-circuit on the first failure; the caller
// always receives a well-formed PaymentResult, never an error or panic.
type pipeline struct {
	catalog  *domain.MethodCatalog
	assessor ports.SecurityAssessor
	tenants  ports.TenantDirectory
	ledger   ports.LedgerWriter
	guard    *DuplicateGuard
	notifier ports.NotificationDispatcher
	logger   *slog.Logger
}

// NewPaymentPipeline is the constructor of the payment service. It accepts
// all collaborators through interfaces (Dependency Injection).
func NewPaymentPipeline(
	catalog *domain.MethodCatalog,
	assessor ports.SecurityAssessor,
	tenants ports.TenantDirectory,
	ledger ports.LedgerWriter,
	notifier ports.NotificationDispatcher,
	logger *slog.Logger,
) ports.PaymentService {
	return &pipeline{
		catalog:  catalog,
		assessor: assessor,
		tenants:  tenants,
		ledger:   ledger,
		guard:    NewDuplicateGuard(ledger),
		notifier: notifier,
		logger:   logger,
	}
}

func (p *pipeline) ProcessPayment(ctx context.Context, req domain.PaymentRequest, caller domain.CallerContext) (result domain.PaymentResult) {
	// The pipeline boundary: a panicking collaborator must not escape to the
	// caller as anything other than a generic failed result.
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("panic during payment processing", "panic", r, "tenant_id", req.TenantID)
			result = failure(genericPaymentError, "panic")
		}
		observability.PaymentsProcessed.WithLabelValues(string(result.Status)).Inc()
	}()

	// Stage 1: security check.
	assessment, err := p.assessor.Assess(ctx, req, caller)
	if err != nil {
		p.logger.Error("security assessment failed", "error", err)
		return failure(genericPaymentError, "security")
	}
	if !assessment.IsSecure {
		res := failure(strings.Join(assessment.Blockers, "; "), "security")
		res.SecurityWarnings = assessment.Warnings
		res.RiskLevel = assessment.RiskLevel
		return res
	}

	// Stage 2: fraud detection. A fraudulent verdict always escalates the
	// risk level to HIGH, whatever stage 1 said.
	fraud, err := p.assessor.DetectFraud(ctx, req, caller)
	if err != nil {
		p.logger.Error("fraud detection failed", "error", err)
		return failure(genericPaymentError, "fraud")
	}
	if fraud.IsFraudulent {
		res := failure("Payment blocked due to fraud detection", "fraud")
		res.SecurityWarnings = fraud.Reasons
		res.RiskLevel = domain.RiskHigh
		res.RequiresManualReview = fraud.RequiresManualReview
		return res
	}

	// Stage 3: method existence and enablement.
	cfg, ok := p.catalog.Lookup(req.Method)
	if !ok || !cfg.IsEnabled {
		return failure("Selected payment method is not available", "method")
	}

	// Stage 4: amount bounds for the method.
	if req.Amount.LessThan(cfg.MinAmount) {
		return validationFailure(fmt.Sprintf("Minimum amount for %s is KES %s", cfg.Label, cfg.MinAmount.StringFixed(0)), "amount")
	}
	if req.Amount.GreaterThan(cfg.MaxAmount) {
		return validationFailure(fmt.Sprintf("Maximum amount for %s is KES %s", cfg.Label, cfg.MaxAmount.StringFixed(0)), "amount")
	}

	// Stages 5-6: reference format, then remaining schema validation.
	if msg := ValidateReference(cfg, req.Reference); msg != "" {
		return validationFailure(msg, "reference")
	}
	if msgs := ValidateSubmission(req); len(msgs) > 0 {
		res := failure(msgs[0], "schema")
		res.ValidationErrors = msgs
		return res
	}

	// Stage 7: tenant existence and state.
	tenant, err := p.tenants.FindTenant(ctx, req.TenantID)
	switch {
	case errors.Is(err, domain.ErrTenantNotFound):
		return failure("Tenant not found", "tenant")
	case err != nil:
		p.logger.Error("tenant lookup failed", "error", err, "tenant_id", req.TenantID)
		return failure(genericPaymentError, "tenant")
	case tenant.Status != domain.TenantActive:
		return failure("Cannot process payment for inactive tenant", "tenant")
	}

	// Stage 8: advisory duplicate pre-check.
	reference := strings.TrimSpace(req.Reference)
	dup, err := p.guard.IsDuplicate(ctx, reference, req.Method)
	if err != nil {
		p.logger.Error("duplicate check failed", "error", err)
		return failure(genericPaymentError, "duplicate")
	}
	if dup {
		return failure(duplicateMessage(reference), "duplicate")
	}

	// Stage 9: fee computation.
	fee := CalculateFee(cfg, req.Amount)
	totalAmount := req.Amount.Add(fee)

	// Stage 10: commit. The unique constraint on (reference, method) is the
	// real duplicate guard; a violation surfaces as the same named failure.
	meta := map[string]string{
		"payer_name": req.PayerName,
		"notes":      req.Notes,
		"user_id":    caller.UserID,
	}
	paymentID, err := p.ledger.ApplyPayment(ctx, req.TenantID, totalAmount, req.PaymentDate, req.Method, reference, meta)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateReference) {
			return failure(duplicateMessage(reference), "duplicate")
		}
		p.logger.Error("payment commit failed", "error", err, "tenant_id", req.TenantID)
		return failure(genericPaymentError, "commit")
	}

	// Stage 11: fire-and-forget confirmation. The payment result is already
	// final; dispatch outcome is observed only in the log.
	confirmation := domain.PaymentConfirmation{
		PaymentID:    paymentID,
		TenantID:     tenant.ID,
		TenantName:   tenant.FullName,
		PropertyName: tenant.PropertyName,
		Amount:       req.Amount,
		Fee:          fee,
		TotalAmount:  totalAmount,
		Method:       req.Method,
		Reference:    reference,
		PaymentDate:  req.PaymentDate,
		PayerContact: req.PayerContact,
		NotifyPayer:  req.NotifyPayer,
	}
	go func() {
		dispatchCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := p.notifier.SendPaymentConfirmation(dispatchCtx, confirmation); err != nil {
			p.logger.Warn("payment confirmation dispatch failed", "error", err, "payment_id", paymentID)
		}
	}()

	return domain.PaymentResult{
		Success:              true,
		PaymentID:            &paymentID,
		Status:               domain.StatusCompleted,
		SecurityWarnings:     assessment.Warnings,
		RequiresManualReview: fraud.RequiresManualReview,
		RiskLevel:            assessment.RiskLevel,
	}
}

func duplicateMessage(reference string) string {
	return fmt.Sprintf("A payment with reference %s has already been recorded", reference)
}

func failure(message, stage string) domain.PaymentResult {
	observability.PaymentStageFailures.WithLabelValues(stage).Inc()
	return domain.PaymentResult{
		Success: false,
		Status:  domain.StatusFailed,
		Error:   message,
	}
}

func validationFailure(message, stage string) domain.PaymentResult {
	res := failure(message, stage)
	res.ValidationErrors = []string{message}
	return res
}

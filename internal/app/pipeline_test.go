package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"property-finance-system/internal/core/domain"
)

// Mock - implementation of the security assessor
type MockAssessor struct {
	mock.Mock
}

func (m *MockAssessor) Assess(ctx context.Context, req domain.PaymentRequest, caller domain.CallerContext) (domain.SecurityAssessment, error) {
	args := m.Called(ctx, req, caller)
	return args.Get(0).(domain.SecurityAssessment), args.Error(1)
}

func (m *MockAssessor) DetectFraud(ctx context.Context, req domain.PaymentRequest, caller domain.CallerContext) (domain.FraudAssessment, error) {
	args := m.Called(ctx, req, caller)
	return args.Get(0).(domain.FraudAssessment), args.Error(1)
}

// Mock - implementation of the tenant directory
type MockTenants struct {
	mock.Mock
}

func (m *MockTenants) FindTenant(ctx context.Context, id uuid.UUID) (domain.Tenant, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Tenant), args.Error(1)
}

// Mock - implementation of the ledger writer
type MockLedger struct {
	mock.Mock
}

func (m *MockLedger) ApplyPayment(ctx context.Context, tenantID uuid.UUID, totalAmount decimal.Decimal, date time.Time, method domain.PaymentMethod, reference string, meta map[string]string) (uuid.UUID, error) {
	args := m.Called(ctx, tenantID, totalAmount, date, method, reference, meta)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockLedger) HasCommittedPayment(ctx context.Context, reference string, method domain.PaymentMethod) (bool, error) {
	args := m.Called(ctx, reference, method)
	return args.Bool(0), args.Error(1)
}

// Mock - implementation of the notification dispatcher
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) SendPaymentConfirmation(ctx context.Context, confirmation domain.PaymentConfirmation) error {
	args := m.Called(ctx, confirmation)
	return args.Error(0)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testCatalog() *domain.MethodCatalog {
	return domain.NewMethodCatalog([]domain.PaymentMethodConfig{
		{
			ID:        domain.MethodMpesa,
			Label:     "M-PESA",
			IsEnabled: true,
			MinAmount: decimal.NewFromInt(10),
			MaxAmount: decimal.NewFromInt(300000),
			Reference: domain.ReferenceRule{Required: true, Allowed: true, MinLength: 10, MaxLength: 10, Alphanumeric: true, Uppercase: true},
			Fee:       domain.FeeModel{Kind: domain.FeePercentage, Rate: decimal.NewFromFloat(2.5)},
		},
		{
			ID:        domain.MethodCash,
			Label:     "Cash",
			IsEnabled: true,
			MinAmount: decimal.NewFromInt(1),
			MaxAmount: decimal.NewFromInt(100000),
			Reference: domain.ReferenceRule{Required: false, Allowed: false},
			Fee:       domain.FeeModel{Kind: domain.FeeNone},
		},
		{
			ID:        domain.MethodCheque,
			Label:     "Cheque",
			IsEnabled: false,
			MinAmount: decimal.NewFromInt(500),
			MaxAmount: decimal.NewFromInt(10000000),
			Reference: domain.ReferenceRule{Required: true, Allowed: true, MaxLength: 64},
			Fee:       domain.FeeModel{Kind: domain.FeeFixed, Amount: decimal.NewFromInt(50)},
		},
	})
}

func cleanAssessment() domain.SecurityAssessment {
	return domain.SecurityAssessment{IsSecure: true, RiskLevel: domain.RiskLow}
}

func cleanFraud() domain.FraudAssessment {
	return domain.FraudAssessment{IsFraudulent: false, RiskScore: 5}
}

func activeTenant(id uuid.UUID) domain.Tenant {
	return domain.Tenant{
		ID:           id,
		FullName:     "Grace Wanjiru",
		Contact:      "+254712345678",
		PropertyName: "Riverside Apartments",
		UnitLabel:    "B4",
		Status:       domain.TenantActive,
	}
}

func mpesaRequest(tenantID uuid.UUID) domain.PaymentRequest {
	return domain.PaymentRequest{
		TenantID:    tenantID,
		Amount:      decimal.NewFromInt(10000),
		PaymentDate: time.Now().AddDate(0, 0, -1),
		Method:      domain.MethodMpesa,
		Reference:   "QAB12CD34E",
		PayerName:   "Grace Wanjiru",
	}
}

func newTestPipeline(assessor *MockAssessor, tenants *MockTenants, ledger *MockLedger, notifier *MockNotifier) *pipeline {
	return NewPaymentPipeline(testCatalog(), assessor, tenants, ledger, notifier, testLogger()).(*pipeline)
}

func TestPipeline_ProcessPayment_Success(t *testing.T) {
	// --- Arrange ---
	mockAssessor := new(MockAssessor)
	mockTenants := new(MockTenants)
	mockLedger := new(MockLedger)
	mockNotifier := new(MockNotifier)
	service := newTestPipeline(mockAssessor, mockTenants, mockLedger, mockNotifier)

	ctx := context.Background()
	tenantID := uuid.New()
	paymentID := uuid.New()
	req := mpesaRequest(tenantID)
	caller := domain.CallerContext{UserID: "manager", IPAddress: "10.0.0.1"}

	mockAssessor.On("Assess", ctx, req, caller).Return(cleanAssessment(), nil)
	mockAssessor.On("DetectFraud", ctx, req, caller).Return(cleanFraud(), nil)
	mockTenants.On("FindTenant", ctx, tenantID).Return(activeTenant(tenantID), nil)
	mockLedger.On("HasCommittedPayment", ctx, "QAB12CD34E", domain.MethodMpesa).Return(false, nil)
	// 10000 at 2.5% means a 250 fee, so the ledger must see 10250.
	mockLedger.On("ApplyPayment", ctx, tenantID, mock.MatchedBy(func(total decimal.Decimal) bool {
		return total.Equal(decimal.NewFromInt(10250))
	}), req.PaymentDate, domain.MethodMpesa, "QAB12CD34E", mock.Anything).Return(paymentID, nil)

	dispatched := make(chan domain.PaymentConfirmation, 1)
	mockNotifier.On("SendPaymentConfirmation", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		dispatched <- args.Get(1).(domain.PaymentConfirmation)
	}).Return(nil)

	// --- Act ---
	result := service.ProcessPayment(ctx, req, caller)

	// --- Assert ---
	assert.True(t, result.Success)
	assert.Equal(t, domain.StatusCompleted, result.Status)
	assert.NotNil(t, result.PaymentID)
	assert.Equal(t, paymentID, *result.PaymentID)
	assert.Empty(t, result.Error)

	// The confirmation is dispatched asynchronously after the result returns.
	select {
	case confirmation := <-dispatched:
		assert.Equal(t, paymentID, confirmation.PaymentID)
		assert.True(t, confirmation.Fee.Equal(decimal.NewFromInt(250)))
		assert.True(t, confirmation.TotalAmount.Equal(decimal.NewFromInt(10250)))
		assert.Equal(t, "Riverside Apartments", confirmation.PropertyName)
	case <-time.After(2 * time.Second):
		t.Fatal("confirmation was never dispatched")
	}

	mockAssessor.AssertExpectations(t)
	mockLedger.AssertExpectations(t)
}

func TestPipeline_ProcessPayment_CashWithoutReference(t *testing.T) {
	// --- Arrange ---
	mockAssessor := new(MockAssessor)
	mockTenants := new(MockTenants)
	mockLedger := new(MockLedger)
	mockNotifier := new(MockNotifier)
	service := newTestPipeline(mockAssessor, mockTenants, mockLedger, mockNotifier)

	ctx := context.Background()
	tenantID := uuid.New()
	req := domain.PaymentRequest{
		TenantID:    tenantID,
		Amount:      decimal.NewFromInt(5000),
		PaymentDate: time.Now(),
		Method:      domain.MethodCash,
	}
	caller := domain.CallerContext{UserID: "agent"}

	mockAssessor.On("Assess", ctx, req, caller).Return(cleanAssessment(), nil)
	mockAssessor.On("DetectFraud", ctx, req, caller).Return(cleanFraud(), nil)
	mockTenants.On("FindTenant", ctx, tenantID).Return(activeTenant(tenantID), nil)
	mockLedger.On("ApplyPayment", ctx, tenantID, mock.MatchedBy(func(total decimal.Decimal) bool {
		// Cash carries no fee: the committed total equals the submitted amount.
		return total.Equal(decimal.NewFromInt(5000))
	}), req.PaymentDate, domain.MethodCash, "", mock.Anything).Return(uuid.New(), nil)
	mockNotifier.On("SendPaymentConfirmation", mock.Anything, mock.Anything).Return(nil).Maybe()

	// --- Act ---
	result := service.ProcessPayment(ctx, req, caller)

	// --- Assert ---
	assert.True(t, result.Success)
	// An empty reference can never collide, so no pre-check round trip.
	mockLedger.AssertNotCalled(t, "HasCommittedPayment", mock.Anything, mock.Anything, mock.Anything)
	mockLedger.AssertExpectations(t)
}

func TestPipeline_ProcessPayment_CashRejectsReference(t *testing.T) {
	// --- Arrange ---
	mockAssessor := new(MockAssessor)
	mockTenants := new(MockTenants)
	mockLedger := new(MockLedger)
	mockNotifier := new(MockNotifier)
	service := newTestPipeline(mockAssessor, mockTenants, mockLedger, mockNotifier)

	ctx := context.Background()
	req := domain.PaymentRequest{
		TenantID:    uuid.New(),
		Amount:      decimal.NewFromInt(5000),
		PaymentDate: time.Now(),
		Method:      domain.MethodCash,
		Reference:   "RECEIPT-17",
	}
	caller := domain.CallerContext{}

	mockAssessor.On("Assess", ctx, req, caller).Return(cleanAssessment(), nil)
	mockAssessor.On("DetectFraud", ctx, req, caller).Return(cleanFraud(), nil)

	// --- Act ---
	result := service.ProcessPayment(ctx, req, caller)

	// --- Assert ---
	assert.False(t, result.Success)
	assert.Equal(t, domain.StatusFailed, result.Status)
	assert.Contains(t, result.Error, "must not include a transaction reference")
	mockTenants.AssertNotCalled(t, "FindTenant", mock.Anything, mock.Anything)
	mockLedger.AssertNotCalled(t, "ApplyPayment", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPipeline_ProcessPayment_DuplicatePreCheck(t *testing.T) {
	// --- Arrange ---
	mockAssessor := new(MockAssessor)
	mockTenants := new(MockTenants)
	mockLedger := new(MockLedger)
	mockNotifier := new(MockNotifier)
	service := newTestPipeline(mockAssessor, mockTenants, mockLedger, mockNotifier)

	ctx := context.Background()
	tenantID := uuid.New()
	req := mpesaRequest(tenantID)
	caller := domain.CallerContext{}

	mockAssessor.On("Assess", ctx, req, caller).Return(cleanAssessment(), nil)
	mockAssessor.On("DetectFraud", ctx, req, caller).Return(cleanFraud(), nil)
	mockTenants.On("FindTenant", ctx, tenantID).Return(activeTenant(tenantID), nil)
	mockLedger.On("HasCommittedPayment", ctx, "QAB12CD34E", domain.MethodMpesa).Return(true, nil)

	// --- Act ---
	result := service.ProcessPayment(ctx, req, caller)

	// --- Assert ---
	assert.False(t, result.Success)
	assert.Equal(t, "A payment with reference QAB12CD34E has already been recorded", result.Error)
	mockLedger.AssertNotCalled(t, "ApplyPayment", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPipeline_ProcessPayment_DuplicateAtCommit(t *testing.T) {
	// --- Arrange ---
	// The pre-check misses a concurrent insert; the unique constraint fires
	// at commit and the caller still gets the same duplicate message.
	mockAssessor := new(MockAssessor)
	mockTenants := new(MockTenants)
	mockLedger := new(MockLedger)
	mockNotifier := new(MockNotifier)
	service := newTestPipeline(mockAssessor, mockTenants, mockLedger, mockNotifier)

	ctx := context.Background()
	tenantID := uuid.New()
	req := mpesaRequest(tenantID)
	caller := domain.CallerContext{}

	mockAssessor.On("Assess", ctx, req, caller).Return(cleanAssessment(), nil)
	mockAssessor.On("DetectFraud", ctx, req, caller).Return(cleanFraud(), nil)
	mockTenants.On("FindTenant", ctx, tenantID).Return(activeTenant(tenantID), nil)
	mockLedger.On("HasCommittedPayment", ctx, "QAB12CD34E", domain.MethodMpesa).Return(false, nil)
	mockLedger.On("ApplyPayment", ctx, tenantID, mock.Anything, req.PaymentDate, domain.MethodMpesa, "QAB12CD34E", mock.Anything).
		Return(uuid.Nil, domain.ErrDuplicateReference)

	// --- Act ---
	result := service.ProcessPayment(ctx, req, caller)

	// --- Assert ---
	assert.False(t, result.Success)
	assert.Equal(t, "A payment with reference QAB12CD34E has already been recorded", result.Error)
	mockNotifier.AssertNotCalled(t, "SendPaymentConfirmation", mock.Anything, mock.Anything)
}

func TestPipeline_ProcessPayment_SecurityBlocked(t *testing.T) {
	// --- Arrange ---
	mockAssessor := new(MockAssessor)
	mockTenants := new(MockTenants)
	mockLedger := new(MockLedger)
	mockNotifier := new(MockNotifier)
	service := newTestPipeline(mockAssessor, mockTenants, mockLedger, mockNotifier)

	ctx := context.Background()
	req := mpesaRequest(uuid.New())
	caller := domain.CallerContext{}

	mockAssessor.On("Assess", ctx, req, caller).Return(domain.SecurityAssessment{
		IsSecure:  false,
		RiskLevel: domain.RiskHigh,
		Warnings:  []string{"Amount is unusually large"},
		Blockers:  []string{"Amount exceeds the processing limit"},
	}, nil)

	// --- Act ---
	result := service.ProcessPayment(ctx, req, caller)

	// --- Assert ---
	assert.False(t, result.Success)
	assert.Equal(t, "Amount exceeds the processing limit", result.Error)
	assert.Equal(t, domain.RiskHigh, result.RiskLevel)
	assert.Contains(t, result.SecurityWarnings, "Amount is unusually large")
	// Blocked submissions never reach the later stages.
	mockAssessor.AssertNotCalled(t, "DetectFraud", mock.Anything, mock.Anything, mock.Anything)
	mockTenants.AssertNotCalled(t, "FindTenant", mock.Anything, mock.Anything)
	mockLedger.AssertNotCalled(t, "ApplyPayment", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPipeline_ProcessPayment_FraudBlocked(t *testing.T) {
	// --- Arrange ---
	mockAssessor := new(MockAssessor)
	mockTenants := new(MockTenants)
	mockLedger := new(MockLedger)
	mockNotifier := new(MockNotifier)
	service := newTestPipeline(mockAssessor, mockTenants, mockLedger, mockNotifier)

	ctx := context.Background()
	req := mpesaRequest(uuid.New())
	caller := domain.CallerContext{}

	mockAssessor.On("Assess", ctx, req, caller).Return(cleanAssessment(), nil)
	mockAssessor.On("DetectFraud", ctx, req, caller).Return(domain.FraudAssessment{
		IsFraudulent:         true,
		RiskScore:            97,
		Reasons:              []string{"Velocity pattern matches known mule activity"},
		RequiresManualReview: true,
	}, nil)

	// --- Act ---
	result := service.ProcessPayment(ctx, req, caller)

	// --- Assert ---
	assert.False(t, result.Success)
	assert.Equal(t, "Payment blocked due to fraud detection", result.Error)
	assert.Equal(t, domain.RiskHigh, result.RiskLevel)
	assert.True(t, result.RequiresManualReview)
	mockTenants.AssertNotCalled(t, "FindTenant", mock.Anything, mock.Anything)
}

func TestPipeline_ProcessPayment_AmountBounds(t *testing.T) {
	// --- Arrange ---
	mockAssessor := new(MockAssessor)
	mockTenants := new(MockTenants)
	mockLedger := new(MockLedger)
	mockNotifier := new(MockNotifier)
	service := newTestPipeline(mockAssessor, mockTenants, mockLedger, mockNotifier)

	ctx := context.Background()
	caller := domain.CallerContext{}
	mockAssessor.On("Assess", ctx, mock.Anything, caller).Return(cleanAssessment(), nil)
	mockAssessor.On("DetectFraud", ctx, mock.Anything, caller).Return(cleanFraud(), nil)

	below := mpesaRequest(uuid.New())
	below.Amount = decimal.NewFromInt(5)
	above := mpesaRequest(uuid.New())
	above.Amount = decimal.NewFromInt(500000)

	// --- Act ---
	belowResult := service.ProcessPayment(ctx, below, caller)
	aboveResult := service.ProcessPayment(ctx, above, caller)

	// --- Assert ---
	assert.False(t, belowResult.Success)
	assert.Equal(t, "Minimum amount for M-PESA is KES 10", belowResult.Error)
	assert.Equal(t, []string{"Minimum amount for M-PESA is KES 10"}, belowResult.ValidationErrors)

	assert.False(t, aboveResult.Success)
	assert.Equal(t, "Maximum amount for M-PESA is KES 300000", aboveResult.Error)
	mockTenants.AssertNotCalled(t, "FindTenant", mock.Anything, mock.Anything)
}

func TestPipeline_ProcessPayment_DisabledMethod(t *testing.T) {
	// --- Arrange ---
	mockAssessor := new(MockAssessor)
	mockTenants := new(MockTenants)
	mockLedger := new(MockLedger)
	mockNotifier := new(MockNotifier)
	service := newTestPipeline(mockAssessor, mockTenants, mockLedger, mockNotifier)

	ctx := context.Background()
	caller := domain.CallerContext{}
	req := mpesaRequest(uuid.New())
	req.Method = domain.MethodCheque
	req.Reference = "CHQ-004411"

	mockAssessor.On("Assess", ctx, req, caller).Return(cleanAssessment(), nil)
	mockAssessor.On("DetectFraud", ctx, req, caller).Return(cleanFraud(), nil)

	// --- Act ---
	result := service.ProcessPayment(ctx, req, caller)

	// --- Assert ---
	assert.False(t, result.Success)
	assert.Equal(t, "Selected payment method is not available", result.Error)
}

func TestPipeline_ProcessPayment_TenantChecks(t *testing.T) {
	// --- Arrange ---
	mockAssessor := new(MockAssessor)
	mockTenants := new(MockTenants)
	mockLedger := new(MockLedger)
	mockNotifier := new(MockNotifier)
	service := newTestPipeline(mockAssessor, mockTenants, mockLedger, mockNotifier)

	ctx := context.Background()
	caller := domain.CallerContext{}
	mockAssessor.On("Assess", ctx, mock.Anything, caller).Return(cleanAssessment(), nil)
	mockAssessor.On("DetectFraud", ctx, mock.Anything, caller).Return(cleanFraud(), nil)

	missingID := uuid.New()
	missingReq := mpesaRequest(missingID)
	mockTenants.On("FindTenant", ctx, missingID).Return(domain.Tenant{}, domain.ErrTenantNotFound)

	evictedID := uuid.New()
	evictedReq := mpesaRequest(evictedID)
	evicted := activeTenant(evictedID)
	evicted.Status = domain.TenantEvicted
	mockTenants.On("FindTenant", ctx, evictedID).Return(evicted, nil)

	// --- Act ---
	missingResult := service.ProcessPayment(ctx, missingReq, caller)
	evictedResult := service.ProcessPayment(ctx, evictedReq, caller)

	// --- Assert ---
	assert.Equal(t, "Tenant not found", missingResult.Error)
	assert.Equal(t, "Cannot process payment for inactive tenant", evictedResult.Error)
	mockLedger.AssertNotCalled(t, "ApplyPayment", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPipeline_ProcessPayment_AssessorFailureIsGeneric(t *testing.T) {
	// --- Arrange ---
	mockAssessor := new(MockAssessor)
	mockTenants := new(MockTenants)
	mockLedger := new(MockLedger)
	mockNotifier := new(MockNotifier)
	service := newTestPipeline(mockAssessor, mockTenants, mockLedger, mockNotifier)

	ctx := context.Background()
	req := mpesaRequest(uuid.New())
	caller := domain.CallerContext{}
	mockAssessor.On("Assess", ctx, req, caller).
		Return(domain.SecurityAssessment{}, errors.New("redis: connection refused"))

	// --- Act ---
	result := service.ProcessPayment(ctx, req, caller)

	// --- Assert ---
	// Infrastructure detail must never leak into the caller-facing message.
	assert.False(t, result.Success)
	assert.Equal(t, "An unexpected error occurred while processing the payment", result.Error)
}

// panickyAssessor simulates a collaborator blowing up mid-pipeline.
type panickyAssessor struct{}

func (panickyAssessor) Assess(context.Context, domain.PaymentRequest, domain.CallerContext) (domain.SecurityAssessment, error) {
	panic("assessor exploded")
}

func (panickyAssessor) DetectFraud(context.Context, domain.PaymentRequest, domain.CallerContext) (domain.FraudAssessment, error) {
	return domain.FraudAssessment{}, nil
}

func TestPipeline_ProcessPayment_RecoversFromPanic(t *testing.T) {
	// --- Arrange ---
	service := NewPaymentPipeline(testCatalog(), panickyAssessor{}, new(MockTenants), new(MockLedger), new(MockNotifier), testLogger())

	// --- Act ---
	result := service.ProcessPayment(context.Background(), mpesaRequest(uuid.New()), domain.CallerContext{})

	// --- Assert ---
	assert.False(t, result.Success)
	assert.Equal(t, domain.StatusFailed, result.Status)
	assert.Equal(t, "An unexpected error occurred while processing the payment", result.Error)
}

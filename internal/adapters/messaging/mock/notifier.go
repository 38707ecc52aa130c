package mock

import (
	"context"
	"fmt"

	"property-finance-system/internal/core/domain"
)

// Notifier is a stub for the NotificationDispatcher port, for local runs
// without a broker.
type Notifier struct{}

func NewNotifier() *Notifier {
	return &Notifier{}
}

func (n *Notifier) Close() error {
	return nil
}

func (n *Notifier) SendPaymentConfirmation(ctx context.Context, c domain.PaymentConfirmation) error {
	fmt.Printf("📨 [MOCK] Payment confirmed: %s, tenant %s, KES %s via %s\n",
		c.PaymentID.String(), c.TenantName, c.TotalAmount.StringFixed(0), c.Method)
	return nil
}

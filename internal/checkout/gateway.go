package checkout

import (
	"context"
	"errors"
	"time"
)

var (
	ErrInvalidOrder  = errors.New("invalid order")
	ErrUnknownPromo  = errors.New("promo code not recognized")
	ErrNotConfigured = errors.New("payments are not configured")
	ErrSignature     = errors.New("invalid webhook signature")
)

// SessionRequest is everything a gateway needs to open a hosted checkout.
type SessionRequest struct {
	Order      Order
	Quote      Quote
	SuccessURL string
	CancelURL  string
}

// Gateway opens hosted checkout sessions with a payment processor.
type Gateway interface {
	CreateSession(ctx context.Context, req SessionRequest) (url string, err error)
}

// Completion is a verified, paid checkout reported by the processor.
type Completion struct {
	EventID     string
	SessionID   string
	CaseID      string
	AmountCents int64
	Currency    string
	Plan        string
	ServiceType string
	ProbateType string
	Paid        bool

	// SubscriptionID and Installments are set for the installment plan.
	SubscriptionID string
	Installments   int
}

// WebhookVerifier checks a webhook signature and extracts a completion.
// ok is false for event types that do not complete a checkout.
type WebhookVerifier interface {
	Verify(payload []byte, signature string) (c Completion, ok bool, err error)
}

// InstallmentScheduler ends an installment subscription once the given
// number of monthly payments has been billed.
type InstallmentScheduler interface {
	EndAfter(ctx context.Context, subscriptionID string, payments int) (time.Time, error)
}

package checkout

import (
	"context"
	"errors"
	"time"

	"probate-backend/internal/cases"
	"probate-backend/internal/shared/dedupe"
	"probate-backend/internal/shared/metrics"
	"probate-backend/internal/shared/telemetry"
)

const dedupeScope = "stripe_event"

// PaymentRecorder stores a completed payment on a case.
type PaymentRecorder interface {
	RecordPayment(ctx context.Context, caseID string, p cases.Payment) (cases.Case, error)
}

// Service creates checkout sessions and applies payment webhooks.
type Service struct {
	Gateway    Gateway
	Verifier   WebhookVerifier
	Payments   PaymentRecorder
	Dedupe     dedupe.Deduper
	Schedule   InstallmentScheduler
	SuccessURL string
	CancelURL  string
	Now        func() time.Time
}

// CreateSession validates and prices an order and returns the hosted
// checkout URL.
func (s *Service) CreateSession(ctx context.Context, order Order) (string, error) {
	order = order.Normalize()
	quote, err := Price(order)
	if err != nil {
		metrics.IncCheckoutSession("invalid")
		return "", err
	}
	if s.Gateway == nil {
		metrics.IncCheckoutSession("unconfigured")
		return "", ErrNotConfigured
	}

	url, err := s.Gateway.CreateSession(ctx, SessionRequest{
		Order:      order,
		Quote:      quote,
		SuccessURL: s.SuccessURL,
		CancelURL:  s.CancelURL,
	})
	if err != nil {
		if errors.Is(err, ErrUnknownPromo) {
			metrics.IncCheckoutSession("invalid_promo")
		} else {
			metrics.IncCheckoutSession("gateway_error")
		}
		return "", err
	}
	metrics.IncCheckoutSession("created")
	return url, nil
}

// HandleWebhook verifies a processor callback and activates the paid case.
// Each event is applied at most once; replays and unrelated events are
// acknowledged without changes.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	if s.Verifier == nil {
		return ErrNotConfigured
	}
	done, ok, err := s.Verifier.Verify(payload, signature)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	fields := map[string]any{
		"event_id":   done.EventID,
		"session_id": done.SessionID,
		"case_id":    done.CaseID,
		"request_id": telemetry.RequestIDFromContext(ctx),
	}
	if !done.Paid {
		telemetry.Info("checkout.webhook.unpaid", fields)
		return nil
	}
	if done.CaseID == "" {
		telemetry.Warn("checkout.webhook.missing_case", fields)
		return nil
	}
	if s.Dedupe != nil && !s.Dedupe.AcquireOnce(ctx, dedupeScope, done.EventID) {
		telemetry.Info("checkout.webhook.duplicate", fields)
		return nil
	}
	if err := s.apply(ctx, done, fields); err != nil {
		// Unclaim the event so the processor's retry applies it.
		if s.Dedupe != nil {
			s.Dedupe.Release(ctx, dedupeScope, done.EventID)
		}
		return err
	}
	telemetry.Info("checkout.webhook.applied", fields)
	return nil
}

// apply bounds an installment subscription and then records the payment.
// Both steps are safe to repeat.
func (s *Service) apply(ctx context.Context, done Completion, fields map[string]any) error {
	if done.Plan == PlanInstallments && done.SubscriptionID != "" {
		if s.Schedule == nil {
			return ErrNotConfigured
		}
		payments := done.Installments
		if payments <= 0 {
			payments = Installments
		}
		endsAt, err := s.Schedule.EndAfter(ctx, done.SubscriptionID, payments)
		if err != nil {
			return err
		}
		fields["subscription_id"] = done.SubscriptionID
		fields["subscription_ends"] = endsAt.Format(time.DateOnly)
	}

	paidAt := s.now()
	_, err := s.Payments.RecordPayment(ctx, done.CaseID, cases.Payment{
		Status:      cases.PaymentPaid,
		AmountCents: done.AmountCents,
		Currency:    done.Currency,
		Plan:        done.Plan,
		ServiceType: done.ServiceType,
		ProbateType: done.ProbateType,
		SessionID:   done.SessionID,
		PaidAt:      &paidAt,
	})
	return err
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

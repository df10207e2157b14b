package checkout

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"probate-backend/internal/cases"
	"probate-backend/internal/shared/dedupe"
)

type fakeGateway struct {
	mu    sync.Mutex
	calls []SessionRequest
	err   error
}

func (g *fakeGateway) CreateSession(ctx context.Context, req SessionRequest) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, req)
	if g.err != nil {
		return "", g.err
	}
	return "https://checkout.example.com/s/cs_test_1", nil
}

type fakeVerifier struct {
	done Completion
	ok   bool
	err  error
}

func (v fakeVerifier) Verify(payload []byte, signature string) (Completion, bool, error) {
	if signature == "bad" {
		return Completion{}, false, ErrSignature
	}
	return v.done, v.ok, v.err
}

type recordingPayments struct {
	mu       sync.Mutex
	payments map[string][]cases.Payment
	err      error
}

func (r *recordingPayments) RecordPayment(ctx context.Context, caseID string, p cases.Payment) (cases.Case, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return cases.Case{}, r.err
	}
	if r.payments == nil {
		r.payments = map[string][]cases.Payment{}
	}
	r.payments[caseID] = append(r.payments[caseID], p)
	return cases.Case{ID: caseID, Payment: p}, nil
}

func paidCompletion() Completion {
	return Completion{
		EventID:     "evt_1",
		SessionID:   "cs_test_1",
		CaseID:      "case-1",
		AmountCents: 499500,
		Currency:    "usd",
		Plan:        PlanFull,
		ServiceType: ServiceFullService,
		ProbateType: ProbateFull,
		Paid:        true,
	}
}

func TestCreateSessionValidatesBeforeGateway(t *testing.T) {
	gw := &fakeGateway{}
	svc := &Service{Gateway: gw}

	_, err := svc.CreateSession(context.Background(), Order{})
	require.ErrorIs(t, err, ErrInvalidOrder)
	assert.Empty(t, gw.calls)
}

func TestCreateSessionPassesQuoteAndURLs(t *testing.T) {
	gw := &fakeGateway{}
	svc := &Service{Gateway: gw, SuccessURL: "https://app.example.com/ok", CancelURL: "https://app.example.com/no"}

	url, err := svc.CreateSession(context.Background(), Order{
		ServiceType: ServiceFullService,
		PaymentPlan: PlanInstallments,
		CaseID:      "case-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.example.com/s/cs_test_1", url)
	require.Len(t, gw.calls, 1)
	assert.Equal(t, int64(166500), gw.calls[0].Quote.PerPaymentCents)
	assert.Equal(t, "https://app.example.com/ok", gw.calls[0].SuccessURL)
	assert.Equal(t, "case-1", gw.calls[0].Order.CaseID)
}

func TestCreateSessionWithoutGateway(t *testing.T) {
	svc := &Service{}
	_, err := svc.CreateSession(context.Background(), Order{ServiceType: ServiceDocumentPrep})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestHandleWebhookRecordsPaymentOnce(t *testing.T) {
	payments := &recordingPayments{}
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := &Service{
		Verifier: fakeVerifier{done: paidCompletion(), ok: true},
		Payments: payments,
		Dedupe:   dedupe.NewMemory(time.Hour),
		Now:      func() time.Time { return now },
	}

	require.NoError(t, svc.HandleWebhook(context.Background(), []byte("{}"), "sig"))
	require.NoError(t, svc.HandleWebhook(context.Background(), []byte("{}"), "sig"))

	got := payments.payments["case-1"]
	require.Len(t, got, 1)
	assert.Equal(t, cases.PaymentPaid, got[0].Status)
	assert.Equal(t, int64(499500), got[0].AmountCents)
	assert.Equal(t, "cs_test_1", got[0].SessionID)
	require.NotNil(t, got[0].PaidAt)
	assert.True(t, got[0].PaidAt.Equal(now))
}

func TestHandleWebhookIgnoresUnpaidAndOrphanEvents(t *testing.T) {
	unpaid := paidCompletion()
	unpaid.Paid = false
	orphan := paidCompletion()
	orphan.CaseID = ""

	for name, done := range map[string]Completion{"unpaid": unpaid, "orphan": orphan} {
		t.Run(name, func(t *testing.T) {
			payments := &recordingPayments{}
			svc := &Service{Verifier: fakeVerifier{done: done, ok: true}, Payments: payments}
			require.NoError(t, svc.HandleWebhook(context.Background(), nil, "sig"))
			assert.Empty(t, payments.payments)
		})
	}
}

func TestHandleWebhookErrors(t *testing.T) {
	svc := &Service{Verifier: fakeVerifier{ok: true}, Payments: &recordingPayments{}}
	assert.ErrorIs(t, svc.HandleWebhook(context.Background(), nil, "bad"), ErrSignature)

	svc = &Service{}
	assert.ErrorIs(t, svc.HandleWebhook(context.Background(), nil, "sig"), ErrNotConfigured)

	boom := errors.New("db down")
	svc = &Service{
		Verifier: fakeVerifier{done: paidCompletion(), ok: true},
		Payments: &recordingPayments{err: boom},
	}
	assert.ErrorIs(t, svc.HandleWebhook(context.Background(), nil, "sig"), boom)
}

type fakeScheduler struct {
	mu       sync.Mutex
	calls    []string
	payments []int
	err      error
}

func (f *fakeScheduler) EndAfter(ctx context.Context, subscriptionID string, payments int) (time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, subscriptionID)
	f.payments = append(f.payments, payments)
	if f.err != nil {
		return time.Time{}, f.err
	}
	return time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC), nil
}

func installmentCompletion() Completion {
	done := paidCompletion()
	done.Plan = PlanInstallments
	done.AmountCents = 166500
	done.SubscriptionID = "sub_1"
	done.Installments = Installments
	return done
}

func TestHandleWebhookRetriesAfterRecordFailure(t *testing.T) {
	boom := errors.New("db down")
	payments := &recordingPayments{err: boom}
	svc := &Service{
		Verifier: fakeVerifier{done: paidCompletion(), ok: true},
		Payments: payments,
		Dedupe:   dedupe.NewMemory(time.Hour),
	}

	require.ErrorIs(t, svc.HandleWebhook(context.Background(), nil, "sig"), boom)

	payments.err = nil
	require.NoError(t, svc.HandleWebhook(context.Background(), nil, "sig"))
	require.NoError(t, svc.HandleWebhook(context.Background(), nil, "sig"))
	assert.Len(t, payments.payments["case-1"], 1)
}

func TestHandleWebhookBoundsInstallmentSubscription(t *testing.T) {
	payments := &recordingPayments{}
	sched := &fakeScheduler{}
	svc := &Service{
		Verifier: fakeVerifier{done: installmentCompletion(), ok: true},
		Payments: payments,
		Schedule: sched,
		Dedupe:   dedupe.NewMemory(time.Hour),
	}

	require.NoError(t, svc.HandleWebhook(context.Background(), nil, "sig"))
	require.NoError(t, svc.HandleWebhook(context.Background(), nil, "sig"))

	assert.Equal(t, []string{"sub_1"}, sched.calls)
	assert.Equal(t, []int{3}, sched.payments)
	require.Len(t, payments.payments["case-1"], 1)
	assert.Equal(t, PlanInstallments, payments.payments["case-1"][0].Plan)
}

func TestHandleWebhookInstallmentDefaultsToPlanLength(t *testing.T) {
	done := installmentCompletion()
	done.Installments = 0
	sched := &fakeScheduler{}
	svc := &Service{
		Verifier: fakeVerifier{done: done, ok: true},
		Payments: &recordingPayments{},
		Schedule: sched,
	}

	require.NoError(t, svc.HandleWebhook(context.Background(), nil, "sig"))
	assert.Equal(t, []int{Installments}, sched.payments)
}

func TestHandleWebhookScheduleFailureLeavesEventRetryable(t *testing.T) {
	boom := errors.New("stripe: 500")
	payments := &recordingPayments{}
	sched := &fakeScheduler{err: boom}
	svc := &Service{
		Verifier: fakeVerifier{done: installmentCompletion(), ok: true},
		Payments: payments,
		Schedule: sched,
		Dedupe:   dedupe.NewMemory(time.Hour),
	}

	require.ErrorIs(t, svc.HandleWebhook(context.Background(), nil, "sig"), boom)
	assert.Empty(t, payments.payments)

	sched.err = nil
	require.NoError(t, svc.HandleWebhook(context.Background(), nil, "sig"))
	assert.Len(t, sched.calls, 2)
	assert.Len(t, payments.payments["case-1"], 1)
}

func TestHandleWebhookInstallmentWithoutScheduler(t *testing.T) {
	payments := &recordingPayments{}
	svc := &Service{
		Verifier: fakeVerifier{done: installmentCompletion(), ok: true},
		Payments: payments,
	}

	assert.ErrorIs(t, svc.HandleWebhook(context.Background(), nil, "sig"), ErrNotConfigured)
	assert.Empty(t, payments.payments)
}

func TestInstallmentCancelAt(t *testing.T) {
	tests := []struct {
		anchor time.Time
		want   time.Time
	}{
		{time.Date(2024, 6, 1, 15, 30, 0, 0, time.UTC), time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)},
		{time.Date(2024, 1, 31, 10, 0, 0, 0, time.UTC), time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC)},
		{time.Date(2024, 11, 15, 8, 0, 0, 0, time.UTC), time.Date(2025, 2, 15, 0, 0, 0, 0, time.UTC)},
	}
	for _, tc := range tests {
		got := installmentCancelAt(tc.anchor, Installments)
		assert.True(t, got.Equal(tc.want), "anchor %s: got %s", tc.anchor, got)
		// After the last paid invoice and before the next renewal would bill.
		assert.True(t, got.After(tc.anchor.AddDate(0, Installments-1, 0)))
		assert.False(t, got.After(tc.anchor.AddDate(0, Installments, 0)))
	}
}

package checkout

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
	"github.com/stripe/stripe-go/v79/webhook"

	"probate-backend/internal/deadlines"
)

const (
	metaCaseID      = "caseId"
	metaPlan        = "paymentPlan"
	metaService     = "serviceType"
	metaProbate     = "probateType"
	metaInstallment = "installments"
)

// StripeGateway creates Stripe Checkout sessions.
type StripeGateway struct {
	api *client.API
}

// NewStripeGateway builds a gateway for the given secret key.
func NewStripeGateway(secretKey string) *StripeGateway {
	return &StripeGateway{api: client.New(secretKey, nil)}
}

// CreateSession implements Gateway. The installment plan is a monthly
// subscription that EndAfter bounds once checkout completes; everything else
// is a one-time payment.
func (g *StripeGateway) CreateSession(ctx context.Context, req SessionRequest) (string, error) {
	params := &stripe.CheckoutSessionParams{
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
	}
	params.Context = ctx
	if req.Order.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.Order.CustomerEmail)
	}
	if req.Order.CaseID != "" {
		params.ClientReferenceID = stripe.String(req.Order.CaseID)
	}

	meta := map[string]string{
		metaCaseID:      req.Order.CaseID,
		metaPlan:        req.Order.PaymentPlan,
		metaService:     req.Order.ServiceType,
		metaProbate:     req.Order.ProbateType,
		metaInstallment: strconv.Itoa(req.Quote.Installments),
	}
	for k, v := range meta {
		params.AddMetadata(k, v)
	}

	if req.Order.PaymentPlan == PlanInstallments {
		params.Mode = stripe.String(string(stripe.CheckoutSessionModeSubscription))
		params.SubscriptionData = &stripe.CheckoutSessionSubscriptionDataParams{Metadata: meta}
		params.LineItems = []*stripe.CheckoutSessionLineItemParams{{
			Quantity: stripe.Int64(1),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(req.Quote.Currency),
				UnitAmount: stripe.Int64(req.Quote.PerPaymentCents),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(fmt.Sprintf("%s, %d monthly payments", req.Quote.Items[0].Name, req.Quote.Installments)),
				},
				Recurring: &stripe.CheckoutSessionLineItemPriceDataRecurringParams{
					Interval: stripe.String(string(stripe.PriceRecurringIntervalMonth)),
				},
			},
		}}
	} else {
		params.Mode = stripe.String(string(stripe.CheckoutSessionModePayment))
		params.PaymentIntentData = &stripe.CheckoutSessionPaymentIntentDataParams{Metadata: meta}
		for _, item := range req.Quote.Items {
			params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
				Quantity: stripe.Int64(1),
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(req.Quote.Currency),
					UnitAmount: stripe.Int64(item.AmountCents),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(item.Name),
					},
				},
			})
		}
	}

	if req.Order.PromoCode != "" {
		promoID, err := g.lookupPromo(ctx, req.Order.PromoCode)
		if err != nil {
			return "", err
		}
		params.Discounts = []*stripe.CheckoutSessionDiscountParams{{PromotionCode: stripe.String(promoID)}}
	}

	sess, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("create checkout session: %w", err)
	}
	return sess.URL, nil
}

func (g *StripeGateway) lookupPromo(ctx context.Context, code string) (string, error) {
	params := &stripe.PromotionCodeListParams{
		Code:   stripe.String(code),
		Active: stripe.Bool(true),
	}
	params.Context = ctx
	params.Limit = stripe.Int64(1)

	iter := g.api.PromotionCodes.List(params)
	if iter.Next() {
		return iter.PromotionCode().ID, nil
	}
	if err := iter.Err(); err != nil {
		return "", fmt.Errorf("lookup promo code: %w", err)
	}
	return "", ErrUnknownPromo
}

// EndAfter implements InstallmentScheduler. The subscription is set to
// cancel on the day its next renewal after the last payment would bill, so
// exactly payments invoices are charged. Repeated calls set the same date.
func (g *StripeGateway) EndAfter(ctx context.Context, subscriptionID string, payments int) (time.Time, error) {
	getParams := &stripe.SubscriptionParams{}
	getParams.Context = ctx
	sub, err := g.api.Subscriptions.Get(subscriptionID, getParams)
	if err != nil {
		return time.Time{}, fmt.Errorf("get subscription: %w", err)
	}

	at := installmentCancelAt(time.Unix(sub.BillingCycleAnchor, 0), payments)
	params := &stripe.SubscriptionParams{
		CancelAt:          stripe.Int64(at.Unix()),
		ProrationBehavior: stripe.String("none"),
	}
	params.Context = ctx
	if _, err := g.api.Subscriptions.Update(subscriptionID, params); err != nil {
		return time.Time{}, fmt.Errorf("schedule subscription end: %w", err)
	}
	return at, nil
}

// installmentCancelAt is the start of the UTC day on which the renewal after
// the last of payments monthly invoices would bill.
func installmentCancelAt(anchor time.Time, payments int) time.Time {
	return deadlines.AddMonths(anchor.UTC(), payments)
}

// StripeVerifier validates Stripe webhook signatures.
type StripeVerifier struct {
	Secret string
}

// Verify implements WebhookVerifier for checkout.session.completed events.
func (v StripeVerifier) Verify(payload []byte, signature string) (Completion, bool, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, v.Secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return Completion{}, false, fmt.Errorf("%w: %v", ErrSignature, err)
	}
	if event.Type != stripe.EventTypeCheckoutSessionCompleted {
		return Completion{}, false, nil
	}

	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return Completion{}, false, fmt.Errorf("decode checkout session: %w", err)
	}

	caseID := sess.Metadata[metaCaseID]
	if caseID == "" {
		caseID = sess.ClientReferenceID
	}
	var subscriptionID string
	if sess.Subscription != nil {
		subscriptionID = sess.Subscription.ID
	}
	installments, _ := strconv.Atoi(sess.Metadata[metaInstallment])
	return Completion{
		EventID:     event.ID,
		SessionID:   sess.ID,
		CaseID:      caseID,
		AmountCents: sess.AmountTotal,
		Currency:    string(sess.Currency),
		Plan:        sess.Metadata[metaPlan],
		ServiceType: sess.Metadata[metaService],
		ProbateType: sess.Metadata[metaProbate],
		Paid:        sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,

		SubscriptionID: subscriptionID,
		Installments:   installments,
	}, true, nil
}

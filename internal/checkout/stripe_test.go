package checkout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v79/webhook"
)

const testWebhookSecret = "whsec_test"

func signed(t *testing.T, payload string) ([]byte, string) {
	t.Helper()
	sp := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload: []byte(payload),
		Secret:  testWebhookSecret,
	})
	return sp.Payload, sp.Header
}

func TestStripeVerifierInstallmentCompletion(t *testing.T) {
	payload, sig := signed(t, `{
		"id": "evt_1",
		"object": "event",
		"type": "checkout.session.completed",
		"data": {"object": {
			"id": "cs_test_1",
			"object": "checkout.session",
			"amount_total": 166500,
			"currency": "usd",
			"payment_status": "paid",
			"subscription": "sub_1",
			"metadata": {"caseId": "case-1", "paymentPlan": "installments", "installments": "3"}
		}}
	}`)

	done, ok, err := StripeVerifier{Secret: testWebhookSecret}.Verify(payload, sig)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "evt_1", done.EventID)
	assert.Equal(t, "case-1", done.CaseID)
	assert.Equal(t, PlanInstallments, done.Plan)
	assert.Equal(t, "sub_1", done.SubscriptionID)
	assert.Equal(t, 3, done.Installments)
	assert.True(t, done.Paid)
}

func TestStripeVerifierRejectsBadSignature(t *testing.T) {
	payload, _ := signed(t, `{"id":"evt_1","object":"event","type":"checkout.session.completed","data":{"object":{}}}`)
	_, _, err := StripeVerifier{Secret: testWebhookSecret}.Verify(payload, "t=1,v1=deadbeef")
	assert.ErrorIs(t, err, ErrSignature)
}

func TestStripeVerifierIgnoresOtherEvents(t *testing.T) {
	payload, sig := signed(t, `{"id":"evt_2","object":"event","type":"invoice.paid","data":{"object":{"id":"in_1","object":"invoice"}}}`)
	_, ok, err := StripeVerifier{Secret: testWebhookSecret}.Verify(payload, sig)
	require.NoError(t, err)
	assert.False(t, ok)
}

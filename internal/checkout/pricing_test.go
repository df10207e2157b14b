package checkout

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriceFullServiceWithAddon(t *testing.T) {
	q, err := Price(Order{
		ServiceType:     ServiceFullService,
		AccountingAddon: true,
	}.Normalize())
	require.NoError(t, err)

	assert.Equal(t, int64(574500), q.TotalCents)
	assert.Len(t, q.Items, 2)
	assert.Equal(t, 1, q.Installments)
	assert.Equal(t, q.TotalCents, q.PerPaymentCents)
	assert.Equal(t, "usd", q.Currency)
}

func TestPriceInstallmentsRoundsUp(t *testing.T) {
	q, err := Price(Order{
		ServiceType: ServiceDocumentPrep,
		ProbateType: ProbateSimplified,
		PaymentPlan: PlanInstallments,
	}.Normalize())
	require.NoError(t, err)

	assert.Equal(t, int64(79500), q.TotalCents)
	assert.Equal(t, 3, q.Installments)
	assert.Equal(t, int64(26500), q.PerPaymentCents)

	q, err = Price(Order{
		ServiceType:     ServiceFullService,
		ProbateType:     ProbateSimplified,
		AccountingAddon: true,
		PaymentPlan:     PlanInstallments,
	}.Normalize())
	require.NoError(t, err)
	// 324500 / 3 = 108166.67
	assert.Equal(t, int64(108167), q.PerPaymentCents)
}

func TestValidateRejectsBadOrders(t *testing.T) {
	cases := []struct {
		name  string
		order Order
	}{
		{"missing service", Order{}},
		{"unknown service", Order{ServiceType: "concierge"}},
		{"unknown probate type", Order{ServiceType: ServiceFullService, ProbateType: "summary"}},
		{"unknown plan", Order{ServiceType: ServiceFullService, PaymentPlan: "weekly"}},
		{"bad email", Order{ServiceType: ServiceFullService, CustomerEmail: "not-an-email"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.order.Normalize().Validate()
			assert.True(t, errors.Is(err, ErrInvalidOrder), "got %v", err)
		})
	}
}

func TestNormalizeDefaultsAndPromo(t *testing.T) {
	o := Order{ServiceType: " full_service ", PromoCode: " spring10 "}.Normalize()
	assert.Equal(t, ServiceFullService, o.ServiceType)
	assert.Equal(t, ProbateFull, o.ProbateType)
	assert.Equal(t, PlanFull, o.PaymentPlan)
	assert.Equal(t, "SPRING10", o.PromoCode)
}

package checkout

import (
	"fmt"
	"net/mail"
	"strings"
)

const (
	ServiceFullService  = "full_service"
	ServiceDocumentPrep = "document_prep"

	ProbateFull       = "full"
	ProbateSimplified = "simplified"

	PlanFull         = "full"
	PlanInstallments = "installments"

	// Installments is the number of monthly payments on the installment plan.
	Installments = 3

	currency = "usd"
)

// Base prices in cents, by service type then probate type.
var basePrices = map[string]map[string]int64{
	ServiceFullService: {
		ProbateFull:       499500,
		ProbateSimplified: 249500,
	},
	ServiceDocumentPrep: {
		ProbateFull:       149500,
		ProbateSimplified: 79500,
	},
}

const accountingAddonCents int64 = 75000

var serviceNames = map[string]string{
	ServiceFullService:  "Full-Service Probate",
	ServiceDocumentPrep: "Probate Document Preparation",
}

// Order is a checkout request.
type Order struct {
	ServiceType     string `json:"serviceType"`
	ProbateType     string `json:"probateType"`
	AccountingAddon bool   `json:"accountingAddon"`
	PaymentPlan     string `json:"paymentPlan"`
	CustomerEmail   string `json:"customerEmail"`
	CaseID          string `json:"caseId"`
	PromoCode       string `json:"promoCode"`
}

// LineItem is one priced component of an order.
type LineItem struct {
	Name        string
	AmountCents int64
}

// Quote is the priced order. With the installment plan each payment is
// PerPaymentCents and the last one absorbs no remainder: the total is rounded
// up to a whole number of cents per installment.
type Quote struct {
	Items           []LineItem
	TotalCents      int64
	Installments    int
	PerPaymentCents int64
	Currency        string
}

// Normalize trims and defaults the order fields.
func (o Order) Normalize() Order {
	o.ServiceType = strings.TrimSpace(o.ServiceType)
	o.ProbateType = strings.TrimSpace(o.ProbateType)
	if o.ProbateType == "" {
		o.ProbateType = ProbateFull
	}
	o.PaymentPlan = strings.TrimSpace(o.PaymentPlan)
	if o.PaymentPlan == "" {
		o.PaymentPlan = PlanFull
	}
	o.CustomerEmail = strings.TrimSpace(o.CustomerEmail)
	o.CaseID = strings.TrimSpace(o.CaseID)
	o.PromoCode = strings.ToUpper(strings.TrimSpace(o.PromoCode))
	return o
}

// Validate checks an already normalized order without any network call.
func (o Order) Validate() error {
	if o.ServiceType == "" {
		return fmt.Errorf("%w: serviceType is required", ErrInvalidOrder)
	}
	prices, ok := basePrices[o.ServiceType]
	if !ok {
		return fmt.Errorf("%w: unknown serviceType %q", ErrInvalidOrder, o.ServiceType)
	}
	if _, ok := prices[o.ProbateType]; !ok {
		return fmt.Errorf("%w: unknown probateType %q", ErrInvalidOrder, o.ProbateType)
	}
	if o.PaymentPlan != PlanFull && o.PaymentPlan != PlanInstallments {
		return fmt.Errorf("%w: unknown paymentPlan %q", ErrInvalidOrder, o.PaymentPlan)
	}
	if o.CustomerEmail != "" {
		if addr, err := mail.ParseAddress(o.CustomerEmail); err != nil || addr.Address != o.CustomerEmail {
			return fmt.Errorf("%w: customerEmail is invalid", ErrInvalidOrder)
		}
	}
	return nil
}

// Price quotes a valid order.
func Price(o Order) (Quote, error) {
	if err := o.Validate(); err != nil {
		return Quote{}, err
	}
	base := basePrices[o.ServiceType][o.ProbateType]
	q := Quote{
		Items: []LineItem{{
			Name:        fmt.Sprintf("%s (%s probate)", serviceNames[o.ServiceType], o.ProbateType),
			AmountCents: base,
		}},
		TotalCents:   base,
		Installments: 1,
		Currency:     currency,
	}
	if o.AccountingAddon {
		q.Items = append(q.Items, LineItem{Name: "Estate Accounting", AmountCents: accountingAddonCents})
		q.TotalCents += accountingAddonCents
	}
	q.PerPaymentCents = q.TotalCents
	if o.PaymentPlan == PlanInstallments {
		q.Installments = Installments
		q.PerPaymentCents = (q.TotalCents + Installments - 1) / Installments
	}
	return q, nil
}

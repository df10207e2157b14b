package cases

import (
	"time"

	"probate-backend/internal/phases"
)

// Decedent describes the person whose estate is being probated.
type Decedent struct {
	FirstName   string `json:"firstName"`
	MiddleName  string `json:"middleName,omitempty"`
	LastName    string `json:"lastName"`
	DateOfBirth string `json:"dateOfBirth,omitempty"`
	DateOfDeath string `json:"dateOfDeath,omitempty"`
	County      string `json:"county,omitempty"`
	HasWill     bool   `json:"hasWill"`
}

// Petitioner is the person asking the court to administer the estate.
type Petitioner struct {
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Email        string `json:"email,omitempty"`
	Phone        string `json:"phone,omitempty"`
	Relationship string `json:"relationship,omitempty"`
}

// Court identifies the filing court.
type Court struct {
	County     string `json:"county,omitempty"`
	CaseNumber string `json:"caseNumber,omitempty"`
	Branch     string `json:"branch,omitempty"`
}

// Payment status values.
const (
	PaymentPending = "pending"
	PaymentPaid    = "paid"
)

// Payment is the case's payment sub-record.
type Payment struct {
	Status      string     `json:"status"`
	AmountCents int64      `json:"amountCents,omitempty"`
	Currency    string     `json:"currency,omitempty"`
	Plan        string     `json:"plan,omitempty"`
	ServiceType string     `json:"serviceType,omitempty"`
	ProbateType string     `json:"probateType,omitempty"`
	SessionID   string     `json:"sessionId,omitempty"`
	PaidAt      *time.Time `json:"paidAt,omitempty"`
}

// Case is one probate matter.
type Case struct {
	ID                string
	UserID            string
	Decedent          Decedent
	Petitioner        Petitioner
	Court             Court
	CurrentPhase      phases.Phase
	Status            phases.CaseStatus
	Phases            map[string]map[string]any
	AddOns            map[string]any
	Payment           Payment
	IntakeCompletedAt *time.Time
	Version           int64
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Clone returns a copy whose maps can be mutated without touching c.
func (c Case) Clone() Case {
	out := c
	out.Phases = make(map[string]map[string]any, len(c.Phases))
	for k, sub := range c.Phases {
		out.Phases[k] = cloneMap(sub)
	}
	out.AddOns = cloneMap(c.AddOns)
	if c.IntakeCompletedAt != nil {
		t := *c.IntakeCompletedAt
		out.IntakeCompletedAt = &t
	}
	if c.Payment.PaidAt != nil {
		t := *c.Payment.PaidAt
		out.Payment.PaidAt = &t
	}
	return out
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// ClosingChecklist lists the closing sub-record items that must all be true
// before a case can be completed.
var ClosingChecklist = []string{
	"receiptsFiled",
	"finalAccountApproved",
	"assetsDistributed",
	"dischargeFiled",
}

// MissingClosingItems returns the checklist items not yet marked true.
func (c Case) MissingClosingItems() []string {
	closing := c.Phases[phases.Closing.Key()]
	var missing []string
	for _, item := range ClosingChecklist {
		if v, ok := closing[item].(bool); !ok || !v {
			missing = append(missing, item)
		}
	}
	return missing
}

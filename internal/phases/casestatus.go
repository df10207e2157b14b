package phases

// CaseStatus is the lifecycle state of a whole case.
type CaseStatus string

const (
	CaseActive         CaseStatus = "active"
	CasePendingPayment CaseStatus = "pending_payment"
	CaseOnHold         CaseStatus = "on_hold"
	CaseCompleted      CaseStatus = "completed"
	CaseCancelled      CaseStatus = "cancelled"
)

// Valid reports whether s is a known case status.
func (s CaseStatus) Valid() bool {
	switch s {
	case CaseActive, CasePendingPayment, CaseOnHold, CaseCompleted, CaseCancelled:
		return true
	default:
		return false
	}
}

// Terminal reports whether no further phase work is expected.
func (s CaseStatus) Terminal() bool {
	return s == CaseCompleted || s == CaseCancelled
}

// Package actions picks the single next step a client should take on a case.
package actions

import (
	"time"

	"probate-backend/internal/phases"
)

// Priority ranks how pressing an action is.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
	PriorityInfo   Priority = "info"
)

// Action describes the next required step.
type Action struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Route       string   `json:"route"`
	Priority    Priority `json:"priority"`
}

// Input is the slice of case state the dispatcher looks at.
type Input struct {
	Status            phases.CaseStatus
	CurrentPhase      phases.Phase
	IntakeCompletedAt *time.Time
}

var (
	paymentAction = Action{
		Title:       "Complete Payment",
		Description: "Finish checkout so our attorneys can begin work on your case.",
		Route:       "/checkout",
		Priority:    PriorityHigh,
	}
	reviewAction = Action{
		Title:       "Under Attorney Review",
		Description: "Your intake has been received. An attorney is reviewing your case and will reach out with next steps.",
		Route:       "/dashboard",
		Priority:    PriorityInfo,
	}
)

var byPhase = map[phases.Phase]Action{
	phases.Intake: {
		Title:       "Complete Case Intake",
		Description: "Tell us about the decedent, heirs and estate assets.",
		Route:       "/intake",
		Priority:    PriorityHigh,
	},
	phases.Filing: {
		Title:       "Review & Sign Petition",
		Description: "Review the prepared petition and sign so it can be filed with the court.",
		Route:       "/phase/2",
		Priority:    PriorityHigh,
	},
	phases.Publication: {
		Title:       "Confirm Notice Publication",
		Description: "Record the newspaper publication dates for the notice of petition.",
		Route:       "/phase/3",
		Priority:    PriorityMedium,
	},
	phases.Bond: {
		Title:       "Arrange Probate Bond",
		Description: "Obtain the bond or confirm that bond has been waived.",
		Route:       "/phase/4",
		Priority:    PriorityMedium,
	},
	phases.Hearing: {
		Title:       "Prepare for Court Hearing",
		Description: "Confirm your hearing date and review what to expect.",
		Route:       "/phase/5",
		Priority:    PriorityHigh,
	},
	phases.Supplements: {
		Title:       "Respond to Examiner Notes",
		Description: "Review probate examiner notes and approve any supplements.",
		Route:       "/phase/6",
		Priority:    PriorityHigh,
	},
	phases.Letters: {
		Title:       "Record Letters Issued",
		Description: "Enter the date your letters were issued to start the creditor period.",
		Route:       "/phase/7",
		Priority:    PriorityMedium,
	},
	phases.Inventory: {
		Title:       "Complete Inventory & Appraisal",
		Description: "List estate assets and submit them for appraisal.",
		Route:       "/phase/8",
		Priority:    PriorityMedium,
	},
	phases.Creditors: {
		Title:       "Track Creditor Claims",
		Description: "Record any creditor claims received during the claims period.",
		Route:       "/phase/9",
		Priority:    PriorityLow,
	},
	phases.FinalPetition: {
		Title:       "Approve Final Petition",
		Description: "Review the petition for final distribution before it is filed.",
		Route:       "/phase/10",
		Priority:    PriorityHigh,
	},
	phases.Closing: {
		Title:       "Close the Estate",
		Description: "Distribute assets, file receipts and request discharge.",
		Route:       "/phase/11",
		Priority:    PriorityMedium,
	},
}

// Next returns the action for a case. A pending payment wins over
// everything; a submitted intake in phase 1 shows the review notice;
// otherwise the phase table decides.
func Next(in Input) Action {
	if in.Status == phases.CasePendingPayment {
		return paymentAction
	}
	current := phases.Clamp(in.CurrentPhase)
	if current == phases.Intake && in.IntakeCompletedAt != nil {
		return reviewAction
	}
	return byPhase[current]
}

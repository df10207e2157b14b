package cases

import (
	"time"

	"probate-backend/internal/actions"
	"probate-backend/internal/phases"
)

// CaseResponse is the outward-facing representation of a case.
type CaseResponse struct {
	CaseID            string                    `json:"caseId"`
	UserID            string                    `json:"userId"`
	Decedent          Decedent                  `json:"decedent"`
	Petitioner        Petitioner                `json:"petitioner"`
	Court             Court                     `json:"court"`
	CurrentPhase      int                       `json:"currentPhase"`
	Status            phases.CaseStatus         `json:"status"`
	Phases            map[string]map[string]any `json:"phases"`
	AddOns            map[string]any            `json:"addOns"`
	Payment           Payment                   `json:"payment"`
	IntakeCompletedAt *time.Time                `json:"intakeCompletedAt,omitempty"`
	Version           int64                     `json:"version"`
	CreatedAt         time.Time                 `json:"createdAt"`
	UpdatedAt         time.Time                 `json:"updatedAt"`
}

func toResponse(c Case) CaseResponse {
	p := c.Phases
	if p == nil {
		p = map[string]map[string]any{}
	}
	a := c.AddOns
	if a == nil {
		a = map[string]any{}
	}
	return CaseResponse{
		CaseID:            c.ID,
		UserID:            c.UserID,
		Decedent:          c.Decedent,
		Petitioner:        c.Petitioner,
		Court:             c.Court,
		CurrentPhase:      int(c.CurrentPhase),
		Status:            c.Status,
		Phases:            p,
		AddOns:            a,
		Payment:           c.Payment,
		IntakeCompletedAt: c.IntakeCompletedAt,
		Version:           c.Version,
		CreatedAt:         c.CreatedAt,
		UpdatedAt:         c.UpdatedAt,
	}
}

// DashboardResponse is the outward-facing dashboard.
type DashboardResponse struct {
	Case       CaseResponse         `json:"case"`
	Phases     []phases.PhaseStatus `json:"phases"`
	Progress   progressResponse     `json:"progress"`
	KeyDates   []DatedDeadline      `json:"keyDates"`
	NextAction actions.Action       `json:"nextAction"`
}

type progressResponse struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`
	Percent   int `json:"percent"`
}

func toDashboardResponse(d Dashboard) DashboardResponse {
	return DashboardResponse{
		Case:   toResponse(d.Case),
		Phases: d.Phases,
		Progress: progressResponse{
			Completed: d.Completed,
			Total:     len(d.Phases),
			Percent:   d.Percent,
		},
		KeyDates:   d.KeyDates,
		NextAction: d.NextAction,
	}
}

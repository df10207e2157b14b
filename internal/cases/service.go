package cases

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"probate-backend/internal/events"
	"probate-backend/internal/phases"
	"probate-backend/internal/shared/auth"
	"probate-backend/internal/shared/metrics"
	"probate-backend/internal/shared/telemetry"
)

// Service contains business logic for cases.
type Service struct {
	Repo   Repo
	Events events.Publisher
	Now    func() time.Time
}

// NewService constructs a Service.
func NewService(repo Repo, publisher events.Publisher) *Service {
	if publisher == nil {
		publisher = events.LogPublisher{}
	}
	return &Service{Repo: repo, Events: publisher, Now: time.Now}
}

// CreateInput is the submitted intake.
type CreateInput struct {
	Decedent   Decedent
	Petitioner Petitioner
	Court      Court
	Intake     map[string]any
	AddOns     map[string]any
}

// Create opens a case from a submitted intake. The case waits on payment in
// phase 1.
func (s *Service) Create(ctx context.Context, sess auth.Session, in CreateInput) (Case, error) {
	if sess.UserID == "" {
		return Case{}, ErrForbidden
	}
	in.Decedent.FirstName = strings.TrimSpace(in.Decedent.FirstName)
	in.Decedent.LastName = strings.TrimSpace(in.Decedent.LastName)
	if in.Decedent.FirstName == "" || in.Decedent.LastName == "" {
		return Case{}, fmt.Errorf("%w: decedent name is required", ErrInvalidInput)
	}

	now := s.now()
	intake := cloneMap(in.Intake)
	intake["submittedAt"] = now.Format(time.RFC3339)

	c := Case{
		ID:                uuid.NewString(),
		UserID:            sess.UserID,
		Decedent:          in.Decedent,
		Petitioner:        in.Petitioner,
		Court:             in.Court,
		CurrentPhase:      phases.Intake,
		Status:            phases.CasePendingPayment,
		Phases:            map[string]map[string]any{phases.Intake.Key(): intake},
		AddOns:            cloneMap(in.AddOns),
		Payment:           Payment{Status: PaymentPending},
		IntakeCompletedAt: &now,
		Version:           1,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.Repo.Create(ctx, c); err != nil {
		return Case{}, err
	}

	s.emit(ctx, events.CaseCreated, c, sess.UserID, nil)
	return c, nil
}

// Get returns a case the session may see.
func (s *Service) Get(ctx context.Context, sess auth.Session, caseID string) (Case, error) {
	c, err := s.Repo.GetByID(ctx, caseID)
	if err != nil {
		return Case{}, err
	}
	if !sess.CanAccess(c.UserID) {
		return Case{}, ErrForbidden
	}
	return c, nil
}

// List returns the session user's own cases.
func (s *Service) List(ctx context.Context, sess auth.Session) ([]Case, error) {
	if sess.UserID == "" {
		return nil, ErrForbidden
	}
	return s.Repo.ListByUser(ctx, sess.UserID)
}

// ListAll returns every case for admins.
func (s *Service) ListAll(ctx context.Context, sess auth.Session, filter ListFilter) ([]Case, error) {
	if !sess.IsAdmin() {
		return nil, ErrForbidden
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, filter.Status)
	}
	return s.Repo.ListAll(ctx, filter)
}

// UpdatePhase merges fields into one phase sub-record. The user-entered
// values, including a "complete" status flag, are trusted as given.
func (s *Service) UpdatePhase(ctx context.Context, sess auth.Session, caseID, phaseKey string, fields map[string]any, expectedVersion int64) (Case, error) {
	info, ok := phases.ByKey(phaseKey)
	if !ok {
		return Case{}, fmt.Errorf("%w: unknown phase %q", ErrInvalidInput, phaseKey)
	}
	if len(fields) == 0 {
		return Case{}, fmt.Errorf("%w: no fields to update", ErrInvalidInput)
	}
	if v, ok := fields["status"]; ok {
		if str, isStr := v.(string); !isStr || (str != phases.CompleteFlag && str != "in_progress" && str != "") {
			return Case{}, fmt.Errorf("%w: phase status must be %q or \"in_progress\"", ErrInvalidInput, phases.CompleteFlag)
		}
	}
	if _, err := s.Get(ctx, sess, caseID); err != nil {
		return Case{}, err
	}

	c, err := s.Repo.MergePhase(ctx, caseID, info.Key, fields, expectedVersion, s.now())
	if err != nil {
		return Case{}, s.noteConflict(err)
	}
	s.emit(ctx, events.CasePhaseUpdated, c, sess.UserID, func(e *events.Event) {
		e.Phase = int(info.Number)
		e.PhaseKey = info.Key
	})
	return c, nil
}

// Advance completes the current phase and moves to the next one, or to an
// explicit later phase. Moves backward, in place or past the last phase are
// rejected, as is any move while payment is pending.
func (s *Service) Advance(ctx context.Context, sess auth.Session, caseID string, to phases.Phase, expectedVersion int64) (Case, error) {
	c, err := s.Get(ctx, sess, caseID)
	if err != nil {
		return Case{}, err
	}
	if c.Status != phases.CaseActive {
		return Case{}, fmt.Errorf("%w: case is %s", ErrInvalidInput, c.Status)
	}
	if to == 0 {
		to = c.CurrentPhase + 1
	}
	if !phases.Valid(to) || to <= c.CurrentPhase {
		return Case{}, fmt.Errorf("%w: cannot move from phase %d to %d", ErrInvalidInput, c.CurrentPhase, to)
	}

	updated, err := s.Repo.Advance(ctx, caseID, c.CurrentPhase, to, expectedVersion, s.now())
	if err != nil {
		return Case{}, s.noteConflict(err)
	}
	metrics.IncPhaseAdvance(int(to))
	s.emit(ctx, events.CasePhaseAdvanced, updated, sess.UserID, func(e *events.Event) {
		e.Phase = int(to)
		e.PhaseKey = to.Key()
	})
	return updated, nil
}

// SetStatus changes the case lifecycle status. Admin only. Completing a case
// requires every closing checklist item.
func (s *Service) SetStatus(ctx context.Context, sess auth.Session, caseID string, status phases.CaseStatus, expectedVersion int64) (Case, error) {
	if !sess.IsAdmin() {
		return Case{}, ErrForbidden
	}
	if !status.Valid() {
		return Case{}, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
	}
	c, err := s.Repo.GetByID(ctx, caseID)
	if err != nil {
		return Case{}, err
	}
	if expectedVersion > 0 && c.Version != expectedVersion {
		return Case{}, s.noteConflict(ErrConflict)
	}
	if status == phases.CaseCompleted {
		if missing := c.MissingClosingItems(); len(missing) > 0 {
			return Case{}, &ChecklistError{Missing: missing}
		}
	}

	// Pin to the version the checklist was read at.
	updated, err := s.Repo.SetStatus(ctx, caseID, status, c.Version, s.now())
	if err != nil {
		return Case{}, s.noteConflict(err)
	}
	s.emit(ctx, events.CaseStatusChanged, updated, sess.UserID, nil)
	return updated, nil
}

// RecordPayment stores a completed payment and activates the case. It runs
// on behalf of the payment processor, not a user session.
func (s *Service) RecordPayment(ctx context.Context, caseID string, p Payment) (Case, error) {
	if strings.TrimSpace(caseID) == "" {
		return Case{}, fmt.Errorf("%w: case id is required", ErrInvalidInput)
	}
	c, err := s.Repo.RecordPayment(ctx, caseID, p, s.now())
	if err != nil {
		return Case{}, err
	}
	s.emit(ctx, events.PaymentReceived, c, "", nil)
	return c, nil
}

// ChecklistError reports closing items that still need to be done.
type ChecklistError struct {
	Missing []string
}

func (e *ChecklistError) Error() string {
	return "closing checklist incomplete: " + strings.Join(e.Missing, ", ")
}

func (e *ChecklistError) Unwrap() error { return ErrInvalidInput }

func (s *Service) noteConflict(err error) error {
	if errors.Is(err, ErrConflict) {
		metrics.IncWriteConflict()
	}
	return err
}

func (s *Service) emit(ctx context.Context, typ events.Type, c Case, actorID string, mutate func(*events.Event)) {
	e := events.Event{
		Type:       typ,
		CaseID:     c.ID,
		UserID:     c.UserID,
		ActorID:    actorID,
		Phase:      int(c.CurrentPhase),
		Status:     string(c.Status),
		RequestID:  telemetry.RequestIDFromContext(ctx),
		OccurredAt: s.now(),
		Version:    events.SchemaVersion,
	}
	if mutate != nil {
		mutate(&e)
	}
	events.Emit(ctx, s.Events, e)
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

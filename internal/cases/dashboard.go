package cases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"probate-backend/internal/actions"
	"probate-backend/internal/deadlines"
	"probate-backend/internal/phases"
	"probate-backend/internal/shared/auth"
)

// ErrTimeout is returned when the dashboard could not be loaded in time.
var ErrTimeout = errors.New("dashboard load timed out")

// DatedDeadline is a key date with its urgency relative to today.
type DatedDeadline struct {
	deadlines.KeyDate
	Urgency deadlines.Urgency `json:"urgency"`
}

// Dashboard is everything the client dashboard renders for one case.
type Dashboard struct {
	Case       Case
	Phases     []phases.PhaseStatus
	Completed  int
	Percent    int
	KeyDates   []DatedDeadline
	NextAction actions.Action
}

// BuildDashboard derives the dashboard view from a case. It is pure.
func BuildDashboard(c Case, today time.Time) Dashboard {
	statuses := phases.Resolve(c.CurrentPhase, c.Phases)
	completed, pct := phases.Progress(statuses)

	keyDates := deadlines.KeyDates(c.Phases)
	dated := make([]DatedDeadline, 0, len(keyDates))
	for _, kd := range keyDates {
		dated = append(dated, DatedDeadline{KeyDate: kd, Urgency: deadlines.Classify(kd.Date, today)})
	}

	return Dashboard{
		Case:      c,
		Phases:    statuses,
		Completed: completed,
		Percent:   pct,
		KeyDates:  dated,
		NextAction: actions.Next(actions.Input{
			Status:            c.Status,
			CurrentPhase:      c.CurrentPhase,
			IntakeCompletedAt: c.IntakeCompletedAt,
		}),
	}
}

// Dashboard loads a case and builds its dashboard within timeout. When the
// store is slower than timeout the call gives up with ErrTimeout.
func (s *Service) Dashboard(ctx context.Context, sess auth.Session, caseID string, timeout time.Duration) (Dashboard, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	c, err := s.Get(ctx, sess, caseID)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return Dashboard{}, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return Dashboard{}, err
	}
	return BuildDashboard(c, s.now()), nil
}

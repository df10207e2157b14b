package cases

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"probate-backend/internal/phases"
)

// PGRepo implements Repo using Postgres. Phase sub-records live in a jsonb
// column and are merged in place so concurrent writers to different phases
// never overwrite each other.
type PGRepo struct {
	DB *sql.DB
}

const caseColumns = `id, user_id, decedent, petitioner, court, current_phase, status, phases, add_ons, payment, intake_completed_at, version, created_at, updated_at`

// Create inserts a new case.
func (r *PGRepo) Create(ctx context.Context, c Case) error {
	const query = `
INSERT INTO cases (
    id,
    user_id,
    decedent,
    petitioner,
    court,
    current_phase,
    status,
    phases,
    add_ons,
    payment,
    intake_completed_at,
    version,
    created_at,
    updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	decedent, petitioner, court, phaseData, addOns, payment, err := encodeCase(c)
	if err != nil {
		return err
	}
	version := c.Version
	if version == 0 {
		version = 1
	}

	var intakeAt sql.NullTime
	if c.IntakeCompletedAt != nil {
		intakeAt = sql.NullTime{Time: *c.IntakeCompletedAt, Valid: true}
	}

	_, err = r.DB.ExecContext(
		ctx,
		query,
		c.ID,
		c.UserID,
		decedent,
		petitioner,
		court,
		int(c.CurrentPhase),
		string(c.Status),
		phaseData,
		addOns,
		payment,
		intakeAt,
		version,
		c.CreatedAt,
		c.UpdatedAt,
	)
	return err
}

// GetByID fetches a case by ID.
func (r *PGRepo) GetByID(ctx context.Context, caseID string) (Case, error) {
	query := `SELECT ` + caseColumns + `
FROM cases
WHERE id = $1 AND deleted_at IS NULL`
	c, err := scanCase(r.DB.QueryRowContext(ctx, query, caseID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Case{}, ErrNotFound
		}
		return Case{}, err
	}
	return c, nil
}

// ListByUser lists a user's cases newest-first.
func (r *PGRepo) ListByUser(ctx context.Context, userID string) ([]Case, error) {
	query := `SELECT ` + caseColumns + `
FROM cases
WHERE user_id = $1 AND deleted_at IS NULL
ORDER BY created_at DESC`
	return r.queryCases(ctx, query, userID)
}

// ListAll lists cases for the admin view, optionally filtered by status.
func (r *PGRepo) ListAll(ctx context.Context, filter ListFilter) ([]Case, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	query := `SELECT ` + caseColumns + `
FROM cases
WHERE deleted_at IS NULL AND ($1 = '' OR status = $1)
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`
	return r.queryCases(ctx, query, string(filter.Status), limit, offset)
}

// MergePhase merges fields into phases[phaseKey] with a single jsonb update.
func (r *PGRepo) MergePhase(ctx context.Context, caseID, phaseKey string, fields map[string]any, expectedVersion int64, now time.Time) (Case, error) {
	patch, err := json.Marshal(fields)
	if err != nil {
		return Case{}, fmt.Errorf("encode phase fields: %w", err)
	}
	query := `
UPDATE cases
SET phases = jsonb_set(phases, ARRAY[$2::text], COALESCE(phases -> ($2::text), '{}'::jsonb) || $3::jsonb, true),
    version = version + 1,
    updated_at = $5
WHERE id = $1 AND deleted_at IS NULL AND ($4::bigint <= 0 OR version = $4)
RETURNING ` + caseColumns
	return r.update(ctx, caseID, query, caseID, phaseKey, patch, expectedVersion, now)
}

// Advance marks the from phase complete and sets current_phase, guarded by
// both the current phase and the version.
func (r *PGRepo) Advance(ctx context.Context, caseID string, from, to phases.Phase, expectedVersion int64, now time.Time) (Case, error) {
	patch, err := json.Marshal(completionFields(now))
	if err != nil {
		return Case{}, err
	}
	query := `
UPDATE cases
SET phases = jsonb_set(phases, ARRAY[$3::text], COALESCE(phases -> ($3::text), '{}'::jsonb) || $4::jsonb, true),
    current_phase = $5,
    version = version + 1,
    updated_at = $7
WHERE id = $1 AND deleted_at IS NULL AND current_phase = $2 AND ($6::bigint <= 0 OR version = $6)
RETURNING ` + caseColumns
	return r.update(ctx, caseID, query, caseID, int(from), from.Key(), patch, int(to), expectedVersion, now)
}

// SetStatus replaces the case status.
func (r *PGRepo) SetStatus(ctx context.Context, caseID string, status phases.CaseStatus, expectedVersion int64, now time.Time) (Case, error) {
	query := `
UPDATE cases
SET status = $2,
    version = version + 1,
    updated_at = $4
WHERE id = $1 AND deleted_at IS NULL AND ($3::bigint <= 0 OR version = $3)
RETURNING ` + caseColumns
	return r.update(ctx, caseID, query, caseID, string(status), expectedVersion, now)
}

// RecordPayment stores the payment and activates a pending case.
func (r *PGRepo) RecordPayment(ctx context.Context, caseID string, p Payment, now time.Time) (Case, error) {
	payment, err := json.Marshal(p)
	if err != nil {
		return Case{}, fmt.Errorf("encode payment: %w", err)
	}
	query := `
UPDATE cases
SET payment = $2::jsonb,
    status = CASE WHEN status = 'pending_payment' THEN 'active' ELSE status END,
    version = version + 1,
    updated_at = $3
WHERE id = $1 AND deleted_at IS NULL
RETURNING ` + caseColumns
	return r.update(ctx, caseID, query, caseID, payment, now)
}

// update runs a guarded UPDATE ... RETURNING. When no row comes back it
// tells a missing case apart from a failed guard.
func (r *PGRepo) update(ctx context.Context, caseID, query string, args ...any) (Case, error) {
	c, err := scanCase(r.DB.QueryRowContext(ctx, query, args...))
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return Case{}, err
	}

	var exists bool
	if err := r.DB.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM cases WHERE id = $1 AND deleted_at IS NULL)`, caseID).Scan(&exists); err != nil {
		return Case{}, err
	}
	if !exists {
		return Case{}, ErrNotFound
	}
	return Case{}, ErrConflict
}

func (r *PGRepo) queryCases(ctx context.Context, query string, args ...any) ([]Case, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Case, 0)
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCase(row rowScanner) (Case, error) {
	var (
		c                                                    Case
		decedent, petitioner, court, phaseData, addOns, paid []byte
		currentPhase                                         int
		status                                               string
		intakeAt                                             sql.NullTime
	)
	if err := row.Scan(
		&c.ID,
		&c.UserID,
		&decedent,
		&petitioner,
		&court,
		&currentPhase,
		&status,
		&phaseData,
		&addOns,
		&paid,
		&intakeAt,
		&c.Version,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		return Case{}, err
	}

	c.CurrentPhase = phases.Clamp(phases.Phase(currentPhase))
	c.Status = phases.CaseStatus(status)
	if intakeAt.Valid {
		t := intakeAt.Time
		c.IntakeCompletedAt = &t
	}

	if err := decodeJSON(decedent, &c.Decedent); err != nil {
		return Case{}, fmt.Errorf("decode decedent: %w", err)
	}
	if err := decodeJSON(petitioner, &c.Petitioner); err != nil {
		return Case{}, fmt.Errorf("decode petitioner: %w", err)
	}
	if err := decodeJSON(court, &c.Court); err != nil {
		return Case{}, fmt.Errorf("decode court: %w", err)
	}
	if err := decodeJSON(paid, &c.Payment); err != nil {
		return Case{}, fmt.Errorf("decode payment: %w", err)
	}
	if err := decodeJSON(addOns, &c.AddOns); err != nil {
		return Case{}, fmt.Errorf("decode add_ons: %w", err)
	}
	c.Phases = decodePhases(phaseData)
	return c, nil
}

func decodeJSON(raw []byte, dest any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dest)
}

// decodePhases keeps every well-formed sub-record and skips the rest.
func decodePhases(raw []byte) map[string]map[string]any {
	out := map[string]map[string]any{}
	if len(raw) == 0 {
		return out
	}
	var loose map[string]json.RawMessage
	if err := json.Unmarshal(raw, &loose); err != nil {
		return out
	}
	for k, v := range loose {
		var sub map[string]any
		if err := json.Unmarshal(v, &sub); err == nil && sub != nil {
			out[k] = sub
		}
	}
	return out
}

func encodeCase(c Case) (decedent, petitioner, court, phaseData, addOns, payment []byte, err error) {
	if decedent, err = json.Marshal(c.Decedent); err != nil {
		return
	}
	if petitioner, err = json.Marshal(c.Petitioner); err != nil {
		return
	}
	if court, err = json.Marshal(c.Court); err != nil {
		return
	}
	p := c.Phases
	if p == nil {
		p = map[string]map[string]any{}
	}
	if phaseData, err = json.Marshal(p); err != nil {
		return
	}
	a := c.AddOns
	if a == nil {
		a = map[string]any{}
	}
	if addOns, err = json.Marshal(a); err != nil {
		return
	}
	payment, err = json.Marshal(c.Payment)
	return
}

var _ Repo = (*PGRepo)(nil)

package messages

import (
	"context"
	"database/sql"
	"errors"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const messageColumns = `id, case_id, sender_id, sender_name, is_admin, is_read, content, created_at`

// Create inserts a message.
func (r *PGRepo) Create(ctx context.Context, m Message) error {
	const query = `
INSERT INTO messages (
    id,
    case_id,
    sender_id,
    sender_name,
    is_admin,
    is_read,
    content,
    created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	var senderName sql.NullString
	if m.SenderName != "" {
		senderName = sql.NullString{String: m.SenderName, Valid: true}
	}
	_, err := r.DB.ExecContext(ctx, query, m.ID, m.CaseID, m.SenderID, senderName, m.IsAdmin, m.Read, m.Content, m.CreatedAt)
	return err
}

// GetByID fetches one message.
func (r *PGRepo) GetByID(ctx context.Context, id string) (Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE id = $1`
	m, err := scanMessage(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Message{}, ErrNotFound
		}
		return Message{}, err
	}
	return m, nil
}

// ListByCase returns a thread oldest first.
func (r *PGRepo) ListByCase(ctx context.Context, caseID string) ([]Message, error) {
	query := `SELECT ` + messageColumns + `
FROM messages
WHERE case_id = $1
ORDER BY created_at ASC, id ASC`
	rows, err := r.DB.QueryContext(ctx, query, caseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Message, 0)
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// MarkRead flags a message as read.
func (r *PGRepo) MarkRead(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE messages SET is_read = true WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// CountUnread implements Repo.
func (r *PGRepo) CountUnread(ctx context.Context, caseID string, fromAdmin bool) (int, error) {
	const query = `SELECT COUNT(*) FROM messages WHERE case_id = $1 AND is_admin = $2 AND is_read = false`
	var n int
	if err := r.DB.QueryRowContext(ctx, query, caseID, fromAdmin).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMessage(row rowScanner) (Message, error) {
	var (
		m          Message
		senderName sql.NullString
	)
	if err := row.Scan(&m.ID, &m.CaseID, &m.SenderID, &senderName, &m.IsAdmin, &m.Read, &m.Content, &m.CreatedAt); err != nil {
		return Message{}, err
	}
	m.SenderName = senderName.String
	return m, nil
}

var _ Repo = (*PGRepo)(nil)

package documents

import (
	"context"
	"database/sql"
	"errors"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const documentColumns = `id, user_id, case_id, scope, category, file_name, mime_type, size_bytes, storage_provider, storage_key, page_count, uploaded_by, created_at`

// Create inserts a new document.
func (r *PGRepo) Create(ctx context.Context, doc Document) error {
	const query = `
INSERT INTO documents (
    id,
    user_id,
    case_id,
    scope,
    category,
    file_name,
    mime_type,
    size_bytes,
    storage_provider,
    storage_key,
    page_count,
    uploaded_by,
    created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	var caseID sql.NullString
	if doc.CaseID != "" {
		caseID = sql.NullString{String: doc.CaseID, Valid: true}
	}
	var pageCount sql.NullInt64
	if doc.PageCount > 0 {
		pageCount = sql.NullInt64{Int64: int64(doc.PageCount), Valid: true}
	}
	provider := doc.StorageProvider
	if provider == "" {
		provider = "local"
	}

	_, err := r.DB.ExecContext(
		ctx,
		query,
		doc.ID,
		doc.UserID,
		caseID,
		string(doc.Scope),
		NormalizeCategory(doc.Category),
		doc.FileName,
		doc.MimeType,
		doc.SizeBytes,
		provider,
		doc.StorageKey,
		pageCount,
		doc.UploadedBy,
		doc.CreatedAt,
	)
	return err
}

// GetByID fetches a document by ID.
func (r *PGRepo) GetByID(ctx context.Context, id string) (Document, error) {
	query := `SELECT ` + documentColumns + `
FROM documents
WHERE id = $1`
	doc, err := scanDocument(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	return doc, nil
}

// ListByCase lists a case's documents newest-first.
func (r *PGRepo) ListByCase(ctx context.Context, caseID string) ([]Document, error) {
	query := `SELECT ` + documentColumns + `
FROM documents
WHERE case_id = $1 AND scope = 'case'
ORDER BY created_at DESC`
	return r.query(ctx, query, caseID)
}

// ListVault lists a user's vault documents newest-first.
func (r *PGRepo) ListVault(ctx context.Context, userID string) ([]Document, error) {
	query := `SELECT ` + documentColumns + `
FROM documents
WHERE user_id = $1 AND scope = 'vault'
ORDER BY created_at DESC`
	return r.query(ctx, query, userID)
}

// Delete removes a document row.
func (r *PGRepo) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
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

func (r *PGRepo) query(ctx context.Context, query string, args ...any) ([]Document, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Document, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (Document, error) {
	var (
		doc       Document
		caseID    sql.NullString
		scope     string
		pageCount sql.NullInt64
	)
	if err := row.Scan(
		&doc.ID,
		&doc.UserID,
		&caseID,
		&scope,
		&doc.Category,
		&doc.FileName,
		&doc.MimeType,
		&doc.SizeBytes,
		&doc.StorageProvider,
		&doc.StorageKey,
		&pageCount,
		&doc.UploadedBy,
		&doc.CreatedAt,
	); err != nil {
		return Document{}, err
	}
	doc.Scope = Scope(scope)
	if caseID.Valid {
		doc.CaseID = caseID.String
	}
	if pageCount.Valid {
		doc.PageCount = int(pageCount.Int64)
	}
	return doc, nil
}

var _ Repo = (*PGRepo)(nil)

package users

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"probate-backend/internal/shared/auth"
)

const uniqueViolation = "23505"

type PGRepo struct {
	DB *sql.DB
}

const userColumns = `id, email, full_name, picture_url, phone, role, password_hash, created_at, updated_at`

func (r *PGRepo) Create(ctx context.Context, user User) error {
	const query = `
INSERT INTO users (id, email, full_name, picture_url, phone, role, password_hash, created_at, updated_at)
VALUES ($1, lower($2), $3, $4, $5, $6, $7, now(), now())`
	_, err := r.DB.ExecContext(ctx, query,
		user.ID,
		user.Email,
		nullableString(user.FullName),
		nullableString(user.PictureURL),
		nullableString(user.Phone),
		string(roleOrClient(user.Role)),
		nullableString(user.PasswordHash),
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrEmailTaken
	}
	return err
}

func (r *PGRepo) Upsert(ctx context.Context, user User) error {
	const query = `
INSERT INTO users (id, email, full_name, picture_url, role, created_at, updated_at)
VALUES ($1, lower($2), $3, $4, $5, now(), now())
ON CONFLICT (id) DO UPDATE SET
  email = EXCLUDED.email,
  full_name = EXCLUDED.full_name,
  picture_url = EXCLUDED.picture_url,
  role = EXCLUDED.role,
  updated_at = now()`
	_, err := r.DB.ExecContext(ctx, query,
		user.ID,
		user.Email,
		nullableString(user.FullName),
		nullableString(user.PictureURL),
		string(roleOrClient(user.Role)),
	)
	return err
}

func (r *PGRepo) GetByID(ctx context.Context, userID string) (User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 LIMIT 1`
	return scanUser(r.DB.QueryRowContext(ctx, query, userID))
}

func (r *PGRepo) GetByEmail(ctx context.Context, email string) (User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = lower($1) LIMIT 1`
	return scanUser(r.DB.QueryRowContext(ctx, query, email))
}

func (r *PGRepo) UpdateProfile(ctx context.Context, userID, fullName, phone string) (User, error) {
	query := `
UPDATE users
SET full_name = $2, phone = $3, updated_at = now()
WHERE id = $1
RETURNING ` + userColumns
	return scanUser(r.DB.QueryRowContext(ctx, query, userID, nullableString(fullName), nullableString(phone)))
}

func scanUser(row *sql.Row) (User, error) {
	var (
		user                                      User
		fullName, pictureURL, phone, passwordHash sql.NullString
		role                                      string
	)
	err := row.Scan(
		&user.ID,
		&user.Email,
		&fullName,
		&pictureURL,
		&phone,
		&role,
		&passwordHash,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	user.FullName = fullName.String
	user.PictureURL = pictureURL.String
	user.Phone = phone.String
	user.PasswordHash = passwordHash.String
	user.Role = auth.Role(role)
	return user, nil
}

func roleOrClient(role auth.Role) auth.Role {
	if role == "" {
		return auth.RoleClient
	}
	return role
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

var _ Repo = (*PGRepo)(nil)

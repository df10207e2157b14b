package users

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"probate-backend/internal/shared/auth"
)

var userCols = []string{"id", "email", "full_name", "picture_url", "phone", "role", "password_hash", "created_at", "updated_at"}

func newMockRepo(t *testing.T) (*PGRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return &PGRepo{DB: db}, mock
}

func TestPGRepoCreateMapsUniqueViolation(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectExec("INSERT INTO users").
		WithArgs("u1", "Pat@Example.com", "Pat", nil, nil, "client", "hash").
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err := repo.Create(context.Background(), User{ID: "u1", Email: "Pat@Example.com", FullName: "Pat", PasswordHash: "hash"})
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetByEmailScansNullColumns(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now().UTC()
	mock.ExpectQuery("WHERE email = lower").
		WithArgs("ops@example.com").
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow("u2", "ops@example.com", nil, nil, nil, "admin", nil, now, now))

	u, err := repo.GetByEmail(context.Background(), "ops@example.com")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if u.Role != auth.RoleAdmin || u.FullName != "" || u.PasswordHash != "" {
		t.Fatalf("unexpected user %+v", u)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetByIDMissing(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery("WHERE id = ").WithArgs("nope").WillReturnRows(sqlmock.NewRows(userCols))

	if _, err := repo.GetByID(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGRepoUpdateProfileReturnsRow(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now().UTC()
	mock.ExpectQuery("UPDATE users").
		WithArgs("u1", "Pat Lee", nil).
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow("u1", "pat@example.com", "Pat Lee", nil, nil, "client", "hash", now, now))

	u, err := repo.UpdateProfile(context.Background(), "u1", "Pat Lee", "")
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if u.FullName != "Pat Lee" || u.Phone != "" {
		t.Fatalf("unexpected user %+v", u)
	}
}

package messages

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPGRepoListByCaseOldestFirst(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "case_id", "sender_id", "sender_name", "is_admin", "is_read", "content", "created_at"}).
		AddRow("m1", "case-1", "client-1", nil, false, false, "hi", now).
		AddRow("m2", "case-1", "system", "Case Team", true, true, "note", now.Add(time.Minute))
	mock.ExpectQuery("ORDER BY created_at ASC").WithArgs("case-1").WillReturnRows(rows)

	msgs, err := repo.ListByCase(context.Background(), "case-1")
	if err != nil {
		t.Fatalf("ListByCase: %v", err)
	}
	if len(msgs) != 2 || msgs[0].SenderName != "" || !msgs[1].Read {
		t.Fatalf("unexpected messages %+v", msgs)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoMarkReadMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	mock.ExpectExec("UPDATE messages SET is_read = true").WithArgs("m9").WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.MarkRead(context.Background(), "m9"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoCountUnread(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	mock.ExpectQuery("SELECT COUNT").WithArgs("case-1", true).WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	n, err := repo.CountUnread(context.Background(), "case-1", true)
	if err != nil || n != 3 {
		t.Fatalf("expected 3 unread, got %d (%v)", n, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

package messages

import "context"

// Repo defines persistence operations for case threads.
type Repo interface {
	Create(ctx context.Context, m Message) error
	GetByID(ctx context.Context, id string) (Message, error)
	ListByCase(ctx context.Context, caseID string) ([]Message, error)
	MarkRead(ctx context.Context, id string) error
	// CountUnread counts messages in caseID that were sent by the other side:
	// admin-authored messages when fromAdmin is true, client-authored ones
	// otherwise.
	CountUnread(ctx context.Context, caseID string, fromAdmin bool) (int, error)
}

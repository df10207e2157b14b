package messages

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"probate-backend/internal/cases"
	"probate-backend/internal/shared/auth"
)

const (
	maxContentRunes  = 5000
	systemSenderName = "Case Team"
)

// CaseReader resolves a case the session may see.
type CaseReader interface {
	Get(ctx context.Context, sess auth.Session, caseID string) (cases.Case, error)
}

// Service contains business logic for case threads.
type Service struct {
	Repo  Repo
	Cases CaseReader
	Now   func() time.Time
}

// NewService constructs a Service.
func NewService(repo Repo, caseReader CaseReader) *Service {
	return &Service{Repo: repo, Cases: caseReader, Now: time.Now}
}

// Send appends a message to a case thread on behalf of the session user.
func (s *Service) Send(ctx context.Context, sess auth.Session, caseID, content string) (Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return Message{}, fmt.Errorf("%w: content is required", ErrInvalidInput)
	}
	if utf8.RuneCountInString(content) > maxContentRunes {
		return Message{}, fmt.Errorf("%w: content exceeds %d characters", ErrInvalidInput, maxContentRunes)
	}
	if err := s.checkCase(ctx, sess, caseID); err != nil {
		return Message{}, err
	}

	name := sess.Name
	if name == "" {
		name = sess.Email
	}
	m := Message{
		ID:         uuid.NewString(),
		CaseID:     caseID,
		SenderID:   sess.UserID,
		SenderName: name,
		IsAdmin:    sess.IsAdmin(),
		Content:    content,
		CreatedAt:  s.now(),
	}
	if err := s.Repo.Create(ctx, m); err != nil {
		return Message{}, err
	}
	return m, nil
}

// PostSystem writes a platform note into a case thread. It is shown to the
// client as coming from the case team.
func (s *Service) PostSystem(ctx context.Context, caseID, content string) error {
	caseID = strings.TrimSpace(caseID)
	content = strings.TrimSpace(content)
	if caseID == "" || content == "" {
		return fmt.Errorf("%w: case id and content are required", ErrInvalidInput)
	}
	return s.Repo.Create(ctx, Message{
		ID:         uuid.NewString(),
		CaseID:     caseID,
		SenderID:   SystemSenderID,
		SenderName: systemSenderName,
		IsAdmin:    true,
		Content:    content,
		CreatedAt:  s.now(),
	})
}

// List returns a case thread oldest first.
func (s *Service) List(ctx context.Context, sess auth.Session, caseID string) ([]Message, error) {
	if err := s.checkCase(ctx, sess, caseID); err != nil {
		return nil, err
	}
	return s.Repo.ListByCase(ctx, caseID)
}

// MarkRead flags one message as read. Only messages from the other side of
// the thread can be marked.
func (s *Service) MarkRead(ctx context.Context, sess auth.Session, caseID, messageID string) error {
	if err := s.checkCase(ctx, sess, caseID); err != nil {
		return err
	}
	m, err := s.Repo.GetByID(ctx, messageID)
	if err != nil {
		return err
	}
	if m.CaseID != caseID {
		return ErrNotFound
	}
	if m.IsAdmin == sess.IsAdmin() {
		return fmt.Errorf("%w: cannot mark your own side's message as read", ErrInvalidInput)
	}
	if m.Read {
		return nil
	}
	return s.Repo.MarkRead(ctx, messageID)
}

// UnreadCount counts unread messages addressed to the session user's side.
func (s *Service) UnreadCount(ctx context.Context, sess auth.Session, caseID string) (int, error) {
	if err := s.checkCase(ctx, sess, caseID); err != nil {
		return 0, err
	}
	return s.Repo.CountUnread(ctx, caseID, !sess.IsAdmin())
}

func (s *Service) checkCase(ctx context.Context, sess auth.Session, caseID string) error {
	if sess.UserID == "" {
		return ErrForbidden
	}
	if strings.TrimSpace(caseID) == "" {
		return fmt.Errorf("%w: case id is required", ErrInvalidInput)
	}
	_, err := s.Cases.Get(ctx, sess, caseID)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, cases.ErrNotFound):
		return fmt.Errorf("%w: case %s", ErrNotFound, caseID)
	case errors.Is(err, cases.ErrForbidden):
		return ErrForbidden
	default:
		return err
	}
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

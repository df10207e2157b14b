package documents

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"probate-backend/internal/cases"
	"probate-backend/internal/events"
	"probate-backend/internal/extract"
	"probate-backend/internal/shared/auth"
	"probate-backend/internal/shared/storage/object"
	"probate-backend/internal/shared/telemetry"
	"probate-backend/internal/shared/util"
)

// MaxUploadBytes caps a single direct upload.
const MaxUploadBytes = 10 << 20

// CaseReader resolves a case the session may see.
type CaseReader interface {
	Get(ctx context.Context, sess auth.Session, caseID string) (cases.Case, error)
}

// Service contains business logic for documents.
type Service struct {
	Store    object.ObjectStore
	Provider string
	Repo     Repo
	Cases    CaseReader
	Events   events.Publisher
	Now      func() time.Time
}

// UploadInput describes where a new document is filed.
type UploadInput struct {
	Scope    Scope
	CaseID   string
	Category string
	FileName string
}

// Upload stores the file and records its metadata. Case documents are owned
// by the case owner even when an admin uploads them.
func (s *Service) Upload(ctx context.Context, sess auth.Session, in UploadInput, r io.Reader) (Document, error) {
	ownerID, err := s.resolveOwner(ctx, sess, &in)
	if err != nil {
		return Document{}, err
	}
	if _, err := util.SanitizeFileName(in.FileName); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	data, err := io.ReadAll(io.LimitReader(r, MaxUploadBytes+1))
	if err != nil {
		return Document{}, fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return Document{}, fmt.Errorf("%w: file is empty", ErrInvalidInput)
	}
	if len(data) > MaxUploadBytes {
		return Document{}, ErrTooLarge
	}

	storageKey, size, mimeType, err := s.Store.Save(ctx, ownerID, in.FileName, bytes.NewReader(data))
	if err != nil {
		return Document{}, err
	}
	info := extract.Inspect(data, mimeType, in.FileName)

	doc := Document{
		ID:              uuid.NewString(),
		UserID:          ownerID,
		CaseID:          in.CaseID,
		Scope:           in.Scope,
		Category:        NormalizeCategory(in.Category),
		FileName:        in.FileName,
		MimeType:        info.MimeType,
		SizeBytes:       size,
		StorageProvider: s.provider(),
		StorageKey:      storageKey,
		PageCount:       info.PageCount,
		UploadedBy:      sess.UserID,
		CreatedAt:       s.now(),
	}
	if err := s.Repo.Create(ctx, doc); err != nil {
		s.removeObject(ctx, storageKey)
		return Document{}, err
	}

	s.emitUploaded(ctx, doc, sess.UserID)
	return doc, nil
}

// RegisterInput describes a file the client already put in the uploads
// bucket through a presigned URL.
type RegisterInput struct {
	UploadInput
	StorageKey  string
	ContentType string
	SizeBytes   int64
}

// RegisterUploaded records metadata for a presigned upload. The key must sit
// under the owner's namespace.
func (s *Service) RegisterUploaded(ctx context.Context, sess auth.Session, in RegisterInput) (Document, error) {
	ownerID, err := s.resolveOwner(ctx, sess, &in.UploadInput)
	if err != nil {
		return Document{}, err
	}
	if in.StorageKey == "" || in.SizeBytes <= 0 || in.ContentType == "" {
		return Document{}, fmt.Errorf("%w: storage key, content type and size are required", ErrInvalidInput)
	}
	if !strings.Contains(in.StorageKey, "/"+sess.UserID+"/") && !strings.Contains(in.StorageKey, "/"+ownerID+"/") {
		return Document{}, ErrForbidden
	}

	doc := Document{
		ID:              uuid.NewString(),
		UserID:          ownerID,
		CaseID:          in.CaseID,
		Scope:           in.Scope,
		Category:        NormalizeCategory(in.Category),
		FileName:        in.FileName,
		MimeType:        in.ContentType,
		SizeBytes:       in.SizeBytes,
		StorageProvider: "s3",
		StorageKey:      in.StorageKey,
		UploadedBy:      sess.UserID,
		CreatedAt:       s.now(),
	}
	if err := s.Repo.Create(ctx, doc); err != nil {
		return Document{}, err
	}

	s.emitUploaded(ctx, doc, sess.UserID)
	return doc, nil
}

// ListByCase returns a case's documents.
func (s *Service) ListByCase(ctx context.Context, sess auth.Session, caseID string) ([]Document, error) {
	if _, err := s.caseFor(ctx, sess, caseID); err != nil {
		return nil, err
	}
	return s.Repo.ListByCase(ctx, caseID)
}

// ListVault returns the session user's vault.
func (s *Service) ListVault(ctx context.Context, sess auth.Session) ([]Document, error) {
	if sess.UserID == "" {
		return nil, ErrForbidden
	}
	return s.Repo.ListVault(ctx, sess.UserID)
}

// Open returns a document and a reader over its bytes. The caller closes the
// reader.
func (s *Service) Open(ctx context.Context, sess auth.Session, id string) (Document, io.ReadCloser, error) {
	doc, err := s.authorized(ctx, sess, id)
	if err != nil {
		return Document{}, nil, err
	}
	rc, err := s.Store.Open(ctx, doc.StorageKey)
	if err != nil {
		return Document{}, nil, err
	}
	return doc, rc, nil
}

// Delete removes a document. Removing the stored bytes is best effort; the
// metadata is deleted even when the object store fails.
func (s *Service) Delete(ctx context.Context, sess auth.Session, id string) error {
	doc, err := s.authorized(ctx, sess, id)
	if err != nil {
		return err
	}
	s.removeObject(ctx, doc.StorageKey)
	return s.Repo.Delete(ctx, id)
}

func (s *Service) authorized(ctx context.Context, sess auth.Session, id string) (Document, error) {
	doc, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return Document{}, err
	}
	if doc.Scope == ScopeCase {
		if _, err := s.caseFor(ctx, sess, doc.CaseID); err != nil {
			return Document{}, err
		}
		return doc, nil
	}
	if !sess.CanAccess(doc.UserID) {
		return Document{}, ErrForbidden
	}
	return doc, nil
}

// resolveOwner validates the scope and returns the user the document belongs
// to.
func (s *Service) resolveOwner(ctx context.Context, sess auth.Session, in *UploadInput) (string, error) {
	if sess.UserID == "" {
		return "", ErrForbidden
	}
	in.FileName = strings.TrimSpace(in.FileName)
	in.CaseID = strings.TrimSpace(in.CaseID)
	if in.FileName == "" {
		return "", fmt.Errorf("%w: file name is required", ErrInvalidInput)
	}
	if in.Scope == "" {
		in.Scope = ScopeVault
		if in.CaseID != "" {
			in.Scope = ScopeCase
		}
	}

	switch in.Scope {
	case ScopeVault:
		in.CaseID = ""
		return sess.UserID, nil
	case ScopeCase:
		c, err := s.caseFor(ctx, sess, in.CaseID)
		if err != nil {
			return "", err
		}
		return c.UserID, nil
	default:
		return "", fmt.Errorf("%w: unknown scope %q", ErrInvalidInput, in.Scope)
	}
}

func (s *Service) caseFor(ctx context.Context, sess auth.Session, caseID string) (cases.Case, error) {
	if caseID == "" {
		return cases.Case{}, fmt.Errorf("%w: case id is required", ErrInvalidInput)
	}
	c, err := s.Cases.Get(ctx, sess, caseID)
	switch {
	case err == nil:
		return c, nil
	case errors.Is(err, cases.ErrNotFound):
		return cases.Case{}, fmt.Errorf("%w: case %s", ErrNotFound, caseID)
	case errors.Is(err, cases.ErrForbidden):
		return cases.Case{}, ErrForbidden
	default:
		return cases.Case{}, err
	}
}

func (s *Service) removeObject(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.Store.Delete(ctx, key); err != nil {
		telemetry.Warn("documents.object_delete_failed", map[string]any{
			"storage_key": key,
			"err":         err.Error(),
			"request_id":  telemetry.RequestIDFromContext(ctx),
		})
	}
}

func (s *Service) emitUploaded(ctx context.Context, doc Document, actorID string) {
	if doc.Scope != ScopeCase || s.Events == nil {
		return
	}
	events.Emit(ctx, s.Events, events.Event{
		Type:       events.DocumentUploaded,
		CaseID:     doc.CaseID,
		UserID:     doc.UserID,
		ActorID:    actorID,
		Detail:     doc.FileName,
		RequestID:  telemetry.RequestIDFromContext(ctx),
		OccurredAt: s.now(),
		Version:    events.SchemaVersion,
	})
}

func (s *Service) provider() string {
	if s.Provider == "" {
		return "local"
	}
	return s.Provider
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

package events

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"probate-backend/internal/phases"
)

// MessageMeta captures details useful for logging and diagnostics.
type MessageMeta struct {
	BodyLen int
	BodySHA string
}

// ComputeMeta returns the body length and SHA-256 hash.
func ComputeMeta(body string) MessageMeta {
	if body == "" {
		return MessageMeta{}
	}
	sum := sha256.Sum256([]byte(body))
	return MessageMeta{BodyLen: len(body), BodySHA: hex.EncodeToString(sum[:])}
}

// ErrDecode indicates an empty or undecodable payload. Such messages can
// never succeed and should be dropped.
type ErrDecode struct {
	Meta MessageMeta
	Err  error
}

func (e ErrDecode) Error() string {
	if e.Err == nil {
		return "decode event"
	}
	return "decode event: " + e.Err.Error()
}

func (e ErrDecode) Unwrap() error { return e.Err }

// ErrMissingCaseID indicates an event without a case.
type ErrMissingCaseID struct {
	Meta      MessageMeta
	RequestID string
}

func (e ErrMissingCaseID) Error() string { return "missing case id" }

// Parse validates and decodes a queue payload.
func Parse(body string) (Event, MessageMeta, error) {
	meta := ComputeMeta(body)
	if strings.TrimSpace(body) == "" {
		return Event{}, meta, ErrDecode{Meta: meta, Err: fmt.Errorf("empty body")}
	}
	e, err := Decode([]byte(body))
	if err != nil {
		return Event{}, meta, ErrDecode{Meta: meta, Err: err}
	}
	if strings.TrimSpace(e.CaseID) == "" {
		return Event{}, meta, ErrMissingCaseID{Meta: meta, RequestID: e.RequestID}
	}
	return e, meta, nil
}

// ThreadWriter posts system notes onto a case's message thread.
type ThreadWriter interface {
	PostSystem(ctx context.Context, caseID, content string) error
}

// Processor turns lifecycle events into case thread notes.
type Processor struct {
	Thread ThreadWriter
}

// Handle parses body and applies it. Parse failures are returned unchanged
// so callers can tell poison messages from transient failures.
func (p *Processor) Handle(ctx context.Context, body string) (Event, error) {
	e, _, err := Parse(body)
	if err != nil {
		return Event{}, err
	}
	note := Describe(e)
	if note == "" {
		return e, nil
	}
	if err := p.Thread.PostSystem(ctx, e.CaseID, note); err != nil {
		return e, fmt.Errorf("post system message case=%s: %w", e.CaseID, err)
	}
	return e, nil
}

// Describe renders the client-facing note for an event, or "" when the
// event does not warrant one.
func Describe(e Event) string {
	switch e.Type {
	case CaseCreated:
		return "Your case has been created. Complete payment so our attorneys can begin."
	case PaymentReceived:
		return "Payment received. Your case is now active and under attorney review."
	case CasePhaseAdvanced:
		if info, ok := phases.Lookup(phases.Phase(e.Phase)); ok {
			return fmt.Sprintf("Your case moved to Phase %d: %s.", info.Number, info.Long)
		}
		return ""
	case CaseStatusChanged:
		switch phases.CaseStatus(e.Status) {
		case phases.CaseCompleted:
			return "Your estate has been closed. Thank you for trusting us with your case."
		case phases.CaseOnHold:
			return "Your case has been placed on hold. Your attorney will contact you."
		case phases.CaseCancelled:
			return "Your case has been cancelled."
		case phases.CaseActive:
			return "Your case is active."
		}
		return ""
	case DocumentUploaded:
		if e.Detail != "" {
			return "New document uploaded: " + e.Detail
		}
		return ""
	default:
		return ""
	}
}

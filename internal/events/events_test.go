package events

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

func TestEventRoundTrip(t *testing.T) {
	e := Event{
		Type:       CasePhaseAdvanced,
		CaseID:     "case-123",
		UserID:     "user-1",
		Phase:      5,
		RequestID:  "request-456",
		OccurredAt: time.Date(2026, 1, 30, 22, 0, 0, 0, time.UTC),
		Version:    1,
	}

	payload, err := Encode(e)
	if err != nil {
		t.Fatalf("encode event: %v", err)
	}
	got, err := Decode(payload)
	if err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if !reflect.DeepEqual(got, e) {
		t.Fatalf("round trip mismatch: got %+v want %+v", got, e)
	}
}

func TestParseRejectsPoisonMessages(t *testing.T) {
	var decodeErr ErrDecode
	if _, _, err := Parse("  "); !errors.As(err, &decodeErr) {
		t.Fatalf("expected ErrDecode for empty body, got %v", err)
	}
	if _, _, err := Parse("{not json"); !errors.As(err, &decodeErr) {
		t.Fatalf("expected ErrDecode for invalid json, got %v", err)
	}
	var missing ErrMissingCaseID
	if _, _, err := Parse(`{"type":"case.created","requestId":"r1"}`); !errors.As(err, &missing) || missing.RequestID != "r1" {
		t.Fatalf("expected ErrMissingCaseID, got %v", err)
	}
}

type fakeThread struct {
	posted map[string][]string
	err    error
}

func (f *fakeThread) PostSystem(ctx context.Context, caseID, content string) error {
	if f.err != nil {
		return f.err
	}
	if f.posted == nil {
		f.posted = map[string][]string{}
	}
	f.posted[caseID] = append(f.posted[caseID], content)
	return nil
}

func TestProcessorPostsNotes(t *testing.T) {
	thread := &fakeThread{}
	p := &Processor{Thread: thread}

	body, _ := Encode(Event{Type: CasePhaseAdvanced, CaseID: "c1", Phase: 7})
	if _, err := p.Handle(context.Background(), string(body)); err != nil {
		t.Fatalf("handle: %v", err)
	}
	body, _ = Encode(Event{Type: CasePhaseUpdated, CaseID: "c1", PhaseKey: "hearing"})
	if _, err := p.Handle(context.Background(), string(body)); err != nil {
		t.Fatalf("handle: %v", err)
	}

	if len(thread.posted["c1"]) != 1 {
		t.Fatalf("expected one note, got %v", thread.posted["c1"])
	}
	if thread.posted["c1"][0] != "Your case moved to Phase 7: Letters Issued." {
		t.Fatalf("unexpected note %q", thread.posted["c1"][0])
	}
}

func TestProcessorSurfacesThreadFailure(t *testing.T) {
	p := &Processor{Thread: &fakeThread{err: errors.New("db down")}}
	body, _ := Encode(Event{Type: PaymentReceived, CaseID: "c2"})
	if _, err := p.Handle(context.Background(), string(body)); err == nil {
		t.Fatal("expected error")
	}
}

type fakeSender struct {
	inputs []*sqs.SendMessageInput
}

func (f *fakeSender) SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.inputs = append(f.inputs, params)
	return &sqs.SendMessageOutput{}, nil
}

func TestSQSPublisherGroupsFIFOByCase(t *testing.T) {
	sender := &fakeSender{}
	p := &SQSPublisher{client: sender, queueURL: "https://sqs.example/123/events.fifo"}

	if err := p.Publish(context.Background(), Event{Type: CaseCreated, CaseID: "c9"}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(sender.inputs) != 1 || aws.ToString(sender.inputs[0].MessageGroupId) != "c9" {
		t.Fatalf("expected message group c9, got %+v", sender.inputs)
	}
	decoded, err := Decode([]byte(aws.ToString(sender.inputs[0].MessageBody)))
	if err != nil || decoded.Version != SchemaVersion {
		t.Fatalf("unexpected body %v %+v", err, decoded)
	}
}

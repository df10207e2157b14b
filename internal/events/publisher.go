package events

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"probate-backend/internal/shared/telemetry"
)

const defaultRegion = "us-east-1"

// Publisher sends lifecycle events to a backend.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// LogPublisher only logs events. It is used when no queue is configured.
type LogPublisher struct{}

// Publish implements Publisher.
func (LogPublisher) Publish(_ context.Context, e Event) error {
	telemetry.Info("event.published", map[string]any{
		"event_type": string(e.Type),
		"case_id":    e.CaseID,
		"phase":      e.Phase,
		"status":     e.Status,
		"request_id": e.RequestID,
		"sink":       "log",
	})
	return nil
}

type sqsSender interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// SQSPublisher sends events to AWS SQS.
type SQSPublisher struct {
	client   sqsSender
	queueURL string
}

// NewSQSPublisher constructs an SQS-backed publisher.
func NewSQSPublisher(ctx context.Context, region, queueURL string) (*SQSPublisher, error) {
	queueURL = strings.TrimSpace(queueURL)
	if queueURL == "" {
		return nil, fmt.Errorf("PROBATE_SQS_QUEUE_URL is required")
	}
	if strings.TrimSpace(region) == "" {
		region = defaultRegion
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &SQSPublisher{
		client:   sqs.NewFromConfig(cfg),
		queueURL: queueURL,
	}, nil
}

// Publish delivers an event to the configured SQS queue. Events for the
// same case share a message group so FIFO queues keep them ordered.
func (s *SQSPublisher) Publish(ctx context.Context, e Event) error {
	payload, err := Encode(e)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	in := &sqs.SendMessageInput{
		QueueUrl:    aws.String(s.queueURL),
		MessageBody: aws.String(string(payload)),
	}
	if strings.HasSuffix(s.queueURL, ".fifo") {
		in.MessageGroupId = aws.String(e.CaseID)
		in.MessageDeduplicationId = aws.String(ComputeMeta(string(payload)).BodySHA)
	}
	if _, err := s.client.SendMessage(ctx, in); err != nil {
		return fmt.Errorf("sqs send message: %w", err)
	}
	return nil
}

// Emit publishes e and logs instead of failing when the backend errors.
// Request paths use it so a queue outage never fails a user write.
func Emit(ctx context.Context, p Publisher, e Event) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, e); err != nil {
		telemetry.Warn("event.publish_failed", map[string]any{
			"event_type": string(e.Type),
			"case_id":    e.CaseID,
			"request_id": e.RequestID,
			"err":        err,
		})
	}
}

var (
	_ Publisher = LogPublisher{}
	_ Publisher = (*SQSPublisher)(nil)
)

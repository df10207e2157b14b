package main

// Build the Lambda handler binary:
//   GOOS=linux GOARCH=amd64 CGO_ENABLED=0 go build -o bootstrap ./cmd/lambda-worker

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"probate-backend/internal/bootstrap"
	caseevents "probate-backend/internal/events"
	"probate-backend/internal/shared/config"
	"probate-backend/internal/shared/metrics"
	"probate-backend/internal/shared/telemetry"
)

var (
	initOnce sync.Once
	initErr  error
	app      *bootstrap.App
)

func initApp() {
	cfg := config.Load()
	built, err := bootstrap.Build(cfg)
	if err != nil {
		initErr = err
		return
	}
	app = built
}

func handler(ctx context.Context, event events.SQSEvent) (events.SQSEventResponse, error) {
	initOnce.Do(initApp)
	if initErr != nil {
		log.Printf("bootstrap error: %v", initErr)
		failures := make([]events.SQSBatchItemFailure, 0, len(event.Records))
		for _, record := range event.Records {
			failures = append(failures, events.SQSBatchItemFailure{ItemIdentifier: record.MessageId})
		}
		return events.SQSEventResponse{BatchItemFailures: failures}, initErr
	}

	failures := make([]events.SQSBatchItemFailure, 0)
	for _, record := range event.Records {
		e, err := app.EventProcessor.Handle(ctx, record.Body)
		if err == nil {
			metrics.IncEventProcessed("completed")
			continue
		}
		fields := map[string]any{
			"sqs_message_id": record.MessageId,
			"case_id":        e.CaseID,
			"error":          err.Error(),
		}
		// Undecodable payloads never succeed; report them handled so the
		// batch is not redelivered forever.
		var decodeErr caseevents.ErrDecode
		var missingErr caseevents.ErrMissingCaseID
		if errors.As(err, &decodeErr) || errors.As(err, &missingErr) {
			telemetry.Error("worker.event.dropped", fields)
			metrics.IncEventProcessed("dropped")
			continue
		}
		telemetry.Error("worker.event.failed", fields)
		metrics.IncEventProcessed("failed")
		failures = append(failures, events.SQSBatchItemFailure{ItemIdentifier: record.MessageId})
	}

	return events.SQSEventResponse{BatchItemFailures: failures}, nil
}

func main() {
	lambda.Start(handler)
}

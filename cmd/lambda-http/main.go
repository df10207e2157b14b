package main

// Build the API Lambda binary:
//   GOOS=linux GOARCH=arm64 CGO_ENABLED=0 go build -o bootstrap ./cmd/lambda-http

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"

	"probate-backend/internal/bootstrap"
	"probate-backend/internal/shared/config"
	"probate-backend/internal/shared/server/respond"
	"probate-backend/internal/shared/telemetry"
)

// apiHandler builds the router on the first invocation and reuses it while
// the execution environment stays warm. A failed build is retried on the
// next invocation.
type apiHandler struct {
	build func() (*gin.Engine, error)

	mu      sync.Mutex
	adapter *ginadapter.GinLambdaV2
}

func (h *apiHandler) proxy(req events.APIGatewayV2HTTPRequest) (*ginadapter.GinLambdaV2, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.adapter != nil {
		return h.adapter, nil
	}
	router, err := h.build()
	if err != nil {
		return nil, err
	}
	h.adapter = ginadapter.NewV2(router)
	telemetry.Info("lambda.cold_start", map[string]any{"request_id": req.RequestContext.RequestID})
	return h.adapter, nil
}

func (h *apiHandler) Handle(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	adapter, err := h.proxy(req)
	if err != nil {
		telemetry.Error("lambda.bootstrap.failed", map[string]any{
			"request_id": req.RequestContext.RequestID,
			"err":        err,
		})
		return unavailable(), nil
	}
	return adapter.ProxyWithContext(ctx, req)
}

func unavailable() events.APIGatewayV2HTTPResponse {
	body, _ := json.Marshal(respond.ErrorResponse{Error: respond.ErrorBody{
		Code:    "unavailable",
		Message: "Service is starting up. Please try again.",
	}})
	return events.APIGatewayV2HTTPResponse{
		StatusCode: http.StatusServiceUnavailable,
		Body:       string(body),
		Headers: map[string]string{
			"Content-Type": "application/json",
			"Retry-After":  "1",
		},
	}
}

func buildRouter() (*gin.Engine, error) {
	app, err := bootstrap.Build(config.Load())
	if err != nil {
		return nil, err
	}
	return app.Router, nil
}

func main() {
	defer telemetry.Sync()
	h := &apiHandler{build: buildRouter}
	lambda.Start(h.Handle)
}

package forms

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"probate-backend/internal/extract"
	"probate-backend/internal/shared/metrics"
	"probate-backend/internal/shared/server/middleware"
	"probate-backend/internal/shared/server/respond"
	"probate-backend/internal/shared/telemetry"
)

const maxPayloadSize = 1 << 20

// Generator produces forms from a flattened payload.
type Generator interface {
	Generate(ctx context.Context, form FlatForm) (Result, error)
}

// Handler proxies generate-forms requests to the upstream service.
type Handler struct {
	Gen          Generator
	SupportPhone string
}

// NewHandler constructs a Handler.
func NewHandler(gen Generator, supportPhone string) *Handler {
	if supportPhone == "" {
		supportPhone = "(818) 291-6217"
	}
	return &Handler{Gen: gen, SupportPhone: supportPhone}
}

// RegisterRoutes mounts the serverless-compatible path with open CORS.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.Any("/generate-forms", middleware.OpenCORS(http.MethodPost), h.Generate)
}

// RegisterAPIRoutes mounts the versioned API path.
func (h *Handler) RegisterAPIRoutes(rg *gin.RouterGroup) {
	rg.POST("/forms/generate", h.Generate)
}

type envelope struct {
	ContentType     string `json:"contentType"`
	FileName        string `json:"fileName"`
	IsBase64Encoded bool   `json:"isBase64Encoded"`
	Body            string `json:"body"`
	PageCount       int    `json:"pageCount,omitempty"`
}

// Generate transforms the intake payload and relays the upstream result.
func (h *Handler) Generate(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxPayloadSize)

	var payload Payload
	if err := c.ShouldBindJSON(&payload); err != nil {
		metrics.IncFormsGenerated("invalid")
		respond.Message(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if payload.CaseID != "" {
		c.Set("caseId", payload.CaseID)
	}

	res, err := h.Gen.Generate(c.Request.Context(), Transform(payload))
	if err != nil {
		metrics.IncFormsGenerated("upstream_error")
		telemetry.Error("forms.generate.failed", map[string]any{
			"request_id": c.GetString("requestId"),
			"case_id":    payload.CaseID,
			"upstream":   errors.Is(err, ErrUpstream),
			"err":        err,
		})
		respond.Message(c, http.StatusInternalServerError, h.failureMessage())
		return
	}

	if res.Kind == KindJSON {
		metrics.IncFormsGenerated("json")
		c.Data(http.StatusOK, "application/json", res.Body)
		return
	}

	metrics.IncFormsGenerated(string(res.Kind))
	h.countPages(c, &res)

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", res.FileName))
	if res.PageCount > 0 {
		c.Header("X-Page-Count", strconv.Itoa(res.PageCount))
	}
	if c.Query("raw") == "1" {
		c.Data(http.StatusOK, res.ContentType, res.Body)
		return
	}
	respond.OK(c, envelope{
		ContentType:     res.ContentType,
		FileName:        res.FileName,
		IsBase64Encoded: true,
		Body:            base64.StdEncoding.EncodeToString(res.Body),
		PageCount:       res.PageCount,
	})
}

func (h *Handler) countPages(c *gin.Context, res *Result) {
	n, err := extract.PageCount(res.Body, res.ContentType)
	if err != nil {
		telemetry.Warn("forms.page_count.failed", map[string]any{
			"request_id":   c.GetString("requestId"),
			"content_type": res.ContentType,
			"err":          err,
		})
		return
	}
	res.PageCount = n
}

func (h *Handler) failureMessage() string {
	return "Unable to generate forms. Please call " + h.SupportPhone + " for assistance."
}

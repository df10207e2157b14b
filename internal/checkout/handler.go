package checkout

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"probate-backend/internal/cases"
	"probate-backend/internal/shared/server/middleware"
	"probate-backend/internal/shared/server/respond"
	"probate-backend/internal/shared/telemetry"
)

const maxWebhookBytes = 256 << 10

// Handler exposes checkout over HTTP.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes mounts the serverless-compatible path with open CORS.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.Any("/create-checkout-session", middleware.OpenCORS(http.MethodPost), h.CreateSession)
}

// RegisterAPIRoutes mounts the versioned API path.
func (h *Handler) RegisterAPIRoutes(rg *gin.RouterGroup) {
	rg.POST("/checkout/session", h.CreateSession)
}

// RegisterWebhookRoutes mounts the processor callback. It must sit outside
// session auth.
func (h *Handler) RegisterWebhookRoutes(rg *gin.RouterGroup) {
	rg.POST("/checkout/webhook", h.webhook)
}

// CreateSession returns {url} for a valid order or {error}.
func (h *Handler) CreateSession(c *gin.Context) {
	var order Order
	if err := c.ShouldBindJSON(&order); err != nil {
		respond.Message(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if order.CaseID != "" {
		c.Set("caseId", order.CaseID)
	}

	url, err := h.Svc.CreateSession(c.Request.Context(), order)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidOrder), errors.Is(err, ErrUnknownPromo):
			respond.Message(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrNotConfigured):
			respond.Message(c, http.StatusServiceUnavailable, err.Error())
		default:
			telemetry.Error("checkout.session.failed", map[string]any{
				"err":        err.Error(),
				"case_id":    order.CaseID,
				"request_id": c.GetString("requestId"),
			})
			respond.Message(c, http.StatusBadGateway, "Unable to start checkout. Please try again.")
		}
		return
	}
	respond.OK(c, gin.H{"url": url})
}

func (h *Handler) webhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBytes+1))
	if err != nil {
		respond.Message(c, http.StatusBadRequest, "unreadable body")
		return
	}
	if len(payload) > maxWebhookBytes {
		telemetry.Warn("checkout.webhook.too_large", map[string]any{
			"limit":      maxWebhookBytes,
			"request_id": c.GetString("requestId"),
		})
		respond.Message(c, http.StatusRequestEntityTooLarge, "event too large")
		return
	}

	err = h.Svc.HandleWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature"))
	switch {
	case err == nil:
		respond.OK(c, gin.H{"received": true})
	case errors.Is(err, ErrSignature):
		respond.Message(c, http.StatusBadRequest, "invalid signature")
	case errors.Is(err, ErrNotConfigured):
		respond.Message(c, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, cases.ErrNotFound):
		// Acknowledge so the processor stops retrying a case that is gone.
		telemetry.Warn("checkout.webhook.case_not_found", map[string]any{"request_id": c.GetString("requestId")})
		respond.OK(c, gin.H{"received": true})
	default:
		telemetry.Error("checkout.webhook.failed", map[string]any{
			"err":        err.Error(),
			"request_id": c.GetString("requestId"),
		})
		respond.Message(c, http.StatusInternalServerError, "failed to process event")
	}
}

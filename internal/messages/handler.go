package messages

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"probate-backend/internal/shared/server/middleware"
	"probate-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches thread routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/cases/:id/messages", h.list)
	rg.POST("/cases/:id/messages", h.send)
	rg.GET("/cases/:id/messages/unread", h.unread)
	rg.POST("/cases/:id/messages/:messageId/read", h.markRead)
}

// MessageResponse is the outward-facing representation of a message.
type MessageResponse struct {
	MessageID  string    `json:"messageId"`
	CaseID     string    `json:"caseId"`
	SenderID   string    `json:"senderId"`
	SenderName string    `json:"senderName"`
	IsAdmin    bool      `json:"isAdmin"`
	Read       bool      `json:"read"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"createdAt"`
}

func toResponse(m Message) MessageResponse {
	return MessageResponse{
		MessageID:  m.ID,
		CaseID:     m.CaseID,
		SenderID:   m.SenderID,
		SenderName: m.SenderName,
		IsAdmin:    m.IsAdmin,
		Read:       m.Read,
		Content:    m.Content,
		CreatedAt:  m.CreatedAt,
	}
}

func (h *Handler) list(c *gin.Context) {
	sess, _ := middleware.SessionFromContext(c)
	caseID := c.Param("id")
	c.Set("caseId", caseID)

	msgs, err := h.Svc.List(c.Request.Context(), sess, caseID)
	if err != nil {
		writeError(c, err, "failed to list messages")
		return
	}
	resp := make([]MessageResponse, 0, len(msgs))
	for _, m := range msgs {
		resp = append(resp, toResponse(m))
	}
	respond.Cached(c, resp)
}

type sendRequest struct {
	Content string `json:"content"`
}

func (h *Handler) send(c *gin.Context) {
	sess, _ := middleware.SessionFromContext(c)
	caseID := c.Param("id")
	c.Set("caseId", caseID)

	var req sendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	m, err := h.Svc.Send(c.Request.Context(), sess, caseID, req.Content)
	if err != nil {
		writeError(c, err, "failed to send message")
		return
	}
	respond.Created(c, toResponse(m))
}

func (h *Handler) unread(c *gin.Context) {
	sess, _ := middleware.SessionFromContext(c)
	caseID := c.Param("id")
	c.Set("caseId", caseID)

	n, err := h.Svc.UnreadCount(c.Request.Context(), sess, caseID)
	if err != nil {
		writeError(c, err, "failed to count messages")
		return
	}
	respond.Cached(c, gin.H{"unread": n})
}

func (h *Handler) markRead(c *gin.Context) {
	sess, _ := middleware.SessionFromContext(c)
	caseID := c.Param("id")
	c.Set("caseId", caseID)

	if err := h.Svc.MarkRead(c.Request.Context(), sess, caseID, c.Param("messageId")); err != nil {
		writeError(c, err, "failed to update message")
		return
	}
	respond.NoContent(c)
}

func writeError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "not found", nil)
	case errors.Is(err, ErrForbidden):
		respond.Error(c, http.StatusForbidden, "forbidden", "you do not have access to this case", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", fallback, nil)
	}
}

package documents

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"probate-backend/internal/shared/server/middleware"
	"probate-backend/internal/shared/server/respond"
	"probate-backend/internal/shared/telemetry"
	"probate-backend/internal/shared/util"
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc     *Service
	Presign URLPresigner
}

// NewHandler constructs a Handler. presign may be nil when direct-to-S3
// uploads are not configured.
func NewHandler(svc *Service, presign URLPresigner) *Handler {
	return &Handler{Svc: svc, Presign: presign}
}

// RegisterRoutes attaches document routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/cases/:id/documents", h.uploadCase)
	rg.GET("/cases/:id/documents", h.listCase)
	rg.POST("/vault/documents", h.uploadVault)
	rg.GET("/vault/documents", h.listVault)
	rg.POST("/documents/from-s3", h.createFromS3)
	rg.GET("/documents/:docId/download", h.download)
	rg.DELETE("/documents/:docId", h.remove)
	rg.POST("/uploads/presign", h.presign)
}

func (h *Handler) uploadCase(c *gin.Context) {
	caseID := c.Param("id")
	c.Set("caseId", caseID)
	h.upload(c, UploadInput{Scope: ScopeCase, CaseID: caseID})
}

func (h *Handler) uploadVault(c *gin.Context) {
	h.upload(c, UploadInput{Scope: ScopeVault})
}

func (h *Handler) upload(c *gin.Context, in UploadInput) {
	sess, _ := middleware.SessionFromContext(c)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxUploadBytes+1<<20)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respond.Error(c, http.StatusRequestEntityTooLarge, "file_too_large", "file exceeds the 10MB limit", nil)
			return
		}
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}
	if fileHeader.Size > MaxUploadBytes {
		respond.Error(c, http.StatusRequestEntityTooLarge, "file_too_large", "file exceeds the 10MB limit", nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer file.Close()

	in.FileName = fileHeader.Filename
	in.Category = c.PostForm("category")

	doc, err := h.Svc.Upload(c.Request.Context(), sess, in, file)
	if err != nil {
		writeError(c, err, "failed to upload document")
		return
	}
	respond.Created(c, toResponse(doc))
}

func (h *Handler) listCase(c *gin.Context) {
	sess, _ := middleware.SessionFromContext(c)
	caseID := c.Param("id")
	c.Set("caseId", caseID)

	docs, err := h.Svc.ListByCase(c.Request.Context(), sess, caseID)
	if err != nil {
		writeError(c, err, "failed to list documents")
		return
	}
	respond.OK(c, toResponses(docs))
}

func (h *Handler) listVault(c *gin.Context) {
	sess, _ := middleware.SessionFromContext(c)

	docs, err := h.Svc.ListVault(c.Request.Context(), sess)
	if err != nil {
		writeError(c, err, "failed to list documents")
		return
	}
	respond.OK(c, toResponses(docs))
}

type createFromS3Request struct {
	S3Key            string `json:"s3Key"`
	OriginalFileName string `json:"originalFileName"`
	ContentType      string `json:"contentType"`
	SizeBytes        int64  `json:"sizeBytes"`
	CaseID           string `json:"caseId"`
	Category         string `json:"category"`
}

func (h *Handler) createFromS3(c *gin.Context) {
	sess, _ := middleware.SessionFromContext(c)

	var req createFromS3Request
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	if req.CaseID != "" {
		c.Set("caseId", req.CaseID)
	}

	doc, err := h.Svc.RegisterUploaded(c.Request.Context(), sess, RegisterInput{
		UploadInput: UploadInput{
			CaseID:   req.CaseID,
			Category: req.Category,
			FileName: strings.TrimSpace(req.OriginalFileName),
		},
		StorageKey:  strings.TrimSpace(req.S3Key),
		ContentType: strings.TrimSpace(req.ContentType),
		SizeBytes:   req.SizeBytes,
	})
	if err != nil {
		writeError(c, err, "failed to create document")
		return
	}
	respond.Created(c, toResponse(doc))
}

func (h *Handler) download(c *gin.Context) {
	sess, _ := middleware.SessionFromContext(c)

	doc, rc, err := h.Svc.Open(c.Request.Context(), sess, c.Param("docId"))
	if err != nil {
		writeError(c, err, "failed to open document")
		return
	}
	defer rc.Close()

	c.Header("Content-Type", doc.MimeType)
	c.Header("Content-Disposition", `attachment; filename="`+strings.ReplaceAll(doc.FileName, `"`, "")+`"`)
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, rc); err != nil {
		telemetry.Warn("documents.download_interrupted", map[string]any{
			"document_id": doc.ID,
			"err":         err.Error(),
			"request_id":  c.GetString("requestId"),
		})
	}
}

func (h *Handler) remove(c *gin.Context) {
	sess, _ := middleware.SessionFromContext(c)

	if err := h.Svc.Delete(c.Request.Context(), sess, c.Param("docId")); err != nil {
		writeError(c, err, "failed to delete document")
		return
	}
	respond.NoContent(c)
}

type presignRequest struct {
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
	SizeBytes   int64  `json:"sizeBytes"`
}

type presignResponse struct {
	UploadURL        string `json:"uploadUrl"`
	S3Key            string `json:"s3Key"`
	ExpiresInSeconds int64  `json:"expiresInSeconds"`
}

func (h *Handler) presign(c *gin.Context) {
	if h.Presign == nil {
		respond.Error(c, http.StatusServiceUnavailable, "uploads_unavailable", "uploads not configured", nil)
		return
	}

	var req presignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	req.ContentType = strings.TrimSpace(req.ContentType)

	sanitized, err := util.SanitizeFileName(req.FileName)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid fileName", nil)
		return
	}
	if !AllowedContentType(req.ContentType) {
		respond.Error(c, http.StatusBadRequest, "validation_error", "contentType is not allowed", nil)
		return
	}
	if req.SizeBytes <= 0 || req.SizeBytes > MaxUploadBytes {
		respond.Error(c, http.StatusBadRequest, "validation_error", "sizeBytes exceeds limit", nil)
		return
	}

	key := h.Presign.KeyFor(middleware.UserIDFromContext(c), sanitized)
	url, expires, err := h.Presign.PresignPut(c.Request.Context(), key, req.ContentType)
	if err != nil {
		telemetry.Error("uploads.presign.failed", map[string]any{
			"err":         err.Error(),
			"key":         key,
			"contentType": req.ContentType,
			"sizeBytes":   req.SizeBytes,
			"request_id":  c.GetString("requestId"),
		})
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to generate upload url", nil)
		return
	}

	respond.OK(c, presignResponse{
		UploadURL:        url,
		S3Key:            key,
		ExpiresInSeconds: int64(expires.Seconds()),
	})
}

func writeError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrTooLarge):
		respond.Error(c, http.StatusRequestEntityTooLarge, "file_too_large", "file exceeds the 10MB limit", nil)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
	case errors.Is(err, ErrForbidden):
		respond.Error(c, http.StatusForbidden, "forbidden", "you do not have access to this document", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", fallback, nil)
	}
}

package cases

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"probate-backend/internal/phases"
	"probate-backend/internal/shared/server/middleware"
	"probate-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc              *Service
	DashboardTimeout time.Duration
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, dashboardTimeout time.Duration) *Handler {
	return &Handler{Svc: svc, DashboardTimeout: dashboardTimeout}
}

// RegisterRoutes attaches case routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/phases", h.listPhases)
	rg.POST("/cases", h.create)
	rg.GET("/cases", h.list)
	rg.GET("/cases/:id", h.get)
	rg.GET("/cases/:id/dashboard", h.dashboard)
	rg.PATCH("/cases/:id/phases/:phase", h.updatePhase)
	rg.POST("/cases/:id/advance", h.advance)
}

// RegisterAdminRoutes attaches admin-only case routes.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.GET("/cases", h.listAll)
	rg.PUT("/cases/:id/status", h.setStatus)
}

func (h *Handler) listPhases(c *gin.Context) {
	respond.OK(c, phases.All())
}

type createRequest struct {
	Decedent   Decedent       `json:"decedent"`
	Petitioner Petitioner     `json:"petitioner"`
	Court      Court          `json:"court"`
	Intake     map[string]any `json:"intake"`
	AddOns     map[string]any `json:"addOns"`
}

func (h *Handler) create(c *gin.Context) {
	sess, _ := middleware.SessionFromContext(c)

	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	created, err := h.Svc.Create(c.Request.Context(), sess, CreateInput{
		Decedent:   req.Decedent,
		Petitioner: req.Petitioner,
		Court:      req.Court,
		Intake:     req.Intake,
		AddOns:     req.AddOns,
	})
	if err != nil {
		writeError(c, err, "failed to create case")
		return
	}

	c.Set("caseId", created.ID)
	setETag(c, created.Version)
	respond.Created(c, toResponse(created))
}

func (h *Handler) list(c *gin.Context) {
	sess, _ := middleware.SessionFromContext(c)

	list, err := h.Svc.List(c.Request.Context(), sess)
	if err != nil {
		writeError(c, err, "failed to list cases")
		return
	}
	resp := make([]CaseResponse, 0, len(list))
	for _, cs := range list {
		resp = append(resp, toResponse(cs))
	}
	respond.OK(c, resp)
}

func (h *Handler) get(c *gin.Context) {
	sess, _ := middleware.SessionFromContext(c)
	caseID := c.Param("id")
	c.Set("caseId", caseID)

	found, err := h.Svc.Get(c.Request.Context(), sess, caseID)
	if err != nil {
		writeError(c, err, "failed to fetch case")
		return
	}
	setETag(c, found.Version)
	respond.OK(c, toResponse(found))
}

func (h *Handler) dashboard(c *gin.Context) {
	sess, _ := middleware.SessionFromContext(c)
	caseID := c.Param("id")
	c.Set("caseId", caseID)

	d, err := h.Svc.Dashboard(c.Request.Context(), sess, caseID, h.DashboardTimeout)
	if err != nil {
		writeError(c, err, "failed to load dashboard")
		return
	}
	setETag(c, d.Case.Version)
	respond.OK(c, toDashboardResponse(d))
}

type updatePhaseRequest struct {
	Fields  map[string]any `json:"fields"`
	Version int64          `json:"version"`
}

func (h *Handler) updatePhase(c *gin.Context) {
	sess, _ := middleware.SessionFromContext(c)
	caseID := c.Param("id")
	c.Set("caseId", caseID)

	var req updatePhaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	version, ok := expectedVersion(c, req.Version)
	if !ok {
		return
	}

	updated, err := h.Svc.UpdatePhase(c.Request.Context(), sess, caseID, c.Param("phase"), req.Fields, version)
	if err != nil {
		writeError(c, err, "failed to update phase")
		return
	}
	setETag(c, updated.Version)
	respond.OK(c, toResponse(updated))
}

type advanceRequest struct {
	ToPhase int   `json:"toPhase"`
	Version int64 `json:"version"`
}

func (h *Handler) advance(c *gin.Context) {
	sess, _ := middleware.SessionFromContext(c)
	caseID := c.Param("id")
	c.Set("caseId", caseID)

	var req advanceRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
			return
		}
	}
	version, ok := expectedVersion(c, req.Version)
	if !ok {
		return
	}

	updated, err := h.Svc.Advance(c.Request.Context(), sess, caseID, phases.Phase(req.ToPhase), version)
	if err != nil {
		writeError(c, err, "failed to advance case")
		return
	}
	setETag(c, updated.Version)
	respond.OK(c, toResponse(updated))
}

func (h *Handler) listAll(c *gin.Context) {
	sess, _ := middleware.SessionFromContext(c)

	filter := ListFilter{
		Status: phases.CaseStatus(strings.TrimSpace(c.Query("status"))),
		Limit:  50,
	}
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			filter.Limit = parsed
		}
	}
	if filter.Limit > 200 {
		filter.Limit = 200
	}
	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			filter.Offset = parsed
		}
	}

	list, err := h.Svc.ListAll(c.Request.Context(), sess, filter)
	if err != nil {
		writeError(c, err, "failed to list cases")
		return
	}
	resp := make([]CaseResponse, 0, len(list))
	for _, cs := range list {
		resp = append(resp, toResponse(cs))
	}
	respond.OK(c, resp)
}

type setStatusRequest struct {
	Status  string `json:"status"`
	Version int64  `json:"version"`
}

func (h *Handler) setStatus(c *gin.Context) {
	sess, _ := middleware.SessionFromContext(c)
	caseID := c.Param("id")
	c.Set("caseId", caseID)

	var req setStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	version, ok := expectedVersion(c, req.Version)
	if !ok {
		return
	}

	updated, err := h.Svc.SetStatus(c.Request.Context(), sess, caseID, phases.CaseStatus(strings.TrimSpace(req.Status)), version)
	if err != nil {
		writeError(c, err, "failed to update status")
		return
	}
	setETag(c, updated.Version)
	respond.OK(c, toResponse(updated))
}

// expectedVersion reads the If-Match header, falling back to the body value.
// Zero means the caller did not ask for a version check.
func expectedVersion(c *gin.Context, bodyVersion int64) (int64, bool) {
	raw := strings.TrimSpace(c.GetHeader("If-Match"))
	if raw == "" || raw == "*" {
		return bodyVersion, true
	}
	raw = strings.Trim(strings.TrimPrefix(raw, "W/"), `"`)
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v <= 0 {
		respond.Error(c, http.StatusBadRequest, "validation_error", "If-Match must carry a case version", nil)
		return 0, false
	}
	return v, true
}

func setETag(c *gin.Context, version int64) {
	c.Header("ETag", `"`+strconv.FormatInt(version, 10)+`"`)
}

func writeError(c *gin.Context, err error, fallback string) {
	var checklist *ChecklistError
	switch {
	case errors.As(err, &checklist):
		respond.Error(c, http.StatusUnprocessableEntity, "checklist_incomplete", err.Error(), gin.H{"missing": checklist.Missing})
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "case not found", nil)
	case errors.Is(err, ErrForbidden):
		respond.Error(c, http.StatusForbidden, "forbidden", "you do not have access to this case", nil)
	case errors.Is(err, ErrConflict):
		respond.Error(c, http.StatusConflict, "version_conflict", "case was modified; reload and try again", nil)
	case errors.Is(err, ErrTimeout):
		respond.Error(c, http.StatusGatewayTimeout, "timeout", "case data took too long to load", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", fallback, nil)
	}
}

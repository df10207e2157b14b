package users

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"probate-backend/internal/shared/server/middleware"
	"probate-backend/internal/shared/server/respond"
	"probate-backend/internal/shared/telemetry"
)

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterPublicRoutes attaches the routes that work without a session.
func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.POST("/auth/register", h.register)
	rg.POST("/auth/login", h.login)
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/me", h.me)
	rg.PATCH("/me", h.updateMe)
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"fullName"`
}

type authResponse struct {
	Token string      `json:"token"`
	User  profileBody `json:"user"`
}

type profileBody struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	FullName   string `json:"fullName"`
	PictureURL string `json:"pictureUrl,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Role       string `json:"role"`
}

func toProfile(u User) profileBody {
	return profileBody{
		ID:         u.ID,
		Email:      u.Email,
		FullName:   u.FullName,
		PictureURL: u.PictureURL,
		Phone:      u.Phone,
		Role:       string(u.Session().Role),
	}
}

func (h *Handler) register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	user, token, err := h.Svc.Register(c.Request.Context(), req.Email, req.Password, req.FullName)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		case errors.Is(err, ErrEmailTaken):
			respond.Error(c, http.StatusConflict, "email_taken", "an account with this email already exists", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to register", nil)
		}
		return
	}
	respond.Created(c, authResponse{Token: token, User: toProfile(user)})
}

func (h *Handler) login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	user, token, err := h.Svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			respond.Error(c, http.StatusUnauthorized, "invalid_credentials", err.Error(), nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to sign in", nil)
		return
	}
	respond.OK(c, authResponse{Token: token, User: toProfile(user)})
}

// me returns the session identity plus the stored profile. A profile that
// cannot be loaded is reported as absent rather than failing the request.
func (h *Handler) me(c *gin.Context) {
	sess, ok := middleware.SessionFromContext(c)
	if !ok {
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
		return
	}

	response := gin.H{
		"userId":  sess.UserID,
		"email":   sess.Email,
		"name":    sess.Name,
		"role":    string(sess.Role),
		"isAdmin": sess.IsAdmin(),
		"profile": nil,
	}
	if sess.Picture != "" {
		response["picture"] = sess.Picture
	}

	user, err := h.Svc.GetByID(c.Request.Context(), sess.UserID)
	switch {
	case err == nil:
		response["profile"] = toProfile(user)
	case errors.Is(err, ErrNotFound):
	default:
		telemetry.Warn("users.profile_load_failed", map[string]any{
			"user_id":    sess.UserID,
			"err":        err.Error(),
			"request_id": c.GetString("requestId"),
		})
	}
	respond.OK(c, response)
}

type updateProfileRequest struct {
	FullName string `json:"fullName"`
	Phone    string `json:"phone"`
}

func (h *Handler) updateMe(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	user, err := h.Svc.UpdateProfile(c.Request.Context(), userID, req.FullName, req.Phone)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "user not found", nil)
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to update profile", nil)
		}
		return
	}
	respond.OK(c, toProfile(user))
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"probate-backend/internal/shared/auth"
)

func newTestIssuer(t *testing.T) *auth.Issuer {
	t.Helper()
	issuer, err := auth.NewIssuer("test-secret", "dev", time.Hour)
	if err != nil {
		t.Fatalf("new issuer: %v", err)
	}
	return issuer
}

func TestAuthAllowsOptionsWithoutIdentity(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Auth(newTestIssuer(t)))
	router.OPTIONS("/api/v1/cases/current", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/cases/current", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.Code)
	}
}

func TestAuthRejectsMissingToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Auth(newTestIssuer(t), "/api/v1/fees"))
	router.GET("/api/v1/cases", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/api/v1/fees/statutory", func(c *gin.Context) { c.Status(http.StatusOK) })

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/cases", nil))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}

	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/fees/statutory", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected public path to pass, got %d", resp.Code)
	}
}

func TestAuthAttachesSessionAndRequireAdmin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	issuer := newTestIssuer(t)
	router := gin.New()
	router.Use(Auth(issuer))
	router.GET("/api/v1/admin/cases", RequireAdmin(), func(c *gin.Context) {
		c.String(http.StatusOK, UserIDFromContext(c))
	})

	clientToken, _ := issuer.Sign(auth.Session{UserID: "client-1", Role: auth.RoleClient})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/cases", nil)
	req.Header.Set("Authorization", "Bearer "+clientToken)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for client, got %d", resp.Code)
	}

	adminToken, _ := issuer.Sign(auth.Session{UserID: "admin-1", Role: auth.RoleAdmin})
	req = httptest.NewRequest(http.MethodGet, "/api/v1/admin/cases", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin, got %d", resp.Code)
	}
	if resp.Body.String() != "admin-1" {
		t.Fatalf("unexpected user id %q", resp.Body.String())
	}
}

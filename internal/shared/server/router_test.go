package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"probate-backend/internal/cases"
	"probate-backend/internal/checkout"
	"probate-backend/internal/fees"
	"probate-backend/internal/services/health"
	"probate-backend/internal/shared/auth"
	"probate-backend/internal/shared/config"
)

func newTestRouter(t *testing.T) (http.Handler, *auth.Issuer) {
	t.Helper()
	issuer, err := auth.NewIssuer("test-secret-test-secret-test-secret", "dev", time.Hour)
	if err != nil {
		t.Fatalf("issuer: %v", err)
	}
	caseSvc := cases.NewService(cases.NewMemoryRepo(), nil)
	r := NewRouter(RouterDeps{
		Config: config.Config{
			CORSAllowOrigin:      []string{"http://localhost:5173"},
			StripePublishableKey: "pk_test_123",
			FormsURL:             "https://forms.example.com",
			SupportPhone:         "(555) 000-0000",
		},
		Verifier:        issuer,
		Health:          health.NewService(nil),
		CaseHandler:     cases.NewHandler(caseSvc, time.Second),
		FeeHandler:      fees.NewHandler(),
		CheckoutHandler: checkout.NewHandler(&checkout.Service{}),
	})
	return r, issuer
}

func serve(r http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("Origin", "http://localhost:5173")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestPublicEndpointsNeedNoToken(t *testing.T) {
	r, _ := newTestRouter(t)

	for _, path := range []string{"/api/v1/health", "/api/v1/phases", "/api/v1/fees/statutory?estateValue=100000"} {
		if w := serve(r, http.MethodGet, path, ""); w.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, w.Code)
		}
	}

	w := serve(r, http.MethodGet, "/api/v1/config/public", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["stripePublishableKey"] != "pk_test_123" || body["supportPhone"] != "(555) 000-0000" {
		t.Fatalf("unexpected public config %v", body)
	}
}

func TestProtectedAndAdminRoutes(t *testing.T) {
	r, issuer := newTestRouter(t)

	if w := serve(r, http.MethodGet, "/api/v1/cases", ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}

	client, err := issuer.Sign(auth.Session{UserID: "client-1", Email: "client@example.com", Role: auth.RoleClient})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if w := serve(r, http.MethodGet, "/api/v1/cases", client); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if w := serve(r, http.MethodGet, "/api/v1/admin/cases", client); w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}

	admin, err := issuer.Sign(auth.Session{UserID: "admin-1", Email: "admin@example.com", Role: auth.RoleAdmin})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if w := serve(r, http.MethodGet, "/api/v1/admin/cases", admin); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestNetlifyPathsUseOpenCORS(t *testing.T) {
	r, _ := newTestRouter(t)

	w := serve(r, http.MethodOptions, "/.netlify/functions/create-checkout-session", "")
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("expected open origin, got %q", got)
	}

	w = serve(r, http.MethodOptions, "/api/v1/cases", "")
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Fatalf("expected configured origin, got %q", got)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)
	if w := serve(r, http.MethodGet, "/metrics", ""); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

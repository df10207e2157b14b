package bootstrap

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"probate-backend/internal/events"
	"probate-backend/internal/shared/config"
)

func TestBuildDevUsesMemoryAndServesHealth(t *testing.T) {
	app, err := Build(config.Config{
		Env:             "dev",
		LocalStoreDir:   t.TempDir(),
		CORSAllowOrigin: []string{"http://localhost:5173"},
		FormsURL:        "http://127.0.0.1:0",
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if app.DB != nil {
		t.Fatalf("expected no database in dev without DATABASE_URL")
	}
	if _, ok := app.Events.(events.LogPublisher); !ok {
		t.Fatalf("expected log publisher, got %T", app.Events)
	}
	if app.CheckoutService.Gateway != nil {
		t.Fatalf("expected checkout gateway to stay unset without a key")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	w := httptest.NewRecorder()
	app.Router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestBuildRequiresDatabaseOutsideDev(t *testing.T) {
	_, err := Build(config.Config{Env: "production", JWTSecret: "secret", LocalStoreDir: t.TempDir()})
	if err == nil {
		t.Fatalf("expected error without DATABASE_URL in production")
	}
}

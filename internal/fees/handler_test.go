package fees

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler().RegisterRoutes(r.Group("/api/v1"))
	return r
}

func TestStatutoryEndpoint(t *testing.T) {
	r := newRouter()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/fees/statutory?estateValue=1,000,000", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var body estimateResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Fee != 23000 {
		t.Fatalf("expected fee 23000, got %d", body.Fee)
	}
	if len(body.Brackets) != 3 {
		t.Fatalf("expected 3 brackets, got %d", len(body.Brackets))
	}
}

func TestStatutoryEndpointRejectsGarbage(t *testing.T) {
	r := newRouter()
	for _, q := range []string{"", "abc", "-1", "Inf", "NaN", "1e400"} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/fees/statutory?estateValue="+q, nil)
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, req)
		if resp.Code != http.StatusBadRequest {
			t.Fatalf("estateValue=%q: expected 400, got %d", q, resp.Code)
		}
	}
}

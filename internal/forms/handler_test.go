package forms

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

type stubGenerator struct {
	res  Result
	err  error
	seen FlatForm
}

func (s *stubGenerator) Generate(ctx context.Context, form FlatForm) (Result, error) {
	s.seen = form
	return s.res, s.err
}

func newTestRouter(gen Generator) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(gen, "").RegisterRoutes(r.Group("/.netlify/functions"))
	return r
}

func post(r http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestGenerateFormsJSONPassthrough(t *testing.T) {
	gen := &stubGenerator{res: Result{Kind: KindJSON, ContentType: "application/json", Body: []byte(`{"ok":true}`)}}
	r := newTestRouter(gen)

	resp := post(r, "/.netlify/functions/generate-forms", `{"assets":{"realProperty":[{"value":"1000"}]}}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if resp.Body.String() != `{"ok":true}` {
		t.Fatalf("unexpected body %s", resp.Body.String())
	}
	if got := resp.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("expected wildcard CORS, got %q", got)
	}
	if gen.seen.TotalAssets != 1000 {
		t.Fatalf("expected transformed payload upstream, got %+v", gen.seen)
	}
}

func TestGenerateFormsBinaryEnvelope(t *testing.T) {
	gen := &stubGenerator{res: Result{Kind: KindZIP, ContentType: "application/zip", FileName: "forms.zip", Body: []byte("PK-not-really")}}
	r := newTestRouter(gen)

	resp := post(r, "/.netlify/functions/generate-forms", `{}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if got := resp.Header().Get("Content-Disposition"); got != `attachment; filename="forms.zip"` {
		t.Fatalf("unexpected disposition %q", got)
	}
	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	raw, err := base64.StdEncoding.DecodeString(env.Body)
	if err != nil {
		t.Fatalf("decode base64: %v", err)
	}
	if !env.IsBase64Encoded || env.ContentType != "application/zip" || string(raw) != "PK-not-really" {
		t.Fatalf("unexpected envelope %+v", env)
	}
}

func TestGenerateFormsRawStream(t *testing.T) {
	gen := &stubGenerator{res: Result{Kind: KindPDF, ContentType: "application/pdf", FileName: "a.pdf", Body: []byte("%PDF-1.4")}}
	r := newTestRouter(gen)

	resp := post(r, "/.netlify/functions/generate-forms?raw=1", `{}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if resp.Header().Get("Content-Type") != "application/pdf" || resp.Body.String() != "%PDF-1.4" {
		t.Fatalf("unexpected raw response %q %q", resp.Header().Get("Content-Type"), resp.Body.String())
	}
}

func TestGenerateFormsUpstreamFailure(t *testing.T) {
	r := newTestRouter(&stubGenerator{err: fmt.Errorf("%w: status 502", ErrUpstream)})

	resp := post(r, "/.netlify/functions/generate-forms", `{}`)
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := "Unable to generate forms. Please call (818) 291-6217 for assistance."
	if body["error"] != want {
		t.Fatalf("unexpected error message %q", body["error"])
	}
}

func TestGenerateFormsMethodGuard(t *testing.T) {
	r := newTestRouter(&stubGenerator{})

	req := httptest.NewRequest(http.MethodOptions, "/.netlify/functions/generate-forms", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204 preflight, got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/.netlify/functions/generate-forms", nil)
	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", resp.Code)
	}
}

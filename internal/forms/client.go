package forms

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"probate-backend/internal/extract"
	"probate-backend/internal/shared/metrics"
)

const (
	generatePath       = "/api/generate"
	maxUpstreamBody    = 50 << 20
	defaultPDFName     = "probate-forms.pdf"
	defaultZIPName     = "probate-forms.zip"
	defaultHTTPTimeout = 60 * time.Second
)

// ErrUpstream marks any failure talking to the form generation service.
var ErrUpstream = errors.New("forms upstream error")

// Kind classifies what the upstream returned.
type Kind string

const (
	KindJSON Kind = "json"
	KindPDF  Kind = "pdf"
	KindZIP  Kind = "zip"
)

// Result is a successful upstream response.
type Result struct {
	Kind        Kind
	ContentType string
	FileName    string
	Body        []byte
	PageCount   int
}

// Client calls the remote form generation service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	maxBody    int64
}

// NewClient constructs a Client for baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		maxBody: maxUpstreamBody,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Generate posts the flattened form and classifies the response by its
// Content-Type. Non-2xx statuses, unknown content types and JSON bodies that
// do not parse are all ErrUpstream. There is no retry.
func (c *Client) Generate(ctx context.Context, form FlatForm) (Result, error) {
	payload, err := json.Marshal(form)
	if err != nil {
		return Result{}, fmt.Errorf("encode form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+generatePath, bytes.NewReader(payload))
	if err != nil {
		return Result{}, fmt.Errorf("%w: build request: %v", ErrUpstream, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, application/pdf, application/zip")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.ObserveFormsUpstream(time.Since(start))
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return Result{}, fmt.Errorf("%w: read body: %v", ErrUpstream, err)
	}
	if int64(len(body)) > c.maxBody {
		return Result{}, fmt.Errorf("%w: body exceeds %d bytes", ErrUpstream, c.maxBody)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Result{}, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	mediaType, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil {
		return Result{}, fmt.Errorf("%w: content type %q", ErrUpstream, resp.Header.Get("Content-Type"))
	}

	out := Result{ContentType: mediaType, Body: body}
	switch mediaType {
	case "application/json":
		if !json.Valid(body) {
			return Result{}, fmt.Errorf("%w: invalid json body", ErrUpstream)
		}
		out.Kind = KindJSON
		return out, nil
	case extract.MimePDF:
		out.Kind = KindPDF
		out.FileName = fileName(resp.Header.Get("Content-Disposition"), defaultPDFName)
	case extract.MimeZIP, "application/x-zip-compressed":
		out.Kind = KindZIP
		out.ContentType = extract.MimeZIP
		out.FileName = fileName(resp.Header.Get("Content-Disposition"), defaultZIPName)
	default:
		return Result{}, fmt.Errorf("%w: unsupported content type %q", ErrUpstream, mediaType)
	}
	if len(body) == 0 {
		return Result{}, fmt.Errorf("%w: empty %s body", ErrUpstream, out.Kind)
	}
	return out, nil
}

func fileName(disposition, fallback string) string {
	if disposition == "" {
		return fallback
	}
	_, params, err := mime.ParseMediaType(disposition)
	if err != nil {
		return fallback
	}
	if name := strings.TrimSpace(params["filename"]); name != "" {
		return name
	}
	return fallback
}

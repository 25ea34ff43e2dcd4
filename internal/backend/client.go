// Package backend talks to the external rendering service that turns a
// document into a PDF or LaTeX source.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kalambet/texcv/internal/document"
)

const (
	// DefaultBaseURL is used when no backend URL is configured.
	DefaultBaseURL = "https://resume-builder-m9v5.onrender.com"

	defaultTimeout  = 60 * time.Second
	maxArtifactSize = 32 << 20 // 32MB
	maxJSONSize     = 4 << 20  // 4MB
)

// Artifact is a rendered document as returned by the backend.
type Artifact struct {
	Data        []byte
	ContentType string
}

// HealthReport is the decoded body of GET /health.
type HealthReport struct {
	Status string
	Body   json.RawMessage
}

// Healthy reports whether the backend declared itself healthy.
func (h HealthReport) Healthy() bool {
	return h.Status == "healthy"
}

// Client communicates with the rendering backend. It never retries; every
// failure is returned to the caller as is.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for baseURL. A zero timeout selects the default.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return NewClientWithHTTPClient(baseURL, &http.Client{Timeout: timeout})
}

// NewClientWithHTTPClient creates a client using hc (for testing).
func NewClientWithHTTPClient(baseURL string, hc *http.Client) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: hc,
	}
}

// BaseURL returns the backend root the client targets.
func (c *Client) BaseURL() string {
	return c.baseURL
}

type dataEnvelope struct {
	Data document.Document `json:"data"`
}

// Render posts doc to /render_json_pdf and returns the binary artifact.
func (c *Client) Render(ctx context.Context, t DocType, doc document.Document) (Artifact, error) {
	const op = "render"
	if _, err := ParseDocType(string(t)); err != nil {
		return Artifact{}, err
	}

	resp, err := c.post(ctx, op, "/render_json_pdf", t, doc)
	if err != nil {
		return Artifact{}, err
	}
	defer resp.Body.Close()

	data, err := readLimited(resp.Body, maxArtifactSize)
	if err != nil {
		return Artifact{}, &NetworkError{Op: op, Err: fmt.Errorf("reading artifact: %w", err)}
	}

	ct := resp.Header.Get("Content-Type")
	if ct == "" {
		ct = "application/pdf"
	}
	return Artifact{Data: data, ContentType: ct}, nil
}

// GetTeX posts doc to /get_tex and returns the generated LaTeX source.
func (c *Client) GetTeX(ctx context.Context, t DocType, doc document.Document) (string, error) {
	const op = "get_tex"
	if _, err := ParseDocType(string(t)); err != nil {
		return "", err
	}

	resp, err := c.post(ctx, op, "/get_tex", t, doc)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := readLimited(resp.Body, maxJSONSize)
	if err != nil {
		return "", &NetworkError{Op: op, Err: fmt.Errorf("reading response: %w", err)}
	}

	var out struct {
		Latex *string `json:"latex"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", &NetworkError{Op: op, Err: fmt.Errorf("decoding response: %w", err)}
	}
	if out.Latex == nil {
		return "", &NetworkError{Op: op, Err: ErrMissingLatex}
	}
	return *out.Latex, nil
}

// Health queries GET /health. A non-success status is an UpstreamError; an
// unreachable backend or a body that is not a JSON object is a NetworkError.
func (c *Client) Health(ctx context.Context) (HealthReport, error) {
	const op = "health"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return HealthReport{}, &NetworkError{Op: op, Err: fmt.Errorf("creating request: %w", err)}
	}
	setNoCache(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return HealthReport{}, &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := readLimited(resp.Body, maxJSONSize)
	if err != nil {
		return HealthReport{}, &NetworkError{Op: op, Err: fmt.Errorf("reading response: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return HealthReport{}, newUpstreamError(op, resp.StatusCode, body)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return HealthReport{}, &NetworkError{Op: op, Err: fmt.Errorf("decoding response: %w", err)}
	}
	report := HealthReport{Body: json.RawMessage(body)}
	if raw, ok := fields["status"]; ok {
		_ = json.Unmarshal(raw, &report.Status)
	}
	return report, nil
}

// post sends doc nested under "data" and returns the response only when its
// status is a success.
func (c *Client) post(ctx context.Context, op, path string, t DocType, doc document.Document) (*http.Response, error) {
	body, err := json.Marshal(dataEnvelope{Data: doc})
	if err != nil {
		return nil, &ValidationError{Msg: fmt.Sprintf("marshaling document: %v", err)}
	}

	u := c.baseURL + path + "?doc_type=" + url.QueryEscape(string(t))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return nil, &NetworkError{Op: op, Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	setNoCache(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{Op: op, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		respBody, _ := readLimited(resp.Body, maxJSONSize)
		return nil, newUpstreamError(op, resp.StatusCode, respBody)
	}
	return resp, nil
}

func setNoCache(req *http.Request) {
	req.Header.Set("Cache-Control", "no-cache, no-store")
	req.Header.Set("Pragma", "no-cache")
}

func readLimited(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("response exceeds %d bytes", limit)
	}
	return data, nil
}

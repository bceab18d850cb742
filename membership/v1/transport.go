package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// APIError is an HTTP-level answer from the membership server. A 4xx status
// is an authoritative rejection of the request; everything else is treated
// as a connectivity-class failure by callers.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("membership API: status %d: %s", e.StatusCode, e.Message)
}

// IsRejection reports whether the server answered with a definitive "no"
// (member not found, already checked in, malformed input, forbidden) rather
// than failing to answer.
func (e *APIError) IsRejection() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500
}

// Transport handles low-level HTTP and authentication
type Transport struct {
	BaseURL    string
	AuthToken  string
	HTTPClient *http.Client
}

// NewTransport creates a transport with base URL, auth and a hard request
// timeout. An exceeded timeout surfaces as a transport error, not an
// APIError.
func NewTransport(baseURL, token string, timeout time.Duration) *Transport {
	return &Transport{
		BaseURL:   baseURL,
		AuthToken: token,
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// helper: build full URL with query params
func (t *Transport) buildURL(path string, query map[string]string) string {
	u, _ := url.Parse(t.BaseURL + path)
	q := u.Query()
	for k, v := range query {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// Post sends a POST request with JSON body and decodes the response into out.
func (t *Transport) Post(ctx context.Context, path string, data any, out any) error {
	body, err := json.Marshal(data)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.buildURL(path, nil), bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	return t.do(req, out)
}

// Get sends a GET request and decodes the response into out.
func (t *Transport) Get(ctx context.Context, path string, query map[string]string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.buildURL(path, query), nil)
	if err != nil {
		return err
	}

	return t.do(req, out)
}

func (t *Transport) do(req *http.Request, out any) error {
	if t.AuthToken != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", t.AuthToken))
	}

	resp, err := t.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    readErrorMessage(resp.Body),
		}
	}

	if out == nil {
		return nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	return json.Unmarshal(data, out)
}

// readErrorMessage pulls the server's human-readable message out of an error
// body. The server sends {"message": "..."}; anything else is passed through
// raw.
func readErrorMessage(r io.Reader) string {
	b, err := io.ReadAll(r)
	if err != nil || len(b) == 0 {
		return ""
	}

	var envelope struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(b, &envelope); err == nil && envelope.Message != "" {
		return envelope.Message
	}

	return string(b)
}

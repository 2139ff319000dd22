package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"testing"
)

// HTTPTestClient sends JSON requests to a test server as one principal.
type HTTPTestClient struct {
	BaseURL string
	Token   string
	Client  *http.Client
}

func NewHTTPTestClient(baseURL, token string) *HTTPTestClient {
	return &HTTPTestClient{BaseURL: baseURL, Token: token, Client: &http.Client{}}
}

func (c *HTTPTestClient) POST(t *testing.T, path string, body interface{}) *http.Response {
	t.Helper()
	return c.send(t, http.MethodPost, path, encodeBody(t, body))
}

func (c *HTTPTestClient) GET(t *testing.T, path string) *http.Response {
	t.Helper()
	return c.send(t, http.MethodGet, path, nil)
}

func (c *HTTPTestClient) PUT(t *testing.T, path string, body interface{}) *http.Response {
	t.Helper()
	return c.send(t, http.MethodPut, path, encodeBody(t, body))
}

func (c *HTTPTestClient) DELETE(t *testing.T, path string) *http.Response {
	t.Helper()
	return c.send(t, http.MethodDelete, path, nil)
}

// DELETEWithBody is for soft deletes, which accept an optional reason.
func (c *HTTPTestClient) DELETEWithBody(t *testing.T, path string, body interface{}) *http.Response {
	t.Helper()
	return c.send(t, http.MethodDelete, path, encodeBody(t, body))
}

func (c *HTTPTestClient) send(t *testing.T, method, path string, payload []byte) *http.Response {
	t.Helper()

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, c.BaseURL+path, body)
	if err != nil {
		t.Fatalf("Failed to build %s %s: %v", method, path, err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	return resp
}

func encodeBody(t *testing.T, v interface{}) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("Failed to marshal body: %v", err)
	}
	return b
}

// DecodeJSON reads and closes the body, failing the test with the raw body
// when it is not the expected shape.
func DecodeJSON(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	raw := readAll(t, resp)
	if err := json.Unmarshal(raw, target); err != nil {
		t.Fatalf("Failed to decode response (body: %s): %v", raw, err)
	}
}

// AssertStatusCode consumes the body only on mismatch, so callers can still
// decode it after a passing check.
func AssertStatusCode(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, resp.StatusCode, readAll(t, resp))
	}
}

func readAll(t *testing.T, resp *http.Response) []byte {
	t.Helper()
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Failed to read response body: %v", err)
	}
	return raw
}

package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
)

// FakeClient is the development/test stand-in for the real backend,
// selected at startup by configuration. It replaces the inline "always
// succeed in dev mode" branches the legacy front end scattered through its
// production logic: the bypass now lives in exactly one injectable place.
type FakeClient struct {
	mu       sync.RWMutex
	handlers map[string]func(body []byte) *Response
}

// NewFakeClient creates an empty FakeClient. Unhandled paths return 404.
func NewFakeClient() *FakeClient {
	return &FakeClient{
		handlers: make(map[string]func(body []byte) *Response),
	}
}

// NewDevClient creates a FakeClient pre-wired with a mock admin session:
// every login succeeds, the current user is a fixed admin, and PIN and
// device endpoints accept everything.
func NewDevClient() *FakeClient {
	c := NewFakeClient()

	admin := map[string]any{
		"user": map[string]any{
			"id":          "dev-admin",
			"username":    "admin",
			"name":        "Development Admin",
			"role":        "admin",
			"pin_enabled": true,
		},
		"expires_in": 3600,
	}

	c.Handle("POST /auth/login", OK(admin))
	c.Handle("POST /auth/pin-login", OK(admin))
	c.Handle("POST /auth/refresh", OK(map[string]any{"expires_in": 3600}))
	c.Handle("POST /auth/logout", OK(nil))
	c.Handle("GET /auth/me", OK(admin))
	c.Handle("POST /auth/pin", OK(nil))
	c.Handle("POST /auth/pin/change", OK(nil))
	c.Handle("POST /auth/pin/verify", OK(nil))
	c.Handle("POST /auth/pin/disable", OK(nil))
	c.Handle("GET /auth/devices", OK(map[string]any{"devices": []any{}}))
	c.Handle("POST /auth/devices", OK(nil))
	c.Handle("POST /auth/devices/revoke", OK(nil))
	c.Handle("GET /auth/sessions", OK(map[string]any{"sessions": []any{}}))
	c.Handle("POST /auth/sessions/revoke", OK(nil))

	return c
}

// Handle registers a canned handler for "METHOD /path".
func (c *FakeClient) Handle(route string, fn func(body []byte) *Response) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[route] = fn
}

// OK builds a handler returning a successful envelope wrapping data.
func OK(data any) func([]byte) *Response {
	raw, _ := json.Marshal(data)
	return func([]byte) *Response {
		return &Response{Success: true, Status: http.StatusOK, Data: raw}
	}
}

// Fail builds a handler returning a failed envelope.
func Fail(status int, errMsg string) func([]byte) *Response {
	return func([]byte) *Response {
		return &Response{Success: false, Status: status, Error: errMsg}
	}
}

func (c *FakeClient) Get(_ context.Context, path string) (*Response, error) {
	return c.dispatch("GET "+path, nil), nil
}

func (c *FakeClient) Post(_ context.Context, path string, body any) (*Response, error) {
	var raw []byte
	if body != nil {
		raw, _ = json.Marshal(body)
	}
	return c.dispatch("POST "+path, raw), nil
}

func (c *FakeClient) dispatch(route string, body []byte) *Response {
	c.mu.RLock()
	fn, ok := c.handlers[route]
	c.mu.RUnlock()

	if !ok {
		return &Response{Success: false, Status: http.StatusNotFound, Error: "not found"}
	}
	return fn(body)
}

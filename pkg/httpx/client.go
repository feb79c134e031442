// Package httpx defines the transport abstraction the auth core consumes.
// The core never touches net/http directly: it sees structured responses
// and classified errors, so transport failures and backend rejections stay
// distinguishable all the way up the stack.
package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Response is the backend's JSON envelope. Every endpoint responds with
// {"success": bool, "data": ..., "error": "..."}.
type Response struct {
	Success bool            `json:"success"`
	Status  int             `json:"-"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// Client is what the session coordinator and friends are handed. Get and
// Post return a non-nil error only for transport-level failures (connection
// refused, DNS, timeout); backend rejections come back as a Response with
// Success=false and the HTTP status set.
type Client interface {
	Get(ctx context.Context, path string) (*Response, error)
	Post(ctx context.Context, path string, body any) (*Response, error)
}

// IsAuthError reports whether the response signals an expired or invalid
// credential, i.e. the condition a silent refresh may recover from.
func IsAuthError(resp *Response) bool {
	return resp != nil && resp.Status == http.StatusUnauthorized
}

// DecodeData unmarshals the response's data payload into v.
func DecodeData(resp *Response, v any) error {
	if resp == nil || len(resp.Data) == 0 {
		return fmt.Errorf("response has no data")
	}
	if err := json.Unmarshal(resp.Data, v); err != nil {
		return fmt.Errorf("failed to decode response data: %w", err)
	}
	return nil
}

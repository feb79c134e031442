package http_test

import (
	"net/http/httptest"
	"testing"

	pkghttp "github.com/BradenHooton/posauth/pkg/http"
	"github.com/stretchr/testify/assert"
)

func TestClientIP_DirectConnectionIgnoresHeaders(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "203.0.113.10:54321"
	req.Header.Set("X-Forwarded-For", "1.2.3.4, 5.6.7.8")
	req.Header.Set("X-Real-IP", "192.168.1.1")

	trusted := []string{"10.0.0.0/8", "127.0.0.1/32"}

	// Headers from an untrusted peer are spoofable and must be ignored
	assert.Equal(t, "203.0.113.10", pkghttp.ClientIP(req, trusted))
}

func TestClientIP_TrustedProxyHonorsForwardedFor(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "10.0.0.5:443"
	req.Header.Set("X-Forwarded-For", "198.51.100.7, 10.0.0.5")

	assert.Equal(t, "198.51.100.7", pkghttp.ClientIP(req, []string{"10.0.0.0/8"}))
}

func TestClientIP_TrustedProxyFallsBackToRealIP(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "10.0.0.5:443"
	req.Header.Set("X-Real-IP", "198.51.100.9")

	assert.Equal(t, "198.51.100.9", pkghttp.ClientIP(req, []string{"10.0.0.0/8"}))
}

func TestClientIP_NoProxies(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	req.Header.Set("X-Forwarded-For", "1.2.3.4")

	assert.Equal(t, "192.0.2.1", pkghttp.ClientIP(req, nil))
}

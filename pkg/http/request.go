package http

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP returns the originating client IP for a request. Forwarding
// headers (X-Forwarded-For, X-Real-IP) are honored only when the direct
// peer is inside one of the trustedProxies CIDR ranges; otherwise they can
// be spoofed by any client and the socket address wins.
func ClientIP(r *http.Request, trustedProxies []string) string {
	remote := remoteIP(r)

	if fromTrustedProxy(remote, trustedProxies) {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			for _, candidate := range strings.Split(xff, ",") {
				candidate = strings.TrimSpace(candidate)
				if net.ParseIP(candidate) != nil {
					return candidate
				}
			}
		}
		if xri := r.Header.Get("X-Real-IP"); net.ParseIP(xri) != nil {
			return xri
		}
	}

	return remote
}

func remoteIP(r *http.Request) string {
	if r.RemoteAddr == "" {
		return "unknown"
	}
	if ip, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return ip
	}
	return r.RemoteAddr
}

func fromTrustedProxy(ip string, trustedProxies []string) bool {
	peer := net.ParseIP(ip)
	if peer == nil {
		return false
	}
	for _, cidr := range trustedProxies {
		_, ipNet, err := net.ParseCIDR(cidr)
		if err != nil {
			continue
		}
		if ipNet.Contains(peer) {
			return true
		}
	}
	return false
}

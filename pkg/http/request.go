package http

import (
	"fmt"
	"net"
	"net/http"
	"strings"
)

// IPResolver determines the client address of a request. Forwarding headers are
// honoured only when the immediate peer is inside one of the trusted proxy ranges.
type IPResolver struct {
	trusted []*net.IPNet
}

// NewIPResolver parses the trusted proxy CIDR ranges. An empty list trusts nobody.
func NewIPResolver(trustedProxies []string) (*IPResolver, error) {
	resolver := &IPResolver{}
	for _, cidr := range trustedProxies {
		cidr = strings.TrimSpace(cidr)
		if cidr == "" {
			continue
		}
		_, ipNet, err := net.ParseCIDR(cidr)
		if err != nil {
			return nil, fmt.Errorf("invalid trusted proxy %q: %w", cidr, err)
		}
		resolver.trusted = append(resolver.trusted, ipNet)
	}
	return resolver, nil
}

// ClientIP returns the client address. A nil resolver uses RemoteAddr only.
// Behind a trusted proxy the result is the rightmost X-Forwarded-For entry that
// is not itself a trusted proxy.
func (ir *IPResolver) ClientIP(r *http.Request) string {
	remoteIP := remoteAddr(r)

	if ir == nil || !ir.isTrusted(remoteIP) {
		return remoteIP
	}

	// Walk right to left: only the hops appended by trusted proxies are reliable.
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		for i := len(hops) - 1; i >= 0; i-- {
			ip := strings.TrimSpace(hops[i])
			if net.ParseIP(ip) == nil || ir.isTrusted(ip) {
				continue
			}
			return ip
		}
	}

	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); net.ParseIP(xri) != nil {
		return xri
	}

	return remoteIP
}

func (ir *IPResolver) isTrusted(ip string) bool {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return false
	}
	for _, ipNet := range ir.trusted {
		if ipNet.Contains(parsed) {
			return true
		}
	}
	return false
}

// remoteAddr strips the port from RemoteAddr
func remoteAddr(r *http.Request) string {
	if r.RemoteAddr == "" {
		return "unknown"
	}
	if ip, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return ip
	}
	return r.RemoteAddr
}

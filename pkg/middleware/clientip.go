package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"strings"
)

// ClientIPResolver derives the caller's address for a request. Forwarding
// headers are honored only when the direct peer is one of the trusted proxies;
// otherwise any client could pick its own address.
type ClientIPResolver struct {
	trusted []*net.IPNet
}

// NewClientIPResolver trusts the proxies inside cidrs. Invalid CIDRs are
// logged and ignored. With no CIDRs the remote address is always used.
func NewClientIPResolver(cidrs []string, logger *slog.Logger) *ClientIPResolver {
	return &ClientIPResolver{trusted: parseCIDRs(cidrs, "trusted proxy", logger)}
}

// ClientIP returns the remote address of r. When that peer is trusted, the
// nearest untrusted hop of X-Forwarded-For wins, then X-Real-IP.
func (c *ClientIPResolver) ClientIP(r *http.Request) string {
	peer := remoteHost(r)
	if !c.isTrusted(net.ParseIP(peer)) {
		return peer
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		var leftmost string
		for i := len(hops) - 1; i >= 0; i-- {
			ip := net.ParseIP(strings.TrimSpace(hops[i]))
			if ip == nil {
				break
			}
			if !c.isTrusted(ip) {
				return ip.String()
			}
			leftmost = ip.String()
		}
		if leftmost != "" {
			return leftmost
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		if ip := net.ParseIP(strings.TrimSpace(xri)); ip != nil {
			return ip.String()
		}
	}
	return peer
}

func (c *ClientIPResolver) isTrusted(ip net.IP) bool {
	return ip != nil && containsIP(c.trusted, ip)
}

// ClientIP returns the remote address of r without the port, ignoring
// forwarding headers.
func ClientIP(r *http.Request) string {
	return remoteHost(r)
}

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func parseCIDRs(cidrs []string, what string, logger *slog.Logger) []*net.IPNet {
	nets := make([]*net.IPNet, 0, len(cidrs))
	for _, cidr := range cidrs {
		cidr = strings.TrimSpace(cidr)
		if cidr == "" {
			continue
		}
		_, ipNet, err := net.ParseCIDR(cidr)
		if err != nil {
			logger.Warn("invalid "+what+" CIDR, skipping",
				slog.String("cidr", cidr),
				slog.String("error", err.Error()),
			)
			continue
		}
		nets = append(nets, ipNet)
	}
	return nets
}

func containsIP(nets []*net.IPNet, ip net.IP) bool {
	for _, n := range nets {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

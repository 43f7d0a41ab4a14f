package utils

import (
	"net"
	"strings"

	"github.com/gin-gonic/gin"
)

var privateRanges = mustParseCIDRs("10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16", "fc00::/7")

// GetRealIP extracts the client IP address recorded in the audit trail.
//
// Priority order:
//  1. X-Real-IP when it holds a public address
//  2. the first public address in X-Forwarded-For, else its first entry
//  3. Gin's ClientIP()
func GetRealIP(c *gin.Context) string {
	if realIP := strings.TrimSpace(c.Request.Header.Get("X-Real-IP")); realIP != "" {
		if ip := net.ParseIP(realIP); ip != nil && !isPrivateIP(ip) {
			return realIP
		}
	}

	if forwarded := c.Request.Header.Get("X-Forwarded-For"); forwarded != "" {
		var first string
		for _, part := range strings.Split(forwarded, ",") {
			candidate := strings.TrimSpace(part)
			ip := net.ParseIP(candidate)
			if ip == nil {
				continue
			}
			if first == "" {
				first = candidate
			}
			if !isPrivateIP(ip) && !ip.IsLoopback() {
				return candidate
			}
		}
		if first != "" {
			return first
		}
	}

	return c.ClientIP()
}

// GetUserAgent returns the User-Agent header, or "Unknown"
func GetUserAgent(c *gin.Context) string {
	if agent := c.Request.UserAgent(); agent != "" {
		return agent
	}
	return "Unknown"
}

func isPrivateIP(ip net.IP) bool {
	for _, subnet := range privateRanges {
		if subnet.Contains(ip) {
			return true
		}
	}
	return false
}

func mustParseCIDRs(cidrs ...string) []*net.IPNet {
	nets := make([]*net.IPNet, 0, len(cidrs))
	for _, cidr := range cidrs {
		_, subnet, err := net.ParseCIDR(cidr)
		if err != nil {
			panic(err)
		}
		nets = append(nets, subnet)
	}
	return nets
}

package utils

import (
	"net"
	"strings"

	"github.com/gin-gonic/gin"
)

var privateBlocks = mustParseCIDRs("10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16", "fc00::/7")

// GetRealIP returns the client address recorded in audit rows and used for login throttling.
// Gate terminals usually sit behind the facility reverse proxy, so X-Real-IP wins, then the
// first public hop of X-Forwarded-For, then the first forwarded hop of any kind, then the socket.
func GetRealIP(c *gin.Context) string {
	if realIP := strings.TrimSpace(c.GetHeader("X-Real-IP")); realIP != "" {
		if ip := net.ParseIP(realIP); ip != nil && !isPrivateIP(ip) {
			return realIP
		}
	}

	if forwarded := c.GetHeader("X-Forwarded-For"); forwarded != "" {
		var firstValid string
		for _, hop := range strings.Split(forwarded, ",") {
			hop = strings.TrimSpace(hop)
			ip := net.ParseIP(hop)
			if ip == nil {
				continue
			}
			if firstValid == "" {
				firstValid = hop
			}
			if !isPrivateIP(ip) && !ip.IsLoopback() {
				return hop
			}
		}
		if firstValid != "" {
			return firstValid
		}
	}

	return c.ClientIP()
}

// GetUserAgent returns the User-Agent header or "Unknown"
func GetUserAgent(c *gin.Context) string {
	if ua := c.Request.UserAgent(); ua != "" {
		return ua
	}
	return "Unknown"
}

func isPrivateIP(ip net.IP) bool {
	for _, block := range privateBlocks {
		if block.Contains(ip) {
			return true
		}
	}
	return false
}

func mustParseCIDRs(cidrs ...string) []*net.IPNet {
	blocks := make([]*net.IPNet, 0, len(cidrs))
	for _, cidr := range cidrs {
		_, block, err := net.ParseCIDR(cidr)
		if err != nil {
			panic(err)
		}
		blocks = append(blocks, block)
	}
	return blocks
}

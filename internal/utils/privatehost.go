package utils

import (
	"net"
	"strings"
)

// IsPrivateHost reports whether host refers to a loopback or private-network
// address (RFC1918 ranges, link-local, "localhost", .local mDNS names).
// Requests to such hosts bypass proxy indirection: a proxy on the public
// internet cannot reach them, and rerouting local traffic would leak it.
func IsPrivateHost(host string) bool {
	host = strings.TrimSpace(strings.ToLower(host))
	if host == "" {
		return false
	}

	// Strip a port if present; host may come in as "127.0.0.1:11434".
	if stripped, _, err := net.SplitHostPort(host); err == nil {
		host = stripped
	}

	if host == "localhost" || strings.HasSuffix(host, ".local") || strings.HasSuffix(host, ".localhost") {
		return true
	}

	ip := net.ParseIP(host)
	if ip == nil {
		return false
	}

	return ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() || ip.IsUnspecified()
}

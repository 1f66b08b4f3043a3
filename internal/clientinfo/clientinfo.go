// Package clientinfo classifies inbound requests: it resolves a best-effort
// client IP from proxy headers and parses the User-Agent header into
// browser/OS/device information for audit logging.
//
// Both entry points are pure functions over request data and never panic on
// missing or malformed input.
package clientinfo

import (
	"net/http"
	"net/netip"
	"strings"

	ua "github.com/mileusna/useragent"
)

// UnknownIP is the sentinel returned when no header yields a valid address.
const UnknownIP = "0.0.0.0"

// Device types reported by ParseUserAgent.
const (
	DeviceMobile  = "mobile"
	DeviceTablet  = "tablet"
	DeviceDesktop = "desktop"
)

// ipHeaders is the priority order for client IP resolution. It mirrors the
// headers set by common reverse proxies and CDNs in front of the app.
var ipHeaders = []string{
	"X-Real-Ip",
	"X-Forwarded-For",
	"Cf-Connecting-Ip",
	"X-Client-Ip",
}

// ExtractClientIP resolves the client IP from proxy headers in priority
// order: x-real-ip, x-forwarded-for (first comma segment), cf-connecting-ip,
// x-client-ip. Each candidate must parse as a syntactic IPv4 or IPv6
// literal; the first valid one wins. When nothing validates it returns
// UnknownIP rather than failing.
func ExtractClientIP(h http.Header) string {
	for _, name := range ipHeaders {
		v := h.Get(name)
		if v == "" {
			continue
		}
		// x-forwarded-for may carry a chain "client, proxy1, proxy2";
		// the client is the first segment.
		candidate := strings.TrimSpace(strings.Split(v, ",")[0])
		if candidate != "" && IsValidIP(candidate) {
			return candidate
		}
	}
	return UnknownIP
}

// IsValidIP reports whether s is a well-formed IPv4 or IPv6 literal.
func IsValidIP(s string) bool {
	_, err := netip.ParseAddr(s)
	return err == nil
}

// IsLocalIP reports whether ip is loopback, private-range, or the unknown
// sentinel. Used for the non-production gate bypass.
func IsLocalIP(ip string) bool {
	if ip == UnknownIP {
		return true
	}
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	return addr.IsLoopback() || addr.IsPrivate() || addr.IsUnspecified()
}

// DeviceInfo is the parsed classification of a User-Agent string. String
// fields may be empty when the UA gives no hint; DeviceType is always one of
// the Device* constants.
type DeviceInfo struct {
	BrowserName    string
	BrowserVersion string
	OSName         string
	DeviceType     string
}

// ParseUserAgent classifies a raw User-Agent string. Absence of a detectable
// device hint defaults DeviceType to desktop (a deliberate default, not an
// error).
func ParseUserAgent(raw string) DeviceInfo {
	agent := ua.Parse(raw)

	deviceType := DeviceDesktop
	switch {
	case agent.Mobile:
		deviceType = DeviceMobile
	case agent.Tablet:
		deviceType = DeviceTablet
	}

	return DeviceInfo{
		BrowserName:    agent.Name,
		BrowserVersion: agent.Version,
		OSName:         agent.OS,
		DeviceType:     deviceType,
	}
}

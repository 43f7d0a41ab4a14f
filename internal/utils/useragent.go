package utils

import (
	"strings"

	ua "github.com/mssola/user_agent"
)

// DeviceInfo is the client summary stored alongside activity log entries
type DeviceInfo struct {
	DeviceType string `json:"device_type"`
	OS         string `json:"os"`
	Browser    string `json:"browser"`
	BrowserVer string `json:"browser_ver,omitempty"`
	Platform   string `json:"platform"`
	IsBot      bool   `json:"is_bot"`
}

var tabletMarkers = []string{"ipad", "tablet", "kindle", "nexus 7", "nexus 9", "nexus 10", "sm-t"}

var platforms = []struct {
	marker   string
	platform string
}{
	{"android", "android"},
	{"iphone os", "ios"},
	{"ios", "ios"},
	{"chrome os", "chromeos"},
	{"windows", "windows"},
	{"mac os x", "mac"},
	{"macos", "mac"},
	{"linux", "linux"},
}

// ParseUserAgent summarises a User-Agent header for the audit trail.
// An empty header yields an all-unknown summary.
func ParseUserAgent(userAgent string) DeviceInfo {
	if userAgent == "" || userAgent == "Unknown" {
		return DeviceInfo{
			DeviceType: "unknown",
			OS:         "Unknown",
			Browser:    "Unknown",
			Platform:   "unknown",
		}
	}

	parser := ua.New(userAgent)
	browser, version := parser.Browser()
	if browser == "" {
		browser = "Unknown"
	}

	osInfo := parser.OSInfo()
	osName := strings.TrimSpace(osInfo.Name + " " + osInfo.Version)
	if osName == "" {
		osName = "Unknown"
	}

	return DeviceInfo{
		DeviceType: deviceType(parser),
		OS:         osName,
		Browser:    browser,
		BrowserVer: version,
		Platform:   platformOf(osInfo.Name),
		IsBot:      parser.Bot(),
	}
}

func deviceType(parser *ua.UserAgent) string {
	if parser.Bot() {
		return "bot"
	}
	if !parser.Mobile() {
		return "desktop"
	}
	lower := strings.ToLower(parser.UA())
	for _, marker := range tabletMarkers {
		if strings.Contains(lower, marker) {
			return "tablet"
		}
	}
	return "mobile"
}

func platformOf(osName string) string {
	lower := strings.ToLower(osName)
	for _, p := range platforms {
		if strings.Contains(lower, p.marker) {
			return p.platform
		}
	}
	return "unknown"
}

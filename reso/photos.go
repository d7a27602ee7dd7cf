package reso

import (
	"net/url"
	"strings"
)

// cleanMediaURL keeps absolute http(s) URLs and blanks everything else so
// consumers treat it as absent media.
func cleanMediaURL(href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	u, err := url.Parse(href)
	if err != nil || u.Host == "" {
		return ""
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return u.String()
	default:
		return ""
	}
}

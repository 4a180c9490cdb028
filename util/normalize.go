package util

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/purell"
)

// NormalizeMediaURL applies only the "safe" purell normalizations (scheme and
// host case, default port, empty path), so the URL stays directly fetchable.
// Returns an empty string for anything that is not an absolute http(s) URL.
func NormalizeMediaURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	clean, err := purell.NormalizeURLString(raw, purell.FlagsSafe|purell.FlagRemoveDuplicateSlashes)
	if err != nil {
		return raw
	}
	return clean
}

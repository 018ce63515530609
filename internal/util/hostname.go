package util

import (
	"net/url"
	"strings"
)

// Hostname returns the host of an absolute URL, lowercased and without a
// leading "www.". Anything that is not a parseable absolute URL yields "".
func Hostname(rawURL string) string {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || !parsed.IsAbs() {
		return ""
	}

	host := strings.ToLower(parsed.Hostname())
	return strings.TrimPrefix(host, "www.")
}

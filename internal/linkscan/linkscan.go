package linkscan

import (
	"regexp"
	"strings"

	"golang.org/x/net/idna"
)

// Matches http(s) links and bare discord.gg invite tokens.
var linkRegex = regexp.MustCompile(`(?i)(https?://[^\s]+|discord\.gg/[^\s]+)`)

func ContainsLink(content string) bool {
	if strings.TrimSpace(content) == "" {
		return false
	}
	return linkRegex.MatchString(content)
}

// ExtractLinks returns every link token in first-occurrence order.
func ExtractLinks(content string) []string {
	if strings.TrimSpace(content) == "" {
		return nil
	}
	return linkRegex.FindAllString(content, -1)
}

// ExtractHostname strips the scheme and a leading "www.", then cuts the
// remainder at the first '/', whitespace, or ':'. Hostnames come back
// lower-cased and IDNA-normalized. Returns "" when no hostname is present.
func ExtractHostname(link string) string {
	host := strings.ToLower(strings.TrimSpace(link))
	if host == "" {
		return ""
	}

	host = strings.TrimPrefix(host, "https://")
	host = strings.TrimPrefix(host, "http://")
	host = strings.TrimPrefix(host, "www.")

	if idx := strings.IndexFunc(host, func(r rune) bool {
		return r == '/' || r == ':' || r == ' ' || r == '\t' || r == '\n'
	}); idx >= 0 {
		host = host[:idx]
	}
	if host == "" {
		return ""
	}

	if ascii, err := idna.ToASCII(host); err == nil {
		host = ascii
	}
	return host
}

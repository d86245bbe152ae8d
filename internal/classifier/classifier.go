// Package classifier decides whether a discovered URL looks like a company
// homepage worth enriching. Pure string heuristics, no network access.
package classifier

import (
	"net/url"
	"strings"
)

// denyDomains are known non-company hosts: social networks, news and media
// outlets, hosted blog platforms, directories.
var denyDomains = []string{
	"medium.com", "linkedin.com", "facebook.com", "twitter.com", "youtube.com",
	"github.com", "wikipedia.org", "reddit.com", "quora.com", "forbes.com",
	"techcrunch.com", "crunchbase.com", "bloomberg.com", "businessinsider.com",
	"wsj.com", "nytimes.com", "reuters.com", "inc.com", "entrepreneur.com",
	"blog.", "wordpress.com", "blogspot.com", "wix.com", "squarespace.com",
}

// denyPathSegments are URL path segments that indicate an article or
// informational page rather than a company homepage.
var denyPathSegments = map[string]bool{
	"blog":    true,
	"news":    true,
	"article": true,
	"press":   true,
	"about":   true,
	"contact": true,
	"careers": true,
}

// denyTitleMarkers are listicle and how-to phrases that mark editorial
// content. Matched case-insensitively as substrings of the page title.
var denyTitleMarkers = []string{
	"how to", "guide", "tips", "best", "top", "list", "vs", "versus",
}

// IsCompanySite reports whether the URL and page title look like a company
// homepage. Hosts outside the .com top-level label are rejected; that scope
// limit is intentional and pending product confirmation, not a bug.
func IsCompanySite(rawURL, title string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		return false
	}

	for _, d := range denyDomains {
		if strings.Contains(host, d) {
			return false
		}
	}

	for _, seg := range strings.Split(strings.ToLower(parsed.Path), "/") {
		if denyPathSegments[seg] {
			return false
		}
	}

	lowerTitle := strings.ToLower(title)
	for _, marker := range denyTitleMarkers {
		if strings.Contains(lowerTitle, marker) {
			return false
		}
	}

	if !strings.HasSuffix(host, ".com") {
		return false
	}

	return true
}

package extractor

import (
	"regexp"
	"strings"
)

var emailRe = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)

// rejectedSubstrings mark automated mailboxes anywhere in the address.
var rejectedSubstrings = []string{"noreply", "no-reply", "donotreply"}

// rejectedPrefixes mark placeholder or role addresses by local-part prefix.
var rejectedPrefixes = []string{"example", "test", "user", "admin"}

// DefaultContactEmail scans raw page markup for email-shaped substrings,
// discards automated and placeholder addresses, and returns the first
// survivor in document order. With no survivor it synthesizes
// contact@<domain>.com from the bare domain.
func DefaultContactEmail(rawHTML, domain string) string {
	for _, addr := range emailRe.FindAllString(rawHTML, -1) {
		if usableContactEmail(addr) {
			return addr
		}
	}
	return "contact@" + domain + ".com"
}

func usableContactEmail(addr string) bool {
	lower := strings.ToLower(addr)
	for _, s := range rejectedSubstrings {
		if strings.Contains(lower, s) {
			return false
		}
	}
	for _, p := range rejectedPrefixes {
		if strings.HasPrefix(lower, p) {
			return false
		}
	}
	return true
}

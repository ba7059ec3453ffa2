package scheduler

import (
	"regexp"
	"strings"
)

// DefaultVirtualDomains lists video conferencing hosts recognised without any configuration.
var DefaultVirtualDomains = []string{
	"zoom.us",
	"meet.google.com",
	"teams.microsoft.com",
	"teams.live.com",
	"webex.com",
	"gotomeeting.com",
	"meet.jit.si",
	"whereby.com",
	"bigbluebutton",
	"skype.com",
}

// scheme://host.tld/... or bare host.tld, optionally with port and path.
var urlPattern = regexp.MustCompile(`^([a-z][a-z0-9+.-]*://)?([a-z0-9-]+\.)+[a-z]{2,}(:[0-9]+)?(/\S*)?$`)

// Classifier decides whether a free-text location denotes a virtual meeting.
type Classifier struct {
	domains []string
}

// NewClassifier returns a classifier that recognises the default domains plus extra.
func NewClassifier(extra ...string) *Classifier {
	domains := make([]string, 0, len(DefaultVirtualDomains)+len(extra))
	domains = append(domains, DefaultVirtualDomains...)
	for _, domain := range extra {
		domain = strings.ToLower(strings.TrimSpace(domain))
		if domain != "" {
			domains = append(domains, domain)
		}
	}
	return &Classifier{domains: domains}
}

// IsVirtual reports whether text looks like a meeting URL.
func (c *Classifier) IsVirtual(text string) bool {
	normalized := strings.ToLower(strings.TrimSpace(text))
	if normalized == "" {
		return false
	}
	if urlPattern.MatchString(normalized) {
		return true
	}
	domains := DefaultVirtualDomains
	if c != nil {
		domains = c.domains
	}
	for _, domain := range domains {
		if strings.Contains(normalized, domain) {
			return true
		}
	}
	return false
}

// StreamLink returns location when it is virtual and an empty string otherwise.
func (c *Classifier) StreamLink(location string) string {
	if c.IsVirtual(location) {
		return location
	}
	return ""
}

package scrape

import (
	"regexp"
	"strings"

	"meetsync/internal/config"
)

var groupNameRe = regexp.MustCompile(`meetup\.com/([^/?#]+)`)

// NormalizeGroupURL canonicalizes the various ways a group can be
// written in config (bare name, meetup.com/name, full URL with query
// junk) to "https://www.meetup.com/<name>/".
func NormalizeGroupURL(url string) string {
	url = strings.TrimSpace(url)
	if strings.HasPrefix(url, "meetup.com") {
		url = "https://www." + url
	} else if !strings.HasPrefix(url, "http") {
		url = "https://www.meetup.com/" + strings.TrimLeft(url, "/")
	}
	if !strings.HasSuffix(url, "/") {
		url += "/"
	}
	if m := groupNameRe.FindStringSubmatch(url); m != nil {
		return "https://www.meetup.com/" + m[1] + "/"
	}
	return url
}

// EventsURL returns the upcoming-events page for a normalized group URL.
func EventsURL(groupURL string) string {
	return NormalizeGroupURL(groupURL) + "events/"
}

// DedupGroups removes configured groups that normalize to the same URL,
// keeping the first occurrence.
func DedupGroups(groups []config.GroupConfig) []config.GroupConfig {
	seen := make(map[string]struct{}, len(groups))
	out := make([]config.GroupConfig, 0, len(groups))
	for _, g := range groups {
		key := NormalizeGroupURL(g.URL)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, g)
	}
	return out
}

package canon

import (
	"net/url"
	"regexp"
	"strings"
)

var reURL = regexp.MustCompile(`https?://\S+`)

// trailing characters chat clients glue onto pasted links
const trailingPunct = `.,;:!?)]}>'"`

// ExtractURLs returns every http(s) URL in free text, canonicalized, in order
// of appearance and without duplicates.
func ExtractURLs(text string) []string {
	var out []string
	seen := map[string]bool{}
	for _, raw := range reURL.FindAllString(text, -1) {
		u := URL(raw)
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, u)
	}
	return out
}

// URL normalizes a pasted listing URL so the same listing pasted twice
// compares equal: surrounding junk and the fragment are dropped and the
// scheme and host are lower-cased. Query parameters are kept as-is because
// listing ids live there.
func URL(raw string) string {
	s := strings.TrimRight(strings.TrimSpace(raw), trailingPunct)
	if s == "" {
		return ""
	}
	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return s
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.RawFragment = ""
	return u.String()
}

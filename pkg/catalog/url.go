package catalog

import (
	"net/url"
	"strings"
)

// buildURL joins escaped path segments onto base and appends params.
func buildURL(base string, segments []string, params url.Values) string {
	var b strings.Builder
	b.WriteString(strings.TrimRight(base, "/"))
	for _, s := range segments {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(s))
	}
	if len(params) > 0 {
		b.WriteByte('?')
		b.WriteString(params.Encode())
	}
	return b.String()
}

// restSegments splits the path of rawURL below base into unescaped
// segments, dropping any query and a trailing .xml.
func restSegments(base, rawURL string) []string {
	rest := rawURL
	if i := strings.Index(rawURL, base); i >= 0 {
		rest = rawURL[i+len(base):]
	} else if u, err := url.Parse(rawURL); err == nil {
		rest = u.Path
	}
	if i := strings.IndexAny(rest, "?#"); i >= 0 {
		rest = rest[:i]
	}
	rest = strings.TrimSuffix(strings.Trim(rest, "/"), ".xml")
	if rest == "" {
		return nil
	}
	segments := strings.Split(rest, "/")
	for i, s := range segments {
		if u, err := url.PathUnescape(s); err == nil {
			segments[i] = u
		}
	}
	return segments
}

// workspaceFromURL returns the segment following "workspaces" in a REST
// URL below base, or "" when the URL is not workspace-scoped.
func workspaceFromURL(base, rawURL string) string {
	segments := restSegments(base, rawURL)
	for i, s := range segments {
		if s == "workspaces" && i+1 < len(segments) {
			return segments[i+1]
		}
	}
	return ""
}

// sameHref compares two REST hrefs ignoring a trailing .xml and scheme/host
// differences introduced by proxies.
func sameHref(a, b string) bool {
	return normalizeHref(a) == normalizeHref(b)
}

func normalizeHref(h string) string {
	if u, err := url.Parse(h); err == nil && u.Path != "" {
		h = u.Path
	}
	h = strings.TrimSuffix(h, "/")
	return strings.TrimSuffix(h, ".xml")
}

package fingerprint

import (
	"net/url"
	"strings"
)

// placeholder replaces volatile path segments in normalized patterns.
const placeholder = "{id}"

// NormalizeURL reduces a URL to a stable pattern: the path (or SPA
// fragment) with volatile segments abstracted, so /device/17 and
// /device/42 normalize identically. An empty path normalizes to "root".
func NormalizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "root"
	}

	// Single-page apps route through the fragment.
	path := u.EscapedPath()
	if u.Fragment != "" {
		path = u.Fragment
		if i := strings.IndexByte(path, '?'); i >= 0 {
			path = path[:i]
		}
	}
	path = strings.TrimPrefix(path, "!")
	path = strings.Trim(path, "/")
	if path == "" {
		return "root"
	}

	parts := strings.Split(path, "/")
	for i, p := range parts {
		if isVolatileSegment(p) {
			parts[i] = placeholder
		}
	}
	return strings.Join(parts, "/")
}

// RouteParams extracts query parameters, merging SPA fragment queries.
// Multi-valued keys keep the first value; callers compare presence, not
// repetition.
func RouteParams(raw string) map[string]string {
	u, err := url.Parse(raw)
	if err != nil {
		return nil
	}

	params := map[string]string{}
	for k, vs := range u.Query() {
		if len(vs) > 0 {
			params[k] = vs[0]
		}
	}
	if i := strings.IndexByte(u.Fragment, '?'); i >= 0 {
		if vals, err := url.ParseQuery(u.Fragment[i+1:]); err == nil {
			for k, vs := range vals {
				if len(vs) > 0 {
					params[k] = vs[0]
				}
			}
		}
	}
	if len(params) == 0 {
		return nil
	}
	return params
}

// isVolatileSegment reports whether a path segment looks like an entity
// id: all digits, a UUID, or a long hex token.
func isVolatileSegment(s string) bool {
	if s == "" {
		return false
	}
	if isDigits(s) {
		return true
	}
	if isUUID(s) {
		return true
	}
	// Long hex tokens (object ids, hashes). Require a digit so plain
	// words like "feedback" are kept.
	if len(s) >= 8 && isHex(s) && strings.ContainsAny(s, "0123456789") {
		return true
	}
	return false
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func isHex(s string) bool {
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

func isUUID(s string) bool {
	if len(s) != 36 {
		return false
	}
	for i, c := range s {
		if i == 8 || i == 13 || i == 18 || i == 23 {
			if c != '-' {
				return false
			}
			continue
		}
		if !isHex(string(c)) {
			return false
		}
	}
	return true
}

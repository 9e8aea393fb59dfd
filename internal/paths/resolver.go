// Package paths computes the relative prefix that lets site-relative links resolve from
// nested pages, both when served and when exported as static files.
package paths

import (
	"net/url"
	"path"
	"strings"
)

// DefaultMarkers lists the nested section folders of the site.
var DefaultMarkers = []string{"/courses/", "/posts/", "/daily/", "/challenges/", "/curriculum/"}

// Resolver computes prefixes for pages living under nested section markers.
type Resolver struct {
	markers []string
}

// New returns a Resolver for markers, falling back to DefaultMarkers when none are given.
func New(markers ...string) Resolver {
	cleaned := make([]string, 0, len(markers))
	for _, m := range markers {
		m = strings.TrimSpace(m)
		if m == "" {
			continue
		}
		if !strings.HasPrefix(m, "/") {
			m = "/" + m
		}
		if !strings.HasSuffix(m, "/") {
			m += "/"
		}
		cleaned = append(cleaned, m)
	}
	if len(cleaned) == 0 {
		cleaned = append(cleaned, DefaultMarkers...)
	}
	return Resolver{markers: cleaned}
}

// Prefix returns "../" repeated once per nesting level of pagePath when the path lies under a
// nested section, otherwise the empty string.
func (r Resolver) Prefix(pagePath string) string {
	p := pagePath
	if u, err := url.Parse(pagePath); err == nil && u.Path != "" {
		p = u.Path
	}
	if !r.nested(p) {
		return ""
	}
	depth := 0
	for _, seg := range strings.Split(p, "/") {
		if seg != "" {
			depth++
		}
	}
	depth--
	if depth <= 0 {
		return ""
	}
	return strings.Repeat("../", depth)
}

func (r Resolver) nested(p string) bool {
	for _, marker := range r.markers {
		if strings.Contains(p, marker) {
			return true
		}
	}
	return false
}

// Apply prepends prefix to target unless target is absolute, root-absolute, a fragment or empty.
func Apply(prefix, target string) string {
	if IsPassthrough(target) {
		return target
	}
	return prefix + target
}

// IsPassthrough reports whether target must be left unchanged by prefixing.
func IsPassthrough(target string) bool {
	switch {
	case target == "":
		return true
	case strings.HasPrefix(target, "http"):
		return true
	case strings.HasPrefix(target, "/"):
		return true
	case strings.HasPrefix(target, "#"):
		return true
	case strings.HasPrefix(target, "mailto:"):
		return true
	default:
		return false
	}
}

// Link applies the prefix computed for pagePath to target.
func (r Resolver) Link(pagePath, target string) string {
	return Apply(r.Prefix(pagePath), target)
}

// Resolve performs browser-style resolution of ref against the page at pagePath and returns
// the resulting root-relative path.
func Resolve(pagePath, ref string) string {
	base, err := url.Parse(pagePath)
	if err != nil {
		return path.Clean("/" + ref)
	}
	if base.Path == "" {
		base.Path = "/"
	}
	target, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	resolved := base.ResolveReference(target)
	if resolved.IsAbs() {
		return resolved.String()
	}
	out := resolved.Path
	if resolved.RawQuery != "" {
		out += "?" + resolved.RawQuery
	}
	if resolved.Fragment != "" {
		out += "#" + resolved.Fragment
	}
	return out
}

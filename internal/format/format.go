package format

import (
	"strings"
	"time"

	"github.com/kidsdev-Academy/kidsdev.github.io/internal/content"
)

// FmtDate formats t in the short form used on cards, e.g. "Mar 1, 2024".
func FmtDate(t time.Time) string {
	return t.Format("Jan 2, 2006")
}

// ShortDate formats a raw content date. Unparseable values are returned trimmed as-is so
// authors still see what they wrote; empty input yields "".
func ShortDate(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if t, ok := content.ParseDate(raw); ok {
		return FmtDate(t)
	}
	return raw
}

// ISODate formats t for datetime attributes.
func ISODate(t time.Time) string {
	return t.Format("2006-01-02")
}

// Initial returns the upper-cased first letter of name, or "?" when name is blank.
func Initial(name string) string {
	name = strings.TrimSpace(name)
	for _, r := range name {
		return strings.ToUpper(string(r))
	}
	return "?"
}

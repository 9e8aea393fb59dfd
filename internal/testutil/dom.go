// Package testutil holds fixtures shared by the page-level tests.
package testutil

import (
	"bytes"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

// Document parses a rendered page or fragment for goquery assertions.
func Document(t testing.TB, body []byte) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	require.NoError(t, err, "parse html")
	return doc
}

// IDs returns the id attribute of every element in sel, in document order.
func IDs(sel *goquery.Selection) []string {
	out := make([]string, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		out = append(out, s.AttrOr("id", ""))
	})
	return out
}

// Package markup holds the small HTML writer shared by the templ components of the site.
package markup

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
)

// Writer writes HTML fragments and keeps the first error so builders can chain calls.
type Writer struct {
	w   io.Writer
	err error
}

// NewWriter wraps w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Raw writes s unescaped.
func (h *Writer) Raw(s string) *Writer {
	if h.err == nil {
		_, h.err = io.WriteString(h.w, s)
	}
	return h
}

// Rawf writes a formatted, unescaped string.
func (h *Writer) Rawf(format string, args ...any) *Writer {
	return h.Raw(fmt.Sprintf(format, args...))
}

// Text writes s HTML-escaped.
func (h *Writer) Text(s string) *Writer {
	return h.Raw(templ.EscapeString(s))
}

// URL writes a sanitised, escaped URL suitable for href and src attributes.
func (h *Writer) URL(s string) *Writer {
	return h.Text(string(templ.URL(s)))
}

// Component renders c inline.
func (h *Writer) Component(ctx context.Context, c templ.Component) *Writer {
	if h.err == nil && c != nil {
		h.err = c.Render(ctx, h.w)
	}
	return h
}

// Err returns the first write error.
func (h *Writer) Err() error {
	return h.err
}

// String renders c into a string.
func String(ctx context.Context, c templ.Component) (string, error) {
	var buf bytes.Buffer
	if err := c.Render(ctx, &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

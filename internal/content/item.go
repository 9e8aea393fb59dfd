package content

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Type tags a content item. The set is closed.
type Type string

const (
	TypePost       Type = "post"
	TypeCourse     Type = "course"
	TypeChallenge  Type = "challenge"
	TypeDaily      Type = "daily"
	TypeNetworking Type = "networking-course"
)

// Family folds networking courses into the course family.
func (t Type) Family() Type {
	if t == TypeNetworking {
		return TypeCourse
	}
	return t
}

// Known reports whether t belongs to the closed set of types.
func (t Type) Known() bool {
	switch t {
	case TypePost, TypeCourse, TypeChallenge, TypeDaily, TypeNetworking:
		return true
	default:
		return false
	}
}

// Item is one displayable unit from a content source.
type Item struct {
	ID          string   `json:"id,omitempty"`
	Type        Type     `json:"type"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Category    string   `json:"category,omitempty"`
	URL         string   `json:"url,omitempty"`
	Image       string   `json:"image,omitempty"`
	Date        string   `json:"date,omitempty"`
	Level       string   `json:"level,omitempty"`
	Duration    string   `json:"duration,omitempty"`
	Tech        string   `json:"tech,omitempty"`
	Difficulty  string   `json:"difficulty,omitempty"`
	Deadline    string   `json:"deadline,omitempty"`
	Topics      []string `json:"topics,omitempty"`
	Status      string   `json:"status,omitempty"`
	Keywords    []string `json:"keywords,omitempty"`
}

// rawItem keeps every field undecoded so one mistyped decoration field costs that field,
// not the record.
type rawItem struct {
	ID          json.RawMessage `json:"id"`
	Type        json.RawMessage `json:"type"`
	Title       json.RawMessage `json:"title"`
	Description json.RawMessage `json:"description"`
	Desc        json.RawMessage `json:"desc"`
	Category    json.RawMessage `json:"category"`
	URL         json.RawMessage `json:"url"`
	Image       json.RawMessage `json:"image"`
	Date        json.RawMessage `json:"date"`
	Level       json.RawMessage `json:"level"`
	Duration    json.RawMessage `json:"duration"`
	Tech        json.RawMessage `json:"tech"`
	Difficulty  json.RawMessage `json:"difficulty"`
	Deadline    json.RawMessage `json:"deadline"`
	Topics      json.RawMessage `json:"topics"`
	Status      json.RawMessage `json:"status"`
	Keywords    json.RawMessage `json:"keywords"`
}

// UnmarshalJSON accepts numeric or string ids and the legacy "desc" key. Scalar fields take
// strings or numbers; list fields take an array or a single value. Anything else decodes to
// the zero value.
func (i *Item) UnmarshalJSON(data []byte) error {
	var raw rawItem
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	description := decodeText(raw.Description)
	if strings.TrimSpace(description) == "" {
		description = decodeText(raw.Desc)
	}
	*i = Item{
		ID:          decodeID(raw.ID),
		Type:        Type(strings.TrimSpace(decodeText(raw.Type))),
		Title:       strings.TrimSpace(decodeText(raw.Title)),
		Description: description,
		Category:    decodeText(raw.Category),
		URL:         strings.TrimSpace(decodeText(raw.URL)),
		Image:       strings.TrimSpace(decodeText(raw.Image)),
		Date:        strings.TrimSpace(decodeText(raw.Date)),
		Level:       decodeText(raw.Level),
		Duration:    decodeText(raw.Duration),
		Tech:        decodeText(raw.Tech),
		Difficulty:  decodeText(raw.Difficulty),
		Deadline:    decodeText(raw.Deadline),
		Topics:      decodeList(raw.Topics),
		Status:      decodeText(raw.Status),
		Keywords:    decodeList(raw.Keywords),
	}
	return nil
}

func decodeID(raw json.RawMessage) string {
	return strings.TrimSpace(decodeText(raw))
}

// decodeText returns a JSON string as-is and a JSON number in its literal form.
func decodeText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

// decodeList keeps the text elements of an array; a lone string or number becomes a
// one-element list.
func decodeList(raw json.RawMessage) []string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		if v := strings.TrimSpace(decodeText(raw)); v != "" {
			return []string{v}
		}
		return nil
	}
	var out []string
	for _, e := range elems {
		if v := strings.TrimSpace(decodeText(e)); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// ParseDate parses the loose date formats found in content files. The zero time is returned
// when the value is empty or unparseable.
func ParseDate(v string) (time.Time, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, false
	}
	layouts := []string{
		time.RFC3339,
		"2006-01-02",
		"2006/01/02",
		"2006-1-2",
		"January 2, 2006",
		"Jan 2, 2006",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// NumericID returns the id as an integer when it is one.
func (i Item) NumericID() (int64, bool) {
	n, err := strconv.ParseInt(i.ID, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

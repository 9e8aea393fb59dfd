package format

import (
	"testing"
	"time"
)

func TestShortDate(t *testing.T) {
	cases := map[string]string{
		"":                     "",
		"2024-03-01":           "Mar 1, 2024",
		"2024/12/25":           "Dec 25, 2024",
		"2024-01-05T10:00:00Z": "Jan 5, 2024",
		"  someday ":           "someday",
	}
	for in, want := range cases {
		if got := ShortDate(in); got != want {
			t.Fatalf("ShortDate(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestISODate(t *testing.T) {
	if got := ISODate(time.Date(2024, 2, 9, 0, 0, 0, 0, time.UTC)); got != "2024-02-09" {
		t.Fatalf("unexpected iso date %q", got)
	}
}

func TestInitial(t *testing.T) {
	if got := Initial(" ada"); got != "A" {
		t.Fatalf("unexpected initial %q", got)
	}
	if got := Initial("   "); got != "?" {
		t.Fatalf("unexpected initial for blank %q", got)
	}
}

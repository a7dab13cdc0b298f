package model

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"
)

func TestDateKeySortsMissingLast(t *testing.T) {
	cases := []struct{ date, want string }{
		{"2099-01-02", "2099-01-02"},
		{"", "9999-99-99"},
		{"not-a-date", "9999-99-99"},
	}
	for _, tc := range cases {
		e := &Event{Date: tc.date}
		if got := e.DateKey(); got != tc.want {
			t.Errorf("DateKey(%q) = %q, want %q", tc.date, got, tc.want)
		}
	}
}

func TestSortedOrder(t *testing.T) {
	set := Set{
		"z": {EventURL: "z"},
		"a": {EventURL: "a", Date: "2099-02-01"},
		"b": {EventURL: "b", Date: "2099-01-01"},
	}
	got := set.Sorted()
	if got[0].EventURL != "b" || got[1].EventURL != "a" || got[2].EventURL != "z" {
		t.Fatalf("sort order wrong: %s %s %s", got[0].EventURL, got[1].EventURL, got[2].EventURL)
	}
}

func TestTruncateDescription(t *testing.T) {
	exact := strings.Repeat("x", MaxDescriptionLen)
	if got := TruncateDescription(exact); got != exact {
		t.Error("description at the bound was truncated")
	}
	long := exact + "y"
	got := TruncateDescription(long)
	if len(got) != MaxDescriptionLen+3 || !strings.HasSuffix(got, "...") {
		t.Errorf("truncation wrong: len=%d", len(got))
	}
}

func TestStartEndWithExplicitTime(t *testing.T) {
	e := &Event{EventURL: "u", Date: "2099-02-01", Time: "19:30"}
	start, end, err := e.StartEnd(3 * time.Hour)
	if err != nil {
		t.Fatalf("StartEnd: %v", err)
	}
	if start.Hour() != 19 || start.Minute() != 30 {
		t.Errorf("start = %s", start.Format("15:04"))
	}
	if end.Sub(start) != 3*time.Hour {
		t.Errorf("duration = %s", end.Sub(start))
	}
}

func TestStartEndRequiresDate(t *testing.T) {
	e := &Event{EventURL: "u"}
	if _, _, err := e.StartEnd(0); err == nil {
		t.Fatal("missing date accepted")
	}
	e.Date = "02/01/2099"
	if _, _, err := e.StartEnd(0); err == nil {
		t.Fatal("malformed date accepted")
	}
}

func TestShortTitle(t *testing.T) {
	e := &Event{Title: "  " + strings.Repeat("t", 60)}
	if got := e.ShortTitle(50); len(got) != 50 {
		t.Errorf("ShortTitle len = %d, want 50", len(got))
	}
}

func TestShortTitleKeepsRunesIntact(t *testing.T) {
	e := &Event{Title: strings.Repeat("é", 60)}
	got := e.ShortTitle(50)
	if !utf8.ValidString(got) {
		t.Fatalf("ShortTitle split a rune: %q", got)
	}
	if n := utf8.RuneCountInString(got); n != 50 {
		t.Errorf("ShortTitle rune count = %d, want 50", n)
	}
}

package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of an event relative to "today".
// It is derived, never read back from storage as-is.
type Status string

const (
	StatusUpcoming Status = "UPCOMING"
	StatusDone     Status = "DONE"
)

// DateLayout / TimeLayout are the wire formats used everywhere an event
// date or time is stored or compared.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// DefaultStartHour is assumed when an event has a date but no time.
const DefaultStartHour = 18

// MaxDescriptionLen bounds stored descriptions; longer text is truncated
// with a "..." marker at scrape time.
const MaxDescriptionLen = 500

// Event is one scraped meetup occurrence. EventURL is the identity: two
// records with the same URL are the same event, and a record without a
// URL is unrepresentable.
type Event struct {
	Title       string
	Date        string // YYYY-MM-DD, may be empty
	Time        string // HH:MM, may be empty
	EventURL    string
	Description string
	VenueName   string
	Address     string
	IsOnline    bool
	GroupName   string
	GroupURL    string

	// City is captured at scrape time for territory reassignment only;
	// it is not persisted.
	City string

	// OwningRep is the sales rep responsible for the event.
	OwningRep string

	Status Status

	// Per-sink delivery flags. Once true they stay true, except through
	// the explicit reset utility.
	ExportedToCalendarFile  bool
	SyncedToCalendarService bool
}

// Set is the persisted record set keyed by event URL. Values are
// pointers so export gates can flip flags in place.
type Set map[string]*Event

// CalendarUID returns the stable calendar identifier for the event,
// derived from its URL so re-imports and re-syncs collapse onto the
// same entry across runs.
func (e *Event) CalendarUID() string {
	return uuid.NewMD5(uuid.NameSpaceURL, []byte(e.EventURL)).String() + "@meetsync"
}

// StartEnd computes the calendar start and end for the event. A missing
// time defaults to DefaultStartHour local; a missing or malformed date is
// an error since a calendar entry cannot be placed without one.
func (e *Event) StartEnd(duration time.Duration) (time.Time, time.Time, error) {
	if e.Date == "" {
		return time.Time{}, time.Time{}, fmt.Errorf("event %q has no date", e.EventURL)
	}

	var start time.Time
	var err error
	if e.Time != "" {
		start, err = time.ParseInLocation(DateLayout+" "+TimeLayout, e.Date+" "+e.Time, time.Local)
	} else {
		start, err = time.ParseInLocation(DateLayout, e.Date, time.Local)
		if err == nil {
			start = start.Add(DefaultStartHour * time.Hour)
		}
	}
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("event %q: bad date/time: %w", e.EventURL, err)
	}

	if duration <= 0 {
		duration = 2 * time.Hour
	}
	return start, start.Add(duration), nil
}

// Location resolves the display location: online marker first, then
// street address, then venue name.
func (e *Event) Location() string {
	switch {
	case e.IsOnline:
		return "Online"
	case e.Address != "":
		return e.Address
	case e.VenueName != "":
		return e.VenueName
	default:
		return ""
	}
}

// DateKey is the sort key for persistence and sink ordering: ascending
// date with missing or unparseable dates last.
func (e *Event) DateKey() string {
	if e.Date == "" {
		return "9999-99-99"
	}
	if _, err := time.Parse(DateLayout, e.Date); err != nil {
		return "9999-99-99"
	}
	return e.Date
}

// TruncateDescription applies the storage bound with a truncation marker.
func TruncateDescription(s string) string {
	if len(s) <= MaxDescriptionLen {
		return s
	}
	return s[:MaxDescriptionLen] + "..."
}

// ShortTitle trims a title to n runes for log lines and search queries.
func (e *Event) ShortTitle(n int) string {
	t := strings.TrimSpace(e.Title)
	r := []rune(t)
	if len(r) <= n {
		return t
	}
	return string(r[:n])
}

package reconcile

import (
	"testing"
	"time"

	"meetsync/internal/model"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func TestClassifyPastPresentFuture(t *testing.T) {
	today := date(2099, 6, 1)

	cases := []struct {
		name string
		date string
		want model.Status
	}{
		{"yesterday", "2099-05-31", model.StatusDone},
		{"today", "2099-06-01", model.StatusUpcoming},
		{"tomorrow", "2099-06-02", model.StatusUpcoming},
		{"missing date", "", model.StatusUpcoming},
		{"garbled date", "not-a-date", model.StatusUpcoming},
	}
	for _, tc := range cases {
		e := &model.Event{EventURL: "u", Date: tc.date, Status: model.StatusDone}
		Classify(e, today)
		if e.Status != tc.want {
			t.Errorf("%s: got %s, want %s", tc.name, e.Status, tc.want)
		}
	}
}

func TestClassifyAllOverridesStoredStatus(t *testing.T) {
	set := model.Set{
		"a": {EventURL: "a", Date: "2020-01-01", Status: model.StatusUpcoming},
		"b": {EventURL: "b", Date: "2099-01-01", Status: model.StatusDone},
	}
	ClassifyAll(set, date(2050, 1, 1))
	if set["a"].Status != model.StatusDone {
		t.Errorf("past event not aged to DONE: %s", set["a"].Status)
	}
	if set["b"].Status != model.StatusUpcoming {
		t.Errorf("future event not restored to UPCOMING: %s", set["b"].Status)
	}
}

func TestDeduplicateKeepsFirstOccurrence(t *testing.T) {
	batch := []model.Event{
		{EventURL: "a", Title: "first"},
		{EventURL: "b"},
		{EventURL: "a", Title: "second"},
		{EventURL: ""},
	}
	out := Deduplicate(batch)
	if len(out) != 2 {
		t.Fatalf("got %d records, want 2", len(out))
	}
	if out[0].EventURL != "a" || out[0].Title != "first" {
		t.Errorf("first occurrence not preserved: %+v", out[0])
	}
	if out[1].EventURL != "b" {
		t.Errorf("order not preserved: %+v", out[1])
	}
}

func TestMergeNeverClobbersKnownRecords(t *testing.T) {
	set := model.Set{
		"a": {
			EventURL:                "a",
			Title:                   "original title",
			VenueName:               "original venue",
			Status:                  model.StatusUpcoming,
			ExportedToCalendarFile:  true,
			SyncedToCalendarService: true,
		},
	}
	added := Merge(set, []model.Event{
		{EventURL: "a", Title: "changed upstream", VenueName: "new venue"},
	})
	if len(added) != 0 {
		t.Fatalf("known record reported as new: %+v", added)
	}
	got := set["a"]
	if got.Title != "original title" || got.VenueName != "original venue" {
		t.Errorf("persisted fields clobbered: %+v", got)
	}
	if !got.ExportedToCalendarFile || !got.SyncedToCalendarService {
		t.Errorf("sink flags clobbered: %+v", got)
	}
}

func TestMergeAddsNewRecordsExactlyOnce(t *testing.T) {
	set := model.Set{}
	added := Merge(set, []model.Event{
		{EventURL: "a", Title: "A", Status: model.StatusDone, ExportedToCalendarFile: true},
		{EventURL: "b", Title: "B"},
	})
	if len(added) != 2 {
		t.Fatalf("got %d new records, want 2", len(added))
	}
	if len(set) != 2 {
		t.Fatalf("got %d persisted records, want 2", len(set))
	}
	for _, e := range added {
		if set[e.EventURL] != e {
			t.Errorf("added record %q not the persisted instance", e.EventURL)
		}
		if e.Status != model.StatusUpcoming {
			t.Errorf("new record %q status = %s, want UPCOMING", e.EventURL, e.Status)
		}
		if e.ExportedToCalendarFile || e.SyncedToCalendarService {
			t.Errorf("new record %q carries sink flags: %+v", e.EventURL, e)
		}
	}
	if added[0].EventURL != "a" || added[1].EventURL != "b" {
		t.Errorf("batch order not preserved: %v, %v", added[0].EventURL, added[1].EventURL)
	}
}

func TestMergeSkipsIdentityLessRecords(t *testing.T) {
	set := model.Set{}
	added := Merge(set, []model.Event{{Title: "no url"}})
	if len(added) != 0 || len(set) != 0 {
		t.Fatalf("identity-less record merged: added=%d set=%d", len(added), len(set))
	}
}

func TestFilterUpcoming(t *testing.T) {
	today := date(2099, 6, 1)
	events := []model.Event{
		{EventURL: "past", Date: "2099-05-31"},
		{EventURL: "today", Date: "2099-06-01"},
		{EventURL: "future", Date: "2099-07-01"},
		{EventURL: "undated"},
		{EventURL: "garbled", Date: "??"},
	}
	out := FilterUpcoming(events, today)
	if len(out) != 4 {
		t.Fatalf("got %d events, want 4: %+v", len(out), out)
	}
	for _, e := range out {
		if e.EventURL == "past" {
			t.Errorf("past event not filtered")
		}
	}
}

// Full scenario: empty store, duplicate observation, a past event, and
// a territory-eligible city.
func TestReconcileScenario(t *testing.T) {
	today := date(2099, 6, 1)
	batch := []model.Event{
		{EventURL: "a", Date: "2099-01-01", City: "Austin"},
		{EventURL: "a", Date: "2099-01-01"},
		{EventURL: "b", Date: "2020-01-01"},
	}

	deduped := Deduplicate(batch)
	if len(deduped) != 2 {
		t.Fatalf("dedup: got %d, want 2", len(deduped))
	}

	set := model.Set{}
	added := Merge(set, deduped)
	if len(added) != 2 || len(set) != 2 {
		t.Fatalf("merge: added=%d set=%d, want 2/2", len(added), len(set))
	}
	if set["a"].Status != model.StatusUpcoming || set["b"].Status != model.StatusUpcoming {
		t.Errorf("new records not UPCOMING: a=%s b=%s", set["a"].Status, set["b"].Status)
	}
	if set["a"].City != "Austin" {
		t.Errorf("first-seen record lost its city: %+v", set["a"])
	}

	ClassifyAll(set, today)
	if set["b"].Status != model.StatusDone {
		t.Errorf("past event not DONE after reclassification: %s", set["b"].Status)
	}
	if set["a"].Status != model.StatusUpcoming {
		t.Errorf("future event aged incorrectly: %s", set["a"].Status)
	}
}

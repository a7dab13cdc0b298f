// Package reconcile is the core of the pipeline: it classifies stored
// events against the current date, collapses a scrape batch to one
// record per identity, and merges the batch into the persisted set
// without ever touching records that are already known.
package reconcile

import (
	"time"

	appLog "meetsync/internal/log"
	"meetsync/internal/model"
)

// Classify derives the event status from its date. Events strictly
// before today are DONE; everything else, including events with a
// missing or unparseable date, stays UPCOMING. Failing open here means
// a bad date can delay an event's retirement but never hide it.
func Classify(e *model.Event, today time.Time) {
	if e.Date == "" {
		e.Status = model.StatusUpcoming
		return
	}
	d, err := time.Parse(model.DateLayout, e.Date)
	if err != nil {
		e.Status = model.StatusUpcoming
		return
	}
	day := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	if d.Before(day) {
		e.Status = model.StatusDone
	} else {
		e.Status = model.StatusUpcoming
	}
}

// ClassifyAll recomputes the status of every stored record. It runs on
// every load, before anything else; the stored status column is a
// convenience for humans, never an input.
func ClassifyAll(set model.Set, today time.Time) {
	for _, e := range set {
		Classify(e, today)
	}
}

// Deduplicate collapses a scrape batch to one record per event URL,
// keeping the first occurrence and its position. Records without a URL
// are dropped: they have no identity to reconcile against.
func Deduplicate(events []model.Event) []model.Event {
	seen := make(map[string]struct{}, len(events))
	out := make([]model.Event, 0, len(events))
	for _, e := range events {
		if e.EventURL == "" {
			continue
		}
		if _, ok := seen[e.EventURL]; ok {
			continue
		}
		seen[e.EventURL] = struct{}{}
		out = append(out, e)
	}
	return out
}

// Merge folds a deduplicated batch into the persisted set and returns
// the records that were actually new, in batch order.
//
// A record already in the set wins unconditionally: no field-level
// update, even if the source changed the title or venue upstream. This
// is what keeps sink flags and manual edits safe across repeated
// scrapes of the same event, at the cost of never picking up upstream
// corrections.
func Merge(set model.Set, observed []model.Event) []*model.Event {
	var added []*model.Event
	for i := range observed {
		url := observed[i].EventURL
		if url == "" {
			continue
		}
		if _, known := set[url]; known {
			continue
		}

		e := observed[i]
		e.Status = model.StatusUpcoming
		e.ExportedToCalendarFile = false
		e.SyncedToCalendarService = false
		set[url] = &e
		added = append(added, &e)
	}

	appLog.Info("merge complete", "observed", len(observed), "new", len(added), "total", len(set))
	return added
}

// FilterUpcoming keeps scraped events dated today or later. Events with
// a missing or unparseable date pass through so a scrape glitch cannot
// drop them.
func FilterUpcoming(events []model.Event, today time.Time) []model.Event {
	day := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	out := make([]model.Event, 0, len(events))
	for _, e := range events {
		if e.Date == "" {
			out = append(out, e)
			continue
		}
		d, err := time.Parse(model.DateLayout, e.Date)
		if err != nil || !d.Before(day) {
			out = append(out, e)
		}
	}
	return out
}

// Package sink contains the export gates and the adapters behind them.
//
// A gate owns the at-most-once bookkeeping: it selects records that are
// still UPCOMING and not yet flagged for its sink, hands them to an
// adapter one at a time (or as one batch for batch-shaped sinks), and
// flips the sink flag only for records the adapter confirmed. The
// caller persists the set right after a gate runs to keep the crash
// window small.
package sink

import (
	"context"
	"errors"
	"sort"

	appLog "meetsync/internal/log"
	"meetsync/internal/model"
)

// ErrSkip is returned by an adapter when a record cannot be delivered
// yet but should not count as a failure (e.g. no contact address for
// its rep). The record keeps its flag clear so a later run retries.
var ErrSkip = errors.New("record skipped")

// FlagFn selects the per-sink idempotency flag on a record. A nil
// FlagFn means the gate is fire-and-forget and tracks nothing durable.
type FlagFn func(*model.Event) *bool

func FlagCalendarFile(e *model.Event) *bool { return &e.ExportedToCalendarFile }

func FlagCalendarService(e *model.Event) *bool { return &e.SyncedToCalendarService }

// Adapter delivers a single record to an external system.
type Adapter interface {
	Name() string
	Deliver(ctx context.Context, e *model.Event) error
}

// BatchAdapter delivers a whole eligible batch in one shot (combined
// calendar file, spreadsheet rewrite, chat message) and reports which
// records actually made it.
type BatchAdapter interface {
	Name() string
	DeliverBatch(ctx context.Context, records []*model.Event) (confirmed []*model.Event, err error)
}

// Result summarizes one gate run. Partial success is the expected
// steady state, not an error.
type Result struct {
	Delivered int
	Skipped   int
	Failed    int
}

// Eligible returns the records a gate should hand to its sink: status
// UPCOMING and the sink flag not yet set, in ascending date order. With
// a nil flag only the status is checked.
func Eligible(set model.Set, flag FlagFn) []*model.Event {
	var out []*model.Event
	for _, e := range set {
		if e.Status != model.StatusUpcoming {
			continue
		}
		if flag != nil && *flag(e) {
			continue
		}
		out = append(out, e)
	}
	sortByDate(out)
	return out
}

// SortByDate orders records the way every sink consumes them.
func SortByDate(records []*model.Event) []*model.Event {
	out := make([]*model.Event, len(records))
	copy(out, records)
	sortByDate(out)
	return out
}

// Ties on the same date break by event URL so a gate sees the same
// order every run regardless of map iteration.
func sortByDate(records []*model.Event) {
	sort.Slice(records, func(i, j int) bool {
		ki, kj := records[i].DateKey(), records[j].DateKey()
		if ki != kj {
			return ki < kj
		}
		return records[i].EventURL < records[j].EventURL
	})
}

// Run pushes records through a per-record adapter. An error for one
// record never aborts the batch; only confirmed records get their flag
// flipped.
func Run(ctx context.Context, ad Adapter, records []*model.Event, flag FlagFn) Result {
	var res Result
	for _, e := range records {
		err := ad.Deliver(ctx, e)
		switch {
		case errors.Is(err, ErrSkip):
			res.Skipped++
		case err != nil:
			appLog.Error("sink delivery failed", err, "sink", ad.Name(), "event", e.EventURL)
			res.Failed++
		default:
			if flag != nil {
				*flag(e) = true
			}
			res.Delivered++
		}
	}

	appLog.Info("gate run finished", "sink", ad.Name(),
		"delivered", res.Delivered, "skipped", res.Skipped, "failed", res.Failed)
	return res
}

// RunBatch pushes records through a batch adapter, flipping flags only
// for the records it confirmed.
func RunBatch(ctx context.Context, ad BatchAdapter, records []*model.Event, flag FlagFn) Result {
	var res Result
	if len(records) == 0 {
		return res
	}

	confirmed, err := ad.DeliverBatch(ctx, records)
	if err != nil {
		appLog.Error("sink batch delivery failed", err, "sink", ad.Name(), "records", len(records))
	}
	for _, e := range confirmed {
		if flag != nil {
			*flag(e) = true
		}
	}
	res.Delivered = len(confirmed)
	res.Failed = len(records) - len(confirmed)

	appLog.Info("gate batch finished", "sink", ad.Name(),
		"delivered", res.Delivered, "failed", res.Failed)
	return res
}

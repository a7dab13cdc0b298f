// Command meetsync-reset repairs the calendar-service sync state: it
// deletes the remote entries created for upcoming events and clears
// their sync flag so the next run recreates them. It exists because a
// stable calendar identifier computed with the wrong timezone can only
// be fixed by forcing a re-export.
//
// Matching stored records to remote entries is best-effort: a same-day
// search by title, paired by substring containment in either direction.
// DONE events are left alone; their remote copies have expired anyway.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/joho/godotenv"

	"meetsync/internal/config"
	appLog "meetsync/internal/log"
	"meetsync/internal/model"
	"meetsync/internal/reconcile"
	"meetsync/internal/sink"
	"meetsync/internal/store"
)

func main() {
	var (
		cfgPath    = flag.String("config", "config.yaml", "path to YAML config")
		skipDelete = flag.Bool("skip-delete", false, "only clear sync flags, do not touch the remote calendar")
	)
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		appLog.Debug("no .env file", "err", err)
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", *cfgPath)
		os.Exit(1)
	}

	st := store.New(cfg.StorePath)
	set, err := st.Load()
	if err != nil {
		appLog.Error("failed to load event store", err, "path", cfg.StorePath)
		os.Exit(1)
	}
	if len(set) == 0 {
		appLog.Info("event store is empty, nothing to reset", "path", cfg.StorePath)
		return
	}
	reconcile.ClassifyAll(set, time.Now())

	var candidates []*model.Event
	for _, e := range set.Sorted() {
		if e.SyncedToCalendarService && e.Status == model.StatusUpcoming {
			candidates = append(candidates, e)
		}
	}
	if len(candidates) == 0 {
		appLog.Info("no synced upcoming events to reset")
		return
	}
	appLog.Info("resetting calendar sync", "candidates", len(candidates), "skip_delete", *skipDelete)

	if !*skipDelete {
		client, err := sink.NewCalendarClient(cfg.CalendarService, cfg.RepContacts)
		if err != nil {
			appLog.Error("cannot reach calendar service; rerun with -skip-delete to clear flags only", err)
			os.Exit(1)
		}
		deleted := deleteRemote(context.Background(), client, candidates)
		appLog.Info("remote cleanup finished", "deleted", deleted)
	}

	for _, e := range candidates {
		e.SyncedToCalendarService = false
	}
	if err := st.Save(set); err != nil {
		appLog.Error("failed to save event store", err, "path", cfg.StorePath)
		os.Exit(1)
	}
	appLog.Info("sync flags cleared", "count", len(candidates))
}

// deleteRemote searches the remote calendar for each candidate and
// deletes the first entry whose title fuzzily matches. Per-record
// errors are logged and the rest of the batch continues.
func deleteRemote(ctx context.Context, client *sink.CalendarClient, candidates []*model.Event) int {
	deleted := 0
	for _, e := range candidates {
		if e.Title == "" || e.Date == "" {
			continue
		}

		remote, err := client.SearchDay(ctx, e.Date, e.ShortTitle(50))
		if err != nil {
			appLog.Error("calendar search failed", err, "event", e.ShortTitle(50))
			continue
		}

		for _, r := range remote {
			if !sink.TitlesSimilar(e.Title, r.Summary) {
				continue
			}
			if err := client.DeleteEvent(ctx, r.ID); err != nil {
				appLog.Error("calendar delete failed", err, "event", e.ShortTitle(50), "remote_id", r.ID)
			} else {
				deleted++
				appLog.Info("deleted remote entry", "event", e.ShortTitle(50))
			}
			break
		}
	}
	return deleted
}

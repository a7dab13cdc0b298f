// Command meetsync runs the full pipeline once: scrape the configured
// groups, reconcile against the CSV store, reassign territories, then
// push through the enabled sinks.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"meetsync/internal/config"
	appLog "meetsync/internal/log"
	"meetsync/internal/model"
	"meetsync/internal/reconcile"
	"meetsync/internal/scrape"
	"meetsync/internal/sink"
	"meetsync/internal/store"
	"meetsync/internal/territory"
)

// Version is set at build time via -ldflags "-X main.Version=..."
var Version = "dev"

func main() {
	var (
		cfgPath   = flag.String("config", "config.yaml", "path to YAML config")
		skipSinks = flag.Bool("skip-sinks", false, "reconcile and persist only, do not touch sinks")
	)
	flag.Parse()

	appLog.Info("meetsync starting", "version", Version)

	if err := godotenv.Load(); err != nil {
		appLog.Debug("no .env file", "err", err)
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", *cfgPath)
		os.Exit(1)
	}
	if err := cfg.ValidateForScrape(); err != nil {
		appLog.Error("invalid config", err, "config_path", *cfgPath)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	st := store.New(cfg.StorePath)
	set, err := st.Load()
	if err != nil {
		appLog.Error("failed to load event store", err, "path", cfg.StorePath)
		os.Exit(1)
	}

	now := time.Now()
	reconcile.ClassifyAll(set, now)
	appLog.Info("loaded event store", "records", len(set),
		"upcoming", set.CountByStatus(model.StatusUpcoming))

	observed := scrapeGroups(ctx, cfg, now)
	observed = reconcile.Deduplicate(observed)
	added := reconcile.Merge(set, observed)

	if n := territory.Apply(added, territory.Normalize(cfg.Territories)); n > 0 {
		appLog.Info("territory reassignments applied", "count", n)
	}

	if err := st.Save(set); err != nil {
		appLog.Error("failed to save event store", err, "path", cfg.StorePath)
		os.Exit(1)
	}

	if *skipSinks {
		appLog.Info("sinks skipped by flag")
		return
	}

	runSinks(ctx, cfg, st, set, added)
	appLog.Info("meetsync finished", "records", len(set), "new", len(added))
}

// scrapeGroups fetches and parses every configured group. A failing
// group contributes zero records and never stops the run.
func scrapeGroups(ctx context.Context, cfg *config.Config, now time.Time) []model.Event {
	groups := scrape.DedupGroups(cfg.Groups)
	if len(groups) < len(cfg.Groups) {
		appLog.Info("removed duplicate groups", "count", len(cfg.Groups)-len(groups))
	}

	renderer := scrape.NewRenderer(cfg.Render)
	appLog.Info("scraping groups", "groups", len(groups), "renderer", renderer.Name())

	var observed []model.Event
	for i, g := range groups {
		url := scrape.EventsURL(g.URL)
		appLog.Info("fetching group", "n", i+1, "of", len(groups), "url", url, "rep", g.OwningRep)

		html, err := renderer.Render(ctx, url)
		if err != nil {
			appLog.Error("group fetch failed", err, "url", url)
			continue
		}
		events, err := scrape.ParseEvents(html, g.URL, g.OwningRep)
		if err != nil {
			appLog.Error("group parse failed", err, "url", url)
			continue
		}

		upcoming := reconcile.FilterUpcoming(events, now)
		appLog.Info("group scraped", "url", url, "events", len(events), "upcoming", len(upcoming))
		observed = append(observed, upcoming...)
	}
	return observed
}

// runSinks pushes the reconciled set through each enabled gate. An
// enabled sink missing its credentials is skipped, not fatal. The store
// is re-saved right after the only gate that mutates flags here.
func runSinks(ctx context.Context, cfg *config.Config, st *store.Store, set model.Set, added []*model.Event) {
	if cfg.Sheets.Enable {
		if m, err := sink.NewSheetsMirror(cfg.Sheets); err != nil {
			appLog.Error("sheets sink skipped", err)
		} else {
			sink.RunBatch(ctx, m, set.Sorted(), nil)
		}
	}

	if cfg.CalendarFile.Enable && len(added) > 0 {
		w := &sink.FileWriter{Opts: sink.ICSOptionsFromConfig(cfg.CalendarFile, cfg.RepContacts)}
		sink.Run(ctx, w, sink.SortByDate(added), nil)
	}

	if cfg.CalendarService.Enable {
		if c, err := sink.NewCalendarClient(cfg.CalendarService, cfg.RepContacts); err != nil {
			appLog.Error("calendar service sink skipped", err)
		} else {
			eligible := sink.Eligible(set, sink.FlagCalendarService)
			res := sink.Run(ctx, c, eligible, sink.FlagCalendarService)
			if res.Delivered > 0 {
				if err := st.Save(set); err != nil {
					appLog.Error("failed to persist sync flags", err, "path", st.Path())
				}
			}
		}
	}

	if cfg.Slack.Enable && len(added) > 0 {
		if n, err := sink.NewSlackNotifier(cfg.Slack); err != nil {
			appLog.Error("slack sink skipped", err)
		} else {
			sink.RunBatch(ctx, n, sink.SortByDate(added), nil)
		}
	}
}

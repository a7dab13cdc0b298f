// Command meetsync-export writes the combined calendar file for every
// upcoming event not yet exported, then flips the export flag for the
// events that made it into the file.
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
	cfgPath := flag.String("config", "config.yaml", "path to YAML config")
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
	reconcile.ClassifyAll(set, time.Now())

	eligible := sink.Eligible(set, sink.FlagCalendarFile)
	appLog.Info("calendar export starting",
		"records", len(set),
		"upcoming", set.CountByStatus(model.StatusUpcoming),
		"to_export", len(eligible))

	if len(eligible) == 0 {
		appLog.Info("no new events to export")
		return
	}

	w := &sink.CombinedWriter{Opts: sink.ICSOptionsFromConfig(cfg.CalendarFile, cfg.RepContacts)}
	res := sink.RunBatch(context.Background(), w, eligible, sink.FlagCalendarFile)

	if res.Delivered > 0 {
		if err := st.Save(set); err != nil {
			appLog.Error("failed to persist export flags", err, "path", cfg.StorePath)
			os.Exit(1)
		}
		appLog.Info("calendar export finished",
			"exported", res.Delivered, "path", cfg.CalendarFile.CombinedPath)
	}
}

package sink

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"meetsync/internal/config"
	appLog "meetsync/internal/log"
	"meetsync/internal/model"
)

const icsProductID = "-//meetsync//EN"

// ICSOptions is shared by both calendar-file adapters.
type ICSOptions struct {
	OutputDir    string
	CombinedPath string
	Duration     time.Duration
	// Contacts maps rep name -> email for the ORGANIZER property.
	Contacts map[string]string
	// Now stamps DTSTAMP; overridable for tests.
	Now func() time.Time
}

func ICSOptionsFromConfig(cfg config.CalendarFileConfig, contacts map[string]string) ICSOptions {
	return ICSOptions{
		OutputDir:    cfg.OutputDir,
		CombinedPath: cfg.CombinedPath,
		Duration:     time.Duration(cfg.DefaultDurationHours) * time.Hour,
		Contacts:     contacts,
		Now:          time.Now,
	}
}

// FileWriter writes one ICS file per event. It runs on newly added
// records only and is best-effort: no flag is tracked, the stable UID
// keeps re-imports harmless.
type FileWriter struct {
	Opts ICSOptions
}

func (w *FileWriter) Name() string { return "calendar-file" }

func (w *FileWriter) Deliver(_ context.Context, e *model.Event) error {
	cal := newCalendar()
	if err := addCalendarEvent(cal, e, w.Opts, true); err != nil {
		return err
	}

	if err := os.MkdirAll(w.Opts.OutputDir, 0o755); err != nil {
		return fmt.Errorf("ics output dir: %w", err)
	}
	path := filepath.Join(w.Opts.OutputDir, e.Date+"_"+sanitizeFilename(e.Title)+".ics")
	if err := os.WriteFile(path, []byte(cal.Serialize()), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	appLog.Debug("wrote event calendar file", "path", path)
	return nil
}

// CombinedWriter writes one ICS file holding the whole eligible batch,
// for manual import into a calendar application. Records it could place
// are confirmed; records without a usable date are left unconfirmed so
// they stay eligible.
type CombinedWriter struct {
	Opts ICSOptions
}

func (w *CombinedWriter) Name() string { return "calendar-file-combined" }

func (w *CombinedWriter) DeliverBatch(_ context.Context, records []*model.Event) ([]*model.Event, error) {
	cal := newCalendar()

	var confirmed []*model.Event
	for _, e := range records {
		if err := addCalendarEvent(cal, e, w.Opts, false); err != nil {
			appLog.Error("event left out of combined calendar", err, "event", e.EventURL)
			continue
		}
		confirmed = append(confirmed, e)
	}
	if len(confirmed) == 0 {
		return nil, nil
	}

	if err := os.MkdirAll(filepath.Dir(w.Opts.CombinedPath), 0o755); err != nil {
		return nil, fmt.Errorf("ics output dir: %w", err)
	}
	if err := os.WriteFile(w.Opts.CombinedPath, []byte(cal.Serialize()), 0o644); err != nil {
		return nil, fmt.Errorf("write %s: %w", w.Opts.CombinedPath, err)
	}

	appLog.Info("wrote combined calendar file", "path", w.Opts.CombinedPath, "events", len(confirmed))
	return confirmed, nil
}

func newCalendar() *ics.Calendar {
	cal := ics.NewCalendar()
	cal.SetProductId(icsProductID)
	cal.SetVersion("2.0")
	cal.SetMethod(ics.MethodPublish)
	return cal
}

// addCalendarEvent maps one record onto a VEVENT. The UID is derived
// from the event URL so importing the same file twice, or a regenerated
// file next run, lands on the same calendar entry.
func addCalendarEvent(cal *ics.Calendar, e *model.Event, opts ICSOptions, perEvent bool) error {
	start, end, err := e.StartEnd(opts.Duration)
	if err != nil {
		return err
	}

	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}

	ev := cal.AddEvent(e.CalendarUID())
	ev.SetDtStampTime(now())
	ev.SetStartAt(start)
	ev.SetEndAt(end)

	summary := e.Title
	if !perEvent && e.OwningRep != "" {
		summary = e.Title + " (" + e.OwningRep + ")"
	}
	ev.SetSummary(summary)

	if loc := e.Location(); loc != "" {
		ev.SetLocation(loc)
	}
	ev.SetDescription(eventDescription(e))
	if e.EventURL != "" {
		ev.SetURL(e.EventURL)
	}
	if email, ok := opts.Contacts[e.OwningRep]; ok && email != "" {
		ev.SetOrganizer("mailto:"+email, ics.WithCN(e.OwningRep))
	}
	return nil
}

// eventDescription is the common long-form body used by both calendar
// sinks.
func eventDescription(e *model.Event) string {
	var b strings.Builder
	if e.OwningRep != "" {
		b.WriteString("Sales Rep: " + e.OwningRep + "\n")
	}
	if e.GroupName != "" {
		b.WriteString("Group: " + e.GroupName + "\n")
	}
	if e.Description != "" {
		b.WriteString("\n" + e.Description + "\n")
	}
	b.WriteString("\nEvent URL: " + e.EventURL)
	return b.String()
}

var unsafeFilenameRe = regexp.MustCompile(`[<>:"/\\|?*]`)
var whitespaceRe = regexp.MustCompile(`\s+`)

func sanitizeFilename(name string) string {
	safe := unsafeFilenameRe.ReplaceAllString(name, "")
	safe = whitespaceRe.ReplaceAllString(strings.TrimSpace(safe), "_")
	if r := []rune(safe); len(r) > 50 {
		safe = string(r[:50])
	}
	if safe == "" {
		return "event"
	}
	return safe
}

// Package store persists the event record set as a UTF-8 CSV file.
//
// The file is the pipeline's only durable state. Saves are whole-set
// overwrites through a temp file + rename, so a crash mid-save leaves
// the previous complete set intact.
package store

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	appLog "meetsync/internal/log"
	"meetsync/internal/model"
)

// Columns is the fixed on-disk column order. The synced column was added
// later; files without it still load.
var Columns = []string{
	"title",
	"date",
	"time",
	"event_url",
	"description",
	"venue_name",
	"address",
	"is_online",
	"group_name",
	"group_url",
	"owning_party",
	"status",
	"exported_to_calendar_file",
	"synced_to_calendar_service",
}

// ErrMalformed marks a store file that exists but cannot be understood.
// Callers must treat this as fatal: silently dropping history is worse
// than stopping.
var ErrMalformed = errors.New("malformed event store")

// Store reads and writes the record set at a fixed path.
type Store struct {
	path string
}

func New(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Path() string {
	return s.path
}

// Load reads the full record set. A missing file yields an empty set;
// any other problem wraps ErrMalformed. Rows without an event URL are
// skipped since they are unrepresentable.
func (s *Store) Load() (model.Set, error) {
	set := model.Set{}

	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			appLog.Info("store file missing, starting empty", "path", s.path)
			return set, nil
		}
		return nil, fmt.Errorf("%w: open %s: %v", ErrMalformed, s.path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		if err == io.EOF {
			return set, nil
		}
		return nil, fmt.Errorf("%w: read header of %s: %v", ErrMalformed, s.path, err)
	}

	idx, err := columnIndex(header)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, s.path, err)
	}

	for line := 2; ; line++ {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %s line %d: %v", ErrMalformed, s.path, line, err)
		}

		e := rowToEvent(row, idx)
		if e.EventURL == "" {
			appLog.Debug("skipping stored row without event_url", "line", line)
			continue
		}
		set[e.EventURL] = e
	}

	return set, nil
}

// Save writes the full set, sorted by ascending date (missing dates
// last), atomically replacing the previous file.
func (s *Store) Save(set model.Set) error {
	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("save store: %w", err)
		}
	}

	tmp, err := os.CreateTemp(dir, ".meetsync-events-*.tmp")
	if err != nil {
		return fmt.Errorf("save store: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	w := csv.NewWriter(tmp)
	if err := w.Write(Columns); err != nil {
		tmp.Close()
		return fmt.Errorf("save store: %w", err)
	}
	for _, e := range set.Sorted() {
		if err := w.Write(eventToRow(e)); err != nil {
			tmp.Close()
			return fmt.Errorf("save store: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("save store: %w", err)
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("save store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("save store: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("save store: %w", err)
	}

	appLog.Info("saved event store", "path", s.path, "records", len(set))
	return nil
}

// columnIndex maps column names to positions. All columns except the
// late-added synced flag are required.
func columnIndex(header []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(name)] = i
	}
	for _, name := range Columns {
		if name == "synced_to_calendar_service" {
			continue
		}
		if _, ok := idx[name]; !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}
	return idx, nil
}

func rowToEvent(row []string, idx map[string]int) *model.Event {
	get := func(name string) string {
		i, ok := idx[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	return &model.Event{
		Title:                   get("title"),
		Date:                    get("date"),
		Time:                    get("time"),
		EventURL:                get("event_url"),
		Description:             get("description"),
		VenueName:               get("venue_name"),
		Address:                 get("address"),
		IsOnline:                parseBool(get("is_online")),
		GroupName:               get("group_name"),
		GroupURL:                get("group_url"),
		OwningRep:               get("owning_party"),
		Status:                  model.Status(get("status")),
		ExportedToCalendarFile:  parseBool(get("exported_to_calendar_file")),
		SyncedToCalendarService: parseBool(get("synced_to_calendar_service")),
	}
}

func eventToRow(e *model.Event) []string {
	return []string{
		e.Title,
		e.Date,
		e.Time,
		e.EventURL,
		e.Description,
		e.VenueName,
		e.Address,
		formatBool(e.IsOnline),
		e.GroupName,
		e.GroupURL,
		e.OwningRep,
		string(e.Status),
		formatFlag(e.ExportedToCalendarFile),
		formatFlag(e.SyncedToCalendarService),
	}
}

func parseBool(v string) bool {
	return strings.EqualFold(strings.TrimSpace(v), "true")
}

func formatBool(v bool) string {
	if v {
		return "True"
	}
	return "False"
}

// Sink flags encode as "True" or empty; booleans only exist inside the
// program, this is the storage boundary.
func formatFlag(v bool) string {
	if v {
		return "True"
	}
	return ""
}

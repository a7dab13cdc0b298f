package scrape

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	appLog "meetsync/internal/log"
	"meetsync/internal/model"
)

// Meetup pages embed their full data as JSON in a __NEXT_DATA__ script
// tag; the interesting part is the Apollo cache keyed by typed IDs like
// "Event:123" and "Venue:456".
var nextDataRe = regexp.MustCompile(`(?s)__NEXT_DATA__[^>]*>(.*?)</script>`)

type nextData struct {
	Props struct {
		PageProps struct {
			ApolloState map[string]json.RawMessage `json:"__APOLLO_STATE__"`
		} `json:"pageProps"`
	} `json:"props"`
}

type apolloEvent struct {
	Typename    string `json:"__typename"`
	Title       string `json:"title"`
	EventURL    string `json:"eventUrl"`
	DateTime    string `json:"dateTime"`
	Description string `json:"description"`
	IsOnline    bool   `json:"isOnline"`
	EventType   string `json:"eventType"`
	Venue       *struct {
		Ref string `json:"__ref"`
	} `json:"venue"`
}

type apolloVenue struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	Country string `json:"country"`
}

type apolloGroup struct {
	Name string `json:"name"`
}

// ParseEvents extracts event records from rendered group-page markup.
// A page without a usable embedded payload is an error (the whole
// source contributed nothing); an individual event that will not parse
// is skipped and the rest of the page still counts.
func ParseEvents(html, groupURL, owningRep string) ([]model.Event, error) {
	m := nextDataRe.FindStringSubmatch(html)
	if m == nil {
		return nil, errors.New("no __NEXT_DATA__ payload in page")
	}

	var data nextData
	if err := json.Unmarshal([]byte(m[1]), &data); err != nil {
		return nil, fmt.Errorf("decode __NEXT_DATA__: %w", err)
	}

	state := data.Props.PageProps.ApolloState
	if len(state) == 0 {
		return nil, errors.New("no apollo state in page data")
	}

	venues := make(map[string]apolloVenue)
	groupName := ""
	for key, raw := range state {
		switch {
		case strings.HasPrefix(key, "Venue:"):
			var v apolloVenue
			if err := json.Unmarshal(raw, &v); err == nil {
				venues[key] = v
			}
		case strings.HasPrefix(key, "Group:"):
			if groupName == "" {
				var g apolloGroup
				if err := json.Unmarshal(raw, &g); err == nil {
					groupName = g.Name
				}
			}
		}
	}

	normalizedGroupURL := strings.TrimSuffix(NormalizeGroupURL(groupURL), "/")

	var events []model.Event
	for key, raw := range state {
		if !strings.HasPrefix(key, "Event:") {
			continue
		}
		var ae apolloEvent
		if err := json.Unmarshal(raw, &ae); err != nil {
			appLog.Debug("skipping unparseable event", "key", key, "err", err)
			continue
		}
		if ae.Typename != "Event" {
			continue
		}
		e, ok := extractEvent(ae, venues, groupName, normalizedGroupURL, owningRep)
		if !ok {
			appLog.Debug("skipping event without url", "key", key)
			continue
		}
		events = append(events, e)
	}

	return events, nil
}

func extractEvent(ae apolloEvent, venues map[string]apolloVenue, groupName, groupURL, owningRep string) (model.Event, bool) {
	e := model.Event{
		Title:     ae.Title,
		EventURL:  ae.EventURL,
		GroupName: groupName,
		GroupURL:  groupURL,
		OwningRep: owningRep,
	}
	if e.EventURL == "" {
		return model.Event{}, false
	}

	if ae.DateTime != "" {
		if dt, err := parseEventDateTime(ae.DateTime); err == nil {
			e.Date = dt.Format(model.DateLayout)
			e.Time = dt.Format(model.TimeLayout)
		}
	}

	e.Description = model.TruncateDescription(ae.Description)
	e.IsOnline = ae.IsOnline || ae.EventType == "ONLINE"

	if e.IsOnline {
		e.VenueName = "Online"
		return e, true
	}

	if ae.Venue != nil && ae.Venue.Ref != "" {
		if v, ok := venues[ae.Venue.Ref]; ok {
			e.VenueName = v.Name
			e.City = v.City

			var parts []string
			for _, p := range []string{v.Address, v.City, v.State} {
				if p != "" {
					parts = append(parts, p)
				}
			}
			if v.Country != "" {
				parts = append(parts, strings.ToUpper(v.Country))
			}
			e.Address = strings.Join(parts, ", ")
		}
	}

	return e, true
}

// parseEventDateTime accepts the ISO forms the source emits, with or
// without a UTC offset ("2026-02-10T16:00:00-03:00"). The wall-clock
// value is kept as-is; the offset is the venue's own.
func parseEventDateTime(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02T15:04:05-07:00", "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized datetime %q", s)
}

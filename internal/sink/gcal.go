package sink

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"meetsync/internal/config"
	appLog "meetsync/internal/log"
	"meetsync/internal/model"
)

// CalendarClient talks to the Google Calendar REST API. It serves two
// callers: the sync gate (insert with attendee invite) and the reset
// utility (search + delete).
type CalendarClient struct {
	client      *resty.Client
	calendarID  string
	timezone    string
	duration    time.Duration
	sendInvites bool
	contacts    map[string]string
}

func NewCalendarClient(cfg config.CalendarServiceConfig, contacts map[string]string) (*CalendarClient, error) {
	if cfg.Token == "" {
		return nil, errors.New("calendar service: token is required")
	}
	sendInvites := true
	if cfg.SendInvites != nil {
		sendInvites = *cfg.SendInvites
	}
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetAuthToken(cfg.Token).
		SetRetryCount(2).
		SetRetryWaitTime(2 * time.Second).
		SetTimeout(30 * time.Second)
	return &CalendarClient{
		client:      client,
		calendarID:  cfg.CalendarID,
		timezone:    cfg.Timezone,
		duration:    time.Duration(cfg.DefaultDurationHours) * time.Hour,
		sendInvites: sendInvites,
		contacts:    contacts,
	}, nil
}

func (c *CalendarClient) Name() string { return "calendar-service" }

type gcalTime struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone"`
}

type gcalAttendee struct {
	Email       string `json:"email"`
	DisplayName string `json:"displayName,omitempty"`
}

type gcalSource struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

type gcalEvent struct {
	ID        string         `json:"id,omitempty"`
	ICalUID   string         `json:"iCalUID,omitempty"`
	Summary   string         `json:"summary"`
	Location  string         `json:"location,omitempty"`
	Desc      string         `json:"description,omitempty"`
	Start     *gcalTime      `json:"start,omitempty"`
	End       *gcalTime      `json:"end,omitempty"`
	Source    *gcalSource    `json:"source,omitempty"`
	Attendees []gcalAttendee `json:"attendees,omitempty"`
}

// Deliver creates one remote calendar entry for the record, inviting
// the owning rep. A rep without a contact address is a skip, not a
// failure: the flag stays clear and a later run retries once the
// contact table has the address.
func (c *CalendarClient) Deliver(ctx context.Context, e *model.Event) error {
	email, ok := c.contacts[e.OwningRep]
	if !ok || email == "" {
		appLog.Info("no contact for rep, skipping calendar sync",
			"rep", e.OwningRep, "event", e.ShortTitle(50))
		return ErrSkip
	}

	start, end, err := e.StartEnd(c.duration)
	if err != nil {
		return err
	}

	body := gcalEvent{
		// The stable UID derived from the event URL is the dedupe key on
		// the service side: re-inserting after a lost flag collides
		// instead of duplicating.
		ICalUID:  e.CalendarUID(),
		Summary:  e.Title,
		Location: e.Location(),
		Desc:     eventDescription(e),
		Start:    &gcalTime{DateTime: start.Format("2006-01-02T15:04:05"), TimeZone: c.timezone},
		End:      &gcalTime{DateTime: end.Format("2006-01-02T15:04:05"), TimeZone: c.timezone},
		Source:   &gcalSource{Title: e.GroupName, URL: e.EventURL},
		Attendees: []gcalAttendee{
			{Email: email, DisplayName: e.OwningRep},
		},
	}

	sendUpdates := "none"
	if c.sendInvites {
		sendUpdates = "all"
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParam("sendUpdates", sendUpdates).
		SetBody(body).
		Post(fmt.Sprintf("/calendars/%s/events", c.calendarID))
	if err != nil {
		return fmt.Errorf("calendar insert: %w", err)
	}
	if resp.StatusCode() != 200 {
		return fmt.Errorf("calendar insert: status %d: %s", resp.StatusCode(), resp.String())
	}

	appLog.Debug("created calendar entry", "event", e.ShortTitle(50), "attendee", email)
	return nil
}

// RemoteEvent is the slice of a remote calendar entry the reset
// utility needs.
type RemoteEvent struct {
	ID      string `json:"id"`
	Summary string `json:"summary"`
}

type gcalList struct {
	Items []RemoteEvent `json:"items"`
}

// SearchDay lists remote entries on the given date matching the query.
func (c *CalendarClient) SearchDay(ctx context.Context, date, query string) ([]RemoteEvent, error) {
	day, err := time.Parse(model.DateLayout, date)
	if err != nil {
		return nil, fmt.Errorf("calendar search: bad date %q: %w", date, err)
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"timeMin":      day.UTC().Format(time.RFC3339),
			"timeMax":      day.AddDate(0, 0, 1).UTC().Format(time.RFC3339),
			"q":            query,
			"singleEvents": "true",
		}).
		SetResult(&gcalList{}).
		Get(fmt.Sprintf("/calendars/%s/events", c.calendarID))
	if err != nil {
		return nil, fmt.Errorf("calendar search: %w", err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("calendar search: status %d: %s", resp.StatusCode(), resp.String())
	}

	list, ok := resp.Result().(*gcalList)
	if !ok {
		return nil, errors.New("calendar search: unexpected response shape")
	}
	return list.Items, nil
}

// DeleteEvent removes a remote entry. An already-gone entry counts as
// deleted.
func (c *CalendarClient) DeleteEvent(ctx context.Context, eventID string) error {
	resp, err := c.client.R().
		SetContext(ctx).
		Delete(fmt.Sprintf("/calendars/%s/events/%s", c.calendarID, eventID))
	if err != nil {
		return fmt.Errorf("calendar delete: %w", err)
	}
	switch resp.StatusCode() {
	case 200, 204, 410:
		return nil
	default:
		return fmt.Errorf("calendar delete: status %d: %s", resp.StatusCode(), resp.String())
	}
}

// TitlesSimilar is the best-effort fuzzy match the reset utility uses
// to pair a stored record with a remote entry: substring containment in
// either direction, case-insensitive. It can pair an unrelated same-day
// event whose title contains the other; kept deliberately weak.
func TitlesSimilar(a, b string) bool {
	al := strings.ToLower(strings.TrimSpace(a))
	bl := strings.ToLower(strings.TrimSpace(b))
	if al == "" || bl == "" {
		return false
	}
	return strings.Contains(al, bl) || strings.Contains(bl, al)
}

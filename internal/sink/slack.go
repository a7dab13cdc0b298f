package sink

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"meetsync/internal/config"
	appLog "meetsync/internal/log"
	"meetsync/internal/model"
)

// maxNotifyEvents bounds the message size; anything beyond gets a
// single overflow line.
const maxNotifyEvents = 10

// SlackNotifier posts one Block Kit message per run summarizing the
// newly added events. Fire-and-forget: nothing durable tracks whether
// a message went out, so a failed run simply means no ping.
type SlackNotifier struct {
	client     *resty.Client
	webhookURL string
}

func NewSlackNotifier(cfg config.SlackConfig) (*SlackNotifier, error) {
	if cfg.WebhookURL == "" {
		return nil, errors.New("slack: webhook_url is required")
	}
	client := resty.New().
		SetRetryCount(2).
		SetRetryWaitTime(2 * time.Second).
		SetTimeout(30 * time.Second)
	return &SlackNotifier{client: client, webhookURL: cfg.WebhookURL}, nil
}

func (n *SlackNotifier) Name() string { return "slack" }

type slackText struct {
	Type  string `json:"type"`
	Text  string `json:"text"`
	Emoji bool   `json:"emoji,omitempty"`
}

type slackBlock struct {
	Type     string      `json:"type"`
	Text     *slackText  `json:"text,omitempty"`
	Elements []slackText `json:"elements,omitempty"`
}

type slackMessage struct {
	Blocks []slackBlock `json:"blocks"`
}

func (n *SlackNotifier) DeliverBatch(ctx context.Context, records []*model.Event) ([]*model.Event, error) {
	if len(records) == 0 {
		return nil, nil
	}

	resp, err := n.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(buildSlackMessage(records)).
		Post(n.webhookURL)
	if err != nil {
		return nil, fmt.Errorf("slack notify: %w", err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("slack notify: status %d: %s", resp.StatusCode(), resp.String())
	}

	appLog.Info("sent slack notification", "events", len(records))
	return records, nil
}

func buildSlackMessage(records []*model.Event) slackMessage {
	blocks := []slackBlock{
		{
			Type: "header",
			Text: &slackText{
				Type:  "plain_text",
				Text:  fmt.Sprintf("New Meetup Events Found (%d)", len(records)),
				Emoji: true,
			},
		},
		{Type: "divider"},
	}

	shown := records
	if len(shown) > maxNotifyEvents {
		shown = shown[:maxNotifyEvents]
	}
	for _, e := range shown {
		blocks = append(blocks,
			slackBlock{Type: "section", Text: &slackText{Type: "mrkdwn", Text: eventSection(e)}},
			slackBlock{Type: "divider"},
		)
	}

	if overflow := len(records) - maxNotifyEvents; overflow > 0 {
		blocks = append(blocks, slackBlock{
			Type: "context",
			Elements: []slackText{
				{Type: "mrkdwn", Text: fmt.Sprintf("_... and %d more events_", overflow)},
			},
		})
	}

	return slackMessage{Blocks: blocks}
}

func eventSection(e *model.Event) string {
	title := e.Title
	if title == "" {
		title = "Untitled Event"
	}
	date := e.Date
	if date == "" {
		date = "TBD"
	}
	when := date
	if e.Time != "" {
		when = date + " at " + e.Time
	}

	location := "TBD"
	if e.IsOnline {
		location = "Online"
	} else if e.VenueName != "" {
		location = e.VenueName
	}

	rep := e.OwningRep
	if rep == "" {
		rep = "Unassigned"
	}

	return fmt.Sprintf("*<%s|%s>*\nDate: %s\nLocation: %s\nGroup: %s\nSales Rep: *%s*",
		e.EventURL, title, when, location, e.GroupName, rep)
}

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// GroupConfig describes a single meetup group to scrape.
type GroupConfig struct {
	// URL is the group page; bare names and meetup.com/... forms are
	// accepted and normalized before fetching.
	URL string `yaml:"url"`
	// OwningRep is the default sales rep for events found in this group.
	// Territory mapping may override it per event.
	OwningRep string `yaml:"owning_rep"`
}

// RenderConfig configures the page-rendering backend.
type RenderConfig struct {
	// ProxyURL is the rendering-proxy content endpoint. When APIKey is
	// empty the pipeline falls back to local headless Chromium.
	ProxyURL string `yaml:"proxy_url"`
	APIKey   string `yaml:"api_key"`
	// TimeoutSeconds bounds a single page render.
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

// SheetsConfig configures the spreadsheet mirror sink.
type SheetsConfig struct {
	Enable        bool   `yaml:"enable"`
	SpreadsheetID string `yaml:"spreadsheet_id"`
	WorksheetName string `yaml:"worksheet_name"`
	Token         string `yaml:"token"`
}

// CalendarFileConfig configures ICS file generation.
type CalendarFileConfig struct {
	Enable               bool   `yaml:"enable"`
	OutputDir            string `yaml:"output_dir"`
	CombinedPath         string `yaml:"combined_path"`
	DefaultDurationHours int    `yaml:"default_duration_hours"`
}

// CalendarServiceConfig configures the remote calendar sync sink.
type CalendarServiceConfig struct {
	Enable               bool   `yaml:"enable"`
	BaseURL              string `yaml:"base_url"`
	CalendarID           string `yaml:"calendar_id"`
	Token                string `yaml:"token"`
	Timezone             string `yaml:"timezone"`
	DefaultDurationHours int    `yaml:"default_duration_hours"`
	SendInvites          *bool  `yaml:"send_invites"`
}

// SlackConfig configures the new-event chat notification.
type SlackConfig struct {
	Enable     bool   `yaml:"enable"`
	WebhookURL string `yaml:"webhook_url"`
}

// Config is the top-level application configuration.
type Config struct {
	// StorePath is the CSV record store, the pipeline's only durable state.
	StorePath string `yaml:"store_path"`

	Groups []GroupConfig `yaml:"groups"`

	// Territories maps a city name to the rep who owns events there.
	// Matching is case-insensitive.
	Territories map[string]string `yaml:"territories"`

	// RepContacts maps a rep name to the email used for calendar invites.
	RepContacts map[string]string `yaml:"rep_contacts"`

	Render          RenderConfig          `yaml:"render"`
	Sheets          SheetsConfig          `yaml:"sheets"`
	CalendarFile    CalendarFileConfig    `yaml:"calendar_file"`
	CalendarService CalendarServiceConfig `yaml:"calendar_service"`
	Slack           SlackConfig           `yaml:"slack"`
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.StorePath == "" {
		c.StorePath = "events.csv"
	}
	if c.Render.ProxyURL == "" {
		c.Render.ProxyURL = "https://chrome.browserless.io/content"
	}
	if c.Render.TimeoutSeconds <= 0 {
		c.Render.TimeoutSeconds = 90
	}
	if c.Sheets.WorksheetName == "" {
		c.Sheets.WorksheetName = "Events"
	}
	if c.CalendarFile.OutputDir == "" {
		c.CalendarFile.OutputDir = "calendars"
	}
	if c.CalendarFile.CombinedPath == "" {
		c.CalendarFile.CombinedPath = filepath.Join(c.CalendarFile.OutputDir, "all_events.ics")
	}
	if c.CalendarFile.DefaultDurationHours <= 0 {
		c.CalendarFile.DefaultDurationHours = 2
	}
	if c.CalendarService.BaseURL == "" {
		c.CalendarService.BaseURL = "https://www.googleapis.com/calendar/v3"
	}
	if c.CalendarService.CalendarID == "" {
		c.CalendarService.CalendarID = "primary"
	}
	if c.CalendarService.Timezone == "" {
		c.CalendarService.Timezone = "UTC"
	}
	if c.CalendarService.DefaultDurationHours <= 0 {
		c.CalendarService.DefaultDurationHours = 2
	}
	if c.Territories == nil {
		c.Territories = map[string]string{}
	}
	if c.RepContacts == nil {
		c.RepContacts = map[string]string{}
	}
}

// ApplyEnv overlays secrets from the environment. Environment values win
// over the config file so credentials can stay out of it entirely.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("MEETSYNC_RENDER_API_KEY"); v != "" {
		c.Render.APIKey = v
	}
	if v := os.Getenv("MEETSYNC_SHEETS_TOKEN"); v != "" {
		c.Sheets.Token = v
	}
	if v := os.Getenv("MEETSYNC_CALENDAR_TOKEN"); v != "" {
		c.CalendarService.Token = v
	}
	if v := os.Getenv("MEETSYNC_SLACK_WEBHOOK"); v != "" {
		c.Slack.WebhookURL = v
	}
}

// Load reads configuration from the given YAML path. A missing or
// unparseable file is a fatal configuration error; this tool does
// nothing useful without one.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.Normalize()
	cfg.ApplyEnv()

	return &cfg, nil
}

// ValidateForScrape checks the parts required by the scraping pipeline.
// Sink sections are deliberately not validated here: a disabled or
// unconfigured sink means that gate is skipped, not an error.
func (c *Config) ValidateForScrape() error {
	if len(c.Groups) == 0 {
		return errors.New("at least one group is required")
	}
	return nil
}

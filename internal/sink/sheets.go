package sink

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"meetsync/internal/config"
	appLog "meetsync/internal/log"
	"meetsync/internal/model"
)

const sheetsBaseURL = "https://sheets.googleapis.com/v4"

// sheetsHeaders is the human-facing header row of the mirror worksheet.
var sheetsHeaders = []string{
	"Title", "Date", "Time", "Event URL", "Description", "Venue",
	"Address", "Online", "Group Name", "Group URL", "Sales Rep", "Status",
}

// SheetsMirror rewrites a worksheet with the full record set on every
// run (clear, then update). It is a mirror, not a ledger: no flag is
// tracked and the rewrite is naturally idempotent.
type SheetsMirror struct {
	client        *resty.Client
	spreadsheetID string
	worksheet     string
}

func NewSheetsMirror(cfg config.SheetsConfig) (*SheetsMirror, error) {
	if cfg.SpreadsheetID == "" {
		return nil, errors.New("sheets: spreadsheet_id is required")
	}
	if cfg.Token == "" {
		return nil, errors.New("sheets: token is required")
	}
	client := resty.New().
		SetBaseURL(sheetsBaseURL).
		SetAuthToken(cfg.Token).
		SetRetryCount(2).
		SetRetryWaitTime(2 * time.Second).
		SetTimeout(30 * time.Second)
	return &SheetsMirror{
		client:        client,
		spreadsheetID: cfg.SpreadsheetID,
		worksheet:     cfg.WorksheetName,
	}, nil
}

func (m *SheetsMirror) Name() string { return "sheets" }

type sheetsValueRange struct {
	Range          string     `json:"range,omitempty"`
	MajorDimension string     `json:"majorDimension"`
	Values         [][]string `json:"values"`
}

func (m *SheetsMirror) DeliverBatch(ctx context.Context, records []*model.Event) ([]*model.Event, error) {
	rows := make([][]string, 0, len(records)+1)
	rows = append(rows, sheetsHeaders)
	for _, e := range SortByDate(records) {
		rows = append(rows, []string{
			e.Title, e.Date, e.Time, e.EventURL, e.Description,
			e.VenueName, e.Address, strconv.FormatBool(e.IsOnline),
			e.GroupName, e.GroupURL, e.OwningRep, string(e.Status),
		})
	}

	clearPath := fmt.Sprintf("/spreadsheets/%s/values/%s:clear", m.spreadsheetID, m.worksheet)
	resp, err := m.client.R().SetContext(ctx).Post(clearPath)
	if err != nil {
		return nil, fmt.Errorf("sheets clear: %w", err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("sheets clear: status %d: %s", resp.StatusCode(), resp.String())
	}

	updatePath := fmt.Sprintf("/spreadsheets/%s/values/%s", m.spreadsheetID, m.worksheet)
	resp, err = m.client.R().
		SetContext(ctx).
		SetQueryParam("valueInputOption", "RAW").
		SetBody(sheetsValueRange{MajorDimension: "ROWS", Values: rows}).
		Put(updatePath)
	if err != nil {
		return nil, fmt.Errorf("sheets update: %w", err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("sheets update: status %d: %s", resp.StatusCode(), resp.String())
	}

	appLog.Info("pushed records to spreadsheet", "rows", len(rows)-1)
	return records, nil
}

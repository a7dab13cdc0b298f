package sink

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"meetsync/internal/config"
	"meetsync/internal/model"
)

func TestSheetsMirrorClearsThenRewrites(t *testing.T) {
	var calls []string
	var putBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path)
		if r.Method == http.MethodPut {
			if r.URL.Query().Get("valueInputOption") != "RAW" {
				t.Errorf("valueInputOption = %q", r.URL.Query().Get("valueInputOption"))
			}
			putBody, _ = io.ReadAll(r.Body)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	m, err := NewSheetsMirror(config.SheetsConfig{
		SpreadsheetID: "sheet-1",
		WorksheetName: "Events",
		Token:         "test-token",
	})
	if err != nil {
		t.Fatalf("NewSheetsMirror: %v", err)
	}
	m.client.SetBaseURL(srv.URL)

	records := []*model.Event{
		{Title: "Later", Date: "2099-03-01", EventURL: "b", Status: model.StatusUpcoming},
		{Title: "Sooner", Date: "2099-02-01", EventURL: "a", Status: model.StatusDone},
	}
	confirmed, err := m.DeliverBatch(context.Background(), records)
	if err != nil {
		t.Fatalf("DeliverBatch: %v", err)
	}
	if len(confirmed) != 2 {
		t.Fatalf("confirmed %d records, want 2", len(confirmed))
	}

	if len(calls) != 2 ||
		!strings.HasSuffix(calls[0], "/spreadsheets/sheet-1/values/Events:clear") ||
		!strings.HasSuffix(calls[1], "/spreadsheets/sheet-1/values/Events") {
		t.Fatalf("call sequence wrong: %v", calls)
	}

	var vr sheetsValueRange
	if err := json.Unmarshal(putBody, &vr); err != nil {
		t.Fatalf("put body invalid: %v", err)
	}
	if len(vr.Values) != 3 {
		t.Fatalf("got %d rows, want header + 2", len(vr.Values))
	}
	if vr.Values[0][0] != "Title" {
		t.Errorf("header row wrong: %v", vr.Values[0])
	}
	if vr.Values[1][0] != "Sooner" || vr.Values[2][0] != "Later" {
		t.Errorf("rows not date-sorted: %v %v", vr.Values[1], vr.Values[2])
	}
	if vr.Values[1][11] != string(model.StatusDone) {
		t.Errorf("status column wrong: %v", vr.Values[1])
	}
}

func TestSheetsMirrorFailedClearAbortsRewrite(t *testing.T) {
	var puts int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut {
			puts++
		}
		http.Error(w, "denied", http.StatusForbidden)
	}))
	defer srv.Close()

	m, err := NewSheetsMirror(config.SheetsConfig{
		SpreadsheetID: "sheet-1",
		WorksheetName: "Events",
		Token:         "test-token",
	})
	if err != nil {
		t.Fatalf("NewSheetsMirror: %v", err)
	}
	m.client.SetBaseURL(srv.URL)

	if _, err := m.DeliverBatch(context.Background(), nil); err == nil {
		t.Fatal("failed clear returned nil error")
	}
	if puts != 0 {
		t.Errorf("rewrite attempted after failed clear")
	}
}

func TestNewSheetsMirrorRequiresCredentials(t *testing.T) {
	if _, err := NewSheetsMirror(config.SheetsConfig{Token: "t"}); err == nil {
		t.Error("missing spreadsheet id accepted")
	}
	if _, err := NewSheetsMirror(config.SheetsConfig{SpreadsheetID: "s"}); err == nil {
		t.Error("missing token accepted")
	}
}

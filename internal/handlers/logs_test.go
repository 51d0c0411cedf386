package handlers

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"smartbox_dashboard/internal/models"
	"smartbox_dashboard/internal/service"
)

func TestLogsHandler_ListAndValidation(t *testing.T) {
	auth := &mockAuth{parseID: 99}
	now := time.Now().UTC().Truncate(time.Second)
	events := []models.DashboardEvent{
		{EventID: "e1", OccurredAt: now, Type: "CONNECTED", Description: "up"},
		{EventID: "e2", OccurredAt: now.Add(1 * time.Second), Type: "WARNING_SENT", Description: "warn"},
	}
	logs := &mockEventLog{resp: events}
	s := &service.Service{
		Authorization: auth,
		EventLog:      logs,
	}
	r := newTestRouter(s)

	// Missing/invalid 'from' → 400
	w := doJSON(t, r, http.MethodGet, "/api/v1/logs/?from=notatime", "", authHeader("valid"))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 invalid 'from', got %d", w.Code)
	}

	// 'from' after 'to' → 400 without touching the service
	q := "/api/v1/logs/?from=" + now.Add(time.Hour).Format(time.RFC3339) + "&to=" + now.Format(time.RFC3339)
	w = doJSON(t, r, http.MethodGet, q, "", authHeader("valid"))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for inverted range, got %d", w.Code)
	}

	// Valid range and type (lowercase type normalized to upper in service call)
	q = "/api/v1/logs/?from=" + now.Format(time.RFC3339) + "&to=" + now.Add(2*time.Second).Format(time.RFC3339) + "&type=warning_sent"
	w = doJSON(t, r, http.MethodGet, q, "", authHeader("valid"))
	if w.Code != http.StatusOK {
		t.Fatalf("logs status=%d, body=%s", w.Code, w.Body.String())
	}
	var out struct {
		Count  int                    `json:"count"`
		Events []models.DashboardEvent `json:"events"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	if out.Count != 2 || len(out.Events) != 2 {
		t.Fatalf("unexpected response: %+v", out)
	}
	if logs.lastType != "WARNING_SENT" {
		t.Fatalf("expected lastType WARNING_SENT, got %q", logs.lastType)
	}
}

func TestLogsHandler_DateOnlyToIsEndOfDay(t *testing.T) {
	logs := &mockEventLog{}
	r := newTestRouter(&service.Service{
		Authorization: &mockAuth{parseID: 1},
		EventLog:      logs,
	})

	w := doJSON(t, r, http.MethodGet, "/api/v1/logs/?to=2026-08-28", "", authHeader("tok"))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d, body=%s", w.Code, w.Body.String())
	}

	dayEnd := time.Date(2026, 8, 28, 23, 59, 59, int(time.Second-time.Nanosecond), time.UTC)
	if !logs.lastTo.Equal(dayEnd) {
		t.Fatalf("date-only 'to' must be end-of-day inclusive: got %v, want %v", logs.lastTo, dayEnd)
	}
}

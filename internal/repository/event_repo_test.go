package repository

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"smartbox_dashboard/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
)

func ctx(t *testing.T) context.Context {
	t.Helper()
	c, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	t.Cleanup(cancel)
	return c
}

func newMockEventRepo(t *testing.T) (*EventSQLite, sqlmock.Sqlmock, func()) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	repo := NewEventSQLite(db)
	cleanup := func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Fatalf("unmet sqlmock expectations: %v", err)
		}
		_ = db.Close()
	}
	return repo, mock, cleanup
}

func TestEventAppend_FillsDefaultsAndNormalizesType(t *testing.T) {
	t.Parallel()

	repo, mock, cleanup := newMockEventRepo(t)
	defer cleanup()

	// Generated id and timestamp are opaque here; match shape and the
	// normalized type instead.
	mock.ExpectExec(regexp.QuoteMeta(`
		INSERT INTO dashboard_events (id, occurred_at, type, message, meta)
		VALUES (?, ?, ?, ?, ?)
	`)).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(),
			"CONNECTED", "Broker connection established",
			sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Append(ctx(t), models.DashboardEvent{
		Type:        "  connected ",
		Description: "Broker connection established",
		Metadata:    map[string]any{"broker": "wss://broker.test"},
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
}

func TestEventAppend_DBError(t *testing.T) {
	t.Parallel()

	repo, mock, cleanup := newMockEventRepo(t)
	defer cleanup()

	mock.ExpectExec("INSERT INTO dashboard_events").
		WillReturnError(errors.New("down"))

	err := repo.Append(ctx(t), models.DashboardEvent{
		Type:        "CONN_ERROR",
		Description: "x",
	})
	if err == nil || !strings.Contains(err.Error(), "down") {
		t.Fatalf("expected error, got %v", err)
	}
}

func TestEventList_NoFilters_MetadataParsing(t *testing.T) {
	t.Parallel()

	repo, mock, cleanup := newMockEventRepo(t)
	defer cleanup()

	now := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	js, _ := json.Marshal(map[string]any{"warning_type": "temperature"})

	rows := sqlmock.NewRows([]string{"id", "occurred_at", "type", "message", "meta"}).
		AddRow("1", now, "WARNING_SENT", "m1", string(js)).
		AddRow("2", now.Add(time.Hour), "DISCONNECTED", "m2", nil)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, occurred_at, type, message, meta FROM dashboard_events ORDER BY occurred_at ASC`)).
		WillReturnRows(rows)

	got, err := repo.List(ctx(t), time.Time{}, time.Time{}, "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("want 2, got %d", len(got))
	}
	if got[0].EventID != "1" || got[1].EventID != "2" {
		t.Fatalf("unexpected ids: %v, %v", got[0].EventID, got[1].EventID)
	}
	b1, _ := json.Marshal(got[0].Metadata)
	if string(b1) != string(js) {
		t.Fatalf("metadata mismatch: %s vs %s", string(b1), string(js))
	}
	if got[1].Metadata != nil {
		t.Fatalf("expected nil meta, got %#v", got[1].Metadata)
	}
}

func TestEventList_WithFilters_OrderAndArgs(t *testing.T) {
	t.Parallel()

	repo, mock, cleanup := newMockEventRepo(t)
	defer cleanup()

	from := time.Date(2026, 8, 1, 11, 0, 0, 0, time.UTC)
	to := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	typ := " conn_error " // normalized to CONN_ERROR

	query := `SELECT id, occurred_at, type, message, meta FROM dashboard_events WHERE occurred_at >= ? AND occurred_at <= ? AND type = ? ORDER BY occurred_at ASC`

	rows := sqlmock.NewRows([]string{"id", "occurred_at", "type", "message", "meta"}).
		AddRow("2", from, "CONN_ERROR", "b", nil).
		AddRow("3", to, "CONN_ERROR", "c", nil)

	// The bounds must be bound as sqliteTimestampLayout strings, matching how
	// Append stores occurred_at: binding raw time.Time values would compare a
	// different text rendering and silently drop boundary rows.
	mock.ExpectQuery(regexp.QuoteMeta(query)).
		WithArgs("2026-08-01 11:00:00", "2026-08-01 12:00:00", "CONN_ERROR").
		WillReturnRows(rows)

	got, err := repo.List(ctx(t), from, to, typ)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 || got[0].EventID != "2" || got[1].EventID != "3" {
		t.Fatalf("unexpected results: %+v", got)
	}
}

func TestEventList_BoundsMatchStoredFormat(t *testing.T) {
	t.Parallel()

	repo, mock, cleanup := newMockEventRepo(t)
	defer cleanup()

	// A row stored at exactly the from instant must satisfy the inclusive
	// lower bound: both sides of the comparison use the same layout.
	at := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	stored := at.Format(sqliteTimestampLayout)

	rows := sqlmock.NewRows([]string{"id", "occurred_at", "type", "message", "meta"}).
		AddRow("1", at, "CONNECTED", "boundary", nil)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, occurred_at, type, message, meta FROM dashboard_events WHERE occurred_at >= ? ORDER BY occurred_at ASC`)).
		WithArgs(stored).
		WillReturnRows(rows)

	// Offset instants and non-UTC zones normalize to the same layout in UTC.
	local := at.In(time.FixedZone("UTC+5", 5*3600))
	got, err := repo.List(ctx(t), local, time.Time{}, "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 || got[0].EventID != "1" {
		t.Fatalf("boundary row must be included: %+v", got)
	}
}

func TestEventList_ScanError(t *testing.T) {
	t.Parallel()

	repo, mock, cleanup := newMockEventRepo(t)
	defer cleanup()

	rows := sqlmock.NewRows([]string{"id", "occurred_at", "type", "message", "meta"}).
		// occurred_at wrong type to force a scan error
		AddRow("x", 123, "CONNECTED", "msg", nil)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, occurred_at, type, message, meta FROM dashboard_events ORDER BY occurred_at ASC`)).
		WillReturnRows(rows)

	if _, err := repo.List(ctx(t), time.Time{}, time.Time{}, ""); err == nil {
		t.Fatalf("expected scan error, got nil")
	}
}

package audit

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mediguide-lk/mediguide/internal/advisory"
	"github.com/mediguide-lk/mediguide/internal/db"
	"github.com/mediguide-lk/mediguide/internal/orchestrator"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return NewStore(database)
}

func TestLogAndGetByID(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	entry := Entry{
		ID:         "test-1",
		ActorType:  ActorAdmin,
		ActorID:    "admin",
		Action:     ActionInquiryStatus,
		Subject:    "inq-1",
		Outcome:    OutcomeSuccess,
		Summary:    "Pending -> Reviewed",
		DurationMS: 12,
	}
	if err := store.Log(ctx, entry); err != nil {
		t.Fatalf("Log: %v", err)
	}

	got, err := store.GetByID(ctx, "test-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.ActorType != ActorAdmin || got.Action != ActionInquiryStatus || got.Subject != "inq-1" {
		t.Errorf("unexpected entry %+v", got)
	}
	if got.DurationMS != 12 || got.Summary != "Pending -> Reviewed" {
		t.Errorf("unexpected entry %+v", got)
	}
	if got.Timestamp.IsZero() {
		t.Error("expected a timestamp")
	}
}

func TestLogDefaults(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	if err := store.Log(ctx, Entry{Action: ActionLogin}); err != nil {
		t.Fatalf("Log: %v", err)
	}
	entries, err := store.Query(ctx, QueryFilter{})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	e := entries[0]
	if e.ID == "" || e.ActorType != ActorAnonymous || e.Outcome != OutcomeSuccess {
		t.Errorf("unexpected defaults %+v", e)
	}
}

func TestQueryFilters(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	seed := []Entry{
		{ActorType: ActorUser, ActorID: "alice", Action: AdvisoryAction(advisory.KindMedicineLookup), Outcome: OutcomeSuccess},
		{ActorType: ActorUser, ActorID: "bob", Action: AdvisoryAction(advisory.KindEmergencyAid), Outcome: OutcomeFailure},
		{ActorType: ActorUser, ActorID: "alice", Action: ActionLogin, Outcome: OutcomeSuccess},
	}
	for _, e := range seed {
		if err := store.Log(ctx, e); err != nil {
			t.Fatalf("Log: %v", err)
		}
	}

	tests := []struct {
		name   string
		filter QueryFilter
		want   int
	}{
		{"all", QueryFilter{}, 3},
		{"actor", QueryFilter{ActorID: "alice"}, 2},
		{"action", QueryFilter{Action: ActionLogin}, 1},
		{"prefix", QueryFilter{ActionPrefix: "advisory."}, 2},
		{"outcome", QueryFilter{Outcome: OutcomeFailure}, 1},
		{"limit", QueryFilter{Limit: 2}, 2},
		{"offset", QueryFilter{Limit: 2, Offset: 2}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.Query(ctx, tt.filter)
			if err != nil {
				t.Fatalf("Query: %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("got %d entries, want %d", len(got), tt.want)
			}
		})
	}
}

func TestDeleteBefore(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	old := time.Now().Add(-48 * time.Hour)
	store.Log(ctx, Entry{Action: ActionLogin, Timestamp: old})
	store.Log(ctx, Entry{Action: ActionLogin})

	n, err := store.DeleteBefore(ctx, time.Now().Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("DeleteBefore: %v", err)
	}
	if n != 1 {
		t.Errorf("deleted %d rows, want 1", n)
	}
}

func TestObserveOutcomes(t *testing.T) {
	gwErr := advisory.NewGatewayFailure(advisory.KindMedicineLookup, errors.New("upstream 503"))

	tests := []struct {
		name        string
		ev          orchestrator.Event
		wantOutcome Outcome
		wantActor   ActorType
		wantDetail  bool
	}{
		{
			name:        "success",
			ev:          orchestrator.Event{Request: advisory.Request{Kind: advisory.KindMedicineLookup, Text: "Panadol"}, Actor: "u1", Generation: 1, Result: &advisory.Result{}},
			wantOutcome: OutcomeSuccess,
			wantActor:   ActorUser,
		},
		{
			name:        "failure keeps cause",
			ev:          orchestrator.Event{Request: advisory.Request{Kind: advisory.KindMedicineLookup, Text: "Panadol"}, Generation: 2, Err: gwErr},
			wantOutcome: OutcomeFailure,
			wantActor:   ActorAnonymous,
			wantDetail:  true,
		},
		{
			name:        "rejected",
			ev:          orchestrator.Event{Request: advisory.Request{Kind: advisory.KindMedicineLookup}, Err: advisory.NewValidationError(advisory.KindMedicineLookup, "Please enter a medicine name.")},
			wantOutcome: OutcomeRejected,
			wantActor:   ActorAnonymous,
			wantDetail:  true,
		},
		{
			name:        "stale",
			ev:          orchestrator.Event{Request: advisory.Request{Kind: advisory.KindMedicineLookup, Text: "Panadol"}, Generation: 1, Stale: true, Result: &advisory.Result{}},
			wantOutcome: OutcomeStale,
			wantActor:   ActorAnonymous,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := setupStore(t)
			store.Observe(context.Background(), tt.ev)

			entries, err := store.Query(context.Background(), QueryFilter{})
			if err != nil {
				t.Fatalf("Query: %v", err)
			}
			if len(entries) != 1 {
				t.Fatalf("expected 1 entry, got %d", len(entries))
			}
			e := entries[0]
			if e.Outcome != tt.wantOutcome || e.ActorType != tt.wantActor {
				t.Errorf("outcome %q actor %q, want %q %q", e.Outcome, e.ActorType, tt.wantOutcome, tt.wantActor)
			}
			if e.Action != "advisory.medicine" {
				t.Errorf("Action = %q", e.Action)
			}
			if tt.wantDetail && e.Detail == "" {
				t.Error("expected the error detail to be recorded")
			}
		})
	}
}

func TestObserveSurvivesCancelledContext(t *testing.T) {
	store := setupStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store.Observe(ctx, orchestrator.Event{Request: advisory.Request{Kind: advisory.KindSymptomAnalysis, Text: "fever"}, Result: &advisory.Result{}})

	entries, _ := store.Query(context.Background(), QueryFilter{})
	if len(entries) != 1 {
		t.Errorf("expected the entry to be logged, got %d", len(entries))
	}
}

func setupRouter(t *testing.T) (*chi.Mux, *Store) {
	t.Helper()
	store := setupStore(t)
	r := chi.NewRouter()
	RegisterRoutes(r, store)
	return r, store
}

func TestHTTPQuery(t *testing.T) {
	r, store := setupRouter(t)
	ctx := context.Background()

	for _, actor := range []string{"alice", "bob", "alice"} {
		if err := store.Log(ctx, Entry{ActorType: ActorUser, ActorID: actor, Action: ActionLogin}); err != nil {
			t.Fatalf("Log: %v", err)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/admin/audit?actor=alice&limit=10", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var entries []Entry
	if err := json.NewDecoder(rec.Body).Decode(&entries); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("expected 2 entries for alice, got %d", len(entries))
	}
}

func TestHTTPGetByIDNotFound(t *testing.T) {
	r, _ := setupRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/audit/missing", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestParseFilter(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		wantErr bool
		check   func(QueryFilter) bool
	}{
		{"defaults", "", false, func(f QueryFilter) bool { return f.Limit == defaultPageSize && f.ActionPrefix == "" }},
		{"family", "family=advisory", false, func(f QueryFilter) bool { return f.ActionPrefix == "advisory." }},
		{"family with dot", "family=auth.", false, func(f QueryFilter) bool { return f.ActionPrefix == "auth." }},
		{"limit capped", "limit=10000", false, func(f QueryFilter) bool { return f.Limit == maxPageSize }},
		{"since", "since=2026-01-02T03:04:05Z", false, func(f QueryFilter) bool { return f.Since != nil && f.Since.Day() == 2 }},
		{"bad limit", "limit=0", true, nil},
		{"bad offset", "offset=-1", true, nil},
		{"bad outcome", "outcome=maybe", true, nil},
		{"bad until", "until=yesterday", true, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, _ := url.ParseQuery(tt.query)
			f, err := ParseFilter(q)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.check != nil && !tt.check(f) {
				t.Errorf("unexpected filter %+v", f)
			}
		})
	}
}

func TestHTTPQueryRejectsBadFilter(t *testing.T) {
	r, _ := setupRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/audit?outcome=maybe", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestHTTPPrune(t *testing.T) {
	r, store := setupRouter(t)
	ctx := context.Background()
	store.Log(ctx, Entry{Action: ActionLogin, Timestamp: time.Now().Add(-72 * time.Hour)})
	store.Log(ctx, Entry{Action: ActionLogin})

	before := url.QueryEscape(time.Now().Add(-24 * time.Hour).UTC().Format(time.RFC3339))
	req := httptest.NewRequest(http.MethodDelete, "/api/admin/audit?before="+before, nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	var body map[string]int64
	json.NewDecoder(rec.Body).Decode(&body)
	if body["deleted"] != 1 {
		t.Errorf("expected 1 deleted entry, got %v", body)
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/admin/audit", nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing before: status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

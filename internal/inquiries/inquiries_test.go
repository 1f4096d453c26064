package inquiries

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mediguide-lk/mediguide/internal/accounts"
	"github.com/mediguide-lk/mediguide/internal/notifications"
	"github.com/mediguide-lk/mediguide/internal/store"
)

func setupService(t *testing.T) (*Service, *notifications.Service) {
	t.Helper()
	kv := store.NewMemoryKV()
	notes := notifications.NewService(kv, nil)
	return NewService(kv, notes), notes
}

func validRequest(medicine, location string) SubmitRequest {
	return SubmitRequest{
		MedicineName: medicine,
		PricePaid:    "450",
		PharmacyName: "City Pharmacy",
		Location:     location,
		Date:         "2025-03-01",
	}
}

func TestSubmitCreatesPendingAndNotifies(t *testing.T) {
	svc, notes := setupService(t)
	ctx := context.Background()

	inq, err := svc.Submit(ctx, "u1", validRequest("Panadol", "Colombo"))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if inq.Status != StatusPending || inq.ID == "" || inq.UserID != "u1" {
		t.Errorf("unexpected inquiry %+v", inq)
	}

	got := notes.List(ctx, "u1")
	if len(got) != 1 || got[0].RelatedInquiryID != inq.ID || got[0].Type != notifications.TypeSuccess {
		t.Errorf("unexpected notifications %+v", got)
	}
}

func TestSubmitValidation(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	bad := []SubmitRequest{
		{PricePaid: "1", PharmacyName: "p"},
		{MedicineName: "m", PharmacyName: "p"},
		{MedicineName: "m", PricePaid: "1"},
		{MedicineName: "m", PricePaid: "1", PharmacyName: "p", Date: "01/03/2025"},
	}
	for _, req := range bad {
		if _, err := svc.Submit(ctx, "u1", req); !errors.Is(err, ErrInvalid) {
			t.Errorf("Submit(%+v) error = %v, want ErrInvalid", req, err)
		}
	}
}

func TestSubmitDefaultsDate(t *testing.T) {
	svc, _ := setupService(t)
	svc.now = func() time.Time { return time.Date(2025, 6, 7, 10, 0, 0, 0, time.UTC) }

	req := validRequest("Panadol", "")
	req.Date = ""
	inq, err := svc.Submit(context.Background(), "u1", req)
	if err != nil {
		t.Fatal(err)
	}
	if inq.Date != "2025-06-07" {
		t.Errorf("Date = %q, want 2025-06-07", inq.Date)
	}
}

func TestListForUser(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	svc.Submit(ctx, "u1", validRequest("A", ""))
	svc.Submit(ctx, "u2", validRequest("B", ""))
	svc.Submit(ctx, "u1", validRequest("C", ""))

	if got := svc.ListForUser(ctx, "u1"); len(got) != 2 {
		t.Errorf("expected 2 inquiries for u1, got %d", len(got))
	}
	if got := svc.List(ctx, ""); len(got) != 3 {
		t.Errorf("expected 3 inquiries, got %d", len(got))
	}
	if got := svc.List(ctx, StatusReviewed); len(got) != 0 {
		t.Errorf("expected no reviewed inquiries, got %d", len(got))
	}
}

func TestUpdateStatusForwardOnly(t *testing.T) {
	svc, notes := setupService(t)
	ctx := context.Background()
	inq, _ := svc.Submit(ctx, "u1", validRequest("Panadol", "Kandy"))

	updated, err := svc.UpdateStatus(ctx, "admin", inq.ID, StatusReviewed)
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if updated.Status != StatusReviewed {
		t.Errorf("Status = %q", updated.Status)
	}

	for _, st := range []Status{StatusPending, StatusReviewed, "Closed"} {
		if _, err := svc.UpdateStatus(ctx, "admin", inq.ID, st); !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("UpdateStatus(%q) error = %v, want ErrInvalidTransition", st, err)
		}
	}
	if _, err := svc.UpdateStatus(ctx, "admin", inq.ID, StatusActionTaken); err != nil {
		t.Errorf("UpdateStatus(Action Taken): %v", err)
	}
	if _, err := svc.UpdateStatus(ctx, "admin", "missing", StatusActionTaken); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	got := notes.List(ctx, "u1")
	if len(got) != 3 {
		t.Fatalf("expected 3 notifications, got %d", len(got))
	}
	for _, n := range got {
		if n.RelatedInquiryID != inq.ID {
			t.Errorf("notification %q not linked to the inquiry", n.Title)
		}
	}
}

func TestUpdateStatusSkipsReviewed(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()
	inq, _ := svc.Submit(ctx, "u1", validRequest("Panadol", ""))

	if _, err := svc.UpdateStatus(ctx, "admin", inq.ID, StatusActionTaken); err != nil {
		t.Errorf("any forward move should be allowed: %v", err)
	}
}

func TestAnalytics(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	seed := []struct{ medicine, location string }{
		{"Panadol", "Colombo"}, {"Panadol", "Kandy"}, {"Panadol", ""},
		{"Amoxicillin", "Colombo"}, {"Amoxicillin", "Colombo"},
		{"Zinc", ""}, {"Cetirizine", "Galle"}, {"Metformin", "Galle"}, {"Aspirin", "Jaffna"},
	}
	var first *Inquiry
	for _, s := range seed {
		inq, err := svc.Submit(ctx, "u1", validRequest(s.medicine, s.location))
		if err != nil {
			t.Fatal(err)
		}
		if first == nil {
			first = inq
		}
	}
	svc.UpdateStatus(ctx, "admin", first.ID, StatusReviewed)

	a := svc.Analytics(ctx)
	if a.Total != 9 {
		t.Errorf("Total = %d, want 9", a.Total)
	}
	if a.StatusDistribution != (StatusDistribution{Pending: 8, Reviewed: 1}) {
		t.Errorf("StatusDistribution = %+v", a.StatusDistribution)
	}
	if len(a.TopMedicines) != TopMedicineLimit {
		t.Fatalf("expected %d top medicines, got %d", TopMedicineLimit, len(a.TopMedicines))
	}
	want := []MedicineCount{{"Panadol", 3}, {"Amoxicillin", 2}, {"Aspirin", 1}, {"Cetirizine", 1}, {"Metformin", 1}}
	for i, w := range want {
		if a.TopMedicines[i] != w {
			t.Errorf("TopMedicines[%d] = %+v, want %+v", i, a.TopMedicines[i], w)
		}
	}
	if a.Locations[UnknownLocation] != 2 || a.Locations["Colombo"] != 3 {
		t.Errorf("Locations = %v", a.Locations)
	}
}

func TestAnalyticsEmpty(t *testing.T) {
	svc, _ := setupService(t)
	a := svc.Analytics(context.Background())
	if a.Total != 0 || a.TopMedicines == nil || a.Locations == nil {
		t.Errorf("unexpected empty analytics %+v", a)
	}
}

func setupRouter(t *testing.T) (*chi.Mux, *Service) {
	t.Helper()
	svc, _ := setupService(t)
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if role := req.Header.Get("X-Test-Role"); role != "" {
				c := &accounts.Claims{UserID: req.Header.Get("X-Test-User"), Role: accounts.Role(role)}
				req = req.WithContext(accounts.WithClaims(req.Context(), c))
			}
			next.ServeHTTP(w, req)
		})
	})
	RegisterRoutes(r, svc)
	return r, svc
}

func send(r http.Handler, method, path, role, user string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if role != "" {
		req.Header.Set("X-Test-Role", role)
		req.Header.Set("X-Test-User", user)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHTTPSubmitAndReview(t *testing.T) {
	r, _ := setupRouter(t)

	rec := send(r, http.MethodPost, "/api/inquiries", "USER", "u1", validRequest("Panadol", "Colombo"))
	if rec.Code != http.StatusCreated {
		t.Fatalf("submit status = %d, body %s", rec.Code, rec.Body.String())
	}
	var inq Inquiry
	json.NewDecoder(rec.Body).Decode(&inq)

	rec = send(r, http.MethodPut, "/api/admin/inquiries/"+inq.ID+"/status", "USER", "u1", map[string]string{"status": "Reviewed"})
	if rec.Code != http.StatusForbidden {
		t.Errorf("user status change = %d, want 403", rec.Code)
	}

	rec = send(r, http.MethodPut, "/api/admin/inquiries/"+inq.ID+"/status", "ADMIN", "admin", map[string]string{"status": "Reviewed"})
	if rec.Code != http.StatusOK {
		t.Fatalf("admin status change = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = send(r, http.MethodPut, "/api/admin/inquiries/"+inq.ID+"/status", "ADMIN", "admin", map[string]string{"status": "Pending"})
	if rec.Code != http.StatusConflict {
		t.Errorf("backward status change = %d, want 409", rec.Code)
	}

	rec = send(r, http.MethodGet, "/api/admin/analytics", "ADMIN", "admin", nil)
	var a Analytics
	json.NewDecoder(rec.Body).Decode(&a)
	if a.Total != 1 || a.StatusDistribution.Reviewed != 1 {
		t.Errorf("unexpected analytics %+v", a)
	}

	rec = send(r, http.MethodGet, "/api/inquiries", "USER", "u1", nil)
	var mine []Inquiry
	json.NewDecoder(rec.Body).Decode(&mine)
	if len(mine) != 1 || mine[0].Status != StatusReviewed {
		t.Errorf("unexpected user listing %+v", mine)
	}
}

func TestHTTPAnonymousRejected(t *testing.T) {
	r, _ := setupRouter(t)
	if rec := send(r, http.MethodGet, "/api/inquiries", "", "", nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	if rec := send(r, http.MethodGet, "/api/admin/inquiries?status=Bogus", "ADMIN", "admin", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

package inquiries

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mediguide-lk/mediguide/internal/accounts"
)

// RegisterRoutes mounts /api/inquiries for signed-in users and the admin
// listing, status and analytics endpoints.
func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/api/inquiries", func(r chi.Router) {
		r.Use(accounts.RequireUser)
		r.Get("/", handleListMine(svc))
		r.Post("/", handleSubmit(svc))
	})
	r.Group(func(r chi.Router) {
		r.Use(accounts.RequireAdmin)
		r.Get("/api/admin/inquiries", handleListAll(svc))
		r.Get("/api/admin/inquiries/{id}", handleGet(svc))
		r.Put("/api/admin/inquiries/{id}/status", handleUpdateStatus(svc))
		r.Get("/api/admin/analytics", handleAnalytics(svc))
	})
}

func handleListMine(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.ListForUser(r.Context(), accounts.ClaimsFrom(r.Context()).UserID))
	}
}

func handleSubmit(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SubmitRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		inq, err := svc.Submit(r.Context(), accounts.ClaimsFrom(r.Context()).UserID, req)
		if errors.Is(err, ErrInvalid) {
			writeError(w, http.StatusBadRequest, ErrInvalid.Error())
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusCreated, inq)
	}
}

func handleListAll(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var status Status
		if v := r.URL.Query().Get("status"); v != "" {
			st, ok := ParseStatus(v)
			if !ok {
				writeError(w, http.StatusBadRequest, "unknown status")
				return
			}
			status = st
		}
		writeJSON(w, http.StatusOK, svc.List(r.Context(), status))
	}
}

func handleGet(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		inq, err := svc.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, inq)
	}
}

func handleUpdateStatus(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Status Status `json:"status"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		actor := accounts.ClaimsFrom(r.Context()).UserID
		inq, err := svc.UpdateStatus(r.Context(), actor, chi.URLParam(r, "id"), body.Status)
		switch {
		case errors.Is(err, ErrNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, ErrInvalidTransition):
			writeError(w, http.StatusConflict, err.Error())
		case err != nil:
			writeError(w, http.StatusInternalServerError, err.Error())
		default:
			writeJSON(w, http.StatusOK, inq)
		}
	}
}

func handleAnalytics(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.Analytics(r.Context()))
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

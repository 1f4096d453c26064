package notifications

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mediguide-lk/mediguide/internal/accounts"
)

// RegisterRoutes mounts the signed-in user's notification endpoints under
// /api/notifications.
func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/api/notifications", func(r chi.Router) {
		r.Use(accounts.RequireUser)
		r.Get("/", handleList(svc))
		r.Get("/unread", handleUnread(svc))
		r.Post("/read-all", handleMarkAllRead(svc))
		r.Post("/{id}/read", handleMarkRead(svc))
	})
}

func handleList(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := accounts.ClaimsFrom(r.Context()).UserID
		writeJSON(w, http.StatusOK, map[string]any{
			"notifications": svc.List(r.Context(), userID),
			"unread":        svc.UnreadCount(r.Context(), userID),
		})
	}
}

func handleUnread(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := accounts.ClaimsFrom(r.Context()).UserID
		writeJSON(w, http.StatusOK, map[string]int{"unread": svc.UnreadCount(r.Context(), userID)})
	}
}

func handleMarkRead(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := accounts.ClaimsFrom(r.Context()).UserID
		err := svc.MarkRead(r.Context(), userID, chi.URLParam(r, "id"))
		switch {
		case errors.Is(err, ErrNotFound):
			http.Error(w, "not found", http.StatusNotFound)
		case err != nil:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		default:
			w.WriteHeader(http.StatusNoContent)
		}
	}
}

func handleMarkAllRead(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := accounts.ClaimsFrom(r.Context()).UserID
		n, err := svc.MarkAllRead(r.Context(), userID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{"marked": n})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

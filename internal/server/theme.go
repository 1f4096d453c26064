package server

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mediguide-lk/mediguide/internal/accounts"
	"github.com/mediguide-lk/mediguide/internal/audit"
	"github.com/mediguide-lk/mediguide/internal/store"
)

type themeBody struct {
	Theme string `json:"theme"`
}

func registerThemeRoutes(r chi.Router, kv store.KV, logger audit.Logger) {
	r.Get("/api/theme", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, themeBody{Theme: string(store.LoadTheme(r.Context(), kv))})
	})
	r.Put("/api/theme", func(w http.ResponseWriter, r *http.Request) {
		var body themeBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
		theme, err := store.ParseTheme(body.Theme)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		if err := store.SaveTheme(r.Context(), kv, theme); err != nil {
			log.Printf("server: saving theme: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to save theme"})
			return
		}

		entry := audit.Entry{Action: audit.ActionThemeChanged, Subject: string(theme)}
		if c := accounts.ClaimsFrom(r.Context()); c != nil {
			entry.ActorType, entry.ActorID = audit.ActorUser, c.UserID
		}
		if err := logger.Log(r.Context(), entry); err != nil {
			log.Printf("server: audit: %v", err)
		}
		writeJSON(w, http.StatusOK, themeBody{Theme: string(theme)})
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

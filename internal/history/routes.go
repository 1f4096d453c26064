package history

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mediguide-lk/mediguide/internal/accounts"
	"github.com/mediguide-lk/mediguide/internal/advisory"
)

// RegisterRoutes mounts GET /api/history/search. Anonymous callers search
// the anonymous history.
func RegisterRoutes(r chi.Router, x *Index) {
	r.Get("/api/history/search", handleSearch(x))
}

func handleSearch(x *Index) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := Query{Text: strings.TrimSpace(r.URL.Query().Get("q"))}
		if q.Text == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing q parameter"})
			return
		}
		if v := r.URL.Query().Get("kind"); v != "" {
			kind, ok := advisory.ParseKind(v)
			if !ok {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown advisory kind"})
				return
			}
			q.Kind = kind
		}
		if v := r.URL.Query().Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				q.Limit = n
			}
		}
		if c := accounts.ClaimsFrom(r.Context()); c != nil {
			q.Actor = c.UserID
		}

		hits, err := x.Search(r.Context(), q)
		if err != nil {
			log.Printf("history: search: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "search failed"})
			return
		}
		writeJSON(w, http.StatusOK, hits)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

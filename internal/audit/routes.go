package audit

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
)

const (
	defaultPageSize = 100
	maxPageSize     = 500
)

// RegisterRoutes mounts the admin audit endpoints under /api/admin/audit.
// The caller guards the router with an admin check.
func RegisterRoutes(r chi.Router, store *Store) {
	r.Route("/api/admin/audit", func(r chi.Router) {
		r.Get("/", handleQuery(store))
		r.Delete("/", handlePrune(store))
		r.Get("/{id}", handleGetByID(store))
	})
}

// FamilyPrefix turns a family name such as "advisory" into the action
// prefix it covers.
func FamilyPrefix(family string) string {
	if family == "" {
		return ""
	}
	return strings.TrimSuffix(family, ".") + "."
}

// ParseFilter reads a QueryFilter from query parameters: actor, action,
// family, outcome, since, until (RFC 3339), limit and offset.
func ParseFilter(q url.Values) (QueryFilter, error) {
	f := QueryFilter{
		ActorID:      q.Get("actor"),
		Action:       Action(q.Get("action")),
		ActionPrefix: FamilyPrefix(q.Get("family")),
		Outcome:      Outcome(q.Get("outcome")),
		Limit:        defaultPageSize,
	}
	switch f.Outcome {
	case "", OutcomeSuccess, OutcomeFailure, OutcomeRejected, OutcomeStale:
	default:
		return f, fmt.Errorf("unknown outcome %q", f.Outcome)
	}

	for name, dst := range map[string]**time.Time{"since": &f.Since, "until": &f.Until} {
		v := q.Get(name)
		if v == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return f, fmt.Errorf("%s must be RFC 3339", name)
		}
		*dst = &t
	}

	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return f, fmt.Errorf("limit must be a positive integer")
		}
		f.Limit = min(n, maxPageSize)
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return f, fmt.Errorf("offset must be a non-negative integer")
		}
		f.Offset = n
	}
	return f, nil
}

func handleQuery(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := ParseFilter(r.URL.Query())
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		entries, err := store.Query(r.Context(), filter)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "audit query failed"})
			return
		}
		writeJSON(w, http.StatusOK, entries)
	}
}

// handlePrune deletes entries older than ?before=<RFC 3339>.
func handlePrune(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		before, err := time.Parse(time.RFC3339, r.URL.Query().Get("before"))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "before must be RFC 3339"})
			return
		}
		n, err := store.DeleteBefore(r.Context(), before)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "audit prune failed"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]int64{"deleted": n})
	}
}

func handleGetByID(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entry, err := store.GetByID(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "audit entry not found"})
			return
		}
		writeJSON(w, http.StatusOK, entry)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

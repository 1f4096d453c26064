package orchestrator

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mediguide-lk/mediguide/internal/advisory"
	"github.com/mediguide-lk/mediguide/internal/curated"
	"github.com/mediguide-lk/mediguide/internal/report"
)

// RegisterRoutes mounts the advisory endpoints and the /ws/advisory stream.
func RegisterRoutes(r chi.Router, o *Orchestrator) {
	r.Route("/api/advisory", func(r chi.Router) {
		r.Get("/", handleStates(o))
		r.Get("/{kind}", handleState(o))
		r.Post("/{kind}", handleSubmit(o))
	})
	r.Get("/api/emergency/situations", handleSituations())
	r.Get("/ws/advisory", handleStream(o))
}

type situationView struct {
	Key     string `json:"key"`
	English string `json:"english"`
	Sinhala string `json:"sinhala"`
}

func handleSituations() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out := make([]situationView, 0, len(curated.All()))
		for _, s := range curated.All() {
			out = append(out, situationView{
				Key:     string(s),
				English: curated.Label(s, advisory.English),
				Sinhala: curated.Label(s, advisory.Sinhala),
			})
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"situations":      out,
			"emergencyNumber": advisory.EmergencyNumber,
		})
	}
}

// Slot reads are per user; anonymous callers have no slots of their own.
func handleStates(o *Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := actorFrom(r.Context())
		if actor == "" {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		writeJSON(w, http.StatusOK, o.States(actor))
	}
}

func handleState(o *Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind, ok := advisory.ParseKind(chi.URLParam(r, "kind"))
		if !ok {
			writeError(w, http.StatusNotFound, "unknown advisory kind")
			return
		}
		actor := actorFrom(r.Context())
		if actor == "" {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		writeJSON(w, http.StatusOK, o.State(actor, kind))
	}
}

func handleSubmit(o *Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind, ok := advisory.ParseKind(chi.URLParam(r, "kind"))
		if !ok {
			writeError(w, http.StatusNotFound, "unknown advisory kind")
			return
		}

		var req advisory.Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		req.Kind = kind

		res, err := o.Submit(r.Context(), req)
		if err != nil {
			writeError(w, StatusCode(err), advisory.UserMessage(err))
			return
		}

		if r.URL.Query().Get("format") == "html" {
			page, err := report.HTML(res)
			if err != nil {
				writeError(w, http.StatusInternalServerError, "rendering failed")
				return
			}
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(page))
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// StatusCode maps an advisory error to an HTTP status.
func StatusCode(err error) int {
	var ae *advisory.AdvisoryError
	if !errors.As(err, &ae) {
		return http.StatusInternalServerError
	}
	switch ae.Kind {
	case advisory.ValidationError:
		return http.StatusBadRequest
	case advisory.GatewayFailure, advisory.EmergencyFallbackExhausted:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

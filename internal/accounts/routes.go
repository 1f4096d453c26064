package accounts

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
)

type sessionResponse struct {
	Token string `json:"token"`
	*Session
}

// RegisterRoutes mounts the auth endpoints under /api/auth and the user
// listing under /api/admin/users. Middleware must already be installed on r.
func RegisterRoutes(r chi.Router, svc *Service, issuer *TokenIssuer) {
	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/signup", handleSignup(svc, issuer))
		r.Post("/login", handleLogin(svc, issuer))
		r.Group(func(r chi.Router) {
			r.Use(RequireUser)
			r.Get("/me", handleMe(svc))
			r.Post("/onboarding/complete", handleOnboarding(svc))
		})
	})
	r.With(RequireAdmin).Get("/api/admin/users", handleUsers(svc))
}

func handleSignup(svc *Service, issuer *TokenIssuer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SignupRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		sess, err := svc.Signup(r.Context(), req)
		switch {
		case errors.Is(err, ErrMissingFields):
			writeError(w, http.StatusBadRequest, ErrMissingFields.Error())
			return
		case errors.Is(err, ErrEmailTaken):
			writeError(w, http.StatusConflict, err.Error())
			return
		case err != nil:
			log.Printf("accounts: signup: %v", err)
			writeError(w, http.StatusInternalServerError, "signup failed")
			return
		}
		writeSession(w, http.StatusCreated, issuer, sess)
	}
}

func handleLogin(svc *Service, issuer *TokenIssuer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		sess, err := svc.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			writeError(w, http.StatusUnauthorized, ErrInvalidCredentials.Error())
			return
		}
		writeSession(w, http.StatusOK, issuer, sess)
	}
}

func handleMe(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := ClaimsFrom(r.Context())
		if c.IsAdmin() {
			writeJSON(w, http.StatusOK, Session{Role: RoleAdmin, User: UserProfile{ID: c.UserID, FullName: c.Name, Email: c.Email}})
			return
		}
		u, err := svc.Get(r.Context(), c.UserID)
		if err != nil {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, Session{Role: RoleUser, User: u, ShowOnboarding: !svc.onboarded(r.Context(), u.ID)})
	}
}

func handleOnboarding(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.CompleteOnboarding(r.Context(), ClaimsFrom(r.Context()).UserID); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleUsers(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.Users(r.Context()))
	}
}

func writeSession(w http.ResponseWriter, status int, issuer *TokenIssuer, sess *Session) {
	token, err := issuer.Issue(sess)
	if err != nil {
		log.Printf("accounts: %v", err)
		writeError(w, http.StatusInternalServerError, "could not start session")
		return
	}
	writeJSON(w, status, sessionResponse{Token: token, Session: sess})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

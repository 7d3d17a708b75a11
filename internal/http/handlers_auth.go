package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/Djeyff/bamboojam-os/internal/auth"
)

// handleLoginPage renders the PIN form. An already-authenticated caller (or
// an open gate) goes straight home.
func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.gate.Open() || auth.RoleFrom(r.Context()).Known() {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	s.render(w, r, "login.html", nil)
}

type loginRequest struct {
	PIN string `json:"pin"`
}

// handleLoginAPI exchanges a PIN for a session cookie (POST) or revokes the
// session (DELETE).
func (s *Server) handleLoginAPI(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.login(w, r)
	case http.MethodDelete:
		s.logout(w, r)
	default:
		w.Header().Set("Allow", "POST, DELETE")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}

	role := s.gate.Resolve(req.PIN)
	if !role.Known() {
		slog.WarnContext(r.Context(), "Login rejected")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"invalid pin"}`))
		return
	}

	http.SetCookie(w, s.gate.IssueSession(role))
	slog.InfoContext(r.Context(), "Login succeeded", "role", string(role))

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"role": string(role)})
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, s.gate.RevokeSession())
	slog.InfoContext(r.Context(), "Session revoked")
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"ok":true}`))
}

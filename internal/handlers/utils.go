package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/jason-s-yu/rachel/internal/game"
)

const authCookie = "auth_token"

// tokenFromRequest looks for a token in the auth cookie, a bearer header, then the token
// query parameter. Browsers cannot set headers on websocket upgrades, hence the fallbacks.
func tokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(authCookie); err == nil && c.Value != "" {
		return c.Value
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return r.URL.Query().Get("token")
}

// authenticate resolves the caller, writing a 401 when it fails.
func (s *Server) authenticate(w http.ResponseWriter, r *http.Request) (uuid.UUID, string, bool) {
	token := tokenFromRequest(r)
	if token == "" {
		http.Error(w, "missing auth_token", http.StatusUnauthorized)
		return uuid.Nil, "", false
	}
	id, name, err := s.Issuer.Authenticate(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return uuid.Nil, "", false
	}
	return id, name, true
}

func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid game id", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

// decodeBody accepts an empty body as the zero value.
func decodeBody(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// statusFor maps a command rejection onto an HTTP status.
func statusFor(e *game.Error) int {
	switch e.Kind {
	case game.KindValidation:
		if e.Code == game.ErrUnknownPlayer.Code {
			return http.StatusForbidden
		}
		return http.StatusUnprocessableEntity
	case game.KindCapacity:
		return http.StatusConflict
	case game.KindSession:
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// writeError sends a structured game error as JSON.
func writeError(w http.ResponseWriter, err error) {
	e := game.AsError(err)
	writeJSON(w, statusFor(e), map[string]interface{}{"error": e})
}

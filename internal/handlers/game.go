// internal/handlers/game.go
package handlers

import (
	"net/http"
	"strings"

	"github.com/jason-s-yu/rachel/internal/ai"
	"github.com/jason-s-yu/rachel/internal/session"
)

type guestRequest struct {
	Name string `json:"name"`
}

type guestResponse struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
	Token    string `json:"token"`
}

// GuestHandler issues a token for a fresh player id and sets it as the auth cookie.
func (s *Server) GuestHandler(w http.ResponseWriter, r *http.Request) {
	var req guestRequest
	if err := decodeBody(r, &req); err != nil {
		http.Error(w, "bad guest request payload", http.StatusBadRequest)
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = "Guest"
	}
	if len(name) > 32 {
		name = name[:32]
	}

	id, token, err := s.Issuer.Guest(name)
	if err != nil {
		s.Logger.WithError(err).Error("failed to issue guest token")
		http.Error(w, "could not issue token", http.StatusInternalServerError)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     authCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, guestResponse{PlayerID: id.String(), Name: name, Token: token})
}

type createGameRequest struct {
	MaxPlayers int      `json:"maxPlayers"`
	HandSize   int      `json:"handSize"`
	Seed       int64    `json:"seed"`
	AI         []string `json:"ai"`
}

// CreateGameHandler creates a session hosted and joined by the caller. AI seats named in the
// request are filled immediately.
func (s *Server) CreateGameHandler(w http.ResponseWriter, r *http.Request) {
	playerID, name, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	var req createGameRequest
	if err := decodeBody(r, &req); err != nil {
		http.Error(w, "bad game request payload", http.StatusBadRequest)
		return
	}
	seats := make([]ai.Type, 0, len(req.AI))
	for _, raw := range req.AI {
		t, err := ai.ParseType(raw)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		seats = append(seats, t)
	}

	id, err := s.Manager.Create(session.Config{
		MaxPlayers: req.MaxPlayers,
		HandSize:   req.HandSize,
		Seed:       req.Seed,
		HostID:     playerID,
		AISeats:    seats,
	})
	if err != nil {
		s.Logger.WithError(err).Warn("create game failed")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	view, err := s.Manager.Join(r.Context(), id, playerID, name)
	if err != nil {
		s.Manager.Stop(id)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"sessionId": id,
		"state":     view,
	})
}

// ListGamesHandler lists every live session.
func (s *Server) ListGamesHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Manager.List())
}

// GameStateHandler returns the caller's view of a session.
func (s *Server) GameStateHandler(w http.ResponseWriter, r *http.Request) {
	playerID, _, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	sess, err := s.Manager.Session(id)
	if err != nil {
		writeError(w, err)
		return
	}
	view, err := sess.Snapshot(r.Context(), playerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// JoinGameHandler seats the caller.
func (s *Server) JoinGameHandler(w http.ResponseWriter, r *http.Request) {
	playerID, name, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	view, err := s.Manager.Join(r.Context(), id, playerID, name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

type addAIRequest struct {
	Personality string `json:"personality"`
}

// AddAIHandler seats an AI player. Only the host may add seats.
func (s *Server) AddAIHandler(w http.ResponseWriter, r *http.Request) {
	playerID, _, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req addAIRequest
	if err := decodeBody(r, &req); err != nil {
		http.Error(w, "bad ai request payload", http.StatusBadRequest)
		return
	}
	t := ai.Balanced
	if req.Personality != "" {
		var err error
		if t, err = ai.ParseType(req.Personality); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}
	sess, err := s.Manager.Session(id)
	if err != nil {
		writeError(w, err)
		return
	}
	if sess.Summary().HostID != playerID {
		http.Error(w, "only the host can add AI players", http.StatusForbidden)
		return
	}
	botID, err := sess.AddAI(r.Context(), t)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"playerId": botID, "personality": t})
}

// StartGameHandler deals the game on behalf of the host.
func (s *Server) StartGameHandler(w http.ResponseWriter, r *http.Request) {
	playerID, _, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	view, err := s.Manager.Start(r.Context(), id, playerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

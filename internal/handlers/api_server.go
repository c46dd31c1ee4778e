// internal/handlers/api_server.go
package handlers

import (
	"net/http"

	"github.com/jason-s-yu/rachel/internal/auth"
	"github.com/jason-s-yu/rachel/internal/middleware"
	"github.com/jason-s-yu/rachel/internal/session"
	"github.com/sirupsen/logrus"
)

// Server exposes sessions over HTTP and websocket.
type Server struct {
	Manager *session.Manager
	Issuer  *auth.Issuer
	Logger  logrus.FieldLogger
}

func NewServer(mgr *session.Manager, issuer *auth.Issuer, logger logrus.FieldLogger) *Server {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Server{Manager: mgr, Issuer: issuer, Logger: logger}
}

// Routes builds the mux with request logging applied to every endpoint.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	// player endpoints
	mux.HandleFunc("POST /player/guest", s.GuestHandler)

	// game endpoints
	mux.HandleFunc("POST /game/create", s.CreateGameHandler)
	mux.HandleFunc("GET /game/list", s.ListGamesHandler)
	mux.HandleFunc("GET /game/{id}", s.GameStateHandler)
	mux.HandleFunc("POST /game/{id}/join", s.JoinGameHandler)
	mux.HandleFunc("POST /game/{id}/ai", s.AddAIHandler)
	mux.HandleFunc("POST /game/{id}/start", s.StartGameHandler)

	// game websocket
	mux.HandleFunc("GET /game/ws/{id}", s.GameWSHandler)

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	return middleware.LogMiddleware(s.Logger)(mux)
}

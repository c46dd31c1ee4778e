// internal/handlers/game_ws.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/jason-s-yu/rachel/internal/card"
	"github.com/jason-s-yu/rachel/internal/game"
	"github.com/jason-s-yu/rachel/internal/middleware"
	"github.com/jason-s-yu/rachel/internal/session"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// GameMessage is a command sent by a client over the game websocket.
type GameMessage struct {
	Type string `json:"type"`

	// Indices are hand positions for "play", in play order.
	Indices []int `json:"indices,omitempty"`
	// Cards may be sent instead of Indices.
	Cards []card.Card `json:"cards,omitempty"`
	// Suit completes an Ace play for "nominate".
	Suit string `json:"suit,omitempty"`
}

// errorMessage is sent back when a command is rejected. State is untouched in that case.
type errorMessage struct {
	Type   string      `json:"type"`
	Action string      `json:"action"`
	Error  *game.Error `json:"error"`
}

const writeTimeout = 5 * time.Second

// GameWSHandler upgrades the connection for a seated player. Session events are streamed to the
// client and client messages are forwarded to the session as commands. Closing the socket marks
// the player disconnected; the seat is kept for a reconnect.
func (s *Server) GameWSHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	sess, err := s.Manager.Session(id)
	if err != nil {
		http.Error(w, "Game not found", http.StatusNotFound)
		return
	}

	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		Subprotocols:   []string{"game"},
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		s.Logger.WithError(err).WithField("session", id).Warn("websocket accept failed")
		return
	}
	defer c.Close(websocket.StatusInternalError, "Internal server error during handler exit.")

	if c.Subprotocol() != "game" {
		c.Close(BadSubprotocolError, "Client must use the 'game' subprotocol.")
		return
	}

	token := tokenFromRequest(r)
	playerID, _, err := s.Issuer.Authenticate(token)
	if err != nil {
		c.Close(InvalidAuthTokenError, "Authentication failed.")
		return
	}

	log := s.Logger.WithFields(logrus.Fields{"session": id, "player": playerID})
	if _, err := sess.Reconnect(r.Context(), playerID); err != nil {
		if errors.Is(err, game.ErrUnknownPlayer) {
			c.Close(InvalidUserIDError, "You are not a player in this game.")
		} else {
			c.Close(InvalidGameIDError, "Game is no longer available.")
		}
		return
	}
	middleware.LogWebSocketConnect(s.Logger, r.RemoteAddr, r.URL.Path)

	sub, err := sess.Subscribe(r.Context(), playerID)
	if err != nil {
		c.Close(InvalidGameIDError, "Game is no longer available.")
		return
	}

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error { return writeGameEvents(ctx, c, sub) })
	g.Go(func() error { return s.readGameMessages(ctx, c, sess, playerID, log) })
	err = g.Wait()
	if errors.Is(err, errClientClosed) {
		err = nil
	}

	sess.Unsubscribe(sub)
	dctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if derr := sess.Disconnect(dctx, playerID); derr != nil && !errors.Is(derr, game.ErrSessionUnavailable) {
		log.WithError(derr).Warn("failed to mark player disconnected")
	}
	middleware.LogWebSocketDisconnect(s.Logger, r.RemoteAddr, r.URL.Path, err)

	c.Close(websocket.StatusNormalClosure, "")
}

var (
	errSessionEnded = errors.New("session ended")
	errClientClosed = errors.New("client closed")
)

// writeGameEvents forwards subscription events until the session stops or ctx ends. The
// connection is closed here when the session goes away.
func writeGameEvents(ctx context.Context, c *websocket.Conn, sub *session.Subscription) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-sub.Events():
			if !ok {
				c.Close(SessionEndedError, "Session ended.")
				return errSessionEnded
			}
			if err := sendWsMessage(ctx, c, ev); err != nil {
				return err
			}
		}
	}
}

// readGameMessages forwards client commands to the session. Rejections are reported to the
// sender only; successful commands are visible through the event stream.
func (s *Server) readGameMessages(ctx context.Context, c *websocket.Conn, sess *session.Session, playerID uuid.UUID, log logrus.FieldLogger) error {
	for {
		msgType, data, err := c.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				return errClientClosed
			}
			return err
		}
		if msgType != websocket.MessageText {
			continue
		}

		var msg GameMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			log.WithError(err).Debug("invalid JSON from client")
			if err := sendWsMessage(ctx, c, errorMessage{Type: "error", Error: game.ErrInvalidPlay.WithReason("invalid JSON format")}); err != nil {
				return err
			}
			continue
		}

		if err := s.dispatch(ctx, c, sess, playerID, msg); err != nil {
			if errors.Is(err, game.ErrSessionUnavailable) {
				return errSessionEnded
			}
			var ge *game.Error
			if errors.As(err, &ge) {
				if werr := sendWsMessage(ctx, c, errorMessage{Type: "error", Action: msg.Type, Error: ge}); werr != nil {
					return werr
				}
				continue
			}
			return err
		}
	}
}

func (s *Server) dispatch(ctx context.Context, c *websocket.Conn, sess *session.Session, playerID uuid.UUID, msg GameMessage) error {
	var err error
	switch msg.Type {
	case "play":
		if len(msg.Cards) > 0 {
			_, err = sess.PlayCards(ctx, playerID, msg.Cards)
		} else {
			_, err = sess.Play(ctx, playerID, msg.Indices)
		}
	case "draw":
		_, err = sess.Draw(ctx, playerID)
	case "nominate":
		suit, perr := card.ParseSuit(msg.Suit)
		if perr != nil {
			return game.ErrInvalidSuitNomination.WithReason("%v", perr)
		}
		_, err = sess.Nominate(ctx, playerID, suit)
	case "start":
		_, err = sess.Start(ctx, playerID)
	case "state":
		var v game.View
		if v, err = sess.Snapshot(ctx, playerID); err == nil {
			return sendWsMessage(ctx, c, map[string]interface{}{"type": "state", "state": v})
		}
	case "ping":
		return sendWsMessage(ctx, c, map[string]string{"type": "pong"})
	default:
		return game.ErrInvalidPlay.WithReason("unknown action type %q", msg.Type)
	}
	return err
}

// sendWsMessage marshals a message and writes it with a timeout.
func sendWsMessage(ctx context.Context, c *websocket.Conn, message interface{}) error {
	msgBytes, err := json.Marshal(message)
	if err != nil {
		return err
	}
	writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return c.Write(writeCtx, websocket.MessageText, msgBytes)
}

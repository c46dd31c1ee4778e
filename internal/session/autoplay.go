// internal/session/autoplay.go
package session

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/jason-s-yu/rachel/internal/ai"
	"github.com/jason-s-yu/rachel/internal/game"
	"github.com/sirupsen/logrus"
)

// addAI seats a new AI player. Runs on the session goroutine, or before it starts.
func (s *Session) addAI(t ai.Type) (uuid.UUID, error) {
	p := ai.Preset(t)
	id := uuid.New()
	name := fmt.Sprintf("%s (%s)", p.Name, p.Type)
	next, err := game.AddPlayer(s.game, id, name, true)
	if err != nil {
		return uuid.Nil, err
	}
	s.bots[id] = ai.NewPlayer(id, p, s.botSeed(len(next.Players)))
	s.commit(next, nil, Event{Type: EventPlayerJoined, Player: id})
	return id, nil
}

func (s *Session) botSeed(salt int) int64 {
	if s.cfg.Seed == 0 {
		return 0
	}
	return s.cfg.Seed*31 + int64(salt)
}

// substitute returns the stand-in that plays for a disconnected human.
func (s *Session) substitute(id uuid.UUID) *ai.Player {
	if b, ok := s.substitutes[id]; ok {
		return b
	}
	b := ai.NewPlayer(id, ai.Preset(ai.Balanced), s.botSeed(1000+len(s.substitutes)))
	s.substitutes[id] = b
	return b
}

// scheduleTurn arms the timer for the current turn when an AI seat or a disconnected player
// holds it. Any earlier timer is canceled first.
func (s *Session) scheduleTurn() {
	if s.turnCancel != nil {
		s.turnCancel()
		s.turnCancel = nil
	}
	g := s.game
	cur := g.CurrentPlayer()
	if g.Status != game.StatusPlaying || cur == nil {
		return
	}

	delay := s.cfg.DisconnectGrace
	if bot, ok := s.bots[cur.ID]; ok {
		delay = bot.ThinkTime(len(game.PlayableSets(g, cur.Hand)), s.cfg.ThinkScale)
	} else if cur.Connected {
		return
	}

	turn, playerID := g.Turn, cur.ID
	s.turnCancel = s.sched.Schedule(delay, func() {
		if live, ok := s.reg.Get(s.id); !ok || live != s {
			return
		}
		s.post(func() error { return s.autoPlay(turn, playerID) }, false)
	})
}

// autoPlay acts for playerID if the turn it was scheduled for is still current.
func (s *Session) autoPlay(turn int, playerID uuid.UUID) error {
	g := s.game
	cur := g.CurrentPlayer()
	fields := logrus.Fields{"player": playerID, "turn": turn}
	if g.Status != game.StatusPlaying || cur == nil || cur.ID != playerID || g.Turn != turn {
		s.log.WithFields(fields).Debug("stale turn timer ignored")
		return nil
	}

	bot := s.bots[playerID]
	if bot == nil {
		if cur.Connected {
			return nil
		}
		bot = s.substitute(playerID)
	}

	d, err := bot.Decide(g)
	if err != nil {
		return err
	}

	next, effects, err := ai.Apply(g, playerID, d)
	if err != nil {
		s.log.WithFields(fields).WithError(err).Error("AI chose an illegal action")
		return err
	}
	s.log.WithFields(fields).WithFields(logrus.Fields{
		"decision": d.Kind,
		"cards":    d.Cards,
		"score":    d.Score,
	}).Debug("AI acted")
	s.commit(next, effects)
	return nil
}

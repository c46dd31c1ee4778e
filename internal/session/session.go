// internal/session/session.go
package session

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/rachel/internal/ai"
	"github.com/jason-s-yu/rachel/internal/card"
	"github.com/jason-s-yu/rachel/internal/game"
	"github.com/jason-s-yu/rachel/internal/models"
	"github.com/sirupsen/logrus"
)

// Historian receives the record of every finished game. Implementations must not retain or
// mutate the record's slices after returning.
type Historian interface {
	RecordGame(ctx context.Context, rec models.GameRecord) error
}

// Config is the per-session configuration.
type Config struct {
	MaxPlayers int
	HandSize   int
	// HostID, when set, is the only player allowed to start. Otherwise the first human seated hosts.
	HostID uuid.UUID
	// Seed fixes the shuffle and the AI randomness; zero means time-seeded.
	Seed int64
	// IdleTimeout stops a session that has received no command for this long. Zero disables it.
	IdleTimeout time.Duration
	// DisconnectGrace is how long a disconnected player's turn waits before a substitute acts.
	DisconnectGrace time.Duration
	// ThinkScale multiplies AI think time. Zero makes AI seats act as soon as the scheduler allows.
	ThinkScale float64
	// AISeats are seated, in order, when the session is created.
	AISeats []ai.Type
}

// Deps are the collaborators shared by every session of a process.
type Deps struct {
	Registry  *Registry
	Logger    logrus.FieldLogger
	Scheduler ai.Scheduler
	Historian Historian
}

// historianTimeout bounds a single hand-off of a finished game.
const historianTimeout = 10 * time.Second

// request is one unit of work for the actor. done is nil for internal work nobody waits on.
type request struct {
	run   func() error
	done  chan error
	quiet bool
}

// Session is the single writer of one game. Every exported method is safe for concurrent use;
// the work itself runs one request at a time on the session goroutine.
type Session struct {
	id        uuid.UUID
	cfg       Config
	createdAt time.Time

	reg       *Registry
	log       logrus.FieldLogger
	sched     ai.Scheduler
	historian Historian

	inbox    chan request
	quit     chan struct{}
	stopped  chan struct{}
	stopOnce sync.Once
	summary  atomic.Pointer[Summary]

	// Owned by the session goroutine.
	game        *game.Game
	bots        map[uuid.UUID]*ai.Player
	substitutes map[uuid.UUID]*ai.Player
	subs        map[uuid.UUID]*Subscription
	seq         uint64
	activity    uint64
	turnCancel  func()
	idleCancel  func()
	startedAt   time.Time
	closing     bool
	closeReason string
}

// New creates a waiting session, registers it and starts its goroutine.
func New(cfg Config, deps Deps) (*Session, error) {
	if deps.Registry == nil {
		return nil, fmt.Errorf("session: registry is required")
	}
	if deps.Logger == nil {
		deps.Logger = logrus.StandardLogger()
	}
	if deps.Scheduler == nil {
		deps.Scheduler = ai.TimerScheduler{}
	}

	id := uuid.New()
	g := game.New(game.Options{MaxPlayers: cfg.MaxPlayers, HandSize: cfg.HandSize, Seed: cfg.Seed})
	if cfg.HostID != uuid.Nil {
		g.HostID = cfg.HostID
	}

	s := &Session{
		id:          id,
		cfg:         cfg,
		createdAt:   time.Now().UTC(),
		reg:         deps.Registry,
		log:         deps.Logger.WithField("session", id),
		sched:       deps.Scheduler,
		historian:   deps.Historian,
		inbox:       make(chan request),
		quit:        make(chan struct{}),
		stopped:     make(chan struct{}),
		game:        g,
		bots:        make(map[uuid.UUID]*ai.Player),
		substitutes: make(map[uuid.UUID]*ai.Player),
		subs:        make(map[uuid.UUID]*Subscription),
	}
	for _, t := range cfg.AISeats {
		if _, err := s.addAI(t); err != nil {
			return nil, fmt.Errorf("seat %s AI: %w", t, err)
		}
	}
	s.refreshSummary()

	if !s.reg.RegisterIfAbsent(s) {
		return nil, fmt.Errorf("session %s already registered", id)
	}
	go s.loop()
	s.log.WithField("maxPlayers", g.MaxPlayers).Info("session created")
	return s, nil
}

// ID is the registry key of the session.
func (s *Session) ID() uuid.UUID { return s.id }

// Summary describes the session without going through its goroutine.
func (s *Session) Summary() Summary {
	if p := s.summary.Load(); p != nil {
		return *p
	}
	return Summary{ID: s.id, CreatedAt: s.createdAt}
}

// Done is closed once the session has stopped for any reason.
func (s *Session) Done() <-chan struct{} { return s.stopped }

// Join seats a human player while the game is waiting.
func (s *Session) Join(ctx context.Context, playerID uuid.UUID, name string) (game.View, error) {
	var view game.View
	err := s.call(ctx, func() error {
		next, err := game.AddPlayer(s.game, playerID, name, false)
		if err != nil {
			return s.reject("join", playerID, err)
		}
		s.commit(next, nil, Event{Type: EventPlayerJoined, Player: playerID})
		view = s.game.ViewFor(playerID)
		return nil
	})
	return view, err
}

// AddAI seats an AI player with the given personality and returns its player id.
func (s *Session) AddAI(ctx context.Context, personality ai.Type) (uuid.UUID, error) {
	var id uuid.UUID
	err := s.call(ctx, func() error {
		var err error
		id, err = s.addAI(personality)
		if err != nil {
			return s.reject("add_ai", uuid.Nil, err)
		}
		return nil
	})
	return id, err
}

// Start deals the game. Only the host may start.
func (s *Session) Start(ctx context.Context, requester uuid.UUID) (game.View, error) {
	var view game.View
	err := s.call(ctx, func() error {
		next, effects, err := game.Start(s.game, requester)
		if err != nil {
			return s.reject("start", requester, err)
		}
		s.startedAt = time.Now().UTC()
		s.commit(next, effects, Event{Type: EventGameStarted, Player: requester})
		view = s.game.ViewFor(requester)
		return nil
	})
	return view, err
}

// Play plays the cards at the given hand positions, in that order.
func (s *Session) Play(ctx context.Context, playerID uuid.UUID, indices []int) (game.View, error) {
	return s.transition(ctx, "play", playerID, func(g *game.Game) (*game.Game, []game.Effect, error) {
		return game.PlayIndices(g, playerID, indices)
	})
}

// PlayCards plays the given cards, in that order.
func (s *Session) PlayCards(ctx context.Context, playerID uuid.UUID, cards []card.Card) (game.View, error) {
	return s.transition(ctx, "play", playerID, func(g *game.Game) (*game.Game, []game.Effect, error) {
		return game.ApplyPlay(g, playerID, cards)
	})
}

// Draw takes the pending penalty or one card and ends the turn.
func (s *Session) Draw(ctx context.Context, playerID uuid.UUID) (game.View, error) {
	return s.transition(ctx, "draw", playerID, func(g *game.Game) (*game.Game, []game.Effect, error) {
		return game.ApplyDraw(g, playerID)
	})
}

// Nominate completes an Ace play.
func (s *Session) Nominate(ctx context.Context, playerID uuid.UUID, suit card.Suit) (game.View, error) {
	return s.transition(ctx, "nominate", playerID, func(g *game.Game) (*game.Game, []game.Effect, error) {
		return game.NominateSuit(g, playerID, suit)
	})
}

// Disconnect marks the player away. Their seat, hand and turn order are kept; on their turn a
// substitute acts for them after the disconnect grace period.
func (s *Session) Disconnect(ctx context.Context, playerID uuid.UUID) error {
	return s.call(ctx, func() error {
		next, err := game.SetConnected(s.game, playerID, false)
		if err != nil {
			return s.reject("disconnect", playerID, err)
		}
		s.commit(next, nil, Event{Type: EventPlayerLeft, Player: playerID, Reason: "disconnected"})
		return nil
	})
}

// Reconnect marks the player present again and returns their view.
func (s *Session) Reconnect(ctx context.Context, playerID uuid.UUID) (game.View, error) {
	var view game.View
	err := s.call(ctx, func() error {
		next, err := game.SetConnected(s.game, playerID, true)
		if err != nil {
			return s.reject("reconnect", playerID, err)
		}
		s.commit(next, nil, Event{Type: EventPlayerJoined, Player: playerID, Reason: "reconnected"})
		view = s.game.ViewFor(playerID)
		return nil
	})
	return view, err
}

// Snapshot returns the current view for playerID; uuid.Nil gives the spectator view.
func (s *Session) Snapshot(ctx context.Context, playerID uuid.UUID) (game.View, error) {
	var view game.View
	err := s.call(ctx, func() error {
		view = s.game.ViewFor(playerID)
		return nil
	})
	return view, err
}

// Subscribe registers an observer. The first event is the current state.
func (s *Session) Subscribe(ctx context.Context, playerID uuid.UUID) (*Subscription, error) {
	sub := newSubscription(playerID)
	err := s.call(ctx, func() error {
		s.subs[sub.ID] = sub
		v := s.game.ViewFor(playerID)
		sub.deliver(Event{Type: EventStateChanged, SessionID: s.id, Seq: s.seq, State: &v})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// Unsubscribe stops delivery and closes the subscription's channel. It is a no-op once the
// session has stopped, since stopping already closed it.
func (s *Session) Unsubscribe(sub *Subscription) {
	_ = s.callQuiet(context.Background(), func() error {
		if _, ok := s.subs[sub.ID]; ok {
			delete(s.subs, sub.ID)
			close(sub.events)
		}
		return nil
	})
}

// Stop terminates the session and waits for it to wind down. It is safe to call repeatedly.
func (s *Session) Stop() {
	s.stopOnce.Do(func() { close(s.quit) })
	<-s.stopped
}

// transition runs one pure game transition on the session goroutine.
func (s *Session) transition(ctx context.Context, action string, playerID uuid.UUID,
	fn func(*game.Game) (*game.Game, []game.Effect, error)) (game.View, error) {
	var view game.View
	err := s.call(ctx, func() error {
		next, effects, err := fn(s.game)
		if err != nil {
			return s.reject(action, playerID, err)
		}
		s.commit(next, effects)
		view = s.game.ViewFor(playerID)
		return nil
	})
	return view, err
}

func (s *Session) call(ctx context.Context, run func() error) error {
	return s.send(ctx, request{run: run, done: make(chan error, 1)})
}

func (s *Session) callQuiet(ctx context.Context, run func() error) error {
	return s.send(ctx, request{run: run, done: make(chan error, 1), quiet: true})
}

func (s *Session) send(ctx context.Context, req request) error {
	select {
	case s.inbox <- req:
	case <-s.stopped:
		return game.ErrSessionUnavailable
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-req.done:
		return err
	case <-s.stopped:
		select {
		case err := <-req.done:
			return err
		default:
			return game.ErrSessionUnavailable
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// post queues internal work from a timer callback. It blocks until the session takes the work
// or stops.
func (s *Session) post(run func() error, quiet bool) {
	select {
	case s.inbox <- request{run: run, quiet: quiet}:
	case <-s.stopped:
	}
}

func (s *Session) loop() {
	defer s.shutdown()
	s.touch()
	for {
		select {
		case req := <-s.inbox:
			err, crashed := s.handle(req)
			if req.done != nil {
				req.done <- err
			}
			if crashed || s.closing {
				return
			}
		case <-s.quit:
			s.closeReason = "stopped"
			return
		}
	}
}

// handle runs one request. A panic ends the session and nothing else.
func (s *Session) handle(req request) (err error, crashed bool) {
	defer func() {
		if r := recover(); r != nil {
			s.log.WithFields(logrus.Fields{
				"panic": r,
				"stack": string(debug.Stack()),
			}).Error("session crashed")
			s.closeReason = "crashed"
			err, crashed = game.ErrSessionUnavailable, true
		}
	}()
	err = req.run()
	if !req.quiet {
		s.touch()
	}
	return err, false
}

func (s *Session) shutdown() {
	s.cancelTimers()
	s.reg.Remove(s.id, s)
	for id, sub := range s.subs {
		s.seq++
		sub.deliver(Event{Type: EventSessionGone, SessionID: s.id, Seq: s.seq, Reason: s.closeReason})
		close(sub.events)
		delete(s.subs, id)
	}
	close(s.stopped)
	s.log.WithField("reason", s.closeReason).Info("session stopped")
}

func (s *Session) cancelTimers() {
	if s.turnCancel != nil {
		s.turnCancel()
		s.turnCancel = nil
	}
	if s.idleCancel != nil {
		s.idleCancel()
		s.idleCancel = nil
	}
}

// touch records activity and pushes the idle deadline back.
func (s *Session) touch() {
	s.activity++
	if s.cfg.IdleTimeout <= 0 {
		return
	}
	if s.idleCancel != nil {
		s.idleCancel()
	}
	mark := s.activity
	s.idleCancel = s.sched.Schedule(s.cfg.IdleTimeout, func() {
		s.post(func() error {
			if s.activity == mark {
				s.closing = true
				s.closeReason = "idle"
			}
			return nil
		}, true)
	})
}

func (s *Session) reject(action string, playerID uuid.UUID, err error) error {
	s.log.WithFields(logrus.Fields{
		"player": playerID,
		"action": action,
		"turn":   s.game.Turn,
	}).WithError(err).Debug("command rejected")
	return err
}

// commit installs the next game value and fans out everything that follows from it: notes
// first, then card effects, then the new state. A transition that returned the same value is a
// no-op.
func (s *Session) commit(next *game.Game, effects []game.Effect, notes ...Event) {
	prev := s.game
	if next == prev {
		return
	}
	s.game = next
	for _, b := range s.bots {
		b.Memory.Sync(next)
	}

	for _, n := range notes {
		s.publish(n)
	}
	for i := range effects {
		e := effects[i]
		s.publish(Event{Type: EventCardEffect, Effect: &e})
	}
	s.publish(Event{Type: EventStateChanged})
	if prev.Status != game.StatusFinished && next.Status == game.StatusFinished {
		s.finished()
	}
	s.refreshSummary()
	s.scheduleTurn()
}

func (s *Session) finished() {
	standings := s.game.Standings()
	s.publish(Event{Type: EventGameFinished, Standings: standings})
	s.log.WithFields(logrus.Fields{
		"turn":      s.game.Turn,
		"standings": standings,
	}).Info("game finished")

	if s.historian == nil {
		return
	}
	rec := models.NewGameRecord(s.id, s.game, s.startedAt, time.Now())
	h, log := s.historian, s.log
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), historianTimeout)
		defer cancel()
		if err := h.RecordGame(ctx, rec); err != nil {
			log.WithError(err).Warn("failed to hand game to historian")
		}
	}()
}

// publish stamps ev and fans it out. State events get a view per subscriber.
func (s *Session) publish(ev Event) {
	s.seq++
	ev.SessionID, ev.Seq = s.id, s.seq
	for _, sub := range s.subs {
		e := ev
		if ev.Type == EventStateChanged {
			v := s.game.ViewFor(sub.PlayerID)
			e.State = &v
		}
		if !sub.deliver(e) {
			s.log.WithFields(logrus.Fields{
				"subscriber": sub.ID,
				"event":      ev.Type,
			}).Debug("subscriber lagging, event dropped")
		}
	}
}

func (s *Session) refreshSummary() {
	g := s.game
	sum := Summary{
		ID:         s.id,
		GameID:     g.ID,
		HostID:     g.HostID,
		Status:     g.Status,
		MaxPlayers: g.MaxPlayers,
		Turn:       g.Turn,
		CreatedAt:  s.createdAt,
	}
	for _, p := range g.Players {
		sum.Players = append(sum.Players, PlayerSummary{ID: p.ID, Name: p.Name, IsAI: p.IsAI, Connected: p.Connected})
	}
	s.summary.Store(&sum)
}

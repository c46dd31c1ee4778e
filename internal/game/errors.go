// internal/game/errors.go
package game

import (
	"errors"
	"fmt"
)

// ErrorKind groups rejections by how a caller can recover from them.
type ErrorKind string

const (
	KindValidation ErrorKind = "validation" // rejected command, state unchanged
	KindCapacity   ErrorKind = "capacity"   // join/start preconditions
	KindResource   ErrorKind = "resource"   // deck ran dry
	KindSession    ErrorKind = "session"    // actor gone or crashed
)

// Error is the structured rejection returned by every command. Code is stable and safe to
// show to clients; Reason carries detail for the specific rejection.
type Error struct {
	Kind   ErrorKind `json:"kind"`
	Code   string    `json:"code"`
	Reason string    `json:"reason,omitempty"`
}

func (e *Error) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Code)
	}
	return fmt.Sprintf("%s: %s: %s", e.Kind, e.Code, e.Reason)
}

// Is matches on Code so a sentinel carrying no reason matches any instance of that code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithReason returns a copy of e carrying the given detail.
func (e *Error) WithReason(format string, args ...interface{}) *Error {
	return &Error{Kind: e.Kind, Code: e.Code, Reason: fmt.Sprintf(format, args...)}
}

func newError(kind ErrorKind, code string) *Error {
	return &Error{Kind: kind, Code: code}
}

var (
	ErrInvalidPlay           = newError(KindValidation, "invalid_play")
	ErrNotYourTurn           = newError(KindValidation, "not_your_turn")
	ErrMustPlayInstead       = newError(KindValidation, "must_play_instead")
	ErrInvalidSuitNomination = newError(KindValidation, "invalid_suit_nomination")
	ErrCardsNotSameRank      = newError(KindValidation, "cards_not_same_rank")
	ErrNominationRequired    = newError(KindValidation, "nomination_required")
	ErrNotPlaying            = newError(KindValidation, "not_playing")
	ErrUnknownPlayer         = newError(KindValidation, "unknown_player")
	ErrAlreadyJoined         = newError(KindValidation, "already_joined")

	ErrGameFull         = newError(KindCapacity, "game_full")
	ErrAlreadyStarted   = newError(KindCapacity, "already_started")
	ErrNotEnoughPlayers = newError(KindCapacity, "not_enough_players")
	ErrNotHost          = newError(KindCapacity, "not_host")

	ErrDeckExhausted = newError(KindResource, "deck_exhausted")

	ErrSessionUnavailable = newError(KindSession, "session_unavailable")
)

// AsError extracts the structured error from err, wrapping anything else as a session fault.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return ErrSessionUnavailable.WithReason("%v", err)
}

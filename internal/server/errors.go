// Package server defines the error conditions produced by room operations and
// their mapping onto the client-facing error channel.
package server

import "errors"

// Sentinel errors returned by the registry, the room state machine, and the
// connection index. Handlers decide per event whether a condition is reported
// to the originating connection or dropped.
var (
	// ErrRoomNotFound is returned when a room code does not resolve to a
	// live room. A stale or mistyped code is a normal client mistake, not
	// a server fault.
	ErrRoomNotFound = errors.New("room not found")

	// ErrUnauthorized is returned when a non-host connection attempts a
	// host-only action (reveal or reset).
	ErrUnauthorized = errors.New("only the host may perform this action")

	// ErrIncompleteVoting is returned when the host attempts to reveal
	// before every member has cast a vote.
	ErrIncompleteVoting = errors.New("voting is not complete")

	// ErrVotesRevealed is returned for vote attempts after a reveal.
	// Handlers drop it without reporting; the round is read-only until
	// the host resets.
	ErrVotesRevealed = errors.New("votes already revealed")

	// ErrAlreadyInRoom is returned when a connection that is already bound
	// to a room attempts to create or join another one.
	ErrAlreadyInRoom = errors.New("connection already bound to a room")

	// ErrInvalidInput covers empty player names and room codes.
	ErrInvalidInput = errors.New("invalid input")

	// ErrCodeSpaceExhausted is returned if the registry cannot allocate a
	// unique room code. With the default code length this never happens
	// in practice; it exists so the retry loop is bounded.
	ErrCodeSpaceExhausted = errors.New("room code space exhausted")
)

// errorText maps an error condition to the short human-readable string sent
// on the client error channel.
func errorText(err error) string {
	switch {
	case errors.Is(err, ErrRoomNotFound):
		return "Room not found"
	case errors.Is(err, ErrUnauthorized):
		return "Only the host can do that"
	case errors.Is(err, ErrIncompleteVoting):
		return "Voting is not complete"
	case errors.Is(err, ErrAlreadyInRoom):
		return "Already in a room"
	case errors.Is(err, ErrInvalidInput):
		return "Invalid request"
	default:
		return "Invalid message"
	}
}

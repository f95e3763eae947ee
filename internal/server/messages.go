// Package server defines the typed event envelope exchanged with clients and
// shared helpers reused across client and coordinator logic.
package server

import (
	"encoding/json"
	"strings"
)

// Inbound event names accepted from clients.
const (
	EventCreateRoom  = "create-room"
	EventJoinRoom    = "join-room"
	EventVote        = "vote"
	EventRevealVotes = "reveal-votes"
	EventResetRoom   = "reset-room"
	EventLeaveRoom   = "leave-room"
)

// Outbound event names emitted to clients.
const (
	EventRoomCreated = "room-created"
	EventRoomJoined  = "room-joined"
	EventRoomUpdated = "room-updated"
	EventRoomReset   = "room-reset"
	EventRoomClosed  = "room-closed"
	EventError       = "error"
)

// Envelope is the JSON frame exchanged over the WebSocket in both directions.
// Payload is event-specific; reveal-votes, reset-room, leave-room, room-reset
// and room-closed carry none.
type Envelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// CreateRoomPayload is the inbound payload for create-room.
type CreateRoomPayload struct {
	PlayerName string `json:"playerName"`
}

// JoinRoomPayload is the inbound payload for join-room.
type JoinRoomPayload struct {
	RoomCode   string `json:"roomCode"`
	PlayerName string `json:"playerName"`
}

// RoomInfoPayload is the outbound payload for room-created and room-joined,
// acknowledging the sender's own membership.
type RoomInfoPayload struct {
	RoomCode   string `json:"roomCode"`
	PlayerName string `json:"playerName"`
}

// RoomView is the outbound payload for room-updated: the state every member
// of a room sees after each mutation. Vote values are withheld until the host
// reveals; Voted always lists who has cast a vote this round.
type RoomView struct {
	RoomCode string            `json:"roomCode"`
	Host     string            `json:"host"`
	Players  map[string]string `json:"players"`
	Voted    []string          `json:"voted"`
	Votes    map[string]string `json:"votes,omitempty"`
	Revealed bool              `json:"revealed"`
}

// marshalEvent builds the wire form of an outbound event. A nil payload
// produces an envelope with the event name only.
func marshalEvent(event string, payload any) ([]byte, error) {
	env := Envelope{Event: event}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		env.Payload = raw
	}
	return json.Marshal(env)
}

// normalizeRoomCode trims whitespace and upper-cases a client-supplied room
// code so lookups are case-insensitive.
func normalizeRoomCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// isExpectedCloseError checks if an error is expected during connection closure.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "use of closed network connection") ||
		strings.Contains(errStr, "websocket: close sent") ||
		strings.Contains(errStr, "broken pipe")
}

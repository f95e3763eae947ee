// Package server implements the Coordinator: the component that resolves an
// inbound event to a room, applies the state machine, and broadcasts the
// resulting view to every member of that room.
package server

import (
	"errors"
	"log"
	"strings"
	"time"
)

// Coordinator owns the room registry and the connection index and exposes
// one method per inbound event. Events for different rooms proceed in
// parallel; events for the same room serialize on that room's mutex. The
// lock order is always registry/index first, then a single room, never the
// reverse.
type Coordinator struct {
	registry *Registry
	index    *connIndex
	hub      *Hub
}

func newCoordinator(hub *Hub, codeLength int) *Coordinator {
	return &Coordinator{
		registry: NewRegistry(codeLength),
		index:    newConnIndex(),
		hub:      hub,
	}
}

// Registry exposes the coordinator's room table, mainly for tests and the
// idle sweeper.
func (co *Coordinator) Registry() *Registry {
	return co.registry
}

// CreateRoom handles create-room: the sender becomes host and sole member of
// a fresh room and receives room-created followed by the initial view.
func (co *Coordinator) CreateRoom(connID, playerName string) {
	name := strings.TrimSpace(playerName)
	if name == "" {
		co.sendError(connID, "Name is required")
		return
	}
	if _, bound := co.index.resolve(connID); bound {
		co.sendError(connID, errorText(ErrAlreadyInRoom))
		return
	}

	room, err := co.registry.Create(connID, name)
	if err != nil {
		log.Printf("Failed to create room for %s: %v", connID, err)
		co.sendError(connID, "Could not create room")
		return
	}
	if err := co.index.bind(connID, room.Code()); err != nil {
		// Events from one connection are serialized by its read pump, so a
		// bind collision here means a protocol bug rather than a race.
		log.Printf("Failed to bind %s to new room %s: %v", connID, room.Code(), err)
		co.registry.Delete(room.Code())
		co.sendError(connID, errorText(err))
		return
	}

	log.Printf("Room %s created by %s", room.Code(), connID)
	co.sendEvent(connID, EventRoomCreated, RoomInfoPayload{RoomCode: room.Code(), PlayerName: name})
	co.broadcastRoom(room)
}

// JoinRoom handles join-room. Unknown codes are reported to the sender only;
// nothing is broadcast. A connection already in a room must leave before
// joining another.
func (co *Coordinator) JoinRoom(connID, roomCode, playerName string) {
	name := strings.TrimSpace(playerName)
	code := normalizeRoomCode(roomCode)
	if name == "" {
		co.sendError(connID, "Name is required")
		return
	}
	if code == "" {
		co.sendError(connID, "Room code is required")
		return
	}
	if _, bound := co.index.resolve(connID); bound {
		co.sendError(connID, errorText(ErrAlreadyInRoom))
		return
	}

	room, ok := co.registry.Get(code)
	if !ok {
		co.sendError(connID, errorText(ErrRoomNotFound))
		return
	}
	if err := room.Join(connID, name); err != nil {
		// The room was torn down between lookup and join.
		co.sendError(connID, errorText(err))
		return
	}
	if err := co.index.bind(connID, code); err != nil {
		room.Remove(connID)
		co.sendError(connID, errorText(err))
		return
	}

	log.Printf("Connection %s joined room %s", connID, code)
	co.sendEvent(connID, EventRoomJoined, RoomInfoPayload{RoomCode: code, PlayerName: name})
	co.broadcastRoom(room)
}

// Vote handles a member's vote for the current round. An empty vote retracts
// the member's previous one. Votes cast after a reveal are dropped without a
// report; the round is read-only until the host resets.
func (co *Coordinator) Vote(connID, vote string) {
	room, ok := co.roomFor(connID)
	if !ok {
		co.sendError(connID, errorText(ErrRoomNotFound))
		return
	}
	if err := room.CastVote(connID, vote); err != nil {
		if !errors.Is(err, ErrVotesRevealed) {
			log.Printf("Vote from %s rejected: %v", connID, err)
		}
		return
	}
	co.broadcastRoom(room)
}

// RevealVotes handles reveal-votes. Only the host may reveal, and only once
// every member has voted; both failures are reported to the sender alone.
func (co *Coordinator) RevealVotes(connID string) {
	room, ok := co.roomFor(connID)
	if !ok {
		co.sendError(connID, errorText(ErrRoomNotFound))
		return
	}
	if err := room.Reveal(connID); err != nil {
		co.sendError(connID, errorText(err))
		return
	}
	log.Printf("Room %s revealed", room.Code())
	co.broadcastRoom(room)
}

// ResetRoom handles reset-room: votes are cleared and the room returns to
// hidden voting. Members receive room-reset before the fresh view so they
// can drop locally held selections.
func (co *Coordinator) ResetRoom(connID string) {
	room, ok := co.roomFor(connID)
	if !ok {
		co.sendError(connID, errorText(ErrRoomNotFound))
		return
	}
	if err := room.Reset(connID); err != nil {
		co.sendError(connID, errorText(err))
		return
	}
	log.Printf("Room %s reset", room.Code())
	view := room.View()
	co.broadcastEvent(memberIDs(view), EventRoomReset, nil)
	co.broadcastEvent(memberIDs(view), EventRoomUpdated, view)
}

// LeaveRoom handles an explicit leave-room. A second leave after the
// membership is already gone is a silent no-op.
func (co *Coordinator) LeaveRoom(connID string) {
	co.depart(connID)
}

// Disconnect handles the transport-level disconnect of a connection. It is
// idempotent against an explicit leave racing the same connection.
func (co *Coordinator) Disconnect(connID string) {
	co.depart(connID)
}

// depart applies the shared leave/disconnect teardown. The host leaving, by
// either path, closes the whole room; a non-host departure shrinks the
// membership and deletes the room when it empties.
func (co *Coordinator) depart(connID string) {
	code, bound := co.index.unbind(connID)
	if !bound {
		return
	}
	room, ok := co.registry.Get(code)
	if !ok {
		return
	}

	if room.IsHost(connID) {
		log.Printf("Host left room %s, closing it", code)
		co.closeRoom(room)
		return
	}

	removed, empty := room.Remove(connID)
	if !removed {
		return
	}
	if empty {
		log.Printf("Room %s emptied, deleting it", code)
		co.registry.Delete(code)
		return
	}
	co.broadcastRoom(room)
}

// closeRoom tears a room down: it becomes unresolvable, every member is
// unbound, and each receives room-closed. Safe to call twice; the second
// call finds no members to notify.
func (co *Coordinator) closeRoom(room *Room) {
	co.registry.Delete(room.Code())
	members := room.Close()
	for _, id := range members {
		co.index.unbind(id)
	}
	co.broadcastEvent(members, EventRoomClosed, nil)
}

// expireIdleRooms closes rooms whose last mutation is older than maxIdle.
// Run by the hub when ROOM_IDLE_TIMEOUT is set.
func (co *Coordinator) expireIdleRooms(maxIdle time.Duration) {
	now := time.Now()
	for _, room := range co.registry.snapshot() {
		if now.Sub(room.LastActive()) >= maxIdle {
			log.Printf("Closing idle room %s", room.Code())
			co.closeRoom(room)
		}
	}
}

// roomFor resolves the room a connection is bound to, for events that carry
// no room code.
func (co *Coordinator) roomFor(connID string) (*Room, bool) {
	code, ok := co.index.resolve(connID)
	if !ok {
		return nil, false
	}
	return co.registry.Get(code)
}

// broadcastRoom sends the room's current view to every member.
func (co *Coordinator) broadcastRoom(room *Room) {
	view := room.View()
	co.broadcastEvent(memberIDs(view), EventRoomUpdated, view)
}

func (co *Coordinator) broadcastEvent(ids []string, event string, payload any) {
	data, err := marshalEvent(event, payload)
	if err != nil {
		log.Printf("Failed to marshal %s event: %v", event, err)
		return
	}
	for _, id := range ids {
		co.hub.sendTo(id, data)
	}
}

// sendEvent delivers an event to a single connection.
func (co *Coordinator) sendEvent(connID, event string, payload any) {
	data, err := marshalEvent(event, payload)
	if err != nil {
		log.Printf("Failed to marshal %s event: %v", event, err)
		return
	}
	co.hub.sendTo(connID, data)
}

// sendError delivers a short human-readable error to the originating
// connection only. Errors are never broadcast.
func (co *Coordinator) sendError(connID, message string) {
	co.sendEvent(connID, EventError, message)
}

func memberIDs(view RoomView) []string {
	ids := make([]string, 0, len(view.Players))
	for id := range view.Players {
		ids = append(ids, id)
	}
	return ids
}

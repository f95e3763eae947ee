// Package server implements the per-room estimation state machine. All
// mutations on a Room are serialized by its own mutex so concurrent events
// from different members never interleave into an inconsistent round.
package server

import (
	"sort"
	"sync"
	"time"
)

// Room holds the authoritative state of one estimation round: who is in the
// room, who has voted what, and whether the votes have been revealed. The
// member who created the room is the host and is the sole authority for
// reveal and reset.
//
// Invariants maintained by every method:
//   - the host is a member while the room is open
//   - every vote key is a member key
//   - votes are only written while the round is hidden
type Room struct {
	mu       sync.Mutex
	code     string
	hostID   string
	players  map[string]string
	votes    map[string]string
	revealed bool
	closed   bool
	touched  time.Time
}

func newRoom(code, hostID, hostName string) *Room {
	return &Room{
		code:    code,
		hostID:  hostID,
		players: map[string]string{hostID: hostName},
		votes:   make(map[string]string),
		touched: time.Now(),
	}
}

// Code returns the room's join code. Codes are immutable after creation.
func (r *Room) Code() string {
	return r.code
}

// IsHost reports whether id identifies the room's host.
func (r *Room) IsHost(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return id == r.hostID
}

// Join adds a member to the room. Joining a room that has been torn down
// returns ErrRoomNotFound so a caller racing against a host disconnect gets
// the same answer as one using a stale code.
func (r *Room) Join(id, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrRoomNotFound
	}
	if name == "" {
		return ErrInvalidInput
	}
	r.players[id] = name
	r.touched = time.Now()
	return nil
}

// CastVote records a member's vote for the current round. An empty vote
// retracts a previously cast one. Votes are rejected once the round has been
// revealed, and from connections that are not members.
func (r *Room) CastVote(id, vote string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrRoomNotFound
	}
	if r.revealed {
		return ErrVotesRevealed
	}
	if _, ok := r.players[id]; !ok {
		return ErrRoomNotFound
	}
	if vote == "" {
		delete(r.votes, id)
	} else {
		r.votes[id] = vote
	}
	r.touched = time.Now()
	return nil
}

// Reveal makes all cast votes visible. Only the host may reveal, and only
// once every member has voted.
func (r *Room) Reveal(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrRoomNotFound
	}
	if id != r.hostID {
		return ErrUnauthorized
	}
	if len(r.votes) != len(r.players) {
		return ErrIncompleteVoting
	}
	r.revealed = true
	r.touched = time.Now()
	return nil
}

// Reset clears all votes and returns the room to the hidden-voting state
// without touching membership. Host only.
func (r *Room) Reset(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrRoomNotFound
	}
	if id != r.hostID {
		return ErrUnauthorized
	}
	r.votes = make(map[string]string)
	r.revealed = false
	r.touched = time.Now()
	return nil
}

// Remove deletes a member and any vote they cast. It reports whether the
// member was present and whether the room is now empty; an empty room must be
// deleted from the registry by the caller.
func (r *Room) Remove(id string) (removed, empty bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.players[id]; !ok {
		return false, len(r.players) == 0
	}
	delete(r.players, id)
	delete(r.votes, id)
	r.touched = time.Now()
	return true, len(r.players) == 0
}

// Close marks the room as torn down and returns the ids of the members that
// need a room-closed notification. A second Close returns nil, which keeps
// teardown idempotent when a disconnect races an explicit leave.
func (r *Room) Close() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	members := make([]string, 0, len(r.players))
	for id := range r.players {
		members = append(members, id)
	}
	r.players = make(map[string]string)
	r.votes = make(map[string]string)
	return members
}

// LastActive returns the time of the room's most recent mutation. Used by
// the idle sweeper.
func (r *Room) LastActive() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.touched
}

// View snapshots the state broadcast to members. Vote values appear only
// after a reveal; before that the view carries just the set of members who
// have voted so clients can show participation without leaking estimates.
func (r *Room) View() RoomView {
	r.mu.Lock()
	defer r.mu.Unlock()

	players := make(map[string]string, len(r.players))
	for id, name := range r.players {
		players[id] = name
	}

	voted := make([]string, 0, len(r.votes))
	for id := range r.votes {
		voted = append(voted, id)
	}
	sort.Strings(voted)

	view := RoomView{
		RoomCode: r.code,
		Host:     r.hostID,
		Players:  players,
		Voted:    voted,
		Revealed: r.revealed,
	}
	if r.revealed {
		votes := make(map[string]string, len(r.votes))
		for id, vote := range r.votes {
			votes[id] = vote
		}
		view.Votes = votes
	}
	return view
}

// Package server implements the room registry: the table mapping live room
// codes to rooms, with code allocation and idempotent deletion.
package server

import (
	crand "crypto/rand"
	"math/big"
	"math/rand"
	"sync"
)

// roomCodeAlphabet deliberately omits 0/O/1/I so codes survive being read
// aloud or typed from a whiteboard.
const roomCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// maxCodeAttempts bounds the collision-retry loop in Create. Collisions are
// already negligible at the default code length, so this is a safety net.
const maxCodeAttempts = 100

// Registry owns every live room, keyed by code. It is an explicitly owned
// object rather than package state so tests can run isolated registries.
// Its lock guards only the map; individual rooms serialize their own state.
type Registry struct {
	mu         sync.RWMutex
	rooms      map[string]*Room
	codeLength int
}

// NewRegistry creates an empty registry allocating codes of the given
// length. Non-positive lengths fall back to the configured default.
func NewRegistry(codeLength int) *Registry {
	if codeLength <= 0 {
		codeLength = defaultRoomCodeLength
	}
	return &Registry{
		rooms:      make(map[string]*Room),
		codeLength: codeLength,
	}
}

// Create allocates a fresh unique code and stores a new room with the given
// connection as host and sole member.
func (reg *Registry) Create(hostID, hostName string) (*Room, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code := generateRoomCode(reg.codeLength)
		if _, exists := reg.rooms[code]; exists {
			continue
		}
		room := newRoom(code, hostID, hostName)
		reg.rooms[code] = room
		return room, nil
	}
	return nil, ErrCodeSpaceExhausted
}

// Get looks up a room by code. Absence is a normal outcome, not a fault.
func (reg *Registry) Get(code string) (*Room, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	room, ok := reg.rooms[code]
	return room, ok
}

// Delete removes a room from the registry. Deleting an absent code is a
// no-op, which keeps teardown paths idempotent.
func (reg *Registry) Delete(code string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	delete(reg.rooms, code)
}

// Len returns the number of live rooms.
func (reg *Registry) Len() int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return len(reg.rooms)
}

// snapshot returns the current rooms without holding the registry lock
// during whatever the caller does with them, preserving the
// registry-before-room lock order.
func (reg *Registry) snapshot() []*Room {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	rooms := make([]*Room, 0, len(reg.rooms))
	for _, room := range reg.rooms {
		rooms = append(rooms, room)
	}
	return rooms
}

// generateRoomCode draws code characters from crypto/rand, falling back to
// math/rand if the system source fails.
func generateRoomCode(length int) string {
	code := make([]byte, length)
	for i := range code {
		n, err := crand.Int(crand.Reader, big.NewInt(int64(len(roomCodeAlphabet))))
		if err != nil {
			code[i] = roomCodeAlphabet[rand.Intn(len(roomCodeAlphabet))]
			continue
		}
		code[i] = roomCodeAlphabet[n.Int64()]
	}
	return string(code)
}

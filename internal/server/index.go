package server

import "sync"

// connIndex tracks which room each connection is currently joined to, so
// events that carry no room code (vote, reveal, reset, leave, disconnect)
// can be attributed to the right room. A connection is bound to at most one
// room at a time.
type connIndex struct {
	mu    sync.Mutex
	codes map[string]string
}

func newConnIndex() *connIndex {
	return &connIndex{codes: make(map[string]string)}
}

// bind records the association for a connection. A connection already bound
// to a room may not bind to another; it must leave first.
func (ix *connIndex) bind(connID, code string) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if existing, ok := ix.codes[connID]; ok && existing != code {
		return ErrAlreadyInRoom
	}
	ix.codes[connID] = code
	return nil
}

// resolve returns the room code the connection is bound to, if any.
func (ix *connIndex) resolve(connID string) (string, bool) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	code, ok := ix.codes[connID]
	return code, ok
}

// unbind removes the association and returns it. The second unbind for the
// same connection reports ok=false, which is what makes a leave racing a
// disconnect apply teardown exactly once.
func (ix *connIndex) unbind(connID string) (string, bool) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	code, ok := ix.codes[connID]
	if ok {
		delete(ix.codes, connID)
	}
	return code, ok
}

// Package server coordinates client registration, room broadcasts, and
// connection cleanup for the PointDeck WebSocket system via the Hub type.
package server

import (
	"context"
	"log"
	"sync"
	"time"
)

// Hub manages all WebSocket client connections, keyed by their participant
// id, and routes room events to the Coordinator. Registration and
// unregistration run on the hub's event loop; room mutations run on the
// calling connection's read pump and synchronize on per-room locks, so
// unrelated rooms never wait on each other.
type Hub struct {
	coordinator *Coordinator
	clients     map[string]*Client
	register    chan *Client
	unregister  chan *Client
	mutex       sync.RWMutex
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	done        chan struct{}
	idleTimeout time.Duration
}

// NewHub creates a Hub with its own coordinator, registry, and connection
// index, configured from the active config. Each hub is fully independent;
// tests can run several side by side.
func NewHub() *Hub {
	cfg := currentConfig()
	ctx, cancel := context.WithCancel(context.Background())
	h := &Hub{
		clients:     make(map[string]*Client),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		ctx:         ctx,
		cancel:      cancel,
		done:        make(chan struct{}),
		idleTimeout: cfg.RoomIdleTimeout,
	}
	h.coordinator = newCoordinator(h, cfg.RoomCodeLength)
	return h
}

// Coordinator returns the hub's event coordinator.
func (h *Hub) Coordinator() *Coordinator {
	return h.coordinator
}

// GetRegisterChan returns the channel used for registering new clients to the hub.
// This channel is write-only from the caller's perspective.
func (h *Hub) GetRegisterChan() chan<- *Client {
	return h.register
}

// GetUnregisterChan returns the channel used for unregistering clients from the hub.
// This channel is write-only from the caller's perspective.
func (h *Hub) GetUnregisterChan() chan<- *Client {
	return h.unregister
}

// sendTo queues a payload for a single connection. Unknown ids are a no-op:
// the member may have disconnected between snapshot and send. Returns false
// when the message could not be queued.
func (h *Hub) sendTo(id string, payload []byte) bool {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	client, ok := h.clients[id]
	if !ok || client.closed {
		return false
	}
	select {
	case client.send <- payload:
		return true
	default:
		return false
	}
}

// Run starts the hub's main event loop, handling client registration,
// unregistration, and the optional idle-room sweep. This method should be
// called in a separate goroutine as it runs until Shutdown.
func (h *Hub) Run() {
	defer close(h.done)

	var sweep <-chan time.Time
	if h.idleTimeout > 0 {
		ticker := time.NewTicker(h.idleTimeout)
		defer ticker.Stop()
		sweep = ticker.C
	}

	for {
		select {
		case <-h.ctx.Done():
			h.shutdownClients()
			return

		case client := <-h.register:
			if client == nil {
				log.Printf("Received nil client registration; skipping")
				continue
			}
			h.addClient(client)

		case client := <-h.unregister:
			h.removeClient(client)

		case <-sweep:
			h.coordinator.expireIdleRooms(h.idleTimeout)
		}
	}
}

func (h *Hub) addClient(client *Client) {
	h.mutex.Lock()
	client.closed = false
	h.clients[client.id] = client
	clientCount := len(h.clients)
	h.mutex.Unlock()
	log.Printf("Client %s registered from %s. Total clients: %d", client.id, client.addr, clientCount)

	// Unit tests register clients without a live connection; they read the
	// send channel directly instead of running pumps.
	if client.conn == nil {
		return
	}

	h.wg.Add(2)
	go func() {
		defer h.wg.Done()
		client.writePump()
	}()
	go func() {
		defer h.wg.Done()
		client.readPump()
	}()
}

// removeClient drops the client from the hub and then applies the room-side
// disconnect, so the departing connection never receives its own teardown
// broadcasts.
func (h *Hub) removeClient(client *Client) {
	h.mutex.Lock()
	if _, ok := h.clients[client.id]; !ok {
		h.mutex.Unlock()
		return
	}
	delete(h.clients, client.id)
	client.closed = true
	clientCount := len(h.clients)
	h.mutex.Unlock()

	// Close the channel after releasing the lock.
	close(client.send)
	log.Printf("Client %s unregistered from %s. Total clients: %d", client.id, client.addr, clientCount)

	h.coordinator.Disconnect(client.id)
}

// shutdownClients gracefully closes all active client connections.
func (h *Hub) shutdownClients() {
	log.Println("Shutting down all client connections...")

	h.mutex.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for _, client := range h.clients {
		clients = append(clients, client)
	}
	h.mutex.Unlock()

	for _, client := range clients {
		if client.conn != nil {
			if err := client.conn.Close(); err != nil {
				if !isExpectedCloseError(err) {
					log.Printf("Error closing client connection from %s: %v", client.addr, err)
				}
			}
		}
	}

	log.Printf("Closed %d client connections", len(clients))
}

// Shutdown initiates graceful shutdown of the hub and waits for all goroutines
// to complete. It returns after all client connections are closed and
// goroutines have finished, or when the timeout is reached.
func (h *Hub) Shutdown(timeout time.Duration) error {
	log.Println("Initiating hub shutdown...")

	h.cancel()

	// Wait for Run() to complete
	<-h.done

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Println("Hub shutdown completed successfully")
		return nil
	case <-time.After(timeout):
		log.Println("Hub shutdown timeout reached, some goroutines may still be running")
		return context.DeadlineExceeded
	}
}

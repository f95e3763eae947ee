package integration

import (
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pointdeck/pointdeck/internal/server"
	"github.com/pointdeck/pointdeck/test/testhelpers"
)

// TestGracefulShutdown verifies that an idle hub shuts down cleanly.
func TestGracefulShutdown(t *testing.T) {
	server.SetConfig(nil)
	hub := server.NewHub()
	go hub.Run()

	time.Sleep(50 * time.Millisecond)

	if err := hub.Shutdown(5 * time.Second); err != nil {
		t.Errorf("Hub shutdown failed: %v", err)
	}
}

// TestGracefulShutdownWithClients verifies that active client connections
// are closed during graceful shutdown and that pump goroutines exit.
func TestGracefulShutdownWithClients(t *testing.T) {
	cfg := server.NewConfig()
	cfg.RateLimit.Burst = 100
	cfg.RateLimit.PerSecond = 100
	server.SetConfig(cfg)
	t.Cleanup(func() {
		server.SetConfig(nil)
	})

	hub := server.NewHub()
	go hub.Run()

	testServer := testhelpers.CreateTestServer(server.SetupRoutes(hub))
	t.Cleanup(testServer.Close)
	wsURL := "ws" + testServer.URL[len("http"):] + "/ws"

	clients := make([]*websocket.Conn, 0, 5)
	for i := 0; i < 5; i++ {
		conn, err := testhelpers.ConnectWebSocket(wsURL)
		if err != nil {
			t.Fatalf("Failed to connect client %d: %v", i, err)
		}
		clients = append(clients, conn)
	}

	// Put one room in play so shutdown also exercises teardown with
	// live session state.
	createRoom(t, clients[0], "Helen")

	time.Sleep(50 * time.Millisecond)

	if err := hub.Shutdown(5 * time.Second); err != nil {
		t.Errorf("Hub shutdown failed: %v", err)
	}

	// Every client should observe its connection closing promptly.
	for _, conn := range clients {
		if err := conn.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
			t.Fatalf("Failed to set read deadline: %v", err)
		}
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
		_ = conn.Close()
	}
}

// TestShutdownDuringActiveRound verifies that shutting down mid-round does
// not wedge the hub.
func TestShutdownDuringActiveRound(t *testing.T) {
	cfg := server.NewConfig()
	cfg.RateLimit.Burst = 100
	cfg.RateLimit.PerSecond = 100
	server.SetConfig(cfg)
	t.Cleanup(func() {
		server.SetConfig(nil)
	})

	hub := server.NewHub()
	go hub.Run()

	testServer := testhelpers.CreateTestServer(server.SetupRoutes(hub))
	t.Cleanup(testServer.Close)
	wsURL := "ws" + testServer.URL[len("http"):] + "/ws"

	host, err := testhelpers.ConnectWebSocket(wsURL)
	if err != nil {
		t.Fatalf("Failed to connect host: %v", err)
	}
	player, err := testhelpers.ConnectWebSocket(wsURL)
	if err != nil {
		t.Fatalf("Failed to connect player: %v", err)
	}

	code := createRoom(t, host, "Helen")
	joinRoom(t, player, host, code, "Pat")

	if err := testhelpers.SendEvent(player, server.EventVote, "5"); err != nil {
		t.Fatalf("Failed to send vote: %v", err)
	}
	testhelpers.ExpectRoomUpdate(t, host)
	testhelpers.ExpectRoomUpdate(t, player)

	if err := hub.Shutdown(5 * time.Second); err != nil {
		t.Errorf("Hub shutdown failed: %v", err)
	}

	_ = host.Close()
	_ = player.Close()
}

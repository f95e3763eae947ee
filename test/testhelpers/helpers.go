// Package testhelpers provides common utilities and helper functions for
// testing the PointDeck server.
//
// It contains reusable helpers shared across unit and integration tests:
// creating test servers, dialing WebSocket connections, sending protocol
// events, and asserting on received ones.
package testhelpers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pointdeck/pointdeck/internal/server"
)

// CreateTestServer creates a test HTTP server with the given handler.
// It returns a running httptest.Server that should be closed after use.
func CreateTestServer(handler http.Handler) *httptest.Server {
	return httptest.NewServer(handler)
}

// AssertStatusCode checks if the HTTP response has the expected status code.
func AssertStatusCode(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Errorf("Expected status code %d, got %d", expected, resp.StatusCode)
	}
}

// AssertContentType checks if the HTTP response has the expected Content-Type header.
func AssertContentType(t *testing.T, resp *http.Response, expected string) {
	t.Helper()
	contentType := resp.Header.Get("Content-Type")
	if contentType != expected {
		t.Errorf("Expected content type %s, got %s", expected, contentType)
	}
}

// MakeRequest creates and executes an HTTP request, returning the response.
// It includes a 5-second timeout and fails the test if the request cannot be
// created or executed successfully.
func MakeRequest(t *testing.T, method, url string) *http.Response {
	t.Helper()

	client := &http.Client{
		Timeout: 5 * time.Second,
	}

	req, err := http.NewRequest(method, url, http.NoBody)
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("Failed to make request: %v", err)
	}

	return resp
}

// ConnectWebSocket creates a WebSocket connection to the specified URL with
// an Origin header matching the default allowed origin.
func ConnectWebSocket(url string) (*websocket.Conn, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: 5 * time.Second,
	}

	headers := http.Header{}
	headers.Set("Origin", "http://localhost:8080")

	conn, resp, err := dialer.Dial(url, headers)
	if resp != nil {
		_ = resp.Body.Close()
	}
	return conn, err
}

// SendEvent writes one protocol envelope over the connection. A nil payload
// sends the event name alone.
func SendEvent(conn *websocket.Conn, event string, payload any) error {
	env := server.Envelope{Event: event}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		env.Payload = raw
	}
	return conn.WriteJSON(env)
}

// ReceiveEvent reads the next protocol envelope from the connection, failing
// the test if none arrives within the timeout.
func ReceiveEvent(t *testing.T, conn *websocket.Conn, timeout time.Duration) server.Envelope {
	t.Helper()

	if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		t.Fatalf("Failed to set read deadline: %v", err)
	}

	var env server.Envelope
	if err := conn.ReadJSON(&env); err != nil {
		t.Fatalf("Failed to read event: %v", err)
	}
	return env
}

// ExpectEvent reads the next envelope and asserts its event name, returning
// the raw payload for event-specific decoding.
func ExpectEvent(t *testing.T, conn *websocket.Conn, event string) json.RawMessage {
	t.Helper()

	env := ReceiveEvent(t, conn, 2*time.Second)
	if env.Event != event {
		t.Fatalf("Expected event %q, got %q (payload %s)", event, env.Event, string(env.Payload))
	}
	return env.Payload
}

// ExpectRoomUpdate reads the next envelope, asserts it is a room-updated
// event, and decodes its view.
func ExpectRoomUpdate(t *testing.T, conn *websocket.Conn) server.RoomView {
	t.Helper()

	payload := ExpectEvent(t, conn, server.EventRoomUpdated)
	var view server.RoomView
	if err := json.Unmarshal(payload, &view); err != nil {
		t.Fatalf("Failed to decode room view: %v", err)
	}
	return view
}

// ExpectError reads the next envelope and asserts it is an error event with
// the given message.
func ExpectError(t *testing.T, conn *websocket.Conn, message string) {
	t.Helper()

	payload := ExpectEvent(t, conn, server.EventError)
	var got string
	if err := json.Unmarshal(payload, &got); err != nil {
		t.Fatalf("Failed to decode error payload: %v", err)
	}
	if got != message {
		t.Errorf("Expected error %q, got %q", message, got)
	}
}

// ExpectNoEvent asserts that nothing arrives on the connection within the
// timeout. A normal close also satisfies the assertion.
func ExpectNoEvent(t *testing.T, conn *websocket.Conn, timeout time.Duration) {
	t.Helper()

	if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		t.Fatalf("Failed to set read deadline: %v", err)
	}
	_, raw, err := conn.ReadMessage()
	if err == nil {
		t.Fatalf("Expected no event, but received: %s", string(raw))
	}
	if netErr, ok := err.(interface{ Timeout() bool }); ok && netErr.Timeout() {
		return
	}
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		return
	}
	t.Fatalf("Unexpected error while waiting for absence of events: %v", err)
}

// CloseWebSocket gracefully closes a WebSocket connection.
func CloseWebSocket(conn *websocket.Conn) error {
	err := conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	if err != nil {
		return err
	}
	return conn.Close()
}

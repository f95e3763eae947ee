// Package server exposes HTTP handlers, including WebSocket upgrades, health
// checks, and the built-in demo page.
package server

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     checkOrigin,
}

// NewWebSocketHandler returns the handler for WebSocket upgrade requests,
// bound to the given hub. It validates that the request uses the GET method,
// upgrades the connection, and registers a new Client; the hub launches the
// client's read/write pumps.
func NewWebSocketHandler(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed. WebSocket endpoint only accepts GET requests.", http.StatusMethodNotAllowed)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("WebSocket upgrade failed: %v", err)
			return
		}

		client := NewClient(conn, hub, r.RemoteAddr)
		hub.register <- client
	}
}

// HealthHandler provides a simple health check endpoint that returns server status.
// It responds with a plain text message indicating the server is running.
func HealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = fmt.Fprintf(w, "PointDeck server is running!")
}

// DemoPageHandler serves a small HTML page for exercising the estimation
// protocol by hand: create or join a room, pick a card, reveal and reset.
func DemoPageHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	html := `<!DOCTYPE html>
<html>
<head>
    <title>PointDeck Demo</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; max-width: 640px; }
        #log { border: 1px solid #ccc; height: 220px; padding: 8px; overflow-y: scroll; margin: 10px 0; background: #f9f9f9; font-size: 13px; }
        input[type="text"] { padding: 5px; margin-right: 6px; }
        button { padding: 5px 12px; background: #007cba; color: white; border: none; cursor: pointer; margin: 2px; }
        button:hover { background: #005a87; }
        .card { width: 42px; }
        #room { margin: 10px 0; white-space: pre; font-family: monospace; }
    </style>
</head>
<body>
    <h1>PointDeck Demo</h1>
    <div>
        <input type="text" id="name" placeholder="Your name">
        <input type="text" id="code" placeholder="Room code">
        <button onclick="createRoom()">Create</button>
        <button onclick="joinRoom()">Join</button>
        <button onclick="leaveRoom()">Leave</button>
    </div>
    <div>
        <button class="card" onclick="vote('1')">1</button>
        <button class="card" onclick="vote('2')">2</button>
        <button class="card" onclick="vote('3')">3</button>
        <button class="card" onclick="vote('5')">5</button>
        <button class="card" onclick="vote('8')">8</button>
        <button class="card" onclick="vote('13')">13</button>
        <button class="card" onclick="vote('?')">?</button>
        <button class="card" onclick="vote('')">&#x2715;</button>
        <button onclick="send('reveal-votes')">Reveal</button>
        <button onclick="send('reset-room')">Reset</button>
    </div>
    <div id="room"></div>
    <div id="log"></div>

    <script>
        const ws = new WebSocket('ws://' + location.host + '/ws');
        const logDiv = document.getElementById('log');
        const roomDiv = document.getElementById('room');

        function addLog(text) {
            const line = document.createElement('div');
            line.textContent = text;
            logDiv.appendChild(line);
            logDiv.scrollTop = logDiv.scrollHeight;
        }

        ws.onopen = () => addLog('connected');
        ws.onclose = () => addLog('disconnected');
        ws.onmessage = (e) => {
            const msg = JSON.parse(e.data);
            addLog(msg.event + (msg.payload !== undefined ? ' ' + JSON.stringify(msg.payload) : ''));
            if (msg.event === 'room-updated') {
                roomDiv.textContent = JSON.stringify(msg.payload, null, 2);
            }
            if (msg.event === 'room-created' || msg.event === 'room-joined') {
                document.getElementById('code').value = msg.payload.roomCode;
            }
            if (msg.event === 'room-closed') {
                roomDiv.textContent = '';
            }
        };

        function send(event, payload) {
            ws.send(JSON.stringify(payload === undefined ? {event} : {event, payload}));
        }
        function createRoom() {
            send('create-room', {playerName: document.getElementById('name').value});
        }
        function joinRoom() {
            send('join-room', {
                roomCode: document.getElementById('code').value,
                playerName: document.getElementById('name').value
            });
        }
        function vote(v) { send('vote', v); }
        function leaveRoom() { send('leave-room'); roomDiv.textContent = ''; }
    </script>
</body>
</html>`
	if _, err := fmt.Fprint(w, html); err != nil {
		log.Printf("Error writing HTML response: %v", err)
	}
}

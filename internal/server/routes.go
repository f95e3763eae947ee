// Package server wires HTTP handlers into a ServeMux for the PointDeck
// application via routing helpers.
package server

import "net/http"

// SetupRoutes configures and returns an HTTP ServeMux with all application
// routes for the given hub: health check, WebSocket endpoint, and demo page.
func SetupRoutes(hub *Hub) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", HealthHandler)
	mux.HandleFunc("/ws", NewWebSocketHandler(hub))
	mux.HandleFunc("/demo", DemoPageHandler)
	return mux
}

// Package server implements the PointDeck planning-poker coordinator.
//
// The implementation is organized into specialized files for configuration,
// the room registry, the per-room state machine, the connection hub, clients,
// routing, and HTTP handlers to keep the codebase maintainable and testable
// as the project grows.
package server

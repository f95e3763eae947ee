// Package unit contains unit tests for individual components of the
// PointDeck server.
//
// These tests focus on testing specific functions and methods in isolation,
// without real network connections, and verify the invariants of the room
// state machine under every event sequence they exercise.
package unit

import (
	"errors"
	"testing"

	"github.com/pointdeck/pointdeck/internal/server"
)

// newRoomWithHost creates a registry-backed room with the given host for
// state machine tests.
func newRoomWithHost(t *testing.T, hostID, hostName string) *server.Room {
	t.Helper()
	registry := server.NewRegistry(6)
	room, err := registry.Create(hostID, hostName)
	if err != nil {
		t.Fatalf("Failed to create room: %v", err)
	}
	return room
}

// assertVotedSubsetOfPlayers verifies the core invariant that every vote
// belongs to a current member.
func assertVotedSubsetOfPlayers(t *testing.T, view server.RoomView) {
	t.Helper()
	for _, id := range view.Voted {
		if _, ok := view.Players[id]; !ok {
			t.Errorf("Vote recorded for %s, who is not a member", id)
		}
	}
	for id := range view.Votes {
		if _, ok := view.Players[id]; !ok {
			t.Errorf("Revealed vote for %s, who is not a member", id)
		}
	}
}

func TestRoomJoinAddsMember(t *testing.T) {
	room := newRoomWithHost(t, "host", "Helen")

	if err := room.Join("p1", "Pat"); err != nil {
		t.Fatalf("Join failed: %v", err)
	}

	view := room.View()
	if len(view.Players) != 2 {
		t.Errorf("Expected 2 players, got %d", len(view.Players))
	}
	if view.Players["p1"] != "Pat" {
		t.Errorf("Expected player p1 to be Pat, got %q", view.Players["p1"])
	}
	if view.Host != "host" {
		t.Errorf("Expected host to be host, got %q", view.Host)
	}
	if view.Revealed {
		t.Error("New room must not start revealed")
	}
}

func TestRoomJoinRejectsEmptyName(t *testing.T) {
	room := newRoomWithHost(t, "host", "Helen")

	if err := room.Join("p1", ""); !errors.Is(err, server.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
}

func TestRoomViewMasksVotesUntilReveal(t *testing.T) {
	room := newRoomWithHost(t, "host", "Helen")
	if err := room.Join("p1", "Pat"); err != nil {
		t.Fatalf("Join failed: %v", err)
	}

	if err := room.CastVote("p1", "5"); err != nil {
		t.Fatalf("CastVote failed: %v", err)
	}

	view := room.View()
	if view.Votes != nil {
		t.Errorf("Vote values must be hidden before reveal, got %v", view.Votes)
	}
	if len(view.Voted) != 1 || view.Voted[0] != "p1" {
		t.Errorf("Expected voted=[p1], got %v", view.Voted)
	}

	if err := room.CastVote("host", "8"); err != nil {
		t.Fatalf("CastVote failed: %v", err)
	}
	if err := room.Reveal("host"); err != nil {
		t.Fatalf("Reveal failed: %v", err)
	}

	view = room.View()
	if !view.Revealed {
		t.Error("Expected revealed=true after reveal")
	}
	if view.Votes["p1"] != "5" || view.Votes["host"] != "8" {
		t.Errorf("Expected revealed votes p1=5 host=8, got %v", view.Votes)
	}
}

func TestRoomVoteAfterRevealRejected(t *testing.T) {
	room := newRoomWithHost(t, "host", "Helen")
	if err := room.CastVote("host", "3"); err != nil {
		t.Fatalf("CastVote failed: %v", err)
	}
	if err := room.Reveal("host"); err != nil {
		t.Fatalf("Reveal failed: %v", err)
	}

	if err := room.CastVote("host", "13"); !errors.Is(err, server.ErrVotesRevealed) {
		t.Errorf("Expected ErrVotesRevealed, got %v", err)
	}

	view := room.View()
	if view.Votes["host"] != "3" {
		t.Errorf("Vote must not change after reveal, got %q", view.Votes["host"])
	}
}

func TestRoomVoteRetraction(t *testing.T) {
	room := newRoomWithHost(t, "host", "Helen")

	if err := room.CastVote("host", "5"); err != nil {
		t.Fatalf("CastVote failed: %v", err)
	}
	if got := room.View().Voted; len(got) != 1 {
		t.Fatalf("Expected one vote, got %v", got)
	}

	// The empty vote removes the entry instead of recording it.
	if err := room.CastVote("host", ""); err != nil {
		t.Fatalf("Retraction failed: %v", err)
	}
	if got := room.View().Voted; len(got) != 0 {
		t.Errorf("Expected no votes after retraction, got %v", got)
	}
}

func TestRoomVoteFromNonMemberRejected(t *testing.T) {
	room := newRoomWithHost(t, "host", "Helen")

	if err := room.CastVote("stranger", "5"); !errors.Is(err, server.ErrRoomNotFound) {
		t.Errorf("Expected ErrRoomNotFound, got %v", err)
	}
	assertVotedSubsetOfPlayers(t, room.View())
}

func TestRoomRevealRequiresHost(t *testing.T) {
	room := newRoomWithHost(t, "host", "Helen")
	if err := room.Join("p1", "Pat"); err != nil {
		t.Fatalf("Join failed: %v", err)
	}

	if err := room.Reveal("p1"); !errors.Is(err, server.ErrUnauthorized) {
		t.Errorf("Expected ErrUnauthorized, got %v", err)
	}
	if room.View().Revealed {
		t.Error("Non-host reveal must not change state")
	}
}

func TestRoomRevealRequiresFullParticipation(t *testing.T) {
	room := newRoomWithHost(t, "host", "Helen")
	if err := room.Join("p1", "Pat"); err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	if err := room.CastVote("host", "5"); err != nil {
		t.Fatalf("CastVote failed: %v", err)
	}

	if err := room.Reveal("host"); !errors.Is(err, server.ErrIncompleteVoting) {
		t.Errorf("Expected ErrIncompleteVoting, got %v", err)
	}

	if err := room.CastVote("p1", "8"); err != nil {
		t.Fatalf("CastVote failed: %v", err)
	}
	if err := room.Reveal("host"); err != nil {
		t.Errorf("Reveal with full participation failed: %v", err)
	}
}

func TestRoomResetClearsVotesAndHidesRound(t *testing.T) {
	room := newRoomWithHost(t, "host", "Helen")
	if err := room.CastVote("host", "5"); err != nil {
		t.Fatalf("CastVote failed: %v", err)
	}
	if err := room.Reveal("host"); err != nil {
		t.Fatalf("Reveal failed: %v", err)
	}

	if err := room.Reset("p1"); !errors.Is(err, server.ErrUnauthorized) {
		t.Errorf("Expected ErrUnauthorized for non-host reset, got %v", err)
	}

	if err := room.Reset("host"); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}

	view := room.View()
	if view.Revealed {
		t.Error("Expected revealed=false after reset")
	}
	if len(view.Voted) != 0 || len(view.Votes) != 0 {
		t.Errorf("Expected empty votes after reset, got voted=%v votes=%v", view.Voted, view.Votes)
	}

	// Voting works again after the reset.
	if err := room.CastVote("host", "2"); err != nil {
		t.Errorf("CastVote after reset failed: %v", err)
	}
}

func TestRoomRemoveDropsMemberAndVote(t *testing.T) {
	room := newRoomWithHost(t, "host", "Helen")
	if err := room.Join("p1", "Pat"); err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	if err := room.CastVote("p1", "5"); err != nil {
		t.Fatalf("CastVote failed: %v", err)
	}

	removed, empty := room.Remove("p1")
	if !removed {
		t.Error("Expected Remove to report the member was present")
	}
	if empty {
		t.Error("Room still has the host; must not report empty")
	}

	view := room.View()
	assertVotedSubsetOfPlayers(t, view)
	if len(view.Voted) != 0 {
		t.Errorf("Departed member's vote must be dropped, got %v", view.Voted)
	}

	removed, _ = room.Remove("p1")
	if removed {
		t.Error("Second Remove for the same member must be a no-op")
	}

	_, empty = room.Remove("host")
	if !empty {
		t.Error("Removing the last member must report the room as empty")
	}
}

func TestRoomInvariantHeldAcrossEventSequence(t *testing.T) {
	room := newRoomWithHost(t, "host", "Helen")

	steps := []func(){
		func() { _ = room.Join("p1", "Pat") },
		func() { _ = room.CastVote("p1", "5") },
		func() { _ = room.Join("p2", "Quinn") },
		func() { _ = room.CastVote("p2", "8") },
		func() { room.Remove("p1") },
		func() { _ = room.CastVote("host", "3") },
		func() { _ = room.Reveal("host") },
		func() { _ = room.CastVote("p2", "13") },
		func() { _ = room.Reset("host") },
		func() { room.Remove("p2") },
	}

	for i, step := range steps {
		step()
		view := room.View()
		assertVotedSubsetOfPlayers(t, view)
		if t.Failed() {
			t.Fatalf("Invariant broken after step %d", i)
		}
	}
}

func TestRoomCloseIsIdempotent(t *testing.T) {
	room := newRoomWithHost(t, "host", "Helen")
	if err := room.Join("p1", "Pat"); err != nil {
		t.Fatalf("Join failed: %v", err)
	}

	members := room.Close()
	if len(members) != 2 {
		t.Errorf("Expected 2 members to notify, got %d", len(members))
	}

	if again := room.Close(); again != nil {
		t.Errorf("Second Close must return nil, got %v", again)
	}

	if err := room.Join("p2", "Quinn"); !errors.Is(err, server.ErrRoomNotFound) {
		t.Errorf("Join on a closed room must fail with ErrRoomNotFound, got %v", err)
	}
	if err := room.CastVote("p1", "5"); !errors.Is(err, server.ErrRoomNotFound) {
		t.Errorf("Vote on a closed room must fail with ErrRoomNotFound, got %v", err)
	}
}

package store

import "github.com/arenahub/arena-client/pkg/types"

// Snapshot is an immutable copy of the whole cache at one point in time.
// UnreadCount is derived from the read flags on every build, never stored.
type Snapshot struct {
	Notifications []types.Notification
	UnreadCount   int
	PanelOpen     bool
	Tournaments   []types.Tournament
	Requests      map[int64]RequestState
	FantasyTeams  []types.FantasyTeam
	Rooms         map[string][]types.ChatMessage
}

func (s *Store) snapshot() Snapshot {
	snap := Snapshot{
		Notifications: append([]types.Notification(nil), s.notifications...),
		PanelOpen:     s.panelOpen,
		Tournaments:   append([]types.Tournament(nil), s.tournaments...),
		Requests:      make(map[int64]RequestState, len(s.requests)),
		FantasyTeams:  append([]types.FantasyTeam(nil), s.fantasy...),
		Rooms:         make(map[string][]types.ChatMessage, len(s.rooms)),
	}
	for id, st := range s.requests {
		snap.Requests[id] = st
	}
	for room, msgs := range s.rooms {
		snap.Rooms[room] = append([]types.ChatMessage(nil), msgs...)
	}
	for _, n := range snap.Notifications {
		if !n.Read {
			snap.UnreadCount++
		}
	}
	return snap
}

// Room is a convenience selector for one room's messages.
func (s Snapshot) Room(roomID string) []types.ChatMessage {
	return s.Rooms[roomID]
}

// Request reports the join/leave lifecycle for a tournament, ok=false when
// no request has been made.
func (s Snapshot) Request(tournamentID int64) (RequestState, bool) {
	st, ok := s.Requests[tournamentID]
	return st, ok
}

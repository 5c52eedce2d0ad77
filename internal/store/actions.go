package store

import "github.com/arenahub/arena-client/pkg/types"

// The exported surface below is the only way to mutate or read the cache.
// Every call funnels into the loop goroutine via the inbox.

func (s *Store) send(a action) {
	select {
	case s.inbox <- a:
	case <-s.ctx.Done():
	}
}

func (s *Store) HydrateNotifications(items []types.Notification) {
	s.send(hydrateNotifications{items: items})
}

func (s *Store) PushNotification(n types.Notification) {
	s.send(pushNotification{n: n})
}

func (s *Store) MarkRead(id string)           { s.send(markRead{id: id}) }
func (s *Store) MarkAllRead()                 { s.send(markAllRead{}) }
func (s *Store) RemoveNotification(id string) { s.send(removeNotification{id: id}) }
func (s *Store) SetPanelOpen(open bool)       { s.send(setPanelOpen{open: open}) }
func (s *Store) TogglePanel()                 { s.send(togglePanel{}) }

func (s *Store) HydrateTournaments(items []types.Tournament) {
	s.send(hydrateTournaments{items: items})
}

func (s *Store) SetRequestPending(tournamentID int64, kind RequestKind) {
	s.send(setRequestPending{id: tournamentID, kind: kind})
}

// ResolveRequest moves a pending join/leave to fulfilled (err == nil) or
// rejected. The tournament list itself is not patched; callers re-fetch.
func (s *Store) ResolveRequest(tournamentID int64, err error) {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	s.send(resolveRequest{id: tournamentID, err: msg})
}

func (s *Store) HydrateFantasyTeams(items []types.FantasyTeam) {
	s.send(hydrateFantasyTeams{items: items})
}

func (s *Store) HydrateRoom(roomID string, msgs []types.ChatMessage) {
	s.send(hydrateRoom{room: roomID, msgs: msgs})
}

func (s *Store) AppendRoomMessage(msg types.ChatMessage) {
	s.send(appendRoomMessage{msg: msg})
}

// Snapshot returns a copy of the current state, serialized through the loop
// so reads never race mutations.
func (s *Store) Snapshot() Snapshot {
	reply := make(chan Snapshot, 1)
	select {
	case s.inbox <- getSnapshot{reply: reply}:
		return <-reply
	case <-s.ctx.Done():
		return Snapshot{}
	}
}

// Watch registers an observer. The returned channel receives a snapshot after
// every mutation; cancel revokes the subscription. A watcher that stops
// draining is dropped and its channel closed.
func (s *Store) Watch() (<-chan Snapshot, func()) {
	reply := make(chan watchHandle, 1)
	select {
	case s.inbox <- watchReq{reply: reply}:
	case <-s.ctx.Done():
		ch := make(chan Snapshot)
		close(ch)
		return ch, func() {}
	}
	h := <-reply
	return h.ch, func() { s.send(unwatch{id: h.id}) }
}

func (s *Store) Close() { s.send(shutdown{}) }

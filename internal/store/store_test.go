package store

import (
	"context"
	"testing"
	"time"

	"github.com/arenahub/arena-client/pkg/types"
)

// helper: receive one snapshot with a timeout so tests never hang
func recvSnapshot(t *testing.T, ch <-chan Snapshot, within time.Duration) Snapshot {
	t.Helper()
	select {
	case snap, ok := <-ch:
		if !ok {
			t.Fatalf("watcher channel closed unexpectedly")
		}
		return snap
	case <-time.After(within):
		t.Fatalf("timed out waiting for snapshot")
		return Snapshot{} // unreachable
	}
}

func notif(id string, read bool) types.Notification {
	return types.Notification{
		ID:       id,
		Category: types.CategorySystem,
		Title:    "t",
		Message:  "m",
		Read:     read,
	}
}

func TestStore_UnreadCountTracksFlags(t *testing.T) {
	s := New(context.Background(), nil)
	defer s.Close()

	// Every mutation below must leave UnreadCount equal to the number of
	// notifications with Read == false.
	s.HydrateNotifications([]types.Notification{notif("a", false), notif("b", true), notif("c", false)})
	if got := s.Snapshot().UnreadCount; got != 2 {
		t.Fatalf("after hydrate: want unread=2, got %d", got)
	}

	s.PushNotification(notif("d", false))
	if got := s.Snapshot().UnreadCount; got != 3 {
		t.Fatalf("after push: want unread=3, got %d", got)
	}

	s.MarkRead("a")
	if got := s.Snapshot().UnreadCount; got != 2 {
		t.Fatalf("after mark a: want unread=2, got %d", got)
	}

	s.MarkRead("a") // second mark is a no-op
	if got := s.Snapshot().UnreadCount; got != 2 {
		t.Fatalf("after re-mark a: want unread=2, got %d", got)
	}

	s.MarkAllRead()
	snap := s.Snapshot()
	if snap.UnreadCount != 0 {
		t.Fatalf("after mark all: want unread=0, got %d", snap.UnreadCount)
	}
	for _, n := range snap.Notifications {
		if !n.Read {
			t.Fatalf("after mark all: %s still unread", n.ID)
		}
	}
}

func TestStore_PushPrepends(t *testing.T) {
	s := New(context.Background(), nil)
	defer s.Close()

	s.HydrateNotifications([]types.Notification{notif("old", false)})
	s.PushNotification(notif("new", false))

	snap := s.Snapshot()
	if len(snap.Notifications) != 2 || snap.Notifications[0].ID != "new" {
		t.Fatalf("want most-recent-first [new old], got %+v", snap.Notifications)
	}
}

func TestStore_RemoveNotification(t *testing.T) {
	s := New(context.Background(), nil)
	defer s.Close()

	s.HydrateNotifications([]types.Notification{notif("a", false), notif("b", false)})
	s.RemoveNotification("a")

	snap := s.Snapshot()
	if len(snap.Notifications) != 1 || snap.Notifications[0].ID != "b" {
		t.Fatalf("want [b], got %+v", snap.Notifications)
	}
	if snap.UnreadCount != 1 {
		t.Fatalf("want unread=1 after removal, got %d", snap.UnreadCount)
	}
}

func TestStore_HistoryReplaceSupersedesAppends(t *testing.T) {
	s := New(context.Background(), nil)
	defer s.Close()

	s.AppendRoomMessage(types.ChatMessage{RoomID: "r1", Sender: "ann", Content: "hi"})
	s.AppendRoomMessage(types.ChatMessage{RoomID: "r1", Sender: "bob", Content: "yo"})

	history := []types.ChatMessage{
		{ID: "m1", RoomID: "r1", Sender: "ann", Content: "earlier"},
	}
	s.HydrateRoom("r1", history)

	got := s.Snapshot().Room("r1")
	if len(got) != 1 || got[0].ID != "m1" {
		t.Fatalf("history must replace prior appends wholesale, got %+v", got)
	}
}

func TestStore_AppendKeepsArrivalOrder(t *testing.T) {
	s := New(context.Background(), nil)
	defer s.Close()

	for _, content := range []string{"one", "two", "three"} {
		s.AppendRoomMessage(types.ChatMessage{RoomID: "r1", Sender: "ann", Content: content})
	}
	got := s.Snapshot().Room("r1")
	if len(got) != 3 || got[0].Content != "one" || got[2].Content != "three" {
		t.Fatalf("want chronological append order, got %+v", got)
	}
}

func TestStore_PanelToggle(t *testing.T) {
	s := New(context.Background(), nil)
	defer s.Close()

	if s.Snapshot().PanelOpen {
		t.Fatalf("panel should start closed")
	}
	s.TogglePanel()
	if !s.Snapshot().PanelOpen {
		t.Fatalf("toggle should open panel")
	}
	s.SetPanelOpen(false)
	if s.Snapshot().PanelOpen {
		t.Fatalf("SetPanelOpen(false) should close panel")
	}
}

func TestStore_RequestLifecycle(t *testing.T) {
	s := New(context.Background(), nil)
	defer s.Close()

	s.SetRequestPending(7, RequestJoin)
	st, ok := s.Snapshot().Request(7)
	if !ok || st.Phase != PhasePending || st.Kind != RequestJoin {
		t.Fatalf("want pending join, got %+v ok=%v", st, ok)
	}

	s.ResolveRequest(7, nil)
	st, _ = s.Snapshot().Request(7)
	if st.Phase != PhaseFulfilled {
		t.Fatalf("want fulfilled, got %+v", st)
	}

	s.SetRequestPending(8, RequestLeave)
	s.ResolveRequest(8, context.DeadlineExceeded)
	st, _ = s.Snapshot().Request(8)
	if st.Phase != PhaseRejected || st.Err == "" {
		t.Fatalf("want rejected with error, got %+v", st)
	}
}

func TestStore_WatcherSeesMutations(t *testing.T) {
	s := New(context.Background(), nil)
	defer s.Close()

	ch, cancel := s.Watch()
	defer cancel()

	s.PushNotification(notif("a", false))
	snap := recvSnapshot(t, ch, 200*time.Millisecond)
	if snap.UnreadCount != 1 {
		t.Fatalf("watcher snapshot: want unread=1, got %d", snap.UnreadCount)
	}
}

func TestStore_SlowWatcherIsDropped(t *testing.T) {
	s := New(context.Background(), nil)
	defer s.Close()

	ch, cancel := s.Watch()
	defer cancel()

	// Never drain; the buffer fills and the store must drop us rather than stall.
	for i := 0; i < 20; i++ {
		s.PushNotification(notif(string(rune('a'+i)), false))
	}
	// Force the loop to finish processing everything above.
	_ = s.Snapshot()

	// Drain whatever was buffered; the channel must end up closed.
	deadline := time.After(500 * time.Millisecond)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return // dropped, as expected
			}
		case <-deadline:
			t.Fatalf("expected slow watcher channel to be closed")
		}
	}
}

func TestStore_SnapshotIsACopy(t *testing.T) {
	s := New(context.Background(), nil)
	defer s.Close()

	s.HydrateNotifications([]types.Notification{notif("a", false)})
	snap := s.Snapshot()
	snap.Notifications[0].Read = true

	if got := s.Snapshot().UnreadCount; got != 1 {
		t.Fatalf("mutating a snapshot must not touch the store; unread=%d", got)
	}
}

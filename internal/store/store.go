// Package store is the single in-memory source of truth the UI observes:
// notifications, tournaments, fantasy teams and per-room chat. All mutation
// goes through typed actions processed by one loop goroutine, so consumers
// never see a half-applied update.
package store

import (
	"context"

	"go.uber.org/zap"

	"github.com/arenahub/arena-client/pkg/types"
)

type action interface{ isAction() }

type hydrateNotifications struct{ items []types.Notification }
type pushNotification struct{ n types.Notification }
type markRead struct{ id string }
type markAllRead struct{}
type removeNotification struct{ id string }
type setPanelOpen struct{ open bool }
type togglePanel struct{}

type hydrateTournaments struct{ items []types.Tournament }
type setRequestPending struct {
	id   int64
	kind RequestKind
}
type resolveRequest struct {
	id  int64
	err string // empty on fulfillment
}

type hydrateFantasyTeams struct{ items []types.FantasyTeam }

type hydrateRoom struct {
	room string
	msgs []types.ChatMessage
}
type appendRoomMessage struct{ msg types.ChatMessage }

type getSnapshot struct{ reply chan Snapshot }
type watchReq struct{ reply chan watchHandle }
type unwatch struct{ id int }
type shutdown struct{}

func (hydrateNotifications) isAction() {}
func (pushNotification) isAction()     {}
func (markRead) isAction()             {}
func (markAllRead) isAction()          {}
func (removeNotification) isAction()   {}
func (setPanelOpen) isAction()         {}
func (togglePanel) isAction()          {}
func (hydrateTournaments) isAction()   {}
func (setRequestPending) isAction()    {}
func (resolveRequest) isAction()       {}
func (hydrateFantasyTeams) isAction()  {}
func (hydrateRoom) isAction()          {}
func (appendRoomMessage) isAction()    {}
func (getSnapshot) isAction()          {}
func (watchReq) isAction()             {}
func (unwatch) isAction()              {}
func (shutdown) isAction()             {}

type RequestKind string

const (
	RequestJoin  RequestKind = "join"
	RequestLeave RequestKind = "leave"
)

type RequestPhase string

const (
	PhasePending   RequestPhase = "pending"
	PhaseFulfilled RequestPhase = "fulfilled"
	PhaseRejected  RequestPhase = "rejected"
)

// RequestState tracks one tournament join/leave round trip so the UI can
// show a spinner and refuse duplicate submissions.
type RequestState struct {
	Kind  RequestKind
	Phase RequestPhase
	Err   string
}

type watchHandle struct {
	id int
	ch chan Snapshot
}

type Store struct {
	inbox  chan action
	ctx    context.Context
	cancel context.CancelFunc
	log    *zap.Logger

	notifications []types.Notification // most recent first
	panelOpen     bool
	tournaments   []types.Tournament
	requests      map[int64]RequestState
	fantasy       []types.FantasyTeam
	rooms         map[string][]types.ChatMessage

	watchers    map[int]chan Snapshot
	nextWatchID int
}

func New(parent context.Context, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(parent)
	s := &Store{
		inbox:    make(chan action, 64),
		ctx:      ctx,
		cancel:   cancel,
		log:      log,
		requests: make(map[int64]RequestState),
		rooms:    make(map[string][]types.ChatMessage),
		watchers: make(map[int]chan Snapshot),
	}
	go s.loop()
	return s
}

func (s *Store) loop() {
	for {
		select {
		case <-s.ctx.Done():
			s.shutdown()
			return

		case a := <-s.inbox:
			switch act := a.(type) {
			case hydrateNotifications:
				// Wholesale replace; last write wins against live pushes.
				s.notifications = act.items
				s.broadcast()

			case pushNotification:
				// Most-recent-first.
				s.notifications = append([]types.Notification{act.n}, s.notifications...)
				s.broadcast()

			case markRead:
				for i := range s.notifications {
					if s.notifications[i].ID == act.id {
						s.notifications[i].Read = true
						break
					}
				}
				s.broadcast()

			case markAllRead:
				for i := range s.notifications {
					s.notifications[i].Read = true
				}
				s.broadcast()

			case removeNotification:
				for i := range s.notifications {
					if s.notifications[i].ID == act.id {
						s.notifications = append(s.notifications[:i], s.notifications[i+1:]...)
						break
					}
				}
				s.broadcast()

			case setPanelOpen:
				s.panelOpen = act.open
				s.broadcast()

			case togglePanel:
				s.panelOpen = !s.panelOpen
				s.broadcast()

			case hydrateTournaments:
				s.tournaments = act.items
				s.broadcast()

			case setRequestPending:
				s.requests[act.id] = RequestState{Kind: act.kind, Phase: PhasePending}
				s.broadcast()

			case resolveRequest:
				st, ok := s.requests[act.id]
				if !ok {
					s.log.Warn("resolve for unknown request", zap.Int64("tournament_id", act.id))
					break
				}
				if act.err == "" {
					st.Phase = PhaseFulfilled
				} else {
					st.Phase = PhaseRejected
					st.Err = act.err
				}
				s.requests[act.id] = st
				s.broadcast()

			case hydrateFantasyTeams:
				s.fantasy = act.items
				s.broadcast()

			case hydrateRoom:
				// History is authoritative: drop whatever was appended before.
				s.rooms[act.room] = act.msgs
				s.broadcast()

			case appendRoomMessage:
				room := act.msg.RoomID
				s.rooms[room] = append(s.rooms[room], act.msg)
				s.broadcast()

			case getSnapshot:
				act.reply <- s.snapshot()

			case watchReq:
				id := s.nextWatchID
				s.nextWatchID++
				ch := make(chan Snapshot, 8)
				s.watchers[id] = ch
				act.reply <- watchHandle{id: id, ch: ch}

			case unwatch:
				if ch, ok := s.watchers[act.id]; ok {
					close(ch)
					delete(s.watchers, act.id)
				}

			case shutdown:
				s.shutdown()
				return
			}
		}
	}
}

func (s *Store) shutdown() {
	for id, ch := range s.watchers {
		close(ch)
		delete(s.watchers, id)
	}
	s.cancel()
}

// broadcast pushes a fresh snapshot to every watcher. Slow watchers are
// dropped rather than allowed to stall the loop.
func (s *Store) broadcast() {
	if len(s.watchers) == 0 {
		return
	}
	snap := s.snapshot()
	for id, ch := range s.watchers {
		select {
		case ch <- snap:
			// ok
		default:
			close(ch)
			delete(s.watchers, id)
		}
	}
}

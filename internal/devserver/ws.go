package devserver

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/arenahub/arena-client/pkg/types"
)

func (s *Server) handleNotificationsWS(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("token") == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	s.mu.Lock()
	s.notifConns[conn] = struct{}{}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.notifConns, conn)
		s.mu.Unlock()
	}()

	// The notifications channel is push-only; the read loop just detects close.
	for {
		if _, _, err := conn.Read(r.Context()); err != nil {
			return
		}
	}
}

func (s *Server) handleChatWS(w http.ResponseWriter, r *http.Request) {
	room := r.URL.Query().Get("room_id")
	if room == "" {
		http.Error(w, "missing room_id", http.StatusBadRequest)
		return
	}
	if r.URL.Query().Get("token") == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	s.mu.Lock()
	if s.roomConns[room] == nil {
		s.roomConns[room] = make(map[*websocket.Conn]struct{})
	}
	s.roomConns[room][conn] = struct{}{}
	history := append([]types.ChatMessage(nil), s.history[room]...)
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.roomConns[room], conn)
		s.mu.Unlock()
	}()

	// History replay on join, then live messages only.
	s.writeFrame(conn, map[string]any{
		"type":     "message_history",
		"room_id":  room,
		"messages": history,
	})

	for {
		_, data, err := conn.Read(r.Context())
		if err != nil {
			return
		}
		var send types.ChatSend
		if err := json.Unmarshal(data, &send); err != nil || send.Content == "" {
			s.log.Warn("bad chat frame", zap.Error(err))
			continue
		}
		msg := s.recordMessage(room, send.Sender, send.Content)
		s.broadcastChat(room, msg)
	}
}

// NotifClientCount reports connected notifications-channel clients, so tests
// can wait for registration before pushing.
func (s *Server) NotifClientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.notifConns)
}

// RoomClientCount reports connected chat clients for one room.
func (s *Server) RoomClientCount(room string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.roomConns[room])
}

// PushFrame sends a raw frame to every notifications-channel client.
func (s *Server) PushFrame(frame any) {
	s.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(s.notifConns))
	for c := range s.notifConns {
		conns = append(conns, c)
	}
	s.mu.Unlock()
	for _, c := range conns {
		s.writeFrame(c, frame)
	}
}

// PushNotification stores and pushes a pre-formed notification frame.
func (s *Server) PushNotification(n types.Notification) {
	s.mu.Lock()
	s.notifications = append([]types.Notification{n}, s.notifications...)
	s.mu.Unlock()
	s.PushFrame(map[string]any{"type": "notification", "notification": n})
}

// SeedTournaments / SeedFantasyTeams / SeedNotifications prime the stub state.

func (s *Server) SeedTournaments(items []types.Tournament) {
	s.mu.Lock()
	s.tournaments = append([]types.Tournament(nil), items...)
	s.mu.Unlock()
}

func (s *Server) SeedFantasyTeams(items []types.FantasyTeam) {
	s.mu.Lock()
	s.fantasy = append([]types.FantasyTeam(nil), items...)
	s.mu.Unlock()
}

func (s *Server) SeedNotifications(items []types.Notification) {
	s.mu.Lock()
	s.notifications = append([]types.Notification(nil), items...)
	s.mu.Unlock()
}

func (s *Server) broadcastChat(room string, msg types.ChatMessage) {
	s.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(s.roomConns[room]))
	for c := range s.roomConns[room] {
		conns = append(conns, c)
	}
	s.mu.Unlock()
	for _, c := range conns {
		s.writeFrame(c, map[string]any{"type": "chat_message", "message": msg})
	}
}

func (s *Server) writeFrame(conn *websocket.Conn, frame any) {
	payload, err := json.Marshal(frame)
	if err != nil {
		s.log.Warn("frame marshal failed", zap.Error(err))
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := conn.Write(ctx, websocket.MessageText, payload); err != nil {
		s.log.Warn("frame write failed", zap.Error(err))
	}
}

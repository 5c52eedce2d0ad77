// Package devserver is a stub of the platform backend: the REST surface the
// SDK consumes plus both realtime channels. Tests and cmd/devserver use it;
// it holds everything in memory and applies no real business rules.
package devserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/arenahub/arena-client/pkg/types"
)

type Server struct {
	log *zap.Logger

	mu            sync.Mutex
	notifications []types.Notification
	tournaments   []types.Tournament
	fantasy       []types.FantasyTeam
	history       map[string][]types.ChatMessage
	joined        map[int64]map[string]bool // tournament id -> usernames
	analyses      map[string]types.AnalysisResult
	nextMsgID     int64
	nextAnalysis  int64

	notifConns map[*websocket.Conn]struct{}
	roomConns  map[string]map[*websocket.Conn]struct{}
}

func New(log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		log:        log,
		history:    make(map[string][]types.ChatMessage),
		joined:     make(map[int64]map[string]bool),
		analyses:   make(map[string]types.AnalysisResult),
		notifConns: make(map[*websocket.Conn]struct{}),
		roomConns:  make(map[string]map[*websocket.Conn]struct{}),
	}
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Post("/api/auth/login", s.handleLogin)
	r.Post("/api/auth/register", s.handleLogin)
	r.Post("/api/auth/refresh", s.handleRefresh)
	r.Post("/api/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	r.Get("/api/users/me", s.handleProfile)

	r.Get("/api/notifications", s.handleNotifications)
	r.Post("/api/notifications/{id}/read", s.handleMarkRead)
	r.Post("/api/notifications/read-all", s.handleMarkAllRead)
	r.Delete("/api/notifications/{id}", s.handleRemoveNotification)

	r.Get("/api/tournaments", s.handleTournaments)
	r.Post("/api/tournaments/{id}/join", s.handleJoin)
	r.Post("/api/tournaments/{id}/leave", s.handleLeave)

	r.Get("/api/fantasy/teams", s.handleFantasyTeams)

	r.Get("/api/chat/rooms/{room}/messages", s.handleRoomHistory)
	r.Post("/api/chat/rooms/{room}/messages", s.handleRoomSend)

	r.Post("/api/analysis", s.handleSubmitAnalysis)
	r.Get("/api/analysis/{id}", s.handleAnalysisResult)

	r.Get("/ws/notifications/", s.handleNotificationsWS)
	r.Get("/ws/chat/", s.handleChatWS)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

// bearer pulls the token out of the Authorization header. The stub accepts
// any non-empty token.
func bearer(r *http.Request) (string, bool) {
	const prefix = "Bearer "
	h := r.Header.Get("Authorization")
	if len(h) <= len(prefix) {
		return "", false
	}
	return h[len(prefix):], true
}

func requireAuth(w http.ResponseWriter, r *http.Request) bool {
	if _, ok := bearer(r); !ok {
		writeDetail(w, http.StatusUnauthorized, "missing credentials")
		return false
	}
	return true
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Username == "" {
		writeDetail(w, http.StatusBadRequest, "username required")
		return
	}
	writeJSON(w, http.StatusOK, types.TokenPair{
		Access:  "dev-" + body.Username,
		Refresh: "dev-refresh-" + body.Username,
	})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Refresh string `json:"refresh"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Refresh == "" {
		writeDetail(w, http.StatusBadRequest, "refresh required")
		return
	}
	writeJSON(w, http.StatusOK, types.TokenPair{Access: "dev-refreshed", Refresh: body.Refresh})
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	if !requireAuth(w, r) {
		return
	}
	tok, _ := bearer(r)
	writeJSON(w, http.StatusOK, types.UserProfile{ID: 1, Username: tok, Email: tok + "@example.com"})
}

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	if !requireAuth(w, r) {
		return
	}
	s.mu.Lock()
	items := append([]types.Notification(nil), s.notifications...)
	s.mu.Unlock()
	if items == nil {
		items = []types.Notification{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	if !requireAuth(w, r) {
		return
	}
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.notifications {
		if s.notifications[i].ID == id {
			s.notifications[i].Read = true
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	writeDetail(w, http.StatusNotFound, "notification not found")
}

func (s *Server) handleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	if !requireAuth(w, r) {
		return
	}
	s.mu.Lock()
	for i := range s.notifications {
		s.notifications[i].Read = true
	}
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRemoveNotification(w http.ResponseWriter, r *http.Request) {
	if !requireAuth(w, r) {
		return
	}
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.notifications {
		if s.notifications[i].ID == id {
			s.notifications = append(s.notifications[:i], s.notifications[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	writeDetail(w, http.StatusNotFound, "notification not found")
}

func (s *Server) handleTournaments(w http.ResponseWriter, r *http.Request) {
	if !requireAuth(w, r) {
		return
	}
	s.mu.Lock()
	items := append([]types.Tournament(nil), s.tournaments...)
	s.mu.Unlock()
	if items == nil {
		items = []types.Tournament{}
	}
	writeJSON(w, http.StatusOK, items)
}

func tournamentID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	if !requireAuth(w, r) {
		return
	}
	id, err := tournamentID(r)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "bad tournament id")
		return
	}
	tok, _ := bearer(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.tournaments {
		t := &s.tournaments[i]
		if t.ID != id {
			continue
		}
		if t.MaxParticipants > 0 && t.Participants >= t.MaxParticipants {
			writeDetail(w, http.StatusConflict, "tournament is full")
			return
		}
		if s.joined[id] == nil {
			s.joined[id] = make(map[string]bool)
		}
		if s.joined[id][tok] {
			writeDetail(w, http.StatusConflict, "already joined")
			return
		}
		s.joined[id][tok] = true
		t.Participants++
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeDetail(w, http.StatusNotFound, "tournament not found")
}

func (s *Server) handleLeave(w http.ResponseWriter, r *http.Request) {
	if !requireAuth(w, r) {
		return
	}
	id, err := tournamentID(r)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "bad tournament id")
		return
	}
	tok, _ := bearer(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.tournaments {
		t := &s.tournaments[i]
		if t.ID != id {
			continue
		}
		if !s.joined[id][tok] {
			writeDetail(w, http.StatusConflict, "not a participant")
			return
		}
		delete(s.joined[id], tok)
		t.Participants--
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeDetail(w, http.StatusNotFound, "tournament not found")
}

func (s *Server) handleFantasyTeams(w http.ResponseWriter, r *http.Request) {
	if !requireAuth(w, r) {
		return
	}
	s.mu.Lock()
	items := append([]types.FantasyTeam(nil), s.fantasy...)
	s.mu.Unlock()
	if items == nil {
		items = []types.FantasyTeam{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleRoomHistory(w http.ResponseWriter, r *http.Request) {
	if !requireAuth(w, r) {
		return
	}
	room := chi.URLParam(r, "room")
	s.mu.Lock()
	items := append([]types.ChatMessage(nil), s.history[room]...)
	s.mu.Unlock()
	if items == nil {
		items = []types.ChatMessage{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleRoomSend(w http.ResponseWriter, r *http.Request) {
	if !requireAuth(w, r) {
		return
	}
	room := chi.URLParam(r, "room")
	var body types.ChatSend
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Content == "" {
		writeDetail(w, http.StatusBadRequest, "content required")
		return
	}
	msg := s.recordMessage(room, body.Sender, body.Content)
	s.broadcastChat(room, msg)
	writeJSON(w, http.StatusCreated, msg)
}

func (s *Server) handleSubmitAnalysis(w http.ResponseWriter, r *http.Request) {
	if !requireAuth(w, r) {
		return
	}
	var body struct {
		VideoURL string `json:"video_url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.VideoURL == "" {
		writeDetail(w, http.StatusBadRequest, "video_url required")
		return
	}
	s.mu.Lock()
	s.nextAnalysis++
	res := types.AnalysisResult{
		ID:      fmt.Sprintf("a%d", s.nextAnalysis),
		Status:  "processing",
		Summary: fmt.Sprintf("gameplay analysis of %s", body.VideoURL),
	}
	s.analyses[res.ID] = res
	s.mu.Unlock()
	writeJSON(w, http.StatusAccepted, types.AnalysisResult{ID: res.ID, Status: res.Status})
}

// The stub finishes instantly: the first poll sees the analysis done.
func (s *Server) handleAnalysisResult(w http.ResponseWriter, r *http.Request) {
	if !requireAuth(w, r) {
		return
	}
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	res, ok := s.analyses[id]
	if ok {
		res.Status = "done"
		s.analyses[id] = res
	}
	s.mu.Unlock()
	if !ok {
		writeDetail(w, http.StatusNotFound, "analysis not found")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// recordMessage appends to the room history and assigns the server id/time.
func (s *Server) recordMessage(room, sender, content string) types.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextMsgID++
	msg := types.ChatMessage{
		ID:        fmt.Sprintf("m%d", s.nextMsgID),
		RoomID:    room,
		Sender:    sender,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}
	s.history[room] = append(s.history[room], msg)
	return msg
}

package types

import (
	"encoding/json"
	"time"

	"github.com/tidwall/gjson"
)

type NotificationCategory string

const (
	CategoryTournament   NotificationCategory = "tournament"
	CategoryFantasy      NotificationCategory = "fantasy"
	CategoryCommunity    NotificationCategory = "community"
	CategoryGamification NotificationCategory = "gamification"
	CategoryAI           NotificationCategory = "ai"
	CategorySystem       NotificationCategory = "system"
	CategoryOther        NotificationCategory = "other"
)

// Notification is one unit of asynchronous information pushed to the user.
// IDs are server-assigned for fetched notifications and client-generated for
// ones synthesized from live frames.
type Notification struct {
	ID        string               `json:"id"`
	Category  NotificationCategory `json:"category"`
	Title     string               `json:"title"`
	Message   string               `json:"message"`
	Read      bool                 `json:"read"`
	CreatedAt time.Time            `json:"created_at"`
	Data      json.RawMessage      `json:"data,omitempty"` // category-specific routing fields
}

// DataField reads one path out of the opaque Data payload (e.g. "tournament_id").
func (n Notification) DataField(path string) gjson.Result {
	return gjson.GetBytes(n.Data, path)
}

type ChatMessage struct {
	ID        string    `json:"id,omitempty"`
	RoomID    string    `json:"room_id"`
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

type TournamentStatus string

const (
	TournamentUpcoming TournamentStatus = "upcoming"
	TournamentLive     TournamentStatus = "live"
	TournamentDone     TournamentStatus = "done"
)

type Tournament struct {
	ID              int64            `json:"id"`
	Name            string           `json:"name"`
	Game            string           `json:"game"`
	Status          TournamentStatus `json:"status"`
	Participants    int              `json:"participants"`
	MaxParticipants int              `json:"max_participants"`
	StartsAt        time.Time        `json:"starts_at"`
}

type FantasyTeam struct {
	ID     int64   `json:"id"`
	Name   string  `json:"name"`
	League string  `json:"league"`
	Points float64 `json:"points"`
}

type UserProfile struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

type AnalysisResult struct {
	ID      string `json:"id"`
	Status  string `json:"status"` // "pending" | "processing" | "done" | "failed"
	Summary string `json:"summary,omitempty"`
}

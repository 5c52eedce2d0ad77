// Package dispatch turns raw socket frames into cache mutations. Frame types
// form a closed union, so a frame the switch does not cover is a compile-time
// hole, not a silently ignored branch.
package dispatch

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/arenahub/arena-client/pkg/types"
)

var (
	ErrBadFrame     = errors.New("malformed frame")
	ErrUnknownFrame = errors.New("unknown frame type")
)

type Frame interface{ isFrame() }

// NotificationFrame carries a pre-formed notification from the backend.
type NotificationFrame struct {
	Notification types.Notification
}

// The frames below are synthesized into notifications client-side.

type TournamentCreatedFrame struct {
	TournamentID   int64
	TournamentName string
	CreatorName    string
	Raw            json.RawMessage
}

type FantasyTeamRequestFrame struct {
	TeamID        int64
	TeamName      string
	RequesterName string
	Raw           json.RawMessage
}

type CommunityPostFrame struct {
	PostID      int64
	ChannelName string
	AuthorName  string
	Raw         json.RawMessage
}

type GamificationBadgeFrame struct {
	BadgeID   int64
	BadgeName string
	Raw       json.RawMessage
}

type AIAnalysisCompleteFrame struct {
	AnalysisID int64
	VideoTitle string
	Raw        json.RawMessage
}

type ChatMessageFrame struct {
	Message types.ChatMessage
}

// MessageHistoryFrame replaces a room's message list wholesale.
type MessageHistoryFrame struct {
	RoomID   string
	Messages []types.ChatMessage
}

func (NotificationFrame) isFrame()       {}
func (TournamentCreatedFrame) isFrame()  {}
func (FantasyTeamRequestFrame) isFrame() {}
func (CommunityPostFrame) isFrame()      {}
func (GamificationBadgeFrame) isFrame()  {}
func (AIAnalysisCompleteFrame) isFrame() {}
func (ChatMessageFrame) isFrame()        {}
func (MessageHistoryFrame) isFrame()     {}

// Decode classifies one raw frame by its type tag. Unknown tags come back as
// ErrUnknownFrame so callers can log and drop without treating it as a
// connection problem.
func Decode(data []byte) (Frame, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: not valid json", ErrBadFrame)
	}
	kind := gjson.GetBytes(data, "type").String()
	if kind == "" {
		return nil, fmt.Errorf("%w: missing type tag", ErrBadFrame)
	}

	switch kind {
	case "notification":
		var env struct {
			Notification types.Notification `json:"notification"`
		}
		if err := json.Unmarshal(data, &env); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadFrame, err)
		}
		return NotificationFrame{Notification: env.Notification}, nil

	case "tournament_created":
		return TournamentCreatedFrame{
			TournamentID:   gjson.GetBytes(data, "tournament_id").Int(),
			TournamentName: gjson.GetBytes(data, "tournament_name").String(),
			CreatorName:    gjson.GetBytes(data, "creator_name").String(),
			Raw:            payloadOf(data),
		}, nil

	case "fantasy_team_request":
		return FantasyTeamRequestFrame{
			TeamID:        gjson.GetBytes(data, "team_id").Int(),
			TeamName:      gjson.GetBytes(data, "team_name").String(),
			RequesterName: gjson.GetBytes(data, "requester_name").String(),
			Raw:           payloadOf(data),
		}, nil

	case "community_post":
		return CommunityPostFrame{
			PostID:      gjson.GetBytes(data, "post_id").Int(),
			ChannelName: gjson.GetBytes(data, "channel_name").String(),
			AuthorName:  gjson.GetBytes(data, "author_name").String(),
			Raw:         payloadOf(data),
		}, nil

	case "gamification_badge":
		return GamificationBadgeFrame{
			BadgeID:   gjson.GetBytes(data, "badge_id").Int(),
			BadgeName: gjson.GetBytes(data, "badge_name").String(),
			Raw:       payloadOf(data),
		}, nil

	case "ai_analysis_complete":
		return AIAnalysisCompleteFrame{
			AnalysisID: gjson.GetBytes(data, "analysis_id").Int(),
			VideoTitle: gjson.GetBytes(data, "video_title").String(),
			Raw:        payloadOf(data),
		}, nil

	case "chat_message":
		var env struct {
			Message types.ChatMessage `json:"message"`
		}
		if err := json.Unmarshal(data, &env); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadFrame, err)
		}
		return ChatMessageFrame{Message: env.Message}, nil

	case "message_history":
		var env struct {
			RoomID   string              `json:"room_id"`
			Messages []types.ChatMessage `json:"messages"`
		}
		if err := json.Unmarshal(data, &env); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadFrame, err)
		}
		return MessageHistoryFrame{RoomID: env.RoomID, Messages: env.Messages}, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFrame, kind)
	}
}

// payloadOf strips the type tag, leaving the routing fields that become the
// synthesized notification's opaque data.
func payloadOf(data []byte) json.RawMessage {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return append(json.RawMessage(nil), data...)
	}
	delete(m, "type")
	out, err := json.Marshal(m)
	if err != nil {
		return append(json.RawMessage(nil), data...)
	}
	return out
}

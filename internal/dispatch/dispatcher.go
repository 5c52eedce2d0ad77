package dispatch

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/arenahub/arena-client/internal/store"
	"github.com/arenahub/arena-client/pkg/types"
)

// Dispatcher applies decoded frames to the store. It never errors past its
// boundary: malformed and unknown frames are logged and dropped per frame.
type Dispatcher struct {
	store *store.Store
	log   *zap.Logger
	now   func() time.Time // swapped in tests
}

func New(st *store.Store, log *zap.Logger) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{store: st, log: log, now: time.Now}
}

// HandleRaw is the socket's frame callback.
func (d *Dispatcher) HandleRaw(data []byte) {
	frame, err := Decode(data)
	if err != nil {
		d.log.Warn("dropping frame", zap.Error(err))
		return
	}
	d.Apply(frame)
}

// Apply routes one frame to its cache mutation. The switch is exhaustive
// over the Frame union.
func (d *Dispatcher) Apply(f Frame) {
	switch fr := f.(type) {
	case NotificationFrame:
		d.store.PushNotification(fr.Notification)

	case TournamentCreatedFrame:
		d.store.PushNotification(d.synthesize(
			types.CategoryTournament, fr.TournamentID,
			"New Tournament",
			fmt.Sprintf("%s created %s", fr.CreatorName, fr.TournamentName),
			fr.Raw,
		))

	case FantasyTeamRequestFrame:
		d.store.PushNotification(d.synthesize(
			types.CategoryFantasy, fr.TeamID,
			"Fantasy Team Request",
			fmt.Sprintf("%s invited you to %s", fr.RequesterName, fr.TeamName),
			fr.Raw,
		))

	case CommunityPostFrame:
		d.store.PushNotification(d.synthesize(
			types.CategoryCommunity, fr.PostID,
			"New Community Post",
			fmt.Sprintf("%s posted in %s", fr.AuthorName, fr.ChannelName),
			fr.Raw,
		))

	case GamificationBadgeFrame:
		d.store.PushNotification(d.synthesize(
			types.CategoryGamification, fr.BadgeID,
			"Badge Earned",
			fmt.Sprintf("You earned %s", fr.BadgeName),
			fr.Raw,
		))

	case AIAnalysisCompleteFrame:
		d.store.PushNotification(d.synthesize(
			types.CategoryAI, fr.AnalysisID,
			"Analysis Ready",
			fmt.Sprintf("Gameplay analysis for %s is complete", fr.VideoTitle),
			fr.Raw,
		))

	case ChatMessageFrame:
		d.store.AppendRoomMessage(fr.Message)

	case MessageHistoryFrame:
		d.store.HydrateRoom(fr.RoomID, fr.Messages)
	}
}

// synthesize builds a client-side notification from a non-notification push.
// The id (category-entity-timestamp) is unique enough without a round trip.
func (d *Dispatcher) synthesize(cat types.NotificationCategory, entityID int64, title, message string, raw []byte) types.Notification {
	now := d.now()
	return types.Notification{
		ID:        fmt.Sprintf("%s-%d-%d", cat, entityID, now.UnixMilli()),
		Category:  cat,
		Title:     title,
		Message:   message,
		Read:      false,
		CreatedAt: now,
		Data:      raw,
	}
}

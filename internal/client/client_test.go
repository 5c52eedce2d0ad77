package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/arenahub/arena-client/internal/config"
	"github.com/arenahub/arena-client/internal/creds"
	"github.com/arenahub/arena-client/internal/devserver"
	"github.com/arenahub/arena-client/internal/store"
	"github.com/arenahub/arena-client/pkg/types"
)

type fixture struct {
	srv    *devserver.Server
	ts     *httptest.Server
	client *Client
	creds  *creds.FileStore
}

func newFixture(t *testing.T, wrap func(http.Handler) http.Handler) *fixture {
	t.Helper()
	srv := devserver.New(nil)
	handler := http.Handler(srv.Routes())
	if wrap != nil {
		handler = wrap(handler)
	}
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	cs := creds.NewFileStore(filepath.Join(t.TempDir(), "credentials.json"))
	c := New(context.Background(), Options{
		Config:          config.Config{APIBase: ts.URL},
		Creds:           cs,
		NotifRetryDelay: 20 * time.Millisecond,
		ChatRetryDelay:  20 * time.Millisecond,
	})
	t.Cleanup(c.Close)

	return &fixture{srv: srv, ts: ts, client: c, creds: cs}
}

func waitFor(t *testing.T, within time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(within)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", msg)
}

func TestClient_LoginStoresTokens(t *testing.T) {
	f := newFixture(t, nil)

	require.NoError(t, f.client.Login(context.Background(), "ann", "pw"))

	tok, ok := f.creds.CurrentToken()
	require.True(t, ok)
	require.Equal(t, "dev-ann", tok)
	refresh, ok := f.creds.RefreshToken()
	require.True(t, ok)
	require.Equal(t, "dev-refresh-ann", refresh)
}

func TestClient_SyncNotificationsHydrates(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.client.Login(context.Background(), "ann", "pw"))

	f.srv.SeedNotifications([]types.Notification{
		{ID: "n1", Category: types.CategorySystem, Title: "welcome", Read: false},
		{ID: "n2", Category: types.CategorySystem, Title: "old", Read: true},
	})
	require.NoError(t, f.client.SyncNotifications(context.Background()))

	snap := f.client.Store().Snapshot()
	require.Len(t, snap.Notifications, 2)
	require.Equal(t, 1, snap.UnreadCount)
}

func TestClient_MarkReadIsOptimisticAndCallsBackend(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.client.Login(context.Background(), "ann", "pw"))

	f.srv.SeedNotifications([]types.Notification{{ID: "n1", Category: types.CategorySystem}})
	require.NoError(t, f.client.SyncNotifications(context.Background()))

	require.NoError(t, f.client.MarkRead(context.Background(), "n1"))
	require.Equal(t, 0, f.client.Store().Snapshot().UnreadCount)

	// Backend saw it too: a re-sync keeps the flag.
	require.NoError(t, f.client.SyncNotifications(context.Background()))
	require.Equal(t, 0, f.client.Store().Snapshot().UnreadCount)
}

func TestClient_LivePushSynthesizesNotification(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.client.Login(context.Background(), "ann", "pw"))

	states := make(chan bool, 4)
	cancel := f.client.OnConnectionChange(func(up bool) { states <- up })
	defer cancel()

	f.client.ConnectLive()
	select {
	case up := <-states:
		require.True(t, up)
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for live connection")
	}
	waitFor(t, 2*time.Second, func() bool { return f.srv.NotifClientCount() == 1 }, "server-side registration")

	f.srv.PushFrame(map[string]any{
		"type":            "tournament_created",
		"tournament_id":   7,
		"creator_name":    "Ann",
		"tournament_name": "Cup",
	})

	waitFor(t, 2*time.Second, func() bool {
		return f.client.Store().Snapshot().UnreadCount == 1
	}, "synthesized notification")

	n := f.client.Store().Snapshot().Notifications[0]
	require.Equal(t, types.CategoryTournament, n.Category)
	require.Equal(t, int64(7), n.DataField("tournament_id").Int())
}

func TestClient_SendChatFallsBackToRESTOnce(t *testing.T) {
	var posts int32
	counting := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPost && strings.Contains(r.URL.Path, "/messages") {
				atomic.AddInt32(&posts, 1)
			}
			next.ServeHTTP(w, r)
		})
	}
	f := newFixture(t, counting)
	require.NoError(t, f.client.Login(context.Background(), "ann", "pw"))

	// No room socket was ever opened, so the send must drop to REST.
	require.NoError(t, f.client.SendChat(context.Background(), "r1", "hello"))

	require.Equal(t, int32(1), atomic.LoadInt32(&posts))
	msgs := f.client.Store().Snapshot().Room("r1")
	require.Len(t, msgs, 1)
	require.Equal(t, "hello", msgs[0].Content)
	require.NotEmpty(t, msgs[0].ID) // server-assigned
}

func TestClient_OpenRoomHydratesAndSocketSendEchoes(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.client.Login(context.Background(), "ann", "pw"))

	ctx := context.Background()
	require.NoError(t, f.client.OpenRoom(ctx, "r1"))
	waitFor(t, 2*time.Second, f.client.ChatConnected, "chat socket")

	require.NoError(t, f.client.SendChat(ctx, "r1", "gg wp"))

	// The append comes from the server's echo frame, not a local write.
	waitFor(t, 2*time.Second, func() bool {
		return len(f.client.Store().Snapshot().Room("r1")) == 1
	}, "echoed chat message")
	msgs := f.client.Store().Snapshot().Room("r1")
	require.Equal(t, "gg wp", msgs[0].Content)
	require.Equal(t, "ann", msgs[0].Sender)
}

func TestClient_JoinTournamentLifecycle(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.client.Login(context.Background(), "ann", "pw"))

	f.srv.SeedTournaments([]types.Tournament{
		{ID: 1, Name: "Cup", MaxParticipants: 8},
		{ID: 2, Name: "Full House", Participants: 2, MaxParticipants: 2},
	})
	ctx := context.Background()
	require.NoError(t, f.client.SyncTournaments(ctx))

	require.NoError(t, f.client.JoinTournament(ctx, 1))
	st, ok := f.client.Store().Snapshot().Request(1)
	require.True(t, ok)
	require.Equal(t, store.PhaseFulfilled, st.Phase)

	// The cached list is not patched on fulfillment; a re-sync is.
	require.Equal(t, 0, f.client.Store().Snapshot().Tournaments[0].Participants)
	require.NoError(t, f.client.SyncTournaments(ctx))
	require.Equal(t, 1, f.client.Store().Snapshot().Tournaments[0].Participants)

	err := f.client.JoinTournament(ctx, 2)
	require.Error(t, err)
	require.Contains(t, err.Error(), "full")
	st, _ = f.client.Store().Snapshot().Request(2)
	require.Equal(t, store.PhaseRejected, st.Phase)
}

func TestClient_AnalysisRoundTrip(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.client.Login(context.Background(), "ann", "pw"))

	ctx := context.Background()
	res, err := f.client.REST().SubmitAnalysis(ctx, "https://clips.example/ranked-vod")
	require.NoError(t, err)
	require.NotEmpty(t, res.ID)
	require.Equal(t, "processing", res.Status)

	got, err := f.client.REST().AnalysisResult(ctx, res.ID)
	require.NoError(t, err)
	require.Equal(t, "done", got.Status)
	require.Contains(t, got.Summary, "ranked-vod")

	_, err = f.client.REST().AnalysisResult(ctx, "missing")
	require.Error(t, err)
}

func TestClient_SyncFantasyTeams(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.client.Login(context.Background(), "ann", "pw"))

	f.srv.SeedFantasyTeams([]types.FantasyTeam{{ID: 1, Name: "Dream Five", League: "LCS", Points: 10}})
	require.NoError(t, f.client.SyncFantasyTeams(context.Background()))
	require.Len(t, f.client.Store().Snapshot().FantasyTeams, 1)
}

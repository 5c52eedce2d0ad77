// Package client is the composition point: it owns the REST wrapper, the
// store, and the realtime sockets, and exposes the actions UI consumers
// call. Construct one per application; nothing here is a package-level
// singleton.
package client

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arenahub/arena-client/internal/config"
	"github.com/arenahub/arena-client/internal/creds"
	"github.com/arenahub/arena-client/internal/dispatch"
	"github.com/arenahub/arena-client/internal/rest"
	"github.com/arenahub/arena-client/internal/store"
	"github.com/arenahub/arena-client/internal/transport"
	"github.com/arenahub/arena-client/pkg/types"
)

// Per-channel reconnect policy: small fixed bounds, constant delay.
const (
	notifMaxAttempts = 3
	notifRetryDelay  = 3 * time.Second
	chatMaxAttempts  = 2
	chatRetryDelay   = 5 * time.Second
)

type Options struct {
	Config config.Config
	Creds  creds.Store
	Logger *zap.Logger

	// Overrides for tests; zero values use the constants above.
	NotifRetryDelay time.Duration
	ChatRetryDelay  time.Duration
}

type Client struct {
	cfg   config.Config
	creds creds.Store
	log   *zap.Logger

	rest       *rest.Client
	store      *store.Store
	dispatcher *dispatch.Dispatcher
	notifSock  *transport.Socket

	mu          sync.Mutex
	chatSock    *transport.Socket
	currentRoom string
	username    string

	chatRetryDelay time.Duration
}

func New(parent context.Context, opts Options) *Client {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	st := store.New(parent, log.Named("store"))
	c := &Client{
		cfg:            opts.Config,
		creds:          opts.Creds,
		log:            log,
		rest:           rest.New(opts.Config, opts.Creds, log.Named("rest")),
		store:          st,
		dispatcher:     dispatch.New(st, log.Named("dispatch")),
		chatRetryDelay: opts.ChatRetryDelay,
	}
	if c.chatRetryDelay <= 0 {
		c.chatRetryDelay = chatRetryDelay
	}

	notifDelay := opts.NotifRetryDelay
	if notifDelay <= 0 {
		notifDelay = notifRetryDelay
	}
	c.notifSock = transport.New(transport.Options{
		Name:        "notifications",
		URL:         c.cfg.NotificationsURL,
		MaxAttempts: notifMaxAttempts,
		RetryDelay:  notifDelay,
	}, opts.Creds, log.Named("transport"))
	c.notifSock.OnFrame(c.dispatcher.HandleRaw)

	return c
}

// Store exposes the cache for snapshot reads and watching.
func (c *Client) Store() *store.Store { return c.store }

// REST exposes the raw API wrapper for calls the facade does not cover.
func (c *Client) REST() *rest.Client { return c.rest }

// --- auth ---

func (c *Client) Login(ctx context.Context, username, password string) error {
	pair, err := c.rest.Login(ctx, username, password)
	if err != nil {
		return err
	}
	if err := c.creds.SaveTokens(pair); err != nil {
		return err
	}
	c.mu.Lock()
	c.username = username
	c.mu.Unlock()
	return nil
}

func (c *Client) Logout(ctx context.Context) error {
	if err := c.rest.Logout(ctx); err != nil {
		c.log.Warn("logout call failed", zap.Error(err))
	}
	c.Close()
	return c.creds.ClearTokens()
}

// --- notifications ---

func (c *Client) SyncNotifications(ctx context.Context) error {
	items, err := c.rest.Notifications(ctx)
	if err != nil {
		return err
	}
	c.store.HydrateNotifications(items)
	return nil
}

// MarkRead flips the flag locally first, then tells the backend. The
// optimistic update stands even if the call fails; the next sync reconciles.
func (c *Client) MarkRead(ctx context.Context, id string) error {
	c.store.MarkRead(id)
	return c.rest.MarkNotificationRead(ctx, id)
}

func (c *Client) MarkAllRead(ctx context.Context) error {
	c.store.MarkAllRead()
	return c.rest.MarkAllNotificationsRead(ctx)
}

func (c *Client) RemoveNotification(ctx context.Context, id string) error {
	c.store.RemoveNotification(id)
	return c.rest.RemoveNotification(ctx, id)
}

// --- tournaments ---

func (c *Client) SyncTournaments(ctx context.Context) error {
	items, err := c.rest.Tournaments(ctx)
	if err != nil {
		return err
	}
	c.store.HydrateTournaments(items)
	return nil
}

var ErrRequestPending = errors.New("request already pending")

// JoinTournament runs the pending/fulfilled/rejected lifecycle. The cached
// tournament list is not patched on fulfillment; call SyncTournaments.
func (c *Client) JoinTournament(ctx context.Context, id int64) error {
	return c.tournamentRequest(ctx, id, store.RequestJoin)
}

func (c *Client) LeaveTournament(ctx context.Context, id int64) error {
	return c.tournamentRequest(ctx, id, store.RequestLeave)
}

func (c *Client) tournamentRequest(ctx context.Context, id int64, kind store.RequestKind) error {
	if st, ok := c.store.Snapshot().Request(id); ok && st.Phase == store.PhasePending {
		return ErrRequestPending
	}
	c.store.SetRequestPending(id, kind)
	var err error
	if kind == store.RequestJoin {
		err = c.rest.JoinTournament(ctx, id)
	} else {
		err = c.rest.LeaveTournament(ctx, id)
	}
	c.store.ResolveRequest(id, err)
	return err
}

// --- fantasy ---

func (c *Client) SyncFantasyTeams(ctx context.Context) error {
	items, err := c.rest.FantasyTeams(ctx)
	if err != nil {
		return err
	}
	c.store.HydrateFantasyTeams(items)
	return nil
}

// --- realtime ---

// ConnectLive opens the notifications channel. Safe to call repeatedly.
func (c *Client) ConnectLive() {
	c.notifSock.Connect()
}

func (c *Client) DisconnectLive() {
	c.notifSock.Disconnect()
}

// OnConnectionChange observes the notifications channel state.
func (c *Client) OnConnectionChange(fn func(bool)) (cancel func()) {
	return c.notifSock.OnStateChange(fn)
}

// OpenRoom hydrates a room's history over REST and switches the chat socket
// to that room's channel. One chat connection at a time.
func (c *Client) OpenRoom(ctx context.Context, roomID string) error {
	msgs, err := c.rest.RoomHistory(ctx, roomID)
	if err != nil {
		return err
	}
	c.store.HydrateRoom(roomID, msgs)

	c.mu.Lock()
	if c.chatSock != nil && c.currentRoom != roomID {
		c.chatSock.Disconnect()
		c.chatSock = nil
	}
	if c.chatSock == nil {
		room := roomID
		c.chatSock = transport.New(transport.Options{
			Name:        "chat",
			URL:         func(token string) string { return c.cfg.ChatURL(room, token) },
			MaxAttempts: chatMaxAttempts,
			RetryDelay:  c.chatRetryDelay,
		}, c.creds, c.log.Named("transport"))
		c.chatSock.OnFrame(c.dispatcher.HandleRaw)
	}
	c.currentRoom = roomID
	sock := c.chatSock
	c.mu.Unlock()

	sock.Connect()
	return nil
}

// ChatConnected reports whether the current room's socket is open.
func (c *Client) ChatConnected() bool {
	c.mu.Lock()
	sock := c.chatSock
	c.mu.Unlock()
	return sock != nil && sock.Connected()
}

func (c *Client) CloseRoom() {
	c.mu.Lock()
	sock := c.chatSock
	c.chatSock = nil
	c.currentRoom = ""
	c.mu.Unlock()
	if sock != nil {
		sock.Disconnect()
	}
}

// SendChat tries the live socket first and falls back to REST when the
// socket reports the send dropped. On the socket path the server's echo
// appends the message; on the REST path the created message is appended
// here.
func (c *Client) SendChat(ctx context.Context, roomID, content string) error {
	c.mu.Lock()
	sock := c.chatSock
	sender := c.username
	c.mu.Unlock()

	msg := types.ChatSend{
		Type:        "chat_message",
		RoomID:      roomID,
		ClientMsgID: uuid.NewString(),
		Sender:      sender,
		Content:     content,
	}

	if sock != nil && sock.Send(msg) == transport.Sent {
		return nil
	}

	created, err := c.rest.SendRoomMessage(ctx, roomID, msg)
	if err != nil {
		return err
	}
	c.store.AppendRoomMessage(created)
	return nil
}

// Close tears down sockets and the store. The creds store is left alone.
func (c *Client) Close() {
	c.notifSock.Disconnect()
	c.mu.Lock()
	sock := c.chatSock
	c.chatSock = nil
	c.currentRoom = ""
	c.mu.Unlock()
	if sock != nil {
		sock.Disconnect()
	}
	c.store.Close()
}

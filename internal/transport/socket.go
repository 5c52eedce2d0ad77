// Package transport owns the live connection to one realtime channel. A
// Socket holds at most one connection at a time; a dropped connection is
// retried a bounded number of times with a fixed delay, reading a fresh
// token from the credential provider on every attempt.
package transport

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/arenahub/arena-client/internal/creds"
)

// SendResult makes a dropped send impossible to ignore: there is no queuing,
// callers fall back to REST themselves.
type SendResult int

const (
	Sent SendResult = iota
	Dropped
)

// Options configures one channel. URL rebuilds the endpoint per attempt so
// the freshest token is always in the query string.
type Options struct {
	Name        string // "notifications" | "chat", for logs
	URL         func(token string) string
	MaxAttempts int           // reconnect bound after an unexpected close
	RetryDelay  time.Duration // fixed, not exponential
	DialTimeout time.Duration
}

// liveConn pairs a websocket connection with its close intent. clean is set
// by Disconnect before closing, so the read loop knows not to retry.
type liveConn struct {
	c     *websocket.Conn
	clean bool
}

type Socket struct {
	opts  Options
	creds creds.Provider
	log   *zap.Logger

	mu         sync.Mutex
	conn       *liveConn
	connecting bool
	attempts   int
	retryTimer *time.Timer
	epoch      int // bumped by Disconnect so an already-fired timer aborts

	nextSubID int
	frameSubs map[int]func([]byte)
	stateSubs map[int]func(bool)
}

func New(opts Options, cp creds.Provider, log *zap.Logger) *Socket {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = 10 * time.Second
	}
	return &Socket{
		opts:      opts,
		creds:     cp,
		log:       log.With(zap.String("channel", opts.Name)),
		frameSubs: make(map[int]func([]byte)),
		stateSubs: make(map[int]func(bool)),
	}
}

// Connect opens the channel. Idempotent: a no-op while a connection is open
// or an open is in flight. The dial happens on a goroutine; failures are
// logged and fed to the retry policy, never returned.
func (s *Socket) Connect() {
	s.mu.Lock()
	if s.conn != nil || s.connecting {
		s.mu.Unlock()
		return
	}
	s.connecting = true
	epoch := s.epoch
	s.mu.Unlock()

	token, ok := s.creds.CurrentToken()
	if !ok || !creds.Usable(token) {
		s.log.Warn("connect skipped, no usable token")
		s.mu.Lock()
		s.connecting = false
		s.mu.Unlock()
		return
	}
	go s.dial(token, epoch)
}

// dial opens one connection. epoch is the value observed when the attempt was
// authorized; if Disconnect bumped it while the dial was in flight, the result
// is discarded and no retry is scheduled.
func (s *Socket) dial(token string, epoch int) {
	ctx, cancel := context.WithTimeout(context.Background(), s.opts.DialTimeout)
	defer cancel()

	c, _, err := websocket.Dial(ctx, s.opts.URL(token), nil)

	s.mu.Lock()
	s.connecting = false
	if err != nil {
		stale := epoch != s.epoch
		s.mu.Unlock()
		s.log.Warn("dial failed", zap.Error(err))
		if !stale {
			s.scheduleRetry()
		}
		return
	}
	if epoch != s.epoch {
		s.mu.Unlock()
		s.log.Info("discarding connection opened after disconnect")
		_ = c.Close(websocket.StatusNormalClosure, "client disconnect")
		return
	}
	lc := &liveConn{c: c}
	s.conn = lc
	s.attempts = 0 // successful open resets the bound
	s.mu.Unlock()

	s.log.Info("connected")
	s.notifyState(true)
	go s.readLoop(lc)
}

func (s *Socket) readLoop(lc *liveConn) {
	for {
		_, data, err := lc.c.Read(context.Background())
		if err != nil {
			break
		}
		s.notifyFrame(data)
	}

	s.mu.Lock()
	if s.conn == lc {
		s.conn = nil
	}
	clean := lc.clean
	s.mu.Unlock()

	s.notifyState(false)
	if clean {
		s.log.Info("disconnected")
		return
	}
	s.log.Warn("connection lost")
	s.scheduleRetry()
}

// scheduleRetry arms exactly one retry after the fixed delay, if attempts
// remain. Exhaustion is silent: the channel stays offline until the next
// explicit Connect.
func (s *Socket) scheduleRetry() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.retryTimer != nil || s.conn != nil || s.connecting {
		return
	}
	if s.attempts >= s.opts.MaxAttempts {
		s.log.Warn("reconnect attempts exhausted", zap.Int("attempts", s.attempts))
		return
	}
	s.attempts++
	attempt := s.attempts
	epoch := s.epoch
	s.retryTimer = time.AfterFunc(s.opts.RetryDelay, func() {
		s.mu.Lock()
		s.retryTimer = nil
		if epoch != s.epoch || s.conn != nil || s.connecting {
			s.mu.Unlock()
			return
		}
		s.connecting = true
		s.mu.Unlock()

		// Token is read fresh at retry time, not captured at connect time.
		token, ok := s.creds.CurrentToken()
		if !ok || !creds.Usable(token) {
			s.log.Warn("retry skipped, no usable token", zap.Int("attempt", attempt))
			s.mu.Lock()
			s.connecting = false
			s.mu.Unlock()
			return
		}
		s.log.Info("reconnecting", zap.Int("attempt", attempt))
		s.dial(token, epoch)
	})
}

// Disconnect closes the connection cleanly and cancels any pending retry so
// a stale timer cannot resurrect the channel.
func (s *Socket) Disconnect() {
	s.mu.Lock()
	if s.retryTimer != nil {
		s.retryTimer.Stop()
		s.retryTimer = nil
	}
	s.attempts = 0
	s.epoch++
	lc := s.conn
	if lc != nil {
		lc.clean = true
	}
	s.mu.Unlock()

	if lc != nil {
		_ = lc.c.Close(websocket.StatusNormalClosure, "client disconnect")
	}
}

// Connected reports whether a connection is currently open.
func (s *Socket) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn != nil
}

// Send serializes v and transmits it immediately, or reports Dropped when no
// connection is open. Nothing is queued.
func (s *Socket) Send(v any) SendResult {
	s.mu.Lock()
	lc := s.conn
	s.mu.Unlock()
	if lc == nil {
		return Dropped
	}

	data, err := json.Marshal(v)
	if err != nil {
		s.log.Warn("send marshal failed", zap.Error(err))
		return Dropped
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := lc.c.Write(ctx, websocket.MessageText, data); err != nil {
		s.log.Warn("send failed", zap.Error(err))
		return Dropped
	}
	return Sent
}

// OnFrame registers an inbound-frame subscriber and returns its unsubscribe.
func (s *Socket) OnFrame(fn func(data []byte)) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSubID
	s.nextSubID++
	s.frameSubs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.frameSubs, id)
	}
}

// OnStateChange registers a connection-state subscriber (true on open, false
// on close) and returns its unsubscribe.
func (s *Socket) OnStateChange(fn func(connected bool)) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSubID
	s.nextSubID++
	s.stateSubs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.stateSubs, id)
	}
}

func (s *Socket) notifyFrame(data []byte) {
	s.mu.Lock()
	subs := make([]func([]byte), 0, len(s.frameSubs))
	for _, fn := range s.frameSubs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()
	for _, fn := range subs {
		fn(data)
	}
}

func (s *Socket) notifyState(connected bool) {
	s.mu.Lock()
	subs := make([]func(bool), 0, len(s.stateSubs))
	for _, fn := range s.stateSubs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()
	for _, fn := range subs {
		fn(connected)
	}
}

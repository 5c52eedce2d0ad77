// Package rest wraps the backend's JSON API: bearer-token auth, the error
// body convention (detail/message/per-field arrays), and one method per
// endpoint the client consumes.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/arenahub/arena-client/internal/config"
	"github.com/arenahub/arena-client/internal/creds"
	"github.com/arenahub/arena-client/pkg/types"
)

// APIError is a non-2xx response with whatever human-readable detail the
// backend put in the body.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("api error: status %d", e.Status)
	}
	return fmt.Sprintf("api error: status %d: %s", e.Status, e.Detail)
}

type Client struct {
	base  config.Config
	creds creds.Provider
	http  *http.Client
	log   *zap.Logger
}

func New(cfg config.Config, cp creds.Provider, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		base:  cfg,
		creds: cp,
		http:  &http.Client{Timeout: 15 * time.Second},
		log:   log,
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base.RESTURL(path), reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token, ok := c.creds.CurrentToken(); ok {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// decodeError digs a human-readable message out of the error body. The
// backend uses detail or message at the top level, or per-field string
// arrays for validation errors.
func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return apiErr
	}

	var body map[string]json.RawMessage
	if json.Unmarshal(data, &body) != nil {
		return apiErr
	}
	for _, key := range []string{"detail", "message"} {
		var s string
		if raw, ok := body[key]; ok && json.Unmarshal(raw, &s) == nil {
			apiErr.Detail = s
			return apiErr
		}
	}
	fields := make([]string, 0, len(body))
	for field := range body {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	var parts []string
	for _, field := range fields {
		var msgs []string
		if json.Unmarshal(body[field], &msgs) == nil && len(msgs) > 0 {
			parts = append(parts, fmt.Sprintf("%s: %s", field, strings.Join(msgs, "; ")))
		}
	}
	apiErr.Detail = strings.Join(parts, ", ")
	return apiErr
}

// --- auth ---

func (c *Client) Login(ctx context.Context, username, password string) (types.TokenPair, error) {
	var pair types.TokenPair
	err := c.do(ctx, http.MethodPost, "/api/auth/login", map[string]string{
		"username": username,
		"password": password,
	}, &pair)
	return pair, err
}

func (c *Client) Register(ctx context.Context, username, email, password string) (types.TokenPair, error) {
	var pair types.TokenPair
	err := c.do(ctx, http.MethodPost, "/api/auth/register", map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	}, &pair)
	return pair, err
}

func (c *Client) Refresh(ctx context.Context, refreshToken string) (types.TokenPair, error) {
	var pair types.TokenPair
	err := c.do(ctx, http.MethodPost, "/api/auth/refresh", map[string]string{
		"refresh": refreshToken,
	}, &pair)
	return pair, err
}

func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
}

func (c *Client) Profile(ctx context.Context) (types.UserProfile, error) {
	var p types.UserProfile
	err := c.do(ctx, http.MethodGet, "/api/users/me", nil, &p)
	return p, err
}

// --- notifications ---

func (c *Client) Notifications(ctx context.Context) ([]types.Notification, error) {
	var items []types.Notification
	err := c.do(ctx, http.MethodGet, "/api/notifications", nil, &items)
	return items, err
}

func (c *Client) MarkNotificationRead(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/api/notifications/"+id+"/read", nil, nil)
}

func (c *Client) MarkAllNotificationsRead(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/notifications/read-all", nil, nil)
}

func (c *Client) RemoveNotification(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/notifications/"+id, nil, nil)
}

// --- tournaments ---

func (c *Client) Tournaments(ctx context.Context) ([]types.Tournament, error) {
	var items []types.Tournament
	err := c.do(ctx, http.MethodGet, "/api/tournaments", nil, &items)
	return items, err
}

func (c *Client) JoinTournament(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/api/tournaments/%d/join", id), nil, nil)
}

func (c *Client) LeaveTournament(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/api/tournaments/%d/leave", id), nil, nil)
}

// --- fantasy ---

func (c *Client) FantasyTeams(ctx context.Context) ([]types.FantasyTeam, error) {
	var items []types.FantasyTeam
	err := c.do(ctx, http.MethodGet, "/api/fantasy/teams", nil, &items)
	return items, err
}

// --- chat ---

func (c *Client) RoomHistory(ctx context.Context, roomID string) ([]types.ChatMessage, error) {
	var items []types.ChatMessage
	err := c.do(ctx, http.MethodGet, "/api/chat/rooms/"+roomID+"/messages", nil, &items)
	return items, err
}

// SendRoomMessage is the REST fallback for chat sends when the socket is
// down. The server-assigned message comes back for local append.
func (c *Client) SendRoomMessage(ctx context.Context, roomID string, msg types.ChatSend) (types.ChatMessage, error) {
	var created types.ChatMessage
	err := c.do(ctx, http.MethodPost, "/api/chat/rooms/"+roomID+"/messages", msg, &created)
	return created, err
}

// --- AI analysis ---

func (c *Client) SubmitAnalysis(ctx context.Context, videoURL string) (types.AnalysisResult, error) {
	var res types.AnalysisResult
	err := c.do(ctx, http.MethodPost, "/api/analysis", map[string]string{
		"video_url": videoURL,
	}, &res)
	return res, err
}

func (c *Client) AnalysisResult(ctx context.Context, id string) (types.AnalysisResult, error) {
	var res types.AnalysisResult
	err := c.do(ctx, http.MethodGet, "/api/analysis/"+id, nil, &res)
	return res, err
}

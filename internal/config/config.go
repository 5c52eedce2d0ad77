package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
)

const (
	envAPIBase = "ARENA_API_URL"
	envAPIHost = "ARENA_API_HOST"

	defaultAPIBase = "http://localhost:8000"
)

// Config holds the resolved backend location. Everything else (channel paths,
// ws scheme) is derived from the base URL.
type Config struct {
	APIBase string
}

// FromEnv resolves the backend base URL: explicit override first, then a
// hostname-derived HTTPS base, then the localhost dev default.
func FromEnv() Config {
	if base := os.Getenv(envAPIBase); base != "" {
		return Config{APIBase: strings.TrimRight(base, "/")}
	}
	if host := os.Getenv(envAPIHost); host != "" {
		return Config{APIBase: "https://" + host}
	}
	return Config{APIBase: defaultAPIBase}
}

// RESTURL joins a path onto the base, e.g. RESTURL("/api/notifications").
func (c Config) RESTURL(path string) string {
	return c.APIBase + path
}

// wsBase upgrades the REST scheme: http -> ws, https -> wss.
func (c Config) wsBase() string {
	switch {
	case strings.HasPrefix(c.APIBase, "https://"):
		return "wss://" + strings.TrimPrefix(c.APIBase, "https://")
	case strings.HasPrefix(c.APIBase, "http://"):
		return "ws://" + strings.TrimPrefix(c.APIBase, "http://")
	default:
		return "ws://" + c.APIBase
	}
}

// NotificationsURL builds the notifications channel endpoint.
func (c Config) NotificationsURL(token string) string {
	return fmt.Sprintf("%s/ws/notifications/?token=%s", c.wsBase(), url.QueryEscape(token))
}

// ChatURL builds the chat channel endpoint for one room.
func (c Config) ChatURL(roomID, token string) string {
	return fmt.Sprintf("%s/ws/chat/?room_id=%s&token=%s",
		c.wsBase(), url.QueryEscape(roomID), url.QueryEscape(token))
}

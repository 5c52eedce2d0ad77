package config

import "testing"

func TestFromEnv(t *testing.T) {
	cases := []struct {
		name string
		url  string
		host string
		want string
	}{
		{name: "explicit override wins", url: "https://api.arena.gg/", host: "ignored.example", want: "https://api.arena.gg"},
		{name: "hostname derived", host: "arena.example.com", want: "https://arena.example.com"},
		{name: "localhost default", want: "http://localhost:8000"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(envAPIBase, tc.url)
			t.Setenv(envAPIHost, tc.host)
			if got := FromEnv().APIBase; got != tc.want {
				t.Fatalf("want %q, got %q", tc.want, got)
			}
		})
	}
}

func TestChannelURLs(t *testing.T) {
	c := Config{APIBase: "http://localhost:8000"}
	if got := c.NotificationsURL("tok"); got != "ws://localhost:8000/ws/notifications/?token=tok" {
		t.Fatalf("notifications url: %q", got)
	}
	if got := c.ChatURL("room 1", "t&k"); got != "ws://localhost:8000/ws/chat/?room_id=room+1&token=t%26k" {
		t.Fatalf("chat url must escape query params: %q", got)
	}

	secure := Config{APIBase: "https://arena.example.com"}
	if got := secure.NotificationsURL("tok"); got != "wss://arena.example.com/ws/notifications/?token=tok" {
		t.Fatalf("secure base must upgrade to wss: %q", got)
	}
}

func TestRESTURL(t *testing.T) {
	c := Config{APIBase: "http://localhost:8000"}
	if got := c.RESTURL("/api/notifications"); got != "http://localhost:8000/api/notifications" {
		t.Fatalf("rest url: %q", got)
	}
}

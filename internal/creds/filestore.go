package creds

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/arenahub/arena-client/pkg/types"
)

// FileStore keeps the token pair (plus the has-visited flag the splash screen
// reads) in a small JSON file, the desktop analog of browser local storage.
// Reads go to disk every time so another process refreshing the token is
// picked up by the next reconnect attempt.
type FileStore struct {
	mu   sync.Mutex
	path string
}

type fileState struct {
	Access     string `json:"access_token,omitempty"`
	Refresh    string `json:"refresh_token,omitempty"`
	HasVisited bool   `json:"has_visited,omitempty"`
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// DefaultPath is ~/.arena/credentials.json, falling back to the working
// directory when the home dir is unknown.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "credentials.json"
	}
	return filepath.Join(home, ".arena", "credentials.json")
}

func (f *FileStore) load() fileState {
	var st fileState
	data, err := os.ReadFile(f.path)
	if err != nil {
		return st
	}
	_ = json.Unmarshal(data, &st)
	return st
}

func (f *FileStore) save(st fileState) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(f.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return err
		}
	}
	return os.WriteFile(f.path, data, 0o600)
}

func (f *FileStore) CurrentToken() (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	st := f.load()
	return st.Access, st.Access != ""
}

func (f *FileStore) RefreshToken() (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	st := f.load()
	return st.Refresh, st.Refresh != ""
}

func (f *FileStore) SaveTokens(pair types.TokenPair) error {
	if pair.Access == "" {
		return errors.New("empty access token")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	st := f.load()
	st.Access = pair.Access
	st.Refresh = pair.Refresh
	return f.save(st)
}

func (f *FileStore) ClearTokens() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	st := f.load()
	st.Access = ""
	st.Refresh = ""
	return f.save(st)
}

func (f *FileStore) HasVisited() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.load().HasVisited
}

func (f *FileStore) MarkVisited() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	st := f.load()
	st.HasVisited = true
	return f.save(st)
}

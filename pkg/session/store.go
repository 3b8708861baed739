package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// StateVersion is the current version of the session file format.
const StateVersion = 1

// State contains the persisted artifacts of one authenticated session.
type State struct {
	// Version is the session file format version.
	Version int `json:"version"`

	// SavedAt is when the state was last saved.
	SavedAt time.Time `json:"saved_at"`

	// Name is the session name the state is keyed by.
	Name string `json:"name"`

	// Credentials is the opaque credential blob issued by the bridge.
	Credentials []byte `json:"credentials,omitempty"`

	// PhoneNumber is the account's phone number, when known.
	PhoneNumber string `json:"phone_number,omitempty"`

	// AuthenticatedAt is when the session last authenticated.
	AuthenticatedAt time.Time `json:"authenticated_at,omitempty"`
}

// Store persists session state keyed by session name.
type Store interface {
	// Exists reports whether state is stored for the name.
	Exists(name string) (bool, error)

	// Load reads the named state. Returns nil, nil when absent.
	Load(name string) (*State, error)

	// Save persists the state under its name.
	Save(state *State) error

	// Clear removes the named state. No-op when absent.
	Clear(name string) error
}

// FileStore persists session state as one JSON file per session name
// inside a directory.
type FileStore struct {
	mu  sync.Mutex
	dir string
}

// NewFileStore creates a file-backed session store rooted at dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// path maps a session name to its file.
func (s *FileStore) path(name string) string {
	return filepath.Join(s.dir, name+".json")
}

// Exists reports whether a session file is present for the name.
func (s *FileStore) Exists(name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := os.Stat(s.path(name))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Load reads the named session state from disk.
// Returns nil, nil if the file doesn't exist (no stored session).
func (s *FileStore) Load(name string) (*State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path(name))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	state := &State{}
	if err := json.Unmarshal(data, state); err != nil {
		return nil, err
	}

	return state, nil
}

// Save persists the session state to disk.
func (s *FileStore) Save(state *State) error {
	if state.Name == "" {
		return fmt.Errorf("session state has no name")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Ensure the session directory exists
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return err
	}

	state.Version = StateVersion
	if state.SavedAt.IsZero() {
		state.SavedAt = time.Now()
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(s.path(state.Name), data, 0600)
}

// Clear removes the named session file.
func (s *FileStore) Clear(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path(name))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

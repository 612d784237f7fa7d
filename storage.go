package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/samber/oops"
)

// maxStoredEvents caps the on-disk transition history used by the RSS feed.
const maxStoredEvents = 200

// State is the full durable repository structure, written as one document
// after every mutation.
type State struct {
	Streamers []*Streamer `json:"streamers"`
}

type Storage interface {
	LoadState() (*State, error)
	SaveState(state *State) error
	AppendEvent(event Event) error
	RecentEvents(limit int) ([]Event, error)
}

type FileStorage struct {
	basePath string
	mu       sync.RWMutex
}

func NewFileStorage(basePath string) (*FileStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, oops.With("base_path", basePath).Wrap(err)
	}
	return &FileStorage{basePath: basePath}, nil
}

// LoadState reads the state blob. A missing file is not an error: the bot
// starts empty on first run.
func (s *FileStorage) LoadState() (*State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	path := filepath.Join(s.basePath, "state.json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &State{}, nil
		}
		return nil, oops.With("path", path).Wrap(err)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, oops.With("path", path, "context", "unmarshaling state").Wrap(err)
	}
	return &state, nil
}

func (s *FileStorage) SaveState(state *State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.basePath, "state.json")
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return oops.With("context", "marshaling state").Wrap(err)
	}
	return os.WriteFile(path, data, 0644)
}

// AppendEvent adds one transition to the history file, trimming it to the
// newest maxStoredEvents entries.
func (s *FileStorage) AppendEvent(event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	events, err := s.readEvents()
	if err != nil {
		return err
	}
	events = append(events, event)
	if len(events) > maxStoredEvents {
		events = events[len(events)-maxStoredEvents:]
	}

	path := filepath.Join(s.basePath, "events.json")
	data, err := json.MarshalIndent(events, "", "  ")
	if err != nil {
		return oops.With("context", "marshaling events").Wrap(err)
	}
	return os.WriteFile(path, data, 0644)
}

// RecentEvents returns up to limit events, newest first.
func (s *FileStorage) RecentEvents(limit int) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events, err := s.readEvents()
	if err != nil {
		return nil, err
	}

	recent := make([]Event, 0, limit)
	for i := len(events) - 1; i >= 0 && len(recent) < limit; i-- {
		recent = append(recent, events[i])
	}
	return recent, nil
}

func (s *FileStorage) readEvents() ([]Event, error) {
	path := filepath.Join(s.basePath, "events.json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, oops.With("path", path).Wrap(err)
	}

	var events []Event
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, oops.With("path", path, "context", "unmarshaling events").Wrap(err)
	}
	return events, nil
}

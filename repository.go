package main

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/samber/lo"
)

// Repository owns the mapping of tracked streamers to their subscription
// outputs. It keeps the working copy in memory and rewrites the state blob
// after every mutation; a failed save is logged and the in-memory state
// stays authoritative until the next write.
type Repository struct {
	storage   Storage
	source    StreamSource
	mu        sync.Mutex
	streamers []*Streamer
}

func NewRepository(storage Storage, source StreamSource) *Repository {
	repo := &Repository{storage: storage, source: source}

	state, err := storage.LoadState()
	if err != nil {
		slog.Error("Failed to load state, starting empty", "error", err)
		state = &State{}
	}
	repo.streamers = state.Streamers
	return repo
}

// AddOutput subscribes a chat channel to a streamer, creating the streamer
// on first use. The Twitch id is resolved once here; later status queries
// never touch the name again.
func (r *Repository) AddOutput(ctx context.Context, name string, channelID int64, customMessage string) (*Streamer, error) {
	name = normalizeName(name)

	r.mu.Lock()
	if s := r.findLocked(name); s != nil {
		defer r.mu.Unlock()
		return s, r.appendOutputLocked(s, channelID, customMessage)
	}
	r.mu.Unlock()

	// Network lookup happens outside the lock so a slow Twitch response
	// does not stall command handling or the notification tick.
	externalID, err := r.source.ResolveID(ctx, name)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if s := r.findLocked(name); s != nil {
		// Added concurrently while we were resolving.
		return s, r.appendOutputLocked(s, channelID, customMessage)
	}

	s := &Streamer{
		Name:       name,
		ExternalID: externalID,
		Outputs:    []Output{{ChannelID: channelID, CustomMessage: customMessage}},
	}
	r.streamers = append(r.streamers, s)
	r.persistLocked()
	return s, nil
}

func (r *Repository) appendOutputLocked(s *Streamer, channelID int64, customMessage string) error {
	duplicate := lo.ContainsBy(s.Outputs, func(o Output) bool {
		return o.ChannelID == channelID
	})
	if duplicate {
		return ErrAlreadySubscribed
	}
	s.Outputs = append(s.Outputs, Output{ChannelID: channelID, CustomMessage: customMessage})
	r.persistLocked()
	return nil
}

// RemoveOutput drops one subscription. A streamer whose last output is
// removed stays queryable with zero outputs, matching the add/remove
// lifecycle users see from /list.
func (r *Repository) RemoveOutput(name string, channelID int64) error {
	name = normalizeName(name)

	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.findLocked(name)
	if s == nil {
		return ErrUnknownStreamer
	}

	_, index, found := lo.FindIndexOf(s.Outputs, func(o Output) bool {
		return o.ChannelID == channelID
	})
	if !found {
		return ErrNotSubscribed
	}

	s.Outputs = append(s.Outputs[:index], s.Outputs[index+1:]...)
	r.persistLocked()
	return nil
}

// RecordMessage updates the outstanding message id for one subscription.
// Only the notification tick calls this.
func (r *Repository) RecordMessage(name string, channelID int64, messageID int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.findLocked(normalizeName(name))
	if s == nil {
		return
	}
	for i := range s.Outputs {
		if s.Outputs[i].ChannelID == channelID {
			s.Outputs[i].LastMessageID = messageID
			r.persistLocked()
			return
		}
	}
}

// Snapshot returns a deep copy of every tracked streamer. The notification
// tick iterates the copy, so a command arriving mid-tick takes effect from
// the next tick.
func (r *Repository) Snapshot() []*Streamer {
	r.mu.Lock()
	defer r.mu.Unlock()

	return lo.Map(r.streamers, func(s *Streamer, _ int) *Streamer {
		clone := *s
		clone.Outputs = make([]Output, len(s.Outputs))
		copy(clone.Outputs, s.Outputs)
		return &clone
	})
}

// AllExternalIDs is the query scope for one status poll.
func (r *Repository) AllExternalIDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := lo.Map(r.streamers, func(s *Streamer, _ int) string {
		return s.ExternalID
	})
	return lo.Uniq(ids)
}

// Reset wipes all tracked streamers.
func (r *Repository) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.streamers = nil
	r.persistLocked()
}

func (r *Repository) findLocked(name string) *Streamer {
	s, _ := lo.Find(r.streamers, func(s *Streamer) bool {
		return s.Name == name
	})
	return s
}

func (r *Repository) persistLocked() {
	if err := r.storage.SaveState(&State{Streamers: r.streamers}); err != nil {
		slog.Error("Failed to persist state", "error", err)
	}
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

package main

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStorageStateRoundtrip(t *testing.T) {
	storage, err := NewFileStorage(t.TempDir())
	require.NoError(t, err)

	state := &State{Streamers: []*Streamer{{
		Name:       "grynn",
		ExternalID: "123",
		Outputs: []Output{
			{ChannelID: 42, CustomMessage: "go!", LastMessageID: 7},
			{ChannelID: 43},
		},
	}}}
	require.NoError(t, storage.SaveState(state))

	loaded, err := storage.LoadState()
	require.NoError(t, err)
	require.Len(t, loaded.Streamers, 1)
	assert.Equal(t, state.Streamers[0], loaded.Streamers[0])
}

func TestFileStorageLoadMissingStateIsEmpty(t *testing.T) {
	storage, err := NewFileStorage(t.TempDir())
	require.NoError(t, err)

	state, err := storage.LoadState()
	require.NoError(t, err)
	assert.Empty(t, state.Streamers)
}

func TestFileStorageEventsNewestFirst(t *testing.T) {
	storage, err := NewFileStorage(t.TempDir())
	require.NoError(t, err)

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		require.NoError(t, storage.AppendEvent(Event{
			Streamer: fmt.Sprintf("streamer%d", i),
			Kind:     EventKindOnline,
			At:       base.Add(time.Duration(i) * time.Minute),
		}))
	}

	events, err := storage.RecentEvents(2)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "streamer2", events[0].Streamer)
	assert.Equal(t, "streamer1", events[1].Streamer)
}

func TestFileStorageEventsCapped(t *testing.T) {
	storage, err := NewFileStorage(t.TempDir())
	require.NoError(t, err)

	for i := 0; i < maxStoredEvents+5; i++ {
		require.NoError(t, storage.AppendEvent(Event{
			Streamer: fmt.Sprintf("streamer%d", i),
			Kind:     EventKindOffline,
			At:       time.Now(),
		}))
	}

	events, err := storage.RecentEvents(maxStoredEvents + 10)
	require.NoError(t, err)
	assert.Len(t, events, maxStoredEvents)
	assert.Equal(t, fmt.Sprintf("streamer%d", maxStoredEvents+4), events[0].Streamer)
}

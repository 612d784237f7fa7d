package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateFeed(t *testing.T) {
	storage, err := NewFileStorage(t.TempDir())
	require.NoError(t, err)

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, storage.AppendEvent(Event{Streamer: "grynn", Kind: EventKindOnline, Title: "Speedrunning all day", At: base}))
	require.NoError(t, storage.AppendEvent(Event{Streamer: "grynn", Kind: EventKindOffline, At: base.Add(2 * time.Hour)}))

	service := NewFeedService(storage)
	feed, err := service.GenerateFeed("http://localhost:8080")
	require.NoError(t, err)

	assert.Equal(t, "Stream Notifications", feed.Title)
	require.Len(t, feed.Items, 2)
	// Newest first
	assert.Equal(t, "grynn went offline", feed.Items[0].Title)
	assert.Equal(t, "grynn went live", feed.Items[1].Title)
	assert.Equal(t, "grynn went live: Speedrunning all day", feed.Items[1].Description)
	assert.Equal(t, "https://www.twitch.tv/grynn", feed.Items[1].Link.Href)

	rss, err := feed.ToRss()
	require.NoError(t, err)
	assert.Contains(t, rss, "grynn went live")
}

func TestGenerateFeedEmpty(t *testing.T) {
	storage, err := NewFileStorage(t.TempDir())
	require.NoError(t, err)

	service := NewFeedService(storage)
	feed, err := service.GenerateFeed("http://localhost:8080")
	require.NoError(t, err)
	assert.Empty(t, feed.Items)
}

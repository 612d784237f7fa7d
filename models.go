package main

import (
	"time"
)

//go:generate go run github.com/abice/go-enum --file=$GOFILE --names --nocase

// EventKind represents the direction of a stream state transition
// ENUM(online,offline)
type EventKind string

// Streamer is one tracked Twitch channel together with every chat channel
// subscribed to its notifications.
type Streamer struct {
	// Name is the lowercased login used as the lookup key for commands.
	Name string `json:"name"`
	// ExternalID is the stable Twitch user id, resolved once when the
	// streamer is first added. Status queries always use the id since
	// logins can be renamed.
	ExternalID string   `json:"id"`
	Outputs    []Output `json:"outputs"`
}

// Output is one (streamer, chat channel) subscription with its own
// message-lifecycle state.
type Output struct {
	ChannelID     int64  `json:"channel_id"`
	CustomMessage string `json:"custom_message,omitempty"`
	// LastMessageID is the most recently posted notification for this
	// subscription, 0 when no message is outstanding. Only the
	// notification tick mutates it.
	LastMessageID int `json:"last_message_id,omitempty"`
}

// StreamMeta is the metadata the Twitch API reports for one live channel.
type StreamMeta struct {
	ExternalID    string
	Login         string
	DisplayName   string
	Title         string
	Category      string
	FollowerCount int
	ViewCount     int
	ThumbnailURL  string
	BannerURL     string
	StartedAt     time.Time
}

// Event is one recorded stream transition, kept for the RSS feed and the
// status endpoint.
type Event struct {
	Streamer string    `json:"streamer"`
	Kind     EventKind `json:"kind"`
	Title    string    `json:"title,omitempty"`
	At       time.Time `json:"at"`
}

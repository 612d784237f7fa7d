package main

import (
	"errors"
	"fmt"
)

var (
	ErrMissingBotToken    = errors.New("TELEGRAM_BOT_TOKEN environment variable is required")
	ErrMissingTwitchCreds = errors.New("TWITCH_CLIENT_ID and TWITCH_CLIENT_SECRET environment variables are required")
	ErrUnauthorized       = errors.New("unauthorized user")
	ErrNoSuchStreamer     = errors.New("no streamer with that name on Twitch")
	ErrUnknownStreamer    = errors.New("streamer is not being tracked")
	ErrNotSubscribed      = errors.New("channel is not subscribed to that streamer")
	ErrAlreadySubscribed  = errors.New("channel is already subscribed to that streamer")
)

// UpstreamError reports a non-success response from the Twitch API.
// The raw status code is kept for diagnosis in user-facing replies.
type UpstreamError struct {
	Status int
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("twitch api returned status %d", e.Status)
}

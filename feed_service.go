package main

import (
	"fmt"

	"github.com/gorilla/feeds"
	"github.com/samber/lo"
	"github.com/samber/oops"
)

// FeedService renders the recorded stream transitions as an RSS feed so a
// reader can follow go-live history without a Telegram account.
type FeedService struct {
	storage Storage
}

func NewFeedService(storage Storage) *FeedService {
	return &FeedService{
		storage: storage,
	}
}

func (s *FeedService) GenerateFeed(baseURL string) (*feeds.Feed, error) {
	events, err := s.storage.RecentEvents(50)
	if err != nil {
		return nil, oops.With("context", "loading recent events").Wrap(err)
	}

	feed := &feeds.Feed{
		Title:       "Stream Notifications",
		Link:        &feeds.Link{Href: fmt.Sprintf("%s/rss", baseURL)},
		Description: "Online/offline transitions of tracked Twitch streamers",
	}
	if len(events) > 0 {
		feed.Updated = events[0].At
	}

	feed.Items = lo.Map(events, func(event Event, _ int) *feeds.Item {
		return eventToFeedItem(event)
	})
	return feed, nil
}

func eventToFeedItem(event Event) *feeds.Item {
	title := fmt.Sprintf("%s went offline", event.Streamer)
	description := title
	if event.Kind == EventKindOnline {
		title = fmt.Sprintf("%s went live", event.Streamer)
		description = title
		if event.Title != "" {
			description = fmt.Sprintf("%s: %s", title, event.Title)
		}
	}

	return &feeds.Item{
		Title:       title,
		Link:        &feeds.Link{Href: "https://www.twitch.tv/" + event.Streamer},
		Description: description,
		Created:     event.At,
		Id:          fmt.Sprintf("%s-%s-%d", event.Streamer, event.Kind, event.At.Unix()),
	}
}

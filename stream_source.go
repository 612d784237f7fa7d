package main

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/nicklaw5/helix/v2"
	"github.com/samber/lo"
	"github.com/samber/oops"
)

// helixPageSize is the Helix maximum for ids per streams/users request.
const helixPageSize = 100

// StreamSource answers which of a batch of channels are live right now.
// Channels that are offline are simply absent from the result.
type StreamSource interface {
	ResolveID(ctx context.Context, login string) (string, error)
	QueryOnline(ctx context.Context, ids []string) ([]StreamMeta, error)
}

// TwitchSource implements StreamSource on the Helix API with an app access
// token.
type TwitchSource struct {
	client *helix.Client
}

func NewTwitchSource(clientID, clientSecret string) (*TwitchSource, error) {
	client, err := helix.NewClient(&helix.Options{
		ClientID:     clientID,
		ClientSecret: clientSecret,
	})
	if err != nil {
		return nil, oops.With("context", "creating helix client").Wrap(err)
	}

	resp, err := client.RequestAppAccessToken(nil)
	if err != nil {
		return nil, oops.With("context", "requesting app access token").Wrap(err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &UpstreamError{Status: resp.StatusCode}
	}
	client.SetAppAccessToken(resp.Data.AccessToken)

	return &TwitchSource{client: client}, nil
}

func (s *TwitchSource) ResolveID(ctx context.Context, login string) (string, error) {
	resp, err := s.client.GetUsers(&helix.UsersParams{
		Logins: []string{login},
	})
	if err != nil {
		return "", oops.With("login", login).Wrap(err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", &UpstreamError{Status: resp.StatusCode}
	}
	if len(resp.Data.Users) == 0 {
		return "", ErrNoSuchStreamer
	}
	return resp.Data.Users[0].ID, nil
}

// QueryOnline fetches the live streams among ids plus the channel metadata
// the notification payload needs. Batches are chunked to the Helix page
// size.
func (s *TwitchSource) QueryOnline(ctx context.Context, ids []string) ([]StreamMeta, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var streams []helix.Stream
	for _, chunk := range lo.Chunk(ids, helixPageSize) {
		resp, err := s.client.GetStreams(&helix.StreamsParams{
			UserIDs: chunk,
			First:   helixPageSize,
		})
		if err != nil {
			return nil, oops.With("ids", len(chunk)).Wrap(err)
		}
		if resp.StatusCode != http.StatusOK {
			return nil, &UpstreamError{Status: resp.StatusCode}
		}
		streams = append(streams, resp.Data.Streams...)
	}

	if len(streams) == 0 {
		return nil, nil
	}

	users, err := s.usersByID(lo.Map(streams, func(st helix.Stream, _ int) string {
		return st.UserID
	}))
	if err != nil {
		return nil, err
	}

	metas := make([]StreamMeta, 0, len(streams))
	for _, st := range streams {
		meta := StreamMeta{
			ExternalID:    st.UserID,
			Login:         st.UserLogin,
			DisplayName:   st.UserName,
			Title:         st.Title,
			Category:      st.GameName,
			FollowerCount: s.followerCount(st.UserID),
			StartedAt:     st.StartedAt,
		}
		if u, ok := users[st.UserID]; ok {
			meta.ThumbnailURL = u.ProfileImageURL
			meta.BannerURL = u.OfflineImageURL
			meta.ViewCount = u.ViewCount
		}
		metas = append(metas, meta)
	}
	return metas, nil
}

func (s *TwitchSource) usersByID(ids []string) (map[string]helix.User, error) {
	users := make(map[string]helix.User, len(ids))
	for _, chunk := range lo.Chunk(ids, helixPageSize) {
		resp, err := s.client.GetUsers(&helix.UsersParams{IDs: chunk})
		if err != nil {
			return nil, oops.With("ids", len(chunk)).Wrap(err)
		}
		if resp.StatusCode != http.StatusOK {
			return nil, &UpstreamError{Status: resp.StatusCode}
		}
		for _, u := range resp.Data.Users {
			users[u.ID] = u
		}
	}
	return users, nil
}

// followerCount is best-effort: a failed lookup only degrades the payload,
// it never blocks a notification.
func (s *TwitchSource) followerCount(broadcasterID string) int {
	resp, err := s.client.GetChannelFollows(&helix.GetChannelFollowsParams{
		BroadcasterID: broadcasterID,
		First:         1,
	})
	if err != nil || resp.StatusCode != http.StatusOK {
		slog.Debug("Follower count lookup failed", "broadcaster_id", broadcasterID, "error", err)
		return 0
	}
	return int(resp.Data.Total)
}

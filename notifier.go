package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/samber/lo"
	"github.com/samber/oops"
)

// StreamMonitor runs the notification state machine: it polls Twitch on a
// fixed period, diffs the online set against the previous tick, and drives
// the per-subscription message lifecycle through the sink.
type StreamMonitor struct {
	cfg     *Config
	repo    *Repository
	source  StreamSource
	sink    ChannelSink
	storage Storage
	loc     *time.Location

	mu      sync.Mutex
	online  []string
	running bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewStreamMonitor(cfg *Config, repo *Repository, source StreamSource, sink ChannelSink, storage Storage) *StreamMonitor {
	InitMetrics()

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		slog.Warn("Unknown timezone, falling back to UTC", "timezone", cfg.Timezone, "error", err)
		loc = time.UTC
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &StreamMonitor{
		cfg:     cfg,
		repo:    repo,
		source:  source,
		sink:    sink,
		storage: storage,
		loc:     loc,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start launches the polling loop once; repeated calls are ignored.
func (m *StreamMonitor) Start() {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		slog.Warn("Stream monitor already running, not starting again")
		return
	}
	m.running = true
	m.mu.Unlock()

	slog.Info("Starting stream monitor", "interval_seconds", m.cfg.PollInterval)
	m.wg.Add(1)
	go m.monitorLoop()
}

func (m *StreamMonitor) Stop() {
	m.cancel()
	m.wg.Wait()
}

// Online reports the externalIds observed live on the last tick.
func (m *StreamMonitor) Online() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.online))
	copy(out, m.online)
	return out
}

// monitorLoop is fixed-delay: the full period elapses between the end of
// one tick and the start of the next.
func (m *StreamMonitor) monitorLoop() {
	defer m.wg.Done()

	interval := time.Duration(m.cfg.PollInterval) * time.Second
	for {
		// A shutdown request never interrupts a tick already running;
		// Stop waits for the current pass to finish.
		if err := m.Tick(context.Background()); err != nil {
			slog.Error("Notification tick failed", "error", err)
		}

		select {
		case <-m.ctx.Done():
			return
		case <-time.After(interval):
		}
	}
}

// Tick runs one diff-and-deliver pass. Offline transitions run before
// online ones so an off-then-on bounce between polls ends with the online
// notification on top.
func (m *StreamMonitor) Tick(ctx context.Context) error {
	TicksTotal.Inc()

	ids := m.repo.AllExternalIDs()
	TrackedStreamersGauge.Set(float64(len(ids)))

	var metas []StreamMeta
	if len(ids) > 0 {
		var err error
		metas, err = m.source.QueryOnline(ctx, ids)
		if err != nil {
			UpstreamErrors.Inc()
			return oops.With("tracked", len(ids), "context", "polling stream status").Wrap(err)
		}
	}

	current := lo.Map(metas, func(meta StreamMeta, _ int) string {
		return meta.ExternalID
	})

	m.mu.Lock()
	previous := m.online
	m.mu.Unlock()

	newlyOffline, newlyOnline := lo.Difference(previous, current)
	byID := lo.KeyBy(metas, func(meta StreamMeta) string {
		return meta.ExternalID
	})

	var errs []error
	for _, id := range newlyOffline {
		if err := m.OfflineTransition(ctx, id); err != nil {
			errs = append(errs, err)
		}
	}
	for _, id := range newlyOnline {
		if err := m.OnlineTransition(ctx, id, byID[id]); err != nil {
			errs = append(errs, err)
		}
	}

	m.mu.Lock()
	m.online = current
	m.mu.Unlock()
	OnlineStreamersGauge.Set(float64(len(current)))

	return errors.Join(errs...)
}

// OfflineTransition deletes the outstanding message for every subscription
// of the streamer and posts a self-expiring "gone offline" notice.
func (m *StreamMonitor) OfflineTransition(ctx context.Context, externalID string) error {
	var errs []error
	for _, s := range m.repo.Snapshot() {
		if s.ExternalID != externalID {
			continue
		}
		for _, o := range s.Outputs {
			m.deleteOutstanding(ctx, s, o)

			text := fmt.Sprintf("%s has gone offline.", s.Name)
			expiry := time.Duration(m.cfg.OfflineExpiry) * time.Second
			messageID, err := m.sink.Post(ctx, o.ChannelID, text, nil, expiry)
			if err != nil {
				DeliveryErrors.Inc()
				errs = append(errs, oops.With("streamer", s.Name, "channel_id", o.ChannelID).Wrap(err))
				continue
			}
			NotificationsPosted.Inc()
			m.repo.RecordMessage(s.Name, o.ChannelID, messageID)
		}
		m.recordEvent(Event{Streamer: s.Name, Kind: EventKindOffline, At: time.Now()})
	}
	return errors.Join(errs...)
}

// OnlineTransition replaces any outstanding message with the rich "went
// live" notification built from the poll metadata.
func (m *StreamMonitor) OnlineTransition(ctx context.Context, externalID string, meta StreamMeta) error {
	embed := buildStreamEmbed(meta, m.loc)

	var errs []error
	for _, s := range m.repo.Snapshot() {
		if s.ExternalID != externalID {
			continue
		}
		for _, o := range s.Outputs {
			m.deleteOutstanding(ctx, s, o)

			messageID, err := m.sink.Post(ctx, o.ChannelID, o.CustomMessage, embed, 0)
			if err != nil {
				DeliveryErrors.Inc()
				errs = append(errs, oops.With("streamer", s.Name, "channel_id", o.ChannelID).Wrap(err))
				continue
			}
			NotificationsPosted.Inc()
			m.repo.RecordMessage(s.Name, o.ChannelID, messageID)
		}
		m.recordEvent(Event{Streamer: s.Name, Kind: EventKindOnline, Title: meta.Title, At: time.Now()})
	}
	return errors.Join(errs...)
}

// deleteOutstanding clears the previous lifecycle message. Failure is not a
// correctness problem: the message may have been removed by hand.
func (m *StreamMonitor) deleteOutstanding(ctx context.Context, s *Streamer, o Output) {
	if o.LastMessageID == 0 {
		return
	}
	if err := m.sink.Delete(ctx, o.ChannelID, o.LastMessageID); err != nil {
		slog.Debug("Could not delete previous notification", "streamer", s.Name, "channel_id", o.ChannelID, "message_id", o.LastMessageID, "error", err)
	}
}

func (m *StreamMonitor) recordEvent(event Event) {
	if err := m.storage.AppendEvent(event); err != nil {
		slog.Error("Failed to record event", "streamer", event.Streamer, "kind", event.Kind, "error", err)
	}
}

func buildStreamEmbed(meta StreamMeta, loc *time.Location) *Embed {
	category := meta.Category
	if category == "" {
		category = "No category selected"
	}
	return &Embed{
		Title:        meta.DisplayName + " is now live on Twitch!",
		URL:          "https://www.twitch.tv/" + meta.Login,
		ThumbnailURL: meta.ThumbnailURL,
		ImageURL:     meta.BannerURL,
		Fields: []EmbedField{
			{Name: "Title", Value: meta.Title},
			{Name: "Now Playing", Value: category},
			{Name: "Followers", Value: strconv.Itoa(meta.FollowerCount)},
			{Name: "Total Views", Value: strconv.Itoa(meta.ViewCount)},
		},
		Footer: time.Now().In(loc).Format("2006-01-02 15:04:05 MST"),
	}
}

package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	sloghttp "github.com/samber/slog-http"
)

// StatusServer exposes health, status, metrics and the event RSS feed.
type StatusServer struct {
	cfg         *Config
	repo        *Repository
	monitor     *StreamMonitor
	feedService *FeedService
	logger      *slog.Logger
}

func NewStatusServer(cfg *Config, repo *Repository, monitor *StreamMonitor, feedService *FeedService) *StatusServer {
	return &StatusServer{
		cfg:         cfg,
		repo:        repo,
		monitor:     monitor,
		feedService: feedService,
		logger:      slog.Default(),
	}
}

func (s *StatusServer) SetLogger(logger *slog.Logger) {
	s.logger = logger
}

func (s *StatusServer) Start() error {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("GET /rss", s.handleRSSFeed)
	mux.Handle("GET /metrics", promhttp.Handler())

	addr := fmt.Sprintf(":%s", s.cfg.HTTPPort)
	s.logger.Info("Status server starting", "addr", addr)

	handler := sloghttp.Recovery(mux)
	handler = sloghttp.New(s.logger)(handler)

	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return server.ListenAndServe()
}

func (s *StatusServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *StatusServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	streamers := s.repo.Snapshot()
	online := s.monitor.Online()

	type streamerStatus struct {
		Name          string `json:"name"`
		Subscriptions int    `json:"subscriptions"`
		Online        bool   `json:"online"`
	}

	onlineSet := make(map[string]struct{}, len(online))
	for _, id := range online {
		onlineSet[id] = struct{}{}
	}

	out := struct {
		Streamers []streamerStatus `json:"streamers"`
		Online    int              `json:"online"`
	}{Streamers: make([]streamerStatus, 0, len(streamers)), Online: len(online)}

	for _, st := range streamers {
		_, isOnline := onlineSet[st.ExternalID]
		out.Streamers = append(out.Streamers, streamerStatus{
			Name:          st.Name,
			Subscriptions: len(st.Outputs),
			Online:        isOnline,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(out); err != nil {
		s.logger.Error("Error encoding status", "error", err)
	}
}

func (s *StatusServer) handleRSSFeed(w http.ResponseWriter, r *http.Request) {
	baseURL := fmt.Sprintf("%s://%s", getScheme(r), r.Host)

	feed, err := s.feedService.GenerateFeed(baseURL)
	if err != nil {
		s.logger.Error("Error generating feed", "error", err)
		http.Error(w, "Failed to generate feed", http.StatusInternalServerError)
		return
	}

	rss, err := feed.ToRss()
	if err != nil {
		s.logger.Error("Error converting feed to RSS", "error", err)
		http.Error(w, "Failed to generate RSS", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=60")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(rss))
}

func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}

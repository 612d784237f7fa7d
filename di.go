package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/samber/do/v2"
)

// SetupDI initializes the dependency injection container
func SetupDI() (do.Injector, error) {
	injector := do.New()

	// Register Config
	do.Provide(injector, func(i do.Injector) (*Config, error) {
		cfg, err := LoadConfig()
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		return cfg, nil
	})

	// Register Storage
	do.Provide(injector, func(i do.Injector) (Storage, error) {
		cfg := do.MustInvoke[*Config](i)
		storage, err := NewFileStorage(cfg.StoragePath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize storage at %s: %w", cfg.StoragePath, err)
		}
		return storage, nil
	})

	// Register StreamSource
	do.Provide(injector, func(i do.Injector) (StreamSource, error) {
		cfg := do.MustInvoke[*Config](i)
		source, err := NewTwitchSource(cfg.TwitchClientID, cfg.TwitchClientSecret)
		if err != nil {
			return nil, fmt.Errorf("failed to create twitch client: %w", err)
		}
		return source, nil
	})

	// Register Repository
	do.Provide(injector, func(i do.Injector) (*Repository, error) {
		storage := do.MustInvoke[Storage](i)
		source := do.MustInvoke[StreamSource](i)
		return NewRepository(storage, source), nil
	})

	// Register TelegramSink (bot is attached once it exists)
	do.Provide(injector, func(i do.Injector) (*TelegramSink, error) {
		return NewTelegramSink(), nil
	})

	// Register StreamMonitor
	do.Provide(injector, func(i do.Injector) (*StreamMonitor, error) {
		cfg := do.MustInvoke[*Config](i)
		repo := do.MustInvoke[*Repository](i)
		source := do.MustInvoke[StreamSource](i)
		sink := do.MustInvoke[*TelegramSink](i)
		storage := do.MustInvoke[Storage](i)
		return NewStreamMonitor(cfg, repo, source, sink, storage), nil
	})

	// Register BotHandler
	do.Provide(injector, func(i do.Injector) (*BotHandler, error) {
		cfg := do.MustInvoke[*Config](i)
		repo := do.MustInvoke[*Repository](i)
		monitor := do.MustInvoke[*StreamMonitor](i)
		sink := do.MustInvoke[*TelegramSink](i)
		return NewBotHandler(cfg, repo, monitor, sink), nil
	})

	// Register FeedService
	do.Provide(injector, func(i do.Injector) (*FeedService, error) {
		storage := do.MustInvoke[Storage](i)
		return NewFeedService(storage), nil
	})

	// Register StatusServer
	do.Provide(injector, func(i do.Injector) (*StatusServer, error) {
		cfg := do.MustInvoke[*Config](i)
		repo := do.MustInvoke[*Repository](i)
		monitor := do.MustInvoke[*StreamMonitor](i)
		feedService := do.MustInvoke[*FeedService](i)
		server := NewStatusServer(cfg, repo, monitor, feedService)
		server.SetLogger(slog.Default())
		return server, nil
	})

	// Register Bot (needs the handlers ready before it starts polling)
	do.Provide(injector, func(i do.Injector) (*bot.Bot, error) {
		cfg := do.MustInvoke[*Config](i)
		botHandler := do.MustInvoke[*BotHandler](i)

		b, err := bot.New(cfg.TelegramBotToken)
		if err != nil {
			return nil, fmt.Errorf("failed to create telegram bot: %w", err)
		}

		botHandler.RegisterCommands(b)

		// Set bot in the delivery sink
		sink := do.MustInvoke[*TelegramSink](i)
		sink.SetBot(b)

		return b, nil
	})

	return injector, nil
}

// ShutdownDI gracefully shuts down all services
func ShutdownDI(injector do.Injector) error {
	ctx := context.Background()

	// Shutdown bot if it exists
	if b, err := do.Invoke[*bot.Bot](injector); err == nil && b != nil {
		b.Close(ctx)
	}

	// Shutdown stream monitor if it exists
	if monitor, err := do.Invoke[*StreamMonitor](injector); err == nil && monitor != nil {
		monitor.Stop()
	}

	return nil
}

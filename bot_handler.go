package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/samber/lo"
)

// BotHandler translates chat commands into repository operations and the
// error taxonomy into user-facing replies. Replies self-expire so command
// chatter does not pile up in notification channels.
type BotHandler struct {
	cfg      *Config
	repo     *Repository
	monitor  *StreamMonitor
	sink     ChannelSink
	shutdown func()
}

func NewBotHandler(cfg *Config, repo *Repository, monitor *StreamMonitor, sink ChannelSink) *BotHandler {
	return &BotHandler{
		cfg:     cfg,
		repo:    repo,
		monitor: monitor,
		sink:    sink,
	}
}

// SetShutdownFunc wires the process-stop request issued by /shutdown.
func (h *BotHandler) SetShutdownFunc(fn func()) {
	h.shutdown = fn
}

func (h *BotHandler) RegisterCommands(b *bot.Bot) {
	b.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypeExact, h.handleHelp)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/help", bot.MatchTypeExact, h.handleHelp)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/track", bot.MatchTypePrefix, h.handleTrack)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/untrack", bot.MatchTypePrefix, h.handleUntrack)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/list", bot.MatchTypeExact, h.handleList)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/status", bot.MatchTypeExact, h.handleStatus)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/reset", bot.MatchTypeExact, h.handleReset)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/shutdown", bot.MatchTypeExact, h.handleShutdown)
}

func (h *BotHandler) isMaster(userID int64) bool {
	return h.cfg.MasterID != 0 && userID == h.cfg.MasterID
}

func (h *BotHandler) isAllowed(userID int64) bool {
	return h.isMaster(userID) || lo.Contains(h.cfg.AllowedUsers, userID)
}

// senderID extracts the command sender. Channel posts carry no sender,
// so commands without one are dropped rather than dereferenced.
func senderID(update *models.Update) (int64, bool) {
	if update.Message == nil || update.Message.From == nil {
		return 0, false
	}
	return update.Message.From.ID, true
}

// reply posts an ephemeral response in the chat the command came from.
func (h *BotHandler) reply(ctx context.Context, chatID int64, text string) {
	expiry := time.Duration(h.cfg.ReplyExpiry) * time.Second
	if _, err := h.sink.Post(ctx, chatID, text, nil, expiry); err != nil {
		slog.Error("Failed to send command reply", "chat_id", chatID, "error", err)
	}
}

func (h *BotHandler) handleHelp(ctx context.Context, b *bot.Bot, update *models.Update) {
	text := `I post notifications when tracked Twitch streams go online or offline.

Available commands:
/track <stream_name> [optional message] - Track a streamer in this channel
/untrack <stream_name> - Stop tracking a streamer in this channel
/list - List tracked streamers
/status - Show bot status
/reset - Wipe all tracked data (superuser only)
/shutdown - Stop the bot (superuser only)

Example:
/track just_grynn Stream's up everyone!`

	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: update.Message.Chat.ID,
		Text:   text,
	})
}

func (h *BotHandler) handleTrack(ctx context.Context, b *bot.Bot, update *models.Update) {
	userID, ok := senderID(update)
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID
	if !h.isAllowed(userID) {
		h.reply(ctx, chatID, "You are not authorized to manage stream notifications.")
		return
	}

	parts := strings.Fields(update.Message.Text)
	if len(parts) < 2 {
		h.reply(ctx, chatID, "Too few arguments, command usage: /track <stream_name> [optional message]\nExample: /track just_grynn Stream's up everyone!")
		return
	}

	name := parts[1]
	customMessage := strings.Join(parts[2:], " ")

	_, err := h.repo.AddOutput(ctx, name, chatID, customMessage)
	var upstream *UpstreamError
	switch {
	case err == nil:
		h.reply(ctx, chatID, "Stream successfully added! Notification messages will be sent in this channel.")
	case errors.Is(err, ErrNoSuchStreamer):
		h.reply(ctx, chatID, fmt.Sprintf("No streamer can be found with the name %s", strings.ToLower(name)))
	case errors.Is(err, ErrAlreadySubscribed):
		h.reply(ctx, chatID, "This channel is already tracking that streamer.")
	case errors.As(err, &upstream):
		h.reply(ctx, chatID, fmt.Sprintf("There was a problem with the request: Status Code: %d", upstream.Status))
	default:
		slog.Error("Unexpected error adding stream", "name", name, "chat_id", chatID, "error", err)
		h.reply(ctx, chatID, "An unexpected error has occurred, please try again later.")
	}
}

func (h *BotHandler) handleUntrack(ctx context.Context, b *bot.Bot, update *models.Update) {
	userID, ok := senderID(update)
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID
	if !h.isAllowed(userID) {
		h.reply(ctx, chatID, "You are not authorized to manage stream notifications.")
		return
	}

	parts := strings.Fields(update.Message.Text)
	if len(parts) < 2 {
		h.reply(ctx, chatID, "Too few arguments, command usage: /untrack <stream_name>\nExample: /untrack just_grynn")
		return
	}

	err := h.repo.RemoveOutput(parts[1], chatID)
	switch {
	case err == nil:
		h.reply(ctx, chatID, "Stream successfully removed. Notification messages will no longer be sent in this channel.")
	case errors.Is(err, ErrUnknownStreamer), errors.Is(err, ErrNotSubscribed):
		h.reply(ctx, chatID, "That stream is not being tracked in this channel.")
	default:
		slog.Error("Unexpected error removing stream", "name", parts[1], "chat_id", chatID, "error", err)
		h.reply(ctx, chatID, "An unexpected error has occurred, please try again later.")
	}
}

func (h *BotHandler) handleList(ctx context.Context, b *bot.Bot, update *models.Update) {
	userID, ok := senderID(update)
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID
	if !h.isAllowed(userID) {
		h.reply(ctx, chatID, "You are not authorized to manage stream notifications.")
		return
	}

	streamers := h.repo.Snapshot()
	if len(streamers) == 0 {
		h.reply(ctx, chatID, "No streamers are being tracked yet. Use /track to add one.")
		return
	}

	online := h.monitor.Online()
	var text strings.Builder
	text.WriteString("Tracked streamers:\n\n")
	for _, s := range streamers {
		marker := "offline"
		if lo.Contains(online, s.ExternalID) {
			marker = "online"
		}
		subscribedHere := lo.ContainsBy(s.Outputs, func(o Output) bool {
			return o.ChannelID == chatID
		})
		here := ""
		if subscribedHere {
			here = ", notifying this channel"
		}
		text.WriteString(fmt.Sprintf("%s - %s, %d channel(s)%s\n", s.Name, marker, len(s.Outputs), here))
	}

	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text.String(),
	})
}

func (h *BotHandler) handleStatus(ctx context.Context, b *bot.Bot, update *models.Update) {
	userID, ok := senderID(update)
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID
	if !h.isAllowed(userID) {
		h.reply(ctx, chatID, "You are not authorized to manage stream notifications.")
		return
	}

	streamers := h.repo.Snapshot()
	outputs := lo.SumBy(streamers, func(s *Streamer) int {
		return len(s.Outputs)
	})

	text := fmt.Sprintf(`Bot status:

Streamers: %d (online: %d)
Subscriptions: %d
Poll interval: %d seconds
Storage: %s`,
		len(streamers), len(h.monitor.Online()), outputs, h.cfg.PollInterval, h.cfg.StoragePath)

	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
}

func (h *BotHandler) handleReset(ctx context.Context, b *bot.Bot, update *models.Update) {
	userID, ok := senderID(update)
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID
	if !h.isMaster(userID) {
		h.reply(ctx, chatID, "Only the superuser can reset the data.")
		return
	}

	h.repo.Reset()
	h.reply(ctx, chatID, "Data reset")
}

func (h *BotHandler) handleShutdown(ctx context.Context, b *bot.Bot, update *models.Update) {
	userID, ok := senderID(update)
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID
	if !h.isMaster(userID) {
		h.reply(ctx, chatID, "Only the superuser can shut the bot down.")
		return
	}

	slog.Info("Shutting down from command", "user_id", userID)
	h.reply(ctx, chatID, "Shutting down.")
	if h.shutdown != nil {
		h.shutdown()
	}
}

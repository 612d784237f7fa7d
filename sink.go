package main

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/samber/oops"
)

// ChannelSink posts and deletes notification messages in chat channels.
// Post returns the new message id; expireAfter > 0 schedules the message
// for deletion after that delay.
type ChannelSink interface {
	Post(ctx context.Context, channelID int64, text string, embed *Embed, expireAfter time.Duration) (int, error)
	Delete(ctx context.Context, channelID int64, messageID int) error
}

// Embed is the rich part of a notification, rendered platform-specifically
// by the sink.
type Embed struct {
	Title        string
	URL          string
	ThumbnailURL string
	ImageURL     string
	Fields       []EmbedField
	Footer       string
}

type EmbedField struct {
	Name  string
	Value string
}

// TelegramSink delivers messages through the Telegram Bot API. The bot is
// attached after construction because the bot itself needs the command
// handlers wired first.
type TelegramSink struct {
	bot *bot.Bot
}

func NewTelegramSink() *TelegramSink {
	return &TelegramSink{}
}

func (s *TelegramSink) SetBot(b *bot.Bot) {
	s.bot = b
}

func (s *TelegramSink) Post(ctx context.Context, channelID int64, text string, embed *Embed, expireAfter time.Duration) (int, error) {
	if s.bot == nil {
		return 0, oops.Errorf("bot not initialized")
	}

	msg, err := s.send(ctx, channelID, text, embed)
	if err != nil {
		return 0, oops.With("channel_id", channelID).Wrap(err)
	}

	if expireAfter > 0 {
		s.scheduleExpiry(channelID, msg.ID, expireAfter)
	}
	return msg.ID, nil
}

func (s *TelegramSink) send(ctx context.Context, channelID int64, text string, embed *Embed) (*models.Message, error) {
	if embed == nil {
		return s.bot.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: channelID,
			Text:   text,
		})
	}

	caption := renderCaption(text, embed)

	// Telegram carries a single image per message; the banner wins over
	// the avatar thumbnail when both are present.
	photo := embed.ImageURL
	if photo == "" {
		photo = embed.ThumbnailURL
	}
	if photo != "" {
		return s.bot.SendPhoto(ctx, &bot.SendPhotoParams{
			ChatID:    channelID,
			Photo:     &models.InputFileString{Data: photo},
			Caption:   caption,
			ParseMode: models.ParseModeHTML,
		})
	}

	return s.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    channelID,
		Text:      caption,
		ParseMode: models.ParseModeHTML,
	})
}

// Delete removes a previously posted message. Callers tolerate failure: the
// message may already be gone.
func (s *TelegramSink) Delete(ctx context.Context, channelID int64, messageID int) error {
	if s.bot == nil {
		return oops.Errorf("bot not initialized")
	}
	if _, err := s.bot.DeleteMessage(ctx, &bot.DeleteMessageParams{
		ChatID:    channelID,
		MessageID: messageID,
	}); err != nil {
		return oops.With("channel_id", channelID, "message_id", messageID).Wrap(err)
	}
	return nil
}

// scheduleExpiry emulates Discord-style self-deleting messages; the
// Telegram API has no delete_after parameter.
func (s *TelegramSink) scheduleExpiry(channelID int64, messageID int, after time.Duration) {
	time.AfterFunc(after, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.Delete(ctx, channelID, messageID); err != nil {
			slog.Debug("Expired message already gone", "channel_id", channelID, "message_id", messageID, "error", err)
		}
	})
}

func renderCaption(text string, embed *Embed) string {
	var b strings.Builder
	if text != "" {
		b.WriteString(html.EscapeString(text))
		b.WriteString("\n\n")
	}
	if embed.URL != "" {
		fmt.Fprintf(&b, "<b><a href=\"%s\">%s</a></b>\n", embed.URL, html.EscapeString(embed.Title))
	} else {
		fmt.Fprintf(&b, "<b>%s</b>\n", html.EscapeString(embed.Title))
	}
	for _, field := range embed.Fields {
		fmt.Fprintf(&b, "\n<b>%s:</b> %s", html.EscapeString(field.Name), html.EscapeString(field.Value))
	}
	if embed.Footer != "" {
		b.WriteString("\n\n")
		b.WriteString(html.EscapeString(embed.Footer))
	}
	return b.String()
}

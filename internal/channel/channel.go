// Package channel verifies user channels and publishes posts into them.
package channel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	tele "gopkg.in/telebot.v3"
)

var (
	// ErrBadLink means the input is not a recognizable channel reference.
	ErrBadLink = errors.New("unrecognized channel link")
	// ErrNotChannel means the reference resolves to something other than a channel.
	ErrNotChannel = errors.New("chat is not a channel")
	// ErrNotAdmin means the bot lacks posting rights in the channel.
	ErrNotAdmin = errors.New("bot is not a posting admin")
)

// Service resolves channel links and posts on behalf of the user.
type Service interface {
	Resolve(ctx context.Context, link string) (*tele.Chat, error)
	HasPostingRights(ctx context.Context, chat *tele.Chat) (bool, error)
	PublishPinned(ctx context.Context, chat *tele.Chat, text, buttonText, buttonURL string) error
}

type service struct {
	bot *tele.Bot
	log *slog.Logger
}

// NewService builds a channel service on top of the bot API.
func NewService(bot *tele.Bot, log *slog.Logger) Service {
	if log == nil {
		log = slog.Default()
	}

	return &service{
		bot: bot,
		log: log,
	}
}

// ParseUsername extracts "@name" from the forms users actually paste:
// @name, name, t.me/name, https://t.me/name.
func ParseUsername(input string) (string, error) {
	s := strings.TrimSpace(input)
	s = strings.TrimPrefix(s, "https://")
	s = strings.TrimPrefix(s, "http://")
	s = strings.TrimPrefix(s, "t.me/")
	s = strings.TrimPrefix(s, "telegram.me/")
	s = strings.TrimPrefix(s, "@")

	if idx := strings.IndexAny(s, "/?"); idx >= 0 {
		s = s[:idx]
	}

	if s == "" || strings.ContainsAny(s, " \t\n") {
		return "", ErrBadLink
	}

	// Invite links (t.me/+hash) cannot be resolved by username.
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "joinchat") {
		return "", ErrBadLink
	}

	return "@" + s, nil
}

// Resolve finds the chat behind the pasted link and ensures it is a channel.
func (s *service) Resolve(ctx context.Context, link string) (*tele.Chat, error) {
	username, err := ParseUsername(link)
	if err != nil {
		return nil, err
	}

	chat, err := s.bot.ChatByUsername(username)
	if err != nil {
		s.log.WarnContext(ctx, "channel lookup failed",
			slog.String("username", username),
			slog.Any("error", err))
		return nil, fmt.Errorf("lookup %s: %w", username, err)
	}

	if chat.Type != tele.ChatChannel {
		return nil, ErrNotChannel
	}

	return chat, nil
}

// HasPostingRights reports whether this bot can post in the channel.
func (s *service) HasPostingRights(ctx context.Context, chat *tele.Chat) (bool, error) {
	admins, err := s.bot.AdminsOf(chat)
	if err != nil {
		return false, fmt.Errorf("list admins of %d: %w", chat.ID, err)
	}

	me := s.bot.Me
	for _, member := range admins {
		if member.User == nil || member.User.ID != me.ID {
			continue
		}
		if member.Role == tele.Creator || member.Rights.CanPostMessages {
			return true, nil
		}
	}

	return false, nil
}

// PublishPinned posts the text with a single URL button and pins it silently.
func (s *service) PublishPinned(ctx context.Context, chat *tele.Chat, text, buttonText, buttonURL string) error {
	markup := &tele.ReplyMarkup{
		InlineKeyboard: [][]tele.InlineButton{{
			{Text: buttonText, URL: buttonURL},
		}},
	}

	msg, err := s.bot.Send(chat, text, markup)
	if err != nil {
		s.log.ErrorContext(ctx, "channel publish failed",
			slog.Int64("channel_id", chat.ID),
			slog.Any("error", err))
		return fmt.Errorf("publish to %d: %w", chat.ID, err)
	}

	if err := s.bot.Pin(msg, tele.Silent); err != nil {
		// The post is live; a failed pin should not fail the whole step.
		s.log.WarnContext(ctx, "pin failed",
			slog.Int64("channel_id", chat.ID),
			slog.Any("error", err))
	}

	return nil
}

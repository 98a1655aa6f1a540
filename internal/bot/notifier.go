package bot

import (
	"context"
	"fmt"

	telebot "gopkg.in/telebot.v3"

	"github.com/pptbot/pptbot/internal/bot/handlers"
	"github.com/pptbot/pptbot/internal/bot/keyboard"
)

// ReminderNotifier pushes reminder nudges outside of any update context.
type ReminderNotifier struct {
	bot *telebot.Bot
	kb  *keyboard.Builder
}

// NewReminderNotifier builds the notifier over the running bot.
func NewReminderNotifier(bot *telebot.Bot) *ReminderNotifier {
	return &ReminderNotifier{
		bot: bot,
		kb:  keyboard.NewBuilder(),
	}
}

// SendReminder delivers the reminder text with the video confirmation button.
func (n *ReminderNotifier) SendReminder(ctx context.Context, telegramID int64, sequence int) error {
	recipient := &telebot.User{ID: telegramID}
	markup := n.kb.Single(handlers.BtnVideoWatched, handlers.CallbackVideoWatched)

	if _, err := n.bot.Send(recipient, handlers.ReminderMessage(sequence), markup); err != nil {
		return fmt.Errorf("send reminder %d to %d: %w", sequence, telegramID, err)
	}

	return nil
}

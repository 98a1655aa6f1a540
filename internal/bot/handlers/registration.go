package handlers

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strings"

	telebot "gopkg.in/telebot.v3"

	"github.com/pptbot/pptbot/internal/repository"
	"github.com/pptbot/pptbot/internal/state"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// HandleStart greets the user and asks for the email used at purchase.
func (f *Funnel) HandleStart(c telebot.Context) error {
	if c.Sender() == nil {
		return nil
	}

	ctx := context.Background()
	userID := c.Sender().ID

	current, err := f.fsm.GetState(ctx, userID)
	if err != nil {
		return err
	}

	// A verified user restarting the bot keeps their progress.
	switch current {
	case state.StateRegistered, state.StateVideoSent, state.StateVideoWatched:
		return c.Send(MsgAlreadyRegistered)
	case state.StateNew, state.StateWaitingEmail:
	default:
		return c.Send(MsgAlreadyRegistered)
	}

	if err := c.Send(MsgStart); err != nil {
		return err
	}

	// The row may not have a telegram id bound yet; a zero-row update is fine.
	f.setState(ctx, userID, state.StateWaitingEmail)

	return nil
}

// HandleEmail verifies the email, binds the Telegram account, and starts the
// video stage. Invalid or unknown input re-prompts without a state change.
func (f *Funnel) HandleEmail(c telebot.Context) error {
	ctx := context.Background()
	userID := c.Sender().ID
	input := strings.TrimSpace(c.Text())

	if !emailPattern.MatchString(input) {
		return c.Send(MsgInvalidEmail)
	}

	email := strings.ToLower(input)

	if _, err := f.users.FindByEmail(ctx, email); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.Send(MsgEmailNotFound)
		}
		return err
	}

	if err := f.users.BindTelegramID(ctx, email, userID); err != nil {
		return err
	}

	f.setState(ctx, userID, state.StateRegistered)
	f.log.Info("user registered", slog.Int64("telegram_id", userID))

	if err := c.Send(MsgRegistered); err != nil {
		return err
	}

	return f.sendVideoAndButton(c, userID)
}

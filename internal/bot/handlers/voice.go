package handlers

import (
	"context"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/pptbot/pptbot/internal/state"
)

// HandleVoice transcribes a voice message and feeds the text to whichever
// question the user is currently answering. Voice outside those stages is
// ignored.
func (f *Funnel) HandleVoice(c telebot.Context) error {
	ctx := context.Background()
	userID := c.Sender().ID

	current, err := f.fsm.GetState(ctx, userID)
	if err != nil {
		return err
	}
	if !state.VoiceAccepted(current) {
		return nil
	}

	msg := c.Message()
	if msg == nil || msg.Voice == nil {
		return nil
	}

	placeholder, err := c.Bot().Send(c.Recipient(), MsgTranscribing)
	if err != nil {
		return err
	}

	rc, err := c.Bot().File(&msg.Voice.File)
	if err != nil {
		f.log.Error("failed to download voice file", slog.Int64("telegram_id", userID), slog.Any("error", err))
		_, editErr := c.Bot().Edit(placeholder, MsgTranscribeFailed)
		return editErr
	}
	defer rc.Close()

	text, err := f.transcriber.Transcribe(ctx, rc)
	if err != nil {
		f.log.Error("voice transcription failed", slog.Int64("telegram_id", userID), slog.Any("error", err))
		_, editErr := c.Bot().Edit(placeholder, MsgTranscribeFailed)
		return editErr
	}

	if err := c.Bot().Delete(placeholder); err != nil {
		f.log.Warn("failed to delete placeholder", slog.Any("error", err))
	}

	switch current {
	case state.StateWaitingHelpAnswer:
		return f.ProcessHelpAnswer(c, text)
	case state.StateAnsweringPostQuestions:
		return f.ProcessPostAnswer(c, text)
	case state.StateAnsweringBlueQuestions:
		return f.ProcessBlueAnswer(c, text)
	default:
		return nil
	}
}

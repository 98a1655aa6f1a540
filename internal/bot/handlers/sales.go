package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	telebot "gopkg.in/telebot.v3"

	"github.com/pptbot/pptbot/internal/generation"
	"github.com/pptbot/pptbot/internal/repository"
	"github.com/pptbot/pptbot/internal/state"
)

// startSalesFlow delivers lesson 7 and offers the sales-post creation.
func (f *Funnel) startSalesFlow(c telebot.Context, userID int64) error {
	ctx := context.Background()

	if err := c.Send(MsgReadyForSales); err != nil {
		return err
	}

	f.sendVideo(c, 7)

	if err := f.transition(ctx, userID, state.StateLearn7Sent); err != nil {
		return err
	}

	markup := f.kb.Column(
		[2]string{BtnWriteSalesMyself, CallbackWriteSalesMyself},
		[2]string{BtnHelpWriteSales, CallbackHelpWriteSales},
	)

	return c.Send(MsgLearn7Options, markup)
}

// HandleWriteSalesMyself skips the sales-post help.
func (f *Funnel) HandleWriteSalesMyself(c telebot.Context) error {
	ctx := context.Background()
	userID := c.Sender().ID

	if err := f.transition(ctx, userID, state.StateWriteSalesMyself); err != nil {
		return err
	}

	if err := c.Edit(MsgWriteSalesMyself); err != nil {
		f.log.Warn("failed to edit message", slog.Any("error", err))
	}

	return f.showFinalStep(c, userID)
}

// HandleHelpWriteSales starts the three-question sales cycle.
func (f *Funnel) HandleHelpWriteSales(c telebot.Context) error {
	ctx := context.Background()
	userID := c.Sender().ID

	if err := f.transition(ctx, userID, state.StateCreatingSalesPost); err != nil {
		return err
	}

	return f.askSalesQuestion(c, userID, 1)
}

func (f *Funnel) askSalesQuestion(c telebot.Context, userID int64, questionNum int) error {
	var question string
	switch questionNum {
	case 1:
		question = MsgSalesQuestion1
	case 2:
		question = MsgSalesQuestion2
	case 3:
		question = MsgSalesQuestion3
	default:
		return nil
	}

	f.setState(context.Background(), userID, state.StateAnsweringSalesQuestions)

	return c.Send(question)
}

// ProcessSalesAnswer stores a sales answer; the third one triggers generation.
func (f *Funnel) ProcessSalesAnswer(c telebot.Context, answer string) error {
	ctx := context.Background()
	userID := c.Sender().ID

	user, err := f.users.FindByTelegramID(ctx, userID)
	if err != nil {
		return err
	}

	switch {
	case !user.Prodaj1.Valid || user.Prodaj1.String == "":
		if err := f.users.SaveSalesAnswer(ctx, userID, 1, answer); err != nil {
			return err
		}
		return f.askSalesQuestion(c, userID, 2)
	case !user.Prodaj2.Valid || user.Prodaj2.String == "":
		if err := f.users.SaveSalesAnswer(ctx, userID, 2, answer); err != nil {
			return err
		}
		return f.askSalesQuestion(c, userID, 3)
	default:
		if err := f.users.SaveSalesAnswer(ctx, userID, 3, answer); err != nil {
			return err
		}
		return f.generateSalesPost(c, userID)
	}
}

func (f *Funnel) generateSalesPost(c telebot.Context, userID int64) error {
	ctx := context.Background()

	if err := f.transition(ctx, userID, state.StateProcessingSalesPost); err != nil {
		return err
	}

	placeholder, err := c.Bot().Send(c.Recipient(), MsgProcessingSales)
	if err != nil {
		return err
	}

	user, err := f.users.FindByTelegramID(ctx, userID)
	if err != nil {
		return err
	}

	prompt, err := f.prompts.GetPrompt(ctx, repository.PromptProdaj)
	if err != nil {
		f.log.Warn("sales prompt missing", slog.Any("error", err))
	}
	prompt = strings.ReplaceAll(prompt, "prodaj1", user.Prodaj1.String)
	prompt = strings.ReplaceAll(prompt, "prodaj2", user.Prodaj2.String)
	prompt = strings.ReplaceAll(prompt, "prodaj3", user.Prodaj3.String)

	answerLog := fmt.Sprintf("prodaj1: %s, prodaj2: %s, prodaj3: %s",
		user.Prodaj1.String, user.Prodaj2.String, user.Prodaj3.String)

	response, ok := f.generate(ctx, userID, prompt, answerLog, generation.KindProdaj)
	if !ok {
		return f.restartSalesQuestions(c, userID, placeholder)
	}

	if err := f.users.SaveSalesText(ctx, userID, response); err != nil {
		return err
	}
	if err := f.transition(ctx, userID, state.StateSalesPostReady); err != nil {
		return err
	}

	// After the single allowed rewrite only the forward button remains.
	if user.RewriteCount > 0 {
		markup := f.kb.Single(BtnToFinalStep, CallbackToFinalStep)
		_, err := c.Bot().Edit(placeholder, salesRewrittenMessage(response), markup)
		return err
	}

	markup := f.kb.Column(
		[2]string{BtnRewriteSales, CallbackRewriteSales},
		[2]string{BtnToFinalStep, CallbackToFinalStep},
	)
	_, err = c.Bot().Edit(placeholder, salesReadyMessage(response), markup)
	return err
}

func (f *Funnel) restartSalesQuestions(c telebot.Context, userID int64, placeholder *telebot.Message) error {
	ctx := context.Background()

	for q := 1; q <= state.SalesQuestions; q++ {
		if err := f.users.SaveSalesAnswer(ctx, userID, q, ""); err != nil {
			return err
		}
	}

	if placeholder != nil {
		if _, err := c.Bot().Edit(placeholder, MsgSalesError); err != nil {
			f.log.Warn("failed to edit placeholder", slog.Any("error", err))
		}
	}

	return f.askSalesQuestion(c, userID, 1)
}

// HandleRewriteSales grants the single rewrite pass.
func (f *Funnel) HandleRewriteSales(c telebot.Context) error {
	ctx := context.Background()
	userID := c.Sender().ID

	user, err := f.users.FindByTelegramID(ctx, userID)
	if err != nil {
		return err
	}

	// The rewrite is one-shot; stale button clicks move forward instead.
	if user.RewriteCount >= 1 {
		return f.HandleToFinalStep(c)
	}

	if _, err := f.users.IncrementSalesRewrites(ctx, userID); err != nil {
		return err
	}

	if err := f.transition(ctx, userID, state.StateRewritingSalesPost); err != nil {
		return err
	}

	for q := 1; q <= state.SalesQuestions; q++ {
		if err := f.users.SaveSalesAnswer(ctx, userID, q, ""); err != nil {
			return err
		}
	}

	if err := c.Edit(MsgRewriteSales); err != nil {
		f.log.Warn("failed to edit message", slog.Any("error", err))
	}

	return f.askSalesQuestion(c, userID, 1)
}

// HandleToFinalStep closes the sales stage.
func (f *Funnel) HandleToFinalStep(c telebot.Context) error {
	userID := c.Sender().ID

	if err := c.Edit(MsgToFinalStep); err != nil {
		f.log.Warn("failed to edit message", slog.Any("error", err))
	}

	return f.showFinalStep(c, userID)
}

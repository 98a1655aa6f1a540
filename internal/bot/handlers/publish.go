package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	telebot "gopkg.in/telebot.v3"

	"github.com/pptbot/pptbot/internal/domain"
	"github.com/pptbot/pptbot/internal/generation"
	"github.com/pptbot/pptbot/internal/repository"
	"github.com/pptbot/pptbot/internal/state"
)

// startPublishIntro delivers lesson 5 and offers to help publish the intro
// post with a button.
func (f *Funnel) startPublishIntro(c telebot.Context, userID int64) error {
	ctx := context.Background()

	if err := c.Send(MsgPublishIntro); err != nil {
		return err
	}

	f.sendVideo(c, 5)

	if err := f.transition(ctx, userID, state.StateLearn5Sent); err != nil {
		return err
	}

	markup := f.kb.Column(
		[2]string{BtnPublishMyself, CallbackPublishMyself},
		[2]string{BtnHelpPublish, CallbackHelpPublish},
	)

	return c.Send(MsgLearn5Options, markup)
}

// HandlePublishMyself skips assisted publishing.
func (f *Funnel) HandlePublishMyself(c telebot.Context) error {
	ctx := context.Background()
	userID := c.Sender().ID

	if err := f.transition(ctx, userID, state.StatePublishMyself); err != nil {
		return err
	}

	if err := c.Edit(MsgPublishMyself); err != nil {
		f.log.Warn("failed to edit message", slog.Any("error", err))
	}

	return f.startAnonsFlow(c, userID)
}

// HandleHelpPublish asks for the user's channel link.
func (f *Funnel) HandleHelpPublish(c telebot.Context) error {
	ctx := context.Background()
	userID := c.Sender().ID

	if err := f.transition(ctx, userID, state.StateHelpPublish); err != nil {
		return err
	}
	if err := f.transition(ctx, userID, state.StateWaitingChannelLink); err != nil {
		return err
	}

	return c.Edit(MsgRequestChannelLink)
}

// ProcessChannelLink verifies that the pasted link points to a channel.
func (f *Funnel) ProcessChannelLink(c telebot.Context, link string) error {
	ctx := context.Background()
	userID := c.Sender().ID

	chat, err := f.channels.Resolve(ctx, link)
	if err != nil {
		return c.Send(MsgNotAChannel)
	}

	if err := f.users.SaveChannel(ctx, userID, chat.Username, chat.ID); err != nil {
		return err
	}

	if err := f.transition(ctx, userID, state.StateWaitingBotAdmin); err != nil {
		return err
	}

	markup := f.kb.Single(BtnBotAdded, CallbackBotAdded)
	return c.Send(MsgAddBotAdmin, markup)
}

// HandleBotAdded checks the bot's posting rights in the saved channel.
func (f *Funnel) HandleBotAdded(c telebot.Context) error {
	ctx := context.Background()
	userID := c.Sender().ID

	user, err := f.users.FindByTelegramID(ctx, userID)
	if err != nil {
		return err
	}
	if !user.ChannelID.Valid {
		return c.Edit(MsgNotAChannel)
	}

	chat := &telebot.Chat{ID: user.ChannelID.Int64}
	isAdmin, err := f.channels.HasPostingRights(ctx, chat)
	if err != nil {
		return err
	}

	if !isAdmin {
		if err := f.transition(ctx, userID, state.StateWaitingChannelLink); err != nil {
			return err
		}
		return c.Edit(MsgBotNotAdmin)
	}

	if err := f.transition(ctx, userID, state.StateAnsweringBlueQuestions); err != nil {
		return err
	}

	if err := c.Edit(MsgBotAdminOK); err != nil {
		f.log.Warn("failed to edit message", slog.Any("error", err))
	}

	return f.askBlueQuestion(c, 1)
}

func (f *Funnel) askBlueQuestion(c telebot.Context, questionNum int) error {
	if questionNum < 1 || questionNum > state.BlueButtonQuestions {
		return nil
	}
	return c.Send(blueQuestions[questionNum-1])
}

// ProcessBlueAnswer stores one of the five intro-post answers.
func (f *Funnel) ProcessBlueAnswer(c telebot.Context, answer string) error {
	ctx := context.Background()
	userID := c.Sender().ID

	user, err := f.users.FindByTelegramID(ctx, userID)
	if err != nil {
		return err
	}

	answers := user.BlueAnswers
	if answers == nil {
		answers = make(map[string]string)
	}
	questionNum := len(answers) + 1
	answers[fmt.Sprintf("blueotvet%d", questionNum)] = answer

	if err := f.users.SaveBlueAnswers(ctx, userID, answers); err != nil {
		return err
	}

	if questionNum >= state.BlueButtonQuestions {
		if err := f.transition(ctx, userID, state.StateRequestingBestLinks); err != nil {
			return err
		}
		return f.requestBestLink(c, 1)
	}

	return f.askBlueQuestion(c, questionNum+1)
}

func (f *Funnel) requestBestLink(c telebot.Context, linkNum int) error {
	if linkNum == 1 {
		if err := c.Send(bestLinksIntroMessage()); err != nil {
			return err
		}
	}

	markup := f.kb.Single(BtnSkipLink, CallbackSkipLink)
	return c.Send(bestLinkPrompt(linkNum), markup)
}

// ProcessBestLink stores one best-post link (empty for a skip).
func (f *Funnel) ProcessBestLink(c telebot.Context, link string) error {
	ctx := context.Background()
	userID := c.Sender().ID

	user, err := f.users.FindByTelegramID(ctx, userID)
	if err != nil {
		return err
	}

	links := user.BestLinks
	if links == nil {
		links = make(map[string]string)
	}
	linkNum := len(links) + 1
	links[fmt.Sprintf("link%d", linkNum)] = link

	if err := f.users.SaveBestLinks(ctx, userID, links); err != nil {
		return err
	}

	if linkNum >= state.BestLinksCount {
		return f.generateBluePost(c, userID)
	}

	return f.requestBestLink(c, linkNum+1)
}

// HandleSkipLink records an empty link slot.
func (f *Funnel) HandleSkipLink(c telebot.Context) error {
	return f.ProcessBestLink(c, "")
}

// generateBluePost runs the intro-post generation cycle from the collected
// answers and links.
func (f *Funnel) generateBluePost(c telebot.Context, userID int64) error {
	ctx := context.Background()

	if err := f.transition(ctx, userID, state.StateProcessingBluePost); err != nil {
		return err
	}

	placeholder, err := c.Bot().Send(c.Recipient(), MsgProcessingBluePost)
	if err != nil {
		return err
	}

	user, err := f.users.FindByTelegramID(ctx, userID)
	if err != nil {
		return err
	}

	prompt, err := f.prompts.GetPrompt(ctx, repository.PromptBlue)
	if err != nil {
		f.log.Warn("blue post prompt missing", slog.Any("error", err))
	}
	for i := 1; i <= state.BlueButtonQuestions; i++ {
		prompt = strings.ReplaceAll(prompt, fmt.Sprintf("blueotvet%d", i), user.BlueAnswers[fmt.Sprintf("blueotvet%d", i)])
	}
	for i := 1; i <= state.BestLinksCount; i++ {
		prompt = strings.ReplaceAll(prompt, fmt.Sprintf("link%d", i), user.BestLinks[fmt.Sprintf("link%d", i)])
	}

	response, ok := f.generate(ctx, userID, prompt, fmt.Sprint(user.BlueAnswers), generation.KindBluebutt)
	if !ok {
		return f.restartBlueQuestions(c, userID, placeholder, MsgBluePostError)
	}

	if err := f.users.SaveBluePostText(ctx, userID, response); err != nil {
		return err
	}
	if err := f.transition(ctx, userID, state.StateChoosingButtonAction); err != nil {
		return err
	}

	if _, err := c.Bot().Edit(placeholder, bluePostReadyMessage(response)); err != nil {
		f.log.Warn("failed to edit placeholder", slog.Any("error", err))
	}

	markup := f.kb.Column(
		[2]string{BtnButtonToDM, CallbackButtonToDM},
		[2]string{BtnButtonToWebsite, CallbackButtonToWebsite},
	)

	return c.Send(MsgChooseButtonAction, markup)
}

// restartBlueQuestions discards the collected answers and links and asks the
// five questions again.
func (f *Funnel) restartBlueQuestions(c telebot.Context, userID int64, placeholder *telebot.Message, errMsg string) error {
	ctx := context.Background()

	if err := f.users.SaveBlueAnswers(ctx, userID, map[string]string{}); err != nil {
		return err
	}
	if err := f.users.SaveBestLinks(ctx, userID, map[string]string{}); err != nil {
		return err
	}

	f.setState(ctx, userID, state.StateAnsweringBlueQuestions)

	if placeholder != nil {
		if _, err := c.Bot().Edit(placeholder, errMsg); err != nil {
			f.log.Warn("failed to edit placeholder", slog.Any("error", err))
		}
	} else if errMsg != "" {
		if err := c.Send(errMsg); err != nil {
			return err
		}
	}

	return f.askBlueQuestion(c, 1)
}

// HandleButtonToDM points the post button at the user's direct messages.
func (f *Funnel) HandleButtonToDM(c telebot.Context) error {
	ctx := context.Background()
	userID := c.Sender().ID

	username := c.Sender().Username
	if username == "" {
		return c.Edit(MsgNoUsername)
	}

	url := "https://t.me/" + username
	if err := f.users.SaveButtonSpec(ctx, userID, domain.ButtonActionDM, url, ""); err != nil {
		return err
	}

	if err := f.transition(ctx, userID, state.StateChoosingButtonText); err != nil {
		return err
	}

	if err := c.Edit(MsgButtonToDM); err != nil {
		f.log.Warn("failed to edit message", slog.Any("error", err))
	}

	return f.showButtonTextChoice(c)
}

// HandleButtonToWebsite asks for the destination URL.
func (f *Funnel) HandleButtonToWebsite(c telebot.Context) error {
	ctx := context.Background()
	userID := c.Sender().ID

	if err := f.transition(ctx, userID, state.StateWaitingWebsiteLink); err != nil {
		return err
	}

	return c.Edit(MsgRequestWebsiteLink)
}

// ProcessWebsiteLink stores the website URL for the post button.
func (f *Funnel) ProcessWebsiteLink(c telebot.Context, link string) error {
	ctx := context.Background()
	userID := c.Sender().ID

	if err := f.users.SaveButtonSpec(ctx, userID, domain.ButtonActionWebsite, link, ""); err != nil {
		return err
	}

	if err := f.transition(ctx, userID, state.StateChoosingButtonText); err != nil {
		return err
	}

	if err := c.Send(MsgWebsiteLinkSaved); err != nil {
		return err
	}

	return f.showButtonTextChoice(c)
}

func (f *Funnel) showButtonTextChoice(c telebot.Context) error {
	markup := f.kb.Column(
		[2]string{buttonTextChoices["button_text_zhm"], "button_text_zhm"},
		[2]string{buttonTextChoices["button_text_napisat"], "button_text_napisat"},
		[2]string{buttonTextChoices["button_text_zapis"], "button_text_zapis"},
		[2]string{buttonTextChoices["button_text_skidka"], "button_text_skidka"},
		[2]string{buttonTextChoices["button_text_help"], "button_text_help"},
		[2]string{"Свой вариант", CallbackButtonTextCustom},
	)

	return c.Send(MsgChooseButtonText, markup)
}

// HandleButtonTextChoice applies a preset label or asks for a custom one.
func (f *Funnel) HandleButtonTextChoice(c telebot.Context) error {
	ctx := context.Background()
	userID := c.Sender().ID
	data := strings.TrimPrefix(c.Callback().Data, "\f")

	if data == CallbackButtonTextCustom {
		if err := f.transition(ctx, userID, state.StateWaitingCustomButton); err != nil {
			return err
		}
		return c.Edit(MsgRequestCustomButtonText)
	}

	text, ok := buttonTextChoices[data]
	if !ok {
		text = buttonTextChoices["button_text_zhm"]
	}

	if err := f.users.SaveButtonSpec(ctx, userID, "", "", text); err != nil {
		return err
	}

	return f.showPreview(c, userID)
}

// ProcessCustomButtonText stores the user's own button label.
func (f *Funnel) ProcessCustomButtonText(c telebot.Context, text string) error {
	ctx := context.Background()
	userID := c.Sender().ID

	if err := f.users.SaveButtonSpec(ctx, userID, "", "", text); err != nil {
		return err
	}

	if err := c.Send(MsgButtonTextSaved); err != nil {
		return err
	}

	return f.showPreview(c, userID)
}

// showPreview renders the post exactly as it will appear in the channel and
// asks for confirmation.
func (f *Funnel) showPreview(c telebot.Context, userID int64) error {
	ctx := context.Background()

	if err := f.transition(ctx, userID, state.StatePreviewPost); err != nil {
		return err
	}

	user, err := f.users.FindByTelegramID(ctx, userID)
	if err != nil {
		return err
	}

	postText := user.BluePostText.String
	buttonText := user.ButtonText.String
	if buttonText == "" {
		buttonText = "КНОПКА"
	}
	buttonURL := user.ButtonURL.String
	if buttonURL == "" {
		buttonURL = "https://t.me/"
	}

	if err := c.Send(previewMessage(postText), f.kb.URLButton(buttonText, buttonURL)); err != nil {
		return err
	}

	markup := f.kb.Column(
		[2]string{BtnPostOK, CallbackPostOK},
		[2]string{BtnPostNo, CallbackPostNo},
	)

	return c.Send(MsgPreviewConfirm, markup)
}

// HandlePostConfirm publishes the post or restarts the question cycle.
func (f *Funnel) HandlePostConfirm(c telebot.Context, confirmed bool) error {
	ctx := context.Background()
	userID := c.Sender().ID

	if !confirmed {
		if err := c.Edit(MsgPreviewRestart); err != nil {
			f.log.Warn("failed to edit message", slog.Any("error", err))
		}
		return f.restartBlueQuestions(c, userID, nil, "")
	}

	if err := c.Edit(MsgPublishing); err != nil {
		f.log.Warn("failed to edit message", slog.Any("error", err))
	}

	user, err := f.users.FindByTelegramID(ctx, userID)
	if err != nil {
		return err
	}
	if !user.ChannelID.Valid {
		return c.Send(MsgPublishError)
	}

	chat := &telebot.Chat{ID: user.ChannelID.Int64}
	err = f.channels.PublishPinned(ctx, chat, user.BluePostText.String, user.ButtonText.String, user.ButtonURL.String)
	if err != nil {
		return c.Send(MsgPublishError)
	}

	if err := f.transition(ctx, userID, state.StatePostPublished); err != nil {
		return err
	}

	if err := c.Send(MsgPostPublished); err != nil {
		return err
	}

	return f.startAnonsFlow(c, userID)
}

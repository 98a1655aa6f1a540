package bot

import (
	"fmt"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/pptbot/pptbot/internal/bot/handlers"
	errors "github.com/pptbot/pptbot/internal/errors"
	"github.com/pptbot/pptbot/internal/idempotency"
	"github.com/pptbot/pptbot/internal/middleware"
	"github.com/pptbot/pptbot/internal/state"
	"github.com/pptbot/pptbot/pkg/config"
)

// Bot wraps telebot.Bot with the funnel handler set and the routing layer.
type Bot struct {
	telebot            *telebot.Bot
	log                *slog.Logger
	cfg                config.Config
	fsm                state.StateMachine
	funnel             *handlers.Funnel
	rateLimitMw        *middleware.RateLimitMiddleware
	router             *Router
	dispatcher         *Dispatcher
	errHandler         *errors.Handler
	idempotencyManager idempotency.Manager
}

// NewTelebot builds the raw telebot instance. It is separate from New so the
// components that talk to Telegram directly (channel checks, the reminder
// notifier) can share the same session.
func NewTelebot(cfg config.Config) (*telebot.Bot, error) {
	settings := telebot.Settings{
		Token: cfg.Bot.Token,
		Poller: &telebot.LongPoller{
			Timeout: cfg.Bot.PollTimeout,
		},
	}

	tb, err := telebot.NewBot(settings)
	if err != nil {
		return nil, fmt.Errorf("initialize telebot: %w", err)
	}

	return tb, nil
}

// New assembles the routing layer on top of an initialized telebot instance.
func New(
	cfg config.Config,
	log *slog.Logger,
	tb *telebot.Bot,
	fsm state.StateMachine,
	funnel *handlers.Funnel,
	idempotencyManager idempotency.Manager,
	rateLimitMw *middleware.RateLimitMiddleware,
) (*Bot, error) {
	dispatcher := NewDispatcher(fsm, log)
	router := NewRouter(dispatcher, log)
	errHandler := errors.NewHandler(log, cfg.Sentry.Enabled)

	b := &Bot{
		telebot:            tb,
		log:                log,
		cfg:                cfg,
		fsm:                fsm,
		funnel:             funnel,
		rateLimitMw:        rateLimitMw,
		router:             router,
		dispatcher:         dispatcher,
		errHandler:         errHandler,
		idempotencyManager: idempotencyManager,
	}

	b.setupRouter()

	if b.rateLimitMw != nil {
		b.telebot.Use(b.rateLimitMw.Handle)
	}

	b.registerTelebotHandlers()

	return b, nil
}

// Start runs the telegram bot event loop.
func (b *Bot) Start() {
	if b.telebot != nil {
		b.telebot.Start()
	}
}

// Stop gracefully stops the telegram bot.
func (b *Bot) Stop() {
	if b.telebot == nil {
		return
	}

	if b.log != nil {
		b.log.Info("stopping telegram bot...")
	}

	b.telebot.Stop()
}

// Telebot exposes the underlying telebot.Bot instance for integrations such as
// health checks and the reminder notifier.
func (b *Bot) Telebot() *telebot.Bot {
	return b.telebot
}

func (b *Bot) setupRouter() {
	if b.router == nil || b.funnel == nil {
		return
	}

	b.router.Use(RecoveryMiddleware(b.log, b.errHandler))
	b.router.Use(middleware.Idempotency(b.idempotencyManager, b.log))
	b.router.Use(ErrorHandlingMiddleware(b.errHandler))
	b.router.Use(LoggingMiddleware(b.log))
	b.router.Use(middleware.Metrics)

	f := b.funnel

	b.router.RegisterCommand(CommandStart, f.HandleStart)

	b.registerCallbacks(f)
	b.registerStateHandlers(f)

	b.router.SetVoiceHandler(f.HandleVoice)
}

func (b *Bot) registerCallbacks(f *handlers.Funnel) {
	callbacks := map[string]handlers.CallbackHandler{
		handlers.CallbackVideoWatched:      f.HandleVideoWatched,
		handlers.CallbackNeedCreateChannel: f.HandleNeedCreateChannel,
		handlers.CallbackChannelCreated:    f.HandleChannelCreated,
		handlers.CallbackNeedHelp:          f.HandleNeedHelp,
		handlers.CallbackContinueLearning:  f.HandleContinueLearning,
		handlers.CallbackWritePosts:        f.HandleWritePosts,
		handlers.CallbackWriteMyself:       f.HandleWriteMyself,
		handlers.CallbackRewritePost:       f.HandleRewritePost,
		handlers.CallbackNextPost:          f.HandleNextPost,
		handlers.CallbackPublishMyself:     f.HandlePublishMyself,
		handlers.CallbackHelpPublish:       f.HandleHelpPublish,
		handlers.CallbackBotAdded:          f.HandleBotAdded,
		handlers.CallbackSkipLink:          f.HandleSkipLink,
		handlers.CallbackButtonToDM:        f.HandleButtonToDM,
		handlers.CallbackButtonToWebsite:   f.HandleButtonToWebsite,
		handlers.CallbackButtonTextPrefix:  f.HandleButtonTextChoice,
		handlers.CallbackWriteAnonsMyself:  f.HandleWriteAnonsMyself,
		handlers.CallbackHelpWriteAnons:    f.HandleHelpWriteAnons,
		handlers.CallbackWriteSalesMyself:  f.HandleWriteSalesMyself,
		handlers.CallbackHelpWriteSales:    f.HandleHelpWriteSales,
		handlers.CallbackRewriteSales:      f.HandleRewriteSales,
		handlers.CallbackToFinalStep:       f.HandleToFinalStep,
	}

	for data, handler := range callbacks {
		b.router.RegisterCallback(data, handler)
	}

	b.router.RegisterCallback(handlers.CallbackPostOK, func(c telebot.Context) error {
		return f.HandlePostConfirm(c, true)
	})
	b.router.RegisterCallback(handlers.CallbackPostNo, func(c telebot.Context) error {
		return f.HandlePostConfirm(c, false)
	})
}

func (b *Bot) registerStateHandlers(f *handlers.Funnel) {
	textOf := func(fn func(telebot.Context, string) error) handlers.Handler {
		return func(c telebot.Context) error {
			return fn(c, c.Text())
		}
	}

	b.dispatcher.RegisterStateHandler(state.StateNew, f.HandleEmail)
	b.dispatcher.RegisterStateHandler(state.StateWaitingEmail, f.HandleEmail)
	b.dispatcher.RegisterStateHandler(state.StateWaitingHelpAnswer, textOf(f.ProcessHelpAnswer))
	b.dispatcher.RegisterStateHandler(state.StateAnsweringPostQuestions, textOf(f.ProcessPostAnswer))
	b.dispatcher.RegisterStateHandler(state.StateWaitingChannelLink, textOf(f.ProcessChannelLink))
	b.dispatcher.RegisterStateHandler(state.StateAnsweringBlueQuestions, textOf(f.ProcessBlueAnswer))
	b.dispatcher.RegisterStateHandler(state.StateRequestingBestLinks, textOf(f.ProcessBestLink))
	b.dispatcher.RegisterStateHandler(state.StateWaitingWebsiteLink, textOf(f.ProcessWebsiteLink))
	b.dispatcher.RegisterStateHandler(state.StateWaitingCustomButton, textOf(f.ProcessCustomButtonText))
	b.dispatcher.RegisterStateHandler(state.StateAnsweringAnonsQuestions, textOf(f.ProcessAnonsAnswer))
	b.dispatcher.RegisterStateHandler(state.StateAnsweringSalesQuestions, textOf(f.ProcessSalesAnswer))
}

func (b *Bot) registerTelebotHandlers() {
	if b.telebot == nil || b.router == nil {
		return
	}

	b.telebot.Handle(telebot.OnText, b.router.Route)
	b.telebot.Handle(telebot.OnCallback, b.router.Route)
	b.telebot.Handle(telebot.OnVoice, b.router.Route)
}

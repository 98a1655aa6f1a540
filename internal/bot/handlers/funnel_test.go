package handlers

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	telebot "gopkg.in/telebot.v3"

	"github.com/pptbot/pptbot/internal/channel"
	"github.com/pptbot/pptbot/internal/domain"
	"github.com/pptbot/pptbot/internal/generation"
	"github.com/pptbot/pptbot/internal/repository"
	"github.com/pptbot/pptbot/internal/state"
	"github.com/pptbot/pptbot/pkg/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeContext implements the handful of telebot.Context methods the stage
// handlers touch; anything else panics via the embedded nil interface.
type fakeContext struct {
	telebot.Context

	sender *telebot.User
	text   string
	bot    *telebot.Bot

	sent   []interface{}
	edited []interface{}
}

func (c *fakeContext) Sender() *telebot.User        { return c.sender }
func (c *fakeContext) Text() string                 { return c.text }
func (c *fakeContext) Bot() *telebot.Bot            { return c.bot }
func (c *fakeContext) Recipient() telebot.Recipient { return c.sender }

func (c *fakeContext) Send(what interface{}, _ ...interface{}) error {
	c.sent = append(c.sent, what)
	return nil
}

func (c *fakeContext) Edit(what interface{}, _ ...interface{}) error {
	c.edited = append(c.edited, what)
	return nil
}

func (c *fakeContext) sentTexts() []string {
	var out []string
	for _, v := range c.sent {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func newContext(userID int64, text string) *fakeContext {
	return &fakeContext{
		sender: &telebot.User{ID: userID},
		text:   text,
	}
}

// newTestBot backs c.Bot() with a local Bot API stub so the handlers'
// placeholder sends and edits work without the network.
func newTestBot(t *testing.T) *telebot.Bot {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"ok":true,"result":{"message_id":1,"chat":{"id":1,"type":"private"}}}`)
	}))
	t.Cleanup(srv.Close)

	bot, err := telebot.NewBot(telebot.Settings{Token: "test", URL: srv.URL, Offline: true})
	if err != nil {
		t.Fatalf("offline bot: %v", err)
	}
	return bot
}

func newBotContext(t *testing.T, userID int64, text string) *fakeContext {
	t.Helper()

	c := newContext(userID, text)
	c.bot = newTestBot(t)
	return c
}

// fakeStorage is an in-memory state.Storage.
type fakeStorage struct {
	states map[int64]state.State
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{states: make(map[int64]state.State)}
}

func (s *fakeStorage) GetState(_ context.Context, userID int64) (*state.UserState, error) {
	st, ok := s.states[userID]
	if !ok {
		return nil, state.ErrStateNotFound
	}
	return &state.UserState{UserID: userID, CurrentState: st}, nil
}

func (s *fakeStorage) SetState(_ context.Context, userID int64, st *state.UserState) error {
	s.states[userID] = st.CurrentState
	return nil
}

func (s *fakeStorage) ClearState(_ context.Context, userID int64) error {
	delete(s.states, userID)
	return nil
}

// fakeUsers is an in-memory repository.UserRepository over a single user row.
type fakeUsers struct {
	user *domain.User

	boundEmail   string
	videoSent    bool
	savedChannel string
	salesAnswers map[int]string
}

func newFakeUsers(user *domain.User) *fakeUsers {
	return &fakeUsers{user: user, salesAnswers: make(map[int]string)}
}

func (r *fakeUsers) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	if r.user == nil || r.user.Email != email {
		return nil, repository.ErrUserNotFound
	}
	return r.user, nil
}

func (r *fakeUsers) FindByTelegramID(_ context.Context, telegramID int64) (*domain.User, error) {
	if r.user == nil || !r.user.TelegramID.Valid || r.user.TelegramID.Int64 != telegramID {
		return nil, repository.ErrUserNotFound
	}
	return r.user, nil
}

func (r *fakeUsers) BindTelegramID(_ context.Context, email string, telegramID int64) error {
	r.boundEmail = email
	r.user.TelegramID = sql.NullInt64{Int64: telegramID, Valid: true}
	return nil
}

func (r *fakeUsers) GetState(_ context.Context, _ int64) (string, error) { return r.user.State, nil }

func (r *fakeUsers) UpdateState(_ context.Context, _ int64, s string) error {
	r.user.State = s
	return nil
}

func (r *fakeUsers) MarkVideoSent(_ context.Context, _ int64) error {
	r.videoSent = true
	return nil
}

func (r *fakeUsers) GetPostProgress(_ context.Context, _ int64) (*domain.PostProgress, error) {
	return &domain.PostProgress{
		PostNumber:     r.user.CurrentPostNumber,
		QuestionNumber: r.user.CurrentQuestionNumber,
		Attempt:        r.user.PostAttempt,
		Answers:        r.user.PostAnswers,
	}, nil
}

func (r *fakeUsers) SavePostProgress(_ context.Context, _ int64, p domain.PostProgress) error {
	r.user.CurrentPostNumber = p.PostNumber
	r.user.CurrentQuestionNumber = p.QuestionNumber
	r.user.PostAttempt = p.Attempt
	r.user.PostAnswers = p.Answers
	return nil
}

func (r *fakeUsers) SaveChannel(_ context.Context, _ int64, username string, channelID int64) error {
	r.savedChannel = username
	r.user.ChannelUsername = sql.NullString{String: username, Valid: true}
	r.user.ChannelID = sql.NullInt64{Int64: channelID, Valid: true}
	return nil
}

func (r *fakeUsers) SaveBlueAnswers(_ context.Context, _ int64, answers map[string]string) error {
	r.user.BlueAnswers = answers
	return nil
}

func (r *fakeUsers) SaveBestLinks(_ context.Context, _ int64, links map[string]string) error {
	r.user.BestLinks = links
	return nil
}

func (r *fakeUsers) SaveButtonSpec(_ context.Context, _ int64, action, url, text string) error {
	r.user.ButtonAction = sql.NullString{String: action, Valid: true}
	r.user.ButtonURL = sql.NullString{String: url, Valid: true}
	r.user.ButtonText = sql.NullString{String: text, Valid: true}
	return nil
}

func (r *fakeUsers) SaveBluePostText(_ context.Context, _ int64, postText string) error {
	r.user.BluePostText = sql.NullString{String: postText, Valid: true}
	return nil
}

func (r *fakeUsers) SaveAnonsAnswer(_ context.Context, _ int64, question int, answer string) error {
	v := sql.NullString{String: answer, Valid: answer != ""}
	if question == 1 {
		r.user.Anons1 = v
	} else {
		r.user.Anons2 = v
	}
	return nil
}

func (r *fakeUsers) SaveAnonsText(_ context.Context, _ int64, text string) error {
	r.user.AnonsText = sql.NullString{String: text, Valid: true}
	return nil
}

func (r *fakeUsers) SaveSalesAnswer(_ context.Context, _ int64, question int, answer string) error {
	r.salesAnswers[question] = answer
	v := sql.NullString{String: answer, Valid: answer != ""}
	switch question {
	case 1:
		r.user.Prodaj1 = v
	case 2:
		r.user.Prodaj2 = v
	case 3:
		r.user.Prodaj3 = v
	}
	return nil
}

func (r *fakeUsers) SaveSalesText(_ context.Context, _ int64, text string) error {
	r.user.SalesText = sql.NullString{String: text, Valid: true}
	return nil
}

func (r *fakeUsers) IncrementSalesRewrites(_ context.Context, _ int64) (int, error) {
	r.user.RewriteCount++
	return r.user.RewriteCount, nil
}

type fakePrompts struct {
	prompt string
}

func (p *fakePrompts) GetPrompt(_ context.Context, _ string) (string, error) {
	return p.prompt, nil
}

func (p *fakePrompts) GetPostTemplate(_ context.Context, n int) (*domain.PostTemplate, error) {
	return &domain.PostTemplate{
		PostNumber: n,
		Topic:      "topic",
		Questions:  [3]string{"q1", "q2", "q3"},
		Prompt:     p.prompt,
	}, nil
}

type fakeRequests struct {
	created  []string
	statuses map[string]string
}

func newFakeRequests() *fakeRequests {
	return &fakeRequests{statuses: make(map[string]string)}
}

func (r *fakeRequests) Create(_ context.Context, _ int64, requestID, _ string) error {
	r.created = append(r.created, requestID)
	return nil
}

func (r *fakeRequests) SetStatus(_ context.Context, requestID, status string) error {
	r.statuses[requestID] = status
	return nil
}

type fakeGenerator struct {
	response string
	err      error

	lastPrompt string
	lastKind   generation.Kind
}

func (g *fakeGenerator) Generate(_ context.Context, _ int64, text, _ string, kind generation.Kind) (string, error) {
	g.lastPrompt = text
	g.lastKind = kind
	return g.response, g.err
}

type fakeReminders struct {
	scheduled []int64
	cancelled []int64
}

func (f *fakeReminders) ScheduleReminders(_ context.Context, telegramID int64) error {
	f.scheduled = append(f.scheduled, telegramID)
	return nil
}

func (f *fakeReminders) CancelReminders(_ context.Context, telegramID int64) error {
	f.cancelled = append(f.cancelled, telegramID)
	return nil
}

type fakeChannels struct {
	chat       *telebot.Chat
	resolveErr error
	isAdmin    bool

	published string
}

func (f *fakeChannels) Resolve(_ context.Context, _ string) (*telebot.Chat, error) {
	return f.chat, f.resolveErr
}

func (f *fakeChannels) HasPostingRights(_ context.Context, _ *telebot.Chat) (bool, error) {
	return f.isAdmin, nil
}

func (f *fakeChannels) PublishPinned(_ context.Context, _ *telebot.Chat, text, _, _ string) error {
	f.published = text
	return nil
}

type fakeTranscriber struct {
	text string
	err  error
}

func (f *fakeTranscriber) Transcribe(_ context.Context, _ io.Reader) (string, error) {
	return f.text, f.err
}

type funnelDeps struct {
	users     *fakeUsers
	storage   *fakeStorage
	generator *fakeGenerator
	reminders *fakeReminders
	channels  *fakeChannels
	requests  *fakeRequests
}

func newTestFunnel(t *testing.T, user *domain.User) (*Funnel, *funnelDeps) {
	t.Helper()

	deps := &funnelDeps{
		users:     newFakeUsers(user),
		storage:   newFakeStorage(),
		generator: &fakeGenerator{},
		reminders: &fakeReminders{},
		channels:  &fakeChannels{},
		requests:  newFakeRequests(),
	}

	fsm := state.NewStateMachine(deps.storage, testLogger(), nil)

	f := NewFunnel(
		deps.users,
		&fakePrompts{prompt: "prompt"},
		deps.requests,
		fsm,
		deps.generator,
		deps.reminders,
		&fakeTranscriber{},
		deps.channels,
		config.MediaConfig{},
		testLogger(),
	)
	f.sleep = func(time.Duration) {}

	return f, deps
}

var _ channel.Service = (*fakeChannels)(nil)
var _ repository.UserRepository = (*fakeUsers)(nil)
var _ state.Storage = (*fakeStorage)(nil)

func TestHandleStart_NewUserAsksForEmail(t *testing.T) {
	f, deps := newTestFunnel(t, &domain.User{Email: "lead@example.com"})
	c := newContext(42, "/start")

	assert.NoError(t, f.HandleStart(c))

	assert.Contains(t, c.sentTexts(), MsgStart)
	assert.Equal(t, state.StateWaitingEmail, deps.storage.states[42])
}

func TestHandleStart_VerifiedUserKeepsProgress(t *testing.T) {
	f, deps := newTestFunnel(t, &domain.User{Email: "lead@example.com"})
	deps.storage.states[42] = state.StateVideoSent
	c := newContext(42, "/start")

	assert.NoError(t, f.HandleStart(c))

	assert.Contains(t, c.sentTexts(), MsgAlreadyRegistered)
	assert.Equal(t, state.StateVideoSent, deps.storage.states[42])
}

func TestHandleEmail_InvalidFormatReprompts(t *testing.T) {
	f, deps := newTestFunnel(t, &domain.User{Email: "lead@example.com"})
	deps.storage.states[42] = state.StateWaitingEmail
	c := newContext(42, "not an email")

	assert.NoError(t, f.HandleEmail(c))

	assert.Equal(t, []string{MsgInvalidEmail}, c.sentTexts())
	assert.Equal(t, state.StateWaitingEmail, deps.storage.states[42])
	assert.Empty(t, deps.users.boundEmail)
}

func TestHandleEmail_UnknownEmailReprompts(t *testing.T) {
	f, deps := newTestFunnel(t, &domain.User{Email: "lead@example.com"})
	deps.storage.states[42] = state.StateWaitingEmail
	c := newContext(42, "other@example.com")

	assert.NoError(t, f.HandleEmail(c))

	assert.Equal(t, []string{MsgEmailNotFound}, c.sentTexts())
	assert.Empty(t, deps.users.boundEmail)
}

func TestHandleEmail_BindsAccountAndStartsVideoStage(t *testing.T) {
	f, deps := newTestFunnel(t, &domain.User{Email: "lead@example.com"})
	deps.storage.states[42] = state.StateWaitingEmail
	c := newContext(42, "Lead@Example.com")

	assert.NoError(t, f.HandleEmail(c))

	// Email is matched case-insensitively.
	assert.Equal(t, "lead@example.com", deps.users.boundEmail)
	assert.Contains(t, c.sentTexts(), MsgRegistered)
	assert.Contains(t, c.sentTexts(), MsgVideoSent)
	assert.Equal(t, state.StateVideoSent, deps.storage.states[42])
	assert.True(t, deps.users.videoSent)
	assert.Equal(t, []int64{42}, deps.reminders.scheduled)
}

func TestHandleVideoWatched_CancelsRemindersAndAsksAboutChannel(t *testing.T) {
	f, deps := newTestFunnel(t, &domain.User{Email: "lead@example.com"})
	deps.storage.states[42] = state.StateVideoSent
	c := newContext(42, "")

	assert.NoError(t, f.HandleVideoWatched(c))

	assert.Equal(t, []int64{42}, deps.reminders.cancelled)
	assert.Contains(t, c.edited, MsgVideoWatched)
	assert.Contains(t, c.sentTexts(), MsgChannelQuestion)
	assert.Equal(t, state.StateChannelQuestion, deps.storage.states[42])
}

func TestHandleVideoWatched_InvalidFromCompleted(t *testing.T) {
	f, deps := newTestFunnel(t, &domain.User{Email: "lead@example.com"})
	deps.storage.states[42] = state.StateCompleted
	c := newContext(42, "")

	err := f.HandleVideoWatched(c)

	assert.ErrorIs(t, err, state.ErrInvalidTransition)
	assert.Empty(t, deps.reminders.cancelled)
}

func TestProcessChannelLink_RejectsNonChannel(t *testing.T) {
	f, deps := newTestFunnel(t, &domain.User{Email: "lead@example.com"})
	deps.storage.states[42] = state.StateWaitingChannelLink
	deps.channels.resolveErr = channel.ErrBadLink
	c := newContext(42, "junk")

	assert.NoError(t, f.ProcessChannelLink(c, "junk"))

	assert.Equal(t, []string{MsgNotAChannel}, c.sentTexts())
	assert.Equal(t, state.StateWaitingChannelLink, deps.storage.states[42])
}

func TestProcessChannelLink_SavesChannelAndAsksForAdmin(t *testing.T) {
	f, deps := newTestFunnel(t, &domain.User{Email: "lead@example.com"})
	deps.storage.states[42] = state.StateWaitingChannelLink
	deps.channels.chat = &telebot.Chat{ID: -100500, Username: "mychannel", Type: telebot.ChatChannel}
	c := newContext(42, "t.me/mychannel")

	assert.NoError(t, f.ProcessChannelLink(c, "t.me/mychannel"))

	assert.Equal(t, "mychannel", deps.users.savedChannel)
	assert.Contains(t, c.sentTexts(), MsgAddBotAdmin)
	assert.Equal(t, state.StateWaitingBotAdmin, deps.storage.states[42])
}

func TestHandleBotAdded_NotAdminAsksAgain(t *testing.T) {
	user := &domain.User{
		Email:      "lead@example.com",
		TelegramID: sql.NullInt64{Int64: 42, Valid: true},
		ChannelID:  sql.NullInt64{Int64: -100500, Valid: true},
	}
	f, deps := newTestFunnel(t, user)
	deps.storage.states[42] = state.StateWaitingBotAdmin
	deps.channels.isAdmin = false
	c := newContext(42, "")

	assert.NoError(t, f.HandleBotAdded(c))

	assert.Contains(t, c.edited, MsgBotNotAdmin)
	assert.Equal(t, state.StateWaitingChannelLink, deps.storage.states[42])
}

func TestHandleBotAdded_AdminStartsBlueQuestions(t *testing.T) {
	user := &domain.User{
		Email:      "lead@example.com",
		TelegramID: sql.NullInt64{Int64: 42, Valid: true},
		ChannelID:  sql.NullInt64{Int64: -100500, Valid: true},
	}
	f, deps := newTestFunnel(t, user)
	deps.storage.states[42] = state.StateWaitingBotAdmin
	deps.channels.isAdmin = true
	c := newContext(42, "")

	assert.NoError(t, f.HandleBotAdded(c))

	assert.Contains(t, c.edited, MsgBotAdminOK)
	assert.Contains(t, c.sentTexts(), blueQuestions[0])
	assert.Equal(t, state.StateAnsweringBlueQuestions, deps.storage.states[42])
}

func TestProcessPostAnswer_AsksNextQuestion(t *testing.T) {
	user := &domain.User{
		Email:                 "lead@example.com",
		TelegramID:            sql.NullInt64{Int64: 42, Valid: true},
		CurrentPostNumber:     1,
		CurrentQuestionNumber: 1,
		PostAttempt:           1,
	}
	f, deps := newTestFunnel(t, user)
	deps.storage.states[42] = state.StateAnsweringPostQuestions
	c := newContext(42, "first answer")

	assert.NoError(t, f.ProcessPostAnswer(c, "first answer"))

	assert.Equal(t, 2, user.CurrentQuestionNumber)
	assert.Equal(t, "first answer", user.PostAnswers["answer_1"])
	assert.Contains(t, c.sentTexts(), postQuestionMessage(2, "q2"))
	assert.Equal(t, state.StateAnsweringPostQuestions, deps.storage.states[42])
}

func TestHandleRewritePost_StartsNewAttempt(t *testing.T) {
	user := &domain.User{
		Email:                 "lead@example.com",
		TelegramID:            sql.NullInt64{Int64: 42, Valid: true},
		CurrentPostNumber:     2,
		CurrentQuestionNumber: 3,
		PostAttempt:           1,
	}
	f, deps := newTestFunnel(t, user)
	deps.storage.states[42] = state.StatePostResultShown
	c := newContext(42, "")

	assert.NoError(t, f.HandleRewritePost(c))

	assert.Equal(t, 2, user.PostAttempt)
	assert.Equal(t, 1, user.CurrentQuestionNumber)
	assert.Contains(t, c.edited, MsgRewritePost)
	assert.Contains(t, c.sentTexts(), postQuestionMessage(1, "q1"))
}

func TestHandleRewritePost_AtAttemptCapAdvances(t *testing.T) {
	user := &domain.User{
		Email:             "lead@example.com",
		TelegramID:        sql.NullInt64{Int64: 42, Valid: true},
		CurrentPostNumber: 2,
		PostAttempt:       state.MaxPostAttempts,
	}
	f, deps := newTestFunnel(t, user)
	deps.storage.states[42] = state.StatePostResultShown
	c := newContext(42, "")

	assert.NoError(t, f.HandleRewritePost(c))

	assert.Equal(t, 3, user.CurrentPostNumber)
	assert.Equal(t, 1, user.PostAttempt)
	assert.Contains(t, c.sentTexts(), nextPostMessage(3))
}

func TestHandleNextPost_AfterLastPostStartsPublishing(t *testing.T) {
	user := &domain.User{
		Email:             "lead@example.com",
		TelegramID:        sql.NullInt64{Int64: 42, Valid: true},
		CurrentPostNumber: state.TotalPosts,
		PostAttempt:       1,
	}
	f, deps := newTestFunnel(t, user)
	deps.storage.states[42] = state.StatePostResultShown
	c := newContext(42, "")

	assert.NoError(t, f.HandleNextPost(c))

	assert.Contains(t, c.sentTexts(), MsgAllPostsCompleted)
	assert.Contains(t, c.sentTexts(), MsgPublishIntro)
	assert.Equal(t, state.StateLearn5Sent, deps.storage.states[42])
}

func TestProcessSalesAnswer_WalksThroughQuestions(t *testing.T) {
	user := &domain.User{
		Email:      "lead@example.com",
		TelegramID: sql.NullInt64{Int64: 42, Valid: true},
	}
	f, deps := newTestFunnel(t, user)
	deps.storage.states[42] = state.StateAnsweringSalesQuestions

	c := newContext(42, "answer one")
	assert.NoError(t, f.ProcessSalesAnswer(c, "answer one"))
	assert.Equal(t, "answer one", deps.users.salesAnswers[1])
	assert.Contains(t, c.sentTexts(), MsgSalesQuestion2)

	c = newContext(42, "answer two")
	assert.NoError(t, f.ProcessSalesAnswer(c, "answer two"))
	assert.Equal(t, "answer two", deps.users.salesAnswers[2])
	assert.Contains(t, c.sentTexts(), MsgSalesQuestion3)

	assert.Equal(t, state.StateAnsweringSalesQuestions, deps.storage.states[42])
}

func TestHandleRewriteSales_ClearsAnswersAndRestarts(t *testing.T) {
	user := &domain.User{
		Email:      "lead@example.com",
		TelegramID: sql.NullInt64{Int64: 42, Valid: true},
		Prodaj1:    sql.NullString{String: "a1", Valid: true},
		Prodaj2:    sql.NullString{String: "a2", Valid: true},
		Prodaj3:    sql.NullString{String: "a3", Valid: true},
	}
	f, deps := newTestFunnel(t, user)
	deps.storage.states[42] = state.StateSalesPostReady
	c := newContext(42, "")

	assert.NoError(t, f.HandleRewriteSales(c))

	assert.Equal(t, 1, user.RewriteCount)
	assert.False(t, user.Prodaj1.Valid)
	assert.False(t, user.Prodaj2.Valid)
	assert.False(t, user.Prodaj3.Valid)
	assert.Contains(t, c.edited, MsgRewriteSales)
	assert.Contains(t, c.sentTexts(), MsgSalesQuestion1)
	assert.Equal(t, state.StateAnsweringSalesQuestions, deps.storage.states[42])
}

func TestHandleRewriteSales_SecondClickMovesForward(t *testing.T) {
	user := &domain.User{
		Email:        "lead@example.com",
		TelegramID:   sql.NullInt64{Int64: 42, Valid: true},
		RewriteCount: 1,
	}
	f, deps := newTestFunnel(t, user)
	deps.storage.states[42] = state.StateSalesPostReady
	c := newContext(42, "")

	assert.NoError(t, f.HandleRewriteSales(c))

	// The rewrite budget is spent, so the stale button acts as "continue".
	assert.Equal(t, 1, user.RewriteCount)
	assert.Contains(t, c.edited, MsgToFinalStep)
	assert.Equal(t, []string{MsgFinal1, MsgFinal2, MsgFinal3}, c.sentTexts())
	assert.Equal(t, state.StateCompleted, deps.storage.states[42])
}

func TestProcessHelpAnswer_DeliversVariantsAndAdvances(t *testing.T) {
	f, deps := newTestFunnel(t, &domain.User{Email: "lead@example.com"})
	deps.storage.states[42] = state.StateWaitingHelpAnswer
	deps.generator.response = "variant list"
	c := newBotContext(t, 42, "I teach pilates")

	assert.NoError(t, f.ProcessHelpAnswer(c, "I teach pilates"))

	assert.Equal(t, generation.KindOsebe, deps.generator.lastKind)
	assert.Contains(t, c.sentTexts(), MsgFillChannelIntro)
	assert.Contains(t, c.sentTexts(), MsgLearn4Options)
	assert.Equal(t, state.StateLearn4Sent, deps.storage.states[42])
	if assert.Len(t, deps.requests.created, 1) {
		assert.Equal(t, repository.RequestStatusCompleted, deps.requests.statuses[deps.requests.created[0]])
	}
}

func TestProcessHelpAnswer_TimeoutDiscardsAttempt(t *testing.T) {
	f, deps := newTestFunnel(t, &domain.User{Email: "lead@example.com"})
	deps.storage.states[42] = state.StateWaitingHelpAnswer
	deps.generator.err = generation.ErrReplyTimeout
	c := newBotContext(t, 42, "I teach pilates")

	assert.NoError(t, f.ProcessHelpAnswer(c, "I teach pilates"))

	// The attempt is discarded and the user answers again from scratch.
	assert.Equal(t, state.StateWaitingHelpAnswer, deps.storage.states[42])
	assert.NotContains(t, c.sentTexts(), MsgFillChannelIntro)
	if assert.Len(t, deps.requests.created, 1) {
		assert.Equal(t, repository.RequestStatusTimeout, deps.requests.statuses[deps.requests.created[0]])
	}
}

func TestProcessPostAnswer_ThirdAnswerRunsGeneration(t *testing.T) {
	user := &domain.User{
		Email:                 "lead@example.com",
		TelegramID:            sql.NullInt64{Int64: 42, Valid: true},
		CurrentPostNumber:     1,
		CurrentQuestionNumber: 3,
		PostAttempt:           1,
		PostAnswers:           map[string]string{"answer_1": "a1", "answer_2": "a2"},
	}
	f, deps := newTestFunnel(t, user)
	deps.storage.states[42] = state.StateAnsweringPostQuestions
	deps.generator.response = "generated post"
	c := newBotContext(t, 42, "a3")

	assert.NoError(t, f.ProcessPostAnswer(c, "a3"))

	assert.Equal(t, generation.KindPost, deps.generator.lastKind)
	assert.Equal(t, state.StatePostResultShown, deps.storage.states[42])
	if assert.Len(t, deps.requests.created, 1) {
		assert.Equal(t, repository.RequestStatusCompleted, deps.requests.statuses[deps.requests.created[0]])
	}
}

func TestProcessPostAnswer_GenerationFailureRestartsQuestions(t *testing.T) {
	user := &domain.User{
		Email:                 "lead@example.com",
		TelegramID:            sql.NullInt64{Int64: 42, Valid: true},
		CurrentPostNumber:     1,
		CurrentQuestionNumber: 3,
		PostAttempt:           2,
		PostAnswers:           map[string]string{"answer_1": "a1", "answer_2": "a2"},
	}
	f, deps := newTestFunnel(t, user)
	deps.storage.states[42] = state.StateAnsweringPostQuestions
	deps.generator.err = generation.ErrSendFailed
	c := newBotContext(t, 42, "a3")

	assert.NoError(t, f.ProcessPostAnswer(c, "a3"))

	// The post restarts at question one on the same attempt, answers discarded.
	assert.Equal(t, 1, user.CurrentQuestionNumber)
	assert.Equal(t, 2, user.PostAttempt)
	assert.Empty(t, user.PostAnswers)
	assert.Contains(t, c.sentTexts(), postQuestionMessage(1, "q1"))
	assert.Equal(t, state.StateAnsweringPostQuestions, deps.storage.states[42])
	if assert.Len(t, deps.requests.created, 1) {
		assert.Equal(t, repository.RequestStatusFailed, deps.requests.statuses[deps.requests.created[0]])
	}
}

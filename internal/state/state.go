package state

import "time"

// State represents a point in the fixed onboarding funnel.
type State string

const (
	// Registration.
	StateNew          State = "new"
	StateWaitingEmail State = "waiting_email"
	StateRegistered   State = "registered"

	// Intro video with reminders.
	StateVideoSent    State = "video_sent"
	StateVideoWatched State = "video_watched"

	// Channel setup.
	StateChannelQuestion State = "channel_question"
	StateChannelCreating State = "channel_creating"
	StateChannelCreated  State = "channel_created"

	// Lesson 3: help with self-description or continue.
	StateLearn3Sent        State = "learn3_sent"
	StateWaitingHelp       State = "waiting_help"
	StateWaitingHelpAnswer State = "waiting_help_answer"
	StateProcessingHelp    State = "processing_help"
	StateHelpCompleted     State = "help_completed"
	StateContinueLearning  State = "continue_learning"

	// Lesson 4: the 5-post creation loop.
	StateLearn4Sent             State = "learn4_sent"
	StateWriteMyself            State = "write_myself"
	StateCreatingPosts          State = "creating_posts"
	StateAnsweringPostQuestions State = "answering_post_questions"
	StateProcessingPost         State = "processing_post"
	StatePostResultShown        State = "post_result_shown"
	StateAllPostsCompleted      State = "all_posts_completed"

	// Lesson 5: publishing the intro post with a button.
	StateLearn5Sent             State = "learn5_sent"
	StatePublishMyself          State = "publish_myself"
	StateHelpPublish            State = "help_publish"
	StateWaitingChannelLink     State = "waiting_channel_link"
	StateWaitingBotAdmin        State = "waiting_bot_admin"
	StateAnsweringBlueQuestions State = "answering_blue_questions"
	StateRequestingBestLinks    State = "requesting_best_links"
	StateProcessingBluePost     State = "processing_blue_post"
	StateChoosingButtonAction   State = "choosing_button_action"
	StateWaitingWebsiteLink     State = "waiting_website_link"
	StateChoosingButtonText     State = "choosing_button_text"
	StateWaitingCustomButton    State = "waiting_custom_button_text"
	StatePreviewPost            State = "preview_post"
	StatePostPublished          State = "post_published"

	// Lesson 6: announcement.
	StateLearn6Sent              State = "learn6_sent"
	StateWriteAnonsMyself        State = "write_anons_myself"
	StateCreatingAnons           State = "creating_anons"
	StateAnsweringAnonsQuestions State = "answering_anons_questions"
	StateProcessingAnons         State = "processing_anons"
	StateAnonsCompleted          State = "anons_completed"

	// Lesson 7: sales post with a one-shot rewrite.
	StateLearn7Sent              State = "learn7_sent"
	StateWriteSalesMyself        State = "write_sales_myself"
	StateCreatingSalesPost       State = "creating_sales_post"
	StateAnsweringSalesQuestions State = "answering_sales_questions"
	StateProcessingSalesPost     State = "processing_sales_post"
	StateSalesPostReady          State = "sales_post_ready"
	StateRewritingSalesPost      State = "rewriting_sales_post"

	// Wrap-up.
	StateFinalStep State = "final_step"
	StateCompleted State = "completed"
)

// Funnel-wide limits.
const (
	TotalPosts       = 5
	QuestionsPerPost = 3
	MaxPostAttempts  = 2

	BlueButtonQuestions = 5
	BestLinksCount      = 5

	AnonsQuestions = 2
	SalesQuestions = 3
)

// Normalize maps unknown or empty state values to the initial state.
func Normalize(s State) State {
	if _, ok := allStates[s]; !ok {
		return StateNew
	}
	return s
}

// VoiceAccepted reports whether voice input is processed in the given state.
// Voice received in any other state is silently ignored.
func VoiceAccepted(s State) bool {
	switch s {
	case StateWaitingHelpAnswer, StateAnsweringPostQuestions, StateAnsweringBlueQuestions:
		return true
	default:
		return false
	}
}

// UserState captures the persisted funnel position of one Telegram user.
type UserState struct {
	UserID       int64     `json:"user_id"`
	CurrentState State     `json:"current_state"`
	UpdatedAt    time.Time `json:"updated_at"`
}

var allStates = map[State]struct{}{}

func init() {
	for _, states := range validTransitions {
		for _, s := range states {
			allStates[s] = struct{}{}
		}
	}
	for s := range validTransitions {
		allStates[s] = struct{}{}
	}
}

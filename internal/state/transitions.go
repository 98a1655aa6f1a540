package state

// validTransitions contains the permitted funnel transitions. A missing edge
// means the triggering event is ignored for a user in that state.
var validTransitions = map[State][]State{
	StateNew: {
		StateWaitingEmail,
	},
	StateWaitingEmail: {
		StateRegistered,
	},
	StateRegistered: {
		StateVideoSent,
	},
	StateVideoSent: {
		StateVideoWatched,
	},
	StateVideoWatched: {
		StateChannelQuestion,
	},
	StateChannelQuestion: {
		StateChannelCreating,
		StateChannelCreated,
	},
	StateChannelCreating: {
		StateChannelCreated,
	},
	StateChannelCreated: {
		StateLearn3Sent,
	},
	StateLearn3Sent: {
		StateWaitingHelp,
		StateContinueLearning,
	},
	StateWaitingHelp: {
		StateWaitingHelpAnswer,
	},
	StateWaitingHelpAnswer: {
		StateProcessingHelp,
	},
	StateProcessingHelp: {
		StateHelpCompleted,
		// rollback on send failure or reply timeout
		StateWaitingHelp,
		StateWaitingHelpAnswer,
	},
	StateHelpCompleted: {
		StateLearn4Sent,
	},
	StateContinueLearning: {
		StateLearn4Sent,
	},
	StateLearn4Sent: {
		StateWriteMyself,
		StateCreatingPosts,
	},
	StateWriteMyself: {
		StateLearn5Sent,
	},
	StateCreatingPosts: {
		StateAnsweringPostQuestions,
	},
	StateAnsweringPostQuestions: {
		StateProcessingPost,
	},
	StateProcessingPost: {
		StatePostResultShown,
		StateAnsweringPostQuestions,
	},
	StatePostResultShown: {
		StateAnsweringPostQuestions,
		StateAllPostsCompleted,
	},
	StateAllPostsCompleted: {
		StateLearn5Sent,
	},
	StateLearn5Sent: {
		StatePublishMyself,
		StateHelpPublish,
	},
	StatePublishMyself: {
		StateLearn6Sent,
	},
	StateHelpPublish: {
		StateWaitingChannelLink,
	},
	StateWaitingChannelLink: {
		StateWaitingBotAdmin,
	},
	StateWaitingBotAdmin: {
		StateAnsweringBlueQuestions,
		StateWaitingChannelLink,
	},
	StateAnsweringBlueQuestions: {
		StateRequestingBestLinks,
	},
	StateRequestingBestLinks: {
		StateProcessingBluePost,
	},
	StateProcessingBluePost: {
		StateChoosingButtonAction,
		StateAnsweringBlueQuestions,
	},
	StateChoosingButtonAction: {
		StateChoosingButtonText,
		StateWaitingWebsiteLink,
	},
	StateWaitingWebsiteLink: {
		StateChoosingButtonText,
	},
	StateChoosingButtonText: {
		StateWaitingCustomButton,
		StatePreviewPost,
	},
	StateWaitingCustomButton: {
		StatePreviewPost,
	},
	StatePreviewPost: {
		StatePostPublished,
		StateAnsweringBlueQuestions,
	},
	StatePostPublished: {
		StateLearn6Sent,
	},
	StateLearn6Sent: {
		StateWriteAnonsMyself,
		StateCreatingAnons,
	},
	StateWriteAnonsMyself: {
		StateLearn7Sent,
	},
	StateCreatingAnons: {
		StateAnsweringAnonsQuestions,
	},
	StateAnsweringAnonsQuestions: {
		StateProcessingAnons,
	},
	StateProcessingAnons: {
		StateAnonsCompleted,
		StateAnsweringAnonsQuestions,
	},
	StateAnonsCompleted: {
		StateLearn7Sent,
	},
	StateLearn7Sent: {
		StateWriteSalesMyself,
		StateCreatingSalesPost,
	},
	StateWriteSalesMyself: {
		StateFinalStep,
	},
	StateCreatingSalesPost: {
		StateAnsweringSalesQuestions,
	},
	StateAnsweringSalesQuestions: {
		StateProcessingSalesPost,
	},
	StateProcessingSalesPost: {
		StateSalesPostReady,
		StateAnsweringSalesQuestions,
	},
	StateSalesPostReady: {
		StateRewritingSalesPost,
		StateFinalStep,
	},
	StateRewritingSalesPost: {
		StateAnsweringSalesQuestions,
	},
	StateFinalStep: {
		StateCompleted,
	},
	StateCompleted: {},
}

// IsTransitionAllowed reports whether moving from one state to another is valid.
// Returning to the initial state is always permitted (operator reset), and an
// unknown stored state is treated as the initial one.
func IsTransitionAllowed(from, to State) bool {
	if to == StateNew {
		return true
	}

	allowed, ok := validTransitions[Normalize(from)]
	if !ok {
		return false
	}

	for _, s := range allowed {
		if s == to {
			return true
		}
	}

	return false
}

package state

import "testing"

func TestIsTransitionAllowed(t *testing.T) {
	testCases := []struct {
		name     string
		from     State
		to       State
		expected bool
	}{
		{name: "new to waiting email", from: StateNew, to: StateWaitingEmail, expected: true},
		{name: "waiting email to registered", from: StateWaitingEmail, to: StateRegistered, expected: true},
		{name: "registered to video sent", from: StateRegistered, to: StateVideoSent, expected: true},
		{name: "video sent to video watched", from: StateVideoSent, to: StateVideoWatched, expected: true},
		{name: "video watched to channel question", from: StateVideoWatched, to: StateChannelQuestion, expected: true},
		{name: "channel question to creating", from: StateChannelQuestion, to: StateChannelCreating, expected: true},
		{name: "channel question straight to created", from: StateChannelQuestion, to: StateChannelCreated, expected: true},
		{name: "post result to next answers", from: StatePostResultShown, to: StateAnsweringPostQuestions, expected: true},
		{name: "post result to all completed", from: StatePostResultShown, to: StateAllPostsCompleted, expected: true},
		{name: "bot admin confirmed", from: StateWaitingBotAdmin, to: StateAnsweringBlueQuestions, expected: true},
		{name: "bot admin rejected back to link", from: StateWaitingBotAdmin, to: StateWaitingChannelLink, expected: true},
		{name: "preview declined restarts questions", from: StatePreviewPost, to: StateAnsweringBlueQuestions, expected: true},
		{name: "sales ready to rewrite", from: StateSalesPostReady, to: StateRewritingSalesPost, expected: true},
		{name: "sales ready to final", from: StateSalesPostReady, to: StateFinalStep, expected: true},
		{name: "final step to completed", from: StateFinalStep, to: StateCompleted, expected: true},
		{name: "new straight to registered invalid", from: StateNew, to: StateRegistered, expected: false},
		{name: "video sent to channel question invalid", from: StateVideoSent, to: StateChannelQuestion, expected: false},
		{name: "completed is terminal", from: StateCompleted, to: StateFinalStep, expected: false},
		{name: "skipping the sales stage invalid", from: StateLearn7Sent, to: StateFinalStep, expected: false},
		{name: "any state back to new", from: StateSalesPostReady, to: StateNew, expected: true},
		{name: "unknown state treated as new", from: State("garbled"), to: StateWaitingEmail, expected: true},
		{name: "unknown state cannot jump ahead", from: State("garbled"), to: StatePreviewPost, expected: false},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if actual := IsTransitionAllowed(tc.from, tc.to); actual != tc.expected {
				t.Errorf("IsTransitionAllowed(%s -> %s) = %t, expected %t", tc.from, tc.to, actual, tc.expected)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	testCases := []struct {
		name     string
		in       State
		expected State
	}{
		{name: "known state unchanged", in: StateVideoSent, expected: StateVideoSent},
		{name: "terminal state unchanged", in: StateCompleted, expected: StateCompleted},
		{name: "empty state becomes new", in: State(""), expected: StateNew},
		{name: "unknown state becomes new", in: State("legacy_stage"), expected: StateNew},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if actual := Normalize(tc.in); actual != tc.expected {
				t.Errorf("Normalize(%s) = %s, expected %s", tc.in, actual, tc.expected)
			}
		})
	}
}

func TestVoiceAccepted(t *testing.T) {
	accepted := []State{StateWaitingHelpAnswer, StateAnsweringPostQuestions, StateAnsweringBlueQuestions}
	for _, s := range accepted {
		if !VoiceAccepted(s) {
			t.Errorf("VoiceAccepted(%s) = false, expected true", s)
		}
	}

	rejected := []State{StateNew, StateWaitingEmail, StateAnsweringAnonsQuestions, StateAnsweringSalesQuestions, StateCompleted}
	for _, s := range rejected {
		if VoiceAccepted(s) {
			t.Errorf("VoiceAccepted(%s) = true, expected false", s)
		}
	}
}

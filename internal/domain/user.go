// Package domain contains the persistent data model of the funnel.
package domain

import (
	"database/sql"
	"time"
)

// Button destinations for the published intro post.
const (
	ButtonActionDM      = "dm"
	ButtonActionWebsite = "website"
)

// User is one lead walking through the onboarding funnel. The row is created
// ahead of time (email import); telegram_id is bound on first verification.
type User struct {
	ID         int64
	Email      string
	TelegramID sql.NullInt64
	State      string

	// Post creation loop (5 posts x 3 questions, up to 2 attempts each).
	CurrentPostNumber     int
	CurrentQuestionNumber int
	PostAttempt           int
	PostAnswers           map[string]string

	// Destination channel, set once verified.
	ChannelUsername sql.NullString
	ChannelID       sql.NullInt64

	// Intro post with button.
	BlueAnswers  map[string]string
	BestLinks    map[string]string
	ButtonAction sql.NullString
	ButtonURL    sql.NullString
	ButtonText   sql.NullString
	BluePostText sql.NullString

	// Announcement.
	Anons1    sql.NullString
	Anons2    sql.NullString
	AnonsText sql.NullString

	// Sales post.
	Prodaj1      sql.NullString
	Prodaj2      sql.NullString
	Prodaj3      sql.NullString
	SalesText    sql.NullString
	RewriteCount int

	VideoSentAt sql.NullTime
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PostProgress is the cursor of the 5-post creation loop.
type PostProgress struct {
	PostNumber     int
	QuestionNumber int
	Attempt        int
	Answers        map[string]string
}

// PostTemplate is a row of the posts table: one topic with its three questions
// and the generation prompt.
type PostTemplate struct {
	PostNumber int
	Topic      string
	Questions  [3]string
	Prompt     string
}

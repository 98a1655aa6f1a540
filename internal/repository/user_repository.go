// Package repository provides SQL-backed persistence for funnel users,
// prompt templates, and generation request audit records.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pptbot/pptbot/internal/domain"
)

// ErrUserNotFound indicates that no matching user row exists.
var ErrUserNotFound = errors.New("user not found")

// UserRepository defines persistence operations for funnel users.
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByTelegramID(ctx context.Context, telegramID int64) (*domain.User, error)
	BindTelegramID(ctx context.Context, email string, telegramID int64) error

	GetState(ctx context.Context, telegramID int64) (string, error)
	UpdateState(ctx context.Context, telegramID int64, state string) error

	MarkVideoSent(ctx context.Context, telegramID int64) error

	GetPostProgress(ctx context.Context, telegramID int64) (*domain.PostProgress, error)
	SavePostProgress(ctx context.Context, telegramID int64, progress domain.PostProgress) error

	SaveChannel(ctx context.Context, telegramID int64, username string, channelID int64) error

	SaveBlueAnswers(ctx context.Context, telegramID int64, answers map[string]string) error
	SaveBestLinks(ctx context.Context, telegramID int64, links map[string]string) error
	SaveButtonSpec(ctx context.Context, telegramID int64, action, url, text string) error
	SaveBluePostText(ctx context.Context, telegramID int64, postText string) error

	SaveAnonsAnswer(ctx context.Context, telegramID int64, question int, answer string) error
	SaveAnonsText(ctx context.Context, telegramID int64, text string) error

	SaveSalesAnswer(ctx context.Context, telegramID int64, question int, answer string) error
	SaveSalesText(ctx context.Context, telegramID int64, text string) error
	IncrementSalesRewrites(ctx context.Context, telegramID int64) (int, error)
}

type userRepository struct {
	db  *sql.DB
	log *slog.Logger
}

// NewUserRepository creates a new SQL-backed user repository.
func NewUserRepository(db *sql.DB, log *slog.Logger) UserRepository {
	if log == nil {
		log = slog.Default()
	}

	return &userRepository{
		db:  db,
		log: log,
	}
}

const userColumns = `
	id, email, telegram_id, state,
	current_post_number, current_question_number, post_attempt, post_answers,
	channel_username, channel_id,
	blue_answers, best_links, button_action, button_url, button_text, blue_post_text,
	anons1, anons2, anons_text,
	prodaj1, prodaj2, prodaj3, sales_text, rewrite_count,
	video_sent_at, created_at, updated_at`

// FindByEmail looks up a user by their lowercased email address.
func (r *userRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE lower(email) = lower($1)`, userColumns)
	return r.scanUser(r.db.QueryRowContext(ctx, query, email))
}

// FindByTelegramID retrieves a user by their Telegram identifier.
func (r *userRepository) FindByTelegramID(ctx context.Context, telegramID int64) (*domain.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE telegram_id = $1`, userColumns)
	return r.scanUser(r.db.QueryRowContext(ctx, query, telegramID))
}

// BindTelegramID attaches a Telegram identifier to the row holding email.
func (r *userRepository) BindTelegramID(ctx context.Context, email string, telegramID int64) error {
	const query = `UPDATE users SET telegram_id = $2, updated_at = now() WHERE lower(email) = lower($1)`

	res, err := r.db.ExecContext(ctx, query, email, telegramID)
	if err != nil {
		r.log.Error("failed to bind telegram id", slog.Int64("telegram_id", telegramID), slog.Any("error", err))
		return fmt.Errorf("bind telegram id: %w", err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrUserNotFound
	}

	return nil
}

// GetState returns the persisted funnel state string for the user.
func (r *userRepository) GetState(ctx context.Context, telegramID int64) (string, error) {
	const query = `SELECT state FROM users WHERE telegram_id = $1`

	var state string
	if err := r.db.QueryRowContext(ctx, query, telegramID).Scan(&state); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrUserNotFound
		}
		return "", fmt.Errorf("select user state: %w", err)
	}

	return state, nil
}

// UpdateState overwrites the persisted funnel state for the user.
func (r *userRepository) UpdateState(ctx context.Context, telegramID int64, state string) error {
	const query = `UPDATE users SET state = $2, updated_at = now() WHERE telegram_id = $1`

	if _, err := r.db.ExecContext(ctx, query, telegramID, state); err != nil {
		r.log.Error("failed to update user state",
			slog.Int64("telegram_id", telegramID),
			slog.String("state", state),
			slog.Any("error", err))
		return fmt.Errorf("update user state: %w", err)
	}

	return nil
}

// MarkVideoSent records when the intro video was delivered, for the reminder window.
func (r *userRepository) MarkVideoSent(ctx context.Context, telegramID int64) error {
	const query = `UPDATE users SET video_sent_at = now(), updated_at = now() WHERE telegram_id = $1`

	if _, err := r.db.ExecContext(ctx, query, telegramID); err != nil {
		return fmt.Errorf("mark video sent: %w", err)
	}

	return nil
}

// GetPostProgress loads the cursor of the 5-post creation loop.
func (r *userRepository) GetPostProgress(ctx context.Context, telegramID int64) (*domain.PostProgress, error) {
	const query = `
		SELECT current_post_number, current_question_number, post_attempt, post_answers
		FROM users WHERE telegram_id = $1`

	var (
		progress domain.PostProgress
		answers  []byte
	)
	err := r.db.QueryRowContext(ctx, query, telegramID).Scan(
		&progress.PostNumber,
		&progress.QuestionNumber,
		&progress.Attempt,
		&answers,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("select post progress: %w", err)
	}

	progress.Answers = decodeJSONMap(answers)

	return &progress, nil
}

// SavePostProgress persists the cursor after each answered question so a
// restart resumes mid-stage instead of losing progress.
func (r *userRepository) SavePostProgress(ctx context.Context, telegramID int64, progress domain.PostProgress) error {
	const query = `
		UPDATE users SET
			current_post_number = $2,
			current_question_number = $3,
			post_attempt = $4,
			post_answers = $5,
			updated_at = now()
		WHERE telegram_id = $1`

	answers, err := json.Marshal(orEmpty(progress.Answers))
	if err != nil {
		return fmt.Errorf("encode post answers: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query,
		telegramID,
		progress.PostNumber,
		progress.QuestionNumber,
		progress.Attempt,
		answers,
	); err != nil {
		r.log.Error("failed to save post progress", slog.Int64("telegram_id", telegramID), slog.Any("error", err))
		return fmt.Errorf("save post progress: %w", err)
	}

	return nil
}

// SaveChannel stores the verified destination channel.
func (r *userRepository) SaveChannel(ctx context.Context, telegramID int64, username string, channelID int64) error {
	const query = `
		UPDATE users SET channel_username = $2, channel_id = $3, updated_at = now()
		WHERE telegram_id = $1`

	if _, err := r.db.ExecContext(ctx, query, telegramID, username, channelID); err != nil {
		return fmt.Errorf("save channel: %w", err)
	}

	return nil
}

// SaveBlueAnswers stores the five intro-post answers accumulated so far.
func (r *userRepository) SaveBlueAnswers(ctx context.Context, telegramID int64, answers map[string]string) error {
	return r.saveJSONField(ctx, telegramID, "blue_answers", answers)
}

// SaveBestLinks stores the best-post links accumulated so far.
func (r *userRepository) SaveBestLinks(ctx context.Context, telegramID int64, links map[string]string) error {
	return r.saveJSONField(ctx, telegramID, "best_links", links)
}

// SaveButtonSpec stores the button destination and label built across the
// button-builder states.
func (r *userRepository) SaveButtonSpec(ctx context.Context, telegramID int64, action, url, text string) error {
	const query = `
		UPDATE users SET
			button_action = COALESCE(NULLIF($2, ''), button_action),
			button_url    = COALESCE(NULLIF($3, ''), button_url),
			button_text   = COALESCE(NULLIF($4, ''), button_text),
			updated_at    = now()
		WHERE telegram_id = $1`

	if _, err := r.db.ExecContext(ctx, query, telegramID, action, url, text); err != nil {
		return fmt.Errorf("save button spec: %w", err)
	}

	return nil
}

// SaveBluePostText stores the generated intro post text.
func (r *userRepository) SaveBluePostText(ctx context.Context, telegramID int64, postText string) error {
	const query = `UPDATE users SET blue_post_text = $2, updated_at = now() WHERE telegram_id = $1`

	if _, err := r.db.ExecContext(ctx, query, telegramID, postText); err != nil {
		return fmt.Errorf("save blue post text: %w", err)
	}

	return nil
}

// SaveAnonsAnswer stores one of the two announcement answers.
func (r *userRepository) SaveAnonsAnswer(ctx context.Context, telegramID int64, question int, answer string) error {
	var column string
	switch question {
	case 1:
		column = "anons1"
	case 2:
		column = "anons2"
	default:
		return fmt.Errorf("announcement has no question %d", question)
	}

	return r.saveTextColumn(ctx, telegramID, column, answer)
}

// SaveAnonsText stores the generated announcement.
func (r *userRepository) SaveAnonsText(ctx context.Context, telegramID int64, text string) error {
	return r.saveTextColumn(ctx, telegramID, "anons_text", text)
}

// SaveSalesAnswer stores one of the three sales-post answers.
func (r *userRepository) SaveSalesAnswer(ctx context.Context, telegramID int64, question int, answer string) error {
	var column string
	switch question {
	case 1:
		column = "prodaj1"
	case 2:
		column = "prodaj2"
	case 3:
		column = "prodaj3"
	default:
		return fmt.Errorf("sales post has no question %d", question)
	}

	return r.saveTextColumn(ctx, telegramID, column, answer)
}

// SaveSalesText stores the generated sales post.
func (r *userRepository) SaveSalesText(ctx context.Context, telegramID int64, text string) error {
	return r.saveTextColumn(ctx, telegramID, "sales_text", text)
}

// IncrementSalesRewrites bumps the rewrite counter and returns the new value.
func (r *userRepository) IncrementSalesRewrites(ctx context.Context, telegramID int64) (int, error) {
	const query = `
		UPDATE users SET rewrite_count = rewrite_count + 1, updated_at = now()
		WHERE telegram_id = $1
		RETURNING rewrite_count`

	var count int
	if err := r.db.QueryRowContext(ctx, query, telegramID).Scan(&count); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrUserNotFound
		}
		return 0, fmt.Errorf("increment sales rewrites: %w", err)
	}

	return count, nil
}

func (r *userRepository) saveJSONField(ctx context.Context, telegramID int64, column string, value map[string]string) error {
	query := fmt.Sprintf(`UPDATE users SET %s = $2, updated_at = now() WHERE telegram_id = $1`, column)

	encoded, err := json.Marshal(orEmpty(value))
	if err != nil {
		return fmt.Errorf("encode %s: %w", column, err)
	}

	if _, err := r.db.ExecContext(ctx, query, telegramID, encoded); err != nil {
		r.log.Error("failed to save json field",
			slog.Int64("telegram_id", telegramID),
			slog.String("column", column),
			slog.Any("error", err))
		return fmt.Errorf("save %s: %w", column, err)
	}

	return nil
}

func (r *userRepository) saveTextColumn(ctx context.Context, telegramID int64, column, value string) error {
	query := fmt.Sprintf(`UPDATE users SET %s = $2, updated_at = now() WHERE telegram_id = $1`, column)

	if _, err := r.db.ExecContext(ctx, query, telegramID, value); err != nil {
		r.log.Error("failed to save text column",
			slog.Int64("telegram_id", telegramID),
			slog.String("column", column),
			slog.Any("error", err))
		return fmt.Errorf("save %s: %w", column, err)
	}

	return nil
}

func (r *userRepository) scanUser(row *sql.Row) (*domain.User, error) {
	var (
		user        domain.User
		postAnswers []byte
		blueAnswers []byte
		bestLinks   []byte
	)

	err := row.Scan(
		&user.ID, &user.Email, &user.TelegramID, &user.State,
		&user.CurrentPostNumber, &user.CurrentQuestionNumber, &user.PostAttempt, &postAnswers,
		&user.ChannelUsername, &user.ChannelID,
		&blueAnswers, &bestLinks, &user.ButtonAction, &user.ButtonURL, &user.ButtonText, &user.BluePostText,
		&user.Anons1, &user.Anons2, &user.AnonsText,
		&user.Prodaj1, &user.Prodaj2, &user.Prodaj3, &user.SalesText, &user.RewriteCount,
		&user.VideoSentAt, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}

	user.PostAnswers = decodeJSONMap(postAnswers)
	user.BlueAnswers = decodeJSONMap(blueAnswers)
	user.BestLinks = decodeJSONMap(bestLinks)

	return &user, nil
}

func decodeJSONMap(raw []byte) map[string]string {
	result := make(map[string]string)
	if len(raw) == 0 {
		return result
	}

	// A corrupt column yields an empty map rather than a failed read.
	_ = json.Unmarshal(raw, &result)

	return result
}

func orEmpty(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/pptbot/pptbot/internal/domain"
)

// ErrPromptNotFound indicates a prompt key or post template is missing.
var ErrPromptNotFound = errors.New("prompt not found")

// Prompt keys of the single-shot generation targets.
const (
	PromptOsebe  = "prompt_osebe"
	PromptBlue   = "prompt_bluebutt"
	PromptAnons  = "prompt_anons"
	PromptProdaj = "prompt_prodaj"
)

const (
	promptCacheTTL     = 10 * time.Minute
	promptCacheCleanup = 15 * time.Minute
)

// PromptRepository serves generation prompts and the 5 post templates.
// Rows are edited by the content team directly in the database, so reads
// go through a short-lived cache rather than process-lifetime memoization.
type PromptRepository interface {
	GetPrompt(ctx context.Context, key string) (string, error)
	GetPostTemplate(ctx context.Context, postNumber int) (*domain.PostTemplate, error)
}

type promptRepository struct {
	db    *sql.DB
	cache *cache.Cache
	log   *slog.Logger
}

// NewPromptRepository creates a cached SQL-backed prompt repository.
func NewPromptRepository(db *sql.DB, log *slog.Logger) PromptRepository {
	if log == nil {
		log = slog.Default()
	}

	return &promptRepository{
		db:    db,
		cache: cache.New(promptCacheTTL, promptCacheCleanup),
		log:   log,
	}
}

// GetPrompt returns the prompt text stored under the given key.
func (r *promptRepository) GetPrompt(ctx context.Context, key string) (string, error) {
	cacheKey := "prompt:" + key
	if cached, found := r.cache.Get(cacheKey); found {
		return cached.(string), nil
	}

	const query = `SELECT text FROM prompts WHERE key = $1`

	var text string
	if err := r.db.QueryRowContext(ctx, query, key).Scan(&text); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrPromptNotFound
		}
		return "", fmt.Errorf("select prompt %q: %w", key, err)
	}

	r.cache.Set(cacheKey, text, cache.DefaultExpiration)

	return text, nil
}

// GetPostTemplate returns the topic, three questions and prompt for one of
// the five lesson posts.
func (r *promptRepository) GetPostTemplate(ctx context.Context, postNumber int) (*domain.PostTemplate, error) {
	cacheKey := fmt.Sprintf("post:%d", postNumber)
	if cached, found := r.cache.Get(cacheKey); found {
		tpl := cached.(domain.PostTemplate)
		return &tpl, nil
	}

	const query = `
		SELECT post_number, topic, question1, question2, question3, prompt
		FROM posts WHERE post_number = $1`

	var tpl domain.PostTemplate
	err := r.db.QueryRowContext(ctx, query, postNumber).Scan(
		&tpl.PostNumber,
		&tpl.Topic,
		&tpl.Questions[0],
		&tpl.Questions[1],
		&tpl.Questions[2],
		&tpl.Prompt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPromptNotFound
		}
		return nil, fmt.Errorf("select post template %d: %w", postNumber, err)
	}

	r.cache.Set(cacheKey, tpl, cache.DefaultExpiration)

	return &tpl, nil
}

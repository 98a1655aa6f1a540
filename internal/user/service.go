package user

import (
	"context"
	"log/slog"
	"time"

	"github.com/pptbot/pptbot/internal/domain"
	"github.com/pptbot/pptbot/internal/repository"
	"github.com/pptbot/pptbot/internal/usercache"
)

const profileTTL = 5 * time.Minute

// Service is a caching layer over the user repository. Profile reads go
// through Redis; every write invalidates the cached entry so the next read
// sees the stored row.
type Service struct {
	repository.UserRepository

	cache *usercache.Cache
	log   *slog.Logger
}

// NewService wraps the repository with the Redis profile cache.
func NewService(repo repository.UserRepository, cache *usercache.Cache, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}

	return &Service{
		UserRepository: repo,
		cache:          cache,
		log:            log,
	}
}

// FindByTelegramID serves the profile from cache when possible.
func (s *Service) FindByTelegramID(ctx context.Context, telegramID int64) (*domain.User, error) {
	if cached, err := s.cache.Get(ctx, telegramID); err != nil {
		s.log.Warn("profile cache read failed", slog.Int64("telegram_id", telegramID), slog.Any("error", err))
	} else if cached != nil {
		return cached, nil
	}

	user, err := s.UserRepository.FindByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, telegramID, user, profileTTL); err != nil {
		s.log.Warn("profile cache write failed", slog.Int64("telegram_id", telegramID), slog.Any("error", err))
	}

	return user, nil
}

func (s *Service) invalidate(ctx context.Context, telegramID int64) {
	if err := s.cache.Invalidate(ctx, telegramID); err != nil {
		s.log.Warn("profile cache invalidation failed", slog.Int64("telegram_id", telegramID), slog.Any("error", err))
	}
}

func (s *Service) BindTelegramID(ctx context.Context, email string, telegramID int64) error {
	err := s.UserRepository.BindTelegramID(ctx, email, telegramID)
	if err == nil {
		s.invalidate(ctx, telegramID)
	}
	return err
}

func (s *Service) UpdateState(ctx context.Context, telegramID int64, state string) error {
	err := s.UserRepository.UpdateState(ctx, telegramID, state)
	if err == nil {
		s.invalidate(ctx, telegramID)
	}
	return err
}

func (s *Service) MarkVideoSent(ctx context.Context, telegramID int64) error {
	err := s.UserRepository.MarkVideoSent(ctx, telegramID)
	if err == nil {
		s.invalidate(ctx, telegramID)
	}
	return err
}

func (s *Service) SavePostProgress(ctx context.Context, telegramID int64, progress domain.PostProgress) error {
	err := s.UserRepository.SavePostProgress(ctx, telegramID, progress)
	if err == nil {
		s.invalidate(ctx, telegramID)
	}
	return err
}

func (s *Service) SaveChannel(ctx context.Context, telegramID int64, username string, channelID int64) error {
	err := s.UserRepository.SaveChannel(ctx, telegramID, username, channelID)
	if err == nil {
		s.invalidate(ctx, telegramID)
	}
	return err
}

func (s *Service) SaveBlueAnswers(ctx context.Context, telegramID int64, answers map[string]string) error {
	err := s.UserRepository.SaveBlueAnswers(ctx, telegramID, answers)
	if err == nil {
		s.invalidate(ctx, telegramID)
	}
	return err
}

func (s *Service) SaveBestLinks(ctx context.Context, telegramID int64, links map[string]string) error {
	err := s.UserRepository.SaveBestLinks(ctx, telegramID, links)
	if err == nil {
		s.invalidate(ctx, telegramID)
	}
	return err
}

func (s *Service) SaveButtonSpec(ctx context.Context, telegramID int64, action, url, text string) error {
	err := s.UserRepository.SaveButtonSpec(ctx, telegramID, action, url, text)
	if err == nil {
		s.invalidate(ctx, telegramID)
	}
	return err
}

func (s *Service) SaveBluePostText(ctx context.Context, telegramID int64, postText string) error {
	err := s.UserRepository.SaveBluePostText(ctx, telegramID, postText)
	if err == nil {
		s.invalidate(ctx, telegramID)
	}
	return err
}

func (s *Service) SaveAnonsAnswer(ctx context.Context, telegramID int64, question int, answer string) error {
	err := s.UserRepository.SaveAnonsAnswer(ctx, telegramID, question, answer)
	if err == nil {
		s.invalidate(ctx, telegramID)
	}
	return err
}

func (s *Service) SaveAnonsText(ctx context.Context, telegramID int64, text string) error {
	err := s.UserRepository.SaveAnonsText(ctx, telegramID, text)
	if err == nil {
		s.invalidate(ctx, telegramID)
	}
	return err
}

func (s *Service) SaveSalesAnswer(ctx context.Context, telegramID int64, question int, answer string) error {
	err := s.UserRepository.SaveSalesAnswer(ctx, telegramID, question, answer)
	if err == nil {
		s.invalidate(ctx, telegramID)
	}
	return err
}

func (s *Service) SaveSalesText(ctx context.Context, telegramID int64, text string) error {
	err := s.UserRepository.SaveSalesText(ctx, telegramID, text)
	if err == nil {
		s.invalidate(ctx, telegramID)
	}
	return err
}

func (s *Service) IncrementSalesRewrites(ctx context.Context, telegramID int64) (int, error) {
	count, err := s.UserRepository.IncrementSalesRewrites(ctx, telegramID)
	if err == nil {
		s.invalidate(ctx, telegramID)
	}
	return count, err
}

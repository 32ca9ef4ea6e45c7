package posts

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"posterr/internal/domain"
	"posterr/internal/infra/metrics"
)

// Validator проверяет правила публикации, см. usecase/validation.
type Validator interface {
	ValidateOriginal(ctx context.Context, sess domain.Session, content string) error
	ValidateRepost(ctx context.Context, sess domain.Session) error
	ValidateQuote(ctx context.Context, sess domain.Session, content string) error
}

// Service реализует конвейер создания постов.
//
// Порядок шагов: проверка правил, загрузка пользователя, загрузка исходного поста,
// сборка поста, вставка, учёт квоты и статистики. До вставки побочных эффектов нет.
// Вставка и инкремент квоты выполняются независимо: падение между ними
// приводит к недосчёту квоты.
type Service struct {
	validator Validator
	users     domain.UserRepo
	posts     domain.PostRepo
	quota     domain.QuotaRepo
	stats     domain.StatsRepo
	clock     domain.Clock
	log       zerolog.Logger
	newID     func() string
}

// NewService создаёт конвейер создания постов.
func NewService(validator Validator, users domain.UserRepo, posts domain.PostRepo, quota domain.QuotaRepo, stats domain.StatsRepo, clock domain.Clock, logger zerolog.Logger) *Service {
	return &Service{
		validator: validator,
		users:     users,
		posts:     posts,
		quota:     quota,
		stats:     stats,
		clock:     clock,
		log:       logger.With().Str("component", "posts").Logger(),
		newID:     uuid.NewString,
	}
}

// CreateOriginal публикует оригинальный пост.
func (s *Service) CreateOriginal(ctx context.Context, sess domain.Session, content string) (domain.ResolvedPost, error) {
	if err := s.validator.ValidateOriginal(ctx, sess, content); err != nil {
		return s.reject(domain.PostTypeOriginal, err)
	}
	return s.create(ctx, sess, domain.PostTypeOriginal, content, "")
}

// CreateRepost публикует репост с пустым содержимым.
func (s *Service) CreateRepost(ctx context.Context, sess domain.Session, originalID string) (domain.ResolvedPost, error) {
	if err := s.validator.ValidateRepost(ctx, sess); err != nil {
		return s.reject(domain.PostTypeRepost, err)
	}
	return s.create(ctx, sess, domain.PostTypeRepost, "", originalID)
}

// CreateQuote публикует цитату существующего поста.
func (s *Service) CreateQuote(ctx context.Context, sess domain.Session, content, originalID string) (domain.ResolvedPost, error) {
	if err := s.validator.ValidateQuote(ctx, sess, content); err != nil {
		return s.reject(domain.PostTypeQuote, err)
	}
	return s.create(ctx, sess, domain.PostTypeQuote, content, originalID)
}

func (s *Service) create(ctx context.Context, sess domain.Session, kind domain.PostType, content, originalID string) (domain.ResolvedPost, error) {
	user, ok, err := s.users.GetUserByID(ctx, sess.UserID)
	if err != nil {
		return s.reject(kind, domain.NewStorageError("Failed to load user", err))
	}
	if !ok || !user.LoggedIn {
		return s.reject(kind, domain.ErrNotLoggedIn)
	}

	var original *domain.Post
	if kind != domain.PostTypeOriginal {
		found, ok, err := s.posts.GetPostByID(ctx, originalID)
		if err != nil {
			return s.reject(kind, domain.NewStorageError("Failed to load original post", err))
		}
		if !ok {
			return s.reject(kind, domain.ErrOriginalPostNotFound)
		}
		original = &found
	}

	now := s.clock.Time()
	post, err := domain.NewPost(s.newID(), content, user.ID, kind, now, originalID)
	if err != nil {
		// Валидатор уже проверил содержимое, сюда попадаем только при ошибке в коде.
		return domain.ResolvedPost{}, fmt.Errorf("сборка поста: %w", err)
	}

	if err := s.posts.InsertPost(ctx, post); err != nil {
		return s.reject(kind, domain.NewStorageError("Failed to create post", err))
	}

	s.recordQuota(ctx, user.ID, domain.DayKey(now, s.clock.Location))
	s.recordStats(ctx, user.ID, kind)
	metrics.IncPostCreated(string(kind))
	s.log.Info().Str("post_id", post.ID).Str("user_id", user.ID).Str("type", string(kind)).Msg("пост создан")

	return domain.ResolvedPost{Post: post, Original: original}, nil
}

// recordQuota увеличивает счётчик дня с одним повтором. Ошибка не отменяет публикацию.
func (s *Service) recordQuota(ctx context.Context, userID, day string) {
	err := s.quota.IncrementForDay(ctx, userID, day)
	if err == nil {
		return
	}
	s.log.Warn().Err(err).Str("user_id", userID).Str("day", day).Msg("инкремент квоты не удался, повторяем")
	if err = s.quota.IncrementForDay(ctx, userID, day); err == nil {
		return
	}
	metrics.QuotaBookkeepingFailures.Inc()
	s.log.Error().Err(err).Str("user_id", userID).Str("day", day).Msg("квота не учтена")
}

func (s *Service) recordStats(ctx context.Context, userID string, kind domain.PostType) {
	if s.stats == nil {
		return
	}
	if err := s.stats.IncrementStats(ctx, userID, kind); err != nil {
		metrics.StatsBookkeepingFailures.Inc()
		s.log.Error().Err(err).Str("user_id", userID).Msg("статистика не обновлена")
	}
}

func (s *Service) reject(kind domain.PostType, err error) (domain.ResolvedPost, error) {
	metrics.IncPostRejected(string(kind), RejectReason(err))
	return domain.ResolvedPost{}, err
}

// RejectReason возвращает метку причины отказа для метрик.
func RejectReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotLoggedIn):
		return "not_logged_in"
	case errors.Is(err, domain.ErrEmptyContent):
		return "empty_content"
	case errors.Is(err, domain.ErrContentTooLong):
		return "content_too_long"
	case errors.Is(err, domain.ErrQuotaExceeded):
		return "quota_exceeded"
	case errors.Is(err, domain.ErrOriginalPostNotFound):
		return "original_not_found"
	case errors.Is(err, domain.ErrStorageFailure):
		return "storage_failure"
	default:
		return "other"
	}
}

package stats

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"posterr/internal/domain"
	"posterr/internal/infra/metrics"
)

// Service сверяет хранимую статистику с постами.
type Service struct {
	users domain.UserRepo
	posts domain.PostRepo
	stats domain.StatsRepo
	log   zerolog.Logger
}

// NewService создаёт сервис сверки.
func NewService(users domain.UserRepo, posts domain.PostRepo, stats domain.StatsRepo, logger zerolog.Logger) *Service {
	return &Service{users: users, posts: posts, stats: stats, log: logger.With().Str("component", "stats").Logger()}
}

// Reconcile пересчитывает статистику по постам и перезаписывает расходящиеся агрегаты.
// Возвращает число исправленных пользователей.
func (s *Service) Reconcile(ctx context.Context) (int, error) {
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return 0, fmt.Errorf("список пользователей: %w", err)
	}
	fixed := 0
	for _, user := range users {
		if err := ctx.Err(); err != nil {
			return fixed, err
		}
		posts, err := s.posts.GetPostsByAuthor(ctx, user.ID)
		if err != nil {
			return fixed, fmt.Errorf("посты пользователя %s: %w", user.ID, err)
		}
		derived := domain.DeriveStats(user.ID, posts)
		stored, err := s.stats.GetStats(ctx, user.ID)
		if err != nil {
			return fixed, fmt.Errorf("статистика пользователя %s: %w", user.ID, err)
		}
		if stored == derived {
			continue
		}
		if err := s.stats.ReplaceStats(ctx, derived); err != nil {
			return fixed, fmt.Errorf("запись статистики %s: %w", user.ID, err)
		}
		fixed++
		metrics.StatsReconciled.Inc()
		s.log.Info().Str("user_id", user.ID).Int("stored_total", stored.Total()).Int("derived_total", derived.Total()).Msg("статистика исправлена")
	}
	return fixed, nil
}

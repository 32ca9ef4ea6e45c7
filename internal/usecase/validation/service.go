package validation

import (
	"context"

	"posterr/internal/domain"
)

// Service проверяет правила публикации. Только чтение, без побочных эффектов.
//
// Существование исходного поста для репоста и цитаты здесь не проверяется:
// это делает конвейер создания, который всё равно загружает исходный пост.
type Service struct {
	quota domain.QuotaRepo
	clock domain.Clock
	limit int
}

// NewService создаёт валидатор с дневным лимитом domain.DailyPostLimit.
func NewService(quota domain.QuotaRepo, clock domain.Clock) *Service {
	return &Service{quota: quota, clock: clock, limit: domain.DailyPostLimit}
}

// ValidateOriginal проверяет вход, содержимое и квоту именно в этом порядке.
func (s *Service) ValidateOriginal(ctx context.Context, sess domain.Session, content string) error {
	if !sess.LoggedIn() {
		return domain.ErrNotLoggedIn
	}
	if err := domain.ValidateContent(content); err != nil {
		return err
	}
	return s.checkQuota(ctx, sess.UserID)
}

// ValidateRepost проверяет вход и квоту; содержимое репоста не проверяется.
func (s *Service) ValidateRepost(ctx context.Context, sess domain.Session) error {
	if !sess.LoggedIn() {
		return domain.ErrNotLoggedIn
	}
	return s.checkQuota(ctx, sess.UserID)
}

// ValidateQuote повторяет проверки оригинального поста.
func (s *Service) ValidateQuote(ctx context.Context, sess domain.Session, content string) error {
	return s.ValidateOriginal(ctx, sess, content)
}

// PostsCountToday возвращает число постов пользователя сессии за сегодня.
func (s *Service) PostsCountToday(ctx context.Context, sess domain.Session) (int, error) {
	if !sess.LoggedIn() {
		return 0, nil
	}
	count, err := s.quota.CountForDay(ctx, sess.UserID, s.clock.Today())
	if err != nil {
		return 0, domain.NewStorageError("Failed to read daily quota", err)
	}
	return count, nil
}

// RemainingToday возвращает остаток квоты, не меньше нуля.
func (s *Service) RemainingToday(ctx context.Context, sess domain.Session) (int, error) {
	if !sess.LoggedIn() {
		return 0, nil
	}
	count, err := s.PostsCountToday(ctx, sess)
	if err != nil {
		return 0, err
	}
	return max(s.limit-count, 0), nil
}

// CanPostToday сообщает, остались ли публикации на сегодня.
func (s *Service) CanPostToday(ctx context.Context, sess domain.Session) (bool, error) {
	remaining, err := s.RemainingToday(ctx, sess)
	if err != nil {
		return false, err
	}
	return remaining > 0, nil
}

// Today возвращает ключ текущего дня квоты.
func (s *Service) Today() string {
	return s.clock.Today()
}

func (s *Service) checkQuota(ctx context.Context, userID string) error {
	count, err := s.quota.CountForDay(ctx, userID, s.clock.Today())
	if err != nil {
		return domain.NewStorageError("Failed to read daily quota", err)
	}
	if count >= s.limit {
		return domain.ErrQuotaExceeded
	}
	return nil
}

package quota

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"posterr/internal/domain"
	"posterr/internal/infra/metrics"
)

// BreakerSettings задаёт порог и паузу circuit breaker.
type BreakerSettings struct {
	Name             string
	ConsecutiveFails uint32
	OpenTimeout      time.Duration
}

// BreakerStore защищает хранилище квоты circuit breaker'ом: после серии сбоев
// вызовы сразу получают gobreaker.ErrOpenState, не нагружая хранилище.
type BreakerStore struct {
	next domain.QuotaRepo
	cb   *gobreaker.CircuitBreaker
}

var _ domain.QuotaRepo = (*BreakerStore)(nil)

// NewBreakerStore оборачивает хранилище квоты.
func NewBreakerStore(next domain.QuotaRepo, settings BreakerSettings, logger zerolog.Logger) *BreakerStore {
	if settings.ConsecutiveFails == 0 {
		settings.ConsecutiveFails = 5
	}
	if settings.OpenTimeout <= 0 {
		settings.OpenTimeout = 30 * time.Second
	}
	if settings.Name == "" {
		settings.Name = "quota"
	}
	threshold := settings.ConsecutiveFails
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    settings.Name,
		Timeout: settings.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.QuotaBreakerState.Set(stateValue(to))
			logger.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("quota: состояние breaker изменилось")
		},
	})
	return &BreakerStore{next: next, cb: cb}
}

// State возвращает текущее состояние breaker.
func (s *BreakerStore) State() gobreaker.State {
	return s.cb.State()
}

// CountForDay реализует domain.QuotaRepo.
func (s *BreakerStore) CountForDay(ctx context.Context, userID, day string) (int, error) {
	res, err := s.cb.Execute(func() (interface{}, error) {
		return s.next.CountForDay(ctx, userID, day)
	})
	if err != nil {
		return 0, err
	}
	return res.(int), nil
}

// IncrementForDay реализует domain.QuotaRepo.
func (s *BreakerStore) IncrementForDay(ctx context.Context, userID, day string) error {
	_, err := s.cb.Execute(func() (interface{}, error) {
		return nil, s.next.IncrementForDay(ctx, userID, day)
	})
	return err
}

func stateValue(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

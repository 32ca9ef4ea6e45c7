package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"posterr/internal/adapters/memory"
	"posterr/internal/adapters/quota"
	"posterr/internal/adapters/repo"
	"posterr/internal/adapters/seed"
	"posterr/internal/domain"
	"posterr/internal/infra/cache"
	"posterr/internal/infra/config"
	"posterr/internal/infra/db"
	"posterr/internal/usecase/feed"
	"posterr/internal/usecase/posts"
	"posterr/internal/usecase/stats"
	"posterr/internal/usecase/validation"
)

const authorCacheItems = 10_000

// App связывает хранилища и сценарии по конфигурации.
type App struct {
	Log   zerolog.Logger
	Clock domain.Clock

	Users domain.UserRepo
	Posts domain.PostRepo
	Stats domain.StatsRepo
	Quota domain.QuotaRepo

	Validator *validation.Service
	PostsUC   *posts.Service
	FeedUC    *feed.Service
	StatsUC   *stats.Service

	resetters []domain.Resetter
	closers   []func()
}

// New собирает приложение. Без PG_DSN данные живут в памяти процесса,
// с REDIS_ADDR дневная квота и кэш имён авторов переезжают в Redis.
func New(ctx context.Context, cfg config.AppConfig, logger zerolog.Logger) (*App, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("часовой пояс %q: %w", cfg.TZ, err)
	}
	a := &App{Log: logger, Clock: domain.NewClock(loc)}

	if cfg.PGDSN != "" {
		pool, err := db.Connect(ctx, cfg.PGDSN)
		if err != nil {
			return nil, fmt.Errorf("подключение к БД: %w", err)
		}
		a.closers = append(a.closers, pool.Close)
		pg := repo.NewPostgres(pool)
		if err := pg.Migrate(ctx); err != nil {
			a.Close()
			return nil, err
		}
		a.Users, a.Posts, a.Stats, a.Quota = pg, pg, pg, pg
		a.resetters = append(a.resetters, pg)
		logger.Info().Msg("app: хранилище postgres")
	} else {
		mem := memory.NewStore()
		a.Users, a.Posts, a.Stats, a.Quota = mem, mem, mem, mem
		a.resetters = append(a.resetters, mem)
		logger.Info().Msg("app: хранилище в памяти")
	}

	var authors domain.Cache
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			a.Close()
			return nil, fmt.Errorf("подключение к redis: %w", err)
		}
		a.closers = append(a.closers, func() { _ = client.Close() })
		redisQuota := quota.NewRedisStore(client, cfg.Quota.KeyPrefix, cfg.Quota.KeyTTL)
		a.Quota = redisQuota
		a.resetters = append(a.resetters, redisQuota)
		authors = cache.NewRedis(client, "posterr:authors")
		logger.Info().Str("addr", cfg.RedisAddr).Msg("app: квота в redis")
	} else {
		local, err := cache.NewLocal(authorCacheItems)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("локальный кэш: %w", err)
		}
		authors = local
	}

	a.Quota = quota.NewBreakerStore(a.Quota, quota.BreakerSettings{
		Name:             "quota",
		ConsecutiveFails: cfg.Quota.BreakerTrips,
		OpenTimeout:      cfg.Quota.BreakerTimeout,
	}, logger)

	a.Validator = validation.NewService(a.Quota, a.Clock)
	a.PostsUC = posts.NewService(a.Validator, a.Users, a.Posts, a.Quota, a.Stats, a.Clock, logger)
	a.FeedUC = feed.NewService(a.Users, a.Posts, a.Stats, authors, cfg.Cache.AuthorTTL, logger)
	a.StatsUC = stats.NewService(a.Users, a.Posts, a.Stats, logger)

	if cfg.Seed {
		if _, err := a.Seed(ctx); err != nil {
			a.Close()
			return nil, err
		}
	}
	return a, nil
}

// Session возвращает сессию вошедшего пользователя.
func (a *App) Session(ctx context.Context) (domain.Session, error) {
	return domain.ResolveSession(ctx, a.Users)
}

// Seed заполняет пустое хранилище демонстрационными данными.
func (a *App) Seed(ctx context.Context) (bool, error) {
	seeded, err := seed.Seed(ctx, a.Users, a.Posts, a.Stats, a.Clock.Time())
	if err != nil {
		return false, fmt.Errorf("заполнение: %w", err)
	}
	if seeded {
		a.Log.Info().Msg("app: демонстрационные данные загружены")
	}
	return seeded, nil
}

// Reset удаляет все данные, включая дневные счётчики.
func (a *App) Reset(ctx context.Context) error {
	var errs []error
	for _, r := range a.resetters {
		if err := r.Reset(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close освобождает подключения.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

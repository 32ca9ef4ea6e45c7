package domain

import (
	"context"
	"time"
)

// UserRepo управляет пользователями.
type UserRepo interface {
	GetUserByID(ctx context.Context, id string) (User, bool, error)
	GetLoggedInUser(ctx context.Context) (User, bool, error)
	ListUsers(ctx context.Context) ([]User, error)
	UpsertUser(ctx context.Context, user User) error
	// SetLoggedIn отмечает пользователя вошедшим и снимает флаг со всех остальных.
	SetLoggedIn(ctx context.Context, userID string) error
}

// StatsRepo хранит агрегированную статистику пользователей.
type StatsRepo interface {
	GetStats(ctx context.Context, userID string) (UserStats, error)
	IncrementStats(ctx context.Context, userID string, kind PostType) error
	ReplaceStats(ctx context.Context, stats UserStats) error
}

// PostRepo хранит посты. Списки отдаются от новых к старым.
type PostRepo interface {
	GetAllPosts(ctx context.Context) ([]Post, error)
	GetPostByID(ctx context.Context, id string) (Post, bool, error)
	GetPostsByAuthor(ctx context.Context, userID string) ([]Post, error)
	InsertPost(ctx context.Context, post Post) error
}

// QuotaRepo хранит дневные счётчики постов.
type QuotaRepo interface {
	// CountForDay возвращает число постов за день. Отсутствие записи означает ноль.
	CountForDay(ctx context.Context, userID, day string) (int, error)
	// IncrementForDay атомарно увеличивает счётчик (создаёт его со значением 1).
	IncrementForDay(ctx context.Context, userID, day string) error
}

// Resetter удаляет все данные. Только так удаляются дневные счётчики.
type Resetter interface {
	Reset(ctx context.Context) error
}

// Cache используется для простых TTL-хранилищ.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string, ttl time.Duration)
}

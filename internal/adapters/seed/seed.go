package seed

import (
	"context"
	"fmt"
	"time"

	"posterr/internal/domain"
)

type seedUser struct {
	id       string
	username string
	joined   time.Duration
	loggedIn bool
}

type seedPost struct {
	id       string
	content  string
	author   string
	kind     domain.PostType
	age      time.Duration
	original string
}

const day = 24 * time.Hour

var users = []seedUser{
	{"user1", "jardimtech", 1000 * day, true},
	{"user2", "androiddev", 800 * day, false},
	{"user3", "kotlinlover", 700 * day, false},
	{"user4", "composefan", 600 * day, false},
}

// Исходные посты идут раньше ссылающихся на них.
var posts = []seedPost{
	{"post1", "Hello! Welcome to Posterr! 🚀", "user1", domain.PostTypeOriginal, 2 * day, ""},
	{"post2", "Jetpack Compose is amazing for Android development! #AndroidDev #Compose", "user2", domain.PostTypeOriginal, day, ""},
	{"post3", "Kotlin is the best language for Android! Null safety is fantastic! 🎯", "user3", domain.PostTypeOriginal, 6 * time.Hour, ""},
	{"post4", "Clean Architecture + Jetpack Compose = Quality Android applications! ✨", "user4", domain.PostTypeOriginal, 3 * time.Hour, ""},
	{"repost1", "", "user1", domain.PostTypeRepost, 12 * time.Hour, "post2"},
	{"repost2", "", "user3", domain.PostTypeRepost, 8 * time.Hour, "post1"},
	{"quote1", "I totally agree! Compose revolutionized Android development! 🎉", "user4", domain.PostTypeQuote, 4 * time.Hour, "post2"},
	{"quote2", "Kotlin really is superior! Null safety + Coroutines = maximum productivity! 💪", "user2", domain.PostTypeQuote, 2 * time.Hour, "post3"},
}

// Seed заполняет пустое хранилище демонстрационными данными.
// Если пользователи уже есть, ничего не делает и возвращает false.
// Данные строятся через NewUser и NewPost и подчиняются тем же инвариантам.
func Seed(ctx context.Context, userRepo domain.UserRepo, postRepo domain.PostRepo, statsRepo domain.StatsRepo, now time.Time) (bool, error) {
	existing, err := userRepo.ListUsers(ctx)
	if err != nil {
		return false, fmt.Errorf("список пользователей: %w", err)
	}
	if len(existing) > 0 {
		return false, nil
	}

	for _, item := range users {
		user, err := domain.NewUser(item.id, item.username, now.Add(-item.joined), item.loggedIn)
		if err != nil {
			return false, fmt.Errorf("пользователь %s: %w", item.id, err)
		}
		if err := userRepo.UpsertUser(ctx, user); err != nil {
			return false, fmt.Errorf("сохранение пользователя %s: %w", item.id, err)
		}
	}

	byAuthor := make(map[string][]domain.Post)
	for _, item := range posts {
		post, err := domain.NewPost(item.id, item.content, item.author, item.kind, now.Add(-item.age), item.original)
		if err != nil {
			return false, fmt.Errorf("пост %s: %w", item.id, err)
		}
		if err := postRepo.InsertPost(ctx, post); err != nil {
			return false, fmt.Errorf("сохранение поста %s: %w", item.id, err)
		}
		byAuthor[post.AuthorID] = append(byAuthor[post.AuthorID], post)
	}

	for _, item := range users {
		if err := statsRepo.ReplaceStats(ctx, domain.DeriveStats(item.id, byAuthor[item.id])); err != nil {
			return false, fmt.Errorf("статистика %s: %w", item.id, err)
		}
	}
	return true, nil
}

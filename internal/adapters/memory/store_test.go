package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"posterr/internal/domain"
)

func TestIncrementForDayConcurrent(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.IncrementForDay(ctx, "u1", "2024-05-01")
		}()
	}
	wg.Wait()

	count, err := store.CountForDay(ctx, "u1", "2024-05-01")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if count != 100 {
		t.Fatalf("ожидали 100, получили %d", count)
	}
}

func TestCountForDayMissingIsZero(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		count, err := store.CountForDay(ctx, "nobody", "2024-05-01")
		if err != nil || count != 0 {
			t.Fatalf("ожидали 0 без ошибки, получили %d, %v", count, err)
		}
	}
}

func TestInsertAndFetchRoundTrip(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	post, err := domain.NewPost("p1", "hello", "u1", domain.PostTypeOriginal, time.Now(), "")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if err := store.InsertPost(ctx, post); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	got, ok, err := store.GetPostByID(ctx, "p1")
	if err != nil || !ok {
		t.Fatalf("ожидали найти пост: %v", err)
	}
	if got != post {
		t.Fatalf("ожидали %+v, получили %+v", post, got)
	}
}

func TestPostsNewestFirst(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	_ = store.InsertPost(ctx, domain.Post{ID: "old", AuthorID: "u1", Type: domain.PostTypeOriginal, Content: "a", CreatedAt: base})
	_ = store.InsertPost(ctx, domain.Post{ID: "new", AuthorID: "u1", Type: domain.PostTypeOriginal, Content: "b", CreatedAt: base.Add(time.Hour)})
	_ = store.InsertPost(ctx, domain.Post{ID: "other", AuthorID: "u2", Type: domain.PostTypeOriginal, Content: "c", CreatedAt: base.Add(2 * time.Hour)})

	all, _ := store.GetAllPosts(ctx)
	if len(all) != 3 || all[0].ID != "other" || all[2].ID != "old" {
		t.Fatalf("неверный порядок: %+v", all)
	}
	mine, _ := store.GetPostsByAuthor(ctx, "u1")
	if len(mine) != 2 || mine[0].ID != "new" {
		t.Fatalf("неверные посты автора: %+v", mine)
	}
}

func TestSingleLoggedInUser(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	u1, _ := domain.NewUser("u1", "first", time.Now(), true)
	u2, _ := domain.NewUser("u2", "second", time.Now(), false)
	_ = store.UpsertUser(ctx, u1)
	_ = store.UpsertUser(ctx, u2)

	if err := store.SetLoggedIn(ctx, "u2"); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	users, _ := store.ListUsers(ctx)
	loggedIn := 0
	for _, u := range users {
		if u.LoggedIn {
			loggedIn++
			if u.ID != "u2" {
				t.Fatalf("ожидали вошедшим u2, получили %s", u.ID)
			}
		}
	}
	if loggedIn != 1 {
		t.Fatalf("ожидали одного вошедшего, получили %d", loggedIn)
	}
	if err := store.SetLoggedIn(ctx, "ghost"); err != domain.ErrUserNotFound {
		t.Fatalf("ожидали ErrUserNotFound, получили %v", err)
	}
}

func TestResetClearsCounts(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	_ = store.IncrementForDay(ctx, "u1", "2024-05-01")
	_ = store.IncrementStats(ctx, "u1", domain.PostTypeQuote)
	if err := store.Reset(ctx); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	count, _ := store.CountForDay(ctx, "u1", "2024-05-01")
	stats, _ := store.GetStats(ctx, "u1")
	if count != 0 || stats.Total() != 0 {
		t.Fatalf("ожидали пустое хранилище, получили count=%d stats=%+v", count, stats)
	}
}

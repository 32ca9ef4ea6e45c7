package seed

import (
	"context"
	"testing"
	"time"

	"posterr/internal/adapters/memory"
	"posterr/internal/domain"
)

func TestSeedPopulatesConsistentData(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	seeded, err := Seed(ctx, store, store, store, now)
	if err != nil || !seeded {
		t.Fatalf("ожидали заполнение, получили %v (%v)", seeded, err)
	}

	list, _ := store.ListUsers(ctx)
	if len(list) != 4 {
		t.Fatalf("ожидали 4 пользователя, получили %d", len(list))
	}
	me, ok, _ := store.GetLoggedInUser(ctx)
	if !ok || me.ID != "user1" || me.Username != "jardimtech" {
		t.Fatalf("ожидали вошедшего user1, получили %+v", me)
	}

	all, _ := store.GetAllPosts(ctx)
	if len(all) != 8 {
		t.Fatalf("ожидали 8 постов, получили %d", len(all))
	}
	for _, post := range all {
		if err := post.Validate(); err != nil {
			t.Fatalf("пост %s нарушает инварианты: %v", post.ID, err)
		}
		if post.OriginalPostID == "" {
			continue
		}
		if _, ok, _ := store.GetPostByID(ctx, post.OriginalPostID); !ok {
			t.Fatalf("пост %s ссылается на несуществующий %s", post.ID, post.OriginalPostID)
		}
	}

	for _, user := range list {
		byAuthor, _ := store.GetPostsByAuthor(ctx, user.ID)
		stored, _ := store.GetStats(ctx, user.ID)
		if derived := domain.DeriveStats(user.ID, byAuthor); derived != stored {
			t.Fatalf("статистика %s расходится: %+v и %+v", user.ID, stored, derived)
		}
	}

	count, _ := store.CountForDay(ctx, "user1", domain.DayKey(now, time.UTC))
	if count != 0 {
		t.Fatalf("заполнение не трогает квоту, получили %d", count)
	}
}

func TestSeedSkipsNonEmptyStore(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	now := time.Now()

	if _, err := Seed(ctx, store, store, store, now); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	seeded, err := Seed(ctx, store, store, store, now)
	if err != nil || seeded {
		t.Fatalf("повторное заполнение пропускается, получили %v (%v)", seeded, err)
	}
}

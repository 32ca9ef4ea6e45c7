package validation

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"posterr/internal/domain"
)

type stubQuota struct {
	counts map[string]int
	err    error
	reads  int
}

func (s *stubQuota) CountForDay(_ context.Context, userID, day string) (int, error) {
	s.reads++
	if s.err != nil {
		return 0, s.err
	}
	return s.counts[userID+"|"+day], nil
}

func (s *stubQuota) IncrementForDay(_ context.Context, userID, day string) error {
	s.counts[userID+"|"+day]++
	return nil
}

func fixedClock() domain.Clock {
	return domain.Clock{
		Now:      func() time.Time { return time.Date(2024, 5, 1, 15, 0, 0, 0, time.UTC) },
		Location: time.UTC,
	}
}

func newService(counts map[string]int) (*Service, *stubQuota) {
	quota := &stubQuota{counts: counts}
	return NewService(quota, fixedClock()), quota
}

func TestValidateOriginalRanges(t *testing.T) {
	svc, _ := newService(map[string]int{})
	sess := domain.Session{UserID: "u1"}
	ctx := context.Background()

	cases := []struct {
		name    string
		content string
		want    error
	}{
		{"один символ", "a", nil},
		{"ровно лимит", strings.Repeat("a", 777), nil},
		{"лимит в рунах", strings.Repeat("ж", 777), nil},
		{"больше лимита", strings.Repeat("a", 778), domain.ErrContentTooLong},
		{"пусто", "", domain.ErrEmptyContent},
		{"пробелы", " \n\t ", domain.ErrEmptyContent},
	}
	for _, tc := range cases {
		err := svc.ValidateOriginal(ctx, sess, tc.content)
		if !errors.Is(err, tc.want) {
			t.Fatalf("%s: ожидали %v, получили %v", tc.name, tc.want, err)
		}
	}
}

func TestLoginCheckedFirst(t *testing.T) {
	svc, quota := newService(map[string]int{})
	ctx := context.Background()

	if err := svc.ValidateOriginal(ctx, domain.Session{}, ""); !errors.Is(err, domain.ErrNotLoggedIn) {
		t.Fatalf("ожидали ErrNotLoggedIn, получили %v", err)
	}
	if err := svc.ValidateRepost(ctx, domain.Session{}); !errors.Is(err, domain.ErrNotLoggedIn) {
		t.Fatalf("ожидали ErrNotLoggedIn, получили %v", err)
	}
	if err := svc.ValidateQuote(ctx, domain.Session{}, "x"); !errors.Is(err, domain.ErrNotLoggedIn) {
		t.Fatalf("ожидали ErrNotLoggedIn, получили %v", err)
	}
	if quota.reads != 0 {
		t.Fatalf("квота не должна читаться без входа, чтений: %d", quota.reads)
	}
}

func TestContentCheckedBeforeQuota(t *testing.T) {
	svc, _ := newService(map[string]int{"u1|2024-05-01": 5})
	err := svc.ValidateOriginal(context.Background(), domain.Session{UserID: "u1"}, "")
	if !errors.Is(err, domain.ErrEmptyContent) {
		t.Fatalf("ожидали ErrEmptyContent, получили %v", err)
	}
}

func TestQuotaBoundary(t *testing.T) {
	ctx := context.Background()
	sess := domain.Session{UserID: "u1"}

	svc, _ := newService(map[string]int{"u1|2024-05-01": 4})
	if err := svc.ValidateOriginal(ctx, sess, "x"); err != nil {
		t.Fatalf("при 4 постах публикация разрешена: %v", err)
	}
	if err := svc.ValidateRepost(ctx, sess); err != nil {
		t.Fatalf("при 4 постах репост разрешён: %v", err)
	}

	svc, _ = newService(map[string]int{"u1|2024-05-01": 5})
	if err := svc.ValidateOriginal(ctx, sess, "x"); !errors.Is(err, domain.ErrQuotaExceeded) {
		t.Fatalf("ожидали ErrQuotaExceeded, получили %v", err)
	}
	if err := svc.ValidateRepost(ctx, sess); !errors.Is(err, domain.ErrQuotaExceeded) {
		t.Fatalf("ожидали ErrQuotaExceeded, получили %v", err)
	}
	if err := svc.ValidateQuote(ctx, sess, "x"); !errors.Is(err, domain.ErrQuotaExceeded) {
		t.Fatalf("ожидали ErrQuotaExceeded, получили %v", err)
	}
	if err := svc.ValidateOriginal(ctx, sess, "x"); err.Error() != "Daily limit of 5 posts reached" {
		t.Fatalf("неожиданный текст ошибки: %q", err.Error())
	}
}

func TestQuotaCountedPerDay(t *testing.T) {
	svc, _ := newService(map[string]int{"u1|2024-04-30": 5})
	if err := svc.ValidateOriginal(context.Background(), domain.Session{UserID: "u1"}, "x"); err != nil {
		t.Fatalf("вчерашние посты не должны учитываться: %v", err)
	}
}

func TestQuotaReadFailureFailsClosed(t *testing.T) {
	svc, quota := newService(map[string]int{})
	quota.err = errors.New("timeout")

	err := svc.ValidateRepost(context.Background(), domain.Session{UserID: "u1"})
	if !errors.Is(err, domain.ErrStorageFailure) {
		t.Fatalf("ожидали ErrStorageFailure, получили %v", err)
	}
}

func TestRemainingToday(t *testing.T) {
	ctx := context.Background()
	sess := domain.Session{UserID: "u1"}

	svc, _ := newService(map[string]int{"u1|2024-05-01": 3})
	remaining, err := svc.RemainingToday(ctx, sess)
	if err != nil || remaining != 2 {
		t.Fatalf("ожидали 2, получили %d (%v)", remaining, err)
	}
	ok, _ := svc.CanPostToday(ctx, sess)
	if !ok {
		t.Fatalf("ожидали разрешение на публикацию")
	}

	svc, _ = newService(map[string]int{"u1|2024-05-01": 7})
	remaining, _ = svc.RemainingToday(ctx, sess)
	if remaining != 0 {
		t.Fatalf("остаток не может быть отрицательным: %d", remaining)
	}
	ok, _ = svc.CanPostToday(ctx, sess)
	if ok {
		t.Fatalf("лимит исчерпан")
	}

	count, err := svc.PostsCountToday(ctx, domain.Session{})
	if err != nil || count != 0 {
		t.Fatalf("без сессии ожидали 0, получили %d (%v)", count, err)
	}
}

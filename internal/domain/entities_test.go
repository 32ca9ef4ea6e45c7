package domain

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestNewUser(t *testing.T) {
	tests := []struct {
		name     string
		username string
		want     error
	}{
		{name: "valid", username: "jardimtech", want: nil},
		{name: "max length", username: strings.Repeat("a", 14), want: nil},
		{name: "unicode letters", username: "café42", want: nil},
		{name: "empty", username: "", want: ErrUsernameEmpty},
		{name: "blank", username: "   ", want: ErrUsernameEmpty},
		{name: "too long", username: strings.Repeat("a", 15), want: ErrUsernameTooLong},
		{name: "punctuation", username: "john_doe", want: ErrUsernameInvalid},
		{name: "inner space", username: "john doe", want: ErrUsernameInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewUser("user1", tt.username, time.Now(), false)
			if !errors.Is(err, tt.want) {
				t.Fatalf("NewUser(%q) = %v, want %v", tt.username, err, tt.want)
			}
		})
	}
}

func TestNewPostInvariants(t *testing.T) {
	now := time.Now()
	long := strings.Repeat("a", MaxContentLength+1)
	tests := []struct {
		name     string
		content  string
		kind     PostType
		original string
		want     error
	}{
		{name: "original ok", content: "hello", kind: PostTypeOriginal, want: nil},
		{name: "original at limit", content: strings.Repeat("b", MaxContentLength), kind: PostTypeOriginal, want: nil},
		{name: "original blank", content: " \n\t", kind: PostTypeOriginal, want: ErrEmptyContent},
		{name: "original too long", content: long, kind: PostTypeOriginal, want: ErrContentTooLong},
		{name: "original with reference", content: "hi", kind: PostTypeOriginal, original: "p1", want: ErrOriginalNotAllowed},
		{name: "repost empty content", content: "", kind: PostTypeRepost, original: "p1", want: nil},
		{name: "repost without reference", kind: PostTypeRepost, want: ErrOriginalRequired},
		{name: "quote ok", content: "agree", kind: PostTypeQuote, original: "p1", want: nil},
		{name: "quote blank", content: "", kind: PostTypeQuote, original: "p1", want: ErrEmptyContent},
		{name: "quote too long", content: long, kind: PostTypeQuote, original: "p1", want: ErrContentTooLong},
		{name: "quote without reference", content: "agree", kind: PostTypeQuote, want: ErrOriginalRequired},
		{name: "unknown kind", content: "x", kind: PostType("STORY"), want: ErrUnknownPostType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPost("id", tt.content, "user1", tt.kind, now, tt.original)
			if !errors.Is(err, tt.want) {
				t.Fatalf("NewPost = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestContentLengthCountsRunes(t *testing.T) {
	content := strings.Repeat("ж", MaxContentLength)
	if err := ValidateContent(content); err != nil {
		t.Fatalf("не ожидали ошибку для %d кириллических символов: %v", MaxContentLength, err)
	}
}

func TestDeriveStats(t *testing.T) {
	posts := []Post{
		{AuthorID: "u1", Type: PostTypeOriginal},
		{AuthorID: "u1", Type: PostTypeOriginal},
		{AuthorID: "u1", Type: PostTypeRepost},
		{AuthorID: "u1", Type: PostTypeQuote},
		{AuthorID: "u2", Type: PostTypeQuote},
	}
	stats := DeriveStats("u1", posts)
	if stats.Originals != 2 || stats.Reposts != 1 || stats.Quotes != 1 {
		t.Fatalf("неверная статистика: %+v", stats)
	}
	if stats.Total() != 4 {
		t.Fatalf("ожидали total 4, получили %d", stats.Total())
	}
}

func TestDayKeyTruncatesInLocation(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	ts := time.Date(2024, 3, 10, 22, 30, 15, 500, time.UTC)
	if got := DayKey(ts, loc); got != "2024-03-11" {
		t.Fatalf("ожидали 2024-03-11, получили %s", got)
	}
	start := StartOfDay(ts, loc)
	if start.Hour() != 0 || start.Minute() != 0 || start.Second() != 0 || start.Nanosecond() != 0 {
		t.Fatalf("ожидали начало дня, получили %v", start)
	}
}

func TestStorageErrorMatchesSentinel(t *testing.T) {
	err := NewStorageError("Failed to create post", errors.New("disk full"))
	if !errors.Is(err, ErrStorageFailure) {
		t.Fatalf("ожидали совпадение с ErrStorageFailure")
	}
	if err.Error() != "Failed to create post: disk full" {
		t.Fatalf("неожиданный текст: %s", err.Error())
	}
}

package domain

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

const (
	// DailyPostLimit ограничивает, сколько постов пользователь может создать за календарный день.
	DailyPostLimit = 5
	// MaxContentLength задаёт максимальную длину текста поста в символах.
	MaxContentLength = 777
	// MaxUsernameLength задаёт максимальную длину отображаемого имени.
	MaxUsernameLength = 14
)

var usernameValidator = validator.New()

// User описывает пользователя Posterr.
type User struct {
	ID       string    `json:"id"`
	Username string    `json:"username" validate:"max=14,alphanumunicode"`
	JoinedAt time.Time `json:"joined_at"`
	LoggedIn bool      `json:"logged_in"`
}

// NewUser создаёт пользователя, проверяя отображаемое имя.
func NewUser(id, username string, joinedAt time.Time, loggedIn bool) (User, error) {
	user := User{ID: id, Username: username, JoinedAt: joinedAt, LoggedIn: loggedIn}
	if err := user.Validate(); err != nil {
		return User{}, err
	}
	return user, nil
}

// Validate проверяет инварианты пользователя.
func (u User) Validate() error {
	if strings.TrimSpace(u.ID) == "" {
		return ErrUserIDEmpty
	}
	if strings.TrimSpace(u.Username) == "" {
		return ErrUsernameEmpty
	}
	if err := usernameValidator.Struct(u); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 && fieldErrs[0].Tag() == "max" {
			return ErrUsernameTooLong
		}
		return ErrUsernameInvalid
	}
	return nil
}

// PostType задаёт вид поста.
type PostType string

const (
	PostTypeOriginal PostType = "ORIGINAL"
	PostTypeRepost   PostType = "REPOST"
	PostTypeQuote    PostType = "QUOTE"
)

// ParsePostType приводит строку из хранилища к PostType.
func ParsePostType(raw string) (PostType, error) {
	switch PostType(strings.ToUpper(strings.TrimSpace(raw))) {
	case PostTypeOriginal:
		return PostTypeOriginal, nil
	case PostTypeRepost:
		return PostTypeRepost, nil
	case PostTypeQuote:
		return PostTypeQuote, nil
	}
	return "", ErrUnknownPostType
}

// Post — сохранённый пост. На исходный пост ссылается только по идентификатору.
type Post struct {
	ID             string    `json:"id"`
	Content        string    `json:"content"`
	AuthorID       string    `json:"author_id"`
	Type           PostType  `json:"type"`
	CreatedAt      time.Time `json:"created_at"`
	OriginalPostID string    `json:"original_post_id,omitempty"`
}

// NewPost собирает пост и отклоняет его, если нарушен инвариант для его вида.
func NewPost(id, content, authorID string, kind PostType, createdAt time.Time, originalPostID string) (Post, error) {
	post := Post{
		ID:             id,
		Content:        content,
		AuthorID:       authorID,
		Type:           kind,
		CreatedAt:      createdAt,
		OriginalPostID: originalPostID,
	}
	if err := post.Validate(); err != nil {
		return Post{}, err
	}
	return post, nil
}

// Validate проверяет инварианты поста независимо от валидатора use case.
func (p Post) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return ErrPostIDEmpty
	}
	if strings.TrimSpace(p.AuthorID) == "" {
		return ErrAuthorEmpty
	}
	switch p.Type {
	case PostTypeOriginal:
		if err := ValidateContent(p.Content); err != nil {
			return err
		}
		if p.OriginalPostID != "" {
			return ErrOriginalNotAllowed
		}
	case PostTypeRepost:
		if p.OriginalPostID == "" {
			return ErrOriginalRequired
		}
	case PostTypeQuote:
		if err := ValidateContent(p.Content); err != nil {
			return err
		}
		if p.OriginalPostID == "" {
			return ErrOriginalRequired
		}
	default:
		return ErrUnknownPostType
	}
	return nil
}

// ValidateContent проверяет текст на пустоту и длину.
func ValidateContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return ErrEmptyContent
	}
	if utf8.RuneCountInString(content) > MaxContentLength {
		return ErrContentTooLong
	}
	return nil
}

// ResolvedPost — пост вместе с развёрнутым исходным постом.
// Исходный пост разворачивается только на один уровень.
type ResolvedPost struct {
	Post
	Original *Post `json:"original_post,omitempty"`
}

// PostWithAuthor описывает элемент ленты с отображаемым именем автора.
type PostWithAuthor struct {
	ResolvedPost
	AuthorUsername string `json:"author_username"`
}

// DailyPostCount хранит число постов пользователя за день.
type DailyPostCount struct {
	UserID string
	Day    string
	Count  int
}

// UserStats — агрегированная статистика постов пользователя.
type UserStats struct {
	UserID    string `json:"user_id"`
	Originals int    `json:"original_posts"`
	Reposts   int    `json:"reposts"`
	Quotes    int    `json:"quotes"`
}

// Total возвращает общее число постов.
func (s UserStats) Total() int {
	return s.Originals + s.Reposts + s.Quotes
}

// Increment возвращает статистику с увеличенным счётчиком нужного вида.
func (s UserStats) Increment(kind PostType) UserStats {
	switch kind {
	case PostTypeOriginal:
		s.Originals++
	case PostTypeRepost:
		s.Reposts++
	case PostTypeQuote:
		s.Quotes++
	}
	return s
}

// DeriveStats считает статистику по списку постов пользователя.
func DeriveStats(userID string, posts []Post) UserStats {
	stats := UserStats{UserID: userID}
	for _, post := range posts {
		if post.AuthorID != userID {
			continue
		}
		stats = stats.Increment(post.Type)
	}
	return stats
}

// ProfileData объединяет пользователя, его статистику и посты.
type ProfileData struct {
	User  User             `json:"user"`
	Stats UserStats        `json:"stats"`
	Posts []PostWithAuthor `json:"posts"`
}

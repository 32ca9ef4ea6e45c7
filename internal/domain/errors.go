package domain

import "errors"

// Ошибки правил публикации. Текст показывается пользователю как есть.
var (
	ErrNotLoggedIn          = errors.New("User is not logged in")
	ErrEmptyContent         = errors.New("Content cannot be empty")
	ErrContentTooLong       = errors.New("Content cannot exceed 777 characters")
	ErrQuotaExceeded        = errors.New("Daily limit of 5 posts reached")
	ErrOriginalPostNotFound = errors.New("Original post not found")
	ErrUserNotFound         = errors.New("User not found")
	ErrStorageFailure       = errors.New("storage failure")
)

// Ошибки инвариантов сущностей.
var (
	ErrUserIDEmpty        = errors.New("User id cannot be empty")
	ErrUsernameEmpty      = errors.New("Username cannot be empty")
	ErrUsernameTooLong    = errors.New("Username cannot exceed 14 characters")
	ErrUsernameInvalid    = errors.New("Username must contain only alphanumeric characters")
	ErrPostIDEmpty        = errors.New("Post id cannot be empty")
	ErrAuthorEmpty        = errors.New("Post author cannot be empty")
	ErrUnknownPostType    = errors.New("Unknown post type")
	ErrOriginalRequired   = errors.New("Repost and quote must reference original post")
	ErrOriginalNotAllowed = errors.New("Original post cannot have originalPost reference")
)

// StorageError описывает сбой хранилища с понятным пользователю префиксом.
type StorageError struct {
	Op  string
	Err error
}

// NewStorageError оборачивает ошибку хранилища.
func NewStorageError(op string, err error) *StorageError {
	return &StorageError{Op: op, Err: err}
}

func (e *StorageError) Error() string {
	if e.Err == nil {
		return e.Op
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *StorageError) Unwrap() error { return e.Err }

// Is позволяет сравнивать через errors.Is(err, ErrStorageFailure).
func (e *StorageError) Is(target error) bool {
	return target == ErrStorageFailure
}

// Reason возвращает текст ошибки для показа пользователю.
func Reason(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

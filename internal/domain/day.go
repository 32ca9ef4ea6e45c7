package domain

import (
	"context"
	"time"
)

// DayLayout — формат ключа календарного дня.
const DayLayout = "2006-01-02"

// StartOfDay обнуляет часы, минуты, секунды и доли секунды в заданной зоне.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// DayKey возвращает ключ дня для квоты.
func DayKey(t time.Time, loc *time.Location) string {
	return StartOfDay(t, loc).Format(DayLayout)
}

// Clock выдаёт текущее время и ключ сегодняшнего дня.
type Clock struct {
	Now      func() time.Time
	Location *time.Location
}

// NewClock создаёт часы в заданной зоне.
func NewClock(loc *time.Location) Clock {
	return Clock{Now: time.Now, Location: loc}
}

// Today возвращает ключ сегодняшнего дня.
func (c Clock) Today() string {
	return DayKey(c.now(), c.Location)
}

// Time возвращает текущее время.
func (c Clock) Time() time.Time {
	return c.now()
}

func (c Clock) now() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}

// Session — явный контекст вошедшего пользователя.
type Session struct {
	UserID string
}

// LoggedIn сообщает, есть ли в сессии пользователь.
func (s Session) LoggedIn() bool {
	return s.UserID != ""
}

// ResolveSession строит сессию по пользователю с флагом входа.
func ResolveSession(ctx context.Context, users UserRepo) (Session, error) {
	user, ok, err := users.GetLoggedInUser(ctx)
	if err != nil {
		return Session{}, err
	}
	if !ok {
		return Session{}, nil
	}
	return Session{UserID: user.ID}, nil
}

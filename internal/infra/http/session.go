package http

import (
	"context"
	"net/http"

	"posterr/internal/domain"
)

type sessionKey struct{}

// SessionResolver строит сессию вошедшего пользователя.
type SessionResolver func(ctx context.Context) (domain.Session, error)

// SessionMiddleware кладёт сессию в контекст запроса.
// Отсутствие вошедшего пользователя не ошибка: сессия остаётся пустой.
func SessionMiddleware(resolve SessionResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := resolve(r.Context())
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(`{"error":"Failed to resolve session"}` + "\n"))
				return
			}
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
		})
	}
}

// WithSession возвращает контекст с сессией.
func WithSession(ctx context.Context, sess domain.Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, sess)
}

// SessionFrom достаёт сессию из контекста.
func SessionFrom(ctx context.Context) domain.Session {
	sess, _ := ctx.Value(sessionKey{}).(domain.Session)
	return sess
}

package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"posterr/internal/domain"
)

func TestSessionMiddleware(t *testing.T) {
	var got domain.Session
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = SessionFrom(r.Context())
	})
	handler := SessionMiddleware(func(context.Context) (domain.Session, error) {
		return domain.Session{UserID: "u1"}, nil
	})(next)

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if got.UserID != "u1" {
		t.Fatalf("ожидали u1, получили %q", got.UserID)
	}
}

func TestSessionMiddlewareError(t *testing.T) {
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })
	handler := SessionMiddleware(func(context.Context) (domain.Session, error) {
		return domain.Session{}, errors.New("db down")
	})(next)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if called || rec.Code != http.StatusInternalServerError {
		t.Fatalf("ожидали 500 без вызова обработчика, получили %d", rec.Code)
	}
}

func TestSessionFromEmptyContext(t *testing.T) {
	if SessionFrom(context.Background()).LoggedIn() {
		t.Fatalf("пустой контекст не содержит сессии")
	}
}

package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	chi "github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"posterr/internal/domain"
	httpinfra "posterr/internal/infra/http"
	"posterr/internal/usecase/feed"
	"posterr/internal/usecase/posts"
	"posterr/internal/usecase/validation"
)

// Handler обслуживает REST API постов.
type Handler struct {
	log       zerolog.Logger
	postsUC   *posts.Service
	feedUC    *feed.Service
	quotaUC   *validation.Service
	users     domain.UserRepo
	validate  *validator.Validate
	sessionFn httpinfra.SessionResolver
}

// NewHandler создаёт обработчик. Сессия строится по вошедшему пользователю из users.
func NewHandler(log zerolog.Logger, postsUC *posts.Service, feedUC *feed.Service, quotaUC *validation.Service, users domain.UserRepo) *Handler {
	h := &Handler{
		log:      log.With().Str("component", "httpapi").Logger(),
		postsUC:  postsUC,
		feedUC:   feedUC,
		quotaUC:  quotaUC,
		users:    users,
		validate: validator.New(),
	}
	h.sessionFn = func(ctx context.Context) (domain.Session, error) {
		return domain.ResolveSession(ctx, h.users)
	}
	return h
}

type contentRequest struct {
	Content *string `json:"content" validate:"required"`
}

type quotaResponse struct {
	Day       string `json:"day"`
	Used      int    `json:"used"`
	Remaining int    `json:"remaining"`
	Limit     int    `json:"limit"`
}

// Routes регистрирует маршруты /api/v1.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/api/v1", func(api chi.Router) {
		api.Use(httpinfra.SessionMiddleware(h.sessionFn))
		api.Post("/posts", h.createOriginal)
		api.Post("/posts/{id}/repost", h.createRepost)
		api.Post("/posts/{id}/quote", h.createQuote)
		api.Get("/feed", h.allPosts)
		api.Get("/users/{id}/profile", h.profile)
		api.Get("/me/profile", h.myProfile)
		api.Get("/me/quota", h.myQuota)
	})
}

func (h *Handler) createOriginal(w http.ResponseWriter, r *http.Request) {
	var req contentRequest
	if !h.decode(w, r, &req) {
		return
	}
	created, err := h.postsUC.CreateOriginal(r.Context(), httpinfra.SessionFrom(r.Context()), *req.Content)
	h.respondCreated(w, created, err)
}

func (h *Handler) createRepost(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	created, err := h.postsUC.CreateRepost(r.Context(), httpinfra.SessionFrom(r.Context()), id)
	h.respondCreated(w, created, err)
}

func (h *Handler) createQuote(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req contentRequest
	if !h.decode(w, r, &req) {
		return
	}
	created, err := h.postsUC.CreateQuote(r.Context(), httpinfra.SessionFrom(r.Context()), *req.Content, id)
	h.respondCreated(w, created, err)
}

func (h *Handler) allPosts(w http.ResponseWriter, r *http.Request) {
	items, err := h.feedUC.AllPosts(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"posts": items})
}

func (h *Handler) profile(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	profile, err := h.feedUC.Profile(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (h *Handler) myProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.feedUC.LoggedInProfile(r.Context(), httpinfra.SessionFrom(r.Context()))
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (h *Handler) myQuota(w http.ResponseWriter, r *http.Request) {
	sess := httpinfra.SessionFrom(r.Context())
	if !sess.LoggedIn() {
		h.fail(w, domain.ErrNotLoggedIn)
		return
	}
	used, err := h.quotaUC.PostsCountToday(r.Context(), sess)
	if err != nil {
		h.fail(w, err)
		return
	}
	remaining, err := h.quotaUC.RemainingToday(r.Context(), sess)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quotaResponse{
		Day:       h.quotaUC.Today(),
		Used:      used,
		Remaining: remaining,
		Limit:     domain.DailyPostLimit,
	})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Field content is required")
		return false
	}
	return true
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if err := h.validate.Var(id, "required,max=128"); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid id")
		return "", false
	}
	return id, true
}

func (h *Handler) respondCreated(w http.ResponseWriter, created domain.ResolvedPost, err error) {
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		h.log.Error().Err(err).Msg("ошибка обработки запроса")
	}
	writeError(w, status, domain.Reason(err))
}

// StatusFor сопоставляет ошибку HTTP-статусу.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotLoggedIn):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrEmptyContent), errors.Is(err, domain.ErrContentTooLong):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrQuotaExceeded):
		return http.StatusTooManyRequests
	case errors.Is(err, domain.ErrOriginalPostNotFound), errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"error": msg})
}

package feed

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"posterr/internal/domain"
	"posterr/internal/infra/metrics"
)

const authorKeyPrefix = "author:"

// Service собирает ленты и профили для отображения.
//
// Пост, исходный пост которого не найден, остаётся в ленте с пустым Original.
type Service struct {
	users     domain.UserRepo
	posts     domain.PostRepo
	stats     domain.StatsRepo
	authors   domain.Cache
	authorTTL time.Duration
	log       zerolog.Logger
}

// NewService создаёт сервис ленты. authors может быть nil, тогда имена не кэшируются.
func NewService(users domain.UserRepo, posts domain.PostRepo, stats domain.StatsRepo, authors domain.Cache, authorTTL time.Duration, logger zerolog.Logger) *Service {
	return &Service{
		users:     users,
		posts:     posts,
		stats:     stats,
		authors:   authors,
		authorTTL: authorTTL,
		log:       logger.With().Str("component", "feed").Logger(),
	}
}

// AllPosts возвращает все посты от новых к старым.
func (s *Service) AllPosts(ctx context.Context) ([]domain.PostWithAuthor, error) {
	posts, err := s.posts.GetAllPosts(ctx)
	if err != nil {
		return nil, domain.NewStorageError("Failed to load posts", err)
	}
	return s.assemble(ctx, posts), nil
}

// PostsByUser возвращает посты пользователя от новых к старым.
func (s *Service) PostsByUser(ctx context.Context, userID string) ([]domain.PostWithAuthor, error) {
	posts, err := s.posts.GetPostsByAuthor(ctx, userID)
	if err != nil {
		return nil, domain.NewStorageError("Failed to load posts", err)
	}
	return s.assemble(ctx, posts), nil
}

// Profile собирает пользователя, его статистику и посты.
func (s *Service) Profile(ctx context.Context, userID string) (domain.ProfileData, error) {
	user, ok, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return domain.ProfileData{}, domain.NewStorageError("Failed to load user", err)
	}
	if !ok {
		return domain.ProfileData{}, domain.ErrUserNotFound
	}
	stats, err := s.stats.GetStats(ctx, userID)
	if err != nil {
		return domain.ProfileData{}, domain.NewStorageError("Failed to load stats", err)
	}
	posts, err := s.PostsByUser(ctx, userID)
	if err != nil {
		return domain.ProfileData{}, err
	}
	return domain.ProfileData{User: user, Stats: stats, Posts: posts}, nil
}

// LoggedInProfile возвращает профиль пользователя сессии.
func (s *Service) LoggedInProfile(ctx context.Context, sess domain.Session) (domain.ProfileData, error) {
	if !sess.LoggedIn() {
		return domain.ProfileData{}, domain.ErrNotLoggedIn
	}
	return s.Profile(ctx, sess.UserID)
}

func (s *Service) assemble(ctx context.Context, posts []domain.Post) []domain.PostWithAuthor {
	originals := s.resolveOriginals(ctx, posts)
	names := make(map[string]string)
	out := make([]domain.PostWithAuthor, 0, len(posts))
	for _, post := range posts {
		name, ok := names[post.AuthorID]
		if !ok {
			name = s.AuthorName(ctx, post.AuthorID)
			names[post.AuthorID] = name
		}
		item := domain.PostWithAuthor{ResolvedPost: domain.ResolvedPost{Post: post}, AuthorUsername: name}
		if original, ok := originals[post.OriginalPostID]; ok {
			item.Original = &original
		}
		out = append(out, item)
	}
	return out
}

func (s *Service) resolveOriginals(ctx context.Context, posts []domain.Post) map[string]domain.Post {
	known := lo.SliceToMap(posts, func(p domain.Post) (string, domain.Post) { return p.ID, p })
	ids := lo.Uniq(lo.FilterMap(posts, func(p domain.Post, _ int) (string, bool) {
		return p.OriginalPostID, p.OriginalPostID != ""
	}))

	resolved := make(map[string]domain.Post, len(ids))
	for _, id := range ids {
		if post, ok := known[id]; ok {
			resolved[id] = post
			continue
		}
		post, ok, err := s.posts.GetPostByID(ctx, id)
		if err != nil {
			s.log.Warn().Err(err).Str("post_id", id).Msg("не удалось загрузить исходный пост")
			continue
		}
		if ok {
			resolved[id] = post
		}
	}
	return resolved
}

// AuthorName возвращает имя автора или сам идентификатор, если пользователь не найден.
func (s *Service) AuthorName(ctx context.Context, authorID string) string {
	if s.authors != nil {
		if name, ok := s.authors.Get(ctx, authorKeyPrefix+authorID); ok {
			metrics.AuthorCacheLookups.WithLabelValues("hit").Inc()
			return name
		}
		metrics.AuthorCacheLookups.WithLabelValues("miss").Inc()
	}
	user, ok, err := s.users.GetUserByID(ctx, authorID)
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", authorID).Msg("не удалось загрузить автора")
		return authorID
	}
	if !ok {
		return authorID
	}
	if s.authors != nil {
		s.authors.Set(ctx, authorKeyPrefix+authorID, user.Username, s.authorTTL)
	}
	return user.Username
}

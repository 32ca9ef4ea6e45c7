package memory

import (
	"context"
	"sort"
	"sync"

	"posterr/internal/domain"
)

// Store хранит пользователей, посты, квоту и статистику в памяти процесса.
// Все операции над одним ключом выполняются под общим мьютексом, поэтому
// инкремент квоты атомарен.
type Store struct {
	mu     sync.RWMutex
	users  map[string]domain.User
	posts  map[string]domain.Post
	counts map[quotaKey]int
	stats  map[string]domain.UserStats
}

type quotaKey struct {
	userID string
	day    string
}

var (
	_ domain.UserRepo  = (*Store)(nil)
	_ domain.PostRepo  = (*Store)(nil)
	_ domain.QuotaRepo = (*Store)(nil)
	_ domain.StatsRepo = (*Store)(nil)
	_ domain.Resetter  = (*Store)(nil)
)

// NewStore создаёт пустое хранилище.
func NewStore() *Store {
	s := &Store{}
	s.init()
	return s
}

func (s *Store) init() {
	s.users = make(map[string]domain.User)
	s.posts = make(map[string]domain.Post)
	s.counts = make(map[quotaKey]int)
	s.stats = make(map[string]domain.UserStats)
}

// GetUserByID реализует domain.UserRepo.
func (s *Store) GetUserByID(_ context.Context, id string) (domain.User, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	return user, ok, nil
}

// GetLoggedInUser возвращает пользователя с флагом входа.
func (s *Store) GetLoggedInUser(_ context.Context) (domain.User, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, user := range s.users {
		if user.LoggedIn {
			return user, true, nil
		}
	}
	return domain.User{}, false, nil
}

// ListUsers возвращает пользователей по возрастанию идентификатора.
func (s *Store) ListUsers(_ context.Context) ([]domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := make([]domain.User, 0, len(s.users))
	for _, user := range s.users {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

// UpsertUser сохраняет пользователя. Флаг входа у остальных снимается.
func (s *Store) UpsertUser(_ context.Context, user domain.User) error {
	if err := user.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if user.LoggedIn {
		s.clearLoggedInLocked()
	}
	s.users[user.ID] = user
	return nil
}

// SetLoggedIn отмечает пользователя вошедшим.
func (s *Store) SetLoggedIn(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	s.clearLoggedInLocked()
	user.LoggedIn = true
	s.users[userID] = user
	return nil
}

func (s *Store) clearLoggedInLocked() {
	for id, u := range s.users {
		if u.LoggedIn {
			u.LoggedIn = false
			s.users[id] = u
		}
	}
}

// GetAllPosts возвращает все посты, новые первыми.
func (s *Store) GetAllPosts(_ context.Context) ([]domain.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedLocked(func(domain.Post) bool { return true }), nil
}

// GetPostsByAuthor возвращает посты автора, новые первыми.
func (s *Store) GetPostsByAuthor(_ context.Context, userID string) ([]domain.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedLocked(func(p domain.Post) bool { return p.AuthorID == userID }), nil
}

func (s *Store) sortedLocked(keep func(domain.Post) bool) []domain.Post {
	posts := make([]domain.Post, 0, len(s.posts))
	for _, post := range s.posts {
		if keep(post) {
			posts = append(posts, post)
		}
	}
	sort.SliceStable(posts, func(i, j int) bool {
		if posts[i].CreatedAt.Equal(posts[j].CreatedAt) {
			return posts[i].ID > posts[j].ID
		}
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
	return posts
}

// GetPostByID возвращает пост по идентификатору.
func (s *Store) GetPostByID(_ context.Context, id string) (domain.Post, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	post, ok := s.posts[id]
	return post, ok, nil
}

// InsertPost сохраняет пост; существующий пост с тем же id заменяется.
func (s *Store) InsertPost(_ context.Context, post domain.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.posts[post.ID] = post
	return nil
}

// CountForDay реализует domain.QuotaRepo.
func (s *Store) CountForDay(_ context.Context, userID, day string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.counts[quotaKey{userID: userID, day: day}], nil
}

// IncrementForDay реализует domain.QuotaRepo.
func (s *Store) IncrementForDay(_ context.Context, userID, day string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[quotaKey{userID: userID, day: day}]++
	return nil
}

// GetStats возвращает статистику, для неизвестного пользователя нулевую.
func (s *Store) GetStats(_ context.Context, userID string) (domain.UserStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stats, ok := s.stats[userID]
	if !ok {
		return domain.UserStats{UserID: userID}, nil
	}
	return stats, nil
}

// IncrementStats увеличивает счётчик нужного вида.
func (s *Store) IncrementStats(_ context.Context, userID string, kind domain.PostType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats, ok := s.stats[userID]
	if !ok {
		stats = domain.UserStats{UserID: userID}
	}
	s.stats[userID] = stats.Increment(kind)
	return nil
}

// ReplaceStats перезаписывает агрегат.
func (s *Store) ReplaceStats(_ context.Context, stats domain.UserStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats[stats.UserID] = stats
	return nil
}

// Reset удаляет все данные.
func (s *Store) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.init()
	return nil
}

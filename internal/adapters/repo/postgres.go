package repo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"posterr/internal/domain"
	"posterr/internal/infra/metrics"
)

// Pool — подмножество pgxpool.Pool, которое использует адаптер.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

// Postgres реализует репозитории на основе pgxpool.
type Postgres struct {
	pool Pool
}

var (
	_ domain.UserRepo  = (*Postgres)(nil)
	_ domain.PostRepo  = (*Postgres)(nil)
	_ domain.QuotaRepo = (*Postgres)(nil)
	_ domain.StatsRepo = (*Postgres)(nil)
	_ domain.Resetter  = (*Postgres)(nil)
)

// NewPostgres создаёт адаптер БД.
func NewPostgres(pool Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) connCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		return context.WithTimeout(context.Background(), 5*time.Second)
	}
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, 5*time.Second)
}

const userColumns = `id, username, joined_at, logged_in`

func scanUser(row pgx.Row) (domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Username, &u.JoinedAt, &u.LoggedIn)
	return u, err
}

// GetUserByID реализует domain.UserRepo.
func (p *Postgres) GetUserByID(ctx context.Context, id string) (domain.User, bool, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	user, err := scanUser(p.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		metrics.ObserveNetworkRequest("postgres", "users_get_by_id", "users", start, nil)
		return domain.User{}, false, nil
	}
	metrics.ObserveNetworkRequest("postgres", "users_get_by_id", "users", start, err)
	if err != nil {
		return domain.User{}, false, err
	}
	return user, true, nil
}

// GetLoggedInUser возвращает пользователя с флагом входа.
func (p *Postgres) GetLoggedInUser(ctx context.Context) (domain.User, bool, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	user, err := scanUser(p.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE logged_in LIMIT 1`))
	if errors.Is(err, pgx.ErrNoRows) {
		metrics.ObserveNetworkRequest("postgres", "users_get_logged_in", "users", start, nil)
		return domain.User{}, false, nil
	}
	metrics.ObserveNetworkRequest("postgres", "users_get_logged_in", "users", start, err)
	if err != nil {
		return domain.User{}, false, err
	}
	return user, true, nil
}

// ListUsers возвращает всех пользователей.
func (p *Postgres) ListUsers(ctx context.Context) ([]domain.User, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	metrics.ObserveNetworkRequest("postgres", "users_list", "users", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var users []domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// UpsertUser сохраняет пользователя. Если он вошедший, флаг снимается с остальных в той же транзакции.
func (p *Postgres) UpsertUser(ctx context.Context, user domain.User) error {
	if err := user.Validate(); err != nil {
		return err
	}
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{})
	metrics.ObserveNetworkRequest("postgres", "begin_tx", "users", start, err)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if user.LoggedIn {
		start = time.Now()
		_, err = tx.Exec(ctx, `UPDATE users SET logged_in=false WHERE logged_in AND id<>$1`, user.ID)
		metrics.ObserveNetworkRequest("postgres", "users_clear_logged_in", "users", start, err)
		if err != nil {
			return err
		}
	}

	start = time.Now()
	_, err = tx.Exec(ctx, `
INSERT INTO users (id, username, joined_at, logged_in)
VALUES ($1, $2, $3, $4)
ON CONFLICT (id) DO UPDATE SET username=EXCLUDED.username, joined_at=EXCLUDED.joined_at, logged_in=EXCLUDED.logged_in
`, user.ID, user.Username, user.JoinedAt, user.LoggedIn)
	metrics.ObserveNetworkRequest("postgres", "users_upsert", "users", start, err)
	if err != nil {
		return err
	}

	start = time.Now()
	err = tx.Commit(ctx)
	metrics.ObserveNetworkRequest("postgres", "commit", "users", start, err)
	return err
}

// SetLoggedIn отмечает пользователя вошедшим и снимает флаг с остальных.
func (p *Postgres) SetLoggedIn(ctx context.Context, userID string) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{})
	metrics.ObserveNetworkRequest("postgres", "begin_tx", "users", start, err)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	start = time.Now()
	_, err = tx.Exec(ctx, `UPDATE users SET logged_in=false WHERE logged_in AND id<>$1`, userID)
	metrics.ObserveNetworkRequest("postgres", "users_clear_logged_in", "users", start, err)
	if err != nil {
		return err
	}

	start = time.Now()
	tag, err := tx.Exec(ctx, `UPDATE users SET logged_in=true WHERE id=$1`, userID)
	metrics.ObserveNetworkRequest("postgres", "users_set_logged_in", "users", start, err)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}

	start = time.Now()
	err = tx.Commit(ctx)
	metrics.ObserveNetworkRequest("postgres", "commit", "users", start, err)
	return err
}

const postColumns = `id, content, author_id, post_type, created_at, COALESCE(original_post_id, '')`

func scanPost(row pgx.Row) (domain.Post, error) {
	var (
		post domain.Post
		kind string
	)
	if err := row.Scan(&post.ID, &post.Content, &post.AuthorID, &kind, &post.CreatedAt, &post.OriginalPostID); err != nil {
		return domain.Post{}, err
	}
	parsed, err := domain.ParsePostType(kind)
	if err != nil {
		return domain.Post{}, err
	}
	post.Type = parsed
	return post, nil
}

func (p *Postgres) listPosts(ctx context.Context, operation, query string, args ...any) ([]domain.Post, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, query, args...)
	metrics.ObserveNetworkRequest("postgres", operation, "posts", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var posts []domain.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

// GetAllPosts возвращает все посты, новые первыми.
func (p *Postgres) GetAllPosts(ctx context.Context) ([]domain.Post, error) {
	return p.listPosts(ctx, "posts_list_all", `SELECT `+postColumns+` FROM posts ORDER BY created_at DESC, id DESC`)
}

// GetPostsByAuthor возвращает посты автора, новые первыми.
func (p *Postgres) GetPostsByAuthor(ctx context.Context, userID string) ([]domain.Post, error) {
	return p.listPosts(ctx, "posts_list_by_author", `SELECT `+postColumns+` FROM posts WHERE author_id=$1 ORDER BY created_at DESC, id DESC`, userID)
}

// GetPostByID возвращает пост по идентификатору.
func (p *Postgres) GetPostByID(ctx context.Context, id string) (domain.Post, bool, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	post, err := scanPost(p.pool.QueryRow(ctx, `SELECT `+postColumns+` FROM posts WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		metrics.ObserveNetworkRequest("postgres", "posts_get_by_id", "posts", start, nil)
		return domain.Post{}, false, nil
	}
	metrics.ObserveNetworkRequest("postgres", "posts_get_by_id", "posts", start, err)
	if err != nil {
		return domain.Post{}, false, err
	}
	return post, true, nil
}

// InsertPost сохраняет пост.
func (p *Postgres) InsertPost(ctx context.Context, post domain.Post) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	_, err := p.pool.Exec(ctx, `
INSERT INTO posts (id, content, author_id, post_type, created_at, original_post_id)
VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''))
`, post.ID, post.Content, post.AuthorID, string(post.Type), post.CreatedAt, post.OriginalPostID)
	metrics.ObserveNetworkRequest("postgres", "posts_insert", "posts", start, err)
	return err
}

// CountForDay реализует domain.QuotaRepo. Без строки возвращает ноль.
func (p *Postgres) CountForDay(ctx context.Context, userID, day string) (int, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	var count int
	start := time.Now()
	err := p.pool.QueryRow(ctx, `SELECT count FROM daily_post_counts WHERE user_id=$1 AND day=$2`, userID, day).Scan(&count)
	if errors.Is(err, pgx.ErrNoRows) {
		metrics.ObserveNetworkRequest("postgres", "daily_post_counts_get", "daily_post_counts", start, nil)
		return 0, nil
	}
	metrics.ObserveNetworkRequest("postgres", "daily_post_counts_get", "daily_post_counts", start, err)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// IncrementForDay увеличивает счётчик одним upsert, без чтения перед записью.
func (p *Postgres) IncrementForDay(ctx context.Context, userID, day string) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	_, err := p.pool.Exec(ctx, `
INSERT INTO daily_post_counts (user_id, day, count)
VALUES ($1, $2, 1)
ON CONFLICT (user_id, day) DO UPDATE SET count = daily_post_counts.count + 1
`, userID, day)
	metrics.ObserveNetworkRequest("postgres", "daily_post_counts_increment", "daily_post_counts", start, err)
	return err
}

// GetStats возвращает статистику; отсутствие строки — нули.
func (p *Postgres) GetStats(ctx context.Context, userID string) (domain.UserStats, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	stats := domain.UserStats{UserID: userID}
	start := time.Now()
	err := p.pool.QueryRow(ctx, `SELECT original_posts, reposts, quotes FROM user_stats WHERE user_id=$1`, userID).
		Scan(&stats.Originals, &stats.Reposts, &stats.Quotes)
	if errors.Is(err, pgx.ErrNoRows) {
		metrics.ObserveNetworkRequest("postgres", "user_stats_get", "user_stats", start, nil)
		return domain.UserStats{UserID: userID}, nil
	}
	metrics.ObserveNetworkRequest("postgres", "user_stats_get", "user_stats", start, err)
	if err != nil {
		return domain.UserStats{}, err
	}
	return stats, nil
}

// IncrementStats увеличивает счётчик нужного вида одним upsert.
func (p *Postgres) IncrementStats(ctx context.Context, userID string, kind domain.PostType) error {
	delta := domain.UserStats{}.Increment(kind)
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	_, err := p.pool.Exec(ctx, `
INSERT INTO user_stats (user_id, original_posts, reposts, quotes)
VALUES ($1, $2, $3, $4)
ON CONFLICT (user_id) DO UPDATE SET
	original_posts = user_stats.original_posts + EXCLUDED.original_posts,
	reposts = user_stats.reposts + EXCLUDED.reposts,
	quotes = user_stats.quotes + EXCLUDED.quotes
`, userID, delta.Originals, delta.Reposts, delta.Quotes)
	metrics.ObserveNetworkRequest("postgres", "user_stats_increment", "user_stats", start, err)
	return err
}

// ReplaceStats перезаписывает агрегат пользователя.
func (p *Postgres) ReplaceStats(ctx context.Context, stats domain.UserStats) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	_, err := p.pool.Exec(ctx, `
INSERT INTO user_stats (user_id, original_posts, reposts, quotes)
VALUES ($1, $2, $3, $4)
ON CONFLICT (user_id) DO UPDATE SET original_posts=EXCLUDED.original_posts, reposts=EXCLUDED.reposts, quotes=EXCLUDED.quotes
`, stats.UserID, stats.Originals, stats.Reposts, stats.Quotes)
	metrics.ObserveNetworkRequest("postgres", "user_stats_replace", "user_stats", start, err)
	return err
}

// Reset удаляет все данные.
func (p *Postgres) Reset(ctx context.Context) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	_, err := p.pool.Exec(ctx, `TRUNCATE daily_post_counts, user_stats, posts, users`)
	metrics.ObserveNetworkRequest("postgres", "truncate_all", "all", start, err)
	return err
}

// Package blog implements identity-scoped post operations and the public feed.
package blog

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/benvon/blog-api/internal/cache"
	"github.com/benvon/blog-api/internal/database"
	"github.com/benvon/blog-api/internal/models"
	"github.com/benvon/blog-api/internal/queue"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrNotFound means the post does not exist or belongs to someone else.
	ErrNotFound = errors.New("blog not found")
	// ErrPersistence wraps any storage failure.
	ErrPersistence = errors.New("blog storage failure")
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	// DefaultMaxLimit caps the feed page size. Zero disables the cap.
	DefaultMaxLimit = 100
)

// Service runs post operations on behalf of an authenticated user.
type Service struct {
	posts    database.PostRepositoryInterface
	feed     cache.FeedCache
	events   queue.Publisher
	logger   *zap.Logger
	maxLimit int
}

// Option configures a Service.
type Option func(*Service)

// WithFeedCache caches public feed pages.
func WithFeedCache(c cache.FeedCache) Option {
	return func(s *Service) { s.feed = c }
}

// WithPublisher publishes an event after every successful mutation.
func WithPublisher(p queue.Publisher) Option {
	return func(s *Service) { s.events = p }
}

// WithMaxLimit caps the feed page size; 0 disables the cap.
func WithMaxLimit(n int) Option {
	return func(s *Service) { s.maxLimit = n }
}

// NewService builds a Service over posts. Without options the feed is not
// cached and no events are published.
func NewService(posts database.PostRepositoryInterface, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		posts:    posts,
		feed:     cache.NoopFeedCache{},
		events:   queue.NoopPublisher{},
		logger:   logger,
		maxLimit: DefaultMaxLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ParsePage reads page and limit query values. Missing, non-numeric or
// non-positive values fall back to the defaults.
func (s *Service) ParsePage(rawPage, rawLimit string) (page, limit int) {
	return s.normalize(parsePositive(rawPage), parsePositive(rawLimit))
}

func parsePositive(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0
	}
	return n
}

func (s *Service) normalize(page, limit int) (int, int) {
	if page <= 0 {
		page = DefaultPage
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if s.maxLimit > 0 && limit > s.maxLimit {
		limit = s.maxLimit
	}
	// Keep (page-1)*limit from overflowing.
	if page > math.MaxInt/limit {
		page = math.MaxInt / limit
	}
	return page, limit
}

// List returns the user's own posts, newest first.
func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]*models.Post, error) {
	posts, err := s.posts.ListByAuthor(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return posts, nil
}

// ListPublic returns one page of every author's posts, newest first.
func (s *Service) ListPublic(ctx context.Context, page, limit int) (*models.FeedPage, error) {
	page, limit = s.normalize(page, limit)

	cached, gen, ok, err := s.feed.Get(ctx, page, limit)
	if err != nil {
		s.logger.Warn("feed_cache_read_failed", zap.Error(err))
	}
	if ok {
		return cached, nil
	}
	cacheable := err == nil

	posts, err := s.posts.ListPage(ctx, (page-1)*limit, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	feed := &models.FeedPage{
		Page:  page,
		Limit: limit,
		Count: len(posts),
		Blogs: posts,
	}

	if cacheable {
		if err := s.feed.Set(ctx, gen, page, limit, feed); err != nil {
			s.logger.Warn("feed_cache_write_failed", zap.Error(err))
		}
	}

	return feed, nil
}

// Get returns a single post with its author.
func (s *Service) Get(ctx context.Context, postID uuid.UUID) (*models.PostWithAuthor, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return post, nil
}

// Create stores a new post authored by userID.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, title, content string) (*models.Post, error) {
	post := &models.Post{
		ID:       uuid.New(),
		Title:    title,
		Content:  content,
		AuthorID: userID,
	}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	s.afterMutation(ctx, queue.EventPostCreated, post.ID, userID)
	return post, nil
}

// Update rewrites a post owned by userID.
func (s *Service) Update(ctx context.Context, userID, postID uuid.UUID, title, content string) (*models.Post, error) {
	post, err := s.posts.UpdateOwned(ctx, postID, userID, title, content)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	s.afterMutation(ctx, queue.EventPostUpdated, post.ID, userID)
	return post, nil
}

// Delete removes a post owned by userID.
func (s *Service) Delete(ctx context.Context, userID, postID uuid.UUID) error {
	err := s.posts.DeleteOwned(ctx, postID, userID)
	if errors.Is(err, database.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	s.afterMutation(ctx, queue.EventPostDeleted, postID, userID)
	return nil
}

// afterMutation runs once the store has committed. Its failures are logged only.
func (s *Service) afterMutation(ctx context.Context, eventType queue.EventType, postID, authorID uuid.UUID) {
	if err := s.feed.Invalidate(ctx); err != nil {
		s.logger.Warn("feed_cache_invalidate_failed", zap.Error(err))
	}
	if err := s.events.Publish(ctx, queue.NewEvent(eventType, postID, authorID)); err != nil {
		s.logger.Warn("post_event_publish_failed",
			zap.String("event_type", string(eventType)),
			zap.String("post_id", postID.String()),
			zap.Error(err),
		)
	}
}

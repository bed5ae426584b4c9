// Package workers holds the background consumers run by cmd/worker.
package workers

import (
	"context"
	"errors"
	"fmt"

	"github.com/benvon/blog-api/internal/models"
	"github.com/benvon/blog-api/internal/queue"
	"github.com/benvon/blog-api/internal/services/blog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// ErrInvalidEvent is returned for messages that carry no usable event.
var ErrInvalidEvent = errors.New("invalid post event")

// FeedReader rebuilds a public feed page. *blog.Service satisfies it; reading
// through the service refills the cache on a miss.
type FeedReader interface {
	ListPublic(ctx context.Context, page, limit int) (*models.FeedPage, error)
}

// FeedWarmer rebuilds the first public feed page after every post event so
// the first reader after a write does not pay for the query.
type FeedWarmer struct {
	feed   FeedReader
	limit  int
	logger *zap.Logger

	processed *prometheus.CounterVec
}

// NewFeedWarmer creates a feed warmer. Metrics go to reg; nil skips them.
func NewFeedWarmer(feed FeedReader, logger *zap.Logger, reg prometheus.Registerer) *FeedWarmer {
	w := &FeedWarmer{
		feed:   feed,
		limit:  blog.DefaultLimit,
		logger: logger,
	}
	if reg != nil {
		w.processed = promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "blog_worker_events_total",
			Help: "Post events handled by the feed warmer, by type and result.",
		}, []string{"type", "result"})
	}
	return w
}

// ProcessMessage warms the feed for one delivery and settles it. Failures are
// nacked without requeue so they land in the dead-letter queue.
func (w *FeedWarmer) ProcessMessage(ctx context.Context, msg queue.MessageInterface) error {
	event := msg.GetEvent()
	if event == nil || !event.Valid() {
		w.count("unknown", "rejected")
		if nackErr := msg.Nack(false); nackErr != nil {
			w.logger.Warn("nack_failed", zap.Error(nackErr))
		}
		return ErrInvalidEvent
	}

	if _, err := w.feed.ListPublic(ctx, blog.DefaultPage, w.limit); err != nil {
		w.count(string(event.Type), "failed")
		if nackErr := msg.Nack(false); nackErr != nil {
			w.logger.Warn("nack_failed", zap.Error(nackErr), zap.String("event_id", event.ID.String()))
		}
		return fmt.Errorf("failed to warm feed for %s: %w", event.Type, err)
	}

	if err := msg.Ack(); err != nil {
		w.count(string(event.Type), "ack_failed")
		return fmt.Errorf("failed to ack event: %w", err)
	}

	w.count(string(event.Type), "ok")
	w.logger.Debug("feed_warmed",
		zap.String("event_id", event.ID.String()),
		zap.String("event_type", string(event.Type)),
		zap.String("post_id", event.PostID.String()),
	)
	return nil
}

// Run consumes until ctx is cancelled or msgs closes. Broker errors are logged.
func (w *FeedWarmer) Run(ctx context.Context, msgs <-chan *queue.Message, errs <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			w.logger.Error("queue_error", zap.Error(err))
		case msg, ok := <-msgs:
			if !ok {
				w.logger.Info("message_channel_closed")
				return
			}
			if err := w.ProcessMessage(ctx, msg); err != nil {
				w.logger.Error("event_processing_failed", zap.Error(err))
			}
		}
	}
}

func (w *FeedWarmer) count(eventType, result string) {
	if w.processed == nil {
		return
	}
	w.processed.WithLabelValues(eventType, result).Inc()
}

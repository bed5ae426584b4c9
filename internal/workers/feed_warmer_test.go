package workers

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/benvon/blog-api/internal/models"
	"github.com/benvon/blog-api/internal/queue"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeFeed struct {
	mu    sync.Mutex
	calls [][2]int
	err   error
}

func (f *fakeFeed) ListPublic(_ context.Context, page, limit int) (*models.FeedPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, [2]int{page, limit})
	if f.err != nil {
		return nil, f.err
	}
	return &models.FeedPage{Page: page, Limit: limit}, nil
}

func (f *fakeFeed) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// fakeAcker records how a delivery was settled.
type fakeAcker struct {
	mu      sync.Mutex
	acked   []uint64
	nacked  []uint64
	requeue []bool
	ackErr  error
}

func (a *fakeAcker) Ack(tag uint64, _ bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.acked = append(a.acked, tag)
	return a.ackErr
}

func (a *fakeAcker) Nack(tag uint64, _ bool, requeue bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nacked = append(a.nacked, tag)
	a.requeue = append(a.requeue, requeue)
	return nil
}

func validEvent() *queue.Event {
	return queue.NewEvent(queue.EventPostCreated, uuid.New(), uuid.New())
}

func TestFeedWarmer_ProcessMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		event      *queue.Event
		feedErr    error
		ackErr     error
		wantErr    error
		wantAcked  int
		wantNacked int
		wantResult string
		wantType   string
	}{
		{
			name:       "warms and acks",
			event:      validEvent(),
			wantAcked:  1,
			wantResult: "ok",
			wantType:   string(queue.EventPostCreated),
		},
		{
			name:       "feed failure goes to dlq",
			event:      validEvent(),
			feedErr:    errors.New("db down"),
			wantErr:    errors.New("any"),
			wantNacked: 1,
			wantResult: "failed",
			wantType:   string(queue.EventPostCreated),
		},
		{
			name:       "missing event rejected",
			event:      nil,
			wantErr:    ErrInvalidEvent,
			wantNacked: 1,
			wantResult: "rejected",
			wantType:   "unknown",
		},
		{
			name:       "unknown type rejected",
			event:      &queue.Event{ID: uuid.New(), Type: "post.archived", PostID: uuid.New(), AuthorID: uuid.New()},
			wantErr:    ErrInvalidEvent,
			wantNacked: 1,
			wantResult: "rejected",
			wantType:   "unknown",
		},
		{
			name:       "ack failure reported",
			event:      validEvent(),
			ackErr:     errors.New("channel closed"),
			wantErr:    errors.New("any"),
			wantAcked:  1,
			wantResult: "ack_failed",
			wantType:   string(queue.EventPostCreated),
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			reg := prometheus.NewRegistry()
			feed := &fakeFeed{err: tt.feedErr}
			acker := &fakeAcker{ackErr: tt.ackErr}
			warmer := NewFeedWarmer(feed, zap.NewNop(), reg)

			msg := &queue.Message{Event: tt.event, DeliveryTag: 7, Channel: acker}
			err := warmer.ProcessMessage(context.Background(), msg)

			if tt.wantErr != nil {
				require.Error(t, err)
				if errors.Is(tt.wantErr, ErrInvalidEvent) {
					assert.ErrorIs(t, err, ErrInvalidEvent)
				}
			} else {
				require.NoError(t, err)
			}

			assert.Len(t, acker.acked, tt.wantAcked)
			assert.Len(t, acker.nacked, tt.wantNacked)
			for _, requeue := range acker.requeue {
				assert.False(t, requeue, "failed events must not be requeued")
			}
			assert.Equal(t, 1.0, testutil.ToFloat64(warmer.processed.WithLabelValues(tt.wantType, tt.wantResult)))
		})
	}
}

func TestFeedWarmer_RebuildsFirstPage(t *testing.T) {
	t.Parallel()

	feed := &fakeFeed{}
	warmer := NewFeedWarmer(feed, zap.NewNop(), nil)

	msg := &queue.Message{Event: validEvent(), DeliveryTag: 1, Channel: &fakeAcker{}}
	require.NoError(t, warmer.ProcessMessage(context.Background(), msg))

	require.Len(t, feed.calls, 1)
	assert.Equal(t, [2]int{1, 10}, feed.calls[0])
}

func TestFeedWarmer_Run(t *testing.T) {
	t.Parallel()

	feed := &fakeFeed{}
	acker := &fakeAcker{}
	warmer := NewFeedWarmer(feed, zap.NewNop(), nil)

	msgs := make(chan *queue.Message, 3)
	errs := make(chan error, 1)
	for i := uint64(1); i <= 3; i++ {
		msgs <- &queue.Message{Event: validEvent(), DeliveryTag: i, Channel: acker}
	}
	errs <- errors.New("connection blip")
	close(msgs)

	done := make(chan struct{})
	go func() {
		warmer.Run(context.Background(), msgs, errs)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after the message channel closed")
	}

	acker.mu.Lock()
	defer acker.mu.Unlock()
	assert.Equal(t, []uint64{1, 2, 3}, acker.acked)
	assert.Equal(t, 3, feed.callCount())
}

func TestFeedWarmer_RunStopsOnCancel(t *testing.T) {
	t.Parallel()

	warmer := NewFeedWarmer(&fakeFeed{}, zap.NewNop(), nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		warmer.Run(ctx, make(chan *queue.Message), make(chan error))
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

// Package offline buffers outgoing chat messages while connectivity is
// down and flushes them serially on reconnect.
package offline

import (
	"context"
	"sync"
	"time"

	"github.com/fbmoulin/2avaracivel-cariacica-website/pkg/logger"
)

// QueuedMessage is a message held while offline
type QueuedMessage struct {
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

// SendFunc delivers one queued message; the queue owns pacing and
// ordering, the function owns transport and its own retry policy
type SendFunc func(ctx context.Context, message string) error

// Queue is the offline message buffer. Messages flush in FIFO order with
// a fixed pacing gap so a reconnect does not burst-flood the server.
type Queue struct {
	mu     sync.Mutex
	items  []QueuedMessage
	online bool
	pace   time.Duration
	send   SendFunc
	log    *logger.Logger
}

// New creates a queue that starts in the online state
func New(send SendFunc, pace time.Duration, log *logger.Logger) *Queue {
	if pace <= 0 {
		pace = 1 * time.Second
	}
	if log == nil {
		log = logger.GetGlobal()
	}
	return &Queue{
		online: true,
		pace:   pace,
		send:   send,
		log:    log.WithComponent("offline_queue"),
	}
}

// Online reports the current connectivity state
func (q *Queue) Online() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.online
}

// Len returns the number of queued messages
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Enqueue buffers a message for later delivery
func (q *Queue) Enqueue(message string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.items = append(q.items, QueuedMessage{
		Message:   message,
		Timestamp: time.Now().UnixMilli(),
	})
	q.log.Debug("message queued", "pending", len(q.items))
}

// SetOnline updates connectivity; the offline-to-online transition
// triggers a flush of everything queued
func (q *Queue) SetOnline(ctx context.Context, online bool) {
	q.mu.Lock()
	wasOnline := q.online
	q.online = online
	q.mu.Unlock()

	if online && !wasOnline {
		q.FlushAll(ctx)
	}
}

// FlushAll drains the queue in FIFO order, pacing sends one second
// apart. A failed item is logged and the loop continues; the queue is
// cleared after the pass regardless of individual outcomes.
func (q *Queue) FlushAll(ctx context.Context) {
	q.mu.Lock()
	items := q.items
	q.items = nil
	q.mu.Unlock()

	if len(items) == 0 {
		return
	}

	q.log.Info("flushing queued messages", "count", len(items))

	for i, item := range items {
		if i > 0 {
			select {
			case <-time.After(q.pace):
			case <-ctx.Done():
				q.log.Warn("queue flush cancelled", "remaining", len(items)-i)
				return
			}
		}

		if err := q.send(ctx, item.Message); err != nil {
			q.log.LogError(err, "queued message failed", "index", i)
			continue
		}
	}
}

package offline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder captures delivered messages with their send times
type recorder struct {
	mu    sync.Mutex
	sent  []string
	times []time.Time
	fail  map[string]bool
}

func (r *recorder) send(_ context.Context, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail[message] {
		return errors.New("send failed")
	}
	r.sent = append(r.sent, message)
	r.times = append(r.times, time.Now())
	return nil
}

func TestFlushPreservesOrder(t *testing.T) {
	rec := &recorder{}
	q := New(rec.send, 10*time.Millisecond, nil)

	q.SetOnline(context.Background(), false)
	q.Enqueue("a")
	q.Enqueue("b")
	q.Enqueue("c")
	require.Equal(t, 3, q.Len())

	q.SetOnline(context.Background(), true)
	assert.Equal(t, []string{"a", "b", "c"}, rec.sent)
	assert.Zero(t, q.Len())
}

func TestFlushPacesSends(t *testing.T) {
	rec := &recorder{}
	pace := 30 * time.Millisecond
	q := New(rec.send, pace, nil)

	q.SetOnline(context.Background(), false)
	q.Enqueue("a")
	q.Enqueue("b")
	q.SetOnline(context.Background(), true)

	require.Len(t, rec.times, 2)
	assert.GreaterOrEqual(t, rec.times[1].Sub(rec.times[0]), pace)
}

func TestFlushClearsDespiteFailures(t *testing.T) {
	rec := &recorder{fail: map[string]bool{"b": true}}
	q := New(rec.send, time.Millisecond, nil)

	q.SetOnline(context.Background(), false)
	q.Enqueue("a")
	q.Enqueue("b")
	q.Enqueue("c")
	q.SetOnline(context.Background(), true)

	// the failed message is dropped, not requeued
	assert.Equal(t, []string{"a", "c"}, rec.sent)
	assert.Zero(t, q.Len())
}

func TestOnlineToOnlineDoesNotFlush(t *testing.T) {
	rec := &recorder{}
	q := New(rec.send, time.Millisecond, nil)

	q.Enqueue("a")
	q.SetOnline(context.Background(), true)
	assert.Empty(t, rec.sent, "no offline-to-online transition, no flush")
	assert.Equal(t, 1, q.Len())
}

func TestFlushCancelled(t *testing.T) {
	rec := &recorder{}
	q := New(rec.send, 50*time.Millisecond, nil)

	q.SetOnline(context.Background(), false)
	q.Enqueue("a")
	q.Enqueue("b")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	q.SetOnline(ctx, true)

	// the first item sends before any pacing wait; the rest abort
	assert.Equal(t, []string{"a"}, rec.sent)
	assert.Zero(t, q.Len())
}

func TestStartsOnline(t *testing.T) {
	q := New(func(context.Context, string) error { return nil }, time.Millisecond, nil)
	assert.True(t, q.Online())
}

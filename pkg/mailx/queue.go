package mailx

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// RetryQueue holds not-yet-delivered messages in insertion order.
type RetryQueue struct {
	mu    sync.Mutex
	items []QueuedMessage
}

// NewRetryQueue returns an empty queue.
func NewRetryQueue() *RetryQueue {
	return &RetryQueue{}
}

// Push appends qm.
func (q *RetryQueue) Push(qm QueuedMessage) {
	q.mu.Lock()
	q.items = append(q.items, qm)
	q.mu.Unlock()
}

// Len returns the number of held messages.
func (q *RetryQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Snapshot returns a copy of the queue contents.
func (q *RetryQueue) Snapshot() []QueuedMessage {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]QueuedMessage, len(q.items))
	copy(out, q.items)
	return out
}

// Drain removes and returns every message due at now. Future-dated
// messages stay in place, in order.
func (q *RetryQueue) Drain(now time.Time) []QueuedMessage {
	q.mu.Lock()
	defer q.mu.Unlock()

	var due []QueuedMessage
	kept := q.items[:0]
	for _, qm := range q.items {
		if qm.Due(now) {
			due = append(due, qm)
		} else {
			kept = append(kept, qm)
		}
	}
	for i := len(kept); i < len(q.items); i++ {
		q.items[i] = QueuedMessage{}
	}
	q.items = kept
	return due
}

// NewQueueID returns "<unix-millis>-<8 hex chars>".
func NewQueueID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%d-%s", now.UnixMilli(), suffix)
}

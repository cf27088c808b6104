package chart

import (
	"sync"

	"github.com/roach88/sseqchart/internal/value"
)

// settingsKey is the fixed dedup key of the settings message.
const settingsKey = "settings"

// entity is a committed class or edge that can be rendered into a message.
type entity interface {
	ID() string
	TypeName() string
	encode() (value.Object, error)
}

// queued is a pending message. Entity state is read at flush time, so a
// create always carries the latest attributes.
type queued struct {
	key     string
	command Command
	target  entity // nil for settings
}

// messageQueue is a thread-safe queue of pending messages with a key index
// for O(1) coalescing.
//
// Producers may run on the owning goroutine and one background goroutine;
// Update drains from either.
type messageQueue struct {
	mu     sync.Mutex
	items  []queued
	index  map[string]int
	signal chan struct{} // Signals pending messages (buffered, size 1)
}

func newMessageQueue() *messageQueue {
	return &messageQueue{
		items:  make([]queued, 0, 64),
		index:  make(map[string]int),
		signal: make(chan struct{}, 1),
	}
}

// push appends item unless its key is already queued. With replace, an
// existing entry is overwritten in place instead.
// Returns true if the queue changed.
func (q *messageQueue) push(item queued, replace bool) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if i, ok := q.index[item.key]; ok {
		if replace {
			q.items[i] = item
			return true
		}
		return false
	}
	q.appendLocked(item)
	return true
}

// pushUpdate queues an update unless the entity already has a pending
// create/update or a pending delete. It reports whether the update was
// queued and whether a pending delete suppressed it.
func (q *messageQueue) pushUpdate(item queued, deleteKey string) (queuedNow bool, afterDelete bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, ok := q.index[deleteKey]; ok {
		return false, true
	}
	if _, ok := q.index[item.key]; ok {
		return false, false
	}
	q.appendLocked(item)
	return true, false
}

func (q *messageQueue) appendLocked(item queued) {
	q.index[item.key] = len(q.items)
	q.items = append(q.items, item)

	// Non-blocking: the buffer of 1 coalesces signals.
	select {
	case q.signal <- struct{}{}:
	default:
	}
}

// drain removes and returns every pending message in queue order.
func (q *messageQueue) drain() []queued {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return nil
	}
	items := q.items
	q.items = make([]queued, 0, cap(items))
	clear(q.index)
	return items
}

// Len returns the number of pending messages.
func (q *messageQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Wait returns a channel that signals when messages may be pending.
func (q *messageQueue) Wait() <-chan struct{} {
	return q.signal
}

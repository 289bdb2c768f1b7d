package transport

import (
	"time"
)

// Queue is a bounded FIFO of formatted entries. Any number of goroutines may
// push; a single consumer pops. When the queue is full the oldest entry is
// evicted so that producers never block.
type Queue struct {
	items chan string
}

func NewQueue(size int) *Queue {
	return &Queue{items: make(chan string, max(size, 1))}
}

// Push appends an entry and returns how many old entries were evicted to
// make room for it.
func (q *Queue) Push(entry string) int {
	evicted := 0

	for {
		select {
		case q.items <- entry:
			return evicted
		default:
		}

		select {
		case <-q.items:
			evicted++
		default:
			// the consumer emptied a slot in the meantime
		}
	}
}

// Pop waits up to timeout for the next entry. It returns false on timeout or
// when done is closed.
func (q *Queue) Pop(timeout time.Duration, done <-chan struct{}) (string, bool) {
	// fast path, the queue is rarely empty under load
	select {
	case entry := <-q.items:
		return entry, true
	default:
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case entry := <-q.items:
		return entry, true
	case <-timer.C:
		return "", false
	case <-done:
		return "", false
	}
}

func (q *Queue) Len() int {
	return len(q.items)
}

func (q *Queue) Cap() int {
	return cap(q.items)
}

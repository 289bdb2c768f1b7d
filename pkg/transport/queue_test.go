package transport

import (
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain(q *Queue) []string {
	var out []string

	for {
		entry, ok := q.Pop(time.Millisecond, nil)
		if !ok {
			return out
		}

		out = append(out, entry)
	}
}

func TestQueueFIFO(t *testing.T) {
	q := NewQueue(10)

	for i := range 5 {
		assert.Zero(t, q.Push(strconv.Itoa(i)))
	}

	assert.Equal(t, 5, q.Len())
	assert.Equal(t, []string{"0", "1", "2", "3", "4"}, drain(q))
}

func TestQueueDropOldest(t *testing.T) {
	const size = 4

	q := NewQueue(size)

	evicted := 0
	for i := range size + 1 {
		evicted += q.Push(strconv.Itoa(i))
	}

	assert.Equal(t, 1, evicted)
	assert.Equal(t, size, q.Len())
	assert.Equal(t, []string{"1", "2", "3", "4"}, drain(q))
}

func TestQueueNeverExceedsCapacity(t *testing.T) {
	const size = 16

	q := NewQueue(size)

	var wg sync.WaitGroup

	for p := range 8 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for i := range 1000 {
				q.Push(strconv.Itoa(p*1000 + i))
				assert.LessOrEqual(t, q.Len(), size)
			}
		}()
	}

	wg.Wait()
	assert.Equal(t, size, q.Len())
	assert.Equal(t, size, q.Cap())
}

func TestQueuePopTimeout(t *testing.T) {
	q := NewQueue(1)

	start := time.Now()
	_, ok := q.Pop(20*time.Millisecond, nil)
	require.False(t, ok)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestQueuePopDone(t *testing.T) {
	q := NewQueue(1)
	done := make(chan struct{})
	close(done)

	_, ok := q.Pop(time.Hour, done)
	assert.False(t, ok)
}

package sink

import (
	"fmt"
	"sync"
)

// wakeSignal is an auto-reset event. A raise with no waiter stays armed for
// the next wait, and one raise releases at most one wait.
type wakeSignal struct {
	ch chan struct{}
}

func newWakeSignal() *wakeSignal {
	return &wakeSignal{ch: make(chan struct{}, 1)}
}

// raise arms the signal; never blocks
func (w *wakeSignal) raise() {
	select {
	case w.ch <- struct{}{}:
	default:
		// Already armed
	}
}

// wait returns the channel to receive on, so the writer loop can combine it with other signals
func (w *wakeSignal) wait() <-chan struct{} {
	return w.ch
}

// ingestQueue is the multi-producer hand-off to the writer loop.
// Unbounded by default; with a capacity the overflow policy decides what push does when full.
type ingestQueue struct {
	mu       sync.Mutex
	space    *sync.Cond
	entries  []logEntry
	capacity int
	policy   string
	closed   bool
}

func newIngestQueue() *ingestQueue {
	q := &ingestQueue{
		entries: make([]logEntry, 0, 256),
		policy:  OverflowBlock,
	}
	q.space = sync.NewCond(&q.mu)
	return q
}

// setLimit changes the bound; blocked producers re-check against the new limit
func (q *ingestQueue) setLimit(capacity int, policy string) {
	q.mu.Lock()
	q.capacity = capacity
	q.policy = policy
	q.mu.Unlock()
	q.space.Broadcast()
}

// push appends an entry at the tail.
// On a full bounded queue, drop evicts from the head and returns a *dropError with e queued,
// reject returns ErrQueueFull, block waits for space. ErrSinkClosed after close.
func (q *ingestQueue) push(e logEntry) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	for {
		if q.closed {
			return ErrSinkClosed
		}
		if q.capacity <= 0 || len(q.entries) < q.capacity {
			break
		}
		switch q.policy {
		case OverflowDrop:
			// Discard the oldest entries so the queue ends at capacity, including after a lowered limit
			evict := len(q.entries) - q.capacity + 1
			n := copy(q.entries, q.entries[evict:])
			clear(q.entries[n:])
			q.entries = append(q.entries[:n], e)
			return &dropError{count: evict}
		case OverflowReject:
			return ErrQueueFull
		default:
			q.space.Wait()
		}
	}

	q.entries = append(q.entries, e)
	return nil
}

// drainAll moves every queued entry to the tail of dst in FIFO order and empties the queue
func (q *ingestQueue) drainAll(dst []logEntry) []logEntry {
	q.mu.Lock()
	if len(q.entries) == 0 {
		q.mu.Unlock()
		return dst
	}
	dst = append(dst, q.entries...)
	clear(q.entries)
	q.entries = q.entries[:0]
	bounded := q.capacity > 0
	q.mu.Unlock()

	if bounded {
		q.space.Broadcast()
	}
	return dst
}

// len reports the number of queued entries
func (q *ingestQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// close rejects further pushes and releases blocked producers; queued entries stay drainable
func (q *ingestQueue) close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.space.Broadcast()
}

// dropError reports how many queued entries the drop policy evicted; matches errEntryDropped
type dropError struct {
	count int
}

func (e *dropError) Error() string {
	return fmt.Sprintf("%d %s", e.count, errEntryDropped)
}

func (e *dropError) Is(target error) bool {
	return target == errEntryDropped
}

package sink

import (
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWakeSignal(t *testing.T) {
	t.Run("raise without waiter stays armed", func(t *testing.T) {
		w := newWakeSignal()
		w.raise()
		select {
		case <-w.wait():
		default:
			t.Fatal("armed signal should release the next wait")
		}
	})

	t.Run("repeated raises release one wait", func(t *testing.T) {
		w := newWakeSignal()
		w.raise()
		w.raise()
		w.raise()
		<-w.wait()
		select {
		case <-w.wait():
			t.Fatal("signal should be consumed by the first wait")
		default:
		}
	})

	t.Run("raise releases a blocked waiter", func(t *testing.T) {
		w := newWakeSignal()
		released := make(chan struct{})
		go func() {
			<-w.wait()
			close(released)
		}()
		time.Sleep(minWaitTime)
		w.raise()
		select {
		case <-released:
		case <-time.After(time.Second):
			t.Fatal("waiter not released")
		}
	})
}

func TestIngestQueueFIFO(t *testing.T) {
	q := newIngestQueue()
	for _, m := range []string{"a", "b", "c"} {
		require.NoError(t, q.push(logEntry{Message: m}))
	}
	assert.Equal(t, 3, q.len())

	staged := []logEntry{{Message: "left"}}
	staged = q.drainAll(staged)

	require.Len(t, staged, 4)
	assert.Equal(t, "left", staged[0].Message)
	assert.Equal(t, "a", staged[1].Message)
	assert.Equal(t, "c", staged[3].Message)
	assert.Equal(t, 0, q.len())

	// Empty drain leaves dst untouched
	assert.Len(t, q.drainAll(staged), 4)
}

func TestIngestQueueConcurrentPush(t *testing.T) {
	q := newIngestQueue()
	const producers = 8
	const each = 1000

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < each; i++ {
				_ = q.push(logEntry{Message: "m"})
			}
		}()
	}

	var drained []logEntry
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	for {
		drained = q.drainAll(drained)
		select {
		case <-done:
			drained = q.drainAll(drained)
			assert.Len(t, drained, producers*each)
			return
		default:
		}
	}
}

func TestIngestQueueOverflow(t *testing.T) {
	t.Run("reject", func(t *testing.T) {
		q := newIngestQueue()
		q.setLimit(2, OverflowReject)
		require.NoError(t, q.push(logEntry{Message: "1"}))
		require.NoError(t, q.push(logEntry{Message: "2"}))
		assert.ErrorIs(t, q.push(logEntry{Message: "3"}), ErrQueueFull)
		assert.Equal(t, 2, q.len())
	})

	t.Run("drop evicts oldest", func(t *testing.T) {
		q := newIngestQueue()
		q.setLimit(2, OverflowDrop)
		require.NoError(t, q.push(logEntry{Message: "1"}))
		require.NoError(t, q.push(logEntry{Message: "2"}))
		assert.ErrorIs(t, q.push(logEntry{Message: "3"}), errEntryDropped)

		got := q.drainAll(nil)
		require.Len(t, got, 2)
		assert.Equal(t, "2", got[0].Message)
		assert.Equal(t, "3", got[1].Message)
	})

	t.Run("drop shrinks to a lowered limit", func(t *testing.T) {
		q := newIngestQueue()
		for i := 1; i <= 5; i++ {
			require.NoError(t, q.push(logEntry{Message: strconv.Itoa(i)}))
		}
		q.setLimit(2, OverflowDrop)

		err := q.push(logEntry{Message: "6"})
		require.ErrorIs(t, err, errEntryDropped)
		var de *dropError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, 4, de.count)
		assert.Equal(t, 2, q.len())

		got := q.drainAll(nil)
		require.Len(t, got, 2)
		assert.Equal(t, "5", got[0].Message)
		assert.Equal(t, "6", got[1].Message)
	})

	t.Run("block waits for drain", func(t *testing.T) {
		q := newIngestQueue()
		q.setLimit(1, OverflowBlock)
		require.NoError(t, q.push(logEntry{Message: "1"}))

		pushed := make(chan error, 1)
		go func() { pushed <- q.push(logEntry{Message: "2"}) }()

		select {
		case <-pushed:
			t.Fatal("push should block while full")
		case <-time.After(50 * time.Millisecond):
		}

		q.drainAll(nil)
		select {
		case err := <-pushed:
			assert.NoError(t, err)
		case <-time.After(time.Second):
			t.Fatal("push not released by drain")
		}
	})

	t.Run("close releases blocked producer", func(t *testing.T) {
		q := newIngestQueue()
		q.setLimit(1, OverflowBlock)
		require.NoError(t, q.push(logEntry{Message: "1"}))

		pushed := make(chan error, 1)
		go func() { pushed <- q.push(logEntry{Message: "2"}) }()
		time.Sleep(minWaitTime)
		q.close()

		select {
		case err := <-pushed:
			assert.ErrorIs(t, err, ErrSinkClosed)
		case <-time.After(time.Second):
			t.Fatal("push not released by close")
		}
		// Queued entries stay drainable after close
		assert.Len(t, q.drainAll(nil), 1)
	})

	t.Run("raising the limit releases producers", func(t *testing.T) {
		q := newIngestQueue()
		q.setLimit(1, OverflowBlock)
		require.NoError(t, q.push(logEntry{Message: "1"}))

		pushed := make(chan error, 1)
		go func() { pushed <- q.push(logEntry{Message: "2"}) }()
		time.Sleep(minWaitTime)
		q.setLimit(0, OverflowBlock)

		select {
		case err := <-pushed:
			assert.NoError(t, err)
		case <-time.After(time.Second):
			t.Fatal("push not released by unbounding")
		}
	})
}

func TestSinkOverflowCounters(t *testing.T) {
	s, _ := newManualSink(t, "queue_capacity=1", "overflow_policy=reject")

	require.NoError(t, s.Write("q_", "1"))
	assert.ErrorIs(t, s.Write("q_", "2"), ErrQueueFull)
	assert.Equal(t, uint64(1), s.Stats().Rejected)

	require.NoError(t, s.ApplyOverride("overflow_policy=drop"))
	require.NoError(t, s.Write("q_", "3"))
	assert.Equal(t, uint64(1), s.Stats().Dropped)
	assert.Equal(t, uint64(2), s.Stats().Queued)
	assert.Equal(t, 1, s.Stats().QueueLength)
}

func TestSinkDropAfterLoweredLimit(t *testing.T) {
	s, _ := newManualSink(t)
	for i := 0; i < 5; i++ {
		require.NoError(t, s.Write("q_", strconv.Itoa(i)))
	}

	require.NoError(t, s.ApplyOverride("queue_capacity=2", "overflow_policy=drop"))
	require.NoError(t, s.Write("q_", "latest"))

	stats := s.Stats()
	assert.Equal(t, uint64(4), stats.Dropped)
	assert.Equal(t, 2, stats.QueueLength)
}

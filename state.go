package sink

import (
	"sync"
	"sync/atomic"
	"time"
)

// State encapsulates the runtime state of the sink
type State struct {
	IsInitialized   atomic.Bool
	Started         atomic.Bool
	ShutdownCalled  atomic.Bool
	ProcessorExited atomic.Bool // Tracks if the writer loop is running or has exited
	Idle            atomic.Bool // Writer loop is blocked waiting for work

	flushMutex sync.Mutex // Protect concurrent Flush calls

	LoggerStartTime   atomic.Value  // Stores time.Time for uptime calculation
	HeartbeatSequence atomic.Uint64 // Counter for heartbeat sequence numbers

	TotalEntriesQueued  atomic.Uint64 // Entries accepted by the queue
	TotalEntriesWritten atomic.Uint64 // Entries appended to a file
	TotalFailedEntries  atomic.Uint64 // Entries lost to a failed flush
	DroppedEntries      atomic.Uint64 // Entries discarded by the drop policy
	RejectedEntries     atomic.Uint64 // Entries refused by the reject policy
	TotalFlushes        atomic.Uint64 // Successful merged appends
	TotalFailedFlushes  atomic.Uint64 // Failed merged appends
	TotalRotations      atomic.Uint64 // Size cap moved a destination to a new sequence
	TotalCycles         atomic.Uint64 // Drain cycles run
	AbortedCycles       atomic.Uint64 // Cycles cut short by the merge cutoff
	DeferredEntries     atomic.Uint64 // Entries carried to a later cycle by the merge cutoff
	TotalArchived       atomic.Uint64 // Files compressed by archival
	TotalDeletions      atomic.Uint64 // Files removed by retention
}

// Stats is a point-in-time copy of the sink counters
type Stats struct {
	Queued         uint64
	Written        uint64
	Failed         uint64
	Dropped        uint64
	Rejected       uint64
	Flushes        uint64
	FailedFlushes  uint64
	Rotations      uint64
	Cycles         uint64
	AbortedCycles  uint64
	Deferred       uint64
	Archived       uint64
	Deletions      uint64
	QueueLength    int
	Idle           bool
	Uptime         time.Duration
	ProcessorAlive bool
}

// Stats returns a snapshot of the sink counters
func (s *Sink) Stats() Stats {
	st := Stats{
		Queued:         s.state.TotalEntriesQueued.Load(),
		Written:        s.state.TotalEntriesWritten.Load(),
		Failed:         s.state.TotalFailedEntries.Load(),
		Dropped:        s.state.DroppedEntries.Load(),
		Rejected:       s.state.RejectedEntries.Load(),
		Flushes:        s.state.TotalFlushes.Load(),
		FailedFlushes:  s.state.TotalFailedFlushes.Load(),
		Rotations:      s.state.TotalRotations.Load(),
		Cycles:         s.state.TotalCycles.Load(),
		AbortedCycles:  s.state.AbortedCycles.Load(),
		Deferred:       s.state.DeferredEntries.Load(),
		Archived:       s.state.TotalArchived.Load(),
		Deletions:      s.state.TotalDeletions.Load(),
		QueueLength:    s.queue.len(),
		Idle:           s.state.Idle.Load(),
		ProcessorAlive: !s.state.ProcessorExited.Load(),
	}
	if startTime, ok := s.state.LoggerStartTime.Load().(time.Time); ok && !startTime.IsZero() {
		st.Uptime = time.Since(startTime)
	}
	return st
}

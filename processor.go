package sink

import (
	"path/filepath"
	"time"
)

// processEntries is the writer loop, the only goroutine that touches log files while the sink runs.
// It waits on the wake signal only after observing both the queue and the staging buffer empty.
func (s *Sink) processEntries() {
	defer close(s.exited)
	defer s.state.ProcessorExited.Store(true)

	timers := s.setupProcessingTimers()
	defer func() { s.closeProcessingTimers(timers) }()

	// Send initial heartbeat immediately instead of waiting for first tick
	if s.getConfig().HeartbeatLevel > HeartbeatOff {
		s.handleHeartbeat()
	}

	for {
		// Serve requests and ticks between cycles so a busy loop does not starve them
		select {
		case confirmChan := <-s.flushRequestChan:
			s.handleFlushRequest(confirmChan)
		case <-timers.housekeepingChan:
			s.handleHousekeeping()
		case <-timers.heartbeatChan:
			s.handleHeartbeat()
		case <-s.timerResetChan:
			s.closeProcessingTimers(timers)
			timers = s.setupProcessingTimers()
		default:
		}

		if s.hasPending() {
			s.drainCycle()
			continue
		}

		s.state.Idle.Store(true)
		select {
		case <-s.wake.wait():
			// Proceed to the next cycle, emptiness is re-checked at the top
		case confirmChan := <-s.flushRequestChan:
			s.handleFlushRequest(confirmChan)
		case <-timers.housekeepingChan:
			s.handleHousekeeping()
		case <-timers.heartbeatChan:
			s.handleHeartbeat()
		case <-s.timerResetChan:
			s.closeProcessingTimers(timers)
			timers = s.setupProcessingTimers()
		case <-s.done:
			s.state.Idle.Store(false)
			s.drainPending()
			s.releaseFlushRequests()
			return
		}
		s.state.Idle.Store(false)
	}
}

// hasPending reports whether the queue or the staging buffer holds entries
func (s *Sink) hasPending() bool {
	return len(s.staged) > 0 || s.queue.len() > 0
}

// drainPending runs cycles until the queue and the staging buffer are both empty
func (s *Sink) drainPending() {
	for s.hasPending() {
		s.drainCycle()
	}
}

// drainCycle moves the queue into the staging buffer, merges it per destination and flushes the groups.
// Entries left over by the merge cutoff stay staged, ahead of anything queued later.
func (s *Sink) drainCycle() {
	cfg := s.getConfig()
	s.state.TotalCycles.Add(1)

	s.staged = s.queue.drainAll(s.staged)

	groups, rest, aborted := mergeStaged(s.staged, cfg.mergeCutoff(), cfg.MergePolicy)
	if aborted {
		s.state.AbortedCycles.Add(1)
		s.state.DeferredEntries.Add(uint64(len(rest)))
	}

	n := copy(s.staged, rest)
	clear(s.staged[n:])
	s.staged = s.staged[:n]

	s.flushGroups(cfg, groups)
}

// mergeStaged folds staged entries into per-destination groups in order of first appearance.
// A group is seeded with its first entry regardless of size; later entries join with a newline
// while the group stays within cutoff bytes. Under the cycle policy the first entry that would
// exceed the cutoff ends the cycle and it, along with everything after it, is returned in rest.
// Under the group policy only that destination is deferred and merging continues for the others.
func mergeStaged(staged []logEntry, cutoff int, policy string) (groups []*mergeGroup, rest []logEntry, aborted bool) {
	index := make(map[destination]*mergeGroup)
	var deferred map[destination]bool

	for i, e := range staged {
		dest := e.destination()

		if deferred[dest] {
			rest = append(rest, e)
			continue
		}

		g, ok := index[dest]
		if !ok {
			g = &mergeGroup{dest: dest, buf: append(make([]byte, 0, len(e.Message)+len(trailerLine)+2), e.Message...), count: 1}
			index[dest] = g
			groups = append(groups, g)
			continue
		}

		if len(g.buf)+1+len(e.Message) > cutoff {
			aborted = true
			if policy == MergePolicyGroup {
				if deferred == nil {
					deferred = make(map[destination]bool)
				}
				deferred[dest] = true
				rest = append(rest, e)
				continue
			}
			rest = append(rest, staged[i:]...)
			return groups, rest, aborted
		}

		g.buf = append(g.buf, '\n')
		g.buf = append(g.buf, e.Message...)
		g.count++
	}

	return groups, rest, aborted
}

// flushGroups resolves and appends each group once, followed by the trailer line.
// A failed group is reported and counted; the remaining groups are still written.
func (s *Sink) flushGroups(cfg *Config, groups []*mergeGroup) {
	now := time.Now()
	for _, g := range groups {
		g.buf = append(g.buf, '\n')
		g.buf = append(g.buf, trailerLine...)
		g.buf = append(g.buf, '\n')

		path, rotated, err := resolveDestination(g.dest, cfg, now)
		if err == nil {
			err = appendFile(path, g.buf, cfg.SyncOnFlush)
		}
		if err != nil {
			s.state.TotalFailedFlushes.Add(1)
			s.state.TotalFailedEntries.Add(uint64(g.count))
			s.reportError(fmtErrorf("failed to flush %d entries for prefix '%s': %w", g.count, g.dest.prefix, err))
			continue
		}

		if rotated {
			s.state.TotalRotations.Add(1)
		}
		s.state.TotalFlushes.Add(1)
		s.state.TotalEntriesWritten.Add(uint64(g.count))
		s.known[destination{dir: filepath.Dir(path), prefix: g.dest.prefix}] = struct{}{}
	}
}

// handleFlushRequest drains everything pending, then confirms to the Flush caller
func (s *Sink) handleFlushRequest(confirmChan chan struct{}) {
	s.drainPending()
	close(confirmChan)
}

// releaseFlushRequests confirms a flush request that raced with shutdown
func (s *Sink) releaseFlushRequests() {
	select {
	case confirmChan := <-s.flushRequestChan:
		close(confirmChan)
	default:
	}
}

// handleHousekeeping applies retention and archival to every destination written so far
func (s *Sink) handleHousekeeping() {
	cfg := s.getConfig()
	now := time.Now()

	if cfg.RetentionPeriodHrs > 0 {
		if err := s.cleanExpiredLogs(cfg, now); err != nil {
			s.reportError(err)
		}
	}

	if cfg.CompressArchived {
		if err := s.archiveLogs(cfg, now); err != nil {
			s.reportError(err)
		}
	}
}

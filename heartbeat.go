package sink

import (
	"fmt"
	"runtime"
	"time"
)

// handleHeartbeat stages heartbeat records for the configured level
func (s *Sink) handleHeartbeat() {
	c := s.getConfig()

	if c.HeartbeatLevel >= HeartbeatProc {
		s.logProcHeartbeat(c)
	}

	if c.HeartbeatLevel >= HeartbeatSys {
		s.logSysHeartbeat(c)
	}
}

// logProcHeartbeat records sink statistics
func (s *Sink) logProcHeartbeat(c *Config) {
	sequence := s.state.HeartbeatSequence.Add(1)

	var uptimeHours float64
	if startTime, ok := s.state.LoggerStartTime.Load().(time.Time); ok && !startTime.IsZero() {
		uptimeHours = time.Since(startTime).Hours()
	}

	procArgs := []any{
		"type", "proc",
		"sequence", sequence,
		"uptime_hours", fmt.Sprintf("%.2f", uptimeHours),
		"queued_entries", s.state.TotalEntriesQueued.Load(),
		"written_entries", s.state.TotalEntriesWritten.Load(),
		"failed_entries", s.state.TotalFailedEntries.Load(),
		"dropped_entries", s.state.DroppedEntries.Load(),
		"rejected_entries", s.state.RejectedEntries.Load(),
		"cycles", s.state.TotalCycles.Load(),
		"aborted_cycles", s.state.AbortedCycles.Load(),
		"rotations", s.state.TotalRotations.Load(),
		"archived_files", s.state.TotalArchived.Load(),
		"deleted_files", s.state.TotalDeletions.Load(),
	}

	s.writeHeartbeatRecord(c, procArgs)
}

// logSysHeartbeat records runtime statistics
func (s *Sink) logSysHeartbeat(c *Config) {
	sequence := s.state.HeartbeatSequence.Load()

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	sysArgs := []any{
		"type", "sys",
		"sequence", sequence,
		"alloc_mb", fmt.Sprintf("%.2f", float64(memStats.Alloc)/(1024*1024)),
		"sys_mb", fmt.Sprintf("%.2f", float64(memStats.Sys)/(1024*1024)),
		"num_gc", memStats.NumGC,
		"num_goroutine", runtime.NumGoroutine(),
	}

	s.writeHeartbeatRecord(c, sysArgs)
}

// writeHeartbeatRecord stages the record directly; the writer loop never pushes to its own queue
func (s *Sink) writeHeartbeatRecord(c *Config, args []any) {
	if s.state.ShutdownCalled.Load() {
		return
	}

	s.staged = append(s.staged, logEntry{
		Directory: c.Directory,
		Prefix:    c.HeartbeatPrefix,
		Message:   formatEntry(goroutineID(), time.Now(), c.TimestampFormat, formatArgs(c.TimestampFormat, args...)),
	})
}

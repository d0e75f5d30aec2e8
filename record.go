package sink

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Write queues message for the prefix in the configured directory.
// The line is stamped with the calling goroutine and the current time.
func (s *Sink) Write(prefix, message string) error {
	return s.enqueue("", prefix, message)
}

// WriteDir queues message for the prefix in directory; an empty directory selects the configured default
func (s *Sink) WriteDir(directory, prefix, message string) error {
	return s.enqueue(directory, prefix, message)
}

// Print queues args joined with spaces
func (s *Sink) Print(prefix string, args ...any) error {
	if !s.state.IsInitialized.Load() {
		return ErrNotInitialized
	}
	return s.enqueue("", prefix, formatArgs(s.getConfig().TimestampFormat, args...))
}

// Printf queues a fmt-formatted message
func (s *Sink) Printf(prefix, format string, args ...any) error {
	return s.enqueue("", prefix, fmt.Sprintf(format, args...))
}

// enqueue formats the line on the producer and hands it to the queue, then raises the wake signal
func (s *Sink) enqueue(directory, prefix, message string) error {
	if !s.state.IsInitialized.Load() {
		return ErrNotInitialized
	}
	if s.state.ShutdownCalled.Load() {
		return ErrSinkClosed
	}
	if strings.ContainsAny(prefix, `/\`) {
		return fmtErrorf("prefix cannot contain path separators: '%s'", prefix)
	}

	cfg := s.getConfig()
	if san := s.sanitizer.Load(); san != nil {
		message = san.Sanitize(message)
	}

	entry := logEntry{
		Directory: directory,
		Prefix:    prefix,
		Message:   formatEntry(goroutineID(), time.Now(), cfg.TimestampFormat, message),
	}

	if err := s.queue.push(entry); err != nil {
		switch {
		case errors.Is(err, errEntryDropped):
			// Entry queued, the oldest ones were evicted
			evicted := uint64(1)
			var de *dropError
			if errors.As(err, &de) {
				evicted = uint64(de.count)
			}
			s.state.DroppedEntries.Add(evicted)
		case errors.Is(err, ErrQueueFull):
			s.state.RejectedEntries.Add(1)
			return err
		default:
			return err
		}
	}

	s.state.TotalEntriesQueued.Add(1)
	s.wake.raise()
	return nil
}

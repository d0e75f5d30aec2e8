package sink

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lixenwraith/sink/sanitizer"
)

// ErrorHandler receives flush and housekeeping failures from the writer loop
type ErrorHandler func(err error)

// Sink is the core struct that encapsulates all sink functionality
type Sink struct {
	currentConfig atomic.Value // stores *Config
	state         State
	initMu        sync.Mutex

	sanitizer    atomic.Pointer[sanitizer.Sanitizer]
	errorHandler atomic.Pointer[ErrorHandler]

	queue            *ingestQueue
	wake             *wakeSignal
	done             chan struct{}      // Closed by Shutdown
	exited           chan struct{}      // Closed by the writer loop on return
	flushRequestChan chan chan struct{} // Flush confirmation hand-off
	timerResetChan   chan struct{}      // Raised by ApplyConfig so tickers pick up new intervals

	// Owned by the writer loop
	staged []logEntry
	known  map[destination]struct{}
}

// NewSink creates a new Sink instance with default settings.
// ApplyConfig must be called before entries are accepted.
func NewSink() *Sink {
	s := &Sink{
		queue:            newIngestQueue(),
		wake:             newWakeSignal(),
		done:             make(chan struct{}),
		exited:           make(chan struct{}),
		flushRequestChan: make(chan chan struct{}, 1),
		timerResetChan:   make(chan struct{}, 1),
		known:            make(map[destination]struct{}),
	}

	s.currentConfig.Store(DefaultConfig())
	s.sanitizer.Store(sanitizer.New().Policy(sanitizer.PolicyRaw))

	s.state.ProcessorExited.Store(true)
	s.state.LoggerStartTime.Store(time.Time{})

	return s
}

// ApplyConfig applies a validated configuration to the sink.
// It may be called again while running; tickers and queue bounds follow the new values.
func (s *Sink) ApplyConfig(cfg *Config) error {
	if cfg == nil {
		return fmtErrorf("configuration cannot be nil")
	}

	if err := cfg.Validate(); err != nil {
		return fmtErrorf("invalid configuration: %w", err)
	}

	s.initMu.Lock()
	defer s.initMu.Unlock()

	return s.applyConfig(cfg.Clone())
}

// GetConfig returns a copy of current configuration
func (s *Sink) GetConfig() *Config {
	return s.getConfig().Clone()
}

// SetErrorHandler installs fn to receive writer loop failures; nil removes it
func (s *Sink) SetErrorHandler(fn ErrorHandler) {
	if fn == nil {
		s.errorHandler.Store(nil)
		return
	}
	s.errorHandler.Store(&fn)
}

// Start launches the writer loop. Safe to call multiple times.
// Returns error if the sink is not initialized or already shut down.
func (s *Sink) Start() error {
	s.initMu.Lock()
	defer s.initMu.Unlock()

	if !s.state.IsInitialized.Load() {
		return fmtErrorf("sink not initialized, call ApplyConfig first")
	}
	if s.state.ShutdownCalled.Load() {
		return fmtErrorf("cannot start: %w", ErrSinkClosed)
	}

	if s.state.Started.CompareAndSwap(false, true) {
		s.state.LoggerStartTime.Store(time.Now())
		s.state.ProcessorExited.Store(false)
		go s.processEntries()
	}

	return nil
}

// Shutdown stops accepting entries, drains everything pending and waits for the writer loop to exit.
// If no timeout is provided, a default of 5 seconds is used. On timeout the loop keeps draining in the background.
func (s *Sink) Shutdown(timeout ...time.Duration) error {
	s.initMu.Lock()
	if !s.state.ShutdownCalled.CompareAndSwap(false, true) {
		s.initMu.Unlock()
		return nil
	}

	s.queue.close()
	started := s.state.Started.Load()
	s.initMu.Unlock()

	close(s.done)

	if !started {
		// No writer loop, drain on the caller
		if s.state.IsInitialized.Load() {
			s.drainPending()
		}
		close(s.exited)
		return nil
	}

	effectiveTimeout := defaultShutdownTimeout
	if len(timeout) > 0 && timeout[0] > 0 {
		effectiveTimeout = timeout[0]
	}

	select {
	case <-s.exited:
		return nil
	case <-time.After(effectiveTimeout):
		return fmtErrorf("writer loop did not exit within timeout (%v)", effectiveTimeout)
	}
}

// Flush waits until every entry accepted before the call has been written, or until timeout
func (s *Sink) Flush(timeout time.Duration) error {
	s.state.flushMutex.Lock()
	defer s.state.flushMutex.Unlock()

	if !s.state.IsInitialized.Load() || s.state.ShutdownCalled.Load() {
		return fmtErrorf("sink not initialized or already shut down")
	}
	if !s.state.Started.Load() {
		return fmtErrorf("sink not started")
	}

	confirmChan := make(chan struct{})
	deadline := time.After(timeout)

	select {
	case s.flushRequestChan <- confirmChan:
		// Request sent
	case <-s.exited:
		return fmtErrorf("flush: %w", ErrSinkClosed)
	case <-deadline:
		return fmtErrorf("failed to send flush request to writer loop within %v", timeout)
	}

	// The loop may exit after the request is buffered; its final drain has written everything by then
	select {
	case <-confirmChan:
		return nil
	case <-s.exited:
		return fmtErrorf("flush: %w", ErrSinkClosed)
	case <-deadline:
		return fmtErrorf("timeout waiting for flush confirmation (%v)", timeout)
	}
}

// getConfig returns the current configuration (thread-safe)
func (s *Sink) getConfig() *Config {
	return s.currentConfig.Load().(*Config)
}

// applyConfig is the internal implementation for applying configuration, assuming initMu is held
func (s *Sink) applyConfig(cfg *Config) error {
	if s.state.ShutdownCalled.Load() {
		return fmtErrorf("cannot apply configuration: %w", ErrSinkClosed)
	}

	if cfg.Directory != "" {
		if err := os.MkdirAll(cfg.Directory, 0755); err != nil {
			return fmtErrorf("%w: '%s': %w", ErrDirectoryCreate, cfg.Directory, err)
		}
	}

	s.currentConfig.Store(cfg)
	s.sanitizer.Store(sanitizer.New().Policy(sanitizer.PolicyPreset(cfg.Sanitization)))
	s.queue.setLimit(int(cfg.QueueCapacity), cfg.OverflowPolicy)
	s.state.IsInitialized.Store(true)

	select {
	case s.timerResetChan <- struct{}{}:
	default:
		// Reset already pending
	}

	return nil
}

// reportError hands a writer loop failure to the error handler and to stderr when enabled
func (s *Sink) reportError(err error) {
	if err == nil {
		return
	}
	if fn := s.errorHandler.Load(); fn != nil {
		(*fn)(err)
	}
	s.internalLog("%s\n", strings.TrimPrefix(err.Error(), "sink: "))
}

// internalLog handles writing internal sink diagnostics to stderr, if enabled.
func (s *Sink) internalLog(format string, args ...any) {
	cfg := s.getConfig()
	if !cfg.InternalErrorsToStderr {
		return
	}

	if !strings.HasPrefix(format, "sink: ") {
		format = "sink: " + format
	}

	fmt.Fprintf(os.Stderr, format, args...)
}

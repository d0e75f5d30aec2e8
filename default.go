package sink

import (
	"sync"
	"time"
)

// Process-wide sink behind the package-level functions
var (
	defaultSink     *Sink
	defaultSinkOnce sync.Once
)

func getDefaultSink() *Sink {
	defaultSinkOnce.Do(func() {
		defaultSink = NewSink()
	})
	return defaultSink
}

// Default returns the process-wide sink used by the package-level functions
func Default() *Sink {
	return getDefaultSink()
}

// Init configures and starts the process-wide sink; a nil cfg selects defaults.
// Calling it again reconfigures the running sink.
func Init(cfg *Config) error {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	s := getDefaultSink()
	if err := s.ApplyConfig(cfg); err != nil {
		return err
	}
	return s.Start()
}

// Write queues message for prefix in the default directory of the process-wide sink
func Write(prefix, message string) error {
	return getDefaultSink().Write(prefix, message)
}

// WriteDir queues message for prefix in directory on the process-wide sink
func WriteDir(directory, prefix, message string) error {
	return getDefaultSink().WriteDir(directory, prefix, message)
}

// Flush waits for the process-wide sink to write everything queued so far
func Flush(timeout time.Duration) error {
	return getDefaultSink().Flush(timeout)
}

// Shutdown drains and stops the process-wide sink
func Shutdown(timeout ...time.Duration) error {
	return getDefaultSink().Shutdown(timeout...)
}

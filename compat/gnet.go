package compat

import (
	"fmt"
	"os"
	"time"

	"github.com/lixenwraith/sink"
	"github.com/panjf2000/gnet/v2/pkg/logging"
)

var _ logging.Logger = (*GnetAdapter)(nil)

// GnetAdapter routes gnet engine logs into one sink destination
type GnetAdapter struct {
	sink         *sink.Sink
	directory    string
	prefix       string
	fatalHandler func(msg string) // Customizable fatal behavior
}

// NewGnetAdapter creates a new gnet-compatible logger adapter writing to the "gnet_" prefix
func NewGnetAdapter(s *sink.Sink, opts ...GnetOption) *GnetAdapter {
	adapter := &GnetAdapter{
		sink:   s,
		prefix: "gnet_",
		fatalHandler: func(msg string) {
			os.Exit(1) // Default behavior matches gnet expectations
		},
	}

	for _, opt := range opts {
		opt(adapter)
	}

	return adapter
}

// GnetOption allows customizing adapter behavior
type GnetOption func(*GnetAdapter)

// WithFatalHandler sets a custom fatal handler
func WithFatalHandler(handler func(string)) GnetOption {
	return func(a *GnetAdapter) {
		a.fatalHandler = handler
	}
}

// WithGnetDestination sets the directory and prefix of the gnet log files
func WithGnetDestination(directory, prefix string) GnetOption {
	return func(a *GnetAdapter) {
		a.directory = directory
		a.prefix = prefix
	}
}

// Debugf writes a DEBUG tagged line
func (a *GnetAdapter) Debugf(format string, args ...any) {
	a.write("DEBUG", format, args...)
}

// Infof writes an INFO tagged line
func (a *GnetAdapter) Infof(format string, args ...any) {
	a.write("INFO", format, args...)
}

// Warnf writes a WARN tagged line
func (a *GnetAdapter) Warnf(format string, args ...any) {
	a.write("WARN", format, args...)
}

// Errorf writes an ERROR tagged line
func (a *GnetAdapter) Errorf(format string, args ...any) {
	a.write("ERROR", format, args...)
}

// Fatalf writes a FATAL tagged line, flushes and triggers the fatal handler
func (a *GnetAdapter) Fatalf(format string, args ...any) {
	msg := a.write("FATAL", format, args...)

	// Ensure the line is on disk before exit
	_ = a.sink.Flush(100 * time.Millisecond)

	if a.fatalHandler != nil {
		a.fatalHandler(msg)
	}
}

func (a *GnetAdapter) write(tag, format string, args ...any) string {
	msg := fmt.Sprintf(format, args...)
	_ = a.sink.WriteDir(a.directory, a.prefix, tagMessage(tag, msg))
	return msg
}

// tagMessage renders "[TAG] msg"; the tag is informational only
func tagMessage(tag, msg string) string {
	return "[" + tag + "] " + msg
}

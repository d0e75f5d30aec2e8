package compat

import (
	"fmt"
	"strings"

	"github.com/lixenwraith/sink"
	"github.com/valyala/fasthttp"
)

var _ fasthttp.Logger = (*FastHTTPAdapter)(nil)

// FastHTTPAdapter routes fasthttp server logs into one sink destination
type FastHTTPAdapter struct {
	sink        *sink.Sink
	directory   string
	prefix      string
	defaultTag  string
	tagDetector func(string) string // Derives a tag from message content
}

// NewFastHTTPAdapter creates a new fasthttp-compatible logger adapter writing to the "fasthttp_" prefix
func NewFastHTTPAdapter(s *sink.Sink, opts ...FastHTTPOption) *FastHTTPAdapter {
	adapter := &FastHTTPAdapter{
		sink:        s,
		prefix:      "fasthttp_",
		defaultTag:  "INFO",
		tagDetector: DetectTag,
	}

	for _, opt := range opts {
		opt(adapter)
	}

	return adapter
}

// FastHTTPOption allows customizing adapter behavior
type FastHTTPOption func(*FastHTTPAdapter)

// WithDefaultTag sets the tag used when detection finds nothing
func WithDefaultTag(tag string) FastHTTPOption {
	return func(a *FastHTTPAdapter) {
		a.defaultTag = tag
	}
}

// WithTagDetector sets a custom function to derive the tag from message content
func WithTagDetector(detector func(string) string) FastHTTPOption {
	return func(a *FastHTTPAdapter) {
		a.tagDetector = detector
	}
}

// WithFastHTTPDestination sets the directory and prefix of the fasthttp log files
func WithFastHTTPDestination(directory, prefix string) FastHTTPOption {
	return func(a *FastHTTPAdapter) {
		a.directory = directory
		a.prefix = prefix
	}
}

// Printf implements fasthttp's Logger interface
func (a *FastHTTPAdapter) Printf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)

	tag := a.defaultTag
	if a.tagDetector != nil {
		if detected := a.tagDetector(msg); detected != "" {
			tag = detected
		}
	}

	_ = a.sink.WriteDir(a.directory, a.prefix, tagMessage(tag, msg))
}

// DetectTag guesses a severity tag from message content, empty when nothing matches
func DetectTag(msg string) string {
	msgLower := strings.ToLower(msg)

	if strings.Contains(msgLower, "error") ||
		strings.Contains(msgLower, "failed") ||
		strings.Contains(msgLower, "fatal") ||
		strings.Contains(msgLower, "panic") {
		return "ERROR"
	}

	if strings.Contains(msgLower, "warn") ||
		strings.Contains(msgLower, "deprecated") {
		return "WARN"
	}

	if strings.Contains(msgLower, "debug") ||
		strings.Contains(msgLower, "trace") {
		return "DEBUG"
	}

	return ""
}

package compat

import (
	"fmt"

	"github.com/lixenwraith/sink"
)

// Builder creates gnet and fasthttp adapters sharing one sink.
// It can use an existing *sink.Sink or create and start one from a *sink.Config.
type Builder struct {
	sink    *sink.Sink
	sinkCfg *sink.Config
	err     error
}

// NewBuilder creates a new adapter builder
func NewBuilder() *Builder {
	return &Builder{}
}

// WithSink specifies an existing sink to use for the adapters.
// If this is set WithConfig is ignored.
func (b *Builder) WithSink(s *sink.Sink) *Builder {
	if s == nil {
		b.err = fmt.Errorf("sink/compat: provided sink cannot be nil")
		return b
	}
	b.sink = s
	return b
}

// WithConfig provides a configuration for a new sink instance,
// used only if no sink was given via WithSink
func (b *Builder) WithConfig(cfg *sink.Config) *Builder {
	b.sinkCfg = cfg
	return b
}

// getSink resolves the sink to be used, creating and starting one if necessary
func (b *Builder) getSink() (*sink.Sink, error) {
	if b.err != nil {
		return nil, b.err
	}

	if b.sink != nil {
		return b.sink, nil
	}

	cfg := b.sinkCfg
	if cfg == nil {
		cfg = sink.DefaultConfig()
	}

	s := sink.NewSink()
	if err := s.ApplyConfig(cfg); err != nil {
		return nil, err
	}
	if err := s.Start(); err != nil {
		return nil, err
	}

	// Cache the new sink for subsequent builds with this builder
	b.sink = s
	return s, nil
}

// BuildGnet creates a gnet adapter
func (b *Builder) BuildGnet(opts ...GnetOption) (*GnetAdapter, error) {
	s, err := b.getSink()
	if err != nil {
		return nil, err
	}
	return NewGnetAdapter(s, opts...), nil
}

// BuildFastHTTP creates a fasthttp adapter
func (b *Builder) BuildFastHTTP(opts ...FastHTTPOption) (*FastHTTPAdapter, error) {
	s, err := b.getSink()
	if err != nil {
		return nil, err
	}
	return NewFastHTTPAdapter(s, opts...), nil
}

// GetSink returns the underlying sink, creating it if needed
func (b *Builder) GetSink() (*sink.Sink, error) {
	return b.getSink()
}

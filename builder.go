package sink

// Builder provides a fluent API for building sink configurations.
// It wraps a Config instance and provides chainable methods for setting values.
type Builder struct {
	cfg          *Config
	errorHandler ErrorHandler
	err          error // Accumulate errors for deferred handling
}

// NewBuilder creates a new configuration builder with default values.
func NewBuilder() *Builder {
	return &Builder{
		cfg: DefaultConfig(),
	}
}

// Build creates a Sink with the configuration and starts its writer loop.
func (b *Builder) Build() (*Sink, error) {
	if b.err != nil {
		return nil, b.err
	}

	s := NewSink()
	if b.errorHandler != nil {
		s.SetErrorHandler(b.errorHandler)
	}

	if err := s.ApplyConfig(b.cfg); err != nil {
		return nil, err
	}

	if err := s.Start(); err != nil {
		return nil, err
	}

	return s, nil
}

// Config returns a copy of the configuration built so far.
func (b *Builder) Config() (*Config, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.cfg.Clone(), nil
}

// Directory sets the default log directory.
func (b *Builder) Directory(dir string) *Builder {
	b.cfg.Directory = dir
	return b
}

// Extension sets the file extension, without the dot.
func (b *Builder) Extension(ext string) *Builder {
	b.cfg.Extension = ext
	return b
}

// TimestampFormat sets the per-line timestamp layout.
func (b *Builder) TimestampFormat(layout string) *Builder {
	b.cfg.TimestampFormat = layout
	return b
}

// Sanitization sets the message sanitization policy.
func (b *Builder) Sanitization(policy string) *Builder {
	b.cfg.Sanitization = policy
	return b
}

// MaxFileSizeKB sets the rotation cap in KB.
func (b *Builder) MaxFileSizeKB(size int64) *Builder {
	b.cfg.MaxFileSizeKB = size
	return b
}

// MaxFileSizeMB sets the rotation cap in MB. Convenience.
func (b *Builder) MaxFileSizeMB(size int64) *Builder {
	b.cfg.MaxFileSizeKB = size * sizeMultiplier
	return b
}

// MergeCutoffKB sets the cap on one merged flush in KB.
func (b *Builder) MergeCutoffKB(size int64) *Builder {
	b.cfg.MergeCutoffKB = size
	return b
}

// MergePolicy selects "cycle" or "group" cutoff handling.
func (b *Builder) MergePolicy(policy string) *Builder {
	b.cfg.MergePolicy = policy
	return b
}

// RotationOrder selects "name" or "numeric" candidate ordering.
func (b *Builder) RotationOrder(order string) *Builder {
	b.cfg.RotationOrder = order
	return b
}

// SyncOnFlush enables fsync after every append.
func (b *Builder) SyncOnFlush(enable bool) *Builder {
	b.cfg.SyncOnFlush = enable
	return b
}

// QueueCapacity bounds the ingestion queue with an overflow policy.
func (b *Builder) QueueCapacity(capacity int64, policy string) *Builder {
	b.cfg.QueueCapacity = capacity
	b.cfg.OverflowPolicy = policy
	return b
}

// Retention enables deletion of files older than hrs, checked every checkMins.
func (b *Builder) Retention(hrs, checkMins float64) *Builder {
	b.cfg.RetentionPeriodHrs = hrs
	b.cfg.HousekeepingCheckMins = checkMins
	return b
}

// CompressArchived enables zstd compression of past-day files.
func (b *Builder) CompressArchived(enable bool) *Builder {
	b.cfg.CompressArchived = enable
	return b
}

// HeartbeatLevel sets the heartbeat monitoring level.
func (b *Builder) HeartbeatLevel(level int64) *Builder {
	b.cfg.HeartbeatLevel = level
	return b
}

// HeartbeatIntervalS sets the heartbeat interval in seconds.
func (b *Builder) HeartbeatIntervalS(interval int64) *Builder {
	b.cfg.HeartbeatIntervalS = interval
	return b
}

// InternalErrorsToStderr mirrors writer loop failures to stderr.
func (b *Builder) InternalErrorsToStderr(enable bool) *Builder {
	b.cfg.InternalErrorsToStderr = enable
	return b
}

// ErrorHandler installs a receiver for writer loop failures.
func (b *Builder) ErrorHandler(fn ErrorHandler) *Builder {
	b.errorHandler = fn
	return b
}

// Override applies "key=value" strings, as accepted by ApplyOverride.
func (b *Builder) Override(overrides ...string) *Builder {
	if b.err != nil {
		return b
	}
	for _, override := range overrides {
		key, value, err := parseKeyValue(override)
		if err != nil {
			b.err = err
			return b
		}
		if err := applyConfigField(b.cfg, key, value); err != nil {
			b.err = err
			return b
		}
	}
	return b
}

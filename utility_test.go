package sink

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKeyValue(t *testing.T) {
	tests := []struct {
		input     string
		key       string
		value     string
		expectErr bool
	}{
		{"directory=/var/log", "directory", "/var/log", false},
		{" queue_capacity = 10 ", "queue_capacity", "10", false},
		{"timestamp_format=15:04:05=x", "timestamp_format", "15:04:05=x", false},
		{"extension=", "extension", "", false},
		{"no_separator", "", "", true},
		{"=value", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			key, value, err := parseKeyValue(tt.input)
			if tt.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.key, key)
			assert.Equal(t, tt.value, value)
		})
	}
}

func TestFmtErrorf(t *testing.T) {
	err := fmtErrorf("failed: %w", ErrFileWrite)
	assert.Equal(t, "sink: failed: file write failure", err.Error())
	assert.ErrorIs(t, err, ErrFileWrite)

	// Prefix is not doubled
	assert.Equal(t, "sink: once", fmtErrorf("sink: once").Error())
}

func TestCombineErrors(t *testing.T) {
	first := errors.New("first")
	second := errors.New("second")

	assert.NoError(t, combineErrors(nil, nil))
	assert.Same(t, first, combineErrors(first, nil))
	assert.Same(t, second, combineErrors(nil, second))

	joined := combineErrors(first, second)
	assert.ErrorIs(t, joined, first)
	assert.ErrorIs(t, joined, second)
}

func TestCombineConfigErrors(t *testing.T) {
	assert.NoError(t, combineConfigErrors(nil))

	single := fmtErrorf("only")
	assert.Same(t, single, combineConfigErrors([]error{single}))

	err := combineConfigErrors([]error{fmtErrorf("bad a"), fmtErrorf("bad b")})
	assert.Equal(t, "sink: multiple configuration errors:\n  1. bad a\n  2. bad b", err.Error())
}

func TestApplyConfigField(t *testing.T) {
	cfg := DefaultConfig()

	require.NoError(t, applyConfigField(cfg, "merge_cutoff_kb", "128"))
	require.NoError(t, applyConfigField(cfg, "retention_period_hrs", "1.5"))
	require.NoError(t, applyConfigField(cfg, "sync_on_flush", "true"))
	require.NoError(t, applyConfigField(cfg, "heartbeat_prefix", "hb_"))

	assert.Equal(t, int64(128), cfg.MergeCutoffKB)
	assert.Equal(t, 1.5, cfg.RetentionPeriodHrs)
	assert.True(t, cfg.SyncOnFlush)
	assert.Equal(t, "hb_", cfg.HeartbeatPrefix)

	assert.Error(t, applyConfigField(cfg, "merge_cutoff_kb", "big"))
	assert.Error(t, applyConfigField(cfg, "retention_period_hrs", "soon"))
	assert.Error(t, applyConfigField(cfg, "sync_on_flush", "maybe"))
	assert.Error(t, applyConfigField(cfg, "no_such_key", "1"))
}

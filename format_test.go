package sink

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatEntry(t *testing.T) {
	ts := time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)
	assert.Equal(t, "[42] 2025-03-04 05:06:07 hello", formatEntry(42, ts, DefaultTimeFormat, "hello"))
	assert.Equal(t, "[1] 2025-03-04 05:06:07 ", formatEntry(1, ts, DefaultTimeFormat, ""))
	assert.Equal(t, "[7] 05:06 x", formatEntry(7, ts, "15:04", "x"))
}

type point struct {
	X, Y int
}

type named string

func (n named) String() string { return "named:" + string(n) }

func TestFormatArgs(t *testing.T) {
	ts := time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)

	tests := []struct {
		name     string
		args     []any
		expected string
	}{
		{"strings", []any{"a", "b"}, "a b"},
		{"numbers", []any{1, int64(-2), uint32(3), 1.25, float32(0.5)}, "1 -2 3 1.25 0.5"},
		{"bool and nil", []any{true, nil}, "true nil"},
		{"time", []any{ts}, "2025-03-04 05:06:07"},
		{"duration", []any{1500 * time.Millisecond}, "1.5s"},
		{"error", []any{errors.New("boom")}, "boom"},
		{"stringer", []any{named("x")}, "named:x"},
		{"bytes", []any{[]byte{0xde, 0xad}}, "dead"},
		{"empty", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatArgs(DefaultTimeFormat, tt.args...))
		})
	}

	t.Run("composite values stay on one line", func(t *testing.T) {
		out := formatArgs(DefaultTimeFormat, point{X: 1, Y: 2}, map[string]int{"b": 2, "a": 1})
		assert.NotContains(t, out, "\n")
		assert.Contains(t, out, "X: (int) 1")
		assert.Contains(t, out, `"a": (int) 1`)
	})
}

func TestGoroutineID(t *testing.T) {
	id := goroutineID()
	assert.NotZero(t, id)

	other := make(chan uint64)
	go func() { other <- goroutineID() }()
	assert.NotEqual(t, id, <-other)
}

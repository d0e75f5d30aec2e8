package sink

import (
	"strings"
	"time"
)

// Size defaults, in KiB
const (
	DefaultMaxFileSizeKB int64 = 10 * 1024 // 10 MiB per log file
	DefaultMergeCutoffKB int64 = 64        // 64 KiB per merged flush
	sizeMultiplier       int64 = 1024
)

// File naming
const (
	DefaultExtension  = "log"
	DefaultDirName    = "Logs" // Created under the working directory when no directory is configured
	DefaultDateFormat = "20060102"
	DefaultTimeFormat = "2006-01-02 15:04:05"
)

// Merge policies, selected by the merge_policy key
const (
	MergePolicyCycle = "cycle" // First oversized merge ends the whole cycle
	MergePolicyGroup = "group" // Only the oversized destination is deferred
)

// Rotation candidate ordering, selected by the rotation_order key
const (
	RotationOrderName    = "name"    // Longest name, ties by last name in byte order
	RotationOrderNumeric = "numeric" // Highest parsed sequence
)

// Overflow policies for a bounded queue
const (
	OverflowBlock  = "block"  // Producer waits for space
	OverflowDrop   = "drop"   // Oldest queued entry is discarded
	OverflowReject = "reject" // Write returns ErrQueueFull
)

// Heartbeat levels
const (
	HeartbeatOff  int64 = 0
	HeartbeatProc int64 = 1
	HeartbeatSys  int64 = 2
)

// trailerLine closes every flushed batch
var trailerLine = strings.Repeat("-", 88)

// Timers
const (
	// Minimum wait time used throughout the package
	minWaitTime = 10 * time.Millisecond
	// Shutdown wait when no timeout is given
	defaultShutdownTimeout = 5 * time.Second
	// Extension appended to archived files
	archiveExtension = ".zst"
)

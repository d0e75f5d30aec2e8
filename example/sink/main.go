package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lixenwraith/sink"
)

const (
	logDirectory = "./temp_logs"
	flushTimeout = time.Second
)

// main runs each scenario against its own sink
func main() {
	if err := os.RemoveAll(logDirectory); err != nil {
		fmt.Printf("Warning: could not remove old log directory: %v\n", err)
	}
	if err := os.MkdirAll(logDirectory, 0755); err != nil {
		fmt.Printf("Fatal: could not create log directory: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("--- Running Sink Scenarios ---")
	fmt.Printf("! All files will be in the '%s' directory.\n\n", logDirectory)

	testDestinations()
	testRotation()
	testMergePolicies()
	testSanitization()

	fmt.Println("\n--- Sink Scenarios Complete ---")
	listFiles()
}

// testDestinations writes to several prefixes and directories from one sink
func testDestinations() {
	s := runPhase("1: Destinations", "directory="+logDirectory)
	_ = s.Write("orders_", "order 1001 accepted")
	_ = s.Write("payments_", "payment 1001 captured")
	_ = s.WriteDir(filepath.Join(logDirectory, "audit"), "audit_", "user admin logged in")
	_ = s.Printf("orders_", "order %d shipped", 1001)
	shutdownPhase(s, "1: Destinations")
}

// testRotation fills a 1 KiB file cap to show sequence rollover
func testRotation() {
	s := runPhase("2: Rotation", "directory="+logDirectory, "max_file_size_kb=1")
	line := strings.Repeat("r", 200)
	for i := 0; i < 20; i++ {
		_ = s.Printf("rotate_", "%02d %s", i, line)
		_ = s.Flush(flushTimeout)
	}
	shutdownPhase(s, "2: Rotation")
}

// testMergePolicies compares whole-cycle and per-destination cutoff handling
func testMergePolicies() {
	for _, policy := range []string{sink.MergePolicyCycle, sink.MergePolicyGroup} {
		s := runPhase("3: Merge "+policy,
			"directory="+logDirectory,
			"merge_cutoff_kb=1",
			"merge_policy="+policy,
		)
		big := strings.Repeat("m", 300)
		for i := 0; i < 10; i++ {
			_ = s.Printf("merge_"+policy+"_", "%d %s", i, big)
			_ = s.Write("small_"+policy+"_", fmt.Sprintf("tick %d", i))
		}
		shutdownPhase(s, "3: Merge "+policy)
	}
}

// testSanitization writes control characters under each policy
func testSanitization() {
	for _, policy := range []string{"raw", "txt", "single"} {
		s := runPhase("4: Sanitization "+policy,
			"directory="+logDirectory,
			"sanitization="+policy,
		)
		_ = s.Write("sanitize_"+policy+"_", "tab\there\nsecond line\x1b[31m")
		shutdownPhase(s, "4: Sanitization "+policy)
	}
}

// runPhase builds and starts a sink for one scenario
func runPhase(phaseName string, overrides ...string) *sink.Sink {
	fmt.Printf("\n[Phase %s]\n", phaseName)
	fmt.Println("  Config:", overrides)

	s, err := sink.NewBuilder().Override(overrides...).Build()
	if err != nil {
		fmt.Printf("  ERROR: Failed to build sink: %v\n", err)
		os.Exit(1)
	}
	return s
}

// shutdownPhase drains the sink and prints its counters
func shutdownPhase(s *sink.Sink, phaseName string) {
	if err := s.Shutdown(500 * time.Millisecond); err != nil {
		fmt.Printf("  WARNING: Shutdown error in phase '%s': %v\n", phaseName, err)
	}
	stats := s.Stats()
	fmt.Printf("  written=%d flushes=%d rotations=%d cycles=%d aborted=%d deferred=%d\n",
		stats.Written, stats.Flushes, stats.Rotations, stats.Cycles, stats.AbortedCycles, stats.Deferred)
}

// listFiles prints every file produced by the scenarios
func listFiles() {
	_ = filepath.WalkDir(logDirectory, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		if info, infoErr := d.Info(); infoErr == nil {
			fmt.Printf("  %-60s %6d bytes\n", path, info.Size())
		}
		return nil
	})
}

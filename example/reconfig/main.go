package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/lixenwraith/sink"
)

// Writes continuously while the config file and overrides change underneath
func main() {
	var count atomic.Int64

	dir, err := os.MkdirTemp("", "sink-reconfig")
	if err != nil {
		fmt.Printf("Temp dir error: %v\n", err)
		return
	}
	configPath := filepath.Join(dir, "sink.toml")

	cfg := sink.DefaultConfig()
	cfg.Directory = filepath.Join(dir, "logs")
	if err := cfg.Save(configPath); err != nil {
		fmt.Printf("Save error: %v\n", err)
		return
	}

	s := sink.NewSink()
	s.SetErrorHandler(func(err error) { fmt.Printf("Sink error: %v\n", err) })
	if err := s.ApplyConfig(cfg); err != nil {
		fmt.Printf("Initial config error: %v\n", err)
		return
	}
	if err := s.Start(); err != nil {
		fmt.Printf("Start error: %v\n", err)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := s.WatchConfig(ctx, configPath); err != nil {
		fmt.Printf("Watch error: %v\n", err)
	}

	go func() {
		for i := 0; ; i++ {
			if err := s.Printf("reconfig_", "entry %d", i); err != nil {
				return
			}
			count.Add(1)
			time.Sleep(time.Millisecond)
		}
	}()

	// Rapid override changes
	for i := 0; i < 10; i++ {
		if err := s.ApplyOverride(fmt.Sprintf("merge_cutoff_kb=%d", 4*(i+1))); err != nil {
			fmt.Printf("Override error: %v\n", err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	// File-driven change picked up by the watcher
	cfg.MergePolicy = sink.MergePolicyGroup
	if err := cfg.Save(configPath); err != nil {
		fmt.Printf("Save error: %v\n", err)
	}

	time.Sleep(500 * time.Millisecond)
	fmt.Printf("Merge policy now: %s\n", s.GetConfig().MergePolicy)

	if err := s.Shutdown(time.Second); err != nil {
		fmt.Printf("Shutdown error: %v\n", err)
	}

	stats := s.Stats()
	fmt.Printf("Attempted: %d, written: %d, cycles: %d, aborted: %d\n",
		count.Load(), stats.Written, stats.Cycles, stats.AbortedCycles)
}

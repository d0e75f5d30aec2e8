package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/lixenwraith/sink"
	"github.com/urfave/cli/v3"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86")).
			Background(lipgloss.Color("235")).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Width(18)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	okStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("32"))

	failStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196"))

	blockStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
)

func main() {
	app := &cli.Command{
		Name:  "sinkbench",
		Usage: "Write N×M lines through the sink from concurrent goroutines and verify the output",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "goroutines",
				Usage: "Number of producer goroutines",
				Value: 10,
			},
			&cli.IntFlag{
				Name:  "writes",
				Usage: "Writes per goroutine",
				Value: 100000,
			},
			&cli.StringFlag{
				Name:  "dir",
				Usage: "Output directory",
				Value: "./bench_logs",
			},
			&cli.StringFlag{
				Name:  "prefix",
				Usage: "File name prefix",
				Value: "bench_",
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: "Optional TOML file with a [sink] table",
			},
			&cli.StringFlag{
				Name:  "merge-policy",
				Usage: "cycle or group",
				Value: sink.MergePolicyCycle,
			},
			&cli.BoolFlag{
				Name:  "clean",
				Usage: "Remove the output directory before the run",
				Value: true,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return runBench(benchOptions{
				goroutines:  c.Int("goroutines"),
				writes:      c.Int("writes"),
				dir:         c.String("dir"),
				prefix:      c.String("prefix"),
				configPath:  c.String("config"),
				mergePolicy: c.String("merge-policy"),
				clean:       c.Bool("clean"),
			})
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

type benchOptions struct {
	goroutines  int
	writes      int
	dir         string
	prefix      string
	configPath  string
	mergePolicy string
	clean       bool
}

type benchResult struct {
	expected  int
	lines     int
	files     int
	enqueue   time.Duration
	drain     time.Duration
	stats     sink.Stats
	verifyErr error
}

func runBench(opts benchOptions) error {
	if opts.goroutines <= 0 || opts.writes <= 0 {
		return fmt.Errorf("goroutines and writes must be positive")
	}

	cfg := sink.DefaultConfig()
	if opts.configPath != "" {
		loaded, err := sink.NewConfigFromFile(opts.configPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	}
	cfg.Directory = opts.dir
	cfg.MergePolicy = opts.mergePolicy

	if opts.clean {
		if err := os.RemoveAll(opts.dir); err != nil {
			return fmt.Errorf("cleaning output directory: %w", err)
		}
	}

	s := sink.NewSink()
	s.SetErrorHandler(func(err error) {
		fmt.Fprintf(os.Stderr, "flush error: %v\n", err)
	})
	if err := s.ApplyConfig(cfg); err != nil {
		return fmt.Errorf("applying config: %w", err)
	}
	if err := s.Start(); err != nil {
		return fmt.Errorf("starting sink: %w", err)
	}

	res := benchResult{expected: opts.goroutines * opts.writes}

	start := time.Now()
	var wg sync.WaitGroup
	for g := 0; g < opts.goroutines; g++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for i := 0; i < opts.writes; i++ {
				if err := s.Write(opts.prefix, fmt.Sprintf("worker=%d seq=%d", worker, i)); err != nil {
					fmt.Fprintf(os.Stderr, "write failed: %v\n", err)
					return
				}
			}
		}(g)
	}
	wg.Wait()
	res.enqueue = time.Since(start)

	if err := s.Shutdown(5 * time.Minute); err != nil {
		return fmt.Errorf("shutting down sink: %w", err)
	}
	res.drain = time.Since(start)
	res.stats = s.Stats()

	lines, files, err := countEntries(opts.dir, opts.prefix)
	if err != nil {
		return fmt.Errorf("counting output: %w", err)
	}
	res.lines, res.files = lines, files
	if lines != res.expected {
		res.verifyErr = fmt.Errorf("expected %d lines, found %d", res.expected, lines)
	}

	fmt.Println(renderResult(opts, res))
	return res.verifyErr
}

// countEntries counts entry lines across the prefix's files in dir, trailer lines excluded
func countEntries(dir, prefix string) (lines int, files int, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, 0, err
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), prefix) {
			continue
		}
		files++

		f, err := os.Open(filepath.Join(dir, entry.Name()))
		if err != nil {
			return 0, 0, err
		}
		scanner := bufio.NewScanner(f)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := scanner.Text()
			if line == "" || strings.HasPrefix(line, "---") {
				continue
			}
			lines++
		}
		scanErr := scanner.Err()
		f.Close()
		if scanErr != nil {
			return 0, 0, scanErr
		}
	}
	return lines, files, nil
}

func renderResult(opts benchOptions, res benchResult) string {
	rows := [][2]string{
		{"producers", fmt.Sprintf("%d × %d", opts.goroutines, opts.writes)},
		{"merge policy", opts.mergePolicy},
		{"enqueue time", res.enqueue.Round(time.Millisecond).String()},
		{"total time", res.drain.Round(time.Millisecond).String()},
		{"lines on disk", fmt.Sprintf("%d / %d", res.lines, res.expected)},
		{"files", fmt.Sprintf("%d", res.files)},
		{"cycles", fmt.Sprintf("%d (%d aborted)", res.stats.Cycles, res.stats.AbortedCycles)},
		{"flushes", fmt.Sprintf("%d (%d failed)", res.stats.Flushes, res.stats.FailedFlushes)},
		{"rotations", fmt.Sprintf("%d", res.stats.Rotations)},
	}

	var body strings.Builder
	for i, row := range rows {
		if i > 0 {
			body.WriteString("\n")
		}
		body.WriteString(labelStyle.Render(row[0]))
		body.WriteString(valueStyle.Render(row[1]))
	}

	status := okStyle.Render("OK")
	if res.verifyErr != nil {
		status = failStyle.Render("MISMATCH: " + res.verifyErr.Error())
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("sinkbench"),
		blockStyle.Render(body.String()),
		status,
	)
}

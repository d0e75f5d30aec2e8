package sink

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeAged creates name in dir with content and a modification time age in the past
func writeAged(t *testing.T, dir, name, content string, age time.Duration) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	old := time.Now().Add(-age)
	require.NoError(t, os.Chtimes(path, old, old))
	return path
}

func TestCompressFile(t *testing.T) {
	tmpDir := t.TempDir()
	src := filepath.Join(tmpDir, "plain.log")
	content := "[1] 2024-01-01 00:00:00 hello\n" + trailerLine + "\n"
	require.NoError(t, os.WriteFile(src, []byte(content), 0644))

	dst := src + archiveExtension
	require.NoError(t, compressFile(src, dst))

	f, err := os.Open(dst)
	require.NoError(t, err)
	defer f.Close()

	decoder, err := zstd.NewReader(f)
	require.NoError(t, err)
	defer decoder.Close()

	decoded, err := io.ReadAll(decoder)
	require.NoError(t, err)
	assert.Equal(t, content, string(decoded))
}

func TestCompressFileMissingSource(t *testing.T) {
	tmpDir := t.TempDir()
	dst := filepath.Join(tmpDir, "missing.log"+archiveExtension)
	assert.Error(t, compressFile(filepath.Join(tmpDir, "missing.log"), dst))
	assert.NoFileExists(t, dst)
}

func TestArchiveLogs(t *testing.T) {
	s, tmpDir := newManualSink(t)
	cfg := s.getConfig()
	now := time.Now()
	yesterday := now.AddDate(0, 0, -1).Format(cfg.DateFormat)
	today := now.Format(cfg.DateFormat)

	old := writeAged(t, tmpDir, "app_"+yesterday+"(0).log", "old entries\n", 24*time.Hour)
	current := writeAged(t, tmpDir, "app_"+today+"(0).log", "current entries\n", 0)
	other := writeAged(t, tmpDir, "other_"+yesterday+"(0).log", "unknown prefix\n", 24*time.Hour)
	longerPrefix := writeAged(t, tmpDir, "app_other_"+yesterday+"(0).log", "longer prefix\n", 24*time.Hour)
	s.known[destination{dir: tmpDir, prefix: "app_"}] = struct{}{}

	require.NoError(t, s.archiveLogs(cfg, now))

	assert.NoFileExists(t, old)
	assert.FileExists(t, old+archiveExtension)
	assert.FileExists(t, current)
	assert.FileExists(t, other)
	assert.FileExists(t, longerPrefix)
	assert.NoFileExists(t, longerPrefix+archiveExtension)
	assert.Equal(t, uint64(1), s.state.TotalArchived.Load())

	// Already archived files are not compressed twice
	require.NoError(t, s.archiveLogs(cfg, now))
	assert.NoFileExists(t, old+archiveExtension+archiveExtension)
	assert.Equal(t, uint64(1), s.state.TotalArchived.Load())
}

func TestCleanExpiredLogs(t *testing.T) {
	s, tmpDir := newManualSink(t, "retention_period_hrs=1")
	cfg := s.getConfig()
	now := time.Now()
	lastWeek := now.AddDate(0, 0, -7).Format(cfg.DateFormat)
	today := now.Format(cfg.DateFormat)

	expired := writeAged(t, tmpDir, "app_"+lastWeek+"(0).log", "x\n", 7*24*time.Hour)
	expiredArchive := writeAged(t, tmpDir, "app_"+lastWeek+"(1).log"+archiveExtension, "x", 7*24*time.Hour)
	// Today's files survive whatever their age
	todayOld := writeAged(t, tmpDir, "app_"+today+"(0).log", "x\n", 7*24*time.Hour)
	unrelated := writeAged(t, tmpDir, "notes.txt", "x\n", 7*24*time.Hour)
	// A longer prefix starting with "app_" is a different destination
	longerPrefix := writeAged(t, tmpDir, "app_other_20200101(0).log", "x\n", 7*24*time.Hour)
	s.known[destination{dir: tmpDir, prefix: "app_"}] = struct{}{}

	require.NoError(t, s.cleanExpiredLogs(cfg, now))

	assert.NoFileExists(t, expired)
	assert.NoFileExists(t, expiredArchive)
	assert.FileExists(t, todayOld)
	assert.FileExists(t, unrelated)
	assert.FileExists(t, longerPrefix)
	assert.Equal(t, uint64(2), s.state.TotalDeletions.Load())
}

func TestCleanExpiredLogsDisabled(t *testing.T) {
	s, tmpDir := newManualSink(t)
	cfg := s.getConfig()
	path := writeAged(t, tmpDir, "app_20000101(0).log", "x\n", 24*365*time.Hour)
	s.known[destination{dir: tmpDir, prefix: "app_"}] = struct{}{}

	require.NoError(t, s.cleanExpiredLogs(cfg, time.Now()))
	assert.FileExists(t, path)
}

func TestHousekeepingFromLoop(t *testing.T) {
	s, tmpDir := newManualSink(t,
		"compress_archived=true",
		"housekeeping_check_mins=0.001",
	)
	require.NoError(t, s.Start())
	defer s.Shutdown()

	require.NoError(t, s.Write("hk_", "today"))
	require.NoError(t, s.Flush(time.Second))

	yesterday := time.Now().AddDate(0, 0, -1).Format(s.getConfig().DateFormat)
	old := writeAged(t, tmpDir, "hk_"+yesterday+"(0).log", "old\n", 24*time.Hour)

	assert.Eventually(t, func() bool {
		_, err := os.Stat(old + archiveExtension)
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)
	assert.FileExists(t, todayFile(tmpDir, "hk_", 0))
}

func TestCleanExpiredLogsKeepsLongerPrefix(t *testing.T) {
	s, tmpDir := newManualSink(t, "retention_period_hrs=1")
	require.NoError(t, s.Write("a_", "known destination"))
	s.drainPending()

	other := writeAged(t, tmpDir, "a_other_20200101(0).log", "x\n", 48*time.Hour)
	require.NoError(t, s.cleanExpiredLogs(s.getConfig(), time.Now()))

	assert.FileExists(t, other)
	assert.FileExists(t, todayFile(tmpDir, "a_", 0))
	assert.Zero(t, s.state.TotalDeletions.Load())
}

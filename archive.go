package sink

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"
)

// archiveLogs compresses files of known destinations from previous days to "<name>.zst"
// and removes the originals. The current day's files are left alone.
func (s *Sink) archiveLogs(cfg *Config, now time.Time) error {
	var finalErr error
	for dest := range s.known {
		entries, err := os.ReadDir(dest.dir)
		if err != nil {
			if !os.IsNotExist(err) {
				finalErr = combineErrors(finalErr, fmtErrorf("failed to read log directory '%s' for archival: %w", dest.dir, err))
			}
			continue
		}

		today := now.Format(cfg.DateFormat)
		for _, entry := range entries {
			name := entry.Name()
			if entry.IsDir() || strings.HasSuffix(name, archiveExtension) {
				continue
			}
			if date, ok := familyFileDate(name, dest.prefix, cfg.DateFormat, cfg.Extension); !ok || date == today {
				continue
			}
			src := filepath.Join(dest.dir, name)
			if err := compressFile(src, src+archiveExtension); err != nil {
				finalErr = combineErrors(finalErr, err)
				continue
			}
			if err := os.Remove(src); err != nil {
				s.internalLog("failed to remove archived log file '%s': %v\n", src, err)
				continue
			}
			s.state.TotalArchived.Add(1)
		}
	}
	return finalErr
}

// compressFile writes a zstd copy of src to dst; a partial dst is removed on failure
func compressFile(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return fmtErrorf("failed to open '%s' for archival: %w", src, err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return fmtErrorf("failed to create archive '%s': %w", dst, err)
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = fmtErrorf("failed to close archive '%s': %w", dst, closeErr)
		}
		if err != nil {
			_ = os.Remove(dst)
		}
	}()

	encoder, err := zstd.NewWriter(out)
	if err != nil {
		return fmtErrorf("failed to create zstd encoder: %w", err)
	}
	if _, err = io.Copy(encoder, in); err != nil {
		encoder.Close()
		return fmtErrorf("failed to compress '%s': %w", src, err)
	}
	if err = encoder.Close(); err != nil {
		return fmtErrorf("failed to finish archive '%s': %w", dst, err)
	}
	return nil
}

package sink

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// resolveDirectory maps an empty directory to the configured default, then to <cwd>/Logs, and creates it
func resolveDirectory(dir string, cfg *Config) (string, error) {
	if dir == "" {
		dir = cfg.Directory
	}
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmtErrorf("%w: failed to get working directory: %w", ErrDirectoryCreate, err)
		}
		dir = filepath.Join(wd, DefaultDirName)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmtErrorf("%w: '%s': %w", ErrDirectoryCreate, dir, err)
	}
	return dir, nil
}

// sequenceFileName builds "<stem>(<seq>).<ext>"
func sequenceFileName(stem string, seq int, ext string) string {
	return stem + "(" + strconv.Itoa(seq) + ")." + ext
}

// parseSequence extracts N from "<stem>(N).<ext>".
// Names without parenthesized decimal digits fitting 32 bits, including the bare "<stem>.<ext>", are rejected.
func parseSequence(name, stem, ext string) (int, bool) {
	suffix := "." + ext
	if len(name) < len(stem)+len(suffix) || !strings.HasPrefix(name, stem) || !strings.HasSuffix(name, suffix) {
		return 0, false
	}
	mid := name[len(stem) : len(name)-len(suffix)]
	if len(mid) < 3 || mid[0] != '(' || mid[len(mid)-1] != ')' {
		return 0, false
	}
	digits := mid[1 : len(mid)-1]
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.ParseInt(digits, 10, 32)
	if err != nil {
		return 0, false
	}
	return int(n), true
}

// scanRotation lists the same-day candidates of stem in dir and selects the append target
func scanRotation(dir, stem, ext, order string) (*rotationState, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmtErrorf("failed to read log directory '%s': %w", dir, err)
	}

	rs := &rotationState{Directory: dir, Stem: stem}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if seq, ok := parseSequence(entry.Name(), stem, ext); ok {
			rs.Candidates = append(rs.Candidates, rotationCandidate{Name: entry.Name(), Sequence: seq})
		}
	}
	rs.Selected = selectCandidate(rs.Candidates, order)
	return rs, nil
}

// selectCandidate picks the file to append to.
// Name order takes the longest name and breaks ties with the last name in byte order,
// so a zero-padded "(007)" outranks "(10)". This matches the historical file layout and
// is kept on purpose; numeric order takes the highest sequence instead.
func selectCandidate(candidates []rotationCandidate, order string) *rotationCandidate {
	var best *rotationCandidate
	for i := range candidates {
		c := &candidates[i]
		if best == nil {
			best = c
			continue
		}
		switch order {
		case RotationOrderNumeric:
			if c.Sequence > best.Sequence || (c.Sequence == best.Sequence && c.Name > best.Name) {
				best = c
			}
		default:
			if len(c.Name) > len(best.Name) || (len(c.Name) == len(best.Name) && c.Name > best.Name) {
				best = c
			}
		}
	}
	return best
}

// resolveDestination computes the file to append to for dest at time now.
// rotated reports that the size cap moved the destination to a new sequence.
func resolveDestination(dest destination, cfg *Config, now time.Time) (path string, rotated bool, err error) {
	dir, err := resolveDirectory(dest.dir, cfg)
	if err != nil {
		return "", false, err
	}

	stem := dest.prefix + now.Format(cfg.DateFormat)
	rs, err := scanRotation(dir, stem, cfg.Extension, cfg.RotationOrder)
	if err != nil {
		return "", false, err
	}

	if rs.Selected == nil {
		return filepath.Join(dir, sequenceFileName(stem, 0, cfg.Extension)), false, nil
	}

	selectedPath := filepath.Join(dir, rs.Selected.Name)
	var size int64
	if info, statErr := os.Stat(selectedPath); statErr == nil {
		size = info.Size()
	} else if !os.IsNotExist(statErr) {
		return "", false, fmtErrorf("%w: failed to stat '%s': %w", ErrFileWrite, selectedPath, statErr)
	}

	if size < cfg.maxFileSize() {
		return selectedPath, false, nil
	}

	next := sequenceFileName(stem, rs.Selected.Sequence+1, cfg.Extension)
	return filepath.Join(dir, next), true, nil
}

// appendFile appends data to path, creating the file and its directory when missing.
// The handle is closed on every path.
func appendFile(path string, data []byte, syncWrite bool) (err error) {
	dir := filepath.Dir(path)
	if mkErr := os.MkdirAll(dir, 0755); mkErr != nil {
		return fmtErrorf("%w: '%s': %w", ErrDirectoryCreate, dir, mkErr)
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmtErrorf("%w: failed to open '%s': %w", ErrFileWrite, path, err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = fmtErrorf("%w: failed to close '%s': %w", ErrFileWrite, path, closeErr)
		}
	}()

	if _, err = file.Write(data); err != nil {
		return fmtErrorf("%w: failed to write '%s': %w", ErrFileWrite, path, err)
	}

	if syncWrite {
		if err = file.Sync(); err != nil {
			return fmtErrorf("%w: failed to sync '%s': %w", ErrFileWrite, path, err)
		}
	}
	return nil
}

// familyFileDate returns the date part of name when it is "<prefix><date>(N).<ext>" or its archive.
// The date must parse with dateFormat, so files of a longer prefix sharing the same start are excluded.
func familyFileDate(name, prefix, dateFormat, ext string) (string, bool) {
	name = strings.TrimSuffix(name, archiveExtension)
	if !strings.HasPrefix(name, prefix) {
		return "", false
	}
	paren := strings.LastIndexByte(name, '(')
	if paren < len(prefix) {
		return "", false
	}
	date := name[len(prefix):paren]
	if _, err := time.Parse(dateFormat, date); err != nil {
		return "", false
	}
	if _, ok := parseSequence(name, prefix+date, ext); !ok {
		return "", false
	}
	return date, true
}

// cleanExpiredLogs removes files of known destinations older than the retention period.
// Files of the current day are never removed.
func (s *Sink) cleanExpiredLogs(cfg *Config, now time.Time) error {
	rpDuration := time.Duration(cfg.RetentionPeriodHrs * float64(time.Hour))
	if rpDuration <= 0 {
		return nil
	}
	cutoffTime := now.Add(-rpDuration)

	var finalErr error
	for dest := range s.known {
		entries, err := os.ReadDir(dest.dir)
		if err != nil {
			if !os.IsNotExist(err) {
				finalErr = combineErrors(finalErr, fmtErrorf("failed to read log directory '%s' for retention cleanup: %w", dest.dir, err))
			}
			continue
		}

		today := now.Format(cfg.DateFormat)
		for _, entry := range entries {
			name := entry.Name()
			if entry.IsDir() {
				continue
			}
			if date, ok := familyFileDate(name, dest.prefix, cfg.DateFormat, cfg.Extension); !ok || date == today {
				continue
			}
			info, errInfo := entry.Info()
			if errInfo != nil || !info.ModTime().Before(cutoffTime) {
				continue
			}
			filePath := filepath.Join(dest.dir, name)
			if err := os.Remove(filePath); err != nil {
				s.internalLog("failed to remove expired log file '%s': %v\n", filePath, err)
				continue
			}
			s.state.TotalDeletions.Add(1)
		}
	}
	return finalErr
}

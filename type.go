package sink

import (
	"time"
)

// logEntry is one formatted line bound for a (directory, prefix) destination.
// Message holds the complete formatted line and is not modified after push.
type logEntry struct {
	Directory string
	Prefix    string
	Message   string
}

// destination identifies the file family an entry is written to
type destination struct {
	dir    string
	prefix string
}

func (e logEntry) destination() destination {
	return destination{dir: e.Directory, prefix: e.Prefix}
}

// mergeGroup accumulates same-destination entries for one drain cycle
type mergeGroup struct {
	dest  destination
	buf   []byte
	count int
}

// rotationCandidate is a same-day file with a parsed sequence suffix
type rotationCandidate struct {
	Name     string
	Sequence int
}

// rotationState is the per-flush view of a directory, rebuilt from disk every time
type rotationState struct {
	Directory  string
	Stem       string
	Candidates []rotationCandidate
	Selected   *rotationCandidate
}

// TimerSet holds the optional tickers observed by the writer loop while idle
type TimerSet struct {
	housekeepingTicker *time.Ticker
	heartbeatTicker    *time.Ticker
	housekeepingChan   <-chan time.Time
	heartbeatChan      <-chan time.Time
}

package sink

import "time"

// setupProcessingTimers creates the optional tickers for the writer loop from the current config
func (s *Sink) setupProcessingTimers() *TimerSet {
	timers := &TimerSet{}

	timers.housekeepingChan = s.setupHousekeepingTimer(timers)
	timers.heartbeatChan = s.setupHeartbeatTimer(timers)

	return timers
}

// closeProcessingTimers stops all active timers
func (s *Sink) closeProcessingTimers(timers *TimerSet) {
	if timers.housekeepingTicker != nil {
		timers.housekeepingTicker.Stop()
	}
	if timers.heartbeatTicker != nil {
		timers.heartbeatTicker.Stop()
	}
}

// setupHousekeepingTimer configures the retention and archival timer if either is enabled
func (s *Sink) setupHousekeepingTimer(timers *TimerSet) <-chan time.Time {
	c := s.getConfig()
	if c.RetentionPeriodHrs <= 0 && !c.CompressArchived {
		return nil
	}

	checkInterval := time.Duration(c.HousekeepingCheckMins * float64(time.Minute))
	if checkInterval < minWaitTime {
		checkInterval = minWaitTime
	}
	timers.housekeepingTicker = time.NewTicker(checkInterval)
	return timers.housekeepingTicker.C
}

// setupHeartbeatTimer configures the heartbeat timer if enabled
func (s *Sink) setupHeartbeatTimer(timers *TimerSet) <-chan time.Time {
	c := s.getConfig()
	if c.HeartbeatLevel <= HeartbeatOff {
		return nil
	}

	intervalS := c.HeartbeatIntervalS
	// Make sure interval is positive
	if intervalS <= 0 {
		intervalS = DefaultConfig().HeartbeatIntervalS
	}
	timers.heartbeatTicker = time.NewTicker(time.Duration(intervalS) * time.Second)
	return timers.heartbeatTicker.C
}

package monitor

import (
	"fmt"
	"sync"
	"time"
)

// CycleStats summarises one poll cycle.
type CycleStats struct {
	CycleID     string        `json:"cycle_id"`
	StartedAt   time.Time     `json:"started_at"`
	Duration    time.Duration `json:"duration"`
	URLsChecked int           `json:"urls_checked"`
	URLsFailed  int           `json:"urls_failed"`
	NewMatches  int           `json:"new_matches"`
	MatchedURLs []string      `json:"matched_urls"`
}

// CycleTracker tracks the progress of the running cycle and keeps the
// stats of the last finished one.
type CycleTracker struct {
	mutex        sync.RWMutex
	currentCycle int
	current      *CycleStats
	matchedURLs  map[string]struct{}
	last         *CycleStats
}

// NewCycleTracker creates a new CycleTracker
func NewCycleTracker() *CycleTracker {
	return &CycleTracker{
		matchedURLs: make(map[string]struct{}),
	}
}

// StartCycle begins a new cycle, increments the counter, and sets a new ID.
func (ct *CycleTracker) StartCycle() string {
	ct.mutex.Lock()
	defer ct.mutex.Unlock()

	now := time.Now()
	ct.currentCycle++
	ct.current = &CycleStats{
		CycleID:   fmt.Sprintf("poll-%s-%d", now.Format("20060102-150405"), ct.currentCycle),
		StartedAt: now,
	}
	ct.matchedURLs = make(map[string]struct{})
	return ct.current.CycleID
}

// RecordURL accounts for one URL attempt of the running cycle.
func (ct *CycleTracker) RecordURL(url string, newMatches int, err error) {
	ct.mutex.Lock()
	defer ct.mutex.Unlock()

	if ct.current == nil {
		return
	}
	ct.current.URLsChecked++
	if err != nil {
		ct.current.URLsFailed++
		return
	}
	ct.current.NewMatches += newMatches
	if newMatches > 0 {
		ct.matchedURLs[url] = struct{}{}
	}
}

// EndCycle closes the running cycle and returns its stats.
func (ct *CycleTracker) EndCycle() CycleStats {
	ct.mutex.Lock()
	defer ct.mutex.Unlock()

	if ct.current == nil {
		return CycleStats{}
	}
	stats := *ct.current
	stats.Duration = time.Since(stats.StartedAt)
	stats.MatchedURLs = ct.extractMatchedURLs()
	ct.last = &stats
	ct.current = nil
	ct.matchedURLs = make(map[string]struct{})
	return stats
}

// LastCycle returns the stats of the last finished cycle.
func (ct *CycleTracker) LastCycle() (CycleStats, bool) {
	ct.mutex.RLock()
	defer ct.mutex.RUnlock()

	if ct.last == nil {
		return CycleStats{}, false
	}
	return *ct.last, true
}

// CycleCount returns how many cycles have been started.
func (ct *CycleTracker) CycleCount() int {
	ct.mutex.RLock()
	defer ct.mutex.RUnlock()
	return ct.currentCycle
}

func (ct *CycleTracker) extractMatchedURLs() []string {
	urls := make([]string, 0, len(ct.matchedURLs))
	for url := range ct.matchedURLs {
		urls = append(urls, url)
	}
	return urls
}

package models

import "time"

// MonitoringState is the persisted on/off switch and the time of the last
// URL check.
type MonitoringState struct {
	Enabled             bool   `json:"enabled"`
	LastCheckTimeMillis *int64 `json:"last_check_time,omitempty"`
}

// LastCheckTime converts LastCheckTimeMillis, returning the zero time when
// no check has happened yet.
func (s MonitoringState) LastCheckTime() time.Time {
	return UnixMilliToTimeOptional(s.LastCheckTimeMillis)
}

// ScanResult summarises one scan of one URL.
type ScanResult struct {
	URL             string   `json:"url"`
	TimestampMillis int64    `json:"timestamp"`
	FoundKeywords   []string `json:"found_keywords"`
	TotalKeywords   int      `json:"total_keywords"`
	ContentLength   int      `json:"content_length"`
	Source          string   `json:"source"`
	Error           string   `json:"error,omitempty"`
}

// Scan sources
const (
	ScanSourcePoll     = "poll"
	ScanSourceObserver = "observer"
)

// Observation is page content pushed by a passive observer.
type Observation struct {
	URL   string `json:"url"`
	Title string `json:"title"`
	Text  string `json:"text"`
}

// Status is the summary returned by the status endpoint.
type Status struct {
	Monitoring        MonitoringState `json:"monitoring"`
	BadgeText         string          `json:"badge_text"`
	BadgeColor        string          `json:"badge_color"`
	NotificationCount int64           `json:"notification_count"`
	URLCount          int             `json:"url_count"`
	KeywordCount      int             `json:"keyword_count"`
	IntervalSeconds   int             `json:"interval_seconds"`
	TickInFlight      bool            `json:"tick_in_flight"`
	LastScans         []ScanResult    `json:"last_scans"`
}

package config

import (
	"slices"
	"strings"
	"time"

	"github.com/samber/lo"
)

// MonitorConfig holds the user-editable polling settings: which pages to
// watch, which keywords to look for and how often to look.
type MonitorConfig struct {
	URLs                 []string `json:"urls" yaml:"urls" validate:"omitempty,dive,url"`
	Keywords             []string `json:"keywords" yaml:"keywords"`
	CheckIntervalSeconds int      `json:"check_interval_seconds" yaml:"check_interval_seconds"`

	Timer                  string `json:"timer,omitempty" yaml:"timer,omitempty" validate:"omitempty,timerkind"`
	HistorySize            int    `json:"history_size,omitempty" yaml:"history_size,omitempty" validate:"omitempty,min=1"`
	UserAgent              string `json:"user_agent,omitempty" yaml:"user_agent,omitempty"`
	HTTPTimeoutSeconds     int    `json:"http_timeout_seconds,omitempty" yaml:"http_timeout_seconds,omitempty" validate:"omitempty,min=1"`
	MaxContentSize         int    `json:"max_content_size,omitempty" yaml:"max_content_size,omitempty" validate:"omitempty,min=1"`
	ObserverDebounceMillis int    `json:"observer_debounce_ms,omitempty" yaml:"observer_debounce_ms,omitempty"`
}

// NewDefaultMonitorConfig creates the settings a fresh install starts with
func NewDefaultMonitorConfig() MonitorConfig {
	return MonitorConfig{
		URLs:                   []string{DefaultInitialURL},
		Keywords:               []string{DefaultInitialKeyword},
		CheckIntervalSeconds:   DefaultCheckIntervalSeconds,
		Timer:                  DefaultTimerKind,
		HistorySize:            DefaultHistorySize,
		UserAgent:              DefaultUserAgent,
		HTTPTimeoutSeconds:     DefaultHTTPTimeoutSeconds,
		MaxContentSize:         DefaultMaxContentSize,
		ObserverDebounceMillis: DefaultObserverDebounceMs,
	}
}

// Normalize returns a copy with malformed values replaced by defaults.
// Entries are trimmed, blanks dropped and duplicates removed (keywords
// compare case-insensitively). It never fails.
func (mc MonitorConfig) Normalize() MonitorConfig {
	out := mc
	out.URLs = cleanList(mc.URLs, func(s string) string { return s })
	out.Keywords = cleanList(mc.Keywords, strings.ToLower)

	if out.CheckIntervalSeconds <= 0 {
		out.CheckIntervalSeconds = DefaultCheckIntervalSeconds
	}
	if out.Timer == "" {
		out.Timer = DefaultTimerKind
	}
	if out.HistorySize <= 0 {
		out.HistorySize = DefaultHistorySize
	}
	if strings.TrimSpace(out.UserAgent) == "" {
		out.UserAgent = DefaultUserAgent
	}
	if out.HTTPTimeoutSeconds <= 0 {
		out.HTTPTimeoutSeconds = DefaultHTTPTimeoutSeconds
	}
	if out.MaxContentSize <= 0 {
		out.MaxContentSize = DefaultMaxContentSize
	}
	if out.ObserverDebounceMillis < MinObserverDebounceMs {
		out.ObserverDebounceMillis = MinObserverDebounceMs
	}
	return out
}

// CheckInterval returns the poll period, falling back to the default for
// non-positive values.
func (mc MonitorConfig) CheckInterval() time.Duration {
	if mc.CheckIntervalSeconds <= 0 {
		return DefaultCheckIntervalSeconds * time.Second
	}
	return time.Duration(mc.CheckIntervalSeconds) * time.Second
}

// HTTPTimeout returns the per-request fetch timeout
func (mc MonitorConfig) HTTPTimeout() time.Duration {
	if mc.HTTPTimeoutSeconds <= 0 {
		return DefaultHTTPTimeoutSeconds * time.Second
	}
	return time.Duration(mc.HTTPTimeoutSeconds) * time.Second
}

// ObserverDebounce returns the quiet period applied to passive observations
func (mc MonitorConfig) ObserverDebounce() time.Duration {
	ms := mc.ObserverDebounceMillis
	if ms < MinObserverDebounceMs {
		ms = MinObserverDebounceMs
	}
	return time.Duration(ms) * time.Millisecond
}

// Equal reports whether two configs describe the same settings
func (mc MonitorConfig) Equal(other MonitorConfig) bool {
	return slices.Equal(mc.URLs, other.URLs) &&
		slices.Equal(mc.Keywords, other.Keywords) &&
		mc.CheckIntervalSeconds == other.CheckIntervalSeconds &&
		mc.Timer == other.Timer &&
		mc.HistorySize == other.HistorySize &&
		mc.UserAgent == other.UserAgent &&
		mc.HTTPTimeoutSeconds == other.HTTPTimeoutSeconds &&
		mc.MaxContentSize == other.MaxContentSize &&
		mc.ObserverDebounceMillis == other.ObserverDebounceMillis
}

// Clone returns a deep copy
func (mc MonitorConfig) Clone() MonitorConfig {
	out := mc
	out.URLs = slices.Clone(mc.URLs)
	out.Keywords = slices.Clone(mc.Keywords)
	return out
}

func cleanList(items []string, key func(string) string) []string {
	trimmed := lo.Map(items, func(s string, _ int) string { return strings.TrimSpace(s) })
	nonEmpty := lo.Filter(trimmed, func(s string, _ int) bool { return s != "" })
	return lo.UniqBy(nonEmpty, key)
}

package models

import (
	"fmt"
	"time"
)

// dedupSeparator joins url and keyword in a dedup key. It cannot appear in
// either part once they are trimmed.
const dedupSeparator = "\x00"

// MatchRecord is one keyword found on one URL at one point in time. Records
// are created by the match engine and never modified afterwards.
type MatchRecord struct {
	URL             string `json:"url"`
	Keyword         string `json:"keyword"`
	Title           string `json:"title"`
	Context         string `json:"context,omitempty"`
	TimestampMillis int64  `json:"timestamp"`
}

// DedupKey identifies the (url, keyword) pair of the record.
func (r MatchRecord) DedupKey() string {
	return DedupKey(r.URL, r.Keyword)
}

// Time returns the record timestamp as a time.Time.
func (r MatchRecord) Time() time.Time {
	return time.UnixMilli(r.TimestampMillis)
}

// Validate checks the fields every stored record must carry.
func (r MatchRecord) Validate() error {
	if r.URL == "" {
		return fmt.Errorf("match record: url is empty")
	}
	if r.Keyword == "" {
		return fmt.Errorf("match record: keyword is empty")
	}
	return nil
}

// DedupKey builds the composite key used by the notified set.
func DedupKey(url, keyword string) string {
	return url + dedupSeparator + keyword
}

// RecordResult is returned by the dedup step.
type RecordResult struct {
	IsNew bool `json:"is_new"`
	// Count is the notification counter after the call. It only changes
	// when IsNew is true.
	Count int64 `json:"count"`
}

package monitor

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/aleister1102/keywatch/internal/config"
	"github.com/aleister1102/keywatch/internal/models"
	"github.com/aleister1102/keywatch/internal/notifier"
	"github.com/aleister1102/keywatch/internal/telemetry"
	"github.com/rs/zerolog"
)

// MatchStore is the persistence the engine needs.
type MatchStore interface {
	RecordMatch(ctx context.Context, rec models.MatchRecord, historyCap int) (models.RecordResult, error)
	AppendScanResult(ctx context.Context, r models.ScanResult, keep int) error
}

// EngineOptions tunes an Engine.
type EngineOptions struct {
	HistorySize     int
	ScanResultsSize int
	BadgeColor      string
	// Now defaults to time.Now.
	Now func() time.Time
}

// Engine turns page text into match records, deduplicates them against the
// notified set and announces the first-time ones.
type Engine struct {
	store   MatchStore
	surface notifier.Surface
	logger  zerolog.Logger
	metrics *telemetry.Metrics
	opts    EngineOptions

	historySize atomic.Int64
}

// NewEngine creates an Engine.
func NewEngine(store MatchStore, surface notifier.Surface, opts EngineOptions, logger zerolog.Logger, metrics *telemetry.Metrics) *Engine {
	if opts.HistorySize <= 0 {
		opts.HistorySize = config.DefaultHistorySize
	}
	if opts.ScanResultsSize <= 0 {
		opts.ScanResultsSize = config.DefaultScanResultsSize
	}
	if opts.BadgeColor == "" {
		opts.BadgeColor = config.DefaultBadgeColor
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	e := &Engine{
		store:   store,
		surface: surface,
		logger:  logger.With().Str("component", "MatchEngine").Logger(),
		metrics: metrics,
		opts:    opts,
	}
	e.historySize.Store(int64(opts.HistorySize))
	return e
}

// SetHistorySize changes the history cap applied by later inserts.
func (e *Engine) SetHistorySize(n int) {
	if n <= 0 {
		n = config.DefaultHistorySize
	}
	e.historySize.Store(int64(n))
}

// Scan returns one record per keyword found in text, in keyword order.
// An empty title is replaced by the default notification title. Scan has
// no side effects.
func (e *Engine) Scan(url, title, text string, keywords []string) []models.MatchRecord {
	return scanWith(NewMatcher(keywords), url, title, text, e.opts.Now())
}

func scanWith(m *Matcher, url, title, text string, now time.Time) []models.MatchRecord {
	hits := m.Find(text)
	if len(hits) == 0 {
		return nil
	}
	records := make([]models.MatchRecord, 0, len(hits))
	for _, h := range hits {
		t := title
		if t == "" {
			t = fmt.Sprintf(config.DefaultNotificationTitleForm, h.Keyword)
		}
		records = append(records, models.MatchRecord{
			URL:             url,
			Keyword:         h.Keyword,
			Title:           t,
			Context:         h.Context,
			TimestampMillis: now.UnixMilli(),
		})
	}
	return records
}

// RecordIfNew stores rec if its (url, keyword) pair has never been seen.
// Errors are StorageErrors and leave no partial state behind.
func (e *Engine) RecordIfNew(ctx context.Context, rec models.MatchRecord) (models.RecordResult, error) {
	res, err := e.store.RecordMatch(ctx, rec, int(e.historySize.Load()))
	if err != nil {
		e.metrics.RecordStorageError()
		return models.RecordResult{}, err
	}
	e.metrics.RecordMatch(res.IsNew)
	return res, nil
}

// Notify updates the badge to count and raises a notification for rec.
// Failures are logged only; the record stays deduplicated.
func (e *Engine) Notify(ctx context.Context, rec models.MatchRecord, count int64) {
	log := e.logger.With().Str("url", rec.URL).Str("keyword", rec.Keyword).Logger()

	if err := e.surface.SetBadge(ctx, strconv.FormatInt(count, 10), e.opts.BadgeColor); err != nil {
		e.metrics.RecordNotifyFailure()
		log.Error().Err(err).Msg("Failed to update badge")
	}

	id, err := e.surface.CreateNotification(ctx, models.NewMatchNotification(rec))
	if err != nil {
		e.metrics.RecordNotifyFailure()
		log.Error().Err(err).Str("notification_id", id).Msg("Failed to deliver notification")
		return
	}
	log.Info().Str("notification_id", id).Int64("count", count).Msg("Keyword match notified")
}

// Process scans text and handles every new match. It returns the records
// that were new. Storage failures are logged per record and do not stop
// the remaining ones.
func (e *Engine) Process(ctx context.Context, url, title, text string, keywords []string, source string) []models.MatchRecord {
	m := NewMatcher(keywords)
	now := e.opts.Now()
	records := scanWith(m, url, title, text, now)

	var fresh []models.MatchRecord
	found := make([]string, 0, len(records))
	for _, rec := range records {
		found = append(found, rec.Keyword)
		res, err := e.RecordIfNew(ctx, rec)
		if err != nil {
			e.logger.Error().Err(err).Str("url", url).Str("keyword", rec.Keyword).Msg("Failed to record match")
			continue
		}
		if !res.IsNew {
			e.logger.Debug().Str("url", url).Str("keyword", rec.Keyword).Msg("Match already notified")
			continue
		}
		fresh = append(fresh, rec)
		e.Notify(ctx, rec, res.Count)
	}

	e.saveScanResult(ctx, models.ScanResult{
		URL:             url,
		TimestampMillis: now.UnixMilli(),
		FoundKeywords:   found,
		TotalKeywords:   len(m.Keywords()),
		ContentLength:   len(text),
		Source:          source,
	})
	return fresh
}

// RecordFailure stores a scan result for a URL whose content could not be
// obtained.
func (e *Engine) RecordFailure(ctx context.Context, url string, keywords int, source string, cause error) {
	e.saveScanResult(ctx, models.ScanResult{
		URL:             url,
		TimestampMillis: e.opts.Now().UnixMilli(),
		FoundKeywords:   []string{},
		TotalKeywords:   keywords,
		Source:          source,
		Error:           cause.Error(),
	})
}

func (e *Engine) saveScanResult(ctx context.Context, r models.ScanResult) {
	if err := e.store.AppendScanResult(ctx, r, e.opts.ScanResultsSize); err != nil {
		e.metrics.RecordStorageError()
		e.logger.Warn().Err(err).Str("url", r.URL).Msg("Failed to save scan result")
	}
}

// Package monitor polls the configured pages, matches keywords against
// their text and announces each (url, keyword) pair once.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/aleister1102/keywatch/internal/common"
	"github.com/aleister1102/keywatch/internal/config"
	"github.com/aleister1102/keywatch/internal/datastore"
	"github.com/aleister1102/keywatch/internal/models"
	"github.com/aleister1102/keywatch/internal/normalizer"
	"github.com/aleister1102/keywatch/internal/notifier"
	"github.com/aleister1102/keywatch/internal/telemetry"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

// Observation outcomes
const (
	ObservationAccepted = "accepted"
	ObservationIgnored  = "ignored"
	ObservationDisabled = "disabled"
)

// Settings is the user-editable monitor configuration.
type Settings interface {
	Get() config.MonitorConfig
	Set(mc config.MonitorConfig) error
	OnChange(fn func(config.MonitorConfig))
}

// ServiceOptions carries the collaborators of a MonitoringService.
type ServiceOptions struct {
	Settings   Settings
	Store      *datastore.Store
	Dispatcher *notifier.Dispatcher
	// Timer defaults to the kind named in the settings.
	Timer           Timer
	BadgeColor      string
	ScanResultsSize int
	Logger          zerolog.Logger
	Metrics         *telemetry.Metrics
}

// MonitoringService wires the poll scheduler, fetcher and match engine to
// the settings and the local store.
type MonitoringService struct {
	settings   Settings
	store      *datastore.Store
	dispatcher *notifier.Dispatcher
	engine     *Engine
	scheduler  *Scheduler
	tracker    *CycleTracker
	debouncer  *Debouncer
	logger     zerolog.Logger
	metrics    *telemetry.Metrics

	fetcherMu sync.RWMutex
	fetcher   *Fetcher

	serviceCtx        context.Context
	serviceCancelFunc context.CancelFunc
	stopOnce          sync.Once
}

// NewMonitoringService creates the service. Nothing runs until Start.
func NewMonitoringService(parent context.Context, opts ServiceOptions) (*MonitoringService, error) {
	if opts.Settings == nil || opts.Store == nil || opts.Dispatcher == nil {
		return nil, fmt.Errorf("%w: settings, store and dispatcher are required", common.ErrInvalidInput)
	}

	mc := opts.Settings.Get()
	logger := opts.Logger.With().Str("component", "MonitoringService").Logger()

	timer := opts.Timer
	if timer == nil {
		var err error
		if timer, err = NewTimer(mc.Timer); err != nil {
			return nil, err
		}
	}

	fetcher, err := NewFetcher(mc, opts.Logger)
	if err != nil {
		_ = timer.Close()
		return nil, common.WrapError(err, "failed to create fetcher")
	}

	ctx, cancel := context.WithCancel(parent)
	s := &MonitoringService{
		settings:   opts.Settings,
		store:      opts.Store,
		dispatcher: opts.Dispatcher,
		tracker:    NewCycleTracker(),
		debouncer:  NewDebouncer(mc.ObserverDebounce()),
		logger:     logger,
		metrics:    opts.Metrics,
		fetcher:    fetcher,

		serviceCtx:        ctx,
		serviceCancelFunc: cancel,
	}
	s.engine = NewEngine(opts.Store, opts.Dispatcher, EngineOptions{
		HistorySize:     mc.HistorySize,
		ScanResultsSize: opts.ScanResultsSize,
		BadgeColor:      opts.BadgeColor,
	}, opts.Logger, opts.Metrics)
	s.scheduler = NewScheduler(ctx, timer, s.runCycle, opts.Logger, opts.Metrics)

	opts.Settings.OnChange(s.applySettings)
	return s, nil
}

// Start restores the persisted monitoring state and arms the poll timer
// when monitoring is on. The first cycle runs one period after Start.
func (s *MonitoringService) Start(ctx context.Context) error {
	state, err := s.store.InitMonitoringState(ctx)
	if err != nil {
		return common.WrapError(err, "failed to restore monitoring state")
	}

	mc := s.settings.Get()
	s.scheduler.Configure(mc.CheckIntervalSeconds)
	s.scheduler.SetEnabled(state.Enabled)
	s.metrics.SetMonitoringEnabled(state.Enabled)

	s.logger.Info().
		Bool("enabled", state.Enabled).
		Int("urls", len(mc.URLs)).
		Int("keywords", len(mc.Keywords)).
		Dur("interval", s.scheduler.Period()).
		Msg("Monitoring service started")
	return nil
}

// Stop cancels the timer and any pending observations. A running cycle
// sees its context cancelled.
func (s *MonitoringService) Stop() {
	s.stopOnce.Do(func() {
		s.scheduler.Cancel()
		s.debouncer.Stop()
		s.serviceCancelFunc()
		s.logger.Info().Msg("Monitoring service stopped")
	})
}

// SetMonitoringEnabled persists the switch and arms or disarms the timer.
func (s *MonitoringService) SetMonitoringEnabled(ctx context.Context, enabled bool) error {
	if err := s.store.SetMonitoringEnabled(ctx, enabled); err != nil {
		s.metrics.RecordStorageError()
		return err
	}
	s.scheduler.SetEnabled(enabled)
	s.metrics.SetMonitoringEnabled(enabled)
	return nil
}

// CheckNow runs one cycle on the calling goroutine. It fails with
// common.ErrTickInFlight when a cycle is already running.
func (s *MonitoringService) CheckNow(ctx context.Context) (CycleStats, error) {
	if err := s.scheduler.RunNow(ctx); err != nil {
		return CycleStats{}, err
	}
	stats, _ := s.tracker.LastCycle()
	return stats, nil
}

// HandleObservation accepts page text pushed by a passive observer. Text
// is only matched after the page has been quiet for the debounce period,
// and only for pages on a monitored host.
func (s *MonitoringService) HandleObservation(ctx context.Context, obs models.Observation) (string, error) {
	if strings.TrimSpace(obs.URL) == "" {
		return "", common.NewValidationError("url", obs.URL, "url is required")
	}

	state, err := s.store.MonitoringState(ctx)
	if err != nil {
		s.metrics.RecordStorageError()
		return "", err
	}
	if !state.Enabled {
		s.metrics.RecordObservation(ObservationDisabled)
		return ObservationDisabled, nil
	}

	mc := s.settings.Get()
	monitored := lo.SomeBy(mc.URLs, func(u string) bool { return normalizer.SameHost(u, obs.URL) })
	if !monitored {
		s.metrics.RecordObservation(ObservationIgnored)
		s.logger.Debug().Str("url", obs.URL).Msg("Observation for unmonitored host ignored")
		return ObservationIgnored, nil
	}

	s.debouncer.Trigger(obs.URL, func() {
		// Monitoring may have been switched off while the page settled
		if !s.scheduler.Enabled() {
			s.logger.Debug().Str("url", obs.URL).Msg("Monitoring disabled, dropping debounced observation")
			return
		}
		text := normalizer.CollapseWhitespace(obs.Text)
		keywords := s.settings.Get().Keywords
		if len(keywords) == 0 {
			return
		}
		s.engine.Process(s.serviceCtx, obs.URL, obs.Title, text, keywords, models.ScanSourceObserver)
	})
	s.metrics.RecordObservation(ObservationAccepted)
	return ObservationAccepted, nil
}

// Status summarises monitoring for status surfaces.
func (s *MonitoringService) Status(ctx context.Context) (models.Status, error) {
	state, err := s.store.MonitoringState(ctx)
	if err != nil {
		return models.Status{}, err
	}
	badge, err := s.dispatcher.Badge().Get(ctx)
	if err != nil {
		return models.Status{}, err
	}
	count, err := s.store.NotificationCount(ctx)
	if err != nil {
		return models.Status{}, err
	}
	scans, err := s.store.ScanResults(ctx, 0)
	if err != nil {
		return models.Status{}, err
	}

	mc := s.settings.Get()
	return models.Status{
		Monitoring:        state,
		BadgeText:         badge.Text,
		BadgeColor:        badge.Color,
		NotificationCount: count,
		URLCount:          len(mc.URLs),
		KeywordCount:      len(mc.Keywords),
		IntervalSeconds:   int(s.scheduler.Period() / time.Second),
		TickInFlight:      s.scheduler.InFlight(),
		LastScans:         scans,
	}, nil
}

// Results returns match history, newest first.
func (s *MonitoringService) Results(ctx context.Context, limit int) ([]models.MatchRecord, error) {
	return s.store.History(ctx, limit)
}

// ClearBadge removes the badge text; the counter is kept.
func (s *MonitoringService) ClearBadge(ctx context.Context) error {
	return s.dispatcher.Badge().Clear(ctx)
}

// OpenNotification resolves a clicked notification to its page URL.
func (s *MonitoringService) OpenNotification(ctx context.Context, id string) (string, error) {
	return s.dispatcher.OnNotificationClicked(ctx, id)
}

// DismissNotification forgets a notification's click target.
func (s *MonitoringService) DismissNotification(ctx context.Context, id string) error {
	return s.dispatcher.Dismiss(ctx, id)
}

// Settings returns the current monitor settings.
func (s *MonitoringService) Settings() config.MonitorConfig {
	return s.settings.Get()
}

// UpdateSettings validates and stores new settings. The scheduler picks
// them up through the change listener.
func (s *MonitoringService) UpdateSettings(mc config.MonitorConfig) error {
	return s.settings.Set(mc)
}

// LastCycle returns the stats of the last finished poll cycle.
func (s *MonitoringService) LastCycle() (CycleStats, bool) {
	return s.tracker.LastCycle()
}

// Scheduler exposes the poll scheduler.
func (s *MonitoringService) Scheduler() *Scheduler {
	return s.scheduler
}

func (s *MonitoringService) applySettings(mc config.MonitorConfig) {
	fetcher, err := NewFetcher(mc, s.logger)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to rebuild fetcher, keeping previous one")
	} else {
		s.fetcherMu.Lock()
		s.fetcher = fetcher
		s.fetcherMu.Unlock()
	}
	s.engine.SetHistorySize(mc.HistorySize)
	s.scheduler.Configure(mc.CheckIntervalSeconds)
	s.logger.Info().Dur("interval", s.scheduler.Period()).Msg("Applied new monitor settings")
}

func (s *MonitoringService) currentFetcher() *Fetcher {
	s.fetcherMu.RLock()
	defer s.fetcherMu.RUnlock()
	return s.fetcher
}

// runCycle checks every URL in order. A failing URL is logged and
// skipped; the last check time moves forward after every attempt.
func (s *MonitoringService) runCycle(ctx context.Context) {
	mc := s.settings.Get()
	cycleID := s.tracker.StartCycle()
	log := s.logger.With().Str("cycle_id", cycleID).Logger()

	if len(mc.Keywords) == 0 {
		log.Debug().Msg("No keywords configured, nothing to match")
	}

	fetcher := s.currentFetcher()
	for _, url := range mc.URLs {
		if ctx.Err() != nil {
			log.Info().Msg("Poll cycle interrupted")
			break
		}
		newMatches, err := s.checkURL(ctx, fetcher, url, mc.Keywords)
		s.tracker.RecordURL(url, newMatches, err)
		if err != nil {
			log.Warn().Err(err).Str("url", url).Msg("URL check failed")
		}
		if err := s.store.SetLastCheckTime(ctx, time.Now().UnixMilli()); err != nil {
			s.metrics.RecordStorageError()
			log.Error().Err(err).Msg("Failed to update last check time")
		}
	}

	stats := s.tracker.EndCycle()
	log.Info().
		Int("urls_checked", stats.URLsChecked).
		Int("urls_failed", stats.URLsFailed).
		Int("new_matches", stats.NewMatches).
		Dur("duration", stats.Duration).
		Msg("Poll cycle finished")
}

func (s *MonitoringService) checkURL(ctx context.Context, fetcher *Fetcher, url string, keywords []string) (int, error) {
	raw, err := fetcher.FetchText(ctx, url)
	if err != nil {
		var fe *common.FetchError
		if errors.As(err, &fe) && fe.Kind == common.FetchErrorStatus {
			s.metrics.RecordFetch(telemetry.FetchStatus)
		} else {
			s.metrics.RecordFetch(telemetry.FetchNetwork)
		}
		s.engine.RecordFailure(ctx, url, len(keywords), models.ScanSourcePoll, err)
		return 0, err
	}
	s.metrics.RecordFetch(telemetry.FetchOK)

	if len(keywords) == 0 {
		return 0, nil
	}
	text := normalizer.Normalize(raw)
	fresh := s.engine.Process(ctx, url, "", text, keywords, models.ScanSourcePoll)
	return len(fresh), nil
}

package monitor

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aleister1102/keywatch/internal/common"
	"github.com/aleister1102/keywatch/internal/config"
	"github.com/aleister1102/keywatch/internal/telemetry"
	"github.com/rs/zerolog"
)

// TickFunc runs one poll cycle over every configured URL.
type TickFunc func(ctx context.Context)

// Scheduler owns the single timer that drives poll cycles. Ticks never
// overlap: a fire that arrives while a cycle is running is dropped.
type Scheduler struct {
	logger  zerolog.Logger
	metrics *telemetry.Metrics
	ctx     context.Context
	onTick  TickFunc

	mu        sync.Mutex
	timer     Timer
	period    time.Duration
	enabled   bool
	armed     bool
	cancelled bool
	// generation changes on every arm and disarm so that a fire already
	// dispatched by a replaced timer is recognised as stale
	generation uint64

	inFlight atomic.Bool
}

// NewScheduler creates a disabled scheduler. ctx is handed to every tick and
// bounds its lifetime.
func NewScheduler(ctx context.Context, timer Timer, onTick TickFunc, logger zerolog.Logger, metrics *telemetry.Metrics) *Scheduler {
	return &Scheduler{
		logger:  logger.With().Str("component", "PollScheduler").Logger(),
		metrics: metrics,
		ctx:     ctx,
		onTick:  onTick,
		timer:   timer,
		period:  time.Duration(config.DefaultCheckIntervalSeconds) * time.Second,
	}
}

// NormalizeInterval turns a configured interval into a timer period,
// substituting the default for non-positive values.
func NormalizeInterval(intervalSeconds int) time.Duration {
	if intervalSeconds <= 0 {
		intervalSeconds = config.DefaultCheckIntervalSeconds
	}
	return time.Duration(intervalSeconds) * time.Second
}

// Configure sets the poll period. When enabled the timer is re-armed at the
// new period; an unchanged period on an armed timer is left running.
func (s *Scheduler) Configure(intervalSeconds int) {
	period := NormalizeInterval(intervalSeconds)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancelled {
		return
	}
	if period == s.period && s.armed {
		return
	}
	s.period = period
	if s.enabled {
		s.armLocked()
	}
}

// SetEnabled arms the timer on false→true and disarms it on true→false.
// A cycle already running is allowed to finish.
func (s *Scheduler) SetEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancelled || s.enabled == enabled {
		return
	}
	s.enabled = enabled
	if enabled {
		s.armLocked()
	} else {
		s.disarmLocked()
	}
	s.logger.Info().Bool("enabled", enabled).Dur("period", s.period).Msg("Monitoring toggled")
}

// Cancel disarms the timer for good. Later Configure and SetEnabled calls
// are ignored.
func (s *Scheduler) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancelled {
		return
	}
	s.disarmLocked()
	s.cancelled = true
	if err := s.timer.Close(); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to close timer")
	}
}

// RunNow runs a cycle immediately on the calling goroutine. It returns
// common.ErrTickInFlight when a cycle is already running.
func (s *Scheduler) RunNow(ctx context.Context) error {
	if !s.inFlight.CompareAndSwap(false, true) {
		return common.ErrTickInFlight
	}
	defer s.inFlight.Store(false)
	s.runTick(ctx)
	return nil
}

// InFlight reports whether a cycle is running.
func (s *Scheduler) InFlight() bool {
	return s.inFlight.Load()
}

// Period returns the current poll period.
func (s *Scheduler) Period() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.period
}

// Armed reports whether the timer is currently armed.
func (s *Scheduler) Armed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.armed
}

// Enabled reports whether monitoring is on.
func (s *Scheduler) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}

// armLocked never fails from the caller's point of view: an arming error
// is logged and leaves the scheduler disarmed.
func (s *Scheduler) armLocked() {
	s.disarmLocked()
	s.generation++
	gen := s.generation
	if err := s.timer.Arm(s.period, func() { s.fire(gen) }); err != nil {
		s.logger.Error().Err(err).Dur("period", s.period).Msg("Failed to arm poll timer")
		return
	}
	s.armed = true
	s.logger.Debug().Dur("period", s.period).Msg("Poll timer armed")
}

func (s *Scheduler) disarmLocked() {
	if !s.armed {
		return
	}
	s.timer.Disarm()
	s.armed = false
	s.generation++
}

// fire runs a timer-driven cycle unless the timer that sent it has since
// been disarmed or replaced.
func (s *Scheduler) fire(gen uint64) {
	s.mu.Lock()
	live := s.enabled && !s.cancelled && s.armed && gen == s.generation
	s.mu.Unlock()
	if !live {
		s.logger.Debug().Msg("Dropping fire from a disarmed timer")
		return
	}

	if !s.inFlight.CompareAndSwap(false, true) {
		s.metrics.RecordSkippedTick()
		s.logger.Warn().Msg("Previous poll cycle still running, skipping tick")
		return
	}
	defer s.inFlight.Store(false)
	s.runTick(s.ctx)
}

func (s *Scheduler) runTick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	start := time.Now()
	s.onTick(ctx)
	s.metrics.RecordTick(time.Since(start))
}

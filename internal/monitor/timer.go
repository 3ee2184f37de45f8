package monitor

import (
	"fmt"
	"sync"
	"time"

	"github.com/aleister1102/keywatch/internal/config"
	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
)

// Timer is the periodic primitive behind the Scheduler. Arm replaces any
// previous arming, so at most one period is ever active. fire may be
// invoked from another goroutine and may overlap with a previous call.
type Timer interface {
	Arm(period time.Duration, fire func()) error
	Disarm()
	Close() error
}

// NewTimer returns the Timer implementation named by kind.
func NewTimer(kind string) (Timer, error) {
	switch kind {
	case "", config.TimerKindTicker:
		return NewTickerTimer(), nil
	case config.TimerKindAlarm:
		return NewAlarmTimer()
	default:
		return nil, fmt.Errorf("unknown timer kind %q", kind)
	}
}

// TickerTimer fires on a wall-clock time.Ticker.
type TickerTimer struct {
	mu   sync.Mutex
	stop chan struct{}
}

// NewTickerTimer creates a disarmed TickerTimer.
func NewTickerTimer() *TickerTimer {
	return &TickerTimer{}
}

func (t *TickerTimer) Arm(period time.Duration, fire func()) error {
	if period <= 0 {
		return fmt.Errorf("timer period must be positive, got %s", period)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.disarmLocked()

	stop := make(chan struct{})
	t.stop = stop
	ticker := time.NewTicker(period)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				go fire()
			}
		}
	}()
	return nil
}

func (t *TickerTimer) Disarm() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.disarmLocked()
}

func (t *TickerTimer) disarmLocked() {
	if t.stop != nil {
		close(t.stop)
		t.stop = nil
	}
}

func (t *TickerTimer) Close() error {
	t.Disarm()
	return nil
}

// AlarmTimer registers a single duration job with a gocron scheduler,
// mirroring a platform alarm that survives independently of the caller.
type AlarmTimer struct {
	mu    sync.Mutex
	cron  gocron.Scheduler
	jobID uuid.UUID
	armed bool
}

// NewAlarmTimer creates and starts the underlying gocron scheduler.
func NewAlarmTimer() (*AlarmTimer, error) {
	cron, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("creating alarm scheduler: %w", err)
	}
	cron.Start()
	return &AlarmTimer{cron: cron}, nil
}

func (a *AlarmTimer) Arm(period time.Duration, fire func()) error {
	if period <= 0 {
		return fmt.Errorf("timer period must be positive, got %s", period)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.disarmLocked()

	job, err := a.cron.NewJob(gocron.DurationJob(period), gocron.NewTask(fire))
	if err != nil {
		return fmt.Errorf("registering alarm: %w", err)
	}
	a.jobID = job.ID()
	a.armed = true
	return nil
}

func (a *AlarmTimer) Disarm() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.disarmLocked()
}

func (a *AlarmTimer) disarmLocked() {
	if !a.armed {
		return
	}
	_ = a.cron.RemoveJob(a.jobID)
	a.armed = false
}

// Jobs reports how many alarms are registered.
func (a *AlarmTimer) Jobs() int {
	return len(a.cron.Jobs())
}

func (a *AlarmTimer) Close() error {
	a.Disarm()
	return a.cron.Shutdown()
}

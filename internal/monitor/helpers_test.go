package monitor

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/aleister1102/keywatch/internal/config"
	"github.com/aleister1102/keywatch/internal/datastore"
	"github.com/aleister1102/keywatch/internal/models"
	"github.com/aleister1102/keywatch/internal/notifier"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// fakeTimer records arming and lets tests fire ticks by hand.
type fakeTimer struct {
	mu          sync.Mutex
	active      bool
	period      time.Duration
	fire        func()
	arms        int
	disarms     int
	doubleArmed bool
	closed      bool
}

func (f *fakeTimer) Arm(period time.Duration, fire func()) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.active {
		f.doubleArmed = true
	}
	f.active = true
	f.period = period
	f.fire = fire
	f.arms++
	return nil
}

func (f *fakeTimer) Disarm() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.active {
		f.disarms++
	}
	f.active = false
	f.fire = nil
}

func (f *fakeTimer) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	f.active = false
	return nil
}

// armedFire returns the callback currently registered, so tests can replay
// a fire that was dispatched just before a disarm.
func (f *fakeTimer) armedFire() func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fire
}

// Fire runs one tick on the calling goroutine. It reports false when the
// timer is not armed.
func (f *fakeTimer) Fire() bool {
	f.mu.Lock()
	fire := f.fire
	active := f.active
	f.mu.Unlock()
	if !active || fire == nil {
		return false
	}
	fire()
	return true
}

func (f *fakeTimer) snapshot() fakeTimer {
	f.mu.Lock()
	defer f.mu.Unlock()
	return fakeTimer{
		active:      f.active,
		period:      f.period,
		arms:        f.arms,
		disarms:     f.disarms,
		doubleArmed: f.doubleArmed,
		closed:      f.closed,
	}
}

// memSettings is an in-memory Settings.
type memSettings struct {
	mu        sync.Mutex
	mc        config.MonitorConfig
	listeners []func(config.MonitorConfig)
}

func newMemSettings(mc config.MonitorConfig) *memSettings {
	return &memSettings{mc: mc.Normalize()}
}

func (m *memSettings) Get() config.MonitorConfig {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mc.Clone()
}

func (m *memSettings) Set(mc config.MonitorConfig) error {
	mc = mc.Normalize()
	if err := config.ValidateMonitorConfig(mc); err != nil {
		return err
	}
	m.mu.Lock()
	m.mc = mc
	listeners := append([]func(config.MonitorConfig){}, m.listeners...)
	m.mu.Unlock()
	for _, fn := range listeners {
		fn(mc.Clone())
	}
	return nil
}

func (m *memSettings) OnChange(fn func(config.MonitorConfig)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

// recordingChannel captures every notification sent to it.
type recordingChannel struct {
	mu   sync.Mutex
	sent []models.Notification
	err  error
}

func (c *recordingChannel) Name() string { return "recording" }

func (c *recordingChannel) Send(_ context.Context, n models.Notification) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, n)
	return c.err
}

func (c *recordingChannel) Sent() []models.Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.Notification(nil), c.sent...)
}

func newTestStore(t *testing.T) *datastore.Store {
	t.Helper()
	store, err := datastore.Open(context.Background(), filepath.Join(t.TempDir(), "keywatch.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func newTestDispatcher(store *datastore.Store, ch *recordingChannel) *notifier.Dispatcher {
	return notifier.NewDispatcher(store, []notifier.Channel{ch}, zerolog.Nop())
}

package monitor

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/aleister1102/keywatch/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTimer(t *testing.T) {
	timer, err := NewTimer(config.TimerKindTicker)
	require.NoError(t, err)
	assert.IsType(t, &TickerTimer{}, timer)

	timer, err = NewTimer("")
	require.NoError(t, err)
	assert.IsType(t, &TickerTimer{}, timer)

	timer, err = NewTimer(config.TimerKindAlarm)
	require.NoError(t, err)
	assert.IsType(t, &AlarmTimer{}, timer)
	require.NoError(t, timer.Close())

	_, err = NewTimer("cron")
	assert.Error(t, err)
}

func TestTickerTimer_FiresUntilDisarmed(t *testing.T) {
	timer := NewTickerTimer()
	defer timer.Close()

	var fired atomic.Int32
	require.NoError(t, timer.Arm(10*time.Millisecond, func() { fired.Add(1) }))
	assert.Eventually(t, func() bool { return fired.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)

	timer.Disarm()
	time.Sleep(30 * time.Millisecond)
	settled := fired.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, settled, fired.Load())
}

func TestTickerTimer_RearmReplaces(t *testing.T) {
	timer := NewTickerTimer()
	defer timer.Close()

	var first, second atomic.Int32
	require.NoError(t, timer.Arm(10*time.Millisecond, func() { first.Add(1) }))
	require.NoError(t, timer.Arm(10*time.Millisecond, func() { second.Add(1) }))

	time.Sleep(20 * time.Millisecond)
	before := first.Load()
	assert.Eventually(t, func() bool { return second.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)
	assert.LessOrEqual(t, first.Load(), before+1)
}

func TestTimer_RejectsNonPositivePeriod(t *testing.T) {
	assert.Error(t, NewTickerTimer().Arm(0, func() {}))

	alarm, err := NewAlarmTimer()
	require.NoError(t, err)
	defer alarm.Close()
	assert.Error(t, alarm.Arm(-time.Second, func() {}))
}

func TestAlarmTimer_SingleJob(t *testing.T) {
	alarm, err := NewAlarmTimer()
	require.NoError(t, err)
	defer alarm.Close()

	require.NoError(t, alarm.Arm(time.Hour, func() {}))
	require.NoError(t, alarm.Arm(2*time.Hour, func() {}))
	assert.Equal(t, 1, alarm.Jobs())

	alarm.Disarm()
	assert.Equal(t, 0, alarm.Jobs())
}

func TestAlarmTimer_Fires(t *testing.T) {
	alarm, err := NewAlarmTimer()
	require.NoError(t, err)
	defer alarm.Close()

	var fired atomic.Int32
	require.NoError(t, alarm.Arm(20*time.Millisecond, func() { fired.Add(1) }))
	assert.Eventually(t, func() bool { return fired.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)
}

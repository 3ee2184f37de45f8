package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aleister1102/keywatch/internal/common"
	"github.com/aleister1102/keywatch/internal/datastore"
	"github.com/aleister1102/keywatch/internal/models"
	"github.com/aleister1102/keywatch/internal/telemetry"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

// stubSurface records badge and notification calls and can fail them.
type stubSurface struct {
	mu            sync.Mutex
	badges        []string
	notifications []models.Notification
	badgeErr      error
	notifyErr     error
}

func (s *stubSurface) SetBadge(_ context.Context, text, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.badges = append(s.badges, text)
	return s.badgeErr
}

func (s *stubSurface) CreateNotification(_ context.Context, n models.Notification) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = append(s.notifications, n)
	return fmt.Sprintf("n-%d", len(s.notifications)), s.notifyErr
}

func (s *stubSurface) OnNotificationClicked(context.Context, string) (string, error) {
	return "", common.ErrNotFound
}

// failingStore fails every write.
type failingStore struct{}

func (failingStore) RecordMatch(context.Context, models.MatchRecord, int) (models.RecordResult, error) {
	return models.RecordResult{}, common.NewStorageError("record match", errors.New("disk full"))
}

func (failingStore) AppendScanResult(context.Context, models.ScanResult, int) error {
	return common.NewStorageError("append scan result", errors.New("disk full"))
}

func newTestEngine(t *testing.T, store MatchStore, surface *stubSurface, metrics *telemetry.Metrics) *Engine {
	t.Helper()
	return NewEngine(store, surface, EngineOptions{
		HistorySize: 100,
		Now:         func() time.Time { return fixedNow },
	}, zerolog.Nop(), metrics)
}

func TestEngine_Scan(t *testing.T) {
	e := newTestEngine(t, failingStore{}, &stubSurface{}, nil)

	records := e.Scan("https://x/forum", "", "New Apple pie", []string{"apple", "pear"})
	require.Len(t, records, 1)
	assert.Equal(t, models.MatchRecord{
		URL:             "https://x/forum",
		Keyword:         "apple",
		Title:           `Keyword "apple" found on page`,
		Context:         "New Apple pie",
		TimestampMillis: fixedNow.UnixMilli(),
	}, records[0])

	records = e.Scan("https://x/forum", "Forum", "pear and apple", []string{"apple", "pear"})
	require.Len(t, records, 2)
	assert.Equal(t, "apple", records[0].Keyword)
	assert.Equal(t, "pear", records[1].Keyword)
	assert.Equal(t, "Forum", records[1].Title)

	assert.Empty(t, e.Scan("https://x/forum", "", "nothing here", []string{"apple"}))
	assert.Empty(t, e.Scan("https://x/forum", "", "apple", nil))
}

func TestEngine_ProcessAppleExample(t *testing.T) {
	store := newTestStore(t)
	surface := &stubSurface{}
	metrics := telemetry.NewMetrics()
	e := newTestEngine(t, store, surface, metrics)
	ctx := context.Background()

	fresh := e.Process(ctx, "https://x/forum", "", "New Apple pie", []string{"apple"}, models.ScanSourcePoll)
	require.Len(t, fresh, 1)
	assert.Equal(t, []string{"1"}, surface.badges)
	require.Len(t, surface.notifications, 1)
	assert.Equal(t, `Keyword "apple" found on page`, surface.notifications[0].Title)
	assert.Equal(t, "https://x/forum", surface.notifications[0].URL)

	// Second time: nothing new, nothing announced
	fresh = e.Process(ctx, "https://x/forum", "", "New Apple pie", []string{"apple"}, models.ScanSourcePoll)
	assert.Empty(t, fresh)
	assert.Len(t, surface.notifications, 1)

	count, err := store.NotificationCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	history, err := store.History(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, history, 1)

	scans, err := store.ScanResults(ctx, 0)
	require.NoError(t, err)
	require.Len(t, scans, 2)
	assert.Equal(t, []string{"apple"}, scans[0].FoundKeywords)
	assert.Equal(t, 1, scans[0].TotalKeywords)

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.MatchesTotal.WithLabelValues("new")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.MatchesTotal.WithLabelValues("duplicate")))
}

func TestEngine_CounterTracksDistinctFirstMatches(t *testing.T) {
	store := newTestStore(t)
	surface := &stubSurface{}
	e := newTestEngine(t, store, surface, nil)
	ctx := context.Background()

	e.Process(ctx, "https://a", "", "apple pie", []string{"apple", "pie"}, models.ScanSourcePoll)
	e.Process(ctx, "https://b", "", "apple", []string{"apple", "pie"}, models.ScanSourcePoll)
	e.Process(ctx, "https://a", "", "apple pie", []string{"apple", "pie"}, models.ScanSourcePoll)

	assert.Equal(t, []string{"1", "2", "3"}, surface.badges)
	count, err := store.NotificationCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestEngine_NotifyFailureKeepsDedup(t *testing.T) {
	store := newTestStore(t)
	surface := &stubSurface{badgeErr: errors.New("badge down"), notifyErr: errors.New("webhook down")}
	metrics := telemetry.NewMetrics()
	e := newTestEngine(t, store, surface, metrics)
	ctx := context.Background()

	fresh := e.Process(ctx, "https://x", "", "apple", []string{"apple"}, models.ScanSourcePoll)
	assert.Len(t, fresh, 1)
	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.NotifyFailuresTotal))

	notified, err := store.IsNotified(ctx, "https://x", "apple")
	require.NoError(t, err)
	assert.True(t, notified)

	fresh = e.Process(ctx, "https://x", "", "apple", []string{"apple"}, models.ScanSourcePoll)
	assert.Empty(t, fresh)
	assert.Len(t, surface.notifications, 1)
}

func TestEngine_StorageErrorsAreContained(t *testing.T) {
	surface := &stubSurface{}
	metrics := telemetry.NewMetrics()
	e := newTestEngine(t, failingStore{}, surface, metrics)

	_, err := e.RecordIfNew(context.Background(), models.MatchRecord{URL: "https://x", Keyword: "apple"})
	require.Error(t, err)
	assert.True(t, common.IsStorageError(err))

	fresh := e.Process(context.Background(), "https://x", "", "apple pie", []string{"apple", "pie"}, models.ScanSourcePoll)
	assert.Empty(t, fresh)
	assert.Empty(t, surface.notifications)
	// two records plus the scan result
	assert.Equal(t, float64(4), testutil.ToFloat64(metrics.StorageErrorsTotal))
}

func TestEngine_RecordIfNewIdempotent(t *testing.T) {
	store := newTestStore(t)
	e := newTestEngine(t, store, &stubSurface{}, nil)
	ctx := context.Background()
	rec := models.MatchRecord{URL: "https://x", Keyword: "apple", TimestampMillis: 1}

	first, err := e.RecordIfNew(ctx, rec)
	require.NoError(t, err)
	assert.Equal(t, models.RecordResult{IsNew: true, Count: 1}, first)

	for i := 0; i < 3; i++ {
		again, err := e.RecordIfNew(ctx, rec)
		require.NoError(t, err)
		assert.Equal(t, models.RecordResult{IsNew: false, Count: 1}, again)
	}
}

func TestEngine_HistoryCap(t *testing.T) {
	store := newTestStore(t)
	e := newTestEngine(t, store, &stubSurface{}, nil)
	e.SetHistorySize(3)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := e.RecordIfNew(ctx, models.MatchRecord{
			URL:             fmt.Sprintf("https://x/%d", i),
			Keyword:         "apple",
			TimestampMillis: int64(i),
		})
		require.NoError(t, err)
	}

	history, err := store.History(ctx, 0)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "https://x/4", history[0].URL)
	assert.Equal(t, "https://x/2", history[2].URL)
}

func TestEngine_RecordFailure(t *testing.T) {
	store := newTestStore(t)
	e := newTestEngine(t, store, &stubSurface{}, nil)
	ctx := context.Background()

	e.RecordFailure(ctx, "https://x", 2, models.ScanSourcePoll, common.NewStatusFetchError("https://x", 503))

	scans, err := store.ScanResults(ctx, 0)
	require.NoError(t, err)
	require.Len(t, scans, 1)
	assert.Contains(t, scans[0].Error, "503")
	assert.Empty(t, scans[0].FoundKeywords)
}

var _ MatchStore = (*datastore.Store)(nil)

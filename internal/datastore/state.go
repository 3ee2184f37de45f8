package datastore

import (
	"context"
	"database/sql"
	"strconv"

	"github.com/aleister1102/keywatch/internal/common"
	"github.com/aleister1102/keywatch/internal/models"
)

// InitMonitoringState writes the initial state (enabled, never checked)
// unless a state already exists. It returns the state in effect.
func (s *Store) InitMonitoringState(ctx context.Context) (models.MonitoringState, error) {
	s.writeMu.Lock()
	err := s.inTx(ctx, "init monitoring state", func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO kv (key, value) VALUES (?, ?)",
			KeyMonitoringEnabled, strconv.FormatBool(true))
		return err
	})
	s.writeMu.Unlock()
	if err != nil {
		return models.MonitoringState{}, err
	}
	return s.MonitoringState(ctx)
}

// MonitoringState reads the persisted state. A missing enabled flag reads
// as enabled.
func (s *Store) MonitoringState(ctx context.Context) (models.MonitoringState, error) {
	values, err := s.Get(ctx, KeyMonitoringEnabled, KeyLastCheckTime)
	if err != nil {
		return models.MonitoringState{}, err
	}

	state := models.MonitoringState{Enabled: true}
	if raw, ok := values[KeyMonitoringEnabled]; ok {
		enabled, err := strconv.ParseBool(raw)
		if err != nil {
			return models.MonitoringState{}, common.NewStorageError("parse monitoring state", err)
		}
		state.Enabled = enabled
	}
	if raw, ok := values[KeyLastCheckTime]; ok && raw != "" {
		ms, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return models.MonitoringState{}, common.NewStorageError("parse last check time", err)
		}
		state.LastCheckTimeMillis = &ms
	}
	return state, nil
}

// SetMonitoringEnabled persists the on/off switch.
func (s *Store) SetMonitoringEnabled(ctx context.Context, enabled bool) error {
	return s.Set(ctx, map[string]string{KeyMonitoringEnabled: strconv.FormatBool(enabled)})
}

// SetLastCheckTime persists the time of the most recent URL check.
func (s *Store) SetLastCheckTime(ctx context.Context, ms int64) error {
	return s.Set(ctx, map[string]string{KeyLastCheckTime: strconv.FormatInt(ms, 10)})
}

package datastore

import (
	"context"
	"database/sql"
	"strings"

	"github.com/aleister1102/keywatch/internal/common"
)

// Well-known keys in the kv table
const (
	KeyNotificationCount = "notificationCount"
	KeyMonitoringEnabled = "monitoringEnabled"
	KeyLastCheckTime     = "lastCheckTime"
	KeyBadgeText         = "badgeText"
	KeyBadgeColor        = "badgeColor"
	// KeyNotificationPrefix prefixes the page URL recorded for each notification id
	KeyNotificationPrefix = "notification_"
)

// Get returns the values stored under keys. Missing keys are absent from
// the result.
func (s *Store) Get(ctx context.Context, keys ...string) (map[string]string, error) {
	result := make(map[string]string, len(keys))
	if len(keys) == 0 {
		return result, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(keys)), ",")
	args := make([]any, len(keys))
	for i, k := range keys {
		args[i] = k
	}

	rows, err := s.db.QueryContext(ctx, "SELECT key, value FROM kv WHERE key IN ("+placeholders+")", args...)
	if err != nil {
		return nil, common.NewStorageError("get", err)
	}
	defer rows.Close()

	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, common.NewStorageError("get", err)
		}
		result[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, common.NewStorageError("get", err)
	}
	return result, nil
}

// Set stores every entry of values in one transaction.
func (s *Store) Set(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	return s.inTx(ctx, "set", func(tx *sql.Tx) error {
		for k, v := range values {
			if err := setKV(ctx, tx, k, v); err != nil {
				return err
			}
		}
		return nil
	})
}

// Delete removes keys. Missing keys are ignored.
func (s *Store) Delete(ctx context.Context, keys ...string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	return s.inTx(ctx, "delete", func(tx *sql.Tx) error {
		for _, k := range keys {
			if _, err := tx.ExecContext(ctx, "DELETE FROM kv WHERE key = ?", k); err != nil {
				return err
			}
		}
		return nil
	})
}

func setKV(ctx context.Context, tx *sql.Tx, key, value string) error {
	_, err := tx.ExecContext(ctx,
		"INSERT INTO kv (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value)
	return err
}

// inTx runs fn in a transaction, wrapping any failure as a StorageError.
func (s *Store) inTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return common.NewStorageError(op, err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return common.NewStorageError(op, err)
	}
	if err := tx.Commit(); err != nil {
		return common.NewStorageError(op, err)
	}
	return nil
}

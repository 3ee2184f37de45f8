package datastore

import (
	"context"
	"database/sql"
	"errors"
	"strconv"

	"github.com/aleister1102/keywatch/internal/common"
	"github.com/aleister1102/keywatch/internal/models"
)

// RecordMatch inserts rec into the notified set unless its (url, keyword)
// pair is already there. A new pair is also appended to the match history,
// which is then trimmed to historyCap newest rows, and the notification
// counter is incremented. All of it commits or none of it does.
func (s *Store) RecordMatch(ctx context.Context, rec models.MatchRecord, historyCap int) (models.RecordResult, error) {
	if err := rec.Validate(); err != nil {
		return models.RecordResult{}, common.WrapError(common.ErrInvalidInput, err.Error())
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	var result models.RecordResult
	err := s.inTx(ctx, "record match", func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO notified (key, url, keyword, title, context, timestamp) VALUES (?, ?, ?, ?, ?, ?)`,
			rec.DedupKey(), rec.URL, rec.Keyword, rec.Title, rec.Context, rec.TimestampMillis)
		if err != nil {
			return err
		}
		inserted, err := res.RowsAffected()
		if err != nil {
			return err
		}

		if inserted == 0 {
			count, err := readCounter(ctx, tx)
			result = models.RecordResult{IsNew: false, Count: count}
			return err
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO match_history (url, keyword, title, context, timestamp) VALUES (?, ?, ?, ?, ?)`,
			rec.URL, rec.Keyword, rec.Title, rec.Context, rec.TimestampMillis); err != nil {
			return err
		}
		if historyCap > 0 {
			if _, err := tx.ExecContext(ctx,
				`DELETE FROM match_history WHERE id NOT IN (SELECT id FROM match_history ORDER BY id DESC LIMIT ?)`,
				historyCap); err != nil {
				return err
			}
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO kv (key, value) VALUES (?, '1')
			 ON CONFLICT(key) DO UPDATE SET value = CAST(CAST(value AS INTEGER) + 1 AS TEXT)`,
			KeyNotificationCount); err != nil {
			return err
		}
		count, err := readCounter(ctx, tx)
		result = models.RecordResult{IsNew: true, Count: count}
		return err
	})
	if err != nil {
		return models.RecordResult{}, err
	}
	return result, nil
}

// IsNotified reports whether the (url, keyword) pair is in the notified set.
func (s *Store) IsNotified(ctx context.Context, url, keyword string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM notified WHERE key = ?", models.DedupKey(url, keyword)).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, common.NewStorageError("is notified", err)
	}
	return true, nil
}

// NotifiedCount returns the size of the notified set.
func (s *Store) NotifiedCount(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM notified").Scan(&n); err != nil {
		return 0, common.NewStorageError("count notified", err)
	}
	return n, nil
}

// History returns up to limit match records, newest first. A non-positive
// limit returns the whole history.
func (s *Store) History(ctx context.Context, limit int) ([]models.MatchRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT url, keyword, title, context, timestamp FROM match_history ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, common.NewStorageError("history", err)
	}
	defer rows.Close()

	records := []models.MatchRecord{}
	for rows.Next() {
		var rec models.MatchRecord
		if err := rows.Scan(&rec.URL, &rec.Keyword, &rec.Title, &rec.Context, &rec.TimestampMillis); err != nil {
			return nil, common.NewStorageError("history", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, common.NewStorageError("history", err)
	}
	return records, nil
}

// NotificationCount returns the persisted notification counter.
func (s *Store) NotificationCount(ctx context.Context) (int64, error) {
	values, err := s.Get(ctx, KeyNotificationCount)
	if err != nil {
		return 0, err
	}
	return parseCounter(values[KeyNotificationCount])
}

func readCounter(ctx context.Context, tx *sql.Tx) (int64, error) {
	var raw string
	err := tx.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?", KeyNotificationCount).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return parseCounter(raw)
}

func parseCounter(raw string) (int64, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, common.NewStorageError("parse counter", err)
	}
	return n, nil
}

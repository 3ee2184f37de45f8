package datastore

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/aleister1102/keywatch/internal/common"
	"github.com/aleister1102/keywatch/internal/models"
)

// AppendScanResult stores r and keeps only the newest keep rows.
func (s *Store) AppendScanResult(ctx context.Context, r models.ScanResult, keep int) error {
	found, err := json.Marshal(r.FoundKeywords)
	if err != nil {
		return common.NewStorageError("append scan result", err)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	return s.inTx(ctx, "append scan result", func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO scan_results (url, timestamp, found_keywords, total_keywords, content_length, source, error)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			r.URL, r.TimestampMillis, string(found), r.TotalKeywords, r.ContentLength, r.Source, r.Error); err != nil {
			return err
		}
		if keep > 0 {
			_, err := tx.ExecContext(ctx,
				`DELETE FROM scan_results WHERE id NOT IN (SELECT id FROM scan_results ORDER BY id DESC LIMIT ?)`, keep)
			return err
		}
		return nil
	})
}

// ScanResults returns up to limit scan results, newest first.
func (s *Store) ScanResults(ctx context.Context, limit int) ([]models.ScanResult, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT url, timestamp, found_keywords, total_keywords, content_length, source, error
		 FROM scan_results ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, common.NewStorageError("scan results", err)
	}
	defer rows.Close()

	results := []models.ScanResult{}
	for rows.Next() {
		var (
			r     models.ScanResult
			found string
		)
		if err := rows.Scan(&r.URL, &r.TimestampMillis, &found, &r.TotalKeywords, &r.ContentLength, &r.Source, &r.Error); err != nil {
			return nil, common.NewStorageError("scan results", err)
		}
		if err := json.Unmarshal([]byte(found), &r.FoundKeywords); err != nil {
			return nil, common.NewStorageError("scan results", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, common.NewStorageError("scan results", err)
	}
	return results, nil
}

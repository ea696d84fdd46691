// Package db persists the prediction history in SQLite.
package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// PredictionRecord is one answered /predict request. Input features are never stored.
type PredictionRecord struct {
	ID         int64     `json:"id"`
	RequestID  string    `json:"request_id"`
	Label      string    `json:"prediction,omitempty"`
	Confidence *float64  `json:"confidence,omitempty"`
	Error      string    `json:"error,omitempty"`
	Cached     bool      `json:"cached"`
	CreatedAt  time.Time `json:"created_at"`
}

type HistoryStore struct {
	db *sql.DB
}

// OpenHistory opens (creating if needed) the history database at path.
func OpenHistory(path string) (*HistoryStore, error) {
	if path == "" {
		return nil, errors.New("history path is empty")
	}
	database, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	// sqlite allows a single writer
	database.SetMaxOpenConns(1)

	query := `
    CREATE TABLE IF NOT EXISTS predictions (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        request_id TEXT NOT NULL,
        predicted_label TEXT,
        confidence REAL,
        error TEXT,
        cached INTEGER NOT NULL DEFAULT 0,
        created_at DATETIME NOT NULL
    );
    CREATE INDEX IF NOT EXISTS idx_predictions_created_at ON predictions(created_at);
    `
	if _, err := database.Exec(query); err != nil {
		database.Close()
		return nil, err
	}
	return &HistoryStore{db: database}, nil
}

// Record saves rec. CreatedAt defaults to now.
func (s *HistoryStore) Record(ctx context.Context, rec PredictionRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	var label, errMsg sql.NullString
	if rec.Label != "" {
		label = sql.NullString{String: rec.Label, Valid: true}
	}
	if rec.Error != "" {
		errMsg = sql.NullString{String: rec.Error, Valid: true}
	}
	var confidence sql.NullFloat64
	if rec.Confidence != nil {
		confidence = sql.NullFloat64{Float64: *rec.Confidence, Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO predictions (request_id, predicted_label, confidence, error, cached, created_at)
        VALUES (?, ?, ?, ?, ?, ?)`,
		rec.RequestID, label, confidence, errMsg, rec.Cached, rec.CreatedAt)
	return err
}

// Recent returns up to limit records, newest first.
func (s *HistoryStore) Recent(ctx context.Context, limit int) ([]PredictionRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, request_id, predicted_label, confidence, error, cached, created_at
        FROM predictions
        ORDER BY id DESC
        LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]PredictionRecord, 0)
	for rows.Next() {
		var rec PredictionRecord
		var label, errMsg sql.NullString
		var confidence sql.NullFloat64
		if err := rows.Scan(&rec.ID, &rec.RequestID, &label, &confidence, &errMsg, &rec.Cached, &rec.CreatedAt); err != nil {
			return nil, err
		}
		if label.Valid {
			rec.Label = label.String
		}
		if errMsg.Valid {
			rec.Error = errMsg.String
		}
		if confidence.Valid {
			c := confidence.Float64
			rec.Confidence = &c
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *HistoryStore) Close() error {
	return s.db.Close()
}

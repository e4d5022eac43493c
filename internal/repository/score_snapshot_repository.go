package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/godilite/stock-advisor/internal/repository/models"
)

// timeLayout sorts lexicographically in the same order as time.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

type ScoreSnapshotRepository struct {
	db *sql.DB
}

func NewScoreSnapshotRepository(db *sql.DB) *ScoreSnapshotRepository {
	return &ScoreSnapshotRepository{db: db}
}

// Migrate creates the snapshot table if it does not exist.
func (s *ScoreSnapshotRepository) Migrate(ctx context.Context) error {
	const schema = `
		CREATE TABLE IF NOT EXISTS score_snapshots (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			symbol TEXT NOT NULL,
			total_points REAL NOT NULL,
			max_points REAL NOT NULL,
			percentage REAL NOT NULL,
			created_at TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_score_snapshots_symbol_created
			ON score_snapshots (symbol, created_at);
	`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate score_snapshots: %w", err)
	}
	return nil
}

// SaveSnapshot stores one evaluation result and returns its id.
func (s *ScoreSnapshotRepository) SaveSnapshot(ctx context.Context, snap models.ScoreSnapshot) (int64, error) {
	const query = `
		INSERT INTO score_snapshots (symbol, total_points, max_points, percentage, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	createdAt := snap.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	res, err := s.db.ExecContext(ctx, query,
		snap.Symbol,
		snap.TotalPoints,
		snap.MaxPoints,
		snap.Percentage,
		createdAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("insert SaveSnapshot: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id SaveSnapshot: %w", err)
	}
	return id, nil
}

// ListSnapshots returns up to limit snapshots for symbol, newest first.
func (s *ScoreSnapshotRepository) ListSnapshots(ctx context.Context, symbol string, limit int) ([]models.ScoreSnapshot, error) {
	const query = `
		SELECT id, symbol, total_points, max_points, percentage, created_at
		FROM score_snapshots
		WHERE symbol = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`

	rows, err := s.db.QueryContext(ctx, query, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("query ListSnapshots: %w", err)
	}
	defer rows.Close()

	var results []models.ScoreSnapshot
	for rows.Next() {
		var (
			snap      models.ScoreSnapshot
			createdAt string
		)
		if err := rows.Scan(&snap.ID, &snap.Symbol, &snap.TotalPoints, &snap.MaxPoints, &snap.Percentage, &createdAt); err != nil {
			return nil, fmt.Errorf("scan ListSnapshots row: %w", err)
		}
		snap.CreatedAt, err = time.Parse(timeLayout, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse ListSnapshots created_at: %w", err)
		}
		results = append(results, snap)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ListSnapshots: %w", err)
	}
	return results, nil
}

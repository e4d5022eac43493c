package repository_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"github.com/godilite/stock-advisor/internal/repository"
	"github.com/godilite/stock-advisor/internal/repository/models"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)

	return db
}

func TestScoreSnapshotRepository_Integration(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	defer db.Close()

	repo := repository.NewScoreSnapshotRepository(db)
	require.NoError(t, repo.Migrate(ctx))
	require.NoError(t, repo.Migrate(ctx), "migrate must be idempotent")

	baseTime := time.Date(2025, 10, 18, 10, 0, 0, 0, time.UTC)
	seed := []models.ScoreSnapshot{
		{Symbol: "AAPL", TotalPoints: 12, MaxPoints: 20, Percentage: 60, CreatedAt: baseTime},
		{Symbol: "AAPL", TotalPoints: 13.5, MaxPoints: 20, Percentage: 67.5, CreatedAt: baseTime.Add(24 * time.Hour)},
		{Symbol: "MSFT", TotalPoints: 16, MaxPoints: 20, Percentage: 80, CreatedAt: baseTime},
		{Symbol: "AAPL", TotalPoints: 9, MaxPoints: 20, Percentage: 45, CreatedAt: baseTime.Add(-24 * time.Hour)},
	}
	for _, s := range seed {
		id, err := repo.SaveSnapshot(ctx, s)
		require.NoError(t, err)
		require.Greater(t, id, int64(0))
	}

	t.Run("ListSnapshots newest first", func(t *testing.T) {
		results, err := repo.ListSnapshots(ctx, "AAPL", 10)
		require.NoError(t, err)

		require.Len(t, results, 3)
		require.Equal(t, 13.5, results[0].TotalPoints)
		require.Equal(t, baseTime.Add(24*time.Hour), results[0].CreatedAt)
		require.Equal(t, 12.0, results[1].TotalPoints)
		require.Equal(t, 9.0, results[2].TotalPoints)
	})

	t.Run("ListSnapshots limit", func(t *testing.T) {
		results, err := repo.ListSnapshots(ctx, "AAPL", 1)
		require.NoError(t, err)
		require.Len(t, results, 1)
		require.Equal(t, 67.5, results[0].Percentage)
	})

	t.Run("ListSnapshots unknown symbol", func(t *testing.T) {
		results, err := repo.ListSnapshots(ctx, "NOPE", 10)
		require.NoError(t, err)
		require.Empty(t, results)
	})

	t.Run("SaveSnapshot defaults created_at", func(t *testing.T) {
		before := time.Now().UTC().Add(-time.Second)
		_, err := repo.SaveSnapshot(ctx, models.ScoreSnapshot{Symbol: "TSLA", MaxPoints: 20})
		require.NoError(t, err)

		results, err := repo.ListSnapshots(ctx, "TSLA", 1)
		require.NoError(t, err)
		require.Len(t, results, 1)
		require.True(t, results[0].CreatedAt.After(before))
	})
}

package mocks

import (
	"context"
	"errors"
	"sync"

	"github.com/godilite/stock-advisor/internal/repository/models"
)

// MockSnapshotRepository is a mock implementation of the SnapshotRepository interface
// for testing the service layer. Saved snapshots are kept for inspection.
type MockSnapshotRepository struct {
	SaveSnapshotFunc  func(ctx context.Context, snap models.ScoreSnapshot) (int64, error)
	ListSnapshotsFunc func(ctx context.Context, symbol string, limit int) ([]models.ScoreSnapshot, error)

	mu    sync.Mutex
	Saved []models.ScoreSnapshot
}

// SaveSnapshot implements the SnapshotRepository interface
func (m *MockSnapshotRepository) SaveSnapshot(ctx context.Context, snap models.ScoreSnapshot) (int64, error) {
	m.mu.Lock()
	m.Saved = append(m.Saved, snap)
	n := int64(len(m.Saved))
	m.mu.Unlock()

	if m.SaveSnapshotFunc != nil {
		return m.SaveSnapshotFunc(ctx, snap)
	}
	return n, nil
}

// ListSnapshots implements the SnapshotRepository interface
func (m *MockSnapshotRepository) ListSnapshots(ctx context.Context, symbol string, limit int) ([]models.ScoreSnapshot, error) {
	if m.ListSnapshotsFunc != nil {
		return m.ListSnapshotsFunc(ctx, symbol, limit)
	}
	return nil, errors.New("ListSnapshotsFunc not implemented")
}

// SavedSnapshots returns a copy of everything passed to SaveSnapshot.
func (m *MockSnapshotRepository) SavedSnapshots() []models.ScoreSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.ScoreSnapshot, len(m.Saved))
	copy(out, m.Saved)
	return out
}

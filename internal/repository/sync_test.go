//go:build integration

package repository

import (
	"context"
	"errors"
	"testing"

	"fantasy_nhl/ingestion/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunSync_RollsBackOnError(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	boom := errors.New("boom")
	err := db.RunSync(ctx, func(ctx context.Context, w SyncWriter) error {
		require.NoError(t, w.UpsertTeam(ctx, &models.Team{TeamID: 1, Name: "Alpha"}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	count, err := db.Teams.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count, "Nothing should be committed")
}

func TestRunSync_SavepointSkipsFailedPlayer(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	err := db.RunSync(ctx, func(ctx context.Context, w SyncWriter) error {
		good := &models.Player{PlayerID: 1, FullName: "Good", Status: models.StatusActive}
		require.NoError(t, w.Savepoint(ctx, func() error { return w.UpsertPlayer(ctx, good) }))

		// Snapshot for an unknown player violates the foreign key
		bad := &models.PlayerSnapshot{PlayerID: 999, Day: models.MustParseDay("2025-01-01")}
		spErr := w.Savepoint(ctx, func() error { return w.UpsertPlayerSnapshot(ctx, bad) })
		assert.Error(t, spErr)

		// The transaction remains usable
		return w.Savepoint(ctx, func() error {
			return w.UpsertPlayer(ctx, &models.Player{PlayerID: 2, FullName: "After", Status: models.StatusActive})
		})
	})
	require.NoError(t, err)

	count, err := db.Players.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestRunSync_ReleasesUnrostered(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	err := db.RunSync(ctx, func(ctx context.Context, w SyncWriter) error {
		if err := w.UpsertTeam(ctx, &models.Team{TeamID: 1, Name: "Alpha"}); err != nil {
			return err
		}
		for _, id := range []int{1, 2} {
			p := &models.Player{PlayerID: id, FullName: "P", Status: models.StatusActive}
			p.TeamID = ptr(int32(1))
			if err := w.UpsertPlayer(ctx, p); err != nil {
				return err
			}
		}
		released, err := w.ReleaseUnrostered(ctx, []int{1})
		assert.Equal(t, int64(1), released)
		return err
	})
	require.NoError(t, err)

	p, err := db.Players.GetByPlayerID(ctx, 2)
	require.NoError(t, err)
	assert.True(t, p.IsFreeAgent())
}

func TestRunSync_AdvisoryLockExcludesConcurrentSync(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	err := db.RunSync(ctx, func(ctx context.Context, w SyncWriter) error {
		return db.RunSync(ctx, func(ctx context.Context, w SyncWriter) error { return nil })
	})
	assert.ErrorIs(t, err, ErrSyncLocked)
}

//go:build integration

package repository

import (
	"testing"
	"time"

	"fantasy_nhl/ingestion/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotRepository_PlayerSnapshotIsUniquePerDay(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	p := &models.Player{PlayerID: 5, FullName: "A", Status: models.StatusActive}
	require.NoError(t, db.Players.Upsert(ctx, p))

	day := models.MustParseDay("2025-01-01")
	first := models.NewPlayerSnapshot(p, models.StatLine{models.StatGoals: 1}, day, time.Now())
	first.TotalPoints = 5
	require.NoError(t, upsertPlayerSnapshot(ctx, db.Pool, first))

	second := models.NewPlayerSnapshot(p, models.StatLine{models.StatGoals: 2}, day, time.Now())
	second.TotalPoints = 7
	require.NoError(t, upsertPlayerSnapshot(ctx, db.Pool, second))
	assert.Equal(t, first.ID, second.ID, "Same-day snapshot should be updated in place")

	count, err := db.Snapshots.CountPlayerSnapshots(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	history, err := db.Snapshots.PlayerHistory(ctx, 5)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, 7.0, history[0].TotalPoints)
	assert.Equal(t, 2.0, history[0].Stats[models.StatGoals])
	assert.Equal(t, day, history[0].Day)
}

func TestSnapshotRepository_PlayerHistoryOrderedByDay(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	p := &models.Player{PlayerID: 6, FullName: "A", Status: models.StatusActive}
	require.NoError(t, db.Players.Upsert(ctx, p))

	for _, tc := range []struct {
		day    string
		points float64
	}{{"2025-01-02", 7}, {"2025-01-01", 5}} {
		snap := models.NewPlayerSnapshot(p, nil, models.MustParseDay(tc.day), time.Now())
		snap.TotalPoints = tc.points
		require.NoError(t, upsertPlayerSnapshot(ctx, db.Pool, snap))
	}

	history, err := db.Snapshots.PlayerHistory(ctx, 6)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "2025-01-01", history[0].Day.String())
	assert.Equal(t, 5.0, history[0].TotalPoints)
	assert.Equal(t, "2025-01-02", history[1].Day.String())
	assert.Equal(t, 7.0, history[1].TotalPoints)
}

func TestSnapshotRepository_TeamHistory(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	require.NoError(t, db.Teams.Upsert(ctx, &models.Team{TeamID: 1, Name: "Alpha"}))
	day := models.MustParseDay("2025-02-01")
	for _, pts := range []float64{10, 11} {
		require.NoError(t, upsertTeamSnapshot(ctx, db.Pool, &models.TeamSnapshot{
			TeamID: 1, Day: day, CapturedAt: time.Now(), Points: pts,
		}))
	}

	series, err := db.Snapshots.TeamHistory(ctx)
	require.NoError(t, err)
	require.Len(t, series, 1)
	assert.Equal(t, "Alpha", series[0].Name)
	assert.Equal(t, 11.0, series[0].Value)
}

func TestSnapshotRepository_PlayerHistoryByTeam(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	require.NoError(t, db.Teams.Upsert(ctx, &models.Team{TeamID: 3, Name: "Gamma"}))
	onTeam := &models.Player{PlayerID: 30, FullName: "On Team", Status: models.StatusActive, TeamID: ptr(int32(3))}
	offTeam := &models.Player{PlayerID: 31, FullName: "Off Team", Status: models.StatusActive}
	for _, p := range []*models.Player{onTeam, offTeam} {
		require.NoError(t, db.Players.Upsert(ctx, p))
		snap := models.NewPlayerSnapshot(p, nil, models.MustParseDay("2025-03-01"), time.Now())
		snap.Goals = 4
		require.NoError(t, upsertPlayerSnapshot(ctx, db.Pool, snap))
	}

	series, err := db.Snapshots.PlayerHistoryByTeam(ctx, 3, "goals")
	require.NoError(t, err)
	require.Len(t, series, 1)
	assert.Equal(t, "On Team", series[0].Name)
	assert.Equal(t, 4.0, series[0].Value)

	series, err = db.Snapshots.PlayerHistoryByTeam(ctx, 3, "salary_value")
	require.NoError(t, err)
	require.Len(t, series, 1)
	assert.Equal(t, 0.0, series[0].Value, "Missing salary reads as zero")

	_, err = db.Snapshots.PlayerHistoryByTeam(ctx, 3, "full_name; DROP TABLE players")
	assert.Error(t, err)
}

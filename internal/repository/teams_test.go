//go:build integration

package repository

import (
	"errors"
	"testing"

	"fantasy_nhl/ingestion/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTeamRepository_Upsert(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	team := &models.Team{
		TeamID: 1,
		Name:   "Ice Breakers",
		Abbrev: ptr("ICE"),
		Rank:   2,
		Wins:   10,
		Losses: 4,
		Points: 120.5,
	}

	// Insert new team
	err := db.Teams.Upsert(ctx, team)
	require.NoError(t, err, "Should successfully insert team")

	// Verify team was created
	retrieved, err := db.Teams.GetByTeamID(ctx, team.TeamID)
	require.NoError(t, err, "Should retrieve inserted team")
	assert.Equal(t, "Ice Breakers", retrieved.Name, "Names should match")
	assert.Equal(t, 120.5, retrieved.Points, "Points should match")

	// Update existing team
	team.Name = "Ice Breakers II"
	team.Points = 130
	err = db.Teams.Upsert(ctx, team)
	require.NoError(t, err, "Should successfully update team")

	// Verify update
	updated, err := db.Teams.GetByTeamID(ctx, team.TeamID)
	require.NoError(t, err, "Should retrieve updated team")
	assert.Equal(t, "Ice Breakers II", updated.Name, "Name should be updated")
	assert.Equal(t, 130.0, updated.Points, "Points should be updated")

	count, err := db.Teams.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count, "Upsert must not duplicate the team")
}

func TestTeamRepository_GetByTeamID_NotFound(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	_, err := db.Teams.GetByTeamID(ctx, 999)
	assert.True(t, errors.Is(err, ErrNotFound), "Missing team should map to ErrNotFound")
}

func TestTeamRepository_ListWithRosters(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	// Insert teams out of rank order, one unranked
	teams := []*models.Team{
		{TeamID: 10, Name: "Third", Rank: 3},
		{TeamID: 11, Name: "Unranked", Rank: 0},
		{TeamID: 12, Name: "First", Rank: 1},
	}
	for _, team := range teams {
		require.NoError(t, db.Teams.Upsert(ctx, team))
	}

	require.NoError(t, db.Players.Upsert(ctx, &models.Player{
		PlayerID: 100, FullName: "Rostered Skater", Status: models.StatusActive,
		TeamID: ptr(int32(12)),
	}))
	require.NoError(t, db.Players.Upsert(ctx, &models.Player{
		PlayerID: 101, FullName: "Free Skater", Status: models.StatusActive,
	}))

	list, err := db.Teams.ListWithRosters(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)

	assert.Equal(t, "First", list[0].Name)
	assert.Equal(t, "Third", list[1].Name)
	assert.Equal(t, "Unranked", list[2].Name, "Unranked teams sort last")

	require.Len(t, list[0].Players, 1)
	assert.Equal(t, 100, list[0].Players[0].PlayerID)
	assert.Empty(t, list[1].Players)
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fantasy_nhl/ingestion/internal/models"

	"github.com/jackc/pgx/v5"
)

// TeamRepository handles team database operations
type TeamRepository struct {
	db *Database
}

const teamColumns = `
	team_id, name, abbrev, rank, wins, losses, ties, points, points_fallback,
	goals, assists, ppp, shp, sog, hits, blocks, pim, created_at, updated_at
`

func scanTeam(row pgx.Row) (*models.Team, error) {
	var team models.Team
	err := row.Scan(
		&team.TeamID, &team.Name, &team.Abbrev, &team.Rank,
		&team.Wins, &team.Losses, &team.Ties,
		&team.Points, &team.PointsFallback,
		&team.Goals, &team.Assists, &team.PowerPlayPoints, &team.ShortHandedPoints,
		&team.ShotsOnGoal, &team.Hits, &team.Blocks, &team.PenaltyMinutes,
		&team.CreatedAt, &team.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &team, nil
}

func upsertTeam(ctx context.Context, q dbtx, team *models.Team) error {
	query := `
		INSERT INTO teams (
			team_id, name, abbrev, rank, wins, losses, ties, points, points_fallback,
			goals, assists, ppp, shp, sog, hits, blocks, pim
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (team_id) DO UPDATE SET
			name = EXCLUDED.name,
			abbrev = EXCLUDED.abbrev,
			rank = EXCLUDED.rank,
			wins = EXCLUDED.wins,
			losses = EXCLUDED.losses,
			ties = EXCLUDED.ties,
			points = EXCLUDED.points,
			points_fallback = EXCLUDED.points_fallback,
			goals = EXCLUDED.goals,
			assists = EXCLUDED.assists,
			ppp = EXCLUDED.ppp,
			shp = EXCLUDED.shp,
			sog = EXCLUDED.sog,
			hits = EXCLUDED.hits,
			blocks = EXCLUDED.blocks,
			pim = EXCLUDED.pim,
			updated_at = NOW()
		RETURNING created_at, updated_at
	`

	start := time.Now()
	err := q.QueryRow(
		ctx, query,
		team.TeamID, team.Name, team.Abbrev, team.Rank,
		team.Wins, team.Losses, team.Ties,
		team.Points, team.PointsFallback,
		team.Goals, team.Assists, team.PowerPlayPoints, team.ShortHandedPoints,
		team.ShotsOnGoal, team.Hits, team.Blocks, team.PenaltyMinutes,
	).Scan(&team.CreatedAt, &team.UpdatedAt)
	observe("upsert", "teams", start, err)

	if err != nil {
		return fmt.Errorf("failed to upsert team %d: %w", team.TeamID, err)
	}

	return nil
}

// Upsert inserts or updates a team
func (r *TeamRepository) Upsert(ctx context.Context, team *models.Team) error {
	return upsertTeam(ctx, r.db.Pool, team)
}

// GetByTeamID retrieves a team by its league team id
func (r *TeamRepository) GetByTeamID(ctx context.Context, teamID int) (*models.Team, error) {
	query := `SELECT ` + teamColumns + ` FROM teams WHERE team_id = $1`

	team, err := scanTeam(r.db.Pool.QueryRow(ctx, query, teamID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("team %d: %w", teamID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get team: %w", err)
	}

	return team, nil
}

// List retrieves all teams ordered by rank. Unranked teams sort last.
func (r *TeamRepository) List(ctx context.Context) ([]*models.Team, error) {
	query := `
		SELECT ` + teamColumns + `
		FROM teams
		ORDER BY (rank <= 0), rank, team_id
	`

	start := time.Now()
	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		observe("select", "teams", start, err)
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	defer rows.Close()

	var teams []*models.Team
	for rows.Next() {
		team, err := scanTeam(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan team: %w", err)
		}
		teams = append(teams, team)
	}

	err = rows.Err()
	observe("select", "teams", start, err)
	if err != nil {
		return nil, fmt.Errorf("error iterating teams: %w", err)
	}

	return teams, nil
}

// ListWithRosters retrieves all teams ordered by rank with their players loaded
func (r *TeamRepository) ListWithRosters(ctx context.Context) ([]*models.TeamWithRoster, error) {
	teams, err := r.List(ctx)
	if err != nil {
		return nil, err
	}

	players, err := r.db.Players.ListRostered(ctx)
	if err != nil {
		return nil, err
	}

	byTeam := make(map[int][]*models.Player, len(teams))
	for _, p := range players {
		id := int(*p.TeamID)
		byTeam[id] = append(byTeam[id], p)
	}

	out := make([]*models.TeamWithRoster, 0, len(teams))
	for _, t := range teams {
		roster := byTeam[t.TeamID]
		if roster == nil {
			roster = []*models.Player{}
		}
		out = append(out, &models.TeamWithRoster{Team: t, Players: roster})
	}

	return out, nil
}

// Count returns the total number of teams
func (r *TeamRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM teams`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count teams: %w", err)
	}
	return count, nil
}

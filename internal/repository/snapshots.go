package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"fantasy_nhl/ingestion/internal/models"

	"github.com/jackc/pgx/v5"
)

// SnapshotRepository handles daily player and team snapshots
type SnapshotRepository struct {
	db *Database
}

// snapshotStatColumns maps the stats a team history chart may plot to their column expression
var snapshotStatColumns = map[string]string{
	"total_points": "s.total_points",
	"goals":        "s.goals",
	"assists":      "s.assists",
	"ppp":          "s.ppp",
	"shp":          "s.shp",
	"sog":          "s.sog",
	"hits":         "s.hits",
	"blocks":       "s.blocks",
	"plus_minus":   "s.plus_minus",
	"salary_value": "COALESCE(s.salary_value, 0)",
}

// IsSnapshotStat reports whether stat names a plottable snapshot column
func IsSnapshotStat(stat string) bool {
	_, ok := snapshotStatColumns[stat]
	return ok
}

// upsertPlayerSnapshot writes the (player, day) row, overwriting it on a same-day rerun
func upsertPlayerSnapshot(ctx context.Context, q dbtx, s *models.PlayerSnapshot) error {
	query := `
		INSERT INTO player_snapshots (
			player_id, day, captured_at, lineup_slot, stats,
			goals, assists, ppp, shp, sog, hits, blocks, plus_minus, total_points,
			salary, salary_value, contract_years
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (player_id, day) DO UPDATE SET
			captured_at = EXCLUDED.captured_at,
			lineup_slot = EXCLUDED.lineup_slot,
			stats = EXCLUDED.stats,
			goals = EXCLUDED.goals,
			assists = EXCLUDED.assists,
			ppp = EXCLUDED.ppp,
			shp = EXCLUDED.shp,
			sog = EXCLUDED.sog,
			hits = EXCLUDED.hits,
			blocks = EXCLUDED.blocks,
			plus_minus = EXCLUDED.plus_minus,
			total_points = EXCLUDED.total_points,
			salary = EXCLUDED.salary,
			salary_value = EXCLUDED.salary_value,
			contract_years = EXCLUDED.contract_years
		RETURNING id
	`

	stats := s.Stats
	if stats == nil {
		stats = models.StatLine{}
	}

	start := time.Now()
	err := q.QueryRow(
		ctx, query,
		s.PlayerID, s.Day.Time(), s.CapturedAt, s.LineupSlot, stats,
		s.Goals, s.Assists, s.PowerPlayPoints, s.ShortHandedPoints,
		s.ShotsOnGoal, s.Hits, s.Blocks, s.PlusMinus, s.TotalPoints,
		s.Salary, s.SalaryValue, s.ContractYears,
	).Scan(&s.ID)
	observe("upsert", "player_snapshots", start, err)

	if err != nil {
		return fmt.Errorf("failed to upsert snapshot for player %d on %s: %w", s.PlayerID, s.Day, err)
	}
	return nil
}

// upsertTeamSnapshot writes the (team, day) row, overwriting its points on a same-day rerun
func upsertTeamSnapshot(ctx context.Context, q dbtx, s *models.TeamSnapshot) error {
	query := `
		INSERT INTO team_snapshots (team_id, day, captured_at, points)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (team_id, day) DO UPDATE SET
			captured_at = EXCLUDED.captured_at,
			points = EXCLUDED.points
		RETURNING id
	`

	start := time.Now()
	err := q.QueryRow(ctx, query, s.TeamID, s.Day.Time(), s.CapturedAt, s.Points).Scan(&s.ID)
	observe("upsert", "team_snapshots", start, err)

	if err != nil {
		return fmt.Errorf("failed to upsert snapshot for team %d on %s: %w", s.TeamID, s.Day, err)
	}
	return nil
}

// PlayerHistory retrieves a player's snapshots ordered by day ascending
func (r *SnapshotRepository) PlayerHistory(ctx context.Context, playerID int) ([]*models.PlayerSnapshot, error) {
	query := `
		SELECT id, player_id, day, captured_at, lineup_slot, stats,
			goals, assists, ppp, shp, sog, hits, blocks, plus_minus, total_points,
			salary, salary_value, contract_years
		FROM player_snapshots
		WHERE player_id = $1
		ORDER BY day ASC
	`

	start := time.Now()
	rows, err := r.db.Pool.Query(ctx, query, playerID)
	if err != nil {
		observe("select", "player_snapshots", start, err)
		return nil, fmt.Errorf("failed to query player history: %w", err)
	}
	defer rows.Close()

	snapshots := []*models.PlayerSnapshot{}
	for rows.Next() {
		var s models.PlayerSnapshot
		var day time.Time
		err := rows.Scan(
			&s.ID, &s.PlayerID, &day, &s.CapturedAt, &s.LineupSlot, &s.Stats,
			&s.Goals, &s.Assists, &s.PowerPlayPoints, &s.ShortHandedPoints,
			&s.ShotsOnGoal, &s.Hits, &s.Blocks, &s.PlusMinus, &s.TotalPoints,
			&s.Salary, &s.SalaryValue, &s.ContractYears,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan player snapshot: %w", err)
		}
		s.Day = models.DayOf(day)
		snapshots = append(snapshots, &s)
	}

	err = rows.Err()
	observe("select", "player_snapshots", start, err)
	if err != nil {
		return nil, fmt.Errorf("error iterating player history: %w", err)
	}

	return snapshots, nil
}

// TeamHistory retrieves every team snapshot as series points ordered by day
func (r *SnapshotRepository) TeamHistory(ctx context.Context) ([]models.SeriesPoint, error) {
	query := `
		SELECT s.team_id, t.name, s.day, s.points
		FROM team_snapshots s
		LEFT JOIN teams t ON t.team_id = s.team_id
		ORDER BY s.day ASC, s.team_id
	`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query team history: %w", err)
	}
	return collectSeries(rows, "team_snapshots")
}

// PlayerHistoryByTeam retrieves one snapshot stat for every player currently on the team
func (r *SnapshotRepository) PlayerHistoryByTeam(ctx context.Context, teamID int, stat string) ([]models.SeriesPoint, error) {
	column, ok := snapshotStatColumns[stat]
	if !ok {
		return nil, fmt.Errorf("unknown snapshot stat %q", stat)
	}

	query := `
		SELECT s.player_id, p.full_name, s.day, ` + column + `
		FROM player_snapshots s
		JOIN players p ON p.player_id = s.player_id
		WHERE p.team_id = $1
		ORDER BY s.day ASC, s.player_id
	`

	rows, err := r.db.Pool.Query(ctx, query, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to query team player history: %w", err)
	}
	return collectSeries(rows, "player_snapshots")
}

func collectSeries(rows pgx.Rows, table string) ([]models.SeriesPoint, error) {
	defer rows.Close()

	start := time.Now()
	points := []models.SeriesPoint{}
	for rows.Next() {
		var (
			p    models.SeriesPoint
			name sql.NullString
			day  time.Time
		)
		if err := rows.Scan(&p.EntityID, &name, &day, &p.Value); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", table, err)
		}
		p.Name = name.String
		p.Day = models.DayOf(day)
		points = append(points, p)
	}

	err := rows.Err()
	observe("select", table, start, err)
	if err != nil {
		return nil, fmt.Errorf("error iterating %s: %w", table, err)
	}
	return points, nil
}

// CountPlayerSnapshots returns the number of player snapshot rows
func (r *SnapshotRepository) CountPlayerSnapshots(ctx context.Context) (int, error) {
	var count int
	if err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM player_snapshots`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count player snapshots: %w", err)
	}
	return count, nil
}

// CountTeamSnapshots returns the number of team snapshot rows
func (r *SnapshotRepository) CountTeamSnapshots(ctx context.Context) (int, error) {
	var count int
	if err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM team_snapshots`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count team snapshots: %w", err)
	}
	return count, nil
}

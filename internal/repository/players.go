package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fantasy_nhl/ingestion/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
)

// PlayerRepository handles player database operations
type PlayerRepository struct {
	db *Database
}

const playerColumns = `
	player_id, full_name, position, pro_team, team_id, lineup_slot, status, injury_note,
	ownership, goals, assists, ppp, shp, sog, hits, blocks, plus_minus,
	total_points, points_fallback, salary, salary_value, contract_years, last_updated
`

func scanPlayer(row pgx.Row) (*models.Player, error) {
	var p models.Player
	err := row.Scan(
		&p.PlayerID, &p.FullName, &p.Position, &p.ProTeam, &p.TeamID, &p.LineupSlot,
		&p.Status, &p.InjuryNote, &p.Ownership,
		&p.Goals, &p.Assists, &p.PowerPlayPoints, &p.ShortHandedPoints,
		&p.ShotsOnGoal, &p.Hits, &p.Blocks, &p.PlusMinus,
		&p.TotalPoints, &p.PointsFallback,
		&p.Salary, &p.SalaryValue, &p.ContractYears, &p.LastUpdated,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func collectPlayers(rows pgx.Rows) ([]*models.Player, error) {
	defer rows.Close()

	players := []*models.Player{}
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan player: %w", err)
		}
		players = append(players, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating players: %w", err)
	}
	return players, nil
}

// upsertPlayer writes the current record. Salary fields only fill a player with no stored
// salary; ApplySalaries is the one path that overwrites them. The stored salary is read
// back into p so snapshots carry it.
func upsertPlayer(ctx context.Context, q dbtx, p *models.Player) error {
	query := `
		INSERT INTO players (
			player_id, full_name, position, pro_team, team_id, lineup_slot, status, injury_note,
			ownership, goals, assists, ppp, shp, sog, hits, blocks, plus_minus,
			total_points, points_fallback, salary, salary_value, contract_years, last_updated
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17,
			$18, $19, $20, $21, $22, NOW()
		)
		ON CONFLICT (player_id) DO UPDATE SET
			full_name = EXCLUDED.full_name,
			position = EXCLUDED.position,
			pro_team = EXCLUDED.pro_team,
			team_id = EXCLUDED.team_id,
			lineup_slot = EXCLUDED.lineup_slot,
			status = EXCLUDED.status,
			injury_note = EXCLUDED.injury_note,
			ownership = EXCLUDED.ownership,
			goals = EXCLUDED.goals,
			assists = EXCLUDED.assists,
			ppp = EXCLUDED.ppp,
			shp = EXCLUDED.shp,
			sog = EXCLUDED.sog,
			hits = EXCLUDED.hits,
			blocks = EXCLUDED.blocks,
			plus_minus = EXCLUDED.plus_minus,
			total_points = EXCLUDED.total_points,
			points_fallback = EXCLUDED.points_fallback,
			salary = CASE WHEN players.salary IS NULL THEN EXCLUDED.salary ELSE players.salary END,
			salary_value = CASE WHEN players.salary IS NULL THEN EXCLUDED.salary_value ELSE players.salary_value END,
			contract_years = CASE WHEN players.salary IS NULL THEN EXCLUDED.contract_years ELSE players.contract_years END,
			last_updated = NOW()
		RETURNING salary, salary_value, contract_years, last_updated
	`

	start := time.Now()
	err := q.QueryRow(
		ctx, query,
		p.PlayerID, p.FullName, p.Position, p.ProTeam, p.TeamID, p.LineupSlot,
		p.Status, p.InjuryNote, p.Ownership,
		p.Goals, p.Assists, p.PowerPlayPoints, p.ShortHandedPoints,
		p.ShotsOnGoal, p.Hits, p.Blocks, p.PlusMinus,
		p.TotalPoints, p.PointsFallback,
		p.Salary, p.SalaryValue, p.ContractYears,
	).Scan(&p.Salary, &p.SalaryValue, &p.ContractYears, &p.LastUpdated)
	observe("upsert", "players", start, err)

	if err != nil {
		return fmt.Errorf("failed to upsert player %d: %w", p.PlayerID, err)
	}

	return nil
}

// Upsert inserts or updates a player
func (r *PlayerRepository) Upsert(ctx context.Context, p *models.Player) error {
	return upsertPlayer(ctx, r.db.Pool, p)
}

// GetByPlayerID retrieves a player by league player id
func (r *PlayerRepository) GetByPlayerID(ctx context.Context, playerID int) (*models.Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players WHERE player_id = $1`

	start := time.Now()
	p, err := scanPlayer(r.db.Pool.QueryRow(ctx, query, playerID))
	if errors.Is(err, pgx.ErrNoRows) {
		observe("select", "players", start, nil)
		return nil, fmt.Errorf("player %d: %w", playerID, ErrNotFound)
	}
	observe("select", "players", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to get player: %w", err)
	}

	return p, nil
}

// ListFreeAgents retrieves unassigned players by total points, highest first
func (r *PlayerRepository) ListFreeAgents(ctx context.Context, limit int) ([]*models.Player, error) {
	query := `
		SELECT ` + playerColumns + `
		FROM players
		WHERE team_id IS NULL
		ORDER BY total_points DESC, player_id
		LIMIT $1
	`

	rows, err := r.db.Pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list free agents: %w", err)
	}
	return collectPlayers(rows)
}

// ListRostered retrieves every assigned player by total points, highest first
func (r *PlayerRepository) ListRostered(ctx context.Context) ([]*models.Player, error) {
	query := `
		SELECT ` + playerColumns + `
		FROM players
		WHERE team_id IS NOT NULL
		ORDER BY total_points DESC, player_id
	`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list rostered players: %w", err)
	}
	return collectPlayers(rows)
}

// ListLowestOnTeam retrieves the n lowest-scoring players on one fantasy team
func (r *PlayerRepository) ListLowestOnTeam(ctx context.Context, teamID, n int) ([]*models.Player, error) {
	query := `
		SELECT ` + playerColumns + `
		FROM players
		WHERE team_id = $1
		ORDER BY total_points ASC, player_id
		LIMIT $2
	`

	rows, err := r.db.Pool.Query(ctx, query, teamID, n)
	if err != nil {
		return nil, fmt.Errorf("failed to list players on team %d: %w", teamID, err)
	}
	return collectPlayers(rows)
}

// releaseUnrostered clears the team of every assigned player not in rostered
func releaseUnrostered(ctx context.Context, q dbtx, rostered []int) (int64, error) {
	query := `
		UPDATE players
		SET team_id = NULL, lineup_slot = NULL, last_updated = NOW()
		WHERE team_id IS NOT NULL AND NOT (player_id = ANY($1))
	`

	start := time.Now()
	tag, err := q.Exec(ctx, query, rostered)
	observe("update", "players", start, err)
	if err != nil {
		return 0, fmt.Errorf("failed to release unrostered players: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ApplySalaries sets salary fields on every player whose full name matches a row
// case-insensitively, and on that player's most recent snapshot.
// It returns the number of rows that matched at least one player.
func (r *PlayerRepository) ApplySalaries(ctx context.Context, records []models.SalaryRecord) (int, error) {
	updated := 0

	err := r.db.inTx(ctx, func(tx pgx.Tx) error {
		for _, rec := range records {
			name := strings.TrimSpace(rec.FullName)
			if name == "" {
				continue
			}
			entry := rec.Entry()

			rows, err := tx.Query(ctx, `
				UPDATE players
				SET salary = $2, salary_value = $3, contract_years = $4, last_updated = NOW()
				WHERE lower(full_name) = lower($1)
				RETURNING player_id
			`, name, entry.Display, entry.Value, entry.Years)
			if err != nil {
				return fmt.Errorf("failed to apply salary for %q: %w", name, err)
			}
			ids, err := pgx.CollectRows(rows, pgx.RowTo[int])
			if err != nil {
				return fmt.Errorf("failed to apply salary for %q: %w", name, err)
			}
			if len(ids) == 0 {
				log.Debug().Str("name", name).Msg("No player matches salary row")
				continue
			}

			for _, id := range ids {
				_, err := tx.Exec(ctx, `
					UPDATE player_snapshots
					SET salary = $2, salary_value = $3, contract_years = $4
					WHERE id = (
						SELECT id FROM player_snapshots
						WHERE player_id = $1
						ORDER BY day DESC
						LIMIT 1
					)
				`, id, entry.Display, entry.Value, entry.Years)
				if err != nil {
					return fmt.Errorf("failed to update latest snapshot salary for player %d: %w", id, err)
				}
			}

			updated++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	log.Info().
		Int("rows", len(records)).
		Int("updated", updated).
		Msg("Salary table applied")

	return updated, nil
}

// Count returns the total number of players
func (r *PlayerRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM players`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count players: %w", err)
	}
	return count, nil
}

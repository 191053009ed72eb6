package repository

import (
	"context"
	"fmt"

	"fantasy_nhl/ingestion/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
)

// SyncWriter is the write surface of one sync transaction
type SyncWriter interface {
	UpsertTeam(ctx context.Context, team *models.Team) error
	UpsertTeamSnapshot(ctx context.Context, s *models.TeamSnapshot) error
	UpsertPlayer(ctx context.Context, p *models.Player) error
	UpsertPlayerSnapshot(ctx context.Context, s *models.PlayerSnapshot) error
	ReleaseUnrostered(ctx context.Context, rostered []int) (int64, error)

	// Savepoint runs fn so that its writes are undone if it fails, without
	// aborting the enclosing transaction.
	Savepoint(ctx context.Context, fn func() error) error
}

// SyncStore runs a sync as one all-or-nothing unit
type SyncStore interface {
	RunSync(ctx context.Context, fn func(ctx context.Context, w SyncWriter) error) error
}

// RunSync runs fn inside a single transaction holding the sync advisory lock.
// Everything fn wrote is committed together, or nothing is if fn or the commit fails.
// ErrSyncLocked is returned when another session is already syncing.
func (db *Database) RunSync(ctx context.Context, fn func(ctx context.Context, w SyncWriter) error) error {
	return db.inTx(ctx, func(tx pgx.Tx) error {
		var acquired bool
		if err := tx.QueryRow(ctx, `SELECT pg_try_advisory_xact_lock($1)`, syncLockKey).Scan(&acquired); err != nil {
			return fmt.Errorf("failed to acquire sync lock: %w", err)
		}
		if !acquired {
			return ErrSyncLocked
		}

		log.Debug().Msg("Sync transaction started")
		return fn(ctx, &syncTx{tx: tx})
	})
}

type syncTx struct {
	tx pgx.Tx
}

func (s *syncTx) UpsertTeam(ctx context.Context, team *models.Team) error {
	return upsertTeam(ctx, s.tx, team)
}

func (s *syncTx) UpsertTeamSnapshot(ctx context.Context, snap *models.TeamSnapshot) error {
	return upsertTeamSnapshot(ctx, s.tx, snap)
}

func (s *syncTx) UpsertPlayer(ctx context.Context, p *models.Player) error {
	return upsertPlayer(ctx, s.tx, p)
}

func (s *syncTx) UpsertPlayerSnapshot(ctx context.Context, snap *models.PlayerSnapshot) error {
	return upsertPlayerSnapshot(ctx, s.tx, snap)
}

func (s *syncTx) ReleaseUnrostered(ctx context.Context, rostered []int) (int64, error) {
	return releaseUnrostered(ctx, s.tx, rostered)
}

// Savepoint uses a pseudo nested transaction: pgx issues SAVEPOINT on Begin,
// RELEASE on Commit and ROLLBACK TO on Rollback.
func (s *syncTx) Savepoint(ctx context.Context, fn func() error) error {
	sp, err := s.tx.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to create savepoint: %w", err)
	}

	if err := fn(); err != nil {
		if rbErr := sp.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("failed to roll back savepoint: %v (cause: %w)", rbErr, err)
		}
		return err
	}

	if err := sp.Commit(ctx); err != nil {
		return fmt.Errorf("failed to release savepoint: %w", err)
	}
	return nil
}

// Package reconcile runs the league sync: it gathers the upstream feeds and side
// channels, recomputes fantasy points and writes current records plus one snapshot
// per entity per day in a single transaction.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"fantasy_nhl/ingestion/internal/client"
	"fantasy_nhl/ingestion/internal/events"
	"fantasy_nhl/ingestion/internal/metrics"
	"fantasy_nhl/ingestion/internal/models"
	"fantasy_nhl/ingestion/internal/repository"
	"fantasy_nhl/ingestion/internal/scoring"
	"fantasy_nhl/ingestion/internal/sidechannel"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ErrSyncInProgress is returned when a run is triggered while another is still running
var ErrSyncInProgress = errors.New("sync already in progress")

// Run outcomes
const (
	StatusOK          = "ok"
	StatusUnavailable = "unavailable"
	StatusFailed      = "failed"
	StatusBusy        = "busy"
)

const (
	defaultFreeAgentLimit = 50
	syncType              = "league"
)

// RosterProvider is the primary upstream feed
type RosterProvider interface {
	Connect(ctx context.Context) error
	Teams(ctx context.Context) ([]models.TeamInput, error)
	FreeAgents(ctx context.Context, n int) ([]models.PlayerInput, error)
}

// ScoringSource resolves the live scoring mapping. An empty mapping means fallback scoring.
type ScoringSource interface {
	Resolve(ctx context.Context) models.Scoring
}

type OwnershipSource interface {
	Collect(ctx context.Context) map[int]float64
}

type InjurySource interface {
	Collect(ctx context.Context) map[string]string
}

type SalarySource interface {
	Collect(ctx context.Context) models.SalaryTable
}

// Invalidator drops cached query results after a committed run
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// Publisher announces committed runs
type Publisher interface {
	PublishSyncCompleted(ctx context.Context, event events.SyncCompleted) error
}

// Deps are the collaborators of a Pipeline. Cache, Publisher and Clock are optional.
type Deps struct {
	Roster    RosterProvider
	Scoring   ScoringSource
	Ownership OwnershipSource
	Injuries  InjurySource
	Salaries  SalarySource
	Store     repository.SyncStore
	Cache     Invalidator
	Publisher Publisher
	Clock     clockwork.Clock

	FreeAgentLimit int
}

// Pipeline is the process-wide sync context shared by the scheduler and manual triggers
type Pipeline struct {
	deps Deps
	mu   sync.Mutex
}

// Result summarizes one run
type Result struct {
	RunID    uuid.UUID     `json:"run_id"`
	Status   string        `json:"status"`
	Day      models.Day    `json:"day"`
	Teams    int           `json:"teams"`
	Players  int           `json:"players"`
	Released int64         `json:"released"`
	Skipped  int           `json:"skipped"`
	Degraded []string      `json:"degraded"`
	Duration time.Duration `json:"duration"`
}

// NewPipeline creates a pipeline
func NewPipeline(deps Deps) *Pipeline {
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}
	if deps.FreeAgentLimit <= 0 {
		deps.FreeAgentLimit = defaultFreeAgentLimit
	}
	return &Pipeline{deps: deps}
}

// inputs is everything gathered before the first write
type inputs struct {
	teams      []models.TeamInput
	freeAgents []models.PlayerInput
	scoring    models.Scoring
	ownership  map[int]float64
	injuries   map[string]string
	salaries   models.SalaryTable
	degraded   []string
}

// Run performs one full sync pass. Runs are serialized: a call made while another
// run is active returns ErrSyncInProgress. A connection or primary feed failure
// returns an error wrapping client.ErrUpstreamUnavailable before anything is written.
func (p *Pipeline) Run(ctx context.Context) (Result, error) {
	res := Result{RunID: uuid.New()}

	if !p.mu.TryLock() {
		res.Status = StatusBusy
		metrics.RecordSync(syncType, StatusBusy, 0)
		return res, ErrSyncInProgress
	}
	defer p.mu.Unlock()

	start := p.deps.Clock.Now()
	logger := log.With().Str("run_id", res.RunID.String()).Logger()
	logger.Info().Msg("Starting league sync")

	if err := p.deps.Roster.Connect(ctx); err != nil {
		return p.finish(logger, res, start, StatusUnavailable, err)
	}

	in, err := p.gather(ctx)
	if err != nil {
		return p.finish(logger, res, start, StatusUnavailable, err)
	}
	res.Degraded = in.degraded

	now := p.deps.Clock.Now().UTC()
	res.Day = models.DayOf(now)

	var applied Result
	err = p.deps.Store.RunSync(ctx, func(ctx context.Context, w repository.SyncWriter) error {
		applied = Result{}
		return p.apply(ctx, logger, w, in, now, &applied)
	})
	if errors.Is(err, repository.ErrSyncLocked) {
		return p.finish(logger, res, start, StatusBusy, fmt.Errorf("%w: %v", ErrSyncInProgress, err))
	}
	if err != nil {
		return p.finish(logger, res, start, StatusFailed, fmt.Errorf("sync rolled back: %w", err))
	}

	res.Teams = applied.Teams
	res.Players = applied.Players
	res.Released = applied.Released
	res.Skipped = applied.Skipped

	p.afterCommit(ctx, logger, res, start)

	return p.finish(logger, res, start, StatusOK, nil)
}

// gather fetches every feed concurrently and waits for all of them
func (p *Pipeline) gather(ctx context.Context) (*inputs, error) {
	in := &inputs{}
	var teamsErr, freeAgentsErr error

	var wg sync.WaitGroup
	wg.Add(6)
	go func() {
		defer wg.Done()
		in.teams, teamsErr = p.deps.Roster.Teams(ctx)
	}()
	go func() {
		defer wg.Done()
		in.freeAgents, freeAgentsErr = p.deps.Roster.FreeAgents(ctx, p.deps.FreeAgentLimit)
	}()
	go func() {
		defer wg.Done()
		in.scoring = p.deps.Scoring.Resolve(ctx)
	}()
	go func() {
		defer wg.Done()
		in.ownership = p.deps.Ownership.Collect(ctx)
	}()
	go func() {
		defer wg.Done()
		in.injuries = p.deps.Injuries.Collect(ctx)
	}()
	go func() {
		defer wg.Done()
		in.salaries = p.deps.Salaries.Collect(ctx)
	}()
	wg.Wait()

	if err := errors.Join(teamsErr, freeAgentsErr); err != nil {
		return nil, fmt.Errorf("%w: %v", client.ErrUpstreamUnavailable, err)
	}

	if len(in.scoring) == 0 {
		in.degraded = append(in.degraded, "scoring")
	}
	if len(in.ownership) == 0 {
		in.degraded = append(in.degraded, sidechannel.ChannelOwnership)
	}
	if len(in.injuries) == 0 {
		in.degraded = append(in.degraded, sidechannel.ChannelInjuries)
	}
	if len(in.salaries) == 0 {
		in.degraded = append(in.degraded, sidechannel.ChannelSalaries)
	}

	return in, nil
}

// apply writes the gathered state. Team failures abort the transaction;
// player failures are rolled back to their savepoint and skipped.
func (p *Pipeline) apply(ctx context.Context, logger zerolog.Logger, w repository.SyncWriter, in *inputs, now time.Time, res *Result) error {
	day := models.DayOf(now)

	for i := range in.teams {
		ti := &in.teams[i]
		team := ti.ToTeam()
		pts := scoring.Calculate(ti.Stats, in.scoring)
		team.Points, team.PointsFallback = pts.Total, pts.Fallback
		if pts.Fallback {
			metrics.RecordFallbackScoring("team")
		}

		if err := w.UpsertTeam(ctx, team); err != nil {
			return err
		}
		if err := w.UpsertTeamSnapshot(ctx, &models.TeamSnapshot{
			TeamID:     team.TeamID,
			Day:        day,
			CapturedAt: now,
			Points:     team.Points,
		}); err != nil {
			return err
		}
		res.Teams++
	}

	rostered := make(map[int]bool)
	var rosteredIDs []int
	for i := range in.teams {
		teamID := int32(in.teams[i].TeamID)
		for j := range in.teams[i].Roster {
			pi := &in.teams[i].Roster[j]
			rostered[pi.PlayerID] = true
			rosteredIDs = append(rosteredIDs, pi.PlayerID)
			p.syncPlayer(ctx, logger, w, in, pi, &teamID, day, now, res)
		}
	}

	for i := range in.freeAgents {
		pi := &in.freeAgents[i]
		if rostered[pi.PlayerID] {
			continue
		}
		p.syncPlayer(ctx, logger, w, in, pi, nil, day, now, res)
	}

	if len(rosteredIDs) > 0 {
		released, err := w.ReleaseUnrostered(ctx, rosteredIDs)
		if err != nil {
			return err
		}
		res.Released = released
	}

	return nil
}

// syncPlayer merges the enrichment tables into one player and writes it with its snapshot
func (p *Pipeline) syncPlayer(ctx context.Context, logger zerolog.Logger, w repository.SyncWriter, in *inputs, pi *models.PlayerInput, teamID *int32, day models.Day, now time.Time, res *Result) {
	err := w.Savepoint(ctx, func() error {
		if err := pi.Validate(); err != nil {
			return err
		}

		player := pi.ToPlayer()
		player.TeamID = teamID

		pts := scoring.Calculate(pi.SeasonStats, in.scoring)
		player.TotalPoints, player.PointsFallback = pts.Total, pts.Fallback

		if owned, ok := in.ownership[pi.PlayerID]; ok {
			player.Ownership = owned
		}
		if note, ok := in.injuries[models.NormalizeName(pi.FullName)]; ok {
			player.InjuryNote = &note
		}
		if entry, ok := in.salaries.Lookup(pi.FullName); ok {
			player.ApplySalary(entry)
		}

		if err := w.UpsertPlayer(ctx, player); err != nil {
			return err
		}
		return w.UpsertPlayerSnapshot(ctx, models.NewPlayerSnapshot(player, pi.SeasonStats, day, now))
	})
	if err != nil {
		logger.Error().
			Err(err).
			Int("player_id", pi.PlayerID).
			Str("name", pi.FullName).
			Msg("Skipping player")
		metrics.RecordSkippedPlayer()
		res.Skipped++
		return
	}

	if len(in.scoring) == 0 {
		metrics.RecordFallbackScoring("player")
	}
	res.Players++
}

// afterCommit runs the best-effort follow-ups of a committed run
func (p *Pipeline) afterCommit(ctx context.Context, logger zerolog.Logger, res Result, start time.Time) {
	metrics.UpdateSyncStats(res.Teams, res.Players)

	if p.deps.Cache != nil {
		if err := p.deps.Cache.Invalidate(ctx); err != nil {
			logger.Warn().Err(err).Msg("Failed to invalidate query cache")
		}
	}

	if p.deps.Publisher != nil {
		event := events.SyncCompleted{
			RunID:       res.RunID.String(),
			Day:         res.Day,
			Teams:       res.Teams,
			Players:     res.Players,
			Skipped:     res.Skipped,
			Degraded:    res.Degraded,
			DurationMS:  p.deps.Clock.Since(start).Milliseconds(),
			CompletedAt: p.deps.Clock.Now().UTC(),
		}
		if err := p.deps.Publisher.PublishSyncCompleted(ctx, event); err != nil {
			logger.Warn().Err(err).Msg("Failed to publish sync event")
		}
	}
}

func (p *Pipeline) finish(logger zerolog.Logger, res Result, start time.Time, status string, err error) (Result, error) {
	res.Status = status
	res.Duration = p.deps.Clock.Since(start)

	metricStatus := status
	if status == StatusOK {
		metricStatus = "success"
	}
	metrics.RecordSync(syncType, metricStatus, res.Duration.Seconds())

	if err != nil {
		metrics.RecordError("reconcile", status)
		logger.Error().
			Err(err).
			Str("status", status).
			Dur("duration", res.Duration).
			Msg("League sync did not complete")
		return res, err
	}

	logger.Info().
		Str("day", res.Day.String()).
		Int("teams", res.Teams).
		Int("players", res.Players).
		Int64("released", res.Released).
		Int("skipped", res.Skipped).
		Strs("degraded", res.Degraded).
		Dur("duration", res.Duration).
		Msg("League sync completed")

	return res, nil
}

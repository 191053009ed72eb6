package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fantasy_nhl/ingestion/internal/cache"
	"fantasy_nhl/ingestion/internal/models"
	"fantasy_nhl/ingestion/internal/repository"

	"github.com/rs/zerolog/log"
)

var (
	// ErrNotFound is returned when the requested player or team does not exist
	ErrNotFound = errors.New("not found")

	// ErrUnknownStat is returned for a history stat outside the plottable set
	ErrUnknownStat = errors.New("unknown stat")
)

const (
	DefaultFreeAgentLimit = 50
	tradeSuggestionCount  = 5
)

type TeamReader interface {
	GetByTeamID(ctx context.Context, teamID int) (*models.Team, error)
	ListWithRosters(ctx context.Context) ([]*models.TeamWithRoster, error)
}

type PlayerReader interface {
	GetByPlayerID(ctx context.Context, playerID int) (*models.Player, error)
	ListFreeAgents(ctx context.Context, limit int) ([]*models.Player, error)
	ListLowestOnTeam(ctx context.Context, teamID, n int) ([]*models.Player, error)
}

// TradeSuggestions pairs the best available free agents with a team's weakest players
type TradeSuggestions struct {
	PickupRecommendations []*models.Player `json:"pickup_recommendations"`
	DropCandidates        []*models.Player `json:"drop_candidates"`
}

type SnapshotReader interface {
	PlayerHistory(ctx context.Context, playerID int) ([]*models.PlayerSnapshot, error)
	TeamHistory(ctx context.Context) ([]models.SeriesPoint, error)
	PlayerHistoryByTeam(ctx context.Context, teamID int, stat string) ([]models.SeriesPoint, error)
}

type ScoringSource interface {
	Resolve(ctx context.Context) models.Scoring
}

// Cache stores JSON-encodable results. Get returns cache.ErrMiss for absent keys.
type Cache interface {
	Get(ctx context.Context, key string, v any) error
	Set(ctx context.Context, key string, v any, ttl time.Duration) error
}

// Service is the read-only view over the persisted league state
type Service struct {
	teams     TeamReader
	players   PlayerReader
	snapshots SnapshotReader
	scoring   ScoringSource

	cache Cache
	ttl   time.Duration
}

// NewService creates an uncached query service
func NewService(teams TeamReader, players PlayerReader, snapshots SnapshotReader, scoring ScoringSource) *Service {
	return &Service{
		teams:     teams,
		players:   players,
		snapshots: snapshots,
		scoring:   scoring,
	}
}

// NewServiceFromDatabase wires the service to the repositories of db
func NewServiceFromDatabase(db *repository.Database, scoring ScoringSource) *Service {
	return NewService(db.Teams, db.Players, db.Snapshots, scoring)
}

// WithCache enables result caching for ttl
func (s *Service) WithCache(c Cache, ttl time.Duration) *Service {
	s.cache = c
	s.ttl = ttl
	return s
}

// cached serves key from the cache when possible and otherwise stores the result of load.
// Cache failures fall through to load.
func cached[T any](ctx context.Context, s *Service, key string, load func() (T, error)) (T, error) {
	if s.cache != nil {
		var v T
		err := s.cache.Get(ctx, key, &v)
		if err == nil {
			return v, nil
		}
		if !errors.Is(err, cache.ErrMiss) {
			log.Warn().Err(err).Str("key", key).Msg("Query cache read failed")
		}
	}

	v, err := load()
	if err != nil {
		return v, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, v, s.ttl); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("Query cache write failed")
		}
	}
	return v, nil
}

// ListTeams returns every team ordered by rank with its roster
func (s *Service) ListTeams(ctx context.Context) ([]*models.TeamWithRoster, error) {
	return cached(ctx, s, "teams", func() ([]*models.TeamWithRoster, error) {
		return s.teams.ListWithRosters(ctx)
	})
}

// FreeAgents returns unassigned players by total points descending.
// A non-positive limit uses DefaultFreeAgentLimit.
func (s *Service) FreeAgents(ctx context.Context, limit int) ([]*models.Player, error) {
	if limit <= 0 {
		limit = DefaultFreeAgentLimit
	}
	return cached(ctx, s, fmt.Sprintf("free_agents:%d", limit), func() ([]*models.Player, error) {
		return s.players.ListFreeAgents(ctx, limit)
	})
}

// Player returns the current record of one player or ErrNotFound
func (s *Service) Player(ctx context.Context, id int) (*models.Player, error) {
	return cached(ctx, s, fmt.Sprintf("player:%d", id), func() (*models.Player, error) {
		return s.player(ctx, id)
	})
}

func (s *Service) player(ctx context.Context, id int) (*models.Player, error) {
	p, err := s.players.GetByPlayerID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("player %d: %w", id, ErrNotFound)
	}
	return p, err
}

func (s *Service) teamExists(ctx context.Context, id int) error {
	_, err := s.teams.GetByTeamID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("team %d: %w", id, ErrNotFound)
	}
	return err
}

// PlayerHistory returns a player's snapshots ordered by day ascending.
// An unknown player is ErrNotFound; a known player with no snapshots is an empty list.
func (s *Service) PlayerHistory(ctx context.Context, id int) ([]*models.PlayerSnapshot, error) {
	return cached(ctx, s, fmt.Sprintf("player_history:%d", id), func() ([]*models.PlayerSnapshot, error) {
		if _, err := s.player(ctx, id); err != nil {
			return nil, err
		}
		return s.snapshots.PlayerHistory(ctx, id)
	})
}

// TeamHistory returns team points per day, one column per team
func (s *Service) TeamHistory(ctx context.Context) ([]HistoryRow, error) {
	return cached(ctx, s, "team_history", func() ([]HistoryRow, error) {
		points, err := s.snapshots.TeamHistory(ctx)
		if err != nil {
			return nil, err
		}
		return Pivot(points, "Team %d"), nil
	})
}

// PlayerHistoryByTeam returns one stat per day for the team's players, one column per player
func (s *Service) PlayerHistoryByTeam(ctx context.Context, teamID int, stat string) ([]HistoryRow, error) {
	if !repository.IsSnapshotStat(stat) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStat, stat)
	}

	key := fmt.Sprintf("team_player_history:%d:%s", teamID, stat)
	return cached(ctx, s, key, func() ([]HistoryRow, error) {
		if err := s.teamExists(ctx, teamID); err != nil {
			return nil, err
		}
		points, err := s.snapshots.PlayerHistoryByTeam(ctx, teamID, stat)
		if err != nil {
			return nil, err
		}
		return Pivot(points, "Player %d"), nil
	})
}

// ScoringMapping returns the live scoring mapping. It is never cached.
func (s *Service) ScoringMapping(ctx context.Context) models.Scoring {
	return s.scoring.Resolve(ctx)
}

// TradeSuggestions recommends the top free agents by total points as pickups. When teamID
// is positive, that team's lowest-scoring players are returned as drop candidates;
// otherwise the drop list is empty.
func (s *Service) TradeSuggestions(ctx context.Context, teamID int) (*TradeSuggestions, error) {
	key := fmt.Sprintf("trade_suggestions:%d", teamID)
	return cached(ctx, s, key, func() (*TradeSuggestions, error) {
		pickups, err := s.players.ListFreeAgents(ctx, tradeSuggestionCount)
		if err != nil {
			return nil, err
		}

		out := &TradeSuggestions{PickupRecommendations: pickups, DropCandidates: []*models.Player{}}
		if teamID <= 0 {
			return out, nil
		}

		if err := s.teamExists(ctx, teamID); err != nil {
			return nil, err
		}
		out.DropCandidates, err = s.players.ListLowestOnTeam(ctx, teamID, tradeSuggestionCount)
		if err != nil {
			return nil, err
		}
		return out, nil
	})
}

package query

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"fantasy_nhl/ingestion/internal/cache"
	"fantasy_nhl/ingestion/internal/models"
	"fantasy_nhl/ingestion/internal/repository"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDB struct {
	teams       []*models.TeamWithRoster
	teamIDs     map[int]bool
	players     map[int]*models.Player
	freeAgents  []*models.Player
	onTeam      map[int][]*models.Player
	history     map[int][]*models.PlayerSnapshot
	teamSeries  []models.SeriesPoint
	rosterStats []models.SeriesPoint

	calls     int
	lastLimit int
}

func (f *fakeDB) GetByTeamID(ctx context.Context, id int) (*models.Team, error) {
	f.calls++
	if !f.teamIDs[id] {
		return nil, fmt.Errorf("team %d: %w", id, repository.ErrNotFound)
	}
	return &models.Team{TeamID: id}, nil
}

func (f *fakeDB) ListWithRosters(ctx context.Context) ([]*models.TeamWithRoster, error) {
	f.calls++
	return f.teams, nil
}

func (f *fakeDB) GetByPlayerID(ctx context.Context, id int) (*models.Player, error) {
	f.calls++
	p, ok := f.players[id]
	if !ok {
		return nil, fmt.Errorf("player %d: %w", id, repository.ErrNotFound)
	}
	return p, nil
}

func (f *fakeDB) ListFreeAgents(ctx context.Context, limit int) ([]*models.Player, error) {
	f.calls++
	f.lastLimit = limit
	if len(f.freeAgents) > limit {
		return f.freeAgents[:limit], nil
	}
	return f.freeAgents, nil
}

func (f *fakeDB) ListLowestOnTeam(ctx context.Context, teamID, n int) ([]*models.Player, error) {
	f.calls++
	f.lastLimit = n
	return f.onTeam[teamID], nil
}

func (f *fakeDB) PlayerHistory(ctx context.Context, id int) ([]*models.PlayerSnapshot, error) {
	f.calls++
	return f.history[id], nil
}

func (f *fakeDB) TeamHistory(ctx context.Context) ([]models.SeriesPoint, error) {
	f.calls++
	return f.teamSeries, nil
}

func (f *fakeDB) PlayerHistoryByTeam(ctx context.Context, teamID int, stat string) ([]models.SeriesPoint, error) {
	f.calls++
	return f.rosterStats, nil
}

type staticScoring models.Scoring

func (s staticScoring) Resolve(ctx context.Context) models.Scoring { return models.Scoring(s) }

// memCache is a JSON round-tripping Cache
type memCache struct {
	data map[string][]byte
}

func (c *memCache) Get(ctx context.Context, key string, v any) error {
	b, ok := c.data[key]
	if !ok {
		return cache.ErrMiss
	}
	return json.Unmarshal(b, v)
}

func (c *memCache) Set(ctx context.Context, key string, v any, ttl time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.data[key] = b
	return nil
}

func newTestService(db *fakeDB) *Service {
	return NewService(db, db, db, staticScoring{models.StatGoals: 3})
}

func TestService_PlayerNotFound(t *testing.T) {
	db := &fakeDB{players: map[int]*models.Player{1: {PlayerID: 1, FullName: "A"}}}
	svc := newTestService(db)

	p, err := svc.Player(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "A", p.FullName)

	_, err = svc.Player(context.Background(), 2)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestService_FreeAgentsDefaultLimit(t *testing.T) {
	db := &fakeDB{}
	svc := newTestService(db)

	_, err := svc.FreeAgents(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultFreeAgentLimit, db.lastLimit)

	_, err = svc.FreeAgents(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 10, db.lastLimit)
}

func TestService_PlayerHistoryByTeamRejectsUnknownStat(t *testing.T) {
	db := &fakeDB{}
	svc := newTestService(db)

	_, err := svc.PlayerHistoryByTeam(context.Background(), 1, "full_name")
	assert.ErrorIs(t, err, ErrUnknownStat)
	assert.Zero(t, db.calls, "Unknown stats never reach storage")
}

func TestService_TeamHistoryPivot(t *testing.T) {
	db := &fakeDB{teamSeries: []models.SeriesPoint{
		{EntityID: 1, Name: "Alpha", Day: models.MustParseDay("2025-01-02"), Value: 12},
		{EntityID: 1, Name: "Alpha", Day: models.MustParseDay("2025-01-01"), Value: 10},
		{EntityID: 2, Name: "", Day: models.MustParseDay("2025-01-01"), Value: 4},
	}}
	svc := newTestService(db)

	rows, err := svc.TeamHistory(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "2025-01-01", rows[0].Day.String())
	assert.Equal(t, map[string]float64{"Alpha": 10, "Team 2": 4}, rows[0].Values)
	assert.Equal(t, map[string]float64{"Alpha": 12}, rows[1].Values)
}

func TestService_PlayerHistoryByTeamPivot(t *testing.T) {
	db := &fakeDB{teamIDs: map[int]bool{1: true}, rosterStats: []models.SeriesPoint{
		{EntityID: 97, Name: "Connor McDavid", Day: models.MustParseDay("2025-01-01"), Value: 2},
		{EntityID: 98, Day: models.MustParseDay("2025-01-01"), Value: 1},
	}}
	svc := newTestService(db)

	rows, err := svc.PlayerHistoryByTeam(context.Background(), 1, "goals")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, map[string]float64{"Connor McDavid": 2, "Player 98": 1}, rows[0].Values)
}

func TestService_PlayerHistoryOrder(t *testing.T) {
	db := &fakeDB{players: map[int]*models.Player{5: {PlayerID: 5}}, history: map[int][]*models.PlayerSnapshot{
		5: {
			{PlayerID: 5, Day: models.MustParseDay("2025-01-01"), TotalPoints: 5},
			{PlayerID: 5, Day: models.MustParseDay("2025-01-02"), TotalPoints: 7},
		},
	}}
	svc := newTestService(db)

	history, err := svc.PlayerHistory(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, 5.0, history[0].TotalPoints)
	assert.Equal(t, 7.0, history[1].TotalPoints)
}

func TestService_HistoryNotFound(t *testing.T) {
	db := &fakeDB{players: map[int]*models.Player{}, teamIDs: map[int]bool{}}
	svc := newTestService(db)
	ctx := context.Background()

	_, err := svc.PlayerHistory(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.PlayerHistoryByTeam(ctx, 999, "total_points")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_HistoryOfKnownEntityWithoutSnapshotsIsEmpty(t *testing.T) {
	db := &fakeDB{players: map[int]*models.Player{7: {PlayerID: 7}}, teamIDs: map[int]bool{3: true}}
	svc := newTestService(db)
	ctx := context.Background()

	history, err := svc.PlayerHistory(ctx, 7)
	require.NoError(t, err)
	assert.Empty(t, history)

	rows, err := svc.PlayerHistoryByTeam(ctx, 3, "goals")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestService_TradeSuggestions(t *testing.T) {
	db := &fakeDB{
		teamIDs:    map[int]bool{1: true},
		freeAgents: []*models.Player{{PlayerID: 500}, {PlayerID: 501}},
		onTeam:     map[int][]*models.Player{1: {{PlayerID: 29}}},
	}
	svc := newTestService(db)
	ctx := context.Background()

	all, err := svc.TradeSuggestions(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all.PickupRecommendations, 2)
	assert.Empty(t, all.DropCandidates)

	forTeam, err := svc.TradeSuggestions(ctx, 1)
	require.NoError(t, err)
	require.Len(t, forTeam.DropCandidates, 1)
	assert.Equal(t, 29, forTeam.DropCandidates[0].PlayerID)
	assert.Equal(t, 5, db.lastLimit)

	_, err = svc.TradeSuggestions(ctx, 42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTradeSuggestions_JSON(t *testing.T) {
	data, err := json.Marshal(&TradeSuggestions{PickupRecommendations: []*models.Player{}, DropCandidates: []*models.Player{}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"pickup_recommendations":[],"drop_candidates":[]}`, string(data))
}

func TestPivot_DuplicateNamesKeepSeparateColumns(t *testing.T) {
	day := models.MustParseDay("2025-01-01")
	rows := Pivot([]models.SeriesPoint{
		{EntityID: 10, Name: "Sebastian Aho", Day: day, Value: 3},
		{EntityID: 11, Name: "Sebastian Aho", Day: day, Value: 1},
		{EntityID: 12, Name: "day", Day: day, Value: 2},
	}, "Player %d")

	require.Len(t, rows, 1)
	assert.Equal(t, map[string]float64{
		"Sebastian Aho (10)": 3,
		"Sebastian Aho (11)": 1,
		"day (12)":           2,
	}, rows[0].Values)

	data, err := json.Marshal(rows[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"day":"2025-01-01","Sebastian Aho (10)":3,"Sebastian Aho (11)":1,"day (12)":2}`, string(data))
}

func TestService_ScoringMappingIsLive(t *testing.T) {
	svc := newTestService(&fakeDB{})
	assert.Equal(t, models.Scoring{models.StatGoals: 3}, svc.ScoringMapping(context.Background()))
}

func TestService_CachesResults(t *testing.T) {
	db := &fakeDB{teamSeries: []models.SeriesPoint{
		{EntityID: 1, Name: "Alpha", Day: models.MustParseDay("2025-01-01"), Value: 10},
	}}
	svc := newTestService(db).WithCache(&memCache{data: map[string][]byte{}}, time.Minute)
	ctx := context.Background()

	first, err := svc.TeamHistory(ctx)
	require.NoError(t, err)
	second, err := svc.TeamHistory(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, db.calls, "Second read is served from cache")
	assert.Equal(t, first, second)
}

func TestHistoryRow_JSON(t *testing.T) {
	row := HistoryRow{Day: models.MustParseDay("2025-01-01"), Values: map[string]float64{"Alpha": 10}}

	data, err := json.Marshal(row)
	require.NoError(t, err)
	assert.JSONEq(t, `{"day":"2025-01-01","Alpha":10}`, string(data))

	var decoded HistoryRow
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, row, decoded)
}

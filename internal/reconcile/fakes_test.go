package reconcile

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"fantasy_nhl/ingestion/internal/events"
	"fantasy_nhl/ingestion/internal/models"
	"fantasy_nhl/ingestion/internal/repository"
)

type snapKey struct {
	id  int
	day models.Day
}

type memState struct {
	teams       map[int]models.Team
	players     map[int]models.Player
	playerSnaps map[snapKey]models.PlayerSnapshot
	teamSnaps   map[snapKey]models.TeamSnapshot
}

func newMemState() memState {
	return memState{
		teams:       map[int]models.Team{},
		players:     map[int]models.Player{},
		playerSnaps: map[snapKey]models.PlayerSnapshot{},
		teamSnaps:   map[snapKey]models.TeamSnapshot{},
	}
}

func (s memState) clone() memState {
	return memState{
		teams:       maps.Clone(s.teams),
		players:     maps.Clone(s.players),
		playerSnaps: maps.Clone(s.playerSnaps),
		teamSnaps:   maps.Clone(s.teamSnaps),
	}
}

// memStore is an in-memory repository.SyncStore with transaction and savepoint semantics
type memStore struct {
	mu      sync.Mutex
	state   memState
	commits int

	locked     bool
	failTeam   int
	failPlayer map[int]bool
}

func newMemStore() *memStore {
	return &memStore{state: newMemState(), failPlayer: map[int]bool{}}
}

func (m *memStore) RunSync(ctx context.Context, fn func(ctx context.Context, w repository.SyncWriter) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.locked {
		return repository.ErrSyncLocked
	}

	w := &memWriter{store: m, state: m.state.clone()}
	if err := fn(ctx, w); err != nil {
		return err
	}
	m.state = w.state
	m.commits++
	return nil
}

type memWriter struct {
	store *memStore
	state memState
}

func (w *memWriter) UpsertTeam(ctx context.Context, team *models.Team) error {
	if team.TeamID == w.store.failTeam {
		return fmt.Errorf("write team %d: injected failure", team.TeamID)
	}
	w.state.teams[team.TeamID] = *team
	return nil
}

func (w *memWriter) UpsertTeamSnapshot(ctx context.Context, s *models.TeamSnapshot) error {
	if _, ok := w.state.teams[s.TeamID]; !ok {
		return fmt.Errorf("team %d does not exist", s.TeamID)
	}
	w.state.teamSnaps[snapKey{s.TeamID, s.Day}] = *s
	return nil
}

func (w *memWriter) UpsertPlayer(ctx context.Context, p *models.Player) error {
	if w.store.failPlayer[p.PlayerID] {
		return fmt.Errorf("write player %d: injected failure", p.PlayerID)
	}
	if stored, ok := w.state.players[p.PlayerID]; ok && stored.Salary != nil {
		p.Salary, p.SalaryValue, p.ContractYears = stored.Salary, stored.SalaryValue, stored.ContractYears
	}
	w.state.players[p.PlayerID] = *p
	return nil
}

func (w *memWriter) UpsertPlayerSnapshot(ctx context.Context, s *models.PlayerSnapshot) error {
	if _, ok := w.state.players[s.PlayerID]; !ok {
		return fmt.Errorf("player %d does not exist", s.PlayerID)
	}
	w.state.playerSnaps[snapKey{s.PlayerID, s.Day}] = *s
	return nil
}

func (w *memWriter) ReleaseUnrostered(ctx context.Context, rostered []int) (int64, error) {
	keep := make(map[int]bool, len(rostered))
	for _, id := range rostered {
		keep[id] = true
	}

	var released int64
	for id, p := range w.state.players {
		if p.TeamID != nil && !keep[id] {
			p.TeamID, p.LineupSlot = nil, nil
			w.state.players[id] = p
			released++
		}
	}
	return released, nil
}

func (w *memWriter) Savepoint(ctx context.Context, fn func() error) error {
	saved := w.state.clone()
	if err := fn(); err != nil {
		w.state = saved
		return err
	}
	return nil
}

type fakeRoster struct {
	connectErr    error
	teamsErr      error
	freeAgentsErr error
	teams         []models.TeamInput
	freeAgents    []models.PlayerInput

	// When set, Teams signals entered and waits for release
	entered chan struct{}
	release chan struct{}
}

func (f *fakeRoster) Connect(ctx context.Context) error {
	return f.connectErr
}

func (f *fakeRoster) Teams(ctx context.Context) ([]models.TeamInput, error) {
	if f.entered != nil {
		close(f.entered)
		<-f.release
	}
	return f.teams, f.teamsErr
}

func (f *fakeRoster) FreeAgents(ctx context.Context, n int) ([]models.PlayerInput, error) {
	if f.freeAgentsErr != nil {
		return nil, f.freeAgentsErr
	}
	if len(f.freeAgents) > n {
		return f.freeAgents[:n], nil
	}
	return f.freeAgents, nil
}

type staticScoring models.Scoring

func (s staticScoring) Resolve(ctx context.Context) models.Scoring {
	return models.Scoring(s)
}

type ownershipTable map[int]float64

func (t ownershipTable) Collect(ctx context.Context) map[int]float64 {
	return t
}

type injuryTable map[string]string

func (t injuryTable) Collect(ctx context.Context) map[string]string {
	return t
}

type salaryTable models.SalaryTable

func (t salaryTable) Collect(ctx context.Context) models.SalaryTable {
	return models.SalaryTable(t)
}

type recordingCache struct {
	invalidations int
}

func (c *recordingCache) Invalidate(ctx context.Context) error {
	c.invalidations++
	return nil
}

type recordingPublisher struct {
	events []events.SyncCompleted
}

func (p *recordingPublisher) PublishSyncCompleted(ctx context.Context, event events.SyncCompleted) error {
	p.events = append(p.events, event)
	return nil
}

package models

import (
	"errors"
	"fmt"
	"time"
)

// StatusActive is the health status used when the feed reports none
const StatusActive = "ACTIVE"

// Player is the current-state record of one hockey player
type Player struct {
	PlayerID          int       `db:"player_id" json:"id"`
	FullName          string    `db:"full_name" json:"full_name"`
	Position          string    `db:"position" json:"position"`
	ProTeam           string    `db:"pro_team" json:"pro_team"`
	TeamID            *int32    `db:"team_id" json:"team_id,omitempty"`
	LineupSlot        *string   `db:"lineup_slot" json:"lineup_slot,omitempty"`
	Status            string    `db:"status" json:"status"`
	InjuryNote        *string   `db:"injury_note" json:"injury_note,omitempty"`
	Ownership         float64   `db:"ownership" json:"ownership"`
	Goals             float64   `db:"goals" json:"goals"`
	Assists           float64   `db:"assists" json:"assists"`
	PowerPlayPoints   float64   `db:"ppp" json:"ppp"`
	ShortHandedPoints float64   `db:"shp" json:"shp"`
	ShotsOnGoal       float64   `db:"sog" json:"sog"`
	Hits              float64   `db:"hits" json:"hits"`
	Blocks            float64   `db:"blocks" json:"blocks"`
	PlusMinus         float64   `db:"plus_minus" json:"plus_minus"`
	TotalPoints       float64   `db:"total_points" json:"total_points"`
	PointsFallback    bool      `db:"points_fallback" json:"points_fallback"`
	Salary            *string   `db:"salary" json:"salary,omitempty"`
	SalaryValue       *float64  `db:"salary_value" json:"salary_value,omitempty"`
	ContractYears     *string   `db:"contract_years" json:"contract_years,omitempty"`
	LastUpdated       time.Time `db:"last_updated" json:"last_updated"`
}

// IsFreeAgent reports whether the player has no fantasy team
func (p *Player) IsFreeAgent() bool {
	return p.TeamID == nil
}

// ApplyStats copies the tracked categories from a raw stat line
func (p *Player) ApplyStats(s StatLine) {
	p.Goals = s[StatGoals]
	p.Assists = s[StatAssists]
	p.PowerPlayPoints = s[StatPowerPlayPoints]
	p.ShortHandedPoints = s[StatShortHandedPoints]
	p.ShotsOnGoal = s[StatShotsOnGoal]
	p.Hits = s[StatHits]
	p.Blocks = s[StatBlocks]
	p.PlusMinus = s[StatPlusMinus]
}

// ApplySalary sets the salary fields from a salary table entry
func (p *Player) ApplySalary(e SalaryEntry) {
	p.Salary = ptr(e.Display)
	p.SalaryValue = ptr(e.Value)
	p.ContractYears = ptr(e.Years)
}

// PlayerInput is a player as reported by the upstream league feed
type PlayerInput struct {
	PlayerID     int
	FullName     string
	Position     string
	ProTeam      string
	InjuryStatus string
	LineupSlot   string
	PercentOwned *float64
	SeasonStats  StatLine
}

var (
	errMissingPlayerID   = errors.New("missing player id")
	errMissingPlayerName = errors.New("missing player name")
)

// Validate rejects records that cannot be keyed or matched
func (pi *PlayerInput) Validate() error {
	if pi.PlayerID <= 0 {
		return errMissingPlayerID
	}
	if pi.FullName == "" {
		return fmt.Errorf("player %d: %w", pi.PlayerID, errMissingPlayerName)
	}
	return nil
}

// ToPlayer converts PlayerInput (from API) to Player model.
// Team assignment, enrichment and points are left for the caller.
func (pi *PlayerInput) ToPlayer() *Player {
	player := &Player{
		PlayerID: pi.PlayerID,
		FullName: pi.FullName,
		Position: pi.Position,
		ProTeam:  pi.ProTeam,
		Status:   pi.InjuryStatus,
	}

	if player.Status == "" {
		player.Status = StatusActive
	}
	if pi.LineupSlot != "" {
		player.LineupSlot = ptr(pi.LineupSlot)
	}
	if pi.PercentOwned != nil {
		player.Ownership = *pi.PercentOwned
	}
	player.ApplyStats(pi.SeasonStats)

	return player
}

func ptr[T any](v T) *T {
	return &v
}

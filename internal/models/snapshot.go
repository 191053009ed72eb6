package models

import "time"

// PlayerSnapshot is a player's state captured once per calendar day
type PlayerSnapshot struct {
	ID                int64     `db:"id" json:"id"`
	PlayerID          int       `db:"player_id" json:"player_id"`
	Day               Day       `db:"day" json:"day"`
	CapturedAt        time.Time `db:"captured_at" json:"captured_at"`
	LineupSlot        *string   `db:"lineup_slot" json:"lineup_slot,omitempty"`
	Stats             StatLine  `db:"stats" json:"stats"`
	Goals             float64   `db:"goals" json:"goals"`
	Assists           float64   `db:"assists" json:"assists"`
	PowerPlayPoints   float64   `db:"ppp" json:"ppp"`
	ShortHandedPoints float64   `db:"shp" json:"shp"`
	ShotsOnGoal       float64   `db:"sog" json:"sog"`
	Hits              float64   `db:"hits" json:"hits"`
	Blocks            float64   `db:"blocks" json:"blocks"`
	PlusMinus         float64   `db:"plus_minus" json:"plus_minus"`
	TotalPoints       float64   `db:"total_points" json:"total_points"`
	Salary            *string   `db:"salary" json:"salary,omitempty"`
	SalaryValue       *float64  `db:"salary_value" json:"salary_value,omitempty"`
	ContractYears     *string   `db:"contract_years" json:"contract_years,omitempty"`
}

// NewPlayerSnapshot captures the stored player record for the given day
func NewPlayerSnapshot(p *Player, stats StatLine, day Day, capturedAt time.Time) *PlayerSnapshot {
	return &PlayerSnapshot{
		PlayerID:          p.PlayerID,
		Day:               day,
		CapturedAt:        capturedAt,
		LineupSlot:        p.LineupSlot,
		Stats:             stats,
		Goals:             p.Goals,
		Assists:           p.Assists,
		PowerPlayPoints:   p.PowerPlayPoints,
		ShortHandedPoints: p.ShortHandedPoints,
		ShotsOnGoal:       p.ShotsOnGoal,
		Hits:              p.Hits,
		Blocks:            p.Blocks,
		PlusMinus:         p.PlusMinus,
		TotalPoints:       p.TotalPoints,
		Salary:            p.Salary,
		SalaryValue:       p.SalaryValue,
		ContractYears:     p.ContractYears,
	}
}

// TeamSnapshot is a team's point total captured once per calendar day
type TeamSnapshot struct {
	ID         int64     `db:"id" json:"id"`
	TeamID     int       `db:"team_id" json:"team_id"`
	Day        Day       `db:"day" json:"day"`
	CapturedAt time.Time `db:"captured_at" json:"captured_at"`
	Points     float64   `db:"points" json:"points"`
}

// SeriesPoint is one entity's value on one day, the unit of the history pivots
type SeriesPoint struct {
	EntityID int
	Name     string
	Day      Day
	Value    float64
}

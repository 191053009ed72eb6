package models

import "time"

// Team represents a fantasy team in the league
type Team struct {
	TeamID            int       `db:"team_id" json:"team_id"`
	Name              string    `db:"name" json:"name"`
	Abbrev            *string   `db:"abbrev" json:"abbrev,omitempty"`
	Rank              int       `db:"rank" json:"rank"`
	Wins              int       `db:"wins" json:"wins"`
	Losses            int       `db:"losses" json:"losses"`
	Ties              int       `db:"ties" json:"ties"`
	Points            float64   `db:"points" json:"points"`
	PointsFallback    bool      `db:"points_fallback" json:"points_fallback"`
	Goals             float64   `db:"goals" json:"goals"`
	Assists           float64   `db:"assists" json:"assists"`
	PowerPlayPoints   float64   `db:"ppp" json:"ppp"`
	ShortHandedPoints float64   `db:"shp" json:"shp"`
	ShotsOnGoal       float64   `db:"sog" json:"sog"`
	Hits              float64   `db:"hits" json:"hits"`
	Blocks            float64   `db:"blocks" json:"blocks"`
	PenaltyMinutes    float64   `db:"pim" json:"pim"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// TeamWithRoster is a team together with its currently assigned players
type TeamWithRoster struct {
	*Team
	Players []*Player `json:"players"`
}

// TeamInput is a team as reported by the upstream league feed
type TeamInput struct {
	TeamID int
	Name   string
	Abbrev string
	Rank   int
	Wins   int
	Losses int
	Ties   int
	Stats  StatLine
	Roster []PlayerInput
}

// ToTeam converts TeamInput (from API) to Team model.
// Points are left for the caller to compute.
func (ti *TeamInput) ToTeam() *Team {
	team := &Team{
		TeamID:            ti.TeamID,
		Name:              ti.Name,
		Rank:              ti.Rank,
		Wins:              ti.Wins,
		Losses:            ti.Losses,
		Ties:              ti.Ties,
		Goals:             ti.Stats[StatGoals],
		Assists:           ti.Stats[StatAssists],
		PowerPlayPoints:   ti.Stats[StatPowerPlayPoints],
		ShortHandedPoints: ti.Stats[StatShortHandedPoints],
		ShotsOnGoal:       ti.Stats[StatShotsOnGoal],
		Hits:              ti.Stats[StatHits],
		Blocks:            ti.Stats[StatBlocks],
		PenaltyMinutes:    ti.Stats[StatPenaltyMinutes],
	}

	if ti.Abbrev != "" {
		team.Abbrev = ptr(ti.Abbrev)
	}

	return team
}

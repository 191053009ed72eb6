package models

// StatCode identifies one scoring category in the league's stat vocabulary
type StatCode string

const (
	StatGoals              StatCode = "G"
	StatAssists            StatCode = "A"
	StatPlusMinus          StatCode = "+/-"
	StatPenaltyMinutes     StatCode = "PIM"
	StatPowerPlayGoals     StatCode = "PPG"
	StatPowerPlayAssists   StatCode = "PPA"
	StatShortHandedGoals   StatCode = "SHG"
	StatShortHandedAssists StatCode = "SHA"
	StatGameWinningGoals   StatCode = "GWG"
	StatShotsOnGoal        StatCode = "SOG"
	StatHits               StatCode = "HIT"
	StatBlocks             StatCode = "BLK"
	StatPowerPlayPoints    StatCode = "PPP"
	StatShortHandedPoints  StatCode = "SHP"
	StatWins               StatCode = "W"
	StatLosses             StatCode = "L"
	StatSaves              StatCode = "SV"
	StatShutouts           StatCode = "SO"
	StatOvertimeLosses     StatCode = "OTL"
)

// StatCodeByID maps ESPN numeric stat identifiers to stat codes.
// Identifiers outside this table are not part of the known vocabulary and are ignored.
var StatCodeByID = map[int]StatCode{
	13: StatGoals,
	14: StatAssists,
	15: StatPlusMinus,
	17: StatPenaltyMinutes,
	18: StatPowerPlayGoals,
	19: StatPowerPlayAssists,
	20: StatShortHandedGoals,
	21: StatShortHandedAssists,
	22: StatGameWinningGoals,
	29: StatShotsOnGoal,
	31: StatHits,
	32: StatBlocks,
	38: StatPowerPlayPoints,
	39: StatShortHandedPoints,
	1:  StatWins,
	2:  StatLosses,
	6:  StatSaves,
	7:  StatShutouts,
	9:  StatOvertimeLosses,
}

// StatLine holds raw per-category counts for a player or team
type StatLine map[StatCode]float64

// Scoring maps a stat code to the fantasy points awarded per unit
type Scoring map[StatCode]float64

// ScoringItem is one decoded entry of the league's scoring settings
type ScoringItem struct {
	StatID int     `json:"statId"`
	Points float64 `json:"points"`
}

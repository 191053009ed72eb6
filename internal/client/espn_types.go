package client

import (
	"fmt"
	"strconv"

	"fantasy_nhl/ingestion/internal/models"
)

// leagueResponse is the subset of the league document used by the sync.
// Which parts are populated depends on the requested views.
type leagueResponse struct {
	Settings *struct {
		ScoringSettings struct {
			ScoringItems []models.ScoringItem `json:"scoringItems"`
		} `json:"scoringSettings"`
	} `json:"settings"`
	Teams []espnTeam `json:"teams"`
}

type playersResponse struct {
	Players []espnPoolEntry `json:"players"`
}

type espnTeam struct {
	ID                    int                `json:"id"`
	Name                  string             `json:"name"`
	Location              string             `json:"location"`
	Nickname              string             `json:"nickname"`
	Abbrev                string             `json:"abbrev"`
	PlayoffSeed           int                `json:"playoffSeed"`
	RankCalculatedFinal   int                `json:"rankCalculatedFinal"`
	CurrentProjectedRank  int                `json:"currentProjectedRank"`
	DraftDayProjectedRank int                `json:"draftDayProjectedRank"`
	Record                espnRecordSet      `json:"record"`
	ValuesByStat          map[string]float64 `json:"valuesByStat"`
	Roster                struct {
		Entries []espnRosterEntry `json:"entries"`
	} `json:"roster"`
}

type espnRecordSet struct {
	Overall espnRecord `json:"overall"`
}

type espnRecord struct {
	Wins   int `json:"wins"`
	Losses int `json:"losses"`
	Ties   int `json:"ties"`
}

type espnRosterEntry struct {
	PlayerID        int           `json:"playerId"`
	LineupSlotID    int           `json:"lineupSlotId"`
	PlayerPoolEntry espnPoolEntry `json:"playerPoolEntry"`
}

type espnPoolEntry struct {
	ID       int        `json:"id"`
	OnTeamID int        `json:"onTeamId"`
	Player   espnPlayer `json:"player"`
}

type espnPlayer struct {
	ID                int            `json:"id"`
	FullName          string         `json:"fullName"`
	FirstName         string         `json:"firstName"`
	LastName          string         `json:"lastName"`
	DefaultPositionID int            `json:"defaultPositionId"`
	ProTeamID         int            `json:"proTeamId"`
	InjuryStatus      string         `json:"injuryStatus"`
	Injured           bool           `json:"injured"`
	Ownership         *espnOwnership `json:"ownership"`
	Stats             []espnStatSet  `json:"stats"`
}

type espnOwnership struct {
	PercentOwned float64 `json:"percentOwned"`
}

type espnStatSet struct {
	ID              string             `json:"id"`
	SeasonID        int                `json:"seasonId"`
	StatSourceID    int                `json:"statSourceId"`
	StatSplitTypeID int                `json:"statSplitTypeId"`
	Stats           map[string]float64 `json:"stats"`
}

func (t espnTeam) toInput(season int) models.TeamInput {
	name, _, _ := firstMatch(t, teamNameCandidates)
	if name == "" {
		name = fmt.Sprintf("Team %d", t.ID)
	}
	rank, _, _ := firstMatch(t, teamRankCandidates)
	record, _, _ := firstMatch(t, teamRecordCandidates)

	input := models.TeamInput{
		TeamID: t.ID,
		Name:   name,
		Abbrev: t.Abbrev,
		Rank:   rank,
		Wins:   record.Wins,
		Losses: record.Losses,
		Ties:   record.Ties,
		Stats:  decodeStats(t.ValuesByStat),
		Roster: make([]models.PlayerInput, 0, len(t.Roster.Entries)),
	}

	for _, entry := range t.Roster.Entries {
		p := entry.PlayerPoolEntry.Player
		if p.ID == 0 {
			p.ID = entry.PlayerID
		}
		input.Roster = append(input.Roster, p.toInput(season, lineupSlotName(entry.LineupSlotID)))
	}

	return input
}

func (p espnPlayer) toInput(season int, lineupSlot string) models.PlayerInput {
	name, _, _ := firstMatch(p, playerNameCandidates)
	totals, _, _ := firstMatch(p, seasonTotalsCandidates(season))

	input := models.PlayerInput{
		PlayerID:     p.ID,
		FullName:     name,
		Position:     positionName(p.DefaultPositionID),
		ProTeam:      proTeamAbbrev(p.ProTeamID),
		InjuryStatus: p.InjuryStatus,
		LineupSlot:   lineupSlot,
		SeasonStats:  decodeStats(totals),
	}
	if p.Ownership != nil {
		owned := p.Ownership.PercentOwned
		input.PercentOwned = &owned
	}

	return input
}

// decodeStats converts a stat-id keyed map into a stat line, dropping unknown ids
func decodeStats(raw map[string]float64) models.StatLine {
	line := make(models.StatLine, len(raw))
	for key, value := range raw {
		id, err := strconv.Atoi(key)
		if err != nil {
			continue
		}
		if code, ok := models.StatCodeByID[id]; ok {
			line[code] = value
		}
	}
	return line
}

func positionName(id int) string {
	if name, ok := positionNames[id]; ok {
		return name
	}
	return strconv.Itoa(id)
}

func lineupSlotName(id int) string {
	if name, ok := lineupSlotNames[id]; ok {
		return name
	}
	return strconv.Itoa(id)
}

func proTeamAbbrev(id int) string {
	if abbrev, ok := proTeamAbbrevs[id]; ok {
		return abbrev
	}
	return "FA"
}

var positionNames = map[int]string{
	1: "C",
	2: "LW",
	3: "RW",
	4: "D",
	5: "G",
}

var lineupSlotNames = map[int]string{
	0: "C",
	1: "LW",
	2: "RW",
	3: "F",
	4: "D",
	5: "G",
	6: "UTIL",
	7: "BE",
	8: "IR",
}

var proTeamAbbrevs = map[int]string{
	1:      "BOS",
	2:      "BUF",
	3:      "CGY",
	4:      "CHI",
	5:      "DET",
	6:      "EDM",
	7:      "CAR",
	8:      "LA",
	9:      "DAL",
	10:     "MTL",
	11:     "NJ",
	12:     "NYI",
	13:     "NYR",
	14:     "OTT",
	15:     "PHI",
	16:     "PIT",
	17:     "COL",
	18:     "SJ",
	19:     "STL",
	20:     "TB",
	21:     "TOR",
	22:     "VAN",
	23:     "WSH",
	24:     "ARI",
	25:     "ANA",
	26:     "FLA",
	27:     "NSH",
	28:     "WPG",
	29:     "CBJ",
	30:     "MIN",
	37:     "VGK",
	124292: "SEA",
	129764: "UTA",
}

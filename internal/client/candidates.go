package client

import (
	"fmt"
	"strings"

	"fantasy_nhl/ingestion/internal/models"
)

// fieldCandidate is one named place where a logical value may be found in an upstream record.
// The feed has renamed and moved fields between seasons, so each logical value has an
// ordered candidate list that is evaluated first-match.
type fieldCandidate[S, V any] struct {
	field string
	get   func(S) (V, bool)
}

// firstMatch returns the value of the first candidate present in src and the field it came from
func firstMatch[S, V any](src S, candidates []fieldCandidate[S, V]) (V, string, bool) {
	for _, c := range candidates {
		if v, ok := c.get(src); ok {
			return v, c.field, true
		}
	}
	var zero V
	return zero, "", false
}

// teamNameCandidates: newer payloads carry "name", older ones split it into location + nickname.
var teamNameCandidates = []fieldCandidate[espnTeam, string]{
	{"name", func(t espnTeam) (string, bool) {
		return strings.TrimSpace(t.Name), strings.TrimSpace(t.Name) != ""
	}},
	{"location+nickname", func(t espnTeam) (string, bool) {
		n := strings.TrimSpace(t.Location + " " + t.Nickname)
		return n, n != ""
	}},
	{"abbrev", func(t espnTeam) (string, bool) {
		return t.Abbrev, t.Abbrev != ""
	}},
}

// teamRankCandidates: final rank once the season is decided, then the live playoff seed.
var teamRankCandidates = []fieldCandidate[espnTeam, int]{
	{"rankCalculatedFinal", func(t espnTeam) (int, bool) { return t.RankCalculatedFinal, t.RankCalculatedFinal > 0 }},
	{"playoffSeed", func(t espnTeam) (int, bool) { return t.PlayoffSeed, t.PlayoffSeed > 0 }},
	{"currentProjectedRank", func(t espnTeam) (int, bool) { return t.CurrentProjectedRank, t.CurrentProjectedRank > 0 }},
	{"draftDayProjectedRank", func(t espnTeam) (int, bool) { return t.DraftDayProjectedRank, t.DraftDayProjectedRank > 0 }},
}

// teamRecordCandidates: the standings record, else W/L/OTL from the team's cumulative stats.
var teamRecordCandidates = []fieldCandidate[espnTeam, espnRecord]{
	{"record.overall", func(t espnTeam) (espnRecord, bool) {
		r := t.Record.Overall
		return r, r.Wins+r.Losses+r.Ties > 0
	}},
	{"valuesByStat", func(t espnTeam) (espnRecord, bool) {
		stats := decodeStats(t.ValuesByStat)
		r := espnRecord{
			Wins:   int(stats[models.StatWins]),
			Losses: int(stats[models.StatLosses]),
			Ties:   int(stats[models.StatOvertimeLosses]),
		}
		return r, r.Wins+r.Losses+r.Ties > 0
	}},
}

var playerNameCandidates = []fieldCandidate[espnPlayer, string]{
	{"fullName", func(p espnPlayer) (string, bool) {
		n := strings.TrimSpace(p.FullName)
		return n, n != ""
	}},
	{"firstName+lastName", func(p espnPlayer) (string, bool) {
		n := strings.TrimSpace(p.FirstName + " " + p.LastName)
		return n, n != ""
	}},
}

// seasonTotalsCandidates locates a player's actual (not projected) full-season totals.
// statSourceId 0 is actual, statSplitTypeId 0 is the season split.
func seasonTotalsCandidates(season int) []fieldCandidate[espnPlayer, map[string]float64] {
	seasonSetID := fmt.Sprintf("00%d", season)

	find := func(p espnPlayer, match func(espnStatSet) bool) (map[string]float64, bool) {
		for _, s := range p.Stats {
			if match(s) {
				return s.Stats, true
			}
		}
		return nil, false
	}

	return []fieldCandidate[espnPlayer, map[string]float64]{
		{"stats[seasonId,source=0,split=0]", func(p espnPlayer) (map[string]float64, bool) {
			return find(p, func(s espnStatSet) bool {
				return s.SeasonID == season && s.StatSourceID == 0 && s.StatSplitTypeID == 0
			})
		}},
		{"stats[id=00<season>]", func(p espnPlayer) (map[string]float64, bool) {
			return find(p, func(s espnStatSet) bool { return s.ID == seasonSetID })
		}},
	}
}

// Package scoring turns league scoring settings and raw stat counts into fantasy points.
package scoring

import (
	"maps"
	"slices"

	"fantasy_nhl/ingestion/internal/models"
)

// Result is a computed point total.
// Fallback is set when no scoring weights were available and the total is goals + assists.
type Result struct {
	Total    float64
	Fallback bool
}

// Calculate sums raw[code] * weight over every code in the scoring mapping.
// Categories are summed independently, so a power-play goal contributes to both G and PPP
// when both are weighted. Missing raw counts are zero.
//
// With an empty mapping the total degrades to goals + assists and Result.Fallback is set.
func Calculate(raw models.StatLine, s models.Scoring) Result {
	if len(s) == 0 {
		return Result{
			Total:    raw[models.StatGoals] + raw[models.StatAssists],
			Fallback: true,
		}
	}

	// fixed summation order keeps float totals identical across runs
	var total float64
	for _, code := range slices.Sorted(maps.Keys(s)) {
		total += raw[code] * s[code]
	}

	return Result{Total: total}
}

package scoring

import (
	"context"

	"fantasy_nhl/ingestion/internal/metrics"
	"fantasy_nhl/ingestion/internal/models"

	"github.com/rs/zerolog/log"
)

// SettingsFetcher supplies the league's raw scoring settings
type SettingsFetcher interface {
	ScoringItems(ctx context.Context) ([]models.ScoringItem, error)
}

// Resolver fetches the live scoring mapping. Nothing is cached between calls.
type Resolver struct {
	fetcher SettingsFetcher
}

// NewResolver creates a resolver backed by the given settings source
func NewResolver(fetcher SettingsFetcher) *Resolver {
	return &Resolver{fetcher: fetcher}
}

// Resolve returns the current scoring mapping.
// Any fetch or decode failure yields an empty mapping, which callers treat as the fallback mode.
func (r *Resolver) Resolve(ctx context.Context) models.Scoring {
	items, err := r.fetcher.ScoringItems(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to resolve scoring settings, using fallback scoring")
		metrics.RecordDegraded("scoring")
		return models.Scoring{}
	}

	s := FromItems(items)
	if len(s) == 0 {
		log.Warn().Int("items", len(items)).Msg("Scoring settings contained no usable weights")
		metrics.RecordDegraded("scoring")
	}

	return s
}

// FromItems keeps the non-zero weights whose stat identifiers are in the known vocabulary
func FromItems(items []models.ScoringItem) models.Scoring {
	s := make(models.Scoring, len(items))
	for _, item := range items {
		code, ok := models.StatCodeByID[item.StatID]
		if !ok || item.Points == 0 {
			continue
		}
		s[code] = item.Points
	}
	return s
}

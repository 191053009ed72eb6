package sidechannel

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// OwnershipFetcher issues the bulk percent-owned request
type OwnershipFetcher interface {
	OwnershipEntries(ctx context.Context, limit int) (map[int]float64, error)
}

// OwnershipCollector builds the player id -> percent owned table
type OwnershipCollector struct {
	fetcher OwnershipFetcher
	limit   int
	timeout time.Duration
}

// NewOwnershipCollector creates an ownership collector
func NewOwnershipCollector(fetcher OwnershipFetcher, limit int, timeout time.Duration) *OwnershipCollector {
	return &OwnershipCollector{fetcher: fetcher, limit: limit, timeout: timeout}
}

// Collect returns percent owned (0-100) keyed by player id, or an empty map on failure
func (c *OwnershipCollector) Collect(ctx context.Context) map[int]float64 {
	start := time.Now()
	ctx, cancel := withTimeout(ctx, c.timeout)
	defer cancel()

	owned, err := c.fetcher.OwnershipEntries(ctx, c.limit)
	if err != nil {
		degrade(ChannelOwnership, err, time.Since(start))
		return map[int]float64{}
	}

	log.Debug().Int("count", len(owned)).Msg("Ownership collected")
	return owned
}

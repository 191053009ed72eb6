// Package sidechannel collects best-effort enrichment tables for the league sync.
//
// Each collector makes a single bounded request and returns a plain lookup table.
// Failures are logged and reported as degraded; the collector then returns an empty
// table so the primary sync can continue.
package sidechannel

import (
	"context"
	"time"

	"fantasy_nhl/ingestion/internal/metrics"

	"github.com/rs/zerolog/log"
)

const (
	ChannelOwnership = "ownership"
	ChannelInjuries  = "injuries"
	ChannelSalaries  = "salaries"
)

// degrade logs a collector failure and records it
func degrade(channel string, err error, elapsed time.Duration) {
	log.Warn().
		Err(err).
		Str("channel", channel).
		Dur("elapsed", elapsed).
		Msg("Side channel unavailable, continuing with empty table")
	metrics.RecordDegraded(channel)
}

// withTimeout bounds a collector call. A zero timeout leaves ctx unchanged.
func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

package events

import (
	"context"
	"fmt"
	"time"

	"fantasy_nhl/ingestion/internal/models"

	json "github.com/goccy/go-json"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// EventTypeSyncCompleted is the type header of a committed sync notification
const EventTypeSyncCompleted = "sync.completed"

// SyncCompleted announces a committed sync run
type SyncCompleted struct {
	RunID       string     `json:"runId"`
	Day         models.Day `json:"day"`
	Teams       int        `json:"teams"`
	Players     int        `json:"players"`
	Skipped     int        `json:"skipped"`
	Degraded    []string   `json:"degraded"`
	DurationMS  int64      `json:"durationMs"`
	CompletedAt time.Time  `json:"completedAt"`
}

// Config holds NATS connection settings
type Config struct {
	URL           string
	Subject       string
	MaxReconnects int
	ReconnectWait time.Duration
	FlushTimeout  time.Duration
}

const defaultFlushTimeout = 5 * time.Second

// NATSPublisher publishes sync events on a core NATS subject
type NATSPublisher struct {
	nc           *nats.Conn
	subject      string
	flushTimeout time.Duration
}

// NewNATSPublisher connects to NATS
func NewNATSPublisher(cfg Config) (*NATSPublisher, error) {
	if cfg.MaxReconnects == 0 {
		cfg.MaxReconnects = -1
	}
	if cfg.ReconnectWait == 0 {
		cfg.ReconnectWait = 2 * time.Second
	}
	if cfg.FlushTimeout <= 0 {
		cfg.FlushTimeout = defaultFlushTimeout
	}

	opts := []nats.Option{
		nats.Name("fantasy-nhl-sync"),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	return &NATSPublisher{nc: nc, subject: cfg.Subject, flushTimeout: cfg.FlushTimeout}, nil
}

// PublishSyncCompleted publishes the event and flushes it to the server
func (p *NATSPublisher) PublishSyncCompleted(ctx context.Context, event SyncCompleted) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := &nats.Msg{
		Subject: p.subject,
		Data:    data,
		Header: nats.Header{
			"Event-Type": []string{EventTypeSyncCompleted},
			"Run-ID":     []string{event.RunID},
		},
	}
	if err := p.nc.PublishMsg(msg); err != nil {
		return fmt.Errorf("publish to NATS: %w", err)
	}
	flushCtx, cancel := flushContext(ctx, p.flushTimeout)
	defer cancel()
	if err := p.nc.FlushWithContext(flushCtx); err != nil {
		return fmt.Errorf("flush NATS: %w", err)
	}

	log.Debug().
		Str("subject", p.subject).
		Str("run_id", event.RunID).
		Msg("Published sync event")

	return nil
}

// flushContext bounds a flush by timeout. nats.Conn.FlushWithContext rejects contexts
// without a deadline; an earlier deadline on ctx still applies.
func flushContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = defaultFlushTimeout
	}
	return context.WithTimeout(ctx, timeout)
}

// Close drains the connection
func (p *NATSPublisher) Close() error {
	if p.nc != nil {
		return p.nc.Drain()
	}
	return nil
}

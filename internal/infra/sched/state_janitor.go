package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Purger deletes expired client-state rows.
type Purger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// StateJanitor periodically drops expired pending intents from stores that
// do not expire keys on their own (Postgres).
type StateJanitor struct {
	interval time.Duration
	purger   Purger
	log      *zerolog.Logger
}

func NewStateJanitor(interval time.Duration, purger Purger, logger *zerolog.Logger) *StateJanitor {
	if interval <= 0 {
		interval = time.Hour
	}
	l := logger.With().Str("component", "StateJanitor").Logger()
	return &StateJanitor{interval: interval, purger: purger, log: &l}
}

func (w *StateJanitor) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("Starting state janitor")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping state janitor")
			return ctx.Err()
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *StateJanitor) tick(ctx context.Context) {
	n, err := w.purger.PurgeExpired(ctx)
	if err != nil {
		w.log.Error().Err(err).Msg("state janitor purge failed")
		return
	}
	if n > 0 {
		w.log.Info().Int64("count", n).Msg("expired client state purged")
	}
}

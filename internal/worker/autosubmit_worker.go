package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

const autoSubmitBatch int64 = 100

// DueFinisher submits timed sessions whose deadline has passed.
type DueFinisher interface {
	FinishDue(ctx context.Context, limit int64) (int, error)
}

// AutoSubmitWorker is the fail-safe for timed exams: a session nobody touches after its
// deadline is still submitted.
type AutoSubmitWorker struct {
	sessions DueFinisher
	interval time.Duration
	log      zerolog.Logger
}

func NewAutoSubmitWorker(sessions DueFinisher, interval time.Duration, log zerolog.Logger) *AutoSubmitWorker {
	return &AutoSubmitWorker{
		sessions: sessions,
		interval: interval,
		log:      log.With().Str("component", "autosubmit_worker").Logger(),
	}
}

func (w *AutoSubmitWorker) Start(ctx context.Context) {
	w.log.Info().Dur("interval", w.interval).Msg("AutoSubmitWorker started")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("AutoSubmitWorker stopped")
			return
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

// tick keeps draining while full batches come back.
func (w *AutoSubmitWorker) tick(ctx context.Context) {
	for ctx.Err() == nil {
		n, err := w.sessions.FinishDue(ctx, autoSubmitBatch)
		if err != nil {
			w.log.Error().Err(err).Msg("auto-submit pass failed")
			return
		}
		if n > 0 {
			w.log.Info().Int("count", n).Msg("Auto-submitted expired sessions")
		}
		if int64(n) < autoSubmitBatch {
			return
		}
	}
}

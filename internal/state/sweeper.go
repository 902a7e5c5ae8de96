package state

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/streamchannel/sequencer/internal/metrics"
)

// Sweeper periodically prunes channels that expired without ever being
// settled past sequence 0, or that have already been finalized on-chain,
// keeping both the in-memory map and the store from growing unbounded.
type Sweeper struct {
	manager  *Manager
	store    Store
	interval time.Duration
	log      *zap.Logger
}

// NewSweeper constructs a Sweeper that prunes every interval.
func NewSweeper(manager *Manager, store Store, interval time.Duration, log *zap.Logger) *Sweeper {
	if log == nil {
		log = zap.NewNop()
	}
	return &Sweeper{manager: manager, store: store, interval: interval, log: log}
}

// Run blocks, sweeping on every tick until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweepOnce(ctx)
		}
	}
}

func (s *Sweeper) sweepOnce(ctx context.Context) {
	cutoff := time.Now().Unix()
	ids, err := s.store.FindExpiredBefore(ctx, cutoff)
	if err != nil {
		s.log.Warn("sweeper: FindExpiredBefore failed", zap.Error(err))
		return
	}
	for _, id := range ids {
		s.manager.evict(id)
		if err := s.store.Delete(ctx, id); err != nil {
			s.log.Warn("sweeper: delete failed", zap.Error(err))
			continue
		}
		metrics.ChannelsPrunedTotal.Inc()
	}
	if len(ids) > 0 {
		s.log.Info("sweeper: pruned expired channels", zap.Int("count", len(ids)))
	}
}

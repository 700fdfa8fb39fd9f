package pattern

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Sweeper periodically evicts aged records from an Index. The inline
// maintenance sweep only fires for keys that cross the per-key threshold, so
// a scheduled global sweep is what actually bounds memory for quiet keys.
type Sweeper struct {
	index     *Index
	interval  time.Duration
	retention time.Duration
	logger    *zap.Logger
}

func NewSweeper(index *Index, interval, retention time.Duration, logger *zap.Logger) *Sweeper {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if retention <= 0 {
		retention = maintenanceRetention
	}
	return &Sweeper{
		index:     index,
		interval:  interval,
		retention: retention,
		logger:    logger,
	}
}

// Sweep runs one eviction pass.
func (s *Sweeper) Sweep() {
	s.index.EvictOlderThan(s.retention)
	s.logger.Debug("pattern index swept", zap.Int("keys", s.index.Keys()))
}

// Run blocks until ctx is cancelled, sweeping once per interval.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

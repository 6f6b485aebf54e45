package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/BrandonDHaskell/Portunus/gate/internal/portunus/store"
)

// PruneTarget names one log for the pruner's log lines.
type PruneTarget struct {
	Name  string
	Store store.Prunable
}

// RetentionPruner periodically deletes access records and audit attempts
// older than a configurable retention period.  It runs as a background
// goroutine and is safe to stop via its context or the Stop method.
//
// A retention of 0 disables pruning entirely.
type RetentionPruner struct {
	targets   []PruneTarget
	retention time.Duration
	interval  time.Duration
	logger    *zap.Logger
	now       func() time.Time
	cancel    context.CancelFunc
	done      chan struct{}
}

// PrunerConfig holds the parameters for NewRetentionPruner.
type PrunerConfig struct {
	// RetentionDays is how many days of history to keep.
	// 0 means keep everything (pruner will not start).
	RetentionDays int

	// IntervalHours is how often the pruner runs.  Defaults to 6.
	IntervalHours int
}

// NewRetentionPruner creates a pruner but does not start it.
// Call Start to begin the background loop.
func NewRetentionPruner(cfg PrunerConfig, logger *zap.Logger, targets ...PruneTarget) *RetentionPruner {
	interval := time.Duration(cfg.IntervalHours) * time.Hour
	if interval <= 0 {
		interval = 6 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &RetentionPruner{
		targets:   targets,
		retention: time.Duration(cfg.RetentionDays) * 24 * time.Hour,
		interval:  interval,
		logger:    logger,
		now:       time.Now,
		done:      make(chan struct{}),
	}
}

// Start begins the background pruning loop.  It runs an immediate prune
// on startup, then repeats on the configured interval.  The loop exits
// when ctx is cancelled or Stop is called.
func (p *RetentionPruner) Start(ctx context.Context) {
	if p.retention <= 0 {
		p.logger.Info("retention pruner disabled (retention=0)")
		close(p.done)
		return
	}

	ctx, p.cancel = context.WithCancel(ctx)

	go p.loop(ctx)

	p.logger.Info("retention pruner started",
		zap.Int("retention_days", int(p.retention.Hours()/24)),
		zap.Duration("interval", p.interval))
}

// Stop signals the pruner to exit and waits for it to finish.
func (p *RetentionPruner) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	<-p.done
}

// PruneOnce runs a single pass over every target and returns the total
// number of rows deleted.  Errors are logged per target.
func (p *RetentionPruner) PruneOnce(ctx context.Context) int64 {
	if p.retention <= 0 {
		return 0
	}
	cutoff := p.now().UTC().Add(-p.retention)

	var total int64
	for _, t := range p.targets {
		deleted, err := t.Store.PruneOlderThan(ctx, cutoff)
		if err != nil {
			p.logger.Error("retention prune failed", zap.String("target", t.Name), zap.Error(err))
			continue
		}
		if deleted > 0 {
			p.logger.Info("retention prune",
				zap.String("target", t.Name),
				zap.Int64("deleted", deleted),
				zap.Time("cutoff", cutoff))
		}
		total += deleted
	}
	return total
}

func (p *RetentionPruner) loop(ctx context.Context) {
	defer close(p.done)

	// Run immediately on startup to clean up any backlog.
	p.PruneOnce(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.PruneOnce(ctx)
		}
	}
}

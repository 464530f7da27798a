package jobs

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

type TrendPruner interface {
	DeleteTrendsOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Retention deletes trend items captured more than maxAge ago.
type Retention struct {
	trends TrendPruner
	maxAge time.Duration
	logger *zap.Logger
	now    func() time.Time
}

func NewRetention(trends TrendPruner, maxAge time.Duration, logger *zap.Logger) *Retention {
	return &Retention{
		trends: trends,
		maxAge: maxAge,
		logger: logger,
		now:    time.Now,
	}
}

func (r *Retention) Run(ctx context.Context) error {
	cutoff := r.now().UTC().Add(-r.maxAge)
	deleted, err := r.trends.DeleteTrendsOlderThan(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("delete trends older than %s: %w", cutoff.Format(time.RFC3339), err)
	}
	r.logger.Info("deleted old trends", zap.Int64("count", deleted), zap.Time("cutoff", cutoff))
	return nil
}

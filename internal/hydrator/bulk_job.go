package hydrator

import (
	"context"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/HAAN6892/real-estate-monitor/internal/wishlist"
)

type Rehydrator interface {
	Pending(ctx context.Context, limit int) ([]wishlist.Item, error)
	Rehydrate(ctx context.Context, it wishlist.Item) (wishlist.Item, bool, error)
}

type RehydrateConfig struct {
	Interval  time.Duration
	Pause     time.Duration
	BatchSize int
}

// RehydrateJob periodically re-resolves pending wishlist items, one at a
// time with a pause in between.
type RehydrateJob struct {
	Wishlist Rehydrator
	Logger   *zap.Logger
	Config   RehydrateConfig
}

func (j *RehydrateJob) validate() error {
	if j == nil {
		return errors.New("nil rehydrate job")
	}
	if j.Wishlist == nil {
		return errors.New("rehydrate job missing wishlist")
	}
	if j.Logger == nil {
		j.Logger = zap.NewNop()
	}
	if j.Config.BatchSize <= 0 {
		j.Config.BatchSize = 20
	}
	return nil
}

func (j *RehydrateJob) Run(ctx context.Context) error {
	if err := j.validate(); err != nil {
		return err
	}
	interval := j.Config.Interval
	if interval <= 0 {
		_, err := j.RunOnce(ctx)
		return err
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	j.Logger.Info("rehydrate job starting", zap.Duration("interval", interval), zap.Int("batch_size", j.Config.BatchSize))
	if _, err := j.RunOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
		j.Logger.Warn("rehydrate job initial run error", zap.Error(err))
	}
	for {
		select {
		case <-ctx.Done():
			j.Logger.Info("rehydrate job stopping", zap.Error(ctx.Err()))
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case <-ticker.C:
			if _, err := j.RunOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
				j.Logger.Warn("rehydrate job iteration error", zap.Error(err))
			}
		}
	}
}

// RunOnce processes one batch and returns how many items became resolved.
func (j *RehydrateJob) RunOnce(ctx context.Context) (int, error) {
	if err := j.validate(); err != nil {
		return 0, err
	}
	items, err := j.Wishlist.Pending(ctx, j.Config.BatchSize)
	if err != nil {
		return 0, eris.Wrap(err, "load pending items")
	}
	if len(items) == 0 {
		j.Logger.Debug("rehydrate job found no pending items")
		return 0, nil
	}
	var (
		resolved int
		joined   error
	)
	for i, it := range items {
		if ctx.Err() != nil {
			return resolved, ctx.Err()
		}
		if i > 0 && j.Config.Pause > 0 {
			select {
			case <-ctx.Done():
				return resolved, ctx.Err()
			case <-time.After(j.Config.Pause):
			}
		}
		_, became, err := j.Wishlist.Rehydrate(ctx, it)
		if err != nil {
			j.Logger.Warn("rehydrate item failed", zap.Int64("item_id", it.ID), zap.Error(err))
			joined = errors.Join(joined, err)
			continue
		}
		if became {
			resolved++
		}
	}
	j.Logger.Info("rehydrate batch done", zap.Int("pending", len(items)), zap.Int("resolved", resolved))
	return resolved, joined
}

package feed

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

type Fetcher interface {
	Fetch(ctx context.Context) error
}

// Poller keeps the feed fresh by fetching on an interval. A zero interval
// fetches once.
type Poller struct {
	Feed     Fetcher
	Interval time.Duration
	Log      *zap.Logger
}

func (p *Poller) logger() *zap.Logger {
	if p.Log != nil {
		return p.Log
	}
	return zap.NewNop()
}

func (p *Poller) validate() error {
	if p == nil {
		return errors.New("nil poller")
	}
	if p.Feed == nil {
		return errors.New("poller missing feed")
	}
	return nil
}

func (p *Poller) Run(ctx context.Context) error {
	if err := p.validate(); err != nil {
		return err
	}
	log := p.logger()
	if p.Interval <= 0 {
		return p.RunOnce(ctx)
	}
	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()
	log.Info("feed poller starting", zap.Duration("interval", p.Interval))
	if err := p.RunOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Warn("feed poller initial run", zap.Error(err))
	}
	for {
		select {
		case <-ctx.Done():
			log.Info("feed poller stopping", zap.Error(ctx.Err()))
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case <-ticker.C:
			if err := p.RunOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Warn("feed poller iteration", zap.Error(err))
			}
		}
	}
}

func (p *Poller) RunOnce(ctx context.Context) error {
	if err := p.validate(); err != nil {
		return err
	}
	err := p.Feed.Fetch(ctx)
	if errors.Is(err, ErrSuperseded) {
		return nil
	}
	return err
}

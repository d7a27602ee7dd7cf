package events

import (
	"context"

	"go.uber.org/zap"
)

// LogSink consumes events and writes them to the log.
type LogSink struct {
	Bus *Bus
	Log *zap.Logger
}

func (s *LogSink) Run(ctx context.Context) {
	sub, cancel := s.Bus.Subscribe(256)
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-sub:
			if !ok {
				return
			}
			fields := []zap.Field{
				zap.String("kind", string(evt.Kind)),
				zap.Uint64("seq", evt.Seq),
				zap.Time("at", evt.At),
			}
			if evt.ListingKey != "" {
				fields = append(fields, zap.String("listing_key", evt.ListingKey))
			}
			if evt.Err != nil {
				s.Log.Warn("event", append(fields, zap.Error(evt.Err))...)
				continue
			}
			s.Log.Info("event", append(fields, zap.Int("count", evt.Count))...)
		}
	}
}

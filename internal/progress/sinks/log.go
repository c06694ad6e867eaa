// Package sinks provides Sink implementations for the progress hub.
package sinks

import (
	"context"

	"go.uber.org/zap"

	"github.com/chatlens/chatlens/internal/progress"
)

// LogSink writes progress events to a zap logger.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink constructs a LogSink.
func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger}
}

// Consume logs each event at info level.
func (s *LogSink) Consume(_ context.Context, events []progress.Event) error {
	for _, evt := range events {
		s.logger.Info("batch progress",
			zap.String("stage", string(evt.Stage)),
			zap.String("batch_id", evt.BatchID),
			zap.String("url", evt.URL),
			zap.String("outcome", string(evt.Outcome)),
			zap.Int("processed", evt.Processed),
			zap.Int("total", evt.Total),
		)
	}
	return nil
}

// Close implements progress.Sink.
func (s *LogSink) Close(context.Context) error {
	return nil
}

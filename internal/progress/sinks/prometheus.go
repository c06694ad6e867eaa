package sinks

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/chatlens/chatlens/internal/progress"
)

// PrometheusSink exports batch progress metrics. It owns its collectors so
// multiple hubs can register against separate registries in tests.
type PrometheusSink struct {
	batchesStarted prometheus.Counter
	batchesDone    prometheus.Counter
	batchesRunning prometheus.Gauge
	urlsSettled    *prometheus.CounterVec
}

// NewPrometheusSink registers the collectors against the provided registry.
func NewPrometheusSink(reg prometheus.Registerer) (*PrometheusSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PrometheusSink{
		batchesStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chatlens_progress_batches_started_total",
			Help: "Total batches that have started.",
		}),
		batchesDone: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chatlens_progress_batches_done_total",
			Help: "Total batches that have finished.",
		}),
		batchesRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "chatlens_progress_batches_running",
			Help: "Current number of running batches.",
		}),
		urlsSettled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chatlens_progress_urls_settled_total",
			Help: "URLs settled partitioned by outcome.",
		}, []string{"outcome"}),
	}
	for _, collector := range []prometheus.Collector{
		s.batchesStarted,
		s.batchesDone,
		s.batchesRunning,
		s.urlsSettled,
	} {
		if err := reg.Register(collector); err != nil {
			return nil, fmt.Errorf("register progress collector: %w", err)
		}
	}
	return s, nil
}

// Consume updates the collectors from the provided events.
func (s *PrometheusSink) Consume(_ context.Context, events []progress.Event) error {
	for _, evt := range events {
		switch evt.Stage {
		case progress.StageBatchStart:
			s.batchesStarted.Inc()
			s.batchesRunning.Inc()
		case progress.StageBatchDone:
			s.batchesDone.Inc()
			s.batchesRunning.Dec()
		case progress.StageURLSettled:
			s.urlsSettled.WithLabelValues(string(evt.Outcome)).Inc()
		}
	}
	return nil
}

// Close implements progress.Sink.
func (s *PrometheusSink) Close(context.Context) error {
	return nil
}

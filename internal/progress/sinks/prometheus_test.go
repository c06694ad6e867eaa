package sinks

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/chatlens/chatlens/internal/progress"
)

func TestPrometheusSink_Counts(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	sink, err := NewPrometheusSink(reg)
	require.NoError(t, err)

	err = sink.Consume(context.Background(), []progress.Event{
		{Stage: progress.StageBatchStart, BatchID: "b1", Total: 2},
		{Stage: progress.StageURLSettled, BatchID: "b1", URL: "https://a.example.com", Outcome: progress.OutcomeCompleted},
		{Stage: progress.StageURLSettled, BatchID: "b1", URL: "https://b.example.com", Outcome: progress.OutcomeFailed},
		{Stage: progress.StageBatchDone, BatchID: "b1"},
	})
	require.NoError(t, err)

	require.Equal(t, float64(1), testutil.ToFloat64(sink.batchesStarted))
	require.Equal(t, float64(1), testutil.ToFloat64(sink.batchesDone))
	require.Equal(t, float64(0), testutil.ToFloat64(sink.batchesRunning))
	require.Equal(t, float64(1), testutil.ToFloat64(sink.urlsSettled.WithLabelValues("completed")))
	require.Equal(t, float64(1), testutil.ToFloat64(sink.urlsSettled.WithLabelValues("failed")))
}

func TestPrometheusSink_DuplicateRegistration(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	_, err := NewPrometheusSink(reg)
	require.NoError(t, err)
	_, err = NewPrometheusSink(reg)
	require.Error(t, err)
}

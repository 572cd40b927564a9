package prometheus_test

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	metricsprom "github.com/slok/packrun/internal/metrics/prometheus"
)

func TestRecorder(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	reg := prometheus.NewRegistry()
	rec := metricsprom.NewRecorder(reg)

	rec.ObserveProvision(ctx, "core", true, 2*time.Second)
	rec.ObserveProvision(ctx, "core", false, time.Second)
	rec.ObserveExecution(ctx, "core", true, "succeeded", 100*time.Millisecond)
	rec.ObserveExecution(ctx, "core", true, "succeeded", 200*time.Millisecond)
	rec.ObserveExecution(ctx, "core", false, "failed", 300*time.Millisecond)

	count, err := testutil.GatherAndCount(reg, "packrun_environment_provision_total", "packrun_action_execution_total")
	assert.NoError(err)
	assert.Equal(4, count)

	// Counters are labeled by outcome.
	mfs, err := reg.Gather()
	assert.NoError(err)
	var executions float64
	for _, mf := range mfs {
		if mf.GetName() != "packrun_action_execution_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			executions += m.GetCounter().GetValue()
		}
	}
	assert.Equal(float64(3), executions)
}

package metrics

import (
	"context"
	"time"
)

// Recorder knows how to record packrun metrics.
type Recorder interface {
	// ObserveProvision measures the build of a pack environment. Cached environments are not observed.
	ObserveProvision(ctx context.Context, pack string, success bool, duration time.Duration)
	// ObserveExecution measures an action execution.
	ObserveExecution(ctx context.Context, pack string, sandbox bool, status string, duration time.Duration)
}

// Noop is a recorder that doesn't record anything.
const Noop = noop(0)

type noop int

func (noop) ObserveProvision(_ context.Context, _ string, _ bool, _ time.Duration) {}
func (noop) ObserveExecution(_ context.Context, _ string, _ bool, _ string, _ time.Duration) {
}

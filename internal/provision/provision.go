package provision

import (
	"context"
	"fmt"
	"time"

	"github.com/slok/packrun/internal/log"
)

// Provisioner prepares a single piece of an environment.
// Running a provisioner again over its own result must succeed and change nothing.
type Provisioner interface {
	Provision(ctx context.Context) error
}

// ProvisionerFunc is a convenience adapter to allow the use of ordinary functions as Provisioners.
type ProvisionerFunc func(ctx context.Context) error

func (f ProvisionerFunc) Provision(ctx context.Context) error { return f(ctx) }

// Step is a named provisioner of a chain.
type Step struct {
	Name        string
	Provisioner Provisioner
}

// NewChain returns a provisioner that runs the steps in order, stopping on the
// first failure or when the context is done. Errors carry the failed step name.
func NewChain(logger log.Logger, steps ...Step) Provisioner {
	if logger == nil {
		logger = log.Noop
	}

	return ProvisionerFunc(func(ctx context.Context) error {
		for _, s := range steps {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("cancelled before %s: %w", s.Name, err)
			}

			start := time.Now()
			if err := s.Provision(ctx); err != nil {
				return fmt.Errorf("%s: %w", s.Name, err)
			}
			logger.Debugf("Provisioned %s in %s", s.Name, time.Since(start))
		}
		return nil
	})
}

// Provision runs the step provisioner.
func (s Step) Provision(ctx context.Context) error { return s.Provisioner.Provision(ctx) }

// Package poll provides the one waiting primitive used for fleet
// convergence and for deployments: re-check a condition on a fixed
// interval until it holds.
//
// Waits are unbounded. There is no timeout and no attempt limit; a
// fleet that takes an hour to launch is waited for. The only way out
// other than the condition holding is the condition returning an error,
// or the context being cancelled by the operator.
package poll

import (
	"context"
	"time"

	"github.com/go-kit/kit/log"

	fluxmetrics "github.com/Eximchain/terraform-exim-blockscout-explorer/pkg/metrics"
)

const DefaultInterval = 30 * time.Second

// Condition reports whether the thing being waited for has happened.
// An error ends the wait; it is not retried.
type Condition func(ctx context.Context) (done bool, err error)

type Poller struct {
	Interval time.Duration
	Logger   log.Logger
}

func New(interval time.Duration, logger log.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Poller{Interval: interval, Logger: logger}
}

// Until checks cond immediately, then once every interval, until it
// reports done. The name identifies the wait in logs and metrics.
func (p *Poller) Until(ctx context.Context, name string, cond Condition) error {
	for attempt := 1; ; attempt++ {
		done, err := cond(ctx)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		pollIterations.With(fluxmetrics.LabelWaiter, name).Add(1)
		p.Logger.Log("waiting", name, "attempt", attempt, "sleep", p.Interval)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.Interval):
		}
	}
}

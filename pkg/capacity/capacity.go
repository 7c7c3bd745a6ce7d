// Package capacity scales the fleets' autoscaling groups and waits for
// them to get to the size asked for.
package capacity

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/autoscaling"
	"github.com/aws/aws-sdk-go/service/autoscaling/autoscalingiface"
	"github.com/go-kit/kit/log"
	"github.com/pkg/errors"

	fluxerr "github.com/Eximchain/terraform-exim-blockscout-explorer/pkg/errors"
	"github.com/Eximchain/terraform-exim-blockscout-explorer/pkg/fleet"
	"github.com/Eximchain/terraform-exim-blockscout-explorer/pkg/poll"
)

// State is a fleet's size as observed just now. It goes stale as soon
// as it is returned; nothing here keeps it.
type State struct {
	Fleet     fleet.ID
	Instances int
}

// Predicate is a condition on the number of instances in a fleet.
type Predicate struct {
	Name  string
	Holds func(instances int) bool
}

var (
	Launched = Predicate{Name: "launched", Holds: func(n int) bool { return n > 0 }}
	Drained  = Predicate{Name: "drained", Holds: func(n int) bool { return n == 0 }}
)

type Controller struct {
	api    autoscalingiface.AutoScalingAPI
	poller *poll.Poller
	logger log.Logger
}

func NewController(api autoscalingiface.AutoScalingAPI, poller *poll.Poller, logger log.Logger) *Controller {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	if poller == nil {
		poller = poll.New(poll.DefaultInterval, logger)
	}
	return &Controller{api: api, poller: poller, logger: logger}
}

// SetDesiredCapacity asks for the fleet to be scaled to n instances.
// It returns once the request is accepted; the fleet may not have
// changed yet.
func (c *Controller) SetDesiredCapacity(ctx context.Context, id fleet.ID, n int64) error {
	_, err := c.api.SetDesiredCapacityWithContext(ctx, &autoscaling.SetDesiredCapacityInput{
		AutoScalingGroupName: aws.String(id.String()),
		DesiredCapacity:      aws.Int64(n),
	})
	if err != nil {
		return errors.Wrapf(err, "setting desired capacity of %s to %d", id, n)
	}
	c.logger.Log("fleet", id, "desired", n)
	return nil
}

// Observe reads the number of instances currently in the fleet.
func (c *Controller) Observe(ctx context.Context, id fleet.ID) (State, error) {
	out, err := c.api.DescribeAutoScalingGroupsWithContext(ctx, &autoscaling.DescribeAutoScalingGroupsInput{
		AutoScalingGroupNames: []*string{aws.String(id.String())},
	})
	if err != nil {
		return State{}, errors.Wrapf(err, "describing autoscaling group %s", id)
	}
	if len(out.AutoScalingGroups) == 0 {
		return State{}, ErrNoSuchFleet(id)
	}
	return State{Fleet: id, Instances: len(out.AutoScalingGroups[0].Instances)}, nil
}

// WaitUntil polls the fleet until the number of instances satisfies
// the predicate. It does not give up.
func (c *Controller) WaitUntil(ctx context.Context, id fleet.ID, pred Predicate) error {
	c.logger.Log("fleet", id, "waiting_for", pred.Name)
	return c.poller.Until(ctx, "fleet-"+pred.Name, func(ctx context.Context) (bool, error) {
		state, err := c.Observe(ctx, id)
		if err != nil {
			return false, err
		}
		done := pred.Holds(state.Instances)
		c.logger.Log("fleet", id, "instances", state.Instances, pred.Name, done)
		return done, nil
	})
}

func ErrNoSuchFleet(id fleet.ID) *fluxerr.Error {
	return &fluxerr.Error{
		Type: fluxerr.Missing,
		Err:  fmt.Errorf("autoscaling group %s not found", id),
		Help: `The autoscaling group

    ` + id.String() + `

does not exist. Both fleets of the pair must exist, named alike apart
from a final "a" or "b", even if the standby fleet is scaled to zero.
`,
	}
}

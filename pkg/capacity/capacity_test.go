package capacity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/autoscaling"
	"github.com/aws/aws-sdk-go/service/autoscaling/autoscalingiface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fluxerr "github.com/Eximchain/terraform-exim-blockscout-explorer/pkg/errors"
	"github.com/Eximchain/terraform-exim-blockscout-explorer/pkg/poll"
)

type mockAutoScalingClient struct {
	autoscalingiface.AutoScalingAPI

	desired  []int64
	counts   []int
	describe int
	missing  bool
	err      error
}

func (m *mockAutoScalingClient) SetDesiredCapacityWithContext(_ aws.Context, in *autoscaling.SetDesiredCapacityInput, _ ...request.Option) (*autoscaling.SetDesiredCapacityOutput, error) {
	m.desired = append(m.desired, aws.Int64Value(in.DesiredCapacity))
	return &autoscaling.SetDesiredCapacityOutput{}, nil
}

func (m *mockAutoScalingClient) DescribeAutoScalingGroupsWithContext(_ aws.Context, in *autoscaling.DescribeAutoScalingGroupsInput, _ ...request.Option) (*autoscaling.DescribeAutoScalingGroupsOutput, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.missing {
		return &autoscaling.DescribeAutoScalingGroupsOutput{}, nil
	}
	n := m.counts[m.describe]
	m.describe++
	group := &autoscaling.Group{AutoScalingGroupName: in.AutoScalingGroupNames[0]}
	for i := 0; i < n; i++ {
		group.Instances = append(group.Instances, &autoscaling.Instance{InstanceId: aws.String("i-0")})
	}
	return &autoscaling.DescribeAutoScalingGroupsOutput{AutoScalingGroups: []*autoscaling.Group{group}}, nil
}

func newTestController(m *mockAutoScalingClient) *Controller {
	return NewController(m, poll.New(time.Millisecond, nil), nil)
}

func TestSetDesiredCapacity(t *testing.T) {
	m := &mockAutoScalingClient{}
	c := newTestController(m)
	require.NoError(t, c.SetDesiredCapacity(context.Background(), "myapp-asg-b", 1))
	require.NoError(t, c.SetDesiredCapacity(context.Background(), "myapp-asg-b", 0))
	assert.Equal(t, []int64{1, 0}, m.desired)
}

func TestWaitUntilLaunched(t *testing.T) {
	m := &mockAutoScalingClient{counts: []int{0, 0, 0, 1}}
	require.NoError(t, newTestController(m).WaitUntil(context.Background(), "myapp-asg-b", Launched))
	assert.Equal(t, 4, m.describe)
}

func TestWaitUntilDrained(t *testing.T) {
	m := &mockAutoScalingClient{counts: []int{2, 1, 0}}
	require.NoError(t, newTestController(m).WaitUntil(context.Background(), "myapp-asg-b", Drained))
	assert.Equal(t, 3, m.describe)
}

func TestWaitUntilPropagatesErrors(t *testing.T) {
	boom := errors.New("rate exceeded")
	m := &mockAutoScalingClient{err: boom}
	err := newTestController(m).WaitUntil(context.Background(), "myapp-asg-b", Launched)
	assert.True(t, errors.Is(err, boom))
}

func TestObserveMissingFleet(t *testing.T) {
	m := &mockAutoScalingClient{missing: true}
	_, err := newTestController(m).Observe(context.Background(), "myapp-asg-b")
	assert.True(t, fluxerr.IsMissing(err))
}

func TestPredicates(t *testing.T) {
	assert.False(t, Launched.Holds(0))
	assert.True(t, Launched.Holds(3))
	assert.True(t, Drained.Holds(0))
	assert.False(t, Drained.Holds(1))
}

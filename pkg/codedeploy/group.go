package codedeploy

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/codedeploy"
	"github.com/pkg/errors"

	fluxerr "github.com/Eximchain/terraform-exim-blockscout-explorer/pkg/errors"
	"github.com/Eximchain/terraform-exim-blockscout-explorer/pkg/fleet"
	"github.com/Eximchain/terraform-exim-blockscout-explorer/pkg/storage"
)

func (c *Client) group(ctx context.Context, application, group string) (*codedeploy.DeploymentGroupInfo, error) {
	out, err := c.api.GetDeploymentGroupWithContext(ctx, &codedeploy.GetDeploymentGroupInput{
		ApplicationName:     aws.String(application),
		DeploymentGroupName: aws.String(group),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "getting deployment group %s of %s", group, application)
	}
	if out.DeploymentGroupInfo == nil {
		return nil, ErrNoSuchGroup(application, group)
	}
	return out.DeploymentGroupInfo, nil
}

// CurrentFleet returns the autoscaling group the deployment group is
// attached to. There should be exactly one; if there are more, the
// first is taken.
func (c *Client) CurrentFleet(ctx context.Context, application, group string) (fleet.ID, error) {
	info, err := c.group(ctx, application, group)
	if err != nil {
		return "", err
	}
	if len(info.AutoScalingGroups) == 0 || info.AutoScalingGroups[0] == nil {
		return "", &fluxerr.Error{
			Type: fluxerr.Configuration,
			Err:  fmt.Errorf("deployment group %s has no autoscaling group", group),
			Help: `The deployment group ` + group + ` is not attached to any autoscaling
group, so there is no way to tell which fleet is serving. Attach the
"a" fleet to the deployment group and try again.
`,
		}
	}
	return fleet.ID(aws.StringValue(info.AutoScalingGroups[0].Name)), nil
}

// TargetRevision returns where the revision most recently targeted at
// the deployment group is stored.
func (c *Client) TargetRevision(ctx context.Context, application, group string) (storage.Location, error) {
	info, err := c.group(ctx, application, group)
	if err != nil {
		return storage.Location{}, err
	}
	if info.TargetRevision == nil || info.TargetRevision.S3Location == nil {
		return storage.Location{}, &fluxerr.Error{
			Type: fluxerr.Missing,
			Err:  fmt.Errorf("deployment group %s has no target revision in S3", group),
			Help: `Fleet B is serving, so the revision it is running was to be deployed
back to fleet A; but the deployment group ` + group + ` does not
record a target revision stored in S3. Deploy the revision to fleet A
by hand, or reattach fleet A to the deployment group, and try again.
`,
		}
	}
	loc := fromS3Location(info.TargetRevision.S3Location)
	c.logger.Log("target_revision", loc)
	return loc, nil
}

func ErrNoSuchGroup(application, group string) *fluxerr.Error {
	return &fluxerr.Error{
		Type: fluxerr.Missing,
		Err:  fmt.Errorf("deployment group %s of application %s not found", group, application),
		Help: `The deployment group

    ` + group + `

of application ` + application + ` does not exist. Check the application
name, and the deployment group name if it was given explicitly.
`,
	}
}

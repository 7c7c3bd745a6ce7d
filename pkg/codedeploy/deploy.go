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

// DeploymentID is assigned by CodeDeploy when a deployment is created.
type DeploymentID string

// Request is a deployment of one release to exactly one fleet.
type Request struct {
	Target      fleet.ID
	Application string
	Group       string
	Release     storage.Location
}

// Deploy creates a deployment of the release to the target fleet only,
// and returns without waiting for it.
func (c *Client) Deploy(ctx context.Context, req Request) (DeploymentID, error) {
	out, err := c.api.CreateDeploymentWithContext(ctx, &codedeploy.CreateDeploymentInput{
		ApplicationName:      aws.String(req.Application),
		DeploymentGroupName:  aws.String(req.Group),
		Revision:             revisionLocation(req.Release),
		DeploymentConfigName: aws.String(c.deploymentConfig),
		TargetInstances: &codedeploy.TargetInstances{
			AutoScalingGroups: []*string{aws.String(req.Target.String())},
		},
	})
	if err != nil {
		return "", errors.Wrapf(err, "creating deployment to %s", req.Target)
	}
	id := DeploymentID(aws.StringValue(out.DeploymentId))
	c.logger.Log("deployment", id, "fleet", req.Target, "revision", req.Release, "status", "created")
	return id, nil
}

// Await polls the deployment until it has succeeded or failed. Any
// status other than those two, including ones not known about here, is
// taken to mean it is still going.
func (c *Client) Await(ctx context.Context, id DeploymentID) error {
	return c.poller.Until(ctx, "deployment", func(ctx context.Context) (bool, error) {
		out, err := c.api.GetDeploymentWithContext(ctx, &codedeploy.GetDeploymentInput{
			DeploymentId: aws.String(string(id)),
		})
		if err != nil {
			return false, errors.Wrapf(err, "getting deployment %s", id)
		}
		info := out.DeploymentInfo
		if info == nil {
			return false, fmt.Errorf("deployment %s: no deployment info returned", id)
		}
		status := aws.StringValue(info.Status)
		switch status {
		case codedeploy.DeploymentStatusSucceeded:
			c.logger.Log("deployment", id, "status", status)
			return true, nil
		case codedeploy.DeploymentStatusFailed:
			failed := &DeploymentFailedError{ID: id}
			if ei := info.ErrorInformation; ei != nil {
				failed.Code = aws.StringValue(ei.Code)
				failed.Message = aws.StringValue(ei.Message)
			}
			c.logger.Log("deployment", id, "status", status, "code", failed.Code, "message", failed.Message)
			return false, ErrDeploymentFailed(failed)
		}
		c.logger.Log("deployment", id, "status", status, "msg", "still in progress")
		return false, nil
	})
}

// DeploymentFailedError carries what CodeDeploy said about a failed
// deployment, unchanged.
type DeploymentFailedError struct {
	ID      DeploymentID
	Code    string
	Message string
}

func (e *DeploymentFailedError) Error() string {
	if e.Code == "" && e.Message == "" {
		return fmt.Sprintf("deployment %s failed", e.ID)
	}
	return fmt.Sprintf("deployment %s failed: %s: %s", e.ID, e.Code, e.Message)
}

func ErrDeploymentFailed(err *DeploymentFailedError) *fluxerr.Error {
	return &fluxerr.Error{
		Type: fluxerr.DeploymentFailed,
		Err:  err,
		Help: `CodeDeploy reported that deployment ` + string(err.ID) + ` failed:

    ` + err.Code + `: ` + err.Message + `

Nothing has been rolled back. Look at the deployment's events in
CodeDeploy to find out which lifecycle hook failed, then fix the
release and run the deployment again. If fleet B is left serving,
running again will put fleet A back in service.
`,
	}
}

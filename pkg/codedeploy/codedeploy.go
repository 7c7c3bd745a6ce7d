// Package codedeploy talks to AWS CodeDeploy: it reads the deployment
// group, registers revisions, and creates and waits for deployments.
package codedeploy

import (
	"github.com/aws/aws-sdk-go/service/codedeploy/codedeployiface"
	"github.com/go-kit/kit/log"

	"github.com/Eximchain/terraform-exim-blockscout-explorer/pkg/poll"
)

// DefaultDeploymentConfig updates one instance of the target fleet at a
// time.
const DefaultDeploymentConfig = "CodeDeployDefault.OneAtATime"

type Client struct {
	api              codedeployiface.CodeDeployAPI
	poller           *poll.Poller
	deploymentConfig string
	logger           log.Logger
}

func NewClient(api codedeployiface.CodeDeployAPI, poller *poll.Poller, logger log.Logger) *Client {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	if poller == nil {
		poller = poll.New(poll.DefaultInterval, logger)
	}
	return &Client{
		api:              api,
		poller:           poller,
		deploymentConfig: DefaultDeploymentConfig,
		logger:           logger,
	}
}

// WithDeploymentConfig sets the deployment config name used for new
// deployments.
func (c *Client) WithDeploymentConfig(name string) *Client {
	if name != "" {
		c.deploymentConfig = name
	}
	return c
}

package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/autoscaling"
	awscodedeploy "github.com/aws/aws-sdk-go/service/codedeploy"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/go-kit/kit/log"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/Eximchain/terraform-exim-blockscout-explorer/pkg/capacity"
	"github.com/Eximchain/terraform-exim-blockscout-explorer/pkg/codedeploy"
	"github.com/Eximchain/terraform-exim-blockscout-explorer/pkg/config"
	"github.com/Eximchain/terraform-exim-blockscout-explorer/pkg/poll"
	"github.com/Eximchain/terraform-exim-blockscout-explorer/pkg/release"
	"github.com/Eximchain/terraform-exim-blockscout-explorer/pkg/storage"
)

type rootOpts struct {
	configFile string
	flags      config.Config

	// Builds the backends; replaced in tests.
	backends func(cfg config.Config, logger log.Logger) (*release.ReleaseContext, error)
	stderr   io.Writer
}

func newRoot() *rootOpts {
	return &rootOpts{
		flags:    config.Defaults(),
		backends: awsBackends,
		stderr:   os.Stderr,
	}
}

var rootLongHelp = strings.TrimSpace(`
bgdeploy does a blue/green deployment of a release directory to the
two fleets ("a" and "b") of a CodeDeploy application.

If fleet A is serving, fleet B is scaled up, the release is bundled,
uploaded and registered, then deployed to B and then to A, and B is
scaled back down. If fleet B is serving (e.g., an earlier deployment
stopped part way), B's revision is deployed to A and B is scaled down.

Waiting for fleets and deployments has no timeout; interrupt bgdeploy
to give up.
`)

func (opts *rootOpts) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:  "bgdeploy",
		Long: rootLongHelp,
		Example: makeExample(
			"bgdeploy --application-name blockscout --source ./blockscout --revision-key blockscout.zip",
			"bgdeploy -a blockscout -s ./blockscout -k blockscout.zip --ignore-hidden-files --log-format json",
			"bgdeploy --config /etc/bgdeploy.yaml --listen-metrics :3031",
		),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          opts.RunE,
	}
	cmd.Flags().StringVar(&opts.configFile, "config", "", "path to a YAML config file; flags given override it")
	opts.flags.Flags(cmd.Flags())
	cmd.AddCommand(newVersionCommand())
	return cmd
}

func (opts *rootOpts) config(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Defaults()
	if opts.configFile != "" {
		var err error
		if cfg, err = config.Load(opts.configFile); err != nil {
			return cfg, err
		}
	}
	cfg.Override(cmd.Flags(), &opts.flags)
	cfg.Complete()
	if err := cfg.Validate(); err != nil {
		return cfg, usageError{err}
	}
	return cfg, nil
}

func (opts *rootOpts) RunE(cmd *cobra.Command, args []string) error {
	if len(args) != 0 {
		return errorWantedNoArgs
	}
	cfg, err := opts.config(cmd)
	if err != nil {
		return err
	}

	// Logger domain.
	var logger log.Logger
	{
		w := log.NewSyncWriter(opts.stderr)
		if cfg.LogFormat == config.LogFormatJSON {
			logger = log.NewJSONLogger(w)
		} else {
			logger = log.NewLogfmtLogger(w)
		}
		logger = log.With(logger, "ts", log.DefaultTimestampUTC)
		logger = log.With(logger, "caller", log.DefaultCaller)
	}
	logger.Log("version", versionOrDefault(), "application", cfg.Application, "group", cfg.DeploymentGroup, "bucket", cfg.RevisionBucket)

	// Metrics domain.
	if cfg.ListenMetrics != "" {
		go func() {
			logger := log.With(logger, "component", "metrics")
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			logger.Log("addr", cfg.ListenMetrics)
			logger.Log("err", http.ListenAndServe(cfg.ListenMetrics, mux))
		}()
	}

	rc, err := opts.backends(cfg, logger)
	if err != nil {
		return err
	}

	// The operator stopping the process is the only way to abandon a
	// wait.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	result, err := release.Release(ctx, rc, release.Spec{
		Application:     cfg.Application,
		Group:           cfg.DeploymentGroup,
		Source:          cfg.Source,
		IgnoreHidden:    cfg.IgnoreHiddenFiles,
		Manifest:        cfg.Manifest,
		CheckManifest:   cfg.CheckManifest,
		TempDir:         cfg.TempDir,
		Bucket:          cfg.RevisionBucket,
		Key:             cfg.RevisionKey,
		StandbyCapacity: cfg.StandbyCapacity,
	}, log.With(logger, "component", "release"))
	if err != nil {
		return err
	}
	logger.Log("msg", "full deployment successful", "path", result.Path, "revision", result.Release, "deployments", len(result.Deployments))
	return nil
}

// awsBackends wires the release to CodeDeploy, Auto Scaling and S3,
// using the usual AWS credential chain.
func awsBackends(cfg config.Config, logger log.Logger) (*release.ReleaseContext, error) {
	awsConfig := aws.Config{}
	if cfg.Region != "" {
		awsConfig.Region = aws.String(cfg.Region)
	}
	sess, err := session.NewSessionWithOptions(session.Options{
		Config:            awsConfig,
		SharedConfigState: session.SharedConfigEnable,
	})
	if err != nil {
		return nil, fmt.Errorf("creating AWS session: %s", err)
	}
	logger.Log("region", aws.StringValue(sess.Config.Region))

	poller := poll.New(cfg.PollInterval, log.With(logger, "component", "poll"))
	deployer := codedeploy.NewClient(awscodedeploy.New(sess), poller, log.With(logger, "component", "codedeploy")).
		WithDeploymentConfig(cfg.DeploymentConfigName)
	return &release.ReleaseContext{
		Topology:  deployer,
		Registrar: deployer,
		Deployer:  deployer,
		Capacity:  capacity.NewController(autoscaling.New(sess), poller, log.With(logger, "component", "capacity")),
		Uploader:  storage.NewUploader(s3.New(sess), cfg.PartSize, log.With(logger, "component", "storage")),
	}, nil
}

func makeExample(examples ...string) string {
	var buf strings.Builder
	for _, example := range examples {
		fmt.Fprintf(&buf, "  %s\n", example)
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

func versionOrDefault() string {
	if version == "" {
		return "unversioned"
	}
	return version
}

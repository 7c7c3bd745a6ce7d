// config is the package containing configuration for bgdeploy: the
// defaults, the optional config file, and the flags that override it.
package config

import (
	"fmt"
	"io/ioutil"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v2"

	"github.com/Eximchain/terraform-exim-blockscout-explorer/pkg/bundle"
	"github.com/Eximchain/terraform-exim-blockscout-explorer/pkg/codedeploy"
	"github.com/Eximchain/terraform-exim-blockscout-explorer/pkg/poll"
	"github.com/Eximchain/terraform-exim-blockscout-explorer/pkg/storage"
)

const (
	ConfigVersion = "v1"

	// Names derived from the application name, unless given.
	DeploymentGroupSuffix = "-dg0"
	RevisionBucketSuffix  = "-codedeploy-releases"

	LogFormatFmt  = "fmt"
	LogFormatJSON = "json"
)

type Config struct {
	// If present in a config file, this must be ConfigVersion.
	ConfigVersion string `yaml:"configVersion"`

	Application       string `yaml:"application"`
	Source            string `yaml:"source"`
	IgnoreHiddenFiles bool   `yaml:"ignoreHiddenFiles"`
	RevisionKey       string `yaml:"revisionKey"`

	DeploymentGroup      string `yaml:"deploymentGroup"`
	RevisionBucket       string `yaml:"revisionBucket"`
	DeploymentConfigName string `yaml:"deploymentConfigName"`
	Manifest             string `yaml:"manifest"`
	CheckManifest        bool   `yaml:"checkManifest"`
	TempDir              string `yaml:"tempDir"`

	Region        string `yaml:"region"`
	LogFormat     string `yaml:"logFormat"`
	ListenMetrics string `yaml:"listenMetrics"`

	PollInterval    time.Duration `yaml:"pollInterval"`
	PartSize        int64         `yaml:"partSize"`
	StandbyCapacity int64         `yaml:"standbyCapacity"`
}

func Defaults() Config {
	return Config{
		ConfigVersion:        ConfigVersion,
		DeploymentConfigName: codedeploy.DefaultDeploymentConfig,
		Manifest:             bundle.DefaultManifest,
		LogFormat:            LogFormatFmt,
		PollInterval:         poll.DefaultInterval,
		PartSize:             storage.DefaultPartSize,
		StandbyCapacity:      1,
	}
}

// Load reads a config file over the defaults.
func Load(path string) (Config, error) {
	c := Defaults()
	bytes, err := ioutil.ReadFile(path)
	if err != nil {
		return c, errors.Wrap(err, "reading config file")
	}
	c.ConfigVersion = ""
	if err := yaml.UnmarshalStrict(bytes, &c); err != nil {
		return c, errors.Wrapf(err, "parsing config file %s", path)
	}
	if c.ConfigVersion != ConfigVersion {
		return c, fmt.Errorf("config file %s has configVersion %q, expected %q", path, c.ConfigVersion, ConfigVersion)
	}
	return c, nil
}

// Complete fills in the names that follow from the application name.
func (c *Config) Complete() {
	if c.DeploymentGroup == "" && c.Application != "" {
		c.DeploymentGroup = c.Application + DeploymentGroupSuffix
	}
	if c.RevisionBucket == "" && c.Application != "" {
		c.RevisionBucket = c.Application + RevisionBucketSuffix
	}
}

func (c Config) Validate() error {
	switch {
	case c.Application == "":
		return errors.New("application name is required")
	case c.Source == "":
		return errors.New("source directory is required")
	case c.RevisionKey == "":
		return errors.New("revision key is required")
	case c.PollInterval <= 0:
		return fmt.Errorf("poll interval must be positive, got %s", c.PollInterval)
	case c.PartSize < storage.MinPartSize:
		return fmt.Errorf("part size must be at least %d bytes, got %d", storage.MinPartSize, c.PartSize)
	case c.StandbyCapacity < 1:
		return fmt.Errorf("standby capacity must be at least 1, got %d", c.StandbyCapacity)
	case c.LogFormat != LogFormatFmt && c.LogFormat != LogFormatJSON:
		return fmt.Errorf("log format must be %q or %q, got %q", LogFormatFmt, LogFormatJSON, c.LogFormat)
	}
	return nil
}

type flagField struct {
	name, short, usage string
	define             func(fs *pflag.FlagSet, c *Config, name, short, usage string)
	copy               func(dst, src *Config)
}

var flagFields = []flagField{
	{"application-name", "a", "name of the CodeDeploy application",
		func(fs *pflag.FlagSet, c *Config, n, s, u string) { fs.StringVarP(&c.Application, n, s, c.Application, u) },
		func(dst, src *Config) { dst.Application = src.Application }},
	{"source", "s", "release directory to bundle; must contain the manifest at its root",
		func(fs *pflag.FlagSet, c *Config, n, s, u string) { fs.StringVarP(&c.Source, n, s, c.Source, u) },
		func(dst, src *Config) { dst.Source = src.Source }},
	{"ignore-hidden-files", "", "leave files and directories starting with '.' out of the bundle",
		func(fs *pflag.FlagSet, c *Config, n, s, u string) { fs.BoolVar(&c.IgnoreHiddenFiles, n, c.IgnoreHiddenFiles, u) },
		func(dst, src *Config) { dst.IgnoreHiddenFiles = src.IgnoreHiddenFiles }},
	{"check-manifest", "", "refuse to bundle a manifest that is not a YAML mapping with a version",
		func(fs *pflag.FlagSet, c *Config, n, s, u string) { fs.BoolVar(&c.CheckManifest, n, c.CheckManifest, u) },
		func(dst, src *Config) { dst.CheckManifest = src.CheckManifest }},
	{"revision-key", "k", "S3 key to upload the bundle to",
		func(fs *pflag.FlagSet, c *Config, n, s, u string) { fs.StringVarP(&c.RevisionKey, n, s, c.RevisionKey, u) },
		func(dst, src *Config) { dst.RevisionKey = src.RevisionKey }},
	{"deployment-group", "", "CodeDeploy deployment group (default <application-name>" + DeploymentGroupSuffix + ")",
		func(fs *pflag.FlagSet, c *Config, n, s, u string) { fs.StringVar(&c.DeploymentGroup, n, c.DeploymentGroup, u) },
		func(dst, src *Config) { dst.DeploymentGroup = src.DeploymentGroup }},
	{"revision-bucket", "", "S3 bucket for bundles (default <application-name>" + RevisionBucketSuffix + ")",
		func(fs *pflag.FlagSet, c *Config, n, s, u string) { fs.StringVar(&c.RevisionBucket, n, c.RevisionBucket, u) },
		func(dst, src *Config) { dst.RevisionBucket = src.RevisionBucket }},
	{"region", "", "AWS region; taken from the AWS config and environment if not given",
		func(fs *pflag.FlagSet, c *Config, n, s, u string) { fs.StringVar(&c.Region, n, c.Region, u) },
		func(dst, src *Config) { dst.Region = src.Region }},
	{"log-format", "", "log format, one of 'fmt' or 'json'",
		func(fs *pflag.FlagSet, c *Config, n, s, u string) { fs.StringVar(&c.LogFormat, n, c.LogFormat, u) },
		func(dst, src *Config) { dst.LogFormat = src.LogFormat }},
	{"listen-metrics", "", "serve Prometheus metrics on this address while running, e.g. :3031",
		func(fs *pflag.FlagSet, c *Config, n, s, u string) { fs.StringVar(&c.ListenMetrics, n, c.ListenMetrics, u) },
		func(dst, src *Config) { dst.ListenMetrics = src.ListenMetrics }},
	{"poll-interval", "", "how often to check on fleets and deployments",
		func(fs *pflag.FlagSet, c *Config, n, s, u string) { fs.DurationVar(&c.PollInterval, n, c.PollInterval, u) },
		func(dst, src *Config) { dst.PollInterval = src.PollInterval }},
}

// Flags defines a flag for each setting that can be given on the
// command line, storing into c.
func (c *Config) Flags(fs *pflag.FlagSet) {
	for _, f := range flagFields {
		f.define(fs, c, f.name, f.short, f.usage)
	}
}

// Override copies into c the settings for which a flag was given.
func (c *Config) Override(fs *pflag.FlagSet, flags *Config) {
	for _, f := range flagFields {
		if fs.Changed(f.name) {
			f.copy(c, flags)
		}
	}
}

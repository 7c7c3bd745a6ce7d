package config

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Eximchain/terraform-exim-blockscout-explorer/pkg/storage"
)

func writeConfig(t *testing.T, content string) string {
	dir, err := ioutil.TempDir("", "bgdeploy-config")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	path := filepath.Join(dir, "bgdeploy.yaml")
	require.NoError(t, ioutil.WriteFile(path, []byte(content), 0644))
	return path
}

func valid() Config {
	c := Defaults()
	c.Application = "blockscout"
	c.Source = "./release"
	c.RevisionKey = "blockscout.zip"
	return c
}

func TestDefaults(t *testing.T) {
	c := Defaults()
	assert.Equal(t, 30*time.Second, c.PollInterval)
	assert.Equal(t, int64(6*storage.MiB), c.PartSize)
	assert.Equal(t, int64(1), c.StandbyCapacity)
	assert.Equal(t, "appspec.yml", c.Manifest)
	assert.Equal(t, "CodeDeployDefault.OneAtATime", c.DeploymentConfigName)
}

func TestComplete(t *testing.T) {
	c := valid()
	c.Complete()
	assert.Equal(t, "blockscout-dg0", c.DeploymentGroup)
	assert.Equal(t, "blockscout-codedeploy-releases", c.RevisionBucket)

	c = valid()
	c.DeploymentGroup = "custom"
	c.Complete()
	assert.Equal(t, "custom", c.DeploymentGroup)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, valid().Validate())

	for name, mutate := range map[string]func(*Config){
		"no application": func(c *Config) { c.Application = "" },
		"no source":      func(c *Config) { c.Source = "" },
		"no key":         func(c *Config) { c.RevisionKey = "" },
		"zero interval":  func(c *Config) { c.PollInterval = 0 },
		"small parts":    func(c *Config) { c.PartSize = storage.MinPartSize - 1 },
		"no standby":     func(c *Config) { c.StandbyCapacity = 0 },
		"bad log format": func(c *Config) { c.LogFormat = "xml" },
	} {
		c := valid()
		mutate(&c)
		assert.Error(t, c.Validate(), name)
	}
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
configVersion: v1
application: blockscout
source: /srv/release
ignoreHiddenFiles: true
revisionKey: blockscout.zip
pollInterval: 10s
`)
	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "blockscout", c.Application)
	assert.Equal(t, "/srv/release", c.Source)
	assert.True(t, c.IgnoreHiddenFiles)
	assert.Equal(t, 10*time.Second, c.PollInterval)
	assert.Equal(t, int64(storage.DefaultPartSize), c.PartSize)
}

func TestLoadRejects(t *testing.T) {
	_, err := Load(writeConfig(t, "application: blockscout\n"))
	assert.Error(t, err, "missing configVersion")

	_, err = Load(writeConfig(t, "configVersion: v1\nnoSuchField: 1\n"))
	assert.Error(t, err, "unknown field")

	_, err = Load(filepath.Join(os.TempDir(), "does-not-exist.yaml"))
	assert.Error(t, err)
}

func TestOverride(t *testing.T) {
	fromFile := valid()
	fromFile.Region = "us-east-1"

	flags := Defaults()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Flags(fs)
	require.NoError(t, fs.Parse([]string{"--region", "eu-west-2", "--ignore-hidden-files", "--poll-interval", "5s"}))

	fromFile.Override(fs, &flags)
	assert.Equal(t, "eu-west-2", fromFile.Region)
	assert.True(t, fromFile.IgnoreHiddenFiles)
	assert.False(t, fromFile.CheckManifest)
	assert.Equal(t, 5*time.Second, fromFile.PollInterval)
	assert.Equal(t, "blockscout", fromFile.Application)
}

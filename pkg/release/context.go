package release

import (
	"context"
	"io"

	"github.com/Eximchain/terraform-exim-blockscout-explorer/pkg/capacity"
	"github.com/Eximchain/terraform-exim-blockscout-explorer/pkg/codedeploy"
	"github.com/Eximchain/terraform-exim-blockscout-explorer/pkg/fleet"
	"github.com/Eximchain/terraform-exim-blockscout-explorer/pkg/storage"
)

// Topology reads the state of the deployment group.
type Topology interface {
	CurrentFleet(ctx context.Context, application, group string) (fleet.ID, error)
	TargetRevision(ctx context.Context, application, group string) (storage.Location, error)
}

type Registrar interface {
	Register(ctx context.Context, application string, loc storage.Location) error
}

type Deployer interface {
	Deploy(ctx context.Context, req codedeploy.Request) (codedeploy.DeploymentID, error)
	Await(ctx context.Context, id codedeploy.DeploymentID) error
}

type Capacity interface {
	SetDesiredCapacity(ctx context.Context, id fleet.ID, n int64) error
	WaitUntil(ctx context.Context, id fleet.ID, pred capacity.Predicate) error
}

type Uploader interface {
	Upload(ctx context.Context, body io.ReadSeeker, size int64, bucket, key string, metadata map[string]string) (storage.Location, error)
}

// ReleaseContext is everything a release talks to.
type ReleaseContext struct {
	Topology  Topology
	Registrar Registrar
	Deployer  Deployer
	Capacity  Capacity
	Uploader  Uploader
}

// Spec says what to release, and where.
type Spec struct {
	Application string
	Group       string

	// The release directory, and whether to leave out its hidden files.
	Source       string
	IgnoreHidden bool
	// The manifest that must be at the root of Source; the bundle
	// package's default if empty.
	Manifest string
	// Also require the manifest to be a YAML mapping with a version.
	CheckManifest bool
	// Where bundles are built; the system default if empty.
	TempDir string

	Bucket string
	Key    string

	// How many instances to bring the standby fleet up to.
	StandbyCapacity int64
}

// Path is which way a release goes, decided by which fleet is serving.
type Path string

const (
	// Fleet A is serving: bring up B, deploy a new bundle to B then A,
	// and take B down again.
	PathRollForward Path = "roll-forward"
	// Fleet B is serving: deploy B's revision to A, and take B down.
	PathConverge Path = "converge"
)

// Result records what a release did.
type Result struct {
	Path        Path
	Fleets      fleet.Pair
	Release     storage.Location
	Deployments []codedeploy.DeploymentID
}

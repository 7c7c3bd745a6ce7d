package release

import (
	"context"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/pkg/errors"

	"github.com/Eximchain/terraform-exim-blockscout-explorer/pkg/bundle"
	"github.com/Eximchain/terraform-exim-blockscout-explorer/pkg/capacity"
	"github.com/Eximchain/terraform-exim-blockscout-explorer/pkg/codedeploy"
	"github.com/Eximchain/terraform-exim-blockscout-explorer/pkg/fleet"
	"github.com/Eximchain/terraform-exim-blockscout-explorer/pkg/storage"
)

// Release does a blue/green deployment of spec. Which fleet the
// deployment group reports decides the path taken; see PathRollForward
// and PathConverge.
//
// Every step must finish before the next starts. Any error stops the
// release where it is, and nothing is rolled back.
func Release(ctx context.Context, rc *ReleaseContext, spec Spec, logger log.Logger) (result Result, err error) {
	logger = log.With(logger, "type", "release", "application", spec.Application)

	current, err := rc.Topology.CurrentFleet(ctx, spec.Application, spec.Group)
	if err != nil {
		return result, err
	}
	pair, err := fleet.Resolve(current)
	if err != nil {
		return result, err
	}
	result.Fleets = pair
	logger.Log("current", pair.Active, "other", pair.Standby)

	switch pair.ActiveSlot() {
	case fleet.SlotA:
		result.Path = PathRollForward
		err = rollForward(ctx, rc, spec, pair, &result, log.With(logger, "path", PathRollForward))
	case fleet.SlotB:
		result.Path = PathConverge
		err = converge(ctx, rc, spec, pair, &result, log.With(logger, "path", PathConverge))
	}
	return result, err
}

func rollForward(ctx context.Context, rc *ReleaseContext, spec Spec, pair fleet.Pair, result *Result, logger log.Logger) error {
	standbyCapacity := spec.StandbyCapacity
	if standbyCapacity < 1 {
		standbyCapacity = 1
	}

	if err := step(logger, "prepare-fleet-b", func() error {
		return rc.Capacity.SetDesiredCapacity(ctx, pair.B(), standbyCapacity)
	}); err != nil {
		return err
	}

	if err := step(logger, "push-release", func() error {
		loc, err := PushRelease(ctx, rc, spec, logger)
		result.Release = loc
		return err
	}); err != nil {
		return err
	}

	if err := step(logger, "await-fleet-b-launch", func() error {
		return rc.Capacity.WaitUntil(ctx, pair.B(), capacity.Launched)
	}); err != nil {
		return err
	}

	if err := step(logger, "deploy-fleet-b", func() error {
		return deployAndWait(ctx, rc, spec, pair.B(), result, logger)
	}); err != nil {
		return err
	}

	if err := step(logger, "deploy-fleet-a", func() error {
		return deployAndWait(ctx, rc, spec, pair.A(), result, logger)
	}); err != nil {
		return MakePartialRolloutError(pair, err)
	}

	return spinDown(ctx, rc, pair, logger)
}

func converge(ctx context.Context, rc *ReleaseContext, spec Spec, pair fleet.Pair, result *Result, logger log.Logger) error {
	if err := step(logger, "resolve-target-revision", func() error {
		loc, err := rc.Topology.TargetRevision(ctx, spec.Application, spec.Group)
		result.Release = loc
		return err
	}); err != nil {
		return err
	}

	if err := step(logger, "deploy-fleet-a", func() error {
		return deployAndWait(ctx, rc, spec, pair.A(), result, logger)
	}); err != nil {
		return err
	}

	return spinDown(ctx, rc, pair, logger)
}

func spinDown(ctx context.Context, rc *ReleaseContext, pair fleet.Pair, logger log.Logger) error {
	if err := step(logger, "spin-down-fleet-b", func() error {
		return rc.Capacity.SetDesiredCapacity(ctx, pair.B(), 0)
	}); err != nil {
		return err
	}
	return step(logger, "await-fleet-b-drain", func() error {
		return rc.Capacity.WaitUntil(ctx, pair.B(), capacity.Drained)
	})
}

func deployAndWait(ctx context.Context, rc *ReleaseContext, spec Spec, target fleet.ID, result *Result, logger log.Logger) (err error) {
	if slot, serr := fleet.SlotOf(target); serr == nil {
		defer func() { countDeployment(slot, err) }()
	}
	id, err := rc.Deployer.Deploy(ctx, codedeploy.Request{
		Target:      target,
		Application: spec.Application,
		Group:       spec.Group,
		Release:     result.Release,
	})
	if err != nil {
		return err
	}
	result.Deployments = append(result.Deployments, id)
	logger.Log("deployment", id, "fleet", target)
	return rc.Deployer.Await(ctx, id)
}

// PushRelease bundles the source directory, uploads it and registers it
// as a revision. The bundle is removed afterwards whether or not this
// succeeds.
func PushRelease(ctx context.Context, rc *ReleaseContext, spec Spec, logger log.Logger) (storage.Location, error) {
	var loc storage.Location
	opts := bundle.Options{
		IgnoreHidden:  spec.IgnoreHidden,
		Manifest:      spec.Manifest,
		CheckManifest: spec.CheckManifest,
		TempDir:       spec.TempDir,
		Logger:        logger,
	}
	err := bundle.With(spec.Source, opts, func(b *bundle.Bundle) error {
		var err error
		loc, err = rc.Uploader.Upload(ctx, b, b.Size(), spec.Bucket, spec.Key, map[string]string{
			"bundle-blake3": b.Digest(),
		})
		if err != nil {
			return err
		}
		return rc.Registrar.Register(ctx, spec.Application, loc)
	})
	if err != nil {
		return storage.Location{}, errors.Wrap(err, "pushing release")
	}
	logger.Log("pushed", loc)
	return loc, nil
}

func step(logger log.Logger, name string, f func() error) (err error) {
	logger.Log("step", name)
	defer func(start time.Time) {
		observeStep(name, start, err == nil)
		if err != nil {
			logger.Log("step", name, "err", err)
		}
	}(time.Now())
	return f()
}

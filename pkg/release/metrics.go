package release

import (
	"fmt"
	"time"

	"github.com/go-kit/kit/metrics/prometheus"
	stdprometheus "github.com/prometheus/client_golang/prometheus"

	fluxerr "github.com/Eximchain/terraform-exim-blockscout-explorer/pkg/errors"
	"github.com/Eximchain/terraform-exim-blockscout-explorer/pkg/fleet"
	fluxmetrics "github.com/Eximchain/terraform-exim-blockscout-explorer/pkg/metrics"
)

var (
	// Steps that wait for fleets or deployments routinely take many
	// minutes.
	stepDuration = prometheus.NewHistogramFrom(stdprometheus.HistogramOpts{
		Namespace: "bgdeploy",
		Subsystem: "release",
		Name:      "step_duration_seconds",
		Help:      "Duration of each step of a release, in seconds.",
		Buckets:   []float64{0.5, 1, 5, 15, 30, 60, 120, 300, 600, 1200, 1800, 3600},
	}, []string{fluxmetrics.LabelStep, fluxmetrics.LabelSuccess})
	deployments = prometheus.NewCounterFrom(stdprometheus.CounterOpts{
		Namespace: "bgdeploy",
		Subsystem: "release",
		Name:      "deployments_total",
		Help:      "Deployments started by a release, by fleet slot and outcome.",
	}, []string{fluxmetrics.LabelSlot, fluxmetrics.LabelStatus})
)

// Deployment outcomes. "error" is for a deployment that could not be
// created or awaited, rather than one the backend reported on.
const (
	statusSucceeded = "Succeeded"
	statusFailed    = "Failed"
	statusError     = "error"
)

func deploymentStatus(err error) string {
	switch {
	case err == nil:
		return statusSucceeded
	case fluxerr.IsDeploymentFailed(err):
		return statusFailed
	}
	return statusError
}

func countDeployment(slot fleet.Slot, err error) {
	deployments.With(
		fluxmetrics.LabelSlot, slot.String(),
		fluxmetrics.LabelStatus, deploymentStatus(err),
	).Add(1)
}

func observeStep(step string, start time.Time, success bool) {
	stepDuration.With(
		fluxmetrics.LabelStep, step,
		fluxmetrics.LabelSuccess, fmt.Sprint(success),
	).Observe(time.Since(start).Seconds())
}

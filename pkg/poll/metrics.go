package poll

import (
	"github.com/go-kit/kit/metrics/prometheus"
	stdprometheus "github.com/prometheus/client_golang/prometheus"

	fluxmetrics "github.com/Eximchain/terraform-exim-blockscout-explorer/pkg/metrics"
)

var (
	pollIterations = prometheus.NewCounterFrom(stdprometheus.CounterOpts{
		Namespace: "bgdeploy",
		Subsystem: "poll",
		Name:      "iterations_total",
		Help:      "Number of times a wait found its condition not yet met and slept.",
	}, []string{fluxmetrics.LabelWaiter})
)

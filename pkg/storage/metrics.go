package storage

import (
	"github.com/go-kit/kit/metrics/prometheus"
	stdprometheus "github.com/prometheus/client_golang/prometheus"

	fluxmetrics "github.com/Eximchain/terraform-exim-blockscout-explorer/pkg/metrics"
)

var (
	uploadParts = prometheus.NewCounterFrom(stdprometheus.CounterOpts{
		Namespace: "bgdeploy",
		Subsystem: "upload",
		Name:      "parts_total",
		Help:      "Multipart upload parts attempted.",
	}, []string{fluxmetrics.LabelSuccess})

	uploadBytes = prometheus.NewCounterFrom(stdprometheus.CounterOpts{
		Namespace: "bgdeploy",
		Subsystem: "upload",
		Name:      "bytes_total",
		Help:      "Bytes of release bundle successfully uploaded.",
	}, []string{})
)

// Package metrics registers the Prometheus metrics emitted during plugin
// registration. The inspect server mounts them under /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registration counters and histograms.
var (
	// PluginsTotal counts plugin entries by outcome ("applied", "disabled",
	// "failed").
	PluginsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pressplug_plugins_total",
			Help: "Total number of plugin entries processed by registration.",
		},
		[]string{"status"},
	)

	// ContributionsTotal counts contributions by kind ("hook", "option"),
	// target name, and result ("accepted", "rejected").
	ContributionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pressplug_contributions_total",
			Help: "Total hook and option contributions seen during registration.",
		},
		[]string{"kind", "target", "result"},
	)

	// PassDuration observes the wall time of a full registration pass.
	PassDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pressplug_registration_duration_seconds",
			Help:    "Duration of a registration pass in seconds.",
			Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"outcome"},
	)

	// Reloads counts config reloads triggered by the file watcher, labelled
	// by outcome ("success", "error").
	Reloads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pressplug_config_reloads_total",
			Help: "Total config reloads triggered by file changes.",
		},
		[]string{"outcome"},
	)
)

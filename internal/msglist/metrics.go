package msglist

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// recomputeTotal counts full row list recomputes by trigger.
	recomputeTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "busview_msglist_recompute_total",
		Help: "Total row list recomputes by trigger",
	}, []string{"trigger"})

	// recomputeDuration tracks the cost of a recompute.
	recomputeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "busview_msglist_recompute_duration_seconds",
		Help:    "Row list recompute duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
	})

	// resetTotal counts recomputes that replaced the published row list.
	resetTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "busview_msglist_reset_total",
		Help: "Total row list resets",
	})

	// rowsGauge is the size of the published row list.
	rowsGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "busview_msglist_rows",
		Help: "Number of rows in the published row list",
	})
)

const (
	triggerNew      = "new_messages"
	triggerPeriodic = "periodic"
	triggerFilter   = "filter"
	triggerInactive = "inactive"
	triggerDemux    = "demux"
	triggerSort     = "sort"
	triggerSymbols  = "symbols"
)

package server

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/rewired-gh/gridledger/internal/ledger"
	"github.com/rewired-gh/gridledger/internal/snapshot"
)

const metricPrefix = "gridledger_"

var httpRequestsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: metricPrefix + "http_requests_total",
		Help: "API requests by endpoint and method",
	},
	[]string{"endpoint", "method"},
)

func init() {
	prometheus.MustRegister(httpRequestsTotal)
}

var registerOnce sync.Once

// registerEngineMetrics exposes engine state gauges. The default registry
// rejects duplicate collectors, so registration is bound to the first server
// instance; later instances (tests) share the process-wide gauges.
func registerEngineMetrics(snapshots *snapshot.Store, history *ledger.Ledger) {
	registerOnce.Do(func() { registerGauges(snapshots, history) })
}

func registerGauges(snapshots *snapshot.Store, history *ledger.Ledger) {
	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "ledger_entries",
			Help: "Historical entries currently held by the ledger",
		},
		func() float64 {
			return float64(len(history.Months()))
		},
	))

	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "capacity_loaded",
			Help: "Whether installed capacity was loaded from persistence or CSV (1) or started at zero (0)",
		},
		func() float64 {
			if snapshots.Loaded() {
				return 1
			}
			return 0
		},
	))
}

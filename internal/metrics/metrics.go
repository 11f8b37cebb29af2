// Package metrics holds the Prometheus collectors served on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	InvestmentsReconciled = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "aether",
		Name:      "investments_reconciled_total",
		Help:      "Pending investments moved to a final status by the chain mirror.",
	}, []string{"status"})

	BalancesMirrored = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "aether",
		Name:      "balances_mirrored_total",
		Help:      "Token balances whose mirrored value changed.",
	})

	MirrorErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "aether",
		Name:      "mirror_errors_total",
		Help:      "RPC failures seen by the chain mirror.",
	})

	MirrorLastSync = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "aether",
		Name:      "mirror_last_sync_timestamp_seconds",
		Help:      "Unix time of the last completed mirror pass.",
	})

	YieldPayouts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "aether",
		Name:      "yield_payouts_total",
		Help:      "Yield payouts attempted, by result.",
	}, []string{"status"})
)

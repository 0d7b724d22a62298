package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Checkpoint decisions.
const (
	DecisionKept     = "kept"
	DecisionRejected = "rejected"
	DecisionEvicted  = "evicted"
)

var checkpointDecisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "nmrcfg_checkpoint_decisions_total",
	Help: "Total number of checkpoint retention decisions, by decision and loss metric",
}, []string{"decision", "metric"})

// RecordCheckpoint records one retention decision. An eviction is recorded in
// addition to the kept decision that caused it.
func RecordCheckpoint(metric string, kept bool, evicted bool) {
	if !kept {
		checkpointDecisionsTotal.WithLabelValues(DecisionRejected, metric).Inc()
		return
	}
	checkpointDecisionsTotal.WithLabelValues(DecisionKept, metric).Inc()
	if evicted {
		checkpointDecisionsTotal.WithLabelValues(DecisionEvicted, metric).Inc()
	}
}

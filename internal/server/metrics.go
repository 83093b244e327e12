package server

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/crosscli/go-crosscli/internal/crosscli"
)

var (
	scansTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "crosscli",
		Subsystem: "scan",
		Name:      "runs_total",
		Help:      "Total adapter scans by source and outcome.",
	}, []string{"source", "status"})

	scanDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "crosscli",
		Subsystem: "scan",
		Name:      "duration_seconds",
		Help:      "Full registry scan duration in seconds.",
		Buckets:   prometheus.DefBuckets,
	})

	sessionsIndexed = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "crosscli",
		Subsystem: "scan",
		Name:      "sessions_indexed",
		Help:      "Sessions discovered in the most recent scan, by source.",
	}, []string{"source"})

	queryRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "crosscli",
		Subsystem: "server",
		Name:      "query_requests_total",
		Help:      "Total query requests by endpoint.",
	}, []string{"endpoint"})
)

// observeScan records scan metrics for one registry scan.
func observeScan(result *crosscli.ScanResult, err error, elapsed time.Duration) {
	scanDurationSeconds.Observe(elapsed.Seconds())
	if err != nil || result == nil {
		return
	}
	for _, st := range result.Statuses {
		status := "ok"
		switch {
		case st.Degraded:
			status = "degraded"
		case st.Err != "":
			status = "error"
		}
		scansTotal.WithLabelValues(string(st.Source), status).Inc()
		sessionsIndexed.WithLabelValues(string(st.Source)).Set(float64(st.SessionCount))
	}
}

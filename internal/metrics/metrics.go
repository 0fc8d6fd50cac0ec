package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const metricPrefix = "station_"

var (
	registerOnce sync.Once

	ingestEvents    *prometheus.CounterVec
	ingestRejects   *prometheus.CounterVec
	storeFailures   *prometheus.CounterVec
	ingestDurations *prometheus.HistogramVec
)

// Init registers the ingestion metrics with the default registry. Safe to
// call more than once.
func Init() {
	registerOnce.Do(func() {
		ingestEvents = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "ingest_events_total",
				Help: "Processed telemetry events by terminal outcome",
			},
			[]string{"outcome"},
		)
		ingestRejects = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "ingest_rejections_total",
				Help: "Rejected telemetry events by schema violation",
			},
			[]string{"reason"},
		)
		storeFailures = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "store_failures_total",
				Help: "Store write failures by store and failure kind",
			},
			[]string{"store", "kind"},
		)
		ingestDurations = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "ingest_duration_seconds",
				Help:    "End-to-end ingest latency by outcome",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"outcome"},
		)

		prometheus.MustRegister(ingestEvents, ingestRejects, storeFailures, ingestDurations)
	})
}

// ObserveIngest records one finished event with its latency.
func ObserveIngest(outcome string, seconds float64) {
	if ingestEvents == nil {
		return
	}
	ingestEvents.WithLabelValues(outcome).Inc()
	ingestDurations.WithLabelValues(outcome).Observe(seconds)
}

// IncRejection counts one schema rejection.
func IncRejection(reason string) {
	if ingestRejects == nil {
		return
	}
	ingestRejects.WithLabelValues(reason).Inc()
}

// IncStoreFailure counts one failed store write.
func IncStoreFailure(store, kind string) {
	if storeFailures == nil {
		return
	}
	storeFailures.WithLabelValues(store, kind).Inc()
}

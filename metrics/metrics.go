// Package metrics exposes prometheus collectors for the ingestion
// pipeline and the partitioned store. Collectors register themselves on
// the default registry; serving them is left to the host process.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var recordsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "lexbase_ingest_records_total",
	Help: "Records handled by the ingestion pipeline, labelled by outcome",
}, []string{"outcome"})

var runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "lexbase_ingest_runs_total",
	Help: "Completed ingestion runs labelled by result",
}, []string{"result"})

var batchWriteDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "lexbase_store_batch_write_seconds",
	Help:    "Wall time of one batched store write.",
	Buckets: []float64{.01, .05, .1, .25, .5, 1, 2, 5, 10},
})

var batchWriteBytes = promauto.NewCounter(prometheus.CounterOpts{
	Name: "lexbase_store_batch_write_bytes_total",
	Help: "Bytes written by batched store writes",
})

var storeRetries = promauto.NewCounter(prometheus.CounterOpts{
	Name: "lexbase_store_item_retries_total",
	Help: "Extra write attempts caused by throttled or unavailable store responses",
})

// Record outcomes.
const (
	OutcomeSkipped   = "skipped"
	OutcomeFailed    = "failed"
	OutcomeFiltered  = "filtered"
	OutcomeSucceeded = "succeeded"
)

func CountRecord(outcome string) {
	recordsProcessed.WithLabelValues(outcome).Inc()
}

func AddRecords(outcome string, n int) {
	recordsProcessed.WithLabelValues(outcome).Add(float64(n))
}

func CountRun(err error) {
	if err != nil {
		runsTotal.WithLabelValues("error").Inc()
		return
	}
	runsTotal.WithLabelValues("ok").Inc()
}

func ObserveBatchWrite(elapsed time.Duration, bytesWritten int64) {
	batchWriteDuration.Observe(elapsed.Seconds())
	batchWriteBytes.Add(float64(bytesWritten))
}

func AddStoreRetries(n int) {
	storeRetries.Add(float64(n))
}

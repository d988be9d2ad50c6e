// Package database implements the bucket engine: an atomically swapped
// Store of immutable records, CRUD with an id index, deferred queries,
// FIFO serialized transactions and quorum replication of the change log
// to remote sync targets.
package database

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	mutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bucketdb_mutations_total",
		Help: "Cumulative number of accepted mutating calls, by action.",
	}, []string{"action"})

	syncTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bucketdb_sync_total",
		Help: "Cumulative number of sync rounds, by outcome (pending, replicated, failed).",
	}, []string{"outcome"})

	syncSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "bucketdb_sync_seconds",
		Help:    "Latency of replication rounds until quorum is reached or lost.",
		Buckets: prometheus.DefBuckets,
	})

	pendingCommands = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bucketdb_pending_commands",
		Help: "Number of commands buffered locally while no remote is online.",
	})

	transactionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bucketdb_transactions_total",
		Help: "Cumulative number of settled transactions, by outcome.",
	}, []string{"outcome"})
)

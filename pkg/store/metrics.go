package store

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// StoreWrites tracks successful saves by sink
	StoreWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geo_store_writes_total",
			Help: "Total number of successful result saves",
		},
		[]string{"sink"}, // "json", "redis"
	)

	// StoreEntries tracks entries written by sink
	StoreEntries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geo_store_entries_total",
			Help: "Total number of result entries written",
		},
		[]string{"sink"},
	)

	// StoreErrors tracks store operation errors
	StoreErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geo_store_errors_total",
			Help: "Total number of store operation errors",
		},
		[]string{"sink", "operation"}, // "save", "load", "get"
	)
)

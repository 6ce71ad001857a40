// Package metrics collects prometheus counters for credential resolution
// and model discovery. Internal; not part of the public API.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "genaibind"

var (
	// DiscoveryRounds counts discovery round trips by source and outcome.
	DiscoveryRounds = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "discovery_rounds_total",
			Help:      "Model discovery round trips by source and outcome",
		},
		[]string{"source", "outcome"},
	)

	// CacheHits counts catalog reads served from the memoized snapshot.
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_cache_hits_total",
			Help:      "Catalog reads served from the cached snapshot",
		},
	)
)

// Label values for DiscoveryRounds.
const (
	SourceConfig  = "config"
	SourceListing = "listing"

	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

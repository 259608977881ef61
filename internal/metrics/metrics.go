package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ExtractionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "intentflow_extractions_total",
		Help: "High-intent extraction calls, partitioned by outcome.",
	}, []string{"outcome"})

	LLMRetriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "intentflow_llm_retries_total",
		Help: "LLM requests that failed and were retried.",
	})

	CandidatesDroppedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "intentflow_candidates_dropped_total",
		Help: "LLM-returned candidates rejected during validation.",
	}, []string{"reason"})

	CacheLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "intentflow_cache_lookups_total",
		Help: "Extraction cache lookups, partitioned by result.",
	}, []string{"result"})
)

package category

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var cacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "unrot_category_cache_hits",
	Help: "Category list served from cache",
}, []string{"directory"})

var cacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "unrot_category_cache_misses",
	Help: "Category list not found in cache",
}, []string{"directory"})

var requestsCoalesced = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "unrot_category_requests_coalesced",
	Help: "Category list fetches coalesced onto an in-flight request",
}, []string{"directory"})

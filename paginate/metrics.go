package paginate

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var pageFetches = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "unrot_paginate_page_fetches",
	Help: "Page fetches by list and outcome",
}, []string{"list", "status"})

var pageFetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "unrot_paginate_page_fetch_duration",
	Help:    "Time to fetch one page",
	Buckets: prometheus.ExponentialBucketsRange(0.001, 10, 20),
}, []string{"list", "status"})

var duplicateItems = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "unrot_paginate_duplicate_items",
	Help: "Items dropped because an earlier page already contained them",
}, []string{"list"})

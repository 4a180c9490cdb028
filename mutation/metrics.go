package mutation

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var mutations = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "unrot_mutations",
	Help: "Optimistic mutations by kind and outcome",
}, []string{"kind", "status"})

var rollbacks = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "unrot_mutation_rollbacks",
	Help: "Local interaction state reverted after a failed request",
}, []string{"kind"})

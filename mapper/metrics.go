package mapper

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var mappedRecords = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "unrot_mapper_records",
	Help: "Server post records mapped to client post variants",
}, []string{"kind", "status"})

package scheduler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ycomb_poster_runs_total",
		Help: "Pipeline runs by result.",
	}, []string{"result"})

	itemsFetchedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ycomb_poster_items_fetched_total",
		Help: "Items parsed from the listing page.",
	})

	itemsSentTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ycomb_poster_items_sent_total",
		Help: "Items delivered to the messaging channel.",
	})

	logPrunedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ycomb_poster_log_pruned_total",
		Help: "Sent log entries removed by retention.",
	})

	sentLogEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ycomb_poster_sent_log_entries",
		Help: "Entries in the sent log after the last successful run.",
	})
)

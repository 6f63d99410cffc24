package ops

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/hpungsan/packlist/internal/checklist"
)

var (
	operationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "packlist",
		Name:      "operations_total",
		Help:      "Committed checklist operations by kind.",
	}, []string{"op"})

	weatherLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "packlist",
		Name:      "weather_lookups_total",
		Help:      "Weather lookups by outcome (ready, error, cancelled, skipped).",
	}, []string{"outcome"})

	persistFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "packlist",
		Name:      "persist_failures_total",
		Help:      "Snapshot writes that failed and were ignored.",
	})

	checklistItems = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "packlist",
		Name:      "checklist_items",
		Help:      "Items in the current checklist.",
	})

	checklistProgress = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "packlist",
		Name:      "checklist_progress_percent",
		Help:      "Packed share of the current checklist.",
	})
)

func updateGauges(s checklist.State) {
	checklistItems.Set(float64(len(s.Items)))
	checklistProgress.Set(float64(checklist.Progress(s.Items)))
}

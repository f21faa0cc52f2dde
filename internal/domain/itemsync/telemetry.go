package itemsync

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

var (
	syncTracer = otel.Tracer("budgetmint/itemsync")
	syncMeter  = otel.Meter("budgetmint/itemsync")

	syncDuration, _ = syncMeter.Float64Histogram("itemsync.sync.duration",
		metric.WithDescription("Transaction sync duration in seconds"), metric.WithUnit("s"))
	syncTotal, _ = syncMeter.Int64Counter("itemsync.sync.total",
		metric.WithDescription("Transaction syncs by outcome"))
	syncChanges, _ = syncMeter.Int64Counter("itemsync.sync.changes",
		metric.WithDescription("Transaction deltas applied by kind"))
	syncCommits, _ = syncMeter.Int64Counter("itemsync.sync.commits",
		metric.WithDescription("Atomic sub-batch commits"))
	refreshTotal, _ = syncMeter.Int64Counter("itemsync.refresh.total",
		metric.WithDescription("Balance refreshes by outcome"))
	linkTotal, _ = syncMeter.Int64Counter("itemsync.link.total",
		metric.WithDescription("Link establishments by outcome"))
)

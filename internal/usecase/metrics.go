package usecase

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	reconcileTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_reconcile_total",
		Help: "Reconciliation outcomes by path",
	}, []string{"path"})
	snapshotMergeTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_snapshot_merge_total",
		Help: "Second-attempt snapshot lookups by result",
	}, []string{"result"})
	publishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_producer_published_total",
		Help: "Shipment events handed to the transport by result",
	}, []string{"result"})
	snapshotWritesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_producer_snapshot_writes_total",
		Help: "Best-effort snapshot writes by result",
	}, []string{"result"})
)

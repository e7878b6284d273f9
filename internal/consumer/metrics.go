package consumer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeProcessed   = "processed"
	outcomeUndecodable = "undecodable"
	outcomeInvalid     = "invalid"
	outcomeFailed      = "failed"
	outcomePanic       = "panic"
)

var (
	messagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_consumer_messages_total",
		Help: "Deliveries handled by the ingestion loop by outcome",
	}, []string{"outcome"})
	deadLettersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_consumer_dead_letters_total",
		Help: "Dead-letter sends by stage and result",
	}, []string{"stage", "result"})
	fetchErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dispatch_consumer_fetch_errors_total",
		Help: "Failed fetches from the shipments topic",
	})
	processingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "dispatch_consumer_processing_duration_seconds",
		Help:    "Time from handing a delivery to a lane until it is acknowledged",
		Buckets: prometheus.DefBuckets,
	})
)

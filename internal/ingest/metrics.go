package ingest

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "salesnode"

// Reasons a match event ends without emitting a sale.
const (
	dropTxUnavailable    = "tx_unavailable"
	dropBlockUnavailable = "block_unavailable"
	dropDecode           = "decode"
	dropPayment          = "payment_token"
)

var (
	saleEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "sale_events_total",
		Help:      "Sale events emitted to subscribers",
	}, []string{"listener"})

	salesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "sales_total",
		Help:      "Individual NFT sales emitted, one per item of a bundle",
	}, []string{"listener"})

	matchesDroppedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "matches_dropped_total",
		Help:      "Match events that produced no sale, by reason",
	}, []string{"listener", "reason"})

	backfillCheckpointBlock = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "backfill_checkpoint_block",
		Help:      "Last block fully processed by the backfill",
	}, []string{"listener"})
)

// Package metrics holds the process's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ChannelsSeededTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sequencer_channels_seeded_total",
		Help: "Total number of channels seeded",
	})

	ChannelsFinalizedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sequencer_channels_finalized_total",
		Help: "Total number of channels finalized on-chain",
	})

	SettleRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sequencer_settle_requests_total",
		Help: "Total settle requests by outcome",
	}, []string{"outcome"})

	SettleLatencySeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sequencer_settle_latency_seconds",
		Help:    "Latency of the settle algorithm, including the durable write",
		Buckets: prometheus.DefBuckets,
	})

	ChannelBalanceGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "sequencer_channel_recipient_balance",
		Help: "Current cumulative balance owed to a recipient in a channel",
	}, []string{"channel_id", "recipient"})

	ChannelsPrunedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sequencer_channels_pruned_total",
		Help: "Total number of expired channels pruned by the sweeper",
	})
)

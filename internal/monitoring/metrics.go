package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	QuoteTicks = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "maker_quote_ticks_total",
		Help: "Hedge-instrument book updates that drove a quote recompute.",
	})

	OrdersInserted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "maker_orders_inserted_total",
		Help: "Quote orders submitted, by side.",
	}, []string{"side"})

	OrdersCancelled = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "maker_orders_cancelled_total",
		Help: "Cancel commands issued for resting quote orders.",
	})

	FillVolume = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "maker_fill_volume_lots_total",
		Help: "Filled volume in lots, by instrument.",
	}, []string{"instrument"})

	HedgeOrders = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "maker_hedge_orders_total",
		Help: "Hedge orders submitted.",
	})

	EmergencyTriggers = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "maker_emergency_hedges_total",
		Help: "Emergency hedge state-machine activations.",
	})

	PrimaryPosition = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "maker_primary_position_lots",
		Help: "Net primary-instrument position.",
	})

	HedgePosition = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "maker_hedge_position_lots",
		Help: "Net hedge-instrument position.",
	})

	TradeTicks = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "maker_trade_ticks_received_total",
		Help: "Trade-tick updates received, by instrument.",
	}, []string{"instrument"})

	WSReconnects = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "maker_ws_reconnects_total",
		Help: "Venue WebSocket reconnect attempts, by worker.",
	}, []string{"worker"})

	EventLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "maker_event_handle_seconds",
		Help:    "Sequencer event handling latency in seconds.",
		Buckets: prometheus.ExponentialBuckets(0.000001, 4, 10),
	})
)

// InitMetrics registers all collectors with the default registry.
// Call once at startup.
func InitMetrics() {
	prometheus.MustRegister(
		QuoteTicks,
		OrdersInserted,
		OrdersCancelled,
		FillVolume,
		HedgeOrders,
		EmergencyTriggers,
		PrimaryPosition,
		HedgePosition,
		TradeTicks,
		WSReconnects,
		EventLatency,
	)
}

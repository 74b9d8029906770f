// Package metrics mirrors an RSI session's Statistics snapshot into
// Prometheus collectors on behalf of the control surface. It never touches
// the real-time worker directly; the control surface feeds it fresh
// snapshots from a background ticker outside the worker's hot path.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/kuka-rsi/rsi-gateway/internal/rsiproto"
)

// Collector holds the Prometheus collectors mirroring rsiproto.Statistics.
// Counters from the original library (packets_received, ...) are exposed
// as Gauges rather than Prometheus Counters: the value mirrored here is
// already a cumulative snapshot owned by the shared state block, and a
// Gauge lets Update just Set() it without reasoning about monotonic
// Counter deltas across ticks.
type Collector struct {
	PacketsReceived     prometheus.Gauge
	PacketsSent         prometheus.Gauge
	LateResponses       prometheus.Gauge
	ConnectionLostCount prometheus.Gauge
	AvgResponseTimeMs   prometheus.Gauge
	MinResponseTimeMs   prometheus.Gauge
	MaxResponseTimeMs   prometheus.Gauge
	Connected           prometheus.Gauge
}

// New creates a Collector and registers it with reg.
func New(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		PacketsReceived: factory.NewGauge(prometheus.GaugeOpts{
			Name: "rsi_packets_received_total",
			Help: "Total RSI sensor frames received from the robot.",
		}),
		PacketsSent: factory.NewGauge(prometheus.GaugeOpts{
			Name: "rsi_packets_sent_total",
			Help: "Total RSI correction frames sent to the robot.",
		}),
		LateResponses: factory.NewGauge(prometheus.GaugeOpts{
			Name: "rsi_late_responses_total",
			Help: "Total cycles whose processing time exceeded the 4ms RSI budget.",
		}),
		ConnectionLostCount: factory.NewGauge(prometheus.GaugeOpts{
			Name: "rsi_connection_lost_total",
			Help: "Total liveness-timeout transitions from connected to disconnected.",
		}),
		AvgResponseTimeMs: factory.NewGauge(prometheus.GaugeOpts{
			Name: "rsi_response_time_avg_ms",
			Help: "Running mean cycle processing time, in milliseconds.",
		}),
		MinResponseTimeMs: factory.NewGauge(prometheus.GaugeOpts{
			Name: "rsi_response_time_min_ms",
			Help: "Minimum observed cycle processing time, in milliseconds.",
		}),
		MaxResponseTimeMs: factory.NewGauge(prometheus.GaugeOpts{
			Name: "rsi_response_time_max_ms",
			Help: "Maximum observed cycle processing time, in milliseconds.",
		}),
		Connected: factory.NewGauge(prometheus.GaugeOpts{
			Name: "rsi_connected",
			Help: "1 if the robot is currently considered connected, 0 otherwise.",
		}),
	}
}

// Update mirrors stats into the collector's gauges.
func (c *Collector) Update(stats rsiproto.Statistics) {
	c.PacketsReceived.Set(float64(stats.PacketsReceived))
	c.PacketsSent.Set(float64(stats.PacketsSent))
	c.LateResponses.Set(float64(stats.LateResponses))
	c.ConnectionLostCount.Set(float64(stats.ConnectionLostCount))
	c.AvgResponseTimeMs.Set(stats.AvgResponseTimeMs)
	c.MinResponseTimeMs.Set(stats.MinResponseTimeMs)
	c.MaxResponseTimeMs.Set(stats.MaxResponseTimeMs)
	if stats.IsConnected {
		c.Connected.Set(1)
	} else {
		c.Connected.Set(0)
	}
}

// Package metrics exposes Prometheus collectors for store traffic and live viewers.
//
// A nil *Recorder is valid and records nothing, so callers never need to check.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "scorecard"

// Recorder implements gateway.Observer and tracks websocket clients.
type Recorder struct {
	writes        *prometheus.CounterVec
	writeDuration *prometheus.HistogramVec
	repairs       *prometheus.CounterVec
	deliveries    prometheus.Counter
	tournaments   prometheus.Gauge
	clients       prometheus.Gauge
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		writes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_writes_total",
			Help:      "Writes sent to the tournament store, by field and outcome.",
		}, []string{"field", "outcome"}),
		writeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "store_write_duration_seconds",
			Help:      "Time spent on a store write including retries.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"field"}),
		repairs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "repairs_total",
			Help:      "Healed fields written back to the store, by field and outcome.",
		}, []string{"field", "outcome"}),
		deliveries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_deliveries_total",
			Help:      "Full collection snapshots delivered to subscribers.",
		}),
		tournaments: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tournaments",
			Help:      "Tournaments in the most recent snapshot.",
		}),
		clients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "websocket_clients",
			Help:      "Connected live leaderboard clients.",
		}),
	}
	reg.MustRegister(r.writes, r.writeDuration, r.repairs, r.deliveries, r.tournaments, r.clients)
	return r
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// ObserveWrite counts one write and its latency.
func (r *Recorder) ObserveWrite(field string, err error, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.writes.WithLabelValues(field, outcome(err)).Inc()
	r.writeDuration.WithLabelValues(field).Observe(elapsed.Seconds())
}

// ObserveRepair counts one background write-back.
func (r *Recorder) ObserveRepair(field string, err error) {
	if r == nil {
		return
	}
	r.repairs.WithLabelValues(field, outcome(err)).Inc()
}

// ObserveDelivery counts a snapshot delivery.
func (r *Recorder) ObserveDelivery(tournaments int) {
	if r == nil {
		return
	}
	r.deliveries.Inc()
	r.tournaments.Set(float64(tournaments))
}

// ClientConnected and ClientDisconnected track live websocket clients.
func (r *Recorder) ClientConnected() {
	if r == nil {
		return
	}
	r.clients.Inc()
}

func (r *Recorder) ClientDisconnected() {
	if r == nil {
		return
	}
	r.clients.Dec()
}

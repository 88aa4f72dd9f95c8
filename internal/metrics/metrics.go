package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	rpcRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webshop_rpc_requests_total",
			Help: "Total number of webshop actions by outcome.",
		},
		[]string{"kind", "action", "outcome"},
	)
	rpcDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "webshop_rpc_duration_seconds",
			Help:    "Histogram of webshop action durations, retries included.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"kind", "action"},
	)
	assetTransfersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webshop_asset_transfers_total",
			Help: "Total number of asset store operations by outcome.",
		},
		[]string{"op", "outcome"},
	)
	syncEntitiesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webshop_sync_entities_total",
			Help: "Total number of entities pushed by batch runs.",
		},
		[]string{"kind", "outcome"},
	)
)

func init() {
	prometheus.MustRegister(rpcRequestsTotal)
	prometheus.MustRegister(rpcDuration)
	prometheus.MustRegister(assetTransfersTotal)
	prometheus.MustRegister(syncEntitiesTotal)
}

// RecordRPC records one webshop action. outcome is the response type
// ("ack", "error", "data") or "transport" when the call never completed.
func RecordRPC(kind, action, outcome string, d time.Duration) {
	rpcRequestsTotal.WithLabelValues(kind, action, outcome).Inc()
	rpcDuration.WithLabelValues(kind, action).Observe(d.Seconds())
}

func RecordAssetTransfer(op string, err error) {
	assetTransfersTotal.WithLabelValues(op, outcome(err)).Inc()
}

func RecordSyncEntity(kind string, err error) {
	syncEntitiesTotal.WithLabelValues(kind, outcome(err)).Inc()
}

func outcome(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

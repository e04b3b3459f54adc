package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the prometheus collectors for the presence gateway. A nil
// *Metrics is valid and records nothing, so components can be wired without
// caring whether metrics are enabled.
type Metrics struct {
	registry      *prometheus.Registry
	publishCnt    *prometheus.CounterVec
	reconnectCnt  prometheus.Counter
	heartbeatCnt  *prometheus.CounterVec
	assetCacheCnt *prometheus.CounterVec
	assetFallback prometheus.Counter
}

// New creates a Metrics with all collectors registered under the given
// namespace.
func New(namespace string) *Metrics {
	if namespace == "" {
		namespace = "presenced"
	}
	r := prometheus.NewRegistry()
	r.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	r.MustRegister(collectors.NewGoCollector())

	m := &Metrics{
		registry: r,
		publishCnt: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "presence_publish_total",
			Help: "Presence publishes by outcome.",
		}, []string{"outcome"}),
		reconnectCnt: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "gateway_reconnects_total",
			Help: "New gateway connections opened.",
		}),
		heartbeatCnt: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "gateway_heartbeats_total",
			Help: "Heartbeat frames by result.",
		}, []string{"result"}),
		assetCacheCnt: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "asset_cache_total",
			Help: "Asset cache lookups by result.",
		}, []string{"result"}),
		assetFallback: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "asset_fallback_total",
			Help: "Asset resolutions that fell back to the default asset.",
		}),
	}
	r.MustRegister(m.publishCnt, m.reconnectCnt, m.heartbeatCnt, m.assetCacheCnt, m.assetFallback)
	return m
}

// Handler exposes the registry over HTTP.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) IncPublish(outcome string) {
	if m == nil {
		return
	}
	m.publishCnt.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncReconnect() {
	if m == nil {
		return
	}
	m.reconnectCnt.Inc()
}

func (m *Metrics) IncHeartbeat(result string) {
	if m == nil {
		return
	}
	m.heartbeatCnt.WithLabelValues(result).Inc()
}

func (m *Metrics) IncAssetCache(result string) {
	if m == nil {
		return
	}
	m.assetCacheCnt.WithLabelValues(result).Inc()
}

func (m *Metrics) IncAssetFallback() {
	if m == nil {
		return
	}
	m.assetFallback.Inc()
}

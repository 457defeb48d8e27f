package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics concentra os coletores Prometheus do painel.
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	SessionsActive    prometheus.Gauge
	SessionsClosed    *prometheus.CounterVec
	HeartbeatsTotal   *prometheus.CounterVec
	RealtimeDelivered *prometheus.CounterVec
	RealtimeDropped   *prometheus.CounterVec
	RealtimeClients   prometheus.Gauge

	CacheHits   *prometheus.CounterVec
	CacheMisses *prometheus.CounterVec

	ImageProxyFetches *prometheus.CounterVec
	DriveDeletes      *prometheus.CounterVec
	CrisisAlerts      *prometheus.CounterVec
}

var (
	instance *Metrics
	once     sync.Once
)

// Get devolve o singleton, registrando os coletores na primeira chamada.
func Get() *Metrics {
	once.Do(func() {
		instance = &Metrics{
			HTTPRequestsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "painel_http_requests_total",
					Help: "Total de requisições HTTP",
				},
				[]string{"method", "path", "status"},
			),
			HTTPRequestDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "painel_http_request_duration_seconds",
					Help:    "Latência das requisições HTTP em segundos",
					Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
				},
				[]string{"method", "path", "status"},
			),
			SessionsActive: promauto.NewGauge(prometheus.GaugeOpts{
				Name: "painel_sessions_active",
				Help: "Sessões ativas na última varredura",
			}),
			SessionsClosed: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "painel_sessions_closed_total",
					Help: "Sessões encerradas por motivo",
				},
				[]string{"motivo"},
			),
			HeartbeatsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "painel_heartbeats_total",
					Help: "Heartbeats recebidos por resultado",
				},
				[]string{"result"},
			),
			RealtimeDelivered: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "painel_realtime_delivered_total",
					Help: "Mudanças entregues a assinantes",
				},
				[]string{"table"},
			),
			RealtimeDropped: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "painel_realtime_dropped_total",
					Help: "Mudanças descartadas por assinante lento",
				},
				[]string{"table"},
			),
			RealtimeClients: promauto.NewGauge(prometheus.GaugeOpts{
				Name: "painel_realtime_clients",
				Help: "Conexões websocket abertas",
			}),
			CacheHits: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "painel_cache_hits_total",
					Help: "Acertos de cache",
				},
				[]string{"cache"},
			),
			CacheMisses: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "painel_cache_misses_total",
					Help: "Faltas de cache",
				},
				[]string{"cache"},
			),
			ImageProxyFetches: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "painel_image_proxy_fetches_total",
					Help: "Buscas do proxy de imagens por status",
				},
				[]string{"status"},
			),
			DriveDeletes: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "painel_drive_deletes_total",
					Help: "Exclusões no Google Drive por status",
				},
				[]string{"status"},
			),
			CrisisAlerts: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "painel_crisis_alerts_total",
					Help: "Alertas de crise criados automaticamente",
				},
				[]string{"nivel"},
			),
		}
	})
	return instance
}

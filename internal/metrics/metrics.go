package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Metrics holds the prometheus collectors shared by the runtime services.
type Metrics struct {
	Registry *prometheus.Registry

	BusPublished prometheus.Counter
	BusOverflow  prometheus.Counter
	BusDepth     prometheus.Gauge

	MarketFetches *prometheus.CounterVec // label: result
	MarketLatency prometheus.Histogram

	NotificationsDropped prometheus.Counter

	NodePhase  prometheus.Gauge
	NodeStarts *prometheus.CounterVec // label: result
}

// New creates all collectors and registers them on a private registry.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		BusPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kaspamon_bus_published_total",
			Help: "Events accepted by the event bus",
		}),
		BusOverflow: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kaspamon_bus_overflow_total",
			Help: "Events dropped because the event bus was full",
		}),
		BusDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "kaspamon_bus_depth",
			Help: "Events waiting to be drained",
		}),
		MarketFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kaspamon_market_fetches_total",
			Help: "Market data polls by result",
		}, []string{"result"}),
		MarketLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "kaspamon_market_fetch_seconds",
			Help:    "Market data poll latency in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		NotificationsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kaspamon_notifications_dropped_total",
			Help: "Notifications dropped because the queue was full",
		}),
		NodePhase: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "kaspamon_node_phase",
			Help: "Current node supervisor phase",
		}),
		NodeStarts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kaspamon_node_starts_total",
			Help: "Node start attempts by result",
		}, []string{"result"}),
	}

	m.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.BusPublished,
		m.BusOverflow,
		m.BusDepth,
		m.MarketFetches,
		m.MarketLatency,
		m.NotificationsDropped,
		m.NodePhase,
		m.NodeStarts,
	)

	return m
}

// Handler returns the HTTP handler exposing the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, addr string, logger *zap.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("metrics listener started", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

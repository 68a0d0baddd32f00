package service

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics счётчики моста. Свой registry, чтобы тесты не делили глобальный.
type Metrics struct {
	registry *prometheus.Registry

	Messages prometheus.Counter
	Signals  *prometheus.CounterVec // result=executed|discarded|aborted
	Orders   *prometheus.CounterVec // leg, outcome
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Messages: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bridge",
			Name:      "messages_total",
			Help:      "Messages received from subscribed channels.",
		}),
		Signals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bridge",
			Name:      "signals_total",
			Help:      "Parse results per message.",
		}, []string{"result"}),
		Orders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bridge",
			Name:      "orders_total",
			Help:      "Order submissions by leg and outcome.",
		}, []string{"leg", "outcome"}),
	}
	m.registry.MustRegister(
		m.Messages,
		m.Signals,
		m.Orders,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

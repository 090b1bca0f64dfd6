package metrics

import (
	"time"

	"github.com/flood-exposure-viewer/internal/domain"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "flood_viewer"

// Metrics - метрики сессий просмотра и выгрузок
type Metrics struct {
	registry       *prometheus.Registry
	activeSessions prometheus.Gauge
	commands       *prometheus.CounterVec
	legendRefresh  prometheus.Histogram
	exports        *prometheus.CounterVec
	streamMessages *prometheus.CounterVec
}

// New создает метрики в собственном реестре
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Number of open viewer sessions.",
		}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Scenario commands by name and result.",
		}, []string{"command", "result"}),
		legendRefresh: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "legend_refresh_seconds",
			Help:      "Time from a selection change to the refreshed legend.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}),
		exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exports_total",
			Help:      "CSV exports by status.",
		}, []string{"status"}),
		streamMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stream_messages_total",
			Help:      "Stream messages handled by workers.",
		}, []string{"stream", "result"}),
	}

	m.registry.MustRegister(
		m.activeSessions,
		m.commands,
		m.legendRefresh,
		m.exports,
		m.streamMessages,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry возвращает реестр метрик
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) SetActiveSessions(n int) {
	m.activeSessions.Set(float64(n))
}

func (m *Metrics) ObserveCommand(command string, err error) {
	m.commands.WithLabelValues(command, result(err)).Inc()
}

func (m *Metrics) ObserveLegendRefresh(d time.Duration) {
	m.legendRefresh.Observe(d.Seconds())
}

func (m *Metrics) ObserveExport(status domain.ExportStatus) {
	m.exports.WithLabelValues(string(status)).Inc()
}

// ObserveStreamMessage учитывает сообщение, обработанное воркером
func (m *Metrics) ObserveStreamMessage(stream string, err error) {
	m.streamMessages.WithLabelValues(stream, result(err)).Inc()
}

// Handler отдает метрики в формате Prometheus
func (m *Metrics) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

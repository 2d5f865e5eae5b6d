package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"unitymcp/internal/domain"
)

type PrometheusMetrics struct {
	configLoads     *prometheus.CounterVec
	portResolutions *prometheus.CounterVec
	reloads         *prometheus.CounterVec
	configRevision  prometheus.Gauge
}

func NewPrometheusMetrics(registerer prometheus.Registerer) *PrometheusMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registerer)

	return &PrometheusMetrics{
		configLoads: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "unitymcp_config_loads_total",
				Help: "Total number of configuration load attempts",
			},
			[]string{"status"},
		),
		portResolutions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "unitymcp_port_resolutions_total",
				Help: "Total number of Unity port resolutions by source",
			},
			[]string{"source"},
		),
		reloads: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "unitymcp_config_reloads_total",
				Help: "Total number of configuration reloads",
			},
			[]string{"source", "status"},
		),
		configRevision: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "unitymcp_config_revision",
				Help: "Revision of the currently published configuration",
			},
		),
	}
}

func (p *PrometheusMetrics) RecordConfigLoad(err error) {
	p.configLoads.WithLabelValues(statusLabel(err)).Inc()
}

func (p *PrometheusMetrics) RecordPortResolution(source domain.PortSource) {
	p.portResolutions.WithLabelValues(string(source)).Inc()
}

func (p *PrometheusMetrics) RecordReload(source domain.ConfigUpdateSource, err error) {
	p.reloads.WithLabelValues(string(source), statusLabel(err)).Inc()
}

func (p *PrometheusMetrics) SetConfigRevision(revision uint64) {
	p.configRevision.Set(float64(revision))
}

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

var _ domain.Metrics = (*PrometheusMetrics)(nil)

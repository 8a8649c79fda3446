package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

const JobName = "price_pipeline_transformer"

// RunMetrics describes the last run of the transformer. A run is too short to
// be scraped, so the registry is pushed to a Pushgateway when the run ends.
type RunMetrics struct {
	registry *prometheus.Registry

	Rows        *prometheus.GaugeVec
	Anomaly     prometheus.Gauge
	Duration    prometheus.Gauge
	LastSuccess prometheus.Gauge
	LastFailure *prometheus.GaugeVec
}

func NewRunMetrics() *RunMetrics {
	m := &RunMetrics{
		registry: prometheus.NewRegistry(),
		Rows: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "price_pipeline_rows",
				Help: "Rows seen by the last run, by stage (in, dropped, out).",
			},
			[]string{"stage"},
		),
		Anomaly: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "price_pipeline_currency_anomaly",
			Help: "1 if the last run saw an unexpected currency.",
		}),
		Duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "price_pipeline_run_duration_seconds",
			Help: "Wall time of the last run.",
		}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "price_pipeline_last_success_timestamp_seconds",
			Help: "Unix time the last successful run finished.",
		}),
		LastFailure: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "price_pipeline_last_failure_timestamp_seconds",
				Help: "Unix time the last failed run finished, by failing step.",
			},
			[]string{"step"},
		),
	}

	m.registry.MustRegister(m.Rows, m.Anomaly, m.Duration, m.LastSuccess, m.LastFailure)
	return m
}

func (m *RunMetrics) ObserveSuccess(rowsIn, rowsDropped, rowsOut int, anomaly bool, duration time.Duration) {
	m.Rows.WithLabelValues("in").Set(float64(rowsIn))
	m.Rows.WithLabelValues("dropped").Set(float64(rowsDropped))
	m.Rows.WithLabelValues("out").Set(float64(rowsOut))
	if anomaly {
		m.Anomaly.Set(1)
	} else {
		m.Anomaly.Set(0)
	}
	m.Duration.Set(duration.Seconds())
	m.LastSuccess.SetToCurrentTime()
}

func (m *RunMetrics) ObserveFailure(step string, duration time.Duration) {
	m.Duration.Set(duration.Seconds())
	m.LastFailure.WithLabelValues(step).SetToCurrentTime()
}

// Push replaces the metrics grouped under this job and workflow on the gateway.
func (m *RunMetrics) Push(ctx context.Context, gatewayURL, workflow string) error {
	err := push.New(gatewayURL, JobName).
		Gatherer(m.registry).
		Grouping("workflow", workflow).
		PushContext(ctx)
	if err != nil {
		return fmt.Errorf("error pushing metrics to %s: %w", gatewayURL, err)
	}
	return nil
}

// Package metrics exports a finished run as a Prometheus text-format file,
// suitable for the node exporter's textfile collector.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/zen-systems/checkgate/pkg/pipeline"
)

const namespace = "checkgate"

// Collector holds the metrics for one run on a private registry.
type Collector struct {
	registry      *prometheus.Registry
	stageDuration *prometheus.GaugeVec
	stageExitCode *prometheus.GaugeVec
	stagesRun     prometheus.Counter
	pipelineExit  prometheus.Gauge
}

// NewCollector registers the run metrics on a fresh registry.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		stageDuration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Wall-clock duration of each executed stage.",
		}, []string{"stage"}),
		stageExitCode: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stage_exit_code",
			Help:      "Exit status of each executed stage.",
		}, []string{"stage"}),
		stagesRun: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stages_run_total",
			Help:      "Number of stages started in this run.",
		}),
		pipelineExit: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_exit_code",
			Help:      "Exit status of the whole pipeline.",
		}),
	}
	c.registry.MustRegister(c.stageDuration, c.stageExitCode, c.stagesRun, c.pipelineExit)
	return c
}

// Observe records outcome. Stages skipped after a failure produce no series.
func (c *Collector) Observe(outcome *pipeline.Outcome) {
	for _, stage := range outcome.Stages {
		c.stageDuration.WithLabelValues(stage.Name).Set(stage.Duration.Seconds())
		c.stageExitCode.WithLabelValues(stage.Name).Set(float64(stage.ExitCode))
		c.stagesRun.Inc()
	}
	c.pipelineExit.Set(float64(outcome.ExitCode()))
}

// WriteTextfile atomically writes the collected metrics to path.
func (c *Collector) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

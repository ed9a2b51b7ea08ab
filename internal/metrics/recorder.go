package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rxtech-lab/argo-forecast/pkg/errors"
)

const namespace = "argo_forecast"

// Recorder collects pipeline metrics into its own registry so runs never share state.
type Recorder struct {
	registry *prometheus.Registry

	barsTotal       *prometheus.CounterVec
	rowsTotal       *prometheus.CounterVec
	rowsDropped     *prometheus.CounterVec
	instrumentsDone *prometheus.CounterVec
	gridPoints      prometheus.Counter
	stageDuration   *prometheus.HistogramVec
	accuracy        *prometheus.GaugeVec
	windowAccuracy  *prometheus.GaugeVec
}

// New creates a recorder backed by a fresh registry.
func New() *Recorder {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Recorder{
		registry: registry,
		barsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "bars_total",
				Help:      "Input bars per instrument",
			},
			[]string{"symbol"},
		),
		rowsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "feature_rows_total",
				Help:      "Feature rows produced per instrument",
			},
			[]string{"symbol"},
		),
		rowsDropped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rows_dropped_total",
				Help:      "Bars that did not become feature rows",
			},
			[]string{"symbol", "reason"},
		),
		instrumentsDone: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "instruments_total",
				Help:      "Instruments featurized by outcome",
			},
			[]string{"status"},
		),
		gridPoints: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "tuning",
				Name:      "grid_points_scored_total",
				Help:      "Hyperparameter combinations scored by cross-validation",
			},
		),
		stageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "stage_duration_seconds",
				Help:      "Duration of pipeline stages in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
			},
			[]string{"stage"},
		),
		accuracy: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "accuracy",
				Help:      "Accuracy of the tuned model by evaluation",
			},
			[]string{"evaluation"},
		),
		windowAccuracy: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "walk_forward",
				Name:      "window_accuracy",
				Help:      "Accuracy of each walk-forward window",
			},
			[]string{"window"},
		),
	}
}

// Registry exposes the underlying registry, mainly for tests.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// RecordInstrument records the drop accounting of one featurized instrument.
func (r *Recorder) RecordInstrument(symbol string, input, undefined, noNextBar, output int, err error) {
	if err != nil {
		r.instrumentsDone.WithLabelValues("failed").Inc()

		return
	}

	r.instrumentsDone.WithLabelValues("ok").Inc()
	r.barsTotal.WithLabelValues(symbol).Add(float64(input))
	r.rowsTotal.WithLabelValues(symbol).Add(float64(output))
	r.rowsDropped.WithLabelValues(symbol, "undefined_feature").Add(float64(undefined))
	r.rowsDropped.WithLabelValues(symbol, "no_next_bar").Add(float64(noNextBar))
}

// RecordGridPoint counts one scored hyperparameter combination.
func (r *Recorder) RecordGridPoint() {
	r.gridPoints.Inc()
}

// ObserveStage records how long a pipeline stage took.
func (r *Recorder) ObserveStage(stage string, elapsed time.Duration) {
	r.stageDuration.WithLabelValues(stage).Observe(elapsed.Seconds())
}

// SetAccuracy records an accuracy such as "train", "holdout" or "cv".
func (r *Recorder) SetAccuracy(evaluation string, accuracy float64) {
	r.accuracy.WithLabelValues(evaluation).Set(accuracy)
}

// SetWindowAccuracy records the accuracy of a walk-forward window.
func (r *Recorder) SetWindowAccuracy(window string, accuracy float64) {
	r.windowAccuracy.WithLabelValues(window).Set(accuracy)
}

// WriteTextfile writes every metric in the text exposition format, for the node
// exporter textfile collector.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return errors.Wrapf(errors.ErrCodeWriteFailed, err, "failed to write metrics to %s", path)
	}

	return nil
}

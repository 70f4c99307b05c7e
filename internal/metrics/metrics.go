package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Train outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeInvalid = "invalid"
	OutcomeFailed  = "failed"
)

// Collector holds the sidecar's Prometheus instruments.
type Collector struct {
	trainRuns         *prometheus.CounterVec
	predictedRecords  prometheus.Counter
	retainedRecords   prometheus.Counter
	predictCalls      *prometheus.CounterVec
	clusterCalls      *prometheus.CounterVec
	clusteredSessions prometheus.Counter
	modelReady        prometheus.Gauge
}

// New registers the instruments on reg. A nil reg yields an unregistered
// collector, which is what tests want.
func New(reg prometheus.Registerer) *Collector {
	f := promauto.With(reg)
	return &Collector{
		trainRuns: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chronicle_ml_train_runs_total",
				Help: "Training runs by outcome and split mode",
			},
			[]string{"outcome", "positional"},
		),
		predictedRecords: f.NewCounter(
			prometheus.CounterOpts{
				Name: "chronicle_ml_predicted_records_total",
				Help: "Records submitted for prediction",
			},
		),
		retainedRecords: f.NewCounter(
			prometheus.CounterOpts{
				Name: "chronicle_ml_retained_predictions_total",
				Help: "Predictions at or above the requested threshold",
			},
		),
		predictCalls: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chronicle_ml_predict_calls_total",
				Help: "Prediction calls by outcome",
			},
			[]string{"outcome"},
		),
		clusterCalls: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chronicle_ml_cluster_calls_total",
				Help: "Clustering calls by outcome",
			},
			[]string{"outcome"},
		),
		clusteredSessions: f.NewCounter(
			prometheus.CounterOpts{
				Name: "chronicle_ml_sessions_total",
				Help: "Sessions produced by clustering",
			},
		),
		modelReady: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "chronicle_ml_model_loaded",
				Help: "1 when a trained model is published",
			},
		),
	}
}

// TrainRun records one training attempt.
func (c *Collector) TrainRun(outcome string, positional bool) {
	c.trainRuns.WithLabelValues(outcome, strconv.FormatBool(positional)).Inc()
}

// Predicted records a prediction call over submitted records of which
// retained cleared the threshold.
func (c *Collector) Predicted(submitted, retained int) {
	c.predictCalls.WithLabelValues(OutcomeSuccess).Inc()
	c.predictedRecords.Add(float64(submitted))
	c.retainedRecords.Add(float64(retained))
}

// PredictFailed records a rejected prediction call.
func (c *Collector) PredictFailed(outcome string) {
	c.predictCalls.WithLabelValues(outcome).Inc()
}

// Clustered records a successful clustering call.
func (c *Collector) Clustered(sessions int) {
	c.clusterCalls.WithLabelValues(OutcomeSuccess).Inc()
	c.clusteredSessions.Add(float64(sessions))
}

// ClusterFailed records a rejected clustering call.
func (c *Collector) ClusterFailed(outcome string) {
	c.clusterCalls.WithLabelValues(outcome).Inc()
}

// SetModelReady flips the readiness gauge.
func (c *Collector) SetModelReady(ready bool) {
	if ready {
		c.modelReady.Set(1)
		return
	}
	c.modelReady.Set(0)
}

package engine

import (
	"errors"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/crimson-sun/chronicle/internal/engine/predictor"
	"github.com/crimson-sun/chronicle/internal/engine/sessions"
	"github.com/crimson-sun/chronicle/internal/engine/store"
	"github.com/crimson-sun/chronicle/internal/metrics"
	"github.com/crimson-sun/chronicle/internal/model"
	"github.com/crimson-sun/chronicle/internal/pipeline"
)

// Accepted range for the session gap threshold, in minutes.
const (
	MinGapMinutes = 1
	MaxGapMinutes = 480
)

// Engine owns the published model and the train → predict → cluster operations.
// Predict and Cluster may run concurrently with each other and with Train;
// training runs are serialised.
type Engine struct {
	store     *store.Store
	pipeline  *pipeline.Pipeline
	predictor *predictor.Predictor
	clusterer *sessions.Clusterer
	metrics   *metrics.Collector
	logger    *zap.Logger

	trainMu sync.Mutex
}

// New creates an Engine with no model loaded. A nil collector records
// into an unregistered one.
func New(cfg pipeline.Config, m *metrics.Collector, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if m == nil {
		m = metrics.New(nil)
	}
	st := store.New()
	m.SetModelReady(false)
	return &Engine{
		store:     st,
		pipeline:  pipeline.New(st, cfg, logger.Named("pipeline")),
		predictor: predictor.New(st, logger.Named("predictor")),
		clusterer: sessions.New(logger.Named("sessions")),
		metrics:   m,
		logger:    logger,
	}
}

// Ready reports whether a trained model is published.
func (e *Engine) Ready() bool {
	return e.store.Ready()
}

// Version returns the published model's version, or "" when none is loaded.
func (e *Engine) Version() string {
	if a := e.store.Current(); a != nil {
		return a.Version
	}
	return ""
}

// Train fits and publishes a new model. A failed run leaves the previously
// published model in place.
func (e *Engine) Train(records []model.FeatureRecord, labels []int, modelType model.ModelType) (model.TrainResult, error) {
	queued := time.Now()
	e.trainMu.Lock()
	defer e.trainMu.Unlock()
	e.logger.Debug("training lock acquired", zap.Duration("waited", time.Since(queued)))

	res, err := e.pipeline.Train(records, labels, modelType)
	if err != nil {
		o := outcome(err)
		if o == metrics.OutcomeInvalid {
			e.logger.Warn("training request rejected", zap.Error(err))
		}
		e.metrics.TrainRun(o, false)
		return res, err
	}
	e.metrics.TrainRun(metrics.OutcomeSuccess, res.Metrics[model.MetricPositionalSplit] == 1)
	e.metrics.SetModelReady(true)
	e.logger.Info("model published",
		zap.String("version", res.ModelVersion),
		zap.Int("samples", res.SamplesTrained),
		zap.Duration("took", time.Since(queued)))
	return res, nil
}

// Predict assigns profiles to records, keeping those at or above threshold.
func (e *Engine) Predict(records []model.FeatureRecord, threshold float64) (model.PredictResult, error) {
	res, err := e.predictor.Predict(records, threshold)
	if err != nil {
		e.metrics.PredictFailed(outcome(err))
		return res, err
	}
	e.metrics.Predicted(len(records), res.TotalPredictions)
	return res, nil
}

// Cluster segments blocks into sessions. gapMinutes must lie in
// [MinGapMinutes, MaxGapMinutes].
func (e *Engine) Cluster(blocks []model.Block, gapMinutes float64) (model.ClusterResult, error) {
	if math.IsNaN(gapMinutes) || gapMinutes < MinGapMinutes || gapMinutes > MaxGapMinutes {
		err := model.Invalidf("gap_threshold_minutes must be between %d and %d, got %v", MinGapMinutes, MaxGapMinutes, gapMinutes)
		e.metrics.ClusterFailed(metrics.OutcomeInvalid)
		return model.ClusterResult{}, err
	}
	res, err := e.clusterer.Cluster(blocks, gapMinutes)
	if err != nil {
		e.metrics.ClusterFailed(outcome(err))
		return res, err
	}
	e.metrics.Clustered(res.TotalSessions)
	return res, nil
}

func outcome(err error) string {
	if model.IsValidation(err) || errors.Is(err, model.ErrNotReady) {
		return metrics.OutcomeInvalid
	}
	return metrics.OutcomeFailed
}

package chronicle

import (
	"errors"
	"time"

	"github.com/crimson-sun/chronicle/internal/engine"
	"github.com/crimson-sun/chronicle/internal/metrics"
	"github.com/crimson-sun/chronicle/internal/model"
	"github.com/crimson-sun/chronicle/internal/pipeline"
)

// ErrNotReady is returned by Predict before any model has been trained.
var ErrNotReady = model.ErrNotReady

// IsInvalid reports whether err was caused by bad input rather than an
// internal failure.
func IsInvalid(err error) bool {
	return model.IsValidation(err)
}

// IsTrainingFailure reports whether err is an internal failure while fitting.
func IsTrainingFailure(err error) bool {
	var te *model.TrainingError
	return errors.As(err, &te)
}

// Chronicle classifies activity records into profiles and clusters blocks
// into sessions. Safe for concurrent use.
type Chronicle struct {
	engine *engine.Engine
}

// New creates a Chronicle with no model loaded.
func New(opts ...Option) *Chronicle {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	cfg := pipeline.DefaultConfig()
	cfg.Seed = o.seed
	cfg.MinSamples = o.minSamples
	return &Chronicle{engine: engine.New(cfg, metrics.New(o.registerer), o.logger)}
}

// Ready reports whether a model has been trained.
func (c *Chronicle) Ready() bool {
	return c.engine.Ready()
}

// Version returns the current model version, or "" before training.
func (c *Chronicle) Version() string {
	return c.engine.Version()
}

// Train fits a profile classifier on records labelled with profile ids and
// publishes it. On error the previous model stays in use.
func (c *Chronicle) Train(records []Record, profileIDs []int) (TrainResult, error) {
	res, err := c.engine.Train(toFeatureRecords(records), profileIDs, model.ProfileClassifier)
	if err != nil {
		return TrainResult{}, err
	}
	return TrainResult{
		Version:        res.ModelVersion,
		Algorithm:      res.Algorithm,
		Metrics:        res.Metrics,
		SamplesTrained: res.SamplesTrained,
		Message:        res.Message,
	}, nil
}

// Predict returns the records whose most likely profile has a confidence of
// at least threshold, which must lie in [0, 1].
func (c *Chronicle) Predict(records []Record, threshold float64) (PredictResult, error) {
	res, err := c.engine.Predict(toFeatureRecords(records), threshold)
	if err != nil {
		return PredictResult{}, err
	}
	preds := make([]Prediction, len(res.Predictions))
	for i, p := range res.Predictions {
		preds[i] = Prediction{
			Index:      p.BlockIndex,
			ProfileID:  p.PredictedProfileID,
			Confidence: p.Confidence,
			Level:      string(p.ConfidenceLevel),
		}
	}
	return PredictResult{Predictions: preds, ModelVersion: res.ModelVersion, Message: res.Message}, nil
}

// Cluster groups blocks into sessions, starting a new one whenever the idle
// time since the previous block exceeds gap. gap must lie between one
// minute and eight hours.
func (c *Chronicle) Cluster(blocks []Block, gap time.Duration) (ClusterResult, error) {
	in := make([]model.Block, len(blocks))
	for i, b := range blocks {
		in[i] = model.Block{ID: b.ID, Start: b.Start, End: b.End}
	}
	res, err := c.engine.Cluster(in, gap.Minutes())
	if err != nil {
		return ClusterResult{}, err
	}
	sessions := make([]Session, len(res.Sessions))
	for i, s := range res.Sessions {
		sessions[i] = Session{
			ID:       s.ID,
			BlockIDs: s.BlockIDs,
			Start:    s.Start,
			End:      s.End,
			Duration: s.End.Sub(s.Start),
		}
	}
	return ClusterResult{Sessions: sessions, TotalBlocks: res.TotalBlocks, Message: res.Message}, nil
}

func toFeatureRecords(records []Record) []model.FeatureRecord {
	out := make([]model.FeatureRecord, len(records))
	for i, r := range records {
		out[i] = model.FeatureRecord{AppName: r.AppName, Title: r.Title, Domain: r.Domain, URL: r.URL}
	}
	return out
}

package pipeline

import (
	"errors"
	"fmt"
	"maps"
	"time"

	"go.uber.org/zap"

	"github.com/crimson-sun/chronicle/internal/engine/classifier"
	"github.com/crimson-sun/chronicle/internal/engine/evaluate"
	"github.com/crimson-sun/chronicle/internal/engine/features"
	"github.com/crimson-sun/chronicle/internal/engine/store"
	"github.com/crimson-sun/chronicle/internal/engine/vectorizer"
	"github.com/crimson-sun/chronicle/internal/model"
)

// Algorithm names the model a training run produces.
const Algorithm = "TF-IDF + Calibrated Logistic Regression"

// VersionLayout formats model versions from the UTC completion time.
const VersionLayout = "20060102_150405"

// MinTrainingSamples is the floor on training set size. Config.MinSamples
// may raise it but never lower it.
const MinTrainingSamples = 10

// Config controls a training run.
type Config struct {
	MinSamples         int
	ValidationFraction float64
	Seed               int64
	Vectorizer         vectorizer.Config
	Classifier         classifier.Config
}

// DefaultConfig returns the production training settings.
func DefaultConfig() Config {
	return Config{
		MinSamples:         MinTrainingSamples,
		ValidationFraction: 0.2,
		Seed:               42,
		Vectorizer:         vectorizer.DefaultConfig(),
		Classifier:         classifier.DefaultConfig(),
	}
}

// Pipeline splits labelled records, fits the vectorizer and classifier,
// evaluates on the held-out split and publishes the result to a store.
type Pipeline struct {
	store  *store.Store
	cfg    Config
	logger *zap.Logger
	now    func() time.Time
}

// New creates a Pipeline publishing into st.
func New(st *store.Store, cfg Config, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{store: st, cfg: cfg, logger: logger, now: time.Now}
}

// Train fits a new model on records and labels and publishes it. Invalid
// input yields a *model.ValidationError; any failure while fitting or
// evaluating yields a *model.TrainingError.
func (p *Pipeline) Train(records []model.FeatureRecord, labels []int, modelType model.ModelType) (res model.TrainResult, err error) {
	if err := p.validate(records, labels, modelType); err != nil {
		return model.TrainResult{}, err
	}

	log := p.logger.With(zap.String("model_type", string(modelType)), zap.Int("samples", len(records)))
	log.Info("training model")

	defer func() {
		if r := recover(); r != nil {
			err = &model.TrainingError{Stage: "fit", Err: fmt.Errorf("panic: %v", r)}
			log.Error("training panicked", zap.Any("panic", r))
		}
	}()

	texts := features.Texts(records)
	sp := splitSamples(labels, p.cfg.ValidationFraction, p.cfg.Seed)
	if sp.positional {
		log.Warn("class distribution too sparse to stratify, using positional split",
			zap.Int("train", len(sp.train)), zap.Int("val", len(sp.val)))
	}

	trainTexts, valTexts := pick(texts, sp.train), pick(texts, sp.val)
	trainY, valY := pick(labels, sp.train), pick(labels, sp.val)

	vec, err := vectorizer.Fit(trainTexts, p.cfg.Vectorizer)
	if err != nil {
		return model.TrainResult{}, p.fail(log, "vectorize", err)
	}
	trainX, err := vec.Transform(trainTexts)
	if err != nil {
		return model.TrainResult{}, p.fail(log, "vectorize", err)
	}
	valX, err := vec.Transform(valTexts)
	if err != nil {
		return model.TrainResult{}, p.fail(log, "vectorize", err)
	}

	clf, err := classifier.Fit(trainX, trainY, p.cfg.Classifier)
	if err != nil {
		return model.TrainResult{}, p.fail(log, "fit", err)
	}

	pred, err := clf.Predict(valX)
	if err != nil {
		return model.TrainResult{}, p.fail(log, "evaluate", err)
	}
	report := evaluate.Score(valY, pred)

	metrics := map[string]float64{
		model.MetricAccuracy:        report.Accuracy,
		model.MetricPrecision:       report.Precision,
		model.MetricRecall:          report.Recall,
		model.MetricF1:              report.F1,
		model.MetricTrainSamples:    float64(len(sp.train)),
		model.MetricValSamples:      float64(len(sp.val)),
		model.MetricPositionalSplit: boolMetric(sp.positional),
	}

	trainedAt := p.now().UTC()
	artifact := &store.Artifact{
		Vectorizer: vec,
		Classifier: clf,
		Version:    trainedAt.Format(VersionLayout),
		TrainedAt:  trainedAt,
		Metrics:    metrics,
	}
	p.store.Publish(artifact)

	log.Info("training complete",
		zap.String("version", artifact.Version),
		zap.Stringer("vectorizer", vec),
		zap.Float64("accuracy", report.Accuracy),
		zap.Float64("f1", report.F1))

	return model.TrainResult{
		Success:        true,
		ModelVersion:   artifact.Version,
		Algorithm:      Algorithm,
		Metrics:        maps.Clone(metrics),
		SamplesTrained: len(records),
		Message:        fmt.Sprintf("Model trained successfully with %.2f%% accuracy", report.Accuracy*100),
	}, nil
}

func (p *Pipeline) validate(records []model.FeatureRecord, labels []int, modelType model.ModelType) error {
	switch modelType {
	case model.ProfileClassifier:
	case model.SessionClusterer:
		return model.Invalidf("model_type %s is not trainable; sessions are computed by clustering", modelType)
	default:
		return model.Invalidf("invalid model_type: %s", modelType)
	}
	if len(records) != len(labels) {
		return model.Invalidf("Features and labels length mismatch")
	}
	if floor := max(p.cfg.MinSamples, MinTrainingSamples); len(records) < floor {
		return model.Invalidf("Need at least %d samples to train", floor)
	}
	return nil
}

func (p *Pipeline) fail(log *zap.Logger, stage string, err error) error {
	log.Error("training failed", zap.String("stage", stage), zap.Error(err))
	var te *model.TrainingError
	if errors.As(err, &te) {
		return te
	}
	return &model.TrainingError{Stage: stage, Err: err}
}

func boolMetric(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

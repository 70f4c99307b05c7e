package predictor

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/crimson-sun/chronicle/internal/engine/features"
	"github.com/crimson-sun/chronicle/internal/engine/store"
	"github.com/crimson-sun/chronicle/internal/model"
)

// Predictor assigns profiles to records using the store's current model.
type Predictor struct {
	store  *store.Store
	logger *zap.Logger
}

// New creates a Predictor reading from st.
func New(st *store.Store, logger *zap.Logger) *Predictor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Predictor{store: st, logger: logger}
}

// Predict classifies each record and keeps those whose confidence is at
// least threshold. Records below the threshold are dropped, not reported.
func (p *Predictor) Predict(records []model.FeatureRecord, threshold float64) (model.PredictResult, error) {
	// Load once: the whole call runs against this snapshot.
	a := p.store.Current()
	if a == nil {
		return model.PredictResult{}, model.ErrNotReady
	}
	if len(records) == 0 {
		return model.PredictResult{}, model.Invalidf("No features provided for prediction")
	}
	if math.IsNaN(threshold) || threshold < 0 || threshold > 1 {
		return model.PredictResult{}, model.Invalidf("threshold must be between 0.0 and 1.0, got %v", threshold)
	}

	X, err := a.Vectorizer.Transform(features.Texts(records))
	if err != nil {
		return model.PredictResult{}, fmt.Errorf("predict: %w", err)
	}
	results, err := a.Classifier.Classify(X)
	if err != nil {
		return model.PredictResult{}, fmt.Errorf("predict: %w", err)
	}

	kept := make([]model.PredictionResult, 0, len(results))
	for i, r := range results {
		if r.Confidence < threshold {
			continue
		}
		kept = append(kept, model.PredictionResult{
			BlockIndex:         i,
			PredictedProfileID: r.Label,
			Confidence:         r.Confidence,
			ConfidenceLevel:    model.LevelFor(r.Confidence),
		})
	}

	p.logger.Info("predicted profiles",
		zap.String("version", a.Version),
		zap.Int("records", len(records)),
		zap.Int("retained", len(kept)),
		zap.Float64("threshold", threshold))

	return model.PredictResult{
		Success:          true,
		Predictions:      kept,
		ModelVersion:     a.Version,
		TotalPredictions: len(kept),
		Message:          fmt.Sprintf("Predicted %d/%d blocks above threshold", len(kept), len(records)),
	}, nil
}

package model

import "time"

// ConfidenceLevel is the coarse bucket a prediction's probability falls into.
type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "HIGH"
	ConfidenceMedium ConfidenceLevel = "MEDIUM"
	ConfidenceLow    ConfidenceLevel = "LOW"
)

// Bucket boundaries for confidence levels.
const (
	HighConfidence   = 0.85
	MediumConfidence = 0.60
)

// LevelFor maps a probability to its confidence bucket.
func LevelFor(confidence float64) ConfidenceLevel {
	switch {
	case confidence >= HighConfidence:
		return ConfidenceHigh
	case confidence >= MediumConfidence:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// Metrics keys reported by a training run.
const (
	MetricAccuracy        = "accuracy"
	MetricPrecision       = "precision"
	MetricRecall          = "recall"
	MetricF1              = "f1_score"
	MetricTrainSamples    = "train_samples"
	MetricValSamples      = "val_samples"
	MetricPositionalSplit = "positional_split"
)

// TrainResult is the outcome of a successful training run.
type TrainResult struct {
	Success        bool
	ModelVersion   string
	Algorithm      string
	Metrics        map[string]float64
	SamplesTrained int
	Message        string
}

// PredictionResult is one retained prediction. BlockIndex is the record's
// position in the input batch.
type PredictionResult struct {
	BlockIndex         int
	PredictedProfileID int
	Confidence         float64
	ConfidenceLevel    ConfidenceLevel
}

// PredictResult holds the retained predictions of one batch, in input order.
type PredictResult struct {
	Success          bool
	Predictions      []PredictionResult
	ModelVersion     string
	TotalPredictions int
	Message          string
}

// Session is a maximal run of blocks whose internal gaps stay within the
// clustering threshold.
type Session struct {
	ID              int
	BlockIDs        []int64
	Start           time.Time
	End             time.Time
	DurationMinutes float64
	BlockCount      int
}

// ClusterResult is the outcome of a clustering call.
type ClusterResult struct {
	Success       bool
	Sessions      []Session
	TotalBlocks   int
	TotalSessions int
	Message       string
}

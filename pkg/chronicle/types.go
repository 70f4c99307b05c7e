package chronicle

import "time"

// Record describes one activity block to learn from or classify.
// Every field is optional.
type Record struct {
	AppName string `json:"app_name,omitempty"`
	Title   string `json:"title,omitempty"`
	Domain  string `json:"domain,omitempty"`
	URL     string `json:"url,omitempty"` // not used as a feature
}

// TrainResult describes a published model.
type TrainResult struct {
	Version        string             `json:"model_version"`
	Algorithm      string             `json:"algorithm"`
	Metrics        map[string]float64 `json:"metrics"` // accuracy, precision, recall, f1_score, train_samples, val_samples, positional_split
	SamplesTrained int                `json:"samples_trained"`
	Message        string             `json:"message"`
}

// Prediction is one record whose top profile cleared the threshold.
type Prediction struct {
	Index      int     `json:"block_index"` // position in the input
	ProfileID  int     `json:"predicted_profile_id"`
	Confidence float64 `json:"confidence"`
	Level      string  `json:"confidence_level"` // HIGH, MEDIUM or LOW
}

// PredictResult holds the retained predictions of one call.
type PredictResult struct {
	Predictions  []Prediction `json:"predictions"`
	ModelVersion string       `json:"model_version"`
	Message      string       `json:"message"`
}

// Block is a timestamped activity block.
type Block struct {
	ID    int64     `json:"block_id"`
	Start time.Time `json:"ts_start"`
	End   time.Time `json:"ts_end"`
}

// Session is a run of blocks with no idle gap above the threshold.
type Session struct {
	ID       int           `json:"session_id"`
	BlockIDs []int64       `json:"block_ids"`
	Start    time.Time     `json:"start_time"`
	End      time.Time     `json:"end_time"`
	Duration time.Duration `json:"duration"`
}

// ClusterResult holds the sessions found in one call.
type ClusterResult struct {
	Sessions    []Session `json:"sessions"`
	TotalBlocks int       `json:"total_blocks"`
	Message     string    `json:"message"`
}
